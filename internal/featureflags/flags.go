package featureflags

import (
	"os"
	"strings"
)

// Known flags
const (
	// PastDateGuard rejects bookings whose check-in is before today.
	PastDateGuard = "PAST_DATE_GUARD"
	// CompletionWorker runs the periodic sweep that completes finished stays.
	CompletionWorker = "COMPLETION_WORKER"
	// DomainEvents publishes booking events to the message broker.
	DomainEvents = "DOMAIN_EVENTS"
)

// Enabled returns true if a flag is enabled via environment variable.
// Flags are read from env as FLAG_<NAME>=true/1/yes (case-insensitive)
func Enabled(name string) bool {
	return EnabledOr(name, false)
}

// EnabledOr is Enabled with a default for an unset or unrecognized value
func EnabledOr(name string, def bool) bool {
	v := os.Getenv("FLAG_" + strings.ToUpper(name))
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}
