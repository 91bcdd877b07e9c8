package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/aryan0dhankhar/travellistings/internal/domain"
)

type Logger struct {
	logger *slog.Logger
}

func NewLogger(logger *slog.Logger) *Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logger{logger: logger.With(slog.String("component", "audit"))}
}

func (al *Logger) LogAction(ctx context.Context, actor domain.Actor, action, resource, resourceID, status, details string) {
	al.logger.InfoContext(ctx, "audit",
		slog.String("action", action),
		slog.String("resource", resource),
		slog.String("resource_id", resourceID),
		slog.String("actor", actorName(actor)),
		slog.String("status", status),
		slog.String("details", details),
		slog.String("request_id", middleware.GetReqID(ctx)),
		slog.Time("timestamp", time.Now()),
	)
}

// LogResult records an action with a status derived from its error
func (al *Logger) LogResult(ctx context.Context, actor domain.Actor, action, resource, resourceID string, err error) {
	if err == nil {
		al.LogAction(ctx, actor, action, resource, resourceID, "success", "")
		return
	}
	status := "failed"
	if kind := domain.KindOf(err); kind == "Forbidden" {
		status = "denied"
	}
	al.LogAction(ctx, actor, action, resource, resourceID, status, err.Error())
}

func (al *Logger) LogDenied(ctx context.Context, actor domain.Actor, reason string) {
	al.LogAction(ctx, actor, "access_denied", "api", "", "denied", reason)
}

func actorName(a domain.Actor) string {
	switch {
	case a.System:
		return "system"
	case a.Authenticated:
		return a.UserID.String()
	}
	return "anonymous"
}
