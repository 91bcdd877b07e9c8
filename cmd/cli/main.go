package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	serverURL  string
	tokenFlag  string
	jsonOutput bool
)

var rootCmd = &cobra.Command{
	Use:   "travellistings",
	Short: "Command line client for the travel listings API",
	Long: `travellistings talks to a running travel listings server.

Environment Variables:
  TRAVELLISTINGS_API    API endpoint (default: http://localhost:8080/api)
  TRAVELLISTINGS_TOKEN  Bearer token; overrides the saved login

Examples:
  travellistings auth register --email user@example.com --username user --password Password123
  travellistings listings search --location bled --amenities wifi,sauna
  travellistings bookings create --listing <id> --check-in 2025-06-01 --check-out 2025-06-05 --guests 2
  travellistings bookings confirm <booking-id>`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", envOr("TRAVELLISTINGS_API", "http://localhost:8080/api"), "API endpoint")
	rootCmd.PersistentFlags().StringVar(&tokenFlag, "token", os.Getenv("TRAVELLISTINGS_TOKEN"), "bearer token (default: saved login)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print raw JSON responses")

	rootCmd.AddCommand(authCmd(), listingsCmd(), bookingsCmd(), reviewsCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
