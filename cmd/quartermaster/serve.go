package main

import (
	"fmt"
	"os"

	"github.com/quartermaster-dev/quartermaster/internal/server"
	"github.com/spf13/cobra"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a Quartermaster server instance",
	Long: `Start the Quartermaster API server and ticket notifier.

Examples:
  quartermaster serve               # Run with config/env defaults
  quartermaster serve --port 8080   # Override port

Environment variables:
  QM_SERVER_PORT            Server port (default: 8480)
  QM_DATABASE_DRIVER        Database driver: sqlite, postgres
  QM_DATABASE_DSN           Database connection string
  QM_QUEUE_TYPE             Ticket event queue type: memory, valkey
  QM_AUTH_JWT_SECRET        JWT signing secret
  QM_TICKETING_WEBHOOK_URL  Ticketing webhook URL (empty = log only)
  ADMIN_USERNAME            Bootstrap admin username
  ADMIN_PASSWORD            Bootstrap admin password`,
	Run: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to run server on (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) {
	cfg := server.Config{
		Port:    servePort,
		Version: Version,
	}

	if err := server.RunWithSignalHandling(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
