package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/quartermaster-dev/quartermaster/internal/server"

	_ "github.com/quartermaster-dev/quartermaster/docs" // Load swagger docs
)

// Version is set via ldflags at build time
var Version = "dev"

// @title Quartermaster API
// @version 1.0
// @description IT asset management API: asset tracking, assignment flows, and activity audit
// @host localhost:8480
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	port := flag.Int("port", 0, "Port to run the server on (overrides config)")
	flag.Parse()

	if err := server.RunWithSignalHandling(server.Config{
		Port:    *port,
		Version: Version,
	}); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
