package main

import (
	"os"

	"github.com/spf13/cobra"

	_ "github.com/quartermaster-dev/quartermaster/docs" // Load swagger docs
)

// Version is set via ldflags at build time
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "quartermaster",
	Short: "Quartermaster - IT asset management",
	Long:  `Quartermaster tracks hardware assets, who holds them, and the audit trail of every assignment change.`,
	Example: `  # Run the server with a bootstrap admin
  ADMIN_USERNAME=admin ADMIN_PASSWORD=secret quartermaster serve

  # Add a user to an existing database
  quartermaster create-user --username jdoe --password secret --first Jane --last Doe`,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(createUserCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
