package main

import (
	"fmt"
	"os"

	"github.com/quartermaster-dev/quartermaster/internal/auth"
	"github.com/quartermaster-dev/quartermaster/internal/config"
	"github.com/quartermaster-dev/quartermaster/internal/db"
	"github.com/quartermaster-dev/quartermaster/internal/models"
	"github.com/spf13/cobra"
)

var (
	createUserName  string
	createUserPass  string
	createUserEmail string
	createUserFirst string
	createUserLast  string
)

var createUserCmd = &cobra.Command{
	Use:   "create-user",
	Short: "Create a user in the database",
	Run:   runCreateUser,
}

func init() {
	createUserCmd.Flags().StringVar(&createUserName, "username", "", "Username (required)")
	createUserCmd.Flags().StringVar(&createUserPass, "password", "", "Password (required)")
	createUserCmd.Flags().StringVar(&createUserEmail, "email", "", "Email (defaults to <username>@quartermaster.local)")
	createUserCmd.Flags().StringVar(&createUserFirst, "first", "", "First name")
	createUserCmd.Flags().StringVar(&createUserLast, "last", "", "Last name")
	createUserCmd.MarkFlagRequired("username")
	createUserCmd.MarkFlagRequired("password")
}

func runCreateUser(cmd *cobra.Command, args []string) {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	database, err := db.New(cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := db.Migrate(database); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	hash, err := auth.HashPassword(createUserPass)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	email := createUserEmail
	if email == "" {
		email = fmt.Sprintf("%s@quartermaster.local", createUserName)
	}

	user := models.User{
		Username:     createUserName,
		PasswordHash: hash,
		Email:        email,
		FirstName:    createUserFirst,
		LastName:     createUserLast,
	}
	if err := database.Create(&user).Error; err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Created user %s (%s)\n", user.Username, user.ID)
}
