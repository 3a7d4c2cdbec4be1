package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/restoreview/core/cmd/api/commands"
)

// @title Restaurant Reviews API
// @version 1.0
// @description Restaurants, reviews, users and images backed by a single JSON document

// @host localhost:5000
// @BasePath /api/v1

func main() {
	rootCmd := &cobra.Command{
		Use:           "restoreview",
		Short:         "Restaurant list and review site",
		Long:          `restoreview serves a small restaurant list with visitor reviews and keeps everything in one JSON data file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Add commands
	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(commands.NewRestaurantCommand())
	rootCmd.AddCommand(commands.NewReviewCommand())
	rootCmd.AddCommand(commands.NewUserCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	// Execute root command
	if err := rootCmd.Execute(); err != nil {
		log.Printf("Command execution failed: %v", err)
		os.Exit(1)
	}
}
