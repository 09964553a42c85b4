package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aldenhq/alden-api/cmd/admin/commands"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "alden-admin",
		Short: "Administration tool for the Alden API",
		Long:  "CLI tool for managing users, daily goals, and streak maintenance",
	}

	rootCmd.AddCommand(commands.NewUserCmd())
	rootCmd.AddCommand(commands.NewGoalCmd())
	rootCmd.AddCommand(commands.NewStreakCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
