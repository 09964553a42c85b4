package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/aldenhq/alden-api/internal/config"
	"github.com/aldenhq/alden-api/internal/database"
	"github.com/aldenhq/alden-api/internal/models"
)

// NewUserCmd creates the user management command
func NewUserCmd() *cobra.Command {
	var name string
	var dailyGoal int

	cmd := &cobra.Command{
		Use:   "user <email>",
		Short: "Create a user",
		Long:  "Create a user account with the given email. Fails if a user with that email already exists.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			email := args[0]
			if email == "" {
				return fmt.Errorf("email cannot be empty")
			}
			if dailyGoal < 0 {
				return fmt.Errorf("daily goal cannot be negative")
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			db, err := database.New(cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer func() {
				if err := db.Close(); err != nil {
					fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
				}
			}()

			userRepo := database.NewUserRepository(db)
			ctx := context.Background()

			if existing, err := userRepo.GetByEmail(ctx, email); err == nil && existing != nil {
				return fmt.Errorf("user already exists: %s (%s)", email, existing.ID)
			}

			if name == "" {
				name = email
			}
			if dailyGoal == 0 {
				dailyGoal = models.DefaultDailyGoalMinutes
			}

			user := &models.User{
				ID:        uuid.New(),
				Email:     email,
				Name:      name,
				DailyGoal: dailyGoal,
			}
			if err := userRepo.Create(ctx, user); err != nil {
				return fmt.Errorf("failed to create user: %w", err)
			}

			fmt.Printf("Created user %s (%s) with daily goal %d minutes\n", email, user.ID, dailyGoal)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "display name (defaults to the email address)")
	cmd.Flags().IntVar(&dailyGoal, "daily-goal", 0, "daily study goal in minutes (defaults to 120)")

	return cmd
}
