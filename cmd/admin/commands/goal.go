package commands

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/aldenhq/alden-api/internal/config"
	"github.com/aldenhq/alden-api/internal/database"
	"github.com/aldenhq/alden-api/internal/services/progress"
)

// NewGoalCmd creates the daily goal command
func NewGoalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "goal <email> <minutes>",
		Short: "Set a user's daily study goal",
		Long:  "Set the daily study goal, in minutes, for the user with the given email. A goal of 0 means every day counts toward the streak.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			email := args[0]
			minutes, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid minutes value %q: %w", args[1], err)
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

			user, err := userRepo.GetByEmail(ctx, email)
			if err != nil {
				return fmt.Errorf("failed to look up user %s: %w", email, err)
			}

			aggregator := progress.NewAggregator(
				userRepo,
				database.NewStudySessionRepository(db),
				database.NewMindfulSessionRepository(db),
			)
			if err := aggregator.UpdateDailyGoal(ctx, user.ID, minutes); err != nil {
				return fmt.Errorf("failed to update daily goal: %w", err)
			}

			fmt.Printf("Set daily goal for %s to %d minutes\n", email, minutes)
			return nil
		},
	}

	return cmd
}
