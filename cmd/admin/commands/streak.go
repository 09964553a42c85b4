package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aldenhq/alden-api/internal/config"
	"github.com/aldenhq/alden-api/internal/database"
	"github.com/aldenhq/alden-api/internal/services/progress"
)

// NewStreakCmd creates the streak maintenance command
func NewStreakCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "streak <email>",
		Short: "Run the daily streak update for a user",
		Long: "Recompute the streak counter for the user with the given email. " +
			"Extends the streak when today's completed study time meets the daily goal, " +
			"resets it to zero otherwise. Intended to run once per day, typically just " +
			"before midnight from a scheduler.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			email := args[0]

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
			streak, err := aggregator.UpdateStreak(ctx, user.ID)
			if err != nil {
				return fmt.Errorf("failed to update streak: %w", err)
			}

			fmt.Printf("Streak for %s is now %d\n", email, streak)
			return nil
		},
	}

	return cmd
}
