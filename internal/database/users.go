package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/aldenhq/alden-api/internal/models"
	"github.com/google/uuid"
)

// UserRepository handles user database operations
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create creates a new user. New users start with the default daily goal,
// zero streak, and zero accumulated time.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.DailyGoal == 0 {
		user.DailyGoal = models.DefaultDailyGoalMinutes
	}

	query := `
		INSERT INTO users (id, email, name, daily_goal, current_streak, total_study_time, total_mindful_time, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`

	now := time.Now().UTC()
	err := r.db.QueryRowContext(ctx, query,
		user.ID,
		user.Email,
		user.Name,
		user.DailyGoal,
		user.CurrentStreak,
		user.TotalStudyTime,
		user.TotalMindfulTime,
		now,
		now,
	).Scan(&user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `
		SELECT id, email, name, daily_goal, current_streak, total_study_time, total_mindful_time, created_at, updated_at
		FROM users
		WHERE id = $1
	`
	return r.scanUser(r.db.QueryRowContext(ctx, query, id))
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `
		SELECT id, email, name, daily_goal, current_streak, total_study_time, total_mindful_time, created_at, updated_at
		FROM users
		WHERE email = $1
	`
	return r.scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *UserRepository) scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.DailyGoal,
		&user.CurrentStreak,
		&user.TotalStudyTime,
		&user.TotalMindfulTime,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// SetDailyGoal overwrites the user's daily study goal
func (r *UserRepository) SetDailyGoal(ctx context.Context, id uuid.UUID, minutes int) error {
	query := `
		UPDATE users
		SET daily_goal = $2, updated_at = $3
		WHERE id = $1
	`
	return r.updateOne(ctx, query, id, minutes)
}

// SetStreak overwrites the user's current streak
func (r *UserRepository) SetStreak(ctx context.Context, id uuid.UUID, streak int) error {
	query := `
		UPDATE users
		SET current_streak = $2, updated_at = $3
		WHERE id = $1
	`
	return r.updateOne(ctx, query, id, streak)
}

func (r *UserRepository) updateOne(ctx context.Context, query string, id uuid.UUID, value int) error {
	result, err := r.db.ExecContext(ctx, query, id, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("user: %w", ErrNotFound)
	}

	return nil
}
