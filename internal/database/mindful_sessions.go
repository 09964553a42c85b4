package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/aldenhq/alden-api/internal/models"
	"github.com/google/uuid"
)

// MindfulSessionRepository handles mindful session database operations
type MindfulSessionRepository struct {
	db *DB
}

// NewMindfulSessionRepository creates a new mindful session repository
func NewMindfulSessionRepository(db *DB) *MindfulSessionRepository {
	return &MindfulSessionRepository{db: db}
}

// Create creates a new mindful session. There is no uniqueness constraint:
// a user may have any number of sessions, incomplete ones included.
func (r *MindfulSessionRepository) Create(ctx context.Context, session *models.MindfulSession) error {
	query := `
		INSERT INTO mindful_sessions (id, user_id, title, category, duration_seconds, audio_url, description, completed, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE, $8)
		RETURNING created_at
	`

	err := r.db.QueryRowContext(ctx, query,
		session.ID,
		session.UserID,
		session.Title,
		session.Category,
		session.DurationSeconds,
		session.AudioURL,
		session.Description,
		time.Now().UTC(),
	).Scan(&session.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create mindful session: %w", err)
	}

	return nil
}

const mindfulSessionColumns = `id, user_id, title, category, duration_seconds, audio_url, description, completed, completed_at, rating, created_at`

// GetByID retrieves a mindful session by ID, scoped to the owning user
func (r *MindfulSessionRepository) GetByID(ctx context.Context, id, userID uuid.UUID) (*models.MindfulSession, error) {
	query := `
		SELECT ` + mindfulSessionColumns + `
		FROM mindful_sessions
		WHERE id = $1 AND user_id = $2
	`

	session, err := scanMindfulSessionRow(r.db.QueryRowContext(ctx, query, id, userID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("mindful session: %w", ErrNotFound)
	}
	return session, err
}

// ListByUser retrieves all sessions for a user ordered by creation time ascending
func (r *MindfulSessionRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.MindfulSession, error) {
	query := `
		SELECT ` + mindfulSessionColumns + `
		FROM mindful_sessions
		WHERE user_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query mindful sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*models.MindfulSession
	for rows.Next() {
		session, err := scanMindfulSessionRow(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating mindful sessions: %w", err)
	}

	return sessions, nil
}

// Complete marks a session completed and credits minutesCredit to the user's
// cumulative mindful time in the same transaction. The row lock guards
// against completing a session twice.
func (r *MindfulSessionRepository) Complete(ctx context.Context, id, userID uuid.UUID, completedAt time.Time, rating *int, minutesCredit int) (*models.MindfulSession, error) {
	var session *models.MindfulSession

	err := r.db.withTx(ctx, func(tx *sql.Tx) error {
		var completed bool
		err := tx.QueryRowContext(ctx,
			`SELECT completed FROM mindful_sessions WHERE id = $1 AND user_id = $2 FOR UPDATE`,
			id, userID,
		).Scan(&completed)
		if err == sql.ErrNoRows {
			return fmt.Errorf("mindful session: %w", ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to lock mindful session: %w", err)
		}
		if completed {
			return ErrAlreadyCompleted
		}

		row := tx.QueryRowContext(ctx, `
			UPDATE mindful_sessions
			SET completed = TRUE,
			    completed_at = $3,
			    rating = COALESCE($4, rating)
			WHERE id = $1 AND user_id = $2
			RETURNING `+mindfulSessionColumns,
			id, userID, completedAt, rating,
		)
		session, err = scanMindfulSessionRow(row)
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE users SET total_mindful_time = total_mindful_time + $2, updated_at = $3 WHERE id = $1`,
			userID, minutesCredit, time.Now().UTC(),
		); err != nil {
			return fmt.Errorf("failed to update user mindful time: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return session, nil
}

// CountCompleted returns the all-time count of completed sessions for a user
func (r *MindfulSessionRepository) CountCompleted(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM mindful_sessions WHERE user_id = $1 AND completed`,
		userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count completed mindful sessions: %w", err)
	}
	return count, nil
}

func scanMindfulSessionRow(row rowScanner) (*models.MindfulSession, error) {
	session := &models.MindfulSession{}
	var completedAt sql.NullTime
	var rating sql.NullInt64

	err := row.Scan(
		&session.ID,
		&session.UserID,
		&session.Title,
		&session.Category,
		&session.DurationSeconds,
		&session.AudioURL,
		&session.Description,
		&session.Completed,
		&completedAt,
		&rating,
		&session.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan mindful session: %w", err)
	}

	if completedAt.Valid {
		session.CompletedAt = &completedAt.Time
	}
	if rating.Valid {
		v := int(rating.Int64)
		session.Rating = &v
	}

	return session, nil
}
