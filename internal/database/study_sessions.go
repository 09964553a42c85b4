package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/aldenhq/alden-api/internal/models"
	"github.com/google/uuid"
)

// StudySessionRepository handles study session database operations
type StudySessionRepository struct {
	db *DB
}

// NewStudySessionRepository creates a new study session repository
func NewStudySessionRepository(db *DB) *StudySessionRepository {
	return &StudySessionRepository{db: db}
}

// Create creates a new study session. Returns ErrActiveSessionExists if the
// user already has an incomplete session; the partial unique index makes the
// check-and-create atomic even under concurrent starts.
func (r *StudySessionRepository) Create(ctx context.Context, session *models.StudySession) error {
	query := `
		INSERT INTO study_sessions (id, user_id, subject, goal, technique, duration, start_time, completed, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE, $8)
		RETURNING created_at
	`

	err := r.db.QueryRowContext(ctx, query,
		session.ID,
		session.UserID,
		session.Subject,
		session.Goal,
		session.Technique,
		session.Duration,
		session.StartTime,
		time.Now().UTC(),
	).Scan(&session.CreatedAt)

	if err != nil {
		if isUniqueViolation(err, "uq_study_sessions_active") {
			return ErrActiveSessionExists
		}
		return fmt.Errorf("failed to create study session: %w", err)
	}

	return nil
}

const studySessionColumns = `id, user_id, subject, goal, technique, duration, start_time, end_time, completed, focus_score, notes, created_at`

// GetByID retrieves a study session by ID, scoped to the owning user
func (r *StudySessionRepository) GetByID(ctx context.Context, id, userID uuid.UUID) (*models.StudySession, error) {
	query := `
		SELECT ` + studySessionColumns + `
		FROM study_sessions
		WHERE id = $1 AND user_id = $2
	`
	return scanStudySession(r.db.QueryRowContext(ctx, query, id, userID))
}

// GetActive retrieves the user's single incomplete session, if any
func (r *StudySessionRepository) GetActive(ctx context.Context, userID uuid.UUID) (*models.StudySession, error) {
	query := `
		SELECT ` + studySessionColumns + `
		FROM study_sessions
		WHERE user_id = $1 AND NOT completed
	`
	return scanStudySession(r.db.QueryRowContext(ctx, query, userID))
}

// ListByUser retrieves sessions for a user ordered by creation time descending
func (r *StudySessionRepository) ListByUser(ctx context.Context, userID uuid.UUID, offset, limit int) ([]*models.StudySession, error) {
	query := `
		SELECT ` + studySessionColumns + `
		FROM study_sessions
		WHERE user_id = $1
		ORDER BY created_at DESC
		OFFSET $2 LIMIT $3
	`

	rows, err := r.db.QueryContext(ctx, query, userID, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query study sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*models.StudySession
	for rows.Next() {
		session, err := scanStudySessionRow(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating study sessions: %w", err)
	}

	return sessions, nil
}

// Complete marks a session as completed, records its actual duration, and
// adds that duration to the user's cumulative study time, all in one
// transaction. The row lock guards the active -> completed transition:
// a session can only be completed once.
func (r *StudySessionRepository) Complete(ctx context.Context, id, userID uuid.UUID, endTime time.Time, durationMinutes int, focusScore *int, notes *string) (*models.StudySession, error) {
	var session *models.StudySession

	err := r.db.withTx(ctx, func(tx *sql.Tx) error {
		var completed bool
		err := tx.QueryRowContext(ctx,
			`SELECT completed FROM study_sessions WHERE id = $1 AND user_id = $2 FOR UPDATE`,
			id, userID,
		).Scan(&completed)
		if err == sql.ErrNoRows {
			return fmt.Errorf("study session: %w", ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to lock study session: %w", err)
		}
		if completed {
			return ErrAlreadyCompleted
		}

		// Null focus_score/notes keep any existing values (partial update).
		row := tx.QueryRowContext(ctx, `
			UPDATE study_sessions
			SET end_time = $3,
			    completed = TRUE,
			    duration = $4,
			    focus_score = COALESCE($5, focus_score),
			    notes = COALESCE($6, notes)
			WHERE id = $1 AND user_id = $2
			RETURNING `+studySessionColumns,
			id, userID, endTime, durationMinutes, focusScore, notes,
		)
		session, err = scanStudySession(row)
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE users SET total_study_time = total_study_time + $2, updated_at = $3 WHERE id = $1`,
			userID, durationMinutes, time.Now().UTC(),
		); err != nil {
			return fmt.Errorf("failed to update user study time: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return session, nil
}

// CompletedStatsBetween returns the total duration and count of completed
// sessions whose start time falls in [from, to).
func (r *StudySessionRepository) CompletedStatsBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) (int, int, error) {
	query := `
		SELECT COALESCE(SUM(duration), 0), COUNT(*)
		FROM study_sessions
		WHERE user_id = $1 AND completed AND start_time >= $2 AND start_time < $3
	`

	var minutes, sessions int
	err := r.db.QueryRowContext(ctx, query, userID, from, to).Scan(&minutes, &sessions)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to aggregate study sessions: %w", err)
	}

	return minutes, sessions, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStudySession(row *sql.Row) (*models.StudySession, error) {
	session, err := scanStudySessionRow(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("study session: %w", ErrNotFound)
	}
	return session, err
}

func scanStudySessionRow(row rowScanner) (*models.StudySession, error) {
	session := &models.StudySession{}
	var endTime sql.NullTime
	var focusScore sql.NullInt64
	var notes sql.NullString

	err := row.Scan(
		&session.ID,
		&session.UserID,
		&session.Subject,
		&session.Goal,
		&session.Technique,
		&session.Duration,
		&session.StartTime,
		&endTime,
		&session.Completed,
		&focusScore,
		&notes,
		&session.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan study session: %w", err)
	}

	if endTime.Valid {
		session.EndTime = &endTime.Time
	}
	if focusScore.Valid {
		score := int(focusScore.Int64)
		session.FocusScore = &score
	}
	if notes.Valid {
		session.Notes = &notes.String
	}

	return session, nil
}
