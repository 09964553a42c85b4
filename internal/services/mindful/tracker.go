package mindful

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aldenhq/alden-api/internal/database"
	"github.com/aldenhq/alden-api/internal/models"
	"github.com/google/uuid"
)

var (
	// ErrAlreadyCompleted is returned when completing a session twice
	ErrAlreadyCompleted = errors.New("mindful session already completed")
	// ErrNotFound is returned when the session does not exist or is not owned by the user
	ErrNotFound = errors.New("mindful session not found")
)

// Tracker handles mindfulness session lifecycle. Unlike study sessions, any
// number of incomplete sessions may coexist per user.
type Tracker struct {
	sessions database.MindfulSessionRepositoryInterface
	now      func() time.Time
}

// NewTracker creates a new mindful session tracker
func NewTracker(sessions database.MindfulSessionRepositoryInterface) *Tracker {
	return &Tracker{
		sessions: sessions,
		now:      time.Now,
	}
}

// CreateParams are the inputs for creating a mindful session
type CreateParams struct {
	Title           string
	Category        models.MindfulCategory
	DurationSeconds int
	AudioURL        string
	Description     string
}

// Create records a new mindful session. Always succeeds; there is no
// uniqueness constraint on concurrent incomplete sessions.
func (t *Tracker) Create(ctx context.Context, userID uuid.UUID, params CreateParams) (*models.MindfulSession, error) {
	session := &models.MindfulSession{
		ID:              uuid.New(),
		UserID:          userID,
		Title:           params.Title,
		Category:        params.Category,
		DurationSeconds: params.DurationSeconds,
		AudioURL:        params.AudioURL,
		Description:     params.Description,
	}

	if err := t.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create mindful session: %w", err)
	}

	return session, nil
}

// Complete marks a session completed, stores the optional rating, and
// credits floor(duration_seconds/60) minutes to the user's total mindful
// time. Sessions under a minute credit 0 minutes. Completing an
// already-completed session returns ErrAlreadyCompleted.
func (t *Tracker) Complete(ctx context.Context, userID, sessionID uuid.UUID, rating *int) (*models.MindfulSession, error) {
	session, err := t.sessions.GetByID(ctx, sessionID, userID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load mindful session: %w", err)
	}

	minutesCredit := session.DurationSeconds / 60

	completed, err := t.sessions.Complete(ctx, sessionID, userID, t.now().UTC(), rating, minutesCredit)
	if err != nil {
		switch {
		case errors.Is(err, database.ErrNotFound):
			return nil, ErrNotFound
		case errors.Is(err, database.ErrAlreadyCompleted):
			return nil, ErrAlreadyCompleted
		}
		return nil, fmt.Errorf("failed to complete mindful session: %w", err)
	}

	return completed, nil
}

// List returns all of the user's sessions ordered by creation time ascending
func (t *Tracker) List(ctx context.Context, userID uuid.UUID) ([]*models.MindfulSession, error) {
	sessions, err := t.sessions.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list mindful sessions: %w", err)
	}
	return sessions, nil
}
