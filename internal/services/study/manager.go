package study

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
	// ErrActiveSession is returned when a user already has an incomplete session
	ErrActiveSession = errors.New("user already has an active study session")
	// ErrAlreadyEnded is returned when completing a session that is already completed
	ErrAlreadyEnded = errors.New("study session already ended")
	// ErrNotFound is returned when the session does not exist or is not owned by the user
	ErrNotFound = errors.New("study session not found")
)

// Manager handles the study session lifecycle. A user has at most one
// incomplete session at any time; ending a session is a one-way transition.
type Manager struct {
	sessions database.StudySessionRepositoryInterface
	now      func() time.Time
}

// NewManager creates a new study session manager
func NewManager(sessions database.StudySessionRepositoryInterface) *Manager {
	return &Manager{
		sessions: sessions,
		now:      time.Now,
	}
}

// StartParams are the inputs for starting a study session
type StartParams struct {
	Subject         string
	Goal            string
	Technique       models.StudyTechnique
	PlannedDuration int // minutes
}

// StartSession creates a new study session for the user. Returns
// ErrActiveSession if an incomplete session already exists; the check is
// backed by a partial unique index so concurrent starts cannot both win.
func (m *Manager) StartSession(ctx context.Context, userID uuid.UUID, params StartParams) (*models.StudySession, error) {
	if _, err := m.sessions.GetActive(ctx, userID); err == nil {
		return nil, ErrActiveSession
	} else if !errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("failed to check active session: %w", err)
	}

	session := &models.StudySession{
		ID:        uuid.New(),
		UserID:    userID,
		Subject:   params.Subject,
		Goal:      params.Goal,
		Technique: params.Technique,
		Duration:  params.PlannedDuration,
		StartTime: m.now().UTC(),
	}

	if err := m.sessions.Create(ctx, session); err != nil {
		if errors.Is(err, database.ErrActiveSessionExists) {
			// Lost the race to a concurrent start
			return nil, ErrActiveSession
		}
		return nil, fmt.Errorf("failed to create study session: %w", err)
	}

	return session, nil
}

// EndSession completes a study session. The elapsed duration in whole
// minutes (floored) replaces the planned duration and is credited to the
// user's total study time exactly once; ending an already-ended session
// returns ErrAlreadyEnded. Nil focusScore and notes keep existing values.
func (m *Manager) EndSession(ctx context.Context, userID, sessionID uuid.UUID, focusScore *int, notes *string) (*models.StudySession, error) {
	session, err := m.sessions.GetByID(ctx, sessionID, userID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load study session: %w", err)
	}

	endTime := m.now().UTC()
	elapsed := endTime.Sub(session.StartTime)
	durationMinutes := int(elapsed.Minutes())
	if durationMinutes < 0 {
		durationMinutes = 0
	}

	completed, err := m.sessions.Complete(ctx, sessionID, userID, endTime, durationMinutes, focusScore, notes)
	if err != nil {
		switch {
		case errors.Is(err, database.ErrNotFound):
			return nil, ErrNotFound
		case errors.Is(err, database.ErrAlreadyCompleted):
			return nil, ErrAlreadyEnded
		}
		return nil, fmt.Errorf("failed to end study session: %w", err)
	}

	return completed, nil
}

// GetActiveSession returns the user's single incomplete session, or
// ErrNotFound if there is none.
func (m *Manager) GetActiveSession(ctx context.Context, userID uuid.UUID) (*models.StudySession, error) {
	session, err := m.sessions.GetActive(ctx, userID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get active session: %w", err)
	}
	return session, nil
}

// ListSessions returns the user's sessions ordered by creation time
// descending, paginated by offset and limit.
func (m *Manager) ListSessions(ctx context.Context, userID uuid.UUID, offset, limit int) ([]*models.StudySession, error) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	sessions, err := m.sessions.ListByUser(ctx, userID, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list study sessions: %w", err)
	}
	return sessions, nil
}
