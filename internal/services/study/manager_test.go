package study

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aldenhq/alden-api/internal/database"
	"github.com/aldenhq/alden-api/internal/models"
	"github.com/google/uuid"
)

// fakeSessionRepo is an in-memory StudySessionRepositoryInterface that
// mirrors the database semantics: single active session per user, guarded
// completion, descending list order.
type fakeSessionRepo struct {
	sessions  map[uuid.UUID]*models.StudySession
	order     []uuid.UUID
	credited int // total minutes credited to the user
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[uuid.UUID]*models.StudySession)}
}

func (r *fakeSessionRepo) Create(_ context.Context, session *models.StudySession) error {
	for _, s := range r.sessions {
		if s.UserID == session.UserID && !s.Completed {
			return database.ErrActiveSessionExists
		}
	}
	cp := *session
	cp.CreatedAt = time.Now()
	r.sessions[session.ID] = &cp
	r.order = append(r.order, session.ID)
	return nil
}

func (r *fakeSessionRepo) GetByID(_ context.Context, id, userID uuid.UUID) (*models.StudySession, error) {
	s, ok := r.sessions[id]
	if !ok || s.UserID != userID {
		return nil, database.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *fakeSessionRepo) GetActive(_ context.Context, userID uuid.UUID) (*models.StudySession, error) {
	for _, s := range r.sessions {
		if s.UserID == userID && !s.Completed {
			cp := *s
			return &cp, nil
		}
	}
	return nil, database.ErrNotFound
}

func (r *fakeSessionRepo) ListByUser(_ context.Context, userID uuid.UUID, offset, limit int) ([]*models.StudySession, error) {
	var result []*models.StudySession
	// Newest first
	for i := len(r.order) - 1; i >= 0; i-- {
		s := r.sessions[r.order[i]]
		if s.UserID == userID {
			cp := *s
			result = append(result, &cp)
		}
	}
	if offset >= len(result) {
		return nil, nil
	}
	result = result[offset:]
	if limit < len(result) {
		result = result[:limit]
	}
	return result, nil
}

func (r *fakeSessionRepo) Complete(_ context.Context, id, userID uuid.UUID, endTime time.Time, durationMinutes int, focusScore *int, notes *string) (*models.StudySession, error) {
	s, ok := r.sessions[id]
	if !ok || s.UserID != userID {
		return nil, database.ErrNotFound
	}
	if s.Completed {
		return nil, database.ErrAlreadyCompleted
	}
	s.Completed = true
	s.EndTime = &endTime
	s.Duration = durationMinutes
	if focusScore != nil {
		s.FocusScore = focusScore
	}
	if notes != nil {
		s.Notes = notes
	}
	r.credited += durationMinutes
	cp := *s
	return &cp, nil
}

func (r *fakeSessionRepo) CompletedStatsBetween(_ context.Context, userID uuid.UUID, from, to time.Time) (int, int, error) {
	minutes, count := 0, 0
	for _, s := range r.sessions {
		if s.UserID == userID && s.Completed && !s.StartTime.Before(from) && s.StartTime.Before(to) {
			minutes += s.Duration
			count++
		}
	}
	return minutes, count, nil
}

func newTestManager(repo *fakeSessionRepo, now time.Time) *Manager {
	m := NewManager(repo)
	m.now = func() time.Time { return now }
	return m
}

func TestStartSession(t *testing.T) {
	t.Parallel()

	repo := newFakeSessionRepo()
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	m := newTestManager(repo, now)
	userID := uuid.New()

	session, err := m.StartSession(context.Background(), userID, StartParams{
		Subject:         "Linear Algebra",
		Goal:            "Finish chapter 4",
		Technique:       models.TechniquePomodoro,
		PlannedDuration: 25,
	})
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}

	if session.Subject != "Linear Algebra" {
		t.Errorf("Expected subject 'Linear Algebra', got %q", session.Subject)
	}
	if session.Completed {
		t.Error("Expected new session to be incomplete")
	}
	if session.Duration != 25 {
		t.Errorf("Expected planned duration 25, got %d", session.Duration)
	}
	if !session.StartTime.Equal(now) {
		t.Errorf("Expected start time %v, got %v", now, session.StartTime)
	}
}

func TestStartSession_ConflictWhenActive(t *testing.T) {
	t.Parallel()

	repo := newFakeSessionRepo()
	m := newTestManager(repo, time.Now())
	userID := uuid.New()

	if _, err := m.StartSession(context.Background(), userID, StartParams{Subject: "Math", Technique: models.TechniquePomodoro}); err != nil {
		t.Fatalf("first StartSession: %v", err)
	}

	_, err := m.StartSession(context.Background(), userID, StartParams{Subject: "Physics", Technique: models.TechniqueDeepWork})
	if !errors.Is(err, ErrActiveSession) {
		t.Errorf("Expected ErrActiveSession, got %v", err)
	}
}

func TestStartSession_OtherUsersUnaffected(t *testing.T) {
	t.Parallel()

	repo := newFakeSessionRepo()
	m := newTestManager(repo, time.Now())

	if _, err := m.StartSession(context.Background(), uuid.New(), StartParams{Subject: "History"}); err != nil {
		t.Fatalf("first user: %v", err)
	}
	if _, err := m.StartSession(context.Background(), uuid.New(), StartParams{Subject: "Biology"}); err != nil {
		t.Errorf("second user should start freely: %v", err)
	}
}

func TestEndSession(t *testing.T) {
	t.Parallel()

	repo := newFakeSessionRepo()
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	m := newTestManager(repo, start)
	userID := uuid.New()

	session, err := m.StartSession(context.Background(), userID, StartParams{Subject: "Math", PlannedDuration: 60})
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}

	// 47 minutes 59 seconds elapsed: floors to 47
	m.now = func() time.Time { return start.Add(47*time.Minute + 59*time.Second) }

	score := 8
	notes := "solid focus"
	ended, err := m.EndSession(context.Background(), userID, session.ID, &score, &notes)
	if err != nil {
		t.Fatalf("EndSession: %v", err)
	}

	if !ended.Completed {
		t.Error("Expected session to be completed")
	}
	if ended.Duration != 47 {
		t.Errorf("Expected floored duration 47, got %d", ended.Duration)
	}
	if ended.FocusScore == nil || *ended.FocusScore != 8 {
		t.Errorf("Expected focus score 8, got %v", ended.FocusScore)
	}
	if ended.Notes == nil || *ended.Notes != "solid focus" {
		t.Errorf("Expected notes to be stored, got %v", ended.Notes)
	}
	if repo.credited != 47 {
		t.Errorf("Expected 47 minutes credited, got %d", repo.credited)
	}
}

func TestEndSession_AlreadyEnded(t *testing.T) {
	t.Parallel()

	repo := newFakeSessionRepo()
	start := time.Now().UTC()
	m := newTestManager(repo, start)
	userID := uuid.New()

	session, err := m.StartSession(context.Background(), userID, StartParams{Subject: "Math"})
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}

	m.now = func() time.Time { return start.Add(30 * time.Minute) }
	if _, err := m.EndSession(context.Background(), userID, session.ID, nil, nil); err != nil {
		t.Fatalf("first EndSession: %v", err)
	}

	// Second end must not double-count
	_, err = m.EndSession(context.Background(), userID, session.ID, nil, nil)
	if !errors.Is(err, ErrAlreadyEnded) {
		t.Errorf("Expected ErrAlreadyEnded, got %v", err)
	}
	if repo.credited != 30 {
		t.Errorf("Expected 30 minutes credited exactly once, got %d", repo.credited)
	}
}

func TestEndSession_NotFound(t *testing.T) {
	t.Parallel()

	repo := newFakeSessionRepo()
	m := newTestManager(repo, time.Now())

	_, err := m.EndSession(context.Background(), uuid.New(), uuid.New(), nil, nil)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestEndSession_WrongUser(t *testing.T) {
	t.Parallel()

	repo := newFakeSessionRepo()
	m := newTestManager(repo, time.Now())
	owner := uuid.New()

	session, err := m.StartSession(context.Background(), owner, StartParams{Subject: "Math"})
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}

	_, err = m.EndSession(context.Background(), uuid.New(), session.ID, nil, nil)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for wrong user, got %v", err)
	}
}

func TestGetActiveSession(t *testing.T) {
	t.Parallel()

	repo := newFakeSessionRepo()
	start := time.Now().UTC()
	m := newTestManager(repo, start)
	userID := uuid.New()

	if _, err := m.GetActiveSession(context.Background(), userID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound before start, got %v", err)
	}

	session, err := m.StartSession(context.Background(), userID, StartParams{Subject: "Math"})
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}

	active, err := m.GetActiveSession(context.Background(), userID)
	if err != nil {
		t.Fatalf("GetActiveSession: %v", err)
	}
	if active.ID != session.ID {
		t.Errorf("Expected active session %s, got %s", session.ID, active.ID)
	}

	m.now = func() time.Time { return start.Add(10 * time.Minute) }
	if _, err := m.EndSession(context.Background(), userID, session.ID, nil, nil); err != nil {
		t.Fatalf("EndSession: %v", err)
	}

	if _, err := m.GetActiveSession(context.Background(), userID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound after end, got %v", err)
	}
}

func TestListSessions_Pagination(t *testing.T) {
	t.Parallel()

	repo := newFakeSessionRepo()
	start := time.Now().UTC()
	m := newTestManager(repo, start)
	userID := uuid.New()

	subjects := []string{"First", "Second", "Third"}
	for i, subject := range subjects {
		session, err := m.StartSession(context.Background(), userID, StartParams{Subject: subject})
		if err != nil {
			t.Fatalf("StartSession %d: %v", i, err)
		}
		m.now = func() time.Time { return start.Add(time.Duration(i+1) * time.Minute) }
		if _, err := m.EndSession(context.Background(), userID, session.ID, nil, nil); err != nil {
			t.Fatalf("EndSession %d: %v", i, err)
		}
	}

	all, err := m.ListSessions(context.Background(), userID, 0, 10)
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("Expected 3 sessions, got %d", len(all))
	}
	if all[0].Subject != "Third" {
		t.Errorf("Expected newest first, got %q", all[0].Subject)
	}

	page, err := m.ListSessions(context.Background(), userID, 1, 1)
	if err != nil {
		t.Fatalf("ListSessions page: %v", err)
	}
	if len(page) != 1 || page[0].Subject != "Second" {
		t.Errorf("Expected page [Second], got %+v", page)
	}
}
