package mindful

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/aldenhq/alden-api/internal/database"
	"github.com/aldenhq/alden-api/internal/models"
	"github.com/google/uuid"
)

type fakeMindfulRepo struct {
	sessions map[uuid.UUID]*models.MindfulSession
	order    []uuid.UUID
	credited int // total minutes credited to the user
}

func newFakeMindfulRepo() *fakeMindfulRepo {
	return &fakeMindfulRepo{sessions: make(map[uuid.UUID]*models.MindfulSession)}
}

func (r *fakeMindfulRepo) Create(_ context.Context, session *models.MindfulSession) error {
	cp := *session
	cp.CreatedAt = time.Now()
	r.sessions[session.ID] = &cp
	r.order = append(r.order, session.ID)
	return nil
}

func (r *fakeMindfulRepo) GetByID(_ context.Context, id, userID uuid.UUID) (*models.MindfulSession, error) {
	s, ok := r.sessions[id]
	if !ok || s.UserID != userID {
		return nil, database.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *fakeMindfulRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]*models.MindfulSession, error) {
	var result []*models.MindfulSession
	for _, id := range r.order {
		if s := r.sessions[id]; s.UserID == userID {
			cp := *s
			result = append(result, &cp)
		}
	}
	return result, nil
}

func (r *fakeMindfulRepo) Complete(_ context.Context, id, userID uuid.UUID, completedAt time.Time, rating *int, minutesCredit int) (*models.MindfulSession, error) {
	s, ok := r.sessions[id]
	if !ok || s.UserID != userID {
		return nil, database.ErrNotFound
	}
	if s.Completed {
		return nil, database.ErrAlreadyCompleted
	}
	s.Completed = true
	s.CompletedAt = &completedAt
	if rating != nil {
		s.Rating = rating
	}
	r.credited += minutesCredit
	cp := *s
	return &cp, nil
}

func (r *fakeMindfulRepo) CountCompleted(_ context.Context, userID uuid.UUID) (int, error) {
	count := 0
	for _, s := range r.sessions {
		if s.UserID == userID && s.Completed {
			count++
		}
	}
	return count, nil
}

func TestCreate_AllowsMultipleIncomplete(t *testing.T) {
	t.Parallel()

	repo := newFakeMindfulRepo()
	tracker := NewTracker(repo)
	userID := uuid.New()

	for i := 0; i < 3; i++ {
		_, err := tracker.Create(context.Background(), userID, CreateParams{
			Title:           "Focus Boost",
			Category:        models.CategoryPreStudy,
			DurationSeconds: 240,
		})
		if err != nil {
			t.Fatalf("Create %d: %v", i, err)
		}
	}

	sessions, err := tracker.List(context.Background(), userID)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(sessions) != 3 {
		t.Errorf("Expected 3 sessions, got %d", len(sessions))
	}
}

func TestComplete_CreditsFlooredMinutes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name            string
		durationSeconds int
		wantMinutes     int
	}{
		{name: "four minutes", durationSeconds: 240, wantMinutes: 4},
		{name: "under a minute credits zero", durationSeconds: 59, wantMinutes: 0},
		{name: "partial minute truncated", durationSeconds: 119, wantMinutes: 1},
		{name: "ten minutes", durationSeconds: 600, wantMinutes: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			repo := newFakeMindfulRepo()
			tracker := NewTracker(repo)
			userID := uuid.New()

			session, err := tracker.Create(context.Background(), userID, CreateParams{
				Title:           "Session",
				Category:        models.CategoryQuickRelief,
				DurationSeconds: tt.durationSeconds,
			})
			if err != nil {
				t.Fatalf("Create: %v", err)
			}

			rating := 5
			completed, err := tracker.Complete(context.Background(), userID, session.ID, &rating)
			if err != nil {
				t.Fatalf("Complete: %v", err)
			}

			if !completed.Completed {
				t.Error("Expected session to be completed")
			}
			if completed.Rating == nil || *completed.Rating != 5 {
				t.Errorf("Expected rating 5, got %v", completed.Rating)
			}
			if repo.credited != tt.wantMinutes {
				t.Errorf("Expected %d minutes credited, got %d", tt.wantMinutes, repo.credited)
			}
		})
	}
}

func TestComplete_AlreadyCompleted(t *testing.T) {
	t.Parallel()

	repo := newFakeMindfulRepo()
	tracker := NewTracker(repo)
	userID := uuid.New()

	session, err := tracker.Create(context.Background(), userID, CreateParams{
		Title:           "Session",
		Category:        models.CategoryPostStudy,
		DurationSeconds: 420,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := tracker.Complete(context.Background(), userID, session.ID, nil); err != nil {
		t.Fatalf("first Complete: %v", err)
	}

	_, err = tracker.Complete(context.Background(), userID, session.ID, nil)
	if !errors.Is(err, ErrAlreadyCompleted) {
		t.Errorf("Expected ErrAlreadyCompleted, got %v", err)
	}
	if repo.credited != 7 {
		t.Errorf("Expected 7 minutes credited exactly once, got %d", repo.credited)
	}
}

func TestComplete_NotFound(t *testing.T) {
	t.Parallel()

	tracker := NewTracker(newFakeMindfulRepo())

	_, err := tracker.Complete(context.Background(), uuid.New(), uuid.New(), nil)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestList_OrderedByCreationAscending(t *testing.T) {
	t.Parallel()

	repo := newFakeMindfulRepo()
	tracker := NewTracker(repo)
	userID := uuid.New()

	titles := []string{"First", "Second", "Third"}
	for _, title := range titles {
		if _, err := tracker.Create(context.Background(), userID, CreateParams{
			Title:           title,
			Category:        models.CategoryQuickRelief,
			DurationSeconds: 60,
		}); err != nil {
			t.Fatalf("Create %s: %v", title, err)
		}
	}

	sessions, err := tracker.List(context.Background(), userID)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	for i, title := range titles {
		if sessions[i].Title != title {
			t.Errorf("Expected session %d to be %q, got %q", i, title, sessions[i].Title)
		}
	}
}

func TestLoadCatalog_Default(t *testing.T) {
	t.Parallel()

	catalog, err := LoadCatalog("")
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	if len(catalog) != 4 {
		t.Fatalf("Expected 4 prebuilt sessions, got %d", len(catalog))
	}

	wantIDs := map[string]int{
		"focus-boost":      240,
		"sos-breathing":    60,
		"study-reflection": 420,
		"pre-exam-calm":    600,
	}
	for _, entry := range catalog {
		want, ok := wantIDs[entry.ID]
		if !ok {
			t.Errorf("Unexpected catalog entry %q", entry.ID)
			continue
		}
		if entry.Duration != want {
			t.Errorf("Expected %q duration %d, got %d", entry.ID, want, entry.Duration)
		}
	}
}

func TestLoadCatalog_FromFile(t *testing.T) {
	t.Parallel()

	path := t.TempDir() + "/catalog.yaml"
	content := `- id: morning-calm
  title: Morning Calm
  category: pre_study
  duration: 180
  audio_url: /audio/morning-calm.mp3
  description: Start the day settled
`
	if err := writeFile(path, content); err != nil {
		t.Fatalf("write catalog: %v", err)
	}

	catalog, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	if len(catalog) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(catalog))
	}
	if catalog[0].ID != "morning-calm" || catalog[0].Duration != 180 {
		t.Errorf("Unexpected entry: %+v", catalog[0])
	}
}

func TestLoadCatalog_InvalidCategory(t *testing.T) {
	t.Parallel()

	path := t.TempDir() + "/catalog.yaml"
	content := `- id: bad
  title: Bad
  category: not_a_category
  duration: 60
`
	if err := writeFile(path, content); err != nil {
		t.Fatalf("write catalog: %v", err)
	}

	if _, err := LoadCatalog(path); err == nil {
		t.Error("Expected error for invalid category")
	}
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o600)
}
