package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aldenhq/alden-api/internal/database"
	"github.com/aldenhq/alden-api/internal/models"
	"github.com/aldenhq/alden-api/internal/services/mindful"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type stubMindfulRepo struct {
	sessions map[uuid.UUID]*models.MindfulSession
}

func newStubMindfulRepo() *stubMindfulRepo {
	return &stubMindfulRepo{sessions: make(map[uuid.UUID]*models.MindfulSession)}
}

func (s *stubMindfulRepo) Create(_ context.Context, session *models.MindfulSession) error {
	session.CreatedAt = time.Now()
	s.sessions[session.ID] = session
	return nil
}

func (s *stubMindfulRepo) GetByID(_ context.Context, id, userID uuid.UUID) (*models.MindfulSession, error) {
	session, ok := s.sessions[id]
	if !ok || session.UserID != userID {
		return nil, database.ErrNotFound
	}
	return session, nil
}

func (s *stubMindfulRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]*models.MindfulSession, error) {
	var result []*models.MindfulSession
	for _, session := range s.sessions {
		if session.UserID == userID {
			result = append(result, session)
		}
	}
	return result, nil
}

func (s *stubMindfulRepo) Complete(_ context.Context, id, userID uuid.UUID, completedAt time.Time, rating *int, _ int) (*models.MindfulSession, error) {
	session, ok := s.sessions[id]
	if !ok || session.UserID != userID {
		return nil, database.ErrNotFound
	}
	if session.Completed {
		return nil, database.ErrAlreadyCompleted
	}
	session.Completed = true
	session.CompletedAt = &completedAt
	session.Rating = rating
	return session, nil
}

func (s *stubMindfulRepo) CountCompleted(_ context.Context, userID uuid.UUID) (int, error) {
	count := 0
	for _, session := range s.sessions {
		if session.UserID == userID && session.Completed {
			count++
		}
	}
	return count, nil
}

func newMindfulRouter(repo *stubMindfulRepo) *mux.Router {
	catalog, _ := mindful.LoadCatalog("")
	handler := NewMindfulSessionHandler(mindful.NewTracker(repo), catalog)
	router := mux.NewRouter()
	handler.RegisterRoutes(router.PathPrefix("/mindful-sessions").Subrouter())
	return router
}

func TestCreateMindfulSession(t *testing.T) {
	t.Parallel()

	router := newMindfulRouter(newStubMindfulRepo())

	body := `{"title":"Box breathing","category":"quick_relief","duration":120}`
	req := withUser(httptest.NewRequest("POST", "/mindful-sessions", strings.NewReader(body)), testUser())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var session models.MindfulSession
	decodeEnvelope(t, rec.Body.String(), &session)
	if session.Category != models.CategoryQuickRelief {
		t.Errorf("Unexpected category: %s", session.Category)
	}
	if session.DurationSeconds != 120 {
		t.Errorf("Expected duration 120, got %d", session.DurationSeconds)
	}
}

func TestCreateMindfulSession_InvalidCategory(t *testing.T) {
	t.Parallel()

	router := newMindfulRouter(newStubMindfulRepo())

	body := `{"title":"Nap","category":"sleeping","duration":120}`
	req := withUser(httptest.NewRequest("POST", "/mindful-sessions", strings.NewReader(body)), testUser())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}

func TestCompleteMindfulSession(t *testing.T) {
	t.Parallel()

	repo := newStubMindfulRepo()
	router := newMindfulRouter(repo)
	user := testUser()

	session := &models.MindfulSession{
		ID:              uuid.New(),
		UserID:          user.ID,
		Title:           "Focus Boost",
		Category:        models.CategoryPreStudy,
		DurationSeconds: 240,
	}
	repo.sessions[session.ID] = session

	req := withUser(httptest.NewRequest("PUT", "/mindful-sessions/"+session.ID.String()+"/complete", strings.NewReader(`{"rating":5}`)), user)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var completed models.MindfulSession
	decodeEnvelope(t, rec.Body.String(), &completed)
	if !completed.Completed {
		t.Error("Expected session to be completed")
	}
	if completed.Rating == nil || *completed.Rating != 5 {
		t.Errorf("Expected rating 5, got %v", completed.Rating)
	}

	// Completing again conflicts.
	req = withUser(httptest.NewRequest("PUT", "/mindful-sessions/"+session.ID.String()+"/complete", strings.NewReader(`{}`)), user)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusConflict {
		t.Errorf("Expected status 409 on re-complete, got %d", rec.Code)
	}
}

func TestCompleteMindfulSession_InvalidRating(t *testing.T) {
	t.Parallel()

	repo := newStubMindfulRepo()
	router := newMindfulRouter(repo)
	user := testUser()

	session := &models.MindfulSession{ID: uuid.New(), UserID: user.ID, DurationSeconds: 60}
	repo.sessions[session.ID] = session

	req := withUser(httptest.NewRequest("PUT", "/mindful-sessions/"+session.ID.String()+"/complete", strings.NewReader(`{"rating":6}`)), user)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}

func TestListPrebuiltSessions(t *testing.T) {
	t.Parallel()

	router := newMindfulRouter(newStubMindfulRepo())

	req := withUser(httptest.NewRequest("GET", "/mindful-sessions/prebuilt", nil), testUser())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	var catalog []mindful.PrebuiltSession
	decodeEnvelope(t, rec.Body.String(), &catalog)
	if len(catalog) != 4 {
		t.Fatalf("Expected 4 prebuilt sessions, got %d", len(catalog))
	}
	if catalog[0].ID != "focus-boost" {
		t.Errorf("Unexpected first catalog entry: %s", catalog[0].ID)
	}
}
