package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aldenhq/alden-api/internal/models"
	"github.com/aldenhq/alden-api/internal/request"
	"github.com/google/uuid"
)

// withUser attaches a user to the request context, the way the identity
// middleware does in production.
func withUser(r *http.Request, user *models.User) *http.Request {
	return r.WithContext(request.WithUser(r.Context(), user))
}

func testUser() *models.User {
	return &models.User{
		ID:    uuid.New(),
		Email: "student@example.com",
		Name:  "Student",
	}
}

// decodeEnvelope unpacks the standard success envelope into out
func decodeEnvelope(t *testing.T, body string, out any) {
	t.Helper()

	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal([]byte(body), &envelope); err != nil {
		t.Fatalf("Failed to decode envelope: %v", err)
	}
	if !envelope.Success {
		t.Fatalf("Expected success envelope, got %s", body)
	}
	if out != nil {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			t.Fatalf("Failed to decode data: %v", err)
		}
	}
}

func TestRespondJSON(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	respondJSON(rec, http.StatusCreated, map[string]string{"hello": "world"})

	if rec.Code != http.StatusCreated {
		t.Errorf("Expected status 201, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected application/json, got %s", ct)
	}

	var data map[string]string
	decodeEnvelope(t, rec.Body.String(), &data)
	if data["hello"] != "world" {
		t.Errorf("Unexpected data: %v", data)
	}
}

func TestRespondJSONError(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	respondJSONError(rec, http.StatusNotFound, "Not Found", "Session not found")

	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rec.Code)
	}

	var envelope struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if envelope.Success {
		t.Error("Expected success to be false")
	}
	if envelope.Error != "Not Found" || envelope.Message != "Session not found" {
		t.Errorf("Unexpected error payload: %+v", envelope)
	}
}

func TestSanitizeErrorMessage_Truncates(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("x", 500)
	got := sanitizeErrorMessage(long)
	if len(got) != 203 {
		t.Errorf("Expected truncated message of 203 characters, got %d", len(got))
	}
	if !strings.HasSuffix(got, "...") {
		t.Error("Expected truncated message to end with ellipsis")
	}
}
