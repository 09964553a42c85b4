package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHealthCheck_Basic(t *testing.T) {
	t.Parallel()

	checker := NewHealthChecker(nil, nil, nil)

	req := httptest.NewRequest("GET", "/healthz", nil)
	rec := httptest.NewRecorder()
	checker.HealthCheck(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	var response HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if response.Status != "healthy" {
		t.Errorf("Expected healthy status, got %s", response.Status)
	}
	if response.Checks != nil {
		t.Error("Expected no dependency checks in basic mode")
	}
	if response.Timestamp == "" {
		t.Error("Expected a timestamp")
	}
}
