package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/aldenhq/alden-api/internal/models"
	"github.com/aldenhq/alden-api/internal/request"
	"github.com/aldenhq/alden-api/internal/services/mindful"
	"github.com/aldenhq/alden-api/internal/validation"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// MindfulSessionHandler handles mindfulness session requests
type MindfulSessionHandler struct {
	tracker *mindful.Tracker
	catalog []mindful.PrebuiltSession
}

// NewMindfulSessionHandler creates a new mindful session handler
func NewMindfulSessionHandler(tracker *mindful.Tracker, catalog []mindful.PrebuiltSession) *MindfulSessionHandler {
	return &MindfulSessionHandler{tracker: tracker, catalog: catalog}
}

// RegisterRoutes registers mindful session routes on the given router.
// The router should already have the /mindful-sessions prefix.
func (h *MindfulSessionHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.CreateSession).Methods("POST")
	r.HandleFunc("", h.ListSessions).Methods("GET")
	r.HandleFunc("/prebuilt", h.ListPrebuilt).Methods("GET")
	r.HandleFunc("/{id}/complete", h.CompleteSession).Methods("PUT")
}

// CreateMindfulSessionRequest represents a create mindful session request
type CreateMindfulSessionRequest struct {
	Title       string `json:"title" validate:"required,min=1,max=200"`
	Category    string `json:"category" validate:"required,mindful_category"`
	Duration    int    `json:"duration" validate:"required,min=1,max=86400"`
	AudioURL    string `json:"audio_url" validate:"max=500"`
	Description string `json:"description" validate:"max=2000"`
}

// CompleteMindfulSessionRequest represents a complete mindful session request
type CompleteMindfulSessionRequest struct {
	Rating *int `json:"rating,omitempty"`
}

// CreateSession records a new mindful session for the authenticated user
func (h *MindfulSessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	var req CreateMindfulSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}

	if err := validation.Validate.Struct(req); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", fmt.Sprintf("Validation failed: %s", validationErrors[0].Error()))
			return
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Validation failed")
		return
	}

	req.Title = validation.SanitizeText(req.Title)
	if req.Title == "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Title is required and cannot be empty after sanitization")
		return
	}

	session, err := h.tracker.Create(r.Context(), user.ID, mindful.CreateParams{
		Title:           req.Title,
		Category:        models.MindfulCategory(req.Category),
		DurationSeconds: req.Duration,
		AudioURL:        req.AudioURL,
		Description:     validation.SanitizeText(req.Description),
	})
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to create mindful session")
		return
	}

	respondJSON(w, http.StatusCreated, session)
}

// ListSessions lists the user's mindful sessions in creation order
func (h *MindfulSessionHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	sessions, err := h.tracker.List(r.Context(), user.ID)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve mindful sessions")
		return
	}

	respondJSON(w, http.StatusOK, sessions)
}

// ListPrebuilt serves the static catalog of prebuilt sessions
func (h *MindfulSessionHandler) ListPrebuilt(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.catalog)
}

// CompleteSession marks a mindful session completed and credits its minutes
func (h *MindfulSessionHandler) CompleteSession(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid session ID")
		return
	}

	var req CompleteMindfulSessionRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
			return
		}
	}

	if req.Rating != nil {
		if err := validation.ValidateRating(*req.Rating); err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}
	}

	session, err := h.tracker.Complete(r.Context(), user.ID, id, req.Rating)
	if err != nil {
		switch {
		case errors.Is(err, mindful.ErrNotFound):
			respondJSONError(w, http.StatusNotFound, "Not Found", "Mindful session not found")
		case errors.Is(err, mindful.ErrAlreadyCompleted):
			respondJSONError(w, http.StatusConflict, "Conflict", "Mindful session already completed")
		default:
			respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to complete mindful session")
		}
		return
	}

	respondJSON(w, http.StatusOK, session)
}
