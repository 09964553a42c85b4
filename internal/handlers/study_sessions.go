package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/aldenhq/alden-api/internal/models"
	"github.com/aldenhq/alden-api/internal/request"
	"github.com/aldenhq/alden-api/internal/services/study"
	"github.com/aldenhq/alden-api/internal/validation"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

const (
	// MaxSubjectLength is the maximum length for a subject
	MaxSubjectLength = 200
	// MaxGoalLength is the maximum length for a session goal
	MaxGoalLength = 2000
	// MaxNotesLength is the maximum length for session notes
	MaxNotesLength = 5000
	// DefaultSessionPageSize is the default page size when listing sessions
	DefaultSessionPageSize = 50
)

// StudySessionHandler handles study session requests
type StudySessionHandler struct {
	manager *study.Manager
}

// NewStudySessionHandler creates a new study session handler
func NewStudySessionHandler(manager *study.Manager) *StudySessionHandler {
	return &StudySessionHandler{manager: manager}
}

// RegisterRoutes registers study session routes on the given router.
// The router should already have the /study-sessions prefix.
func (h *StudySessionHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.StartSession).Methods("POST")
	r.HandleFunc("", h.ListSessions).Methods("GET")
	r.HandleFunc("/active", h.GetActiveSession).Methods("GET")
	r.HandleFunc("/{id}/end", h.EndSession).Methods("PUT")
}

// StartSessionRequest represents a start study session request
type StartSessionRequest struct {
	Subject         string `json:"subject" validate:"required,min=1,max=200"`
	Goal            string `json:"goal" validate:"max=2000"`
	Technique       string `json:"technique" validate:"required,study_technique"`
	PlannedDuration int    `json:"planned_duration" validate:"required,min=1,max=1440"`
}

// EndSessionRequest represents an end study session request
type EndSessionRequest struct {
	FocusScore *int    `json:"focus_score,omitempty" validate:"omitempty,min=1,max=10"`
	Notes      *string `json:"notes,omitempty"`
}

// StartSession starts a new study session for the authenticated user
func (h *StudySessionHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	var req StartSessionRequest
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

	req.Subject = validation.SanitizeText(req.Subject)
	req.Goal = validation.SanitizeText(req.Goal)
	if req.Subject == "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Subject is required and cannot be empty after sanitization")
		return
	}

	session, err := h.manager.StartSession(r.Context(), user.ID, study.StartParams{
		Subject:         req.Subject,
		Goal:            req.Goal,
		Technique:       models.StudyTechnique(req.Technique),
		PlannedDuration: req.PlannedDuration,
	})
	if err != nil {
		if errors.Is(err, study.ErrActiveSession) {
			respondJSONError(w, http.StatusConflict, "Conflict", "An active study session already exists")
			return
		}
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to start study session")
		return
	}

	respondJSON(w, http.StatusCreated, session)
}

// ListSessions lists the user's study sessions, newest first
func (h *StudySessionHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	offset := 0
	if o := r.URL.Query().Get("offset"); o != "" {
		if parsed, err := strconv.Atoi(o); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	limit := DefaultSessionPageSize
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	sessions, err := h.manager.ListSessions(r.Context(), user.ID, offset, limit)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve study sessions")
		return
	}

	respondJSON(w, http.StatusOK, sessions)
}

// GetActiveSession returns the user's active session, or 404 if none exists
func (h *StudySessionHandler) GetActiveSession(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	session, err := h.manager.GetActiveSession(r.Context(), user.ID)
	if err != nil {
		if errors.Is(err, study.ErrNotFound) {
			respondJSONError(w, http.StatusNotFound, "Not Found", "No active study session found")
			return
		}
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve active session")
		return
	}

	respondJSON(w, http.StatusOK, session)
}

// EndSession completes a study session and credits its duration
func (h *StudySessionHandler) EndSession(w http.ResponseWriter, r *http.Request) {
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

	var req EndSessionRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
			return
		}
	}

	if req.FocusScore != nil && (*req.FocusScore < 1 || *req.FocusScore > 10) {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Focus score must be between 1 and 10")
		return
	}
	if req.Notes != nil {
		sanitized := validation.SanitizeText(*req.Notes)
		if len(sanitized) > MaxNotesLength {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", fmt.Sprintf("Notes exceed maximum length of %d characters", MaxNotesLength))
			return
		}
		req.Notes = &sanitized
	}

	session, err := h.manager.EndSession(r.Context(), user.ID, id, req.FocusScore, req.Notes)
	if err != nil {
		switch {
		case errors.Is(err, study.ErrNotFound):
			respondJSONError(w, http.StatusNotFound, "Not Found", "Study session not found")
		case errors.Is(err, study.ErrAlreadyEnded):
			respondJSONError(w, http.StatusConflict, "Conflict", "Study session already ended")
		default:
			respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to end study session")
		}
		return
	}

	respondJSON(w, http.StatusOK, session)
}
