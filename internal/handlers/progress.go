package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aldenhq/alden-api/internal/request"
	"github.com/aldenhq/alden-api/internal/services/progress"
	"github.com/gorilla/mux"
)

// ProgressHandler handles progress and streak requests
type ProgressHandler struct {
	aggregator *progress.Aggregator
}

// NewProgressHandler creates a new progress handler
func NewProgressHandler(aggregator *progress.Aggregator) *ProgressHandler {
	return &ProgressHandler{aggregator: aggregator}
}

// RegisterRoutes registers progress routes on the given router.
// The router should already have the /progress prefix.
func (h *ProgressHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.GetProgress).Methods("GET")
	r.HandleFunc("/user", h.GetUser).Methods("GET")
	r.HandleFunc("/daily-goal", h.UpdateDailyGoal).Methods("PUT")
	r.HandleFunc("/streak/update", h.UpdateStreak).Methods("POST")
}

// UpdateDailyGoalRequest represents a daily goal update request
type UpdateDailyGoalRequest struct {
	DailyGoal int `json:"daily_goal"`
}

// UpdateStreakResponse represents the streak after recomputation
type UpdateStreakResponse struct {
	CurrentStreak int `json:"current_streak"`
}

// GetProgress returns the user's progress snapshot
func (h *ProgressHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	snapshot, err := h.aggregator.GetProgress(r.Context(), user.ID)
	if err != nil {
		if errors.Is(err, progress.ErrUserNotFound) {
			respondJSONError(w, http.StatusNotFound, "Not Found", "User not found")
			return
		}
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to compute progress")
		return
	}

	respondJSON(w, http.StatusOK, snapshot)
}

// GetUser returns the authenticated user's profile record
func (h *ProgressHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	respondJSON(w, http.StatusOK, user)
}

// UpdateDailyGoal sets the user's daily study goal in minutes
func (h *ProgressHandler) UpdateDailyGoal(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	var req UpdateDailyGoalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}

	if err := h.aggregator.UpdateDailyGoal(r.Context(), user.ID, req.DailyGoal); err != nil {
		switch {
		case errors.Is(err, progress.ErrInvalidGoal):
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Daily goal must be zero or positive")
		case errors.Is(err, progress.ErrUserNotFound):
			respondJSONError(w, http.StatusNotFound, "Not Found", "User not found")
		default:
			respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to update daily goal")
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]int{"daily_goal": req.DailyGoal})
}

// UpdateStreak recomputes the user's streak against today's progress.
// Callers must invoke this at most once per day per user.
func (h *ProgressHandler) UpdateStreak(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	streak, err := h.aggregator.UpdateStreak(r.Context(), user.ID)
	if err != nil {
		if errors.Is(err, progress.ErrUserNotFound) {
			respondJSONError(w, http.StatusNotFound, "Not Found", "User not found")
			return
		}
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to update streak")
		return
	}

	respondJSON(w, http.StatusOK, UpdateStreakResponse{CurrentStreak: streak})
}
