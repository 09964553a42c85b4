package models

import (
	"time"

	"github.com/google/uuid"
)

// MindfulCategory represents the kind of mindfulness exercise
type MindfulCategory string

const (
	CategoryQuickRelief MindfulCategory = "quick_relief"
	CategoryPreStudy    MindfulCategory = "pre_study"
	CategoryPostStudy   MindfulCategory = "post_study"
	CategoryExamSupport MindfulCategory = "exam_support"
)

// MindfulSession represents a mindfulness session. Unlike study sessions,
// any number of incomplete mindful sessions may exist per user.
type MindfulSession struct {
	ID              uuid.UUID       `json:"id"`
	UserID          uuid.UUID       `json:"user_id"`
	Title           string          `json:"title"`
	Category        MindfulCategory `json:"category"`
	DurationSeconds int             `json:"duration"` // seconds
	AudioURL        string          `json:"audio_url"`
	Description     string          `json:"description"`
	Completed       bool            `json:"completed"`
	CompletedAt     *time.Time      `json:"completed_at,omitempty"`
	Rating          *int            `json:"rating,omitempty"` // 1-5
	CreatedAt       time.Time       `json:"created_at"`
}
