package models

import (
	"time"

	"github.com/google/uuid"
)

// StudyTechnique represents the study method used for a session
type StudyTechnique string

const (
	TechniquePomodoro     StudyTechnique = "pomodoro"
	TechniqueDeepWork     StudyTechnique = "deep_work"
	TechniqueActiveRecall StudyTechnique = "active_recall"
)

// StudySession represents a single study session.
// A session is created when the user starts studying and mutated exactly once
// when it ends; at most one session per user may be incomplete at any time.
type StudySession struct {
	ID         uuid.UUID      `json:"id"`
	UserID     uuid.UUID      `json:"user_id"`
	Subject    string         `json:"subject"`
	Goal       string         `json:"goal"`
	Technique  StudyTechnique `json:"technique"`
	Duration   int            `json:"duration"` // minutes; planned until the session ends, actual afterwards
	StartTime  time.Time      `json:"start_time"`
	EndTime    *time.Time     `json:"end_time,omitempty"`
	Completed  bool           `json:"completed"`
	FocusScore *int           `json:"focus_score,omitempty"` // 1-10
	Notes      *string        `json:"notes,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}
