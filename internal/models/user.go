package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultDailyGoalMinutes is the daily study goal assigned to new users
	DefaultDailyGoalMinutes = 120
)

// User represents a user in the system
type User struct {
	ID               uuid.UUID `json:"id"`
	Email            string    `json:"email"`
	Name             string    `json:"name"`
	DailyGoal        int       `json:"daily_goal"`         // minutes
	CurrentStreak    int       `json:"current_streak"`     // consecutive qualifying days
	TotalStudyTime   int       `json:"total_study_time"`   // minutes
	TotalMindfulTime int       `json:"total_mindful_time"` // minutes
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
