package progress

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aldenhq/alden-api/internal/database"
	"github.com/google/uuid"
)

var (
	// ErrUserNotFound is returned when the user does not exist
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidGoal is returned when a daily goal is negative
	ErrInvalidGoal = errors.New("daily goal must be zero or positive")
)

// Snapshot is a point-in-time view of a user's study progress. Today's
// figures are computed over the current UTC calendar day.
type Snapshot struct {
	DailyGoal                int `json:"daily_goal"`
	TodayStudyTime           int `json:"today_study_time"`
	CurrentStreak            int `json:"current_streak"`
	TotalStudyTime           int `json:"total_study_time"`
	TotalMindfulTime         int `json:"total_mindful_time"`
	SessionsToday            int `json:"sessions_today"`
	MindfulSessionsCompleted int `json:"mindful_sessions_completed"`
}

// Aggregator computes progress snapshots and maintains goal and streak state.
type Aggregator struct {
	users   database.UserRepositoryInterface
	study   database.StudySessionRepositoryInterface
	mindful database.MindfulSessionRepositoryInterface
	now     func() time.Time
}

// NewAggregator creates a new progress aggregator
func NewAggregator(
	users database.UserRepositoryInterface,
	study database.StudySessionRepositoryInterface,
	mindful database.MindfulSessionRepositoryInterface,
) *Aggregator {
	return &Aggregator{
		users:   users,
		study:   study,
		mindful: mindful,
		now:     time.Now,
	}
}

// GetProgress returns the current progress snapshot for the user. "Today"
// is the UTC calendar day containing the current time; only completed
// study sessions count toward today's totals.
func (a *Aggregator) GetProgress(ctx context.Context, userID uuid.UUID) (*Snapshot, error) {
	user, err := a.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	from, to := dayBounds(a.now())
	todayMinutes, todaySessions, err := a.study.CompletedStatsBetween(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to compute today's study stats: %w", err)
	}

	mindfulCompleted, err := a.mindful.CountCompleted(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count mindful sessions: %w", err)
	}

	return &Snapshot{
		DailyGoal:                user.DailyGoal,
		TodayStudyTime:           todayMinutes,
		CurrentStreak:            user.CurrentStreak,
		TotalStudyTime:           user.TotalStudyTime,
		TotalMindfulTime:         user.TotalMindfulTime,
		SessionsToday:            todaySessions,
		MindfulSessionsCompleted: mindfulCompleted,
	}, nil
}

// UpdateDailyGoal sets the user's daily study goal in minutes. Zero is
// allowed and means every day qualifies for the streak.
func (a *Aggregator) UpdateDailyGoal(ctx context.Context, userID uuid.UUID, minutes int) error {
	if minutes < 0 {
		return ErrInvalidGoal
	}

	if err := a.users.SetDailyGoal(ctx, userID, minutes); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to update daily goal: %w", err)
	}
	return nil
}

// UpdateStreak advances or resets the user's streak based on whether
// today's completed study time meets the daily goal. It is meant to run
// once per day near the end of the day; running it twice in one day
// double-counts, which the scheduler must avoid.
func (a *Aggregator) UpdateStreak(ctx context.Context, userID uuid.UUID) (int, error) {
	snapshot, err := a.GetProgress(ctx, userID)
	if err != nil {
		return 0, err
	}

	streak := 0
	if snapshot.TodayStudyTime >= snapshot.DailyGoal {
		streak = snapshot.CurrentStreak + 1
	}

	if err := a.users.SetStreak(ctx, userID, streak); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return 0, ErrUserNotFound
		}
		return 0, fmt.Errorf("failed to update streak: %w", err)
	}
	return streak, nil
}

// dayBounds returns the half-open UTC interval [start, end) for the
// calendar day containing t.
func dayBounds(t time.Time) (time.Time, time.Time) {
	utc := t.UTC()
	start := time.Date(utc.Year(), utc.Month(), utc.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.Add(24 * time.Hour)
}
