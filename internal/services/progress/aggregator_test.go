package progress

import (
	"context"
	"testing"
	"time"

	"github.com/aldenhq/alden-api/internal/database"
	"github.com/aldenhq/alden-api/internal/models"
	"github.com/google/uuid"
)

type fakeUserRepo struct {
	users map[uuid.UUID]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*models.User)}
}

func (f *fakeUserRepo) Create(_ context.Context, user *models.User) error {
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	for _, user := range f.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, database.ErrNotFound
}

func (f *fakeUserRepo) SetDailyGoal(_ context.Context, id uuid.UUID, minutes int) error {
	user, ok := f.users[id]
	if !ok {
		return database.ErrNotFound
	}
	user.DailyGoal = minutes
	return nil
}

func (f *fakeUserRepo) SetStreak(_ context.Context, id uuid.UUID, streak int) error {
	user, ok := f.users[id]
	if !ok {
		return database.ErrNotFound
	}
	user.CurrentStreak = streak
	return nil
}

type fakeStudyStats struct {
	database.StudySessionRepositoryInterface

	minutes  int
	sessions int
}

func (f *fakeStudyStats) CompletedStatsBetween(_ context.Context, _ uuid.UUID, _, _ time.Time) (int, int, error) {
	return f.minutes, f.sessions, nil
}

type fakeMindfulStats struct {
	database.MindfulSessionRepositoryInterface

	completed int
}

func (f *fakeMindfulStats) CountCompleted(_ context.Context, _ uuid.UUID) (int, error) {
	return f.completed, nil
}

func seedUser(repo *fakeUserRepo, goal, streak, totalStudy, totalMindful int) *models.User {
	user := &models.User{
		ID:               uuid.New(),
		Email:            "student@example.com",
		Name:             "Student",
		DailyGoal:        goal,
		CurrentStreak:    streak,
		TotalStudyTime:   totalStudy,
		TotalMindfulTime: totalMindful,
	}
	repo.users[user.ID] = user
	return user
}

func TestGetProgress(t *testing.T) {
	t.Parallel()

	users := newFakeUserRepo()
	user := seedUser(users, 120, 3, 900, 45)
	agg := NewAggregator(users, &fakeStudyStats{minutes: 75, sessions: 2}, &fakeMindfulStats{completed: 7})

	snapshot, err := agg.GetProgress(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("GetProgress failed: %v", err)
	}

	if snapshot.DailyGoal != 120 {
		t.Errorf("Expected daily goal 120, got %d", snapshot.DailyGoal)
	}
	if snapshot.TodayStudyTime != 75 {
		t.Errorf("Expected today study time 75, got %d", snapshot.TodayStudyTime)
	}
	if snapshot.CurrentStreak != 3 {
		t.Errorf("Expected streak 3, got %d", snapshot.CurrentStreak)
	}
	if snapshot.TotalStudyTime != 900 {
		t.Errorf("Expected total study time 900, got %d", snapshot.TotalStudyTime)
	}
	if snapshot.TotalMindfulTime != 45 {
		t.Errorf("Expected total mindful time 45, got %d", snapshot.TotalMindfulTime)
	}
	if snapshot.SessionsToday != 2 {
		t.Errorf("Expected 2 sessions today, got %d", snapshot.SessionsToday)
	}
	if snapshot.MindfulSessionsCompleted != 7 {
		t.Errorf("Expected 7 mindful sessions completed, got %d", snapshot.MindfulSessionsCompleted)
	}
}

func TestGetProgress_UserNotFound(t *testing.T) {
	t.Parallel()

	agg := NewAggregator(newFakeUserRepo(), &fakeStudyStats{}, &fakeMindfulStats{})

	if _, err := agg.GetProgress(context.Background(), uuid.New()); err != ErrUserNotFound {
		t.Errorf("Expected ErrUserNotFound, got %v", err)
	}
}

func TestUpdateDailyGoal(t *testing.T) {
	t.Parallel()

	users := newFakeUserRepo()
	user := seedUser(users, 120, 0, 0, 0)
	agg := NewAggregator(users, &fakeStudyStats{}, &fakeMindfulStats{})

	if err := agg.UpdateDailyGoal(context.Background(), user.ID, 90); err != nil {
		t.Fatalf("UpdateDailyGoal failed: %v", err)
	}
	if users.users[user.ID].DailyGoal != 90 {
		t.Errorf("Expected goal 90, got %d", users.users[user.ID].DailyGoal)
	}

	// Zero disables the requirement rather than being invalid.
	if err := agg.UpdateDailyGoal(context.Background(), user.ID, 0); err != nil {
		t.Errorf("Expected zero goal to be accepted, got %v", err)
	}

	if err := agg.UpdateDailyGoal(context.Background(), user.ID, -1); err != ErrInvalidGoal {
		t.Errorf("Expected ErrInvalidGoal for negative goal, got %v", err)
	}

	if err := agg.UpdateDailyGoal(context.Background(), uuid.New(), 60); err != ErrUserNotFound {
		t.Errorf("Expected ErrUserNotFound, got %v", err)
	}
}

func TestUpdateStreak(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		goal         int
		streak       int
		todayMinutes int
		want         int
	}{
		{"goal met extends streak", 60, 4, 60, 5},
		{"goal exceeded extends streak", 60, 0, 200, 1},
		{"goal missed resets streak", 60, 9, 59, 0},
		{"zero goal always qualifies", 0, 2, 0, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			users := newFakeUserRepo()
			user := seedUser(users, tt.goal, tt.streak, 0, 0)
			agg := NewAggregator(users, &fakeStudyStats{minutes: tt.todayMinutes}, &fakeMindfulStats{})

			got, err := agg.UpdateStreak(context.Background(), user.ID)
			if err != nil {
				t.Fatalf("UpdateStreak failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected streak %d, got %d", tt.want, got)
			}
			if users.users[user.ID].CurrentStreak != tt.want {
				t.Errorf("Expected stored streak %d, got %d", tt.want, users.users[user.ID].CurrentStreak)
			}
		})
	}
}

func TestDayBounds(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("UTC+5", 5*60*60)
	at := time.Date(2025, 3, 1, 2, 30, 0, 0, loc) // 2025-02-28 21:30 UTC

	from, to := dayBounds(at)
	if from != time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC) {
		t.Errorf("Unexpected day start: %v", from)
	}
	if to != time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC) {
		t.Errorf("Unexpected day end: %v", to)
	}
}
