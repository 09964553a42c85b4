package database

import (
	"context"
	"time"

	"github.com/aldenhq/alden-api/internal/models"
	"github.com/google/uuid"
)

// UserRepositoryInterface defines the interface for user repository operations.
// These interfaces enable better testability by allowing mock implementations.
type UserRepositoryInterface interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	SetDailyGoal(ctx context.Context, id uuid.UUID, minutes int) error
	SetStreak(ctx context.Context, id uuid.UUID, streak int) error
}

// StudySessionRepositoryInterface defines the interface for study session
// repository operations.
type StudySessionRepositoryInterface interface {
	Create(ctx context.Context, session *models.StudySession) error
	GetByID(ctx context.Context, id, userID uuid.UUID) (*models.StudySession, error)
	GetActive(ctx context.Context, userID uuid.UUID) (*models.StudySession, error)
	ListByUser(ctx context.Context, userID uuid.UUID, offset, limit int) ([]*models.StudySession, error)
	Complete(ctx context.Context, id, userID uuid.UUID, endTime time.Time, durationMinutes int, focusScore *int, notes *string) (*models.StudySession, error)
	CompletedStatsBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) (minutes, sessions int, err error)
}

// MindfulSessionRepositoryInterface defines the interface for mindful session
// repository operations.
type MindfulSessionRepositoryInterface interface {
	Create(ctx context.Context, session *models.MindfulSession) error
	GetByID(ctx context.Context, id, userID uuid.UUID) (*models.MindfulSession, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.MindfulSession, error)
	Complete(ctx context.Context, id, userID uuid.UUID, completedAt time.Time, rating *int, minutesCredit int) (*models.MindfulSession, error)
	CountCompleted(ctx context.Context, userID uuid.UUID) (int, error)
}

// ConversationRepositoryInterface defines the interface for conversation and
// message repository operations.
type ConversationRepositoryInterface interface {
	Create(ctx context.Context, conversation *models.Conversation) error
	GetByID(ctx context.Context, id, userID uuid.UUID) (*models.Conversation, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Conversation, error)
	Delete(ctx context.Context, id, userID uuid.UUID) error
	AppendMessage(ctx context.Context, conversationID uuid.UUID, msgType models.MessageType, content string) (*models.Message, error)
	ListMessages(ctx context.Context, conversationID uuid.UUID) ([]*models.Message, error)
}

// DocumentRepositoryInterface defines the interface for document repository
// operations.
type DocumentRepositoryInterface interface {
	Create(ctx context.Context, document *models.Document) error
	GetByID(ctx context.Context, id, userID uuid.UUID) (*models.Document, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Document, error)
	Delete(ctx context.Context, id, userID uuid.UUID) error
}

// Ensure concrete types implement the interfaces
var (
	_ UserRepositoryInterface           = (*UserRepository)(nil)
	_ StudySessionRepositoryInterface   = (*StudySessionRepository)(nil)
	_ MindfulSessionRepositoryInterface = (*MindfulSessionRepository)(nil)
	_ ConversationRepositoryInterface   = (*ConversationRepository)(nil)
	_ DocumentRepositoryInterface       = (*DocumentRepository)(nil)
)
