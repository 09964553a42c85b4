package chat

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/aldenhq/alden-api/internal/database"
	"github.com/aldenhq/alden-api/internal/models"
	"github.com/aldenhq/alden-api/internal/queue"
	"github.com/aldenhq/alden-api/internal/services/ai"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrNotFound is returned when the conversation does not exist or is not owned by the user
	ErrNotFound = errors.New("conversation not found")
)

// titlePreviewLength is how many characters of the first message end up in
// an auto-generated conversation title.
const titlePreviewLength = 30

// Orchestrator coordinates the chat flow: it appends the user's message
// synchronously and hands assistant reply generation to a background worker
// through the job queue. The caller gets a provisional acknowledgment
// immediately; the assistant message arrives out of band.
type Orchestrator struct {
	conversations database.ConversationRepositoryInterface
	jobs          queue.JobQueue
	logger        *zap.Logger
	now           func() time.Time
}

// NewOrchestrator creates a new chat orchestrator
func NewOrchestrator(conversations database.ConversationRepositoryInterface, jobs queue.JobQueue, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		conversations: conversations,
		jobs:          jobs,
		logger:        logger,
		now:           time.Now,
	}
}

// SendParams are the inputs for sending a chat message
type SendParams struct {
	ConversationID *uuid.UUID
	Text           string
	Subject        *string
	DocumentRefs   []uuid.UUID
}

// SendResult is the immediate response to a sent message. Reply holds the
// provisional acknowledgment, or the fallback assistant reply when the job
// could not be enqueued.
type SendResult struct {
	ConversationID uuid.UUID
	UserMessage    *models.Message
	Reply          string
}

// SendMessage appends the user's message and enqueues assistant reply
// generation. When the queue is unavailable the fallback reply is appended
// synchronously instead, so every user message still gets exactly one
// assistant response.
func (o *Orchestrator) SendMessage(ctx context.Context, userID uuid.UUID, params SendParams) (*SendResult, error) {
	conversation, err := o.resolveConversation(ctx, userID, params)
	if err != nil {
		return nil, err
	}

	userMessage, err := o.conversations.AppendMessage(ctx, conversation.ID, models.MessageTypeUser, params.Text)
	if err != nil {
		return nil, fmt.Errorf("failed to append user message: %w", err)
	}

	job := queue.NewChatReplyJob(userID, conversation.ID)
	if len(params.DocumentRefs) > 0 {
		refs := make([]string, 0, len(params.DocumentRefs))
		for _, ref := range params.DocumentRefs {
			refs = append(refs, ref.String())
		}
		job.Metadata["document_refs"] = refs
	}

	if err := o.jobs.Enqueue(ctx, job); err != nil {
		o.logger.Error("chat_reply_enqueue_failed",
			zap.String("conversation_id", conversation.ID.String()),
			zap.Error(err))

		// The worker will never see this message, so the fallback reply
		// has to be appended here or the user gets no response at all.
		fallback := ai.FallbackReply(params.Text)
		if _, appendErr := o.conversations.AppendMessage(ctx, conversation.ID, models.MessageTypeAssistant, fallback); appendErr != nil {
			return nil, fmt.Errorf("failed to append fallback reply: %w", appendErr)
		}

		return &SendResult{
			ConversationID: conversation.ID,
			UserMessage:    userMessage,
			Reply:          fallback,
		}, nil
	}

	return &SendResult{
		ConversationID: conversation.ID,
		UserMessage:    userMessage,
		Reply:          ai.ThinkingAck,
	}, nil
}

// resolveConversation loads the target conversation or creates one titled
// after the first message.
func (o *Orchestrator) resolveConversation(ctx context.Context, userID uuid.UUID, params SendParams) (*models.Conversation, error) {
	if params.ConversationID != nil {
		conversation, err := o.conversations.GetByID(ctx, *params.ConversationID, userID)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return nil, ErrNotFound
			}
			return nil, fmt.Errorf("failed to load conversation: %w", err)
		}
		return conversation, nil
	}

	conversation := &models.Conversation{
		ID:          uuid.New(),
		UserID:      userID,
		Title:       TitleFor(params.Text),
		Subject:     params.Subject,
		LastMessage: o.now().UTC(),
	}
	if err := o.conversations.Create(ctx, conversation); err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	return conversation, nil
}

// TitleFor derives a conversation title from its first message
func TitleFor(text string) string {
	preview := text
	if utf8.RuneCountInString(preview) > titlePreviewLength {
		runes := []rune(preview)
		preview = string(runes[:titlePreviewLength])
	}
	return fmt.Sprintf("Chat about %s...", preview)
}

// CreateConversation creates an empty conversation with an explicit title
func (o *Orchestrator) CreateConversation(ctx context.Context, userID uuid.UUID, title string, subject *string) (*models.Conversation, error) {
	if title == "" {
		title = "New Chat"
	}

	conversation := &models.Conversation{
		ID:          uuid.New(),
		UserID:      userID,
		Title:       title,
		Subject:     subject,
		LastMessage: o.now().UTC(),
	}
	if err := o.conversations.Create(ctx, conversation); err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	return conversation, nil
}

// ListConversations returns the user's conversations, most recently active
// first, each with its messages loaded.
func (o *Orchestrator) ListConversations(ctx context.Context, userID uuid.UUID) ([]*models.Conversation, error) {
	conversations, err := o.conversations.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}

	for _, conversation := range conversations {
		messages, err := o.conversations.ListMessages(ctx, conversation.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load messages: %w", err)
		}
		conversation.Messages = messages
	}
	return conversations, nil
}

// GetConversation returns a single conversation with its messages
func (o *Orchestrator) GetConversation(ctx context.Context, userID, conversationID uuid.UUID) (*models.Conversation, error) {
	conversation, err := o.conversations.GetByID(ctx, conversationID, userID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}

	messages, err := o.conversations.ListMessages(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}
	conversation.Messages = messages
	return conversation, nil
}

// ListMessages returns the messages of a conversation in append order
func (o *Orchestrator) ListMessages(ctx context.Context, userID, conversationID uuid.UUID) ([]*models.Message, error) {
	if _, err := o.conversations.GetByID(ctx, conversationID, userID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}

	messages, err := o.conversations.ListMessages(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}
	return messages, nil
}

// DeleteConversation removes a conversation and all its messages
func (o *Orchestrator) DeleteConversation(ctx context.Context, userID, conversationID uuid.UUID) error {
	if err := o.conversations.Delete(ctx, conversationID, userID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	return nil
}
