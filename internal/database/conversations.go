package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/aldenhq/alden-api/internal/models"
	"github.com/google/uuid"
)

// ConversationRepository handles conversation and message database operations
type ConversationRepository struct {
	db *DB
}

// NewConversationRepository creates a new conversation repository
func NewConversationRepository(db *DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// Create creates a new conversation
func (r *ConversationRepository) Create(ctx context.Context, conversation *models.Conversation) error {
	query := `
		INSERT INTO conversations (id, user_id, title, subject, last_message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`

	now := time.Now().UTC()
	if conversation.LastMessage.IsZero() {
		conversation.LastMessage = now
	}

	err := r.db.QueryRowContext(ctx, query,
		conversation.ID,
		conversation.UserID,
		conversation.Title,
		conversation.Subject,
		conversation.LastMessage,
		now,
	).Scan(&conversation.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create conversation: %w", err)
	}

	return nil
}

// GetByID retrieves a conversation by ID, scoped to the owning user
func (r *ConversationRepository) GetByID(ctx context.Context, id, userID uuid.UUID) (*models.Conversation, error) {
	query := `
		SELECT id, user_id, title, subject, last_message, created_at
		FROM conversations
		WHERE id = $1 AND user_id = $2
	`

	conversation, err := scanConversationRow(r.db.QueryRowContext(ctx, query, id, userID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("conversation: %w", ErrNotFound)
	}
	return conversation, err
}

// ListByUser retrieves all conversations for a user, most recently active first
func (r *ConversationRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Conversation, error) {
	query := `
		SELECT id, user_id, title, subject, last_message, created_at
		FROM conversations
		WHERE user_id = $1
		ORDER BY last_message DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversations: %w", err)
	}
	defer rows.Close()

	var conversations []*models.Conversation
	for rows.Next() {
		conversation, err := scanConversationRow(rows)
		if err != nil {
			return nil, err
		}
		conversations = append(conversations, conversation)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating conversations: %w", err)
	}

	return conversations, nil
}

// Delete deletes a conversation. Its messages go with it (FK cascade).
func (r *ConversationRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM conversations WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("conversation: %w", ErrNotFound)
	}

	return nil
}

// AppendMessage appends a message to a conversation and bumps its
// last_message timestamp in one transaction. The conversation row lock
// serializes appends, and the message timestamp never moves backwards
// relative to the previous message, so read order matches append order.
func (r *ConversationRepository) AppendMessage(ctx context.Context, conversationID uuid.UUID, msgType models.MessageType, content string) (*models.Message, error) {
	message := &models.Message{
		ID:             uuid.New(),
		ConversationID: conversationID,
		Type:           msgType,
		Content:        content,
	}

	err := r.db.withTx(ctx, func(tx *sql.Tx) error {
		var lastMessage time.Time
		err := tx.QueryRowContext(ctx,
			`SELECT last_message FROM conversations WHERE id = $1 FOR UPDATE`,
			conversationID,
		).Scan(&lastMessage)
		if err == sql.ErrNoRows {
			return fmt.Errorf("conversation: %w", ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to lock conversation: %w", err)
		}

		ts := time.Now().UTC()
		if ts.Before(lastMessage) {
			ts = lastMessage
		}
		message.Timestamp = ts

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO messages (id, conversation_id, type, content, ts) VALUES ($1, $2, $3, $4, $5)`,
			message.ID, message.ConversationID, message.Type, message.Content, message.Timestamp,
		); err != nil {
			return fmt.Errorf("failed to insert message: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE conversations SET last_message = $2 WHERE id = $1`,
			conversationID, message.Timestamp,
		); err != nil {
			return fmt.Errorf("failed to update conversation last_message: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return message, nil
}

// ListMessages retrieves all messages in a conversation in append order
func (r *ConversationRepository) ListMessages(ctx context.Context, conversationID uuid.UUID) ([]*models.Message, error) {
	query := `
		SELECT id, conversation_id, type, content, ts
		FROM messages
		WHERE conversation_id = $1
		ORDER BY seq ASC
	`

	rows, err := r.db.QueryContext(ctx, query, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []*models.Message
	for rows.Next() {
		message := &models.Message{}
		if err := rows.Scan(
			&message.ID,
			&message.ConversationID,
			&message.Type,
			&message.Content,
			&message.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, message)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating messages: %w", err)
	}

	return messages, nil
}

func scanConversationRow(row rowScanner) (*models.Conversation, error) {
	conversation := &models.Conversation{}
	var subject sql.NullString

	err := row.Scan(
		&conversation.ID,
		&conversation.UserID,
		&conversation.Title,
		&subject,
		&conversation.LastMessage,
		&conversation.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan conversation: %w", err)
	}

	if subject.Valid {
		conversation.Subject = &subject.String
	}

	return conversation, nil
}
