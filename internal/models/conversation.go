package models

import (
	"time"

	"github.com/google/uuid"
)

// MessageType distinguishes who authored a chat message
type MessageType string

const (
	MessageTypeUser      MessageType = "user"
	MessageTypeAssistant MessageType = "assistant"
)

// Conversation represents an AI chat conversation. It owns an ordered
// sequence of messages that are deleted along with it.
type Conversation struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	Title       string     `json:"title"`
	Subject     *string    `json:"subject,omitempty"`
	LastMessage time.Time  `json:"last_message"`
	CreatedAt   time.Time  `json:"created_at"`
	Messages    []*Message `json:"messages,omitempty"`
}

// Message represents a single message within a conversation. Timestamps are
// server-assigned and monotonically non-decreasing per conversation in
// append order.
type Message struct {
	ID             uuid.UUID   `json:"id"`
	ConversationID uuid.UUID   `json:"conversation_id"`
	Type           MessageType `json:"type"`
	Content        string      `json:"content"`
	Timestamp      time.Time   `json:"timestamp"`
}
