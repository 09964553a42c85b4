package ai

import (
	"context"
)

// Provider is the interface for AI providers
type Provider interface {
	// GenerateReply produces an assistant reply to a student message.
	// History carries prior conversation messages in order; subject is the
	// conversation subject when one is set.
	GenerateReply(ctx context.Context, message string, subject string, history []ChatMessage) (string, error)

	// GenerateFlashcards produces study flashcards from raw content
	GenerateFlashcards(ctx context.Context, content string, subject string) ([]Flashcard, error)
}

// ChatMessage represents a message in a chat conversation
type ChatMessage struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// Flashcard is a single question/answer study card
type Flashcard struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}
