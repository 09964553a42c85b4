package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aldenhq/alden-api/internal/request"
	"github.com/aldenhq/alden-api/internal/services/ai"
	"github.com/aldenhq/alden-api/internal/services/chat"
	"github.com/aldenhq/alden-api/internal/validation"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

const (
	// MaxChatMessageLength is the maximum length for a chat message
	MaxChatMessageLength = 10000
	// MaxFlashcardContentLength is the maximum length for flashcard source content
	MaxFlashcardContentLength = 50000
	// FlashcardTimeout bounds synchronous flashcard generation
	FlashcardTimeout = 60 * time.Second
)

// AIHandler handles chat and flashcard requests
type AIHandler struct {
	orchestrator *chat.Orchestrator
	provider     ai.Provider
}

// NewAIHandler creates a new AI handler
func NewAIHandler(orchestrator *chat.Orchestrator, provider ai.Provider) *AIHandler {
	return &AIHandler{orchestrator: orchestrator, provider: provider}
}

// RegisterRoutes registers AI routes on the given router.
// The router should already have the /ai prefix.
func (h *AIHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/chat", h.SendMessage).Methods("POST")
	r.HandleFunc("/conversations", h.ListConversations).Methods("GET")
	r.HandleFunc("/conversations", h.CreateConversation).Methods("POST")
	r.HandleFunc("/conversations/{id}", h.GetConversation).Methods("GET")
	r.HandleFunc("/conversations/{id}", h.DeleteConversation).Methods("DELETE")
	r.HandleFunc("/conversations/{id}/messages", h.ListMessages).Methods("GET")
	r.HandleFunc("/flashcards", h.GenerateFlashcards).Methods("POST")
}

// SendMessageRequest represents a chat message request
type SendMessageRequest struct {
	Message        string      `json:"message" validate:"required,min=1,max=10000"`
	ConversationID *uuid.UUID  `json:"conversation_id,omitempty"`
	Subject        *string     `json:"subject,omitempty"`
	DocumentRefs   []uuid.UUID `json:"document_refs,omitempty"`
}

// SendMessageResponse represents the immediate chat response. The assistant
// message itself arrives asynchronously.
type SendMessageResponse struct {
	Response       string    `json:"response"`
	ConversationID uuid.UUID `json:"conversation_id"`
	MessageID      uuid.UUID `json:"message_id"`
}

// CreateConversationRequest represents an explicit conversation create request
type CreateConversationRequest struct {
	Title   string  `json:"title" validate:"max=200"`
	Subject *string `json:"subject,omitempty" validate:"omitempty,max=200"`
}

// GenerateFlashcardsRequest represents a flashcard generation request
type GenerateFlashcardsRequest struct {
	Content string `json:"content" validate:"required,min=1,max=50000"`
	Subject string `json:"subject" validate:"max=200"`
}

// GenerateFlashcardsResponse represents generated flashcards
type GenerateFlashcardsResponse struct {
	Flashcards []ai.Flashcard `json:"flashcards"`
}

// SendMessage appends a chat message and schedules the assistant reply
func (h *AIHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}

	if err := validation.Validate.Struct(req); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", fmt.Sprintf("Validation failed: %s", validationErrors[0].Error()))
			return
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Validation failed")
		return
	}

	req.Message = validation.SanitizeText(req.Message)
	if req.Message == "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Message is required and cannot be empty after sanitization")
		return
	}

	result, err := h.orchestrator.SendMessage(r.Context(), user.ID, chat.SendParams{
		ConversationID: req.ConversationID,
		Text:           req.Message,
		Subject:        req.Subject,
		DocumentRefs:   req.DocumentRefs,
	})
	if err != nil {
		if errors.Is(err, chat.ErrNotFound) {
			respondJSONError(w, http.StatusNotFound, "Not Found", "Conversation not found")
			return
		}
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to send message")
		return
	}

	respondJSON(w, http.StatusOK, SendMessageResponse{
		Response:       result.Reply,
		ConversationID: result.ConversationID,
		MessageID:      result.UserMessage.ID,
	})
}

// ListConversations lists the user's conversations with their messages
func (h *AIHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	conversations, err := h.orchestrator.ListConversations(r.Context(), user.ID)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve conversations")
		return
	}

	respondJSON(w, http.StatusOK, conversations)
}

// CreateConversation creates an empty conversation
func (h *AIHandler) CreateConversation(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	var req CreateConversationRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
			return
		}
	}

	conversation, err := h.orchestrator.CreateConversation(r.Context(), user.ID, validation.SanitizeText(req.Title), req.Subject)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to create conversation")
		return
	}

	respondJSON(w, http.StatusCreated, conversation)
}

// GetConversation returns a conversation with its messages
func (h *AIHandler) GetConversation(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid conversation ID")
		return
	}

	conversation, err := h.orchestrator.GetConversation(r.Context(), user.ID, id)
	if err != nil {
		if errors.Is(err, chat.ErrNotFound) {
			respondJSONError(w, http.StatusNotFound, "Not Found", "Conversation not found")
			return
		}
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve conversation")
		return
	}

	respondJSON(w, http.StatusOK, conversation)
}

// DeleteConversation deletes a conversation and all its messages
func (h *AIHandler) DeleteConversation(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid conversation ID")
		return
	}

	if err := h.orchestrator.DeleteConversation(r.Context(), user.ID, id); err != nil {
		if errors.Is(err, chat.ErrNotFound) {
			respondJSONError(w, http.StatusNotFound, "Not Found", "Conversation not found")
			return
		}
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to delete conversation")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ListMessages returns the messages of a conversation in append order
func (h *AIHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid conversation ID")
		return
	}

	messages, err := h.orchestrator.ListMessages(r.Context(), user.ID, id)
	if err != nil {
		if errors.Is(err, chat.ErrNotFound) {
			respondJSONError(w, http.StatusNotFound, "Not Found", "Conversation not found")
			return
		}
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve messages")
		return
	}

	respondJSON(w, http.StatusOK, messages)
}

// GenerateFlashcards generates flashcards from study content synchronously.
// Unlike chat, provider failures surface as errors here rather than being
// replaced with canned content.
func (h *AIHandler) GenerateFlashcards(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	var req GenerateFlashcardsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}

	if err := validation.Validate.Struct(req); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", fmt.Sprintf("Validation failed: %s", validationErrors[0].Error()))
			return
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Validation failed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), FlashcardTimeout)
	defer cancel()

	flashcards, err := h.provider.GenerateFlashcards(ctx, req.Content, req.Subject)
	if err != nil {
		respondJSONError(w, http.StatusBadGateway, "Bad Gateway", "Failed to generate flashcards")
		return
	}

	respondJSON(w, http.StatusOK, GenerateFlashcardsResponse{Flashcards: flashcards})
}
