package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"go.uber.org/zap"
)

const (
	// DefaultOpenAIModel is the default model to use
	DefaultOpenAIModel = "gpt-4o-mini"
	// DefaultOpenAIBaseURL is the default OpenAI API base URL
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	// DefaultTimeout is the default timeout for API calls
	DefaultTimeout = 30 * time.Second

	// ErrNoChoicesInResponse is returned when the API response has no choices
	ErrNoChoicesInResponse = "no choices in response"
)

// OpenAIProvider implements the Provider interface using OpenAI's API
type OpenAIProvider struct {
	client    openai.Client
	model     string
	logger    *zap.Logger
	debugMode bool
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(apiKey string, model string) *OpenAIProvider {
	return NewOpenAIProviderWithLogger(apiKey, DefaultOpenAIBaseURL, model, DefaultTimeout, nil, false)
}

// NewOpenAIProviderWithLogger creates a new OpenAI provider with logger support
func NewOpenAIProviderWithLogger(apiKey string, baseURL string, model string, timeout time.Duration, logger *zap.Logger, debugMode bool) *OpenAIProvider {
	if model == "" {
		model = DefaultOpenAIModel
	}
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	httpClient := &http.Client{
		Timeout: timeout,
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
		option.WithHTTPClient(httpClient),
	)

	return &OpenAIProvider{
		client:    client,
		model:     model,
		logger:    logger,
		debugMode: debugMode,
	}
}

// studySystemPrompt builds the assistant system prompt, optionally scoped to a subject
func studySystemPrompt(subject string) string {
	prompt := "You are Aida, an AI study assistant. You help students with their studies by:" +
		"\n• Explaining complex concepts in simple terms" +
		"\n• Creating study materials like flashcards and quizzes" +
		"\n• Providing study strategies and techniques" +
		"\n• Answering questions about any subject" +
		"\n• Breaking down problems step by step"
	if subject != "" {
		prompt += "\n\nThe student is currently studying: " + subject
	}
	prompt += "\n\nRespond in a helpful, encouraging, and educational manner."
	return prompt
}

// GenerateReply produces an assistant reply to a student message
func (p *OpenAIProvider) GenerateReply(ctx context.Context, message string, subject string, history []ChatMessage) (string, error) {
	openAIMessages := make([]openai.ChatCompletionMessageParamUnion, 0, len(history)+2)
	openAIMessages = append(openAIMessages, openai.SystemMessage(studySystemPrompt(subject)))

	for _, msg := range history {
		switch msg.Role {
		case "assistant":
			openAIMessages = append(openAIMessages, openai.AssistantMessage(msg.Content))
		default:
			openAIMessages = append(openAIMessages, openai.UserMessage(msg.Content))
		}
	}
	openAIMessages = append(openAIMessages, openai.UserMessage(message))

	if p.logger != nil && p.debugMode {
		p.logger.Debug("llm_api_request",
			zap.String("operation", "generate_reply"),
			zap.String("model", p.model),
			zap.Int("message_count", len(openAIMessages)),
			zap.String("message_preview", SanitizePrompt(message, false)),
		)
	}

	req := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(p.model),
		Messages: openAIMessages,
		// Temperature omitted - use model default to avoid "unsupported_value" errors
	}

	startTime := time.Now()
	resp, err := p.client.Chat.Completions.New(ctx, req)
	latency := time.Since(startTime)

	if err != nil {
		if p.logger != nil && p.debugMode {
			p.logger.Debug("llm_api_error",
				zap.String("operation", "generate_reply"),
				zap.String("model", p.model),
				zap.Error(err),
				zap.Duration("latency", latency),
			)
		}
		if apiErr := ExtractAPIError(err); apiErr != nil {
			return "", fmt.Errorf("failed to generate reply: %w", apiErr)
		}
		return "", fmt.Errorf("failed to generate reply: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New(ErrNoChoicesInResponse)
	}

	content := resp.Choices[0].Message.Content
	if p.logger != nil && p.debugMode {
		p.logger.Debug("llm_api_response",
			zap.String("operation", "generate_reply"),
			zap.String("model", p.model),
			zap.Int("response_length", len(content)),
			zap.String("response_preview", SanitizeResponse(content, false)),
			zap.Int64("latency_ms", latency.Milliseconds()),
		)
	}

	return content, nil
}

// GenerateFlashcards produces study flashcards from raw content
func (p *OpenAIProvider) GenerateFlashcards(ctx context.Context, content string, subject string) ([]Flashcard, error) {
	prompt := "Create 5-10 flashcards from the following content. " +
		"Format as JSON with 'question' and 'answer' fields. "
	if subject != "" {
		prompt += "Focus on " + subject + " concepts. "
	}
	prompt += "\n\nContent: " + content

	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage("You are a helpful assistant that creates study flashcards. Respond with valid JSON only."),
		openai.UserMessage(prompt),
	}

	req := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(p.model),
		Messages: messages,
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	}

	if p.logger != nil && p.debugMode {
		p.logger.Debug("llm_api_request",
			zap.String("operation", "generate_flashcards"),
			zap.String("model", p.model),
			zap.Int("prompt_length", len(prompt)),
		)
	}

	resp, err := p.client.Chat.Completions.New(ctx, req)
	if err != nil {
		if apiErr := ExtractAPIError(err); apiErr != nil {
			return nil, fmt.Errorf("failed to generate flashcards: %w", apiErr)
		}
		return nil, fmt.Errorf("failed to generate flashcards: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, errors.New(ErrNoChoicesInResponse)
	}

	cards := ParseFlashcards(resp.Choices[0].Message.Content)
	if len(cards) == 0 {
		cards = FallbackFlashcards()
	}
	return cards, nil
}

var _ Provider = (*OpenAIProvider)(nil)
