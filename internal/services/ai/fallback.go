package ai

import (
	"context"
	"strings"
)

const (
	// ThinkingAck is the provisional reply returned while the assistant
	// response is generated in the background.
	ThinkingAck = "I'm thinking about your question..."
	// ApologyReply is stored when reply generation fails entirely.
	ApologyReply = "I'm sorry, I'm experiencing technical difficulties. Please try again later."
)

type fallbackRule struct {
	keywords []string
	reply    string
}

// Keyword-matched replies used when no AI provider is configured or the
// provider call fails. Order matters: first match wins.
var fallbackRules = []fallbackRule{
	{
		keywords: []string{"math", "calculus", "algebra", "geometry"},
		reply:    "I'd be happy to help with math! Can you share the specific problem or concept you're working on? I can break it down step by step and create practice problems for you.",
	},
	{
		keywords: []string{"physics", "chemistry", "biology", "science"},
		reply:    "Science can be challenging but rewarding! What topic are you studying? I can explain concepts, provide examples, and help you understand the underlying principles.",
	},
	{
		keywords: []string{"study", "learn", "review"},
		reply:    "Great question about studying! Here are some tips:\n\n• Break complex topics into smaller chunks\n• Use active recall to test yourself\n• Practice spaced repetition\n• Connect new concepts to what you already know\n\nWhat subject are you focusing on?",
	},
	{
		keywords: []string{"exam", "test", "quiz"},
		reply:    "Preparing for an exam? Here's how I can help:\n\n• Create practice questions from your notes\n• Generate flashcards for key concepts\n• Build a study schedule\n• Explain difficult topics\n\nWould you like to upload your study materials so I can create personalized practice questions?",
	},
	{
		keywords: []string{"flashcard", "practice", "question"},
		reply:    "I can create flashcards and practice questions based on your study materials! Just upload your notes, textbook chapters, or lecture slides, and I'll generate:\n\n• Key term flashcards\n• Multiple choice questions\n• Short answer prompts\n• Concept review questions\n\nWhat material would you like me to work with?",
	},
	{
		keywords: []string{"help", "stuck", "confused", "understand"},
		reply:    "I'm here to help you understand! Let me know:\n\n• What specific concept you're struggling with\n• What you've tried so far\n• What part is most confusing\n\nI'll break it down into simpler steps and provide examples to make it clearer.",
	},
}

const fallbackDefaultReply = "I'm here to help with your studies! I can:\n\n• Explain complex concepts in simple terms\n• Create study materials like flashcards and quizzes\n• Help you organize information and create outlines\n• Answer questions about any subject\n• Provide study strategies\n\nWhat would you like to work on today?"

// FallbackReply returns a keyword-matched canned reply for a student message
func FallbackReply(message string) string {
	messageLower := strings.ToLower(message)
	for _, rule := range fallbackRules {
		for _, kw := range rule.keywords {
			if strings.Contains(messageLower, kw) {
				return rule.reply
			}
		}
	}
	return fallbackDefaultReply
}

// FallbackFlashcards returns generic study flashcards used when generation fails
func FallbackFlashcards() []Flashcard {
	return []Flashcard{
		{
			Question: "What is the best way to study effectively?",
			Answer:   "Use active recall, spaced repetition, and break content into smaller chunks.",
		},
		{
			Question: "How long should study sessions be?",
			Answer:   "25-50 minutes with 5-15 minute breaks (Pomodoro technique) or longer for deep work.",
		},
		{
			Question: "What is active recall?",
			Answer:   "Testing yourself on material without looking at notes to strengthen memory.",
		},
	}
}

// FallbackProvider implements Provider with canned replies only. It is used
// when no API key is configured so the rest of the system behaves the same.
type FallbackProvider struct{}

// NewFallbackProvider creates a provider that only serves canned replies
func NewFallbackProvider() *FallbackProvider {
	return &FallbackProvider{}
}

// GenerateReply returns a keyword-matched canned reply
func (p *FallbackProvider) GenerateReply(_ context.Context, message, _ string, _ []ChatMessage) (string, error) {
	return FallbackReply(message), nil
}

// GenerateFlashcards returns the generic flashcard set
func (p *FallbackProvider) GenerateFlashcards(_ context.Context, _, _ string) ([]Flashcard, error) {
	return FallbackFlashcards(), nil
}

var _ Provider = (*FallbackProvider)(nil)
