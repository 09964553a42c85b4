package ai

import (
	"encoding/json"
	"strings"
)

// ParseFlashcards extracts flashcards from a model response. It tries strict
// JSON first (either a bare array or an object with a "flashcards" field),
// then falls back to scanning for question/answer line pairs.
func ParseFlashcards(response string) []Flashcard {
	if cards := parseFlashcardsJSON(response); len(cards) > 0 {
		return cards
	}
	return parseFlashcardsLines(response)
}

func parseFlashcardsJSON(response string) []Flashcard {
	raw := strings.TrimSpace(response)
	if raw == "" {
		return nil
	}

	// Models sometimes wrap JSON in prose or code fences; cut to the outermost
	// bracket pair before unmarshalling.
	if raw[0] != '[' && raw[0] != '{' {
		start := strings.IndexAny(raw, "[{")
		if start == -1 {
			return nil
		}
		raw = raw[start:]
	}
	if end := strings.LastIndexAny(raw, "]}"); end != -1 {
		raw = raw[:end+1]
	}

	var cards []Flashcard
	if err := json.Unmarshal([]byte(raw), &cards); err == nil {
		return validFlashcards(cards)
	}

	var wrapped struct {
		Flashcards []Flashcard `json:"flashcards"`
	}
	if err := json.Unmarshal([]byte(raw), &wrapped); err == nil {
		return validFlashcards(wrapped.Flashcards)
	}

	return nil
}

func parseFlashcardsLines(response string) []Flashcard {
	var cards []Flashcard
	var current Flashcard

	for _, line := range strings.Split(response, "\n") {
		lineLower := strings.ToLower(line)
		switch {
		case strings.Contains(lineLower, "question") || strings.Contains(lineLower, "q:"):
			if current.Question != "" && current.Answer != "" {
				cards = append(cards, current)
				current = Flashcard{}
			}
			current.Question = strings.TrimSpace(line)
		case strings.Contains(lineLower, "answer") || strings.Contains(lineLower, "a:"):
			current.Answer = strings.TrimSpace(line)
		}
	}

	if current.Question != "" && current.Answer != "" {
		cards = append(cards, current)
	}

	return cards
}

func validFlashcards(cards []Flashcard) []Flashcard {
	valid := make([]Flashcard, 0, len(cards))
	for _, c := range cards {
		if strings.TrimSpace(c.Question) != "" && strings.TrimSpace(c.Answer) != "" {
			valid = append(valid, c)
		}
	}
	return valid
}
