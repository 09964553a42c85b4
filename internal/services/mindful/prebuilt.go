package mindful

import (
	"fmt"
	"os"

	"github.com/aldenhq/alden-api/internal/models"
	"gopkg.in/yaml.v3"
)

// PrebuiltSession is a static catalog entry served read-only. Prebuilt
// sessions are configuration data, never persisted to the entity store.
type PrebuiltSession struct {
	ID          string                 `json:"id" yaml:"id"`
	Title       string                 `json:"title" yaml:"title"`
	Category    models.MindfulCategory `json:"category" yaml:"category"`
	Duration    int                    `json:"duration" yaml:"duration"` // seconds
	AudioURL    string                 `json:"audio_url" yaml:"audio_url"`
	Description string                 `json:"description" yaml:"description"`
}

// defaultCatalog is the compiled-in prebuilt catalog, used when no catalog
// file is configured.
var defaultCatalog = []PrebuiltSession{
	{
		ID:          "focus-boost",
		Title:       "Focus Boost",
		Category:    models.CategoryPreStudy,
		Duration:    240,
		AudioURL:    "/audio/focus-boost.mp3",
		Description: "A 4-minute meditation to prepare your mind for focused study",
	},
	{
		ID:          "sos-breathing",
		Title:       "SOS Breathing",
		Category:    models.CategoryQuickRelief,
		Duration:    60,
		AudioURL:    "/audio/sos-breathing.mp3",
		Description: "Quick breathing exercise for immediate stress relief",
	},
	{
		ID:          "study-reflection",
		Title:       "Study Reflection",
		Category:    models.CategoryPostStudy,
		Duration:    420,
		AudioURL:    "/audio/study-reflection.mp3",
		Description: "Wind down and reflect on your study session",
	},
	{
		ID:          "pre-exam-calm",
		Title:       "Pre-Exam Calm",
		Category:    models.CategoryExamSupport,
		Duration:    600,
		AudioURL:    "/audio/pre-exam-calm.mp3",
		Description: "Calm your nerves before an important exam",
	},
}

// LoadCatalog loads the prebuilt session catalog. With an empty path the
// compiled-in default is returned; otherwise the YAML file at path is parsed
// and validated.
func LoadCatalog(path string) ([]PrebuiltSession, error) {
	if path == "" {
		catalog := make([]PrebuiltSession, len(defaultCatalog))
		copy(catalog, defaultCatalog)
		return catalog, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	var catalog []PrebuiltSession
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file: %w", err)
	}

	for i, entry := range catalog {
		if entry.ID == "" || entry.Title == "" {
			return nil, fmt.Errorf("catalog entry %d missing id or title", i)
		}
		if entry.Duration <= 0 {
			return nil, fmt.Errorf("catalog entry %q has non-positive duration", entry.ID)
		}
		switch entry.Category {
		case models.CategoryQuickRelief, models.CategoryPreStudy, models.CategoryPostStudy, models.CategoryExamSupport:
		default:
			return nil, fmt.Errorf("catalog entry %q has invalid category %q", entry.ID, entry.Category)
		}
	}

	return catalog, nil
}
