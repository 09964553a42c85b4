package validation

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/aldenhq/alden-api/internal/models"
	"github.com/go-playground/validator/v10"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New()

	// Register custom validators for enums
	if err := Validate.RegisterValidation("study_technique", validateStudyTechnique); err != nil {
		panic(fmt.Sprintf("failed to register study_technique validator: %v", err))
	}
	if err := Validate.RegisterValidation("mindful_category", validateMindfulCategory); err != nil {
		panic(fmt.Sprintf("failed to register mindful_category validator: %v", err))
	}
	if err := Validate.RegisterValidation("document_type", validateDocumentType); err != nil {
		panic(fmt.Sprintf("failed to register document_type validator: %v", err))
	}
}

// validateStudyTechnique validates that a string is a valid StudyTechnique enum value
func validateStudyTechnique(fl validator.FieldLevel) bool {
	return ValidateStudyTechnique(fl.Field().String()) == nil
}

// validateMindfulCategory validates that a string is a valid MindfulCategory enum value
func validateMindfulCategory(fl validator.FieldLevel) bool {
	return ValidateMindfulCategory(fl.Field().String()) == nil
}

// validateDocumentType validates that a string is a valid DocumentType enum value
func validateDocumentType(fl validator.FieldLevel) bool {
	switch models.DocumentType(fl.Field().String()) {
	case models.DocumentTypePDF, models.DocumentTypeImage, models.DocumentTypeText:
		return true
	default:
		return false
	}
}

// SanitizeText sanitizes text input by trimming whitespace and removing control characters
func SanitizeText(text string) string {
	text = strings.TrimSpace(text)

	// Remove control characters except newline and tab
	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}

// ValidateStudyTechnique validates a StudyTechnique string value
func ValidateStudyTechnique(value string) error {
	switch models.StudyTechnique(value) {
	case models.TechniquePomodoro, models.TechniqueDeepWork, models.TechniqueActiveRecall:
		return nil
	default:
		return fmt.Errorf("invalid technique: %s (must be 'pomodoro', 'deep_work', or 'active_recall')", value)
	}
}

// ValidateMindfulCategory validates a MindfulCategory string value
func ValidateMindfulCategory(value string) error {
	switch models.MindfulCategory(value) {
	case models.CategoryQuickRelief, models.CategoryPreStudy, models.CategoryPostStudy, models.CategoryExamSupport:
		return nil
	default:
		return fmt.Errorf("invalid category: %s (must be 'quick_relief', 'pre_study', 'post_study', or 'exam_support')", value)
	}
}

// ValidateRating validates a session rating value
func ValidateRating(rating int) error {
	if rating < 1 || rating > 5 {
		return fmt.Errorf("invalid rating: %d (must be between 1 and 5)", rating)
	}
	return nil
}
