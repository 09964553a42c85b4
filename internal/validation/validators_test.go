package validation

import (
	"testing"
)

func TestValidateStudyTechnique(t *testing.T) {
	t.Parallel()

	for _, valid := range []string{"pomodoro", "deep_work", "active_recall"} {
		if err := ValidateStudyTechnique(valid); err != nil {
			t.Errorf("Expected %q to be valid, got %v", valid, err)
		}
	}
	for _, invalid := range []string{"", "POMODORO", "cramming"} {
		if err := ValidateStudyTechnique(invalid); err == nil {
			t.Errorf("Expected %q to be invalid", invalid)
		}
	}
}

func TestValidateMindfulCategory(t *testing.T) {
	t.Parallel()

	for _, valid := range []string{"quick_relief", "pre_study", "post_study", "exam_support"} {
		if err := ValidateMindfulCategory(valid); err != nil {
			t.Errorf("Expected %q to be valid, got %v", valid, err)
		}
	}
	for _, invalid := range []string{"", "relaxation", "pre-study"} {
		if err := ValidateMindfulCategory(invalid); err == nil {
			t.Errorf("Expected %q to be invalid", invalid)
		}
	}
}

func TestValidateRating(t *testing.T) {
	t.Parallel()

	for rating := 1; rating <= 5; rating++ {
		if err := ValidateRating(rating); err != nil {
			t.Errorf("Expected rating %d to be valid, got %v", rating, err)
		}
	}
	for _, invalid := range []int{0, -1, 6, 100} {
		if err := ValidateRating(invalid); err == nil {
			t.Errorf("Expected rating %d to be invalid", invalid)
		}
	}
}

func TestSanitizeText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"trims whitespace", "  hello  ", "hello"},
		{"keeps newlines and tabs", "a\n\tb", "a\n\tb"},
		{"strips control characters", "a\x00b\x1fc", "abc"},
		{"empty input", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := SanitizeText(tt.input); got != tt.want {
				t.Errorf("SanitizeText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestStructValidation(t *testing.T) {
	t.Parallel()

	type payload struct {
		Technique string `validate:"required,study_technique"`
		Category  string `validate:"omitempty,mindful_category"`
	}

	if err := Validate.Struct(payload{Technique: "pomodoro", Category: "pre_study"}); err != nil {
		t.Errorf("Expected valid payload, got %v", err)
	}
	if err := Validate.Struct(payload{Technique: "guessing"}); err == nil {
		t.Error("Expected invalid technique to fail struct validation")
	}
}
