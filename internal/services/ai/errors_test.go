package ai

import (
	"errors"
	"testing"
	"time"
)

func TestIsRateLimitError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil error", err: nil, want: false},
		{name: "plain error", err: errors.New("something broke"), want: false},
		{name: "429 in message", err: errors.New("status 429 returned"), want: true},
		{name: "rate limit in message", err: errors.New("rate limit exceeded"), want: true},
		{
			name: "api error rate limit",
			err:  &APIError{StatusCode: 429, Type: "rate_limit_error"},
			want: true,
		},
		{
			name: "api error quota is permanent",
			err:  &APIError{StatusCode: 429, IsPermanent: true},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := IsRateLimitError(tt.err); got != tt.want {
				t.Errorf("IsRateLimitError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsQuotaError(t *testing.T) {
	t.Parallel()

	if !IsQuotaError(errors.New("insufficient_quota for this key")) {
		t.Error("Expected quota error for insufficient_quota message")
	}
	if !IsQuotaError(&APIError{IsPermanent: true}) {
		t.Error("Expected quota error for permanent API error")
	}
	if IsQuotaError(errors.New("connection refused")) {
		t.Error("Did not expect quota error for network error")
	}
}

func TestExtractAPIError(t *testing.T) {
	t.Parallel()

	err := errors.New(`request failed with 429: {"message": "Too many requests", "type": "rate_limit_error", "code": "insufficient_quota"}`)
	apiErr := ExtractAPIError(err)
	if apiErr == nil {
		t.Fatal("Expected API error to be extracted")
	}
	if apiErr.StatusCode != 429 {
		t.Errorf("Expected status 429, got %d", apiErr.StatusCode)
	}
	if apiErr.Code != "insufficient_quota" {
		t.Errorf("Expected code insufficient_quota, got %q", apiErr.Code)
	}
	if !apiErr.IsPermanent {
		t.Error("Expected quota error to be permanent")
	}
	if apiErr.RetryAfter == nil || *apiErr.RetryAfter != time.Hour {
		t.Errorf("Expected 1h retry-after for quota error, got %v", apiErr.RetryAfter)
	}
}

func TestGetRetryDelay(t *testing.T) {
	t.Parallel()

	// Default backoff starts at 5 seconds and doubles
	if d := GetRetryDelay(errors.New("boom"), 0); d != 5*time.Second {
		t.Errorf("Expected 5s for attempt 0, got %v", d)
	}
	if d := GetRetryDelay(errors.New("boom"), 2); d != 20*time.Second {
		t.Errorf("Expected 20s for attempt 2, got %v", d)
	}

	// Default backoff is capped at 5 minutes
	if d := GetRetryDelay(errors.New("boom"), 100); d != 5*time.Minute {
		t.Errorf("Expected 5m cap, got %v", d)
	}

	// Rate limit backoff starts at 60 seconds, capped at 15 minutes
	rateErr := &APIError{StatusCode: 429, Type: "rate_limit_error"}
	if d := GetRetryDelay(rateErr, 0); d != 60*time.Second {
		t.Errorf("Expected 60s for rate limit attempt 0, got %v", d)
	}
	if d := GetRetryDelay(rateErr, 10); d != 15*time.Minute {
		t.Errorf("Expected 15m cap for rate limit, got %v", d)
	}

	// Quota backoff starts at 1 hour, capped at 24 hours
	quotaErr := &APIError{StatusCode: 429, IsPermanent: true}
	if d := GetRetryDelay(quotaErr, 0); d != time.Hour {
		t.Errorf("Expected 1h for quota attempt 0, got %v", d)
	}
	if d := GetRetryDelay(quotaErr, 10); d != 24*time.Hour {
		t.Errorf("Expected 24h cap for quota, got %v", d)
	}
}
