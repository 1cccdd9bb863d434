package jikan

import (
	"errors"
	"testing"

	"github.com/JudoboyAlex/cu-boulder-anime-database/pkg/catalog"
)

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		expected ErrorClass
	}{
		{name: "too many requests", status: 429, expected: ErrorClassRateLimit},
		{name: "not found", status: 404, expected: ErrorClassClient},
		{name: "bad request", status: 400, expected: ErrorClassClient},
		{name: "internal error", status: 500, expected: ErrorClassServer},
		{name: "bad gateway", status: 502, expected: ErrorClassServer},
		{name: "not modified", status: 304, expected: ErrorClassUnexpected},
		{name: "found", status: 302, expected: ErrorClassUnexpected},
		{name: "switching protocols", status: 101, expected: ErrorClassUnexpected},
		{name: "success", status: 200, expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifyStatus(tt.status); got != tt.expected {
				t.Errorf("classifyStatus(%d) = %q, want %q", tt.status, got, tt.expected)
			}
		})
	}
}

func TestAPIError_Error(t *testing.T) {
	tests := []struct {
		name     string
		apiError *APIError
		expected string
	}{
		{
			name: "with wrapped error",
			apiError: &APIError{
				Page:       3,
				ErrorClass: ErrorClassNetwork,
				Message:    "request failed",
				Err:        errors.New("connection refused"),
			},
			expected: "jikan network error (page 3, status 0): request failed: connection refused",
		},
		{
			name: "without wrapped error",
			apiError: &APIError{
				Page:       9,
				StatusCode: 503,
				ErrorClass: ErrorClassServer,
				Message:    "503 Service Unavailable",
			},
			expected: "jikan server error (page 9, status 503): 503 Service Unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.apiError.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestAPIError_ThrottledUnwrapsToSentinel(t *testing.T) {
	err := error(&APIError{Page: 2, StatusCode: 429, ErrorClass: ErrorClassRateLimit, Message: "slow down"})

	if !errors.Is(err, catalog.ErrThrottled) {
		t.Error("429 error should match catalog.ErrThrottled")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) || !apiErr.Throttled() {
		t.Error("errors.As should yield a throttled *APIError")
	}
}

func TestAPIError_NonThrottledDoesNotMatchSentinel(t *testing.T) {
	for _, class := range []ErrorClass{ErrorClassClient, ErrorClassServer, ErrorClassNetwork, ErrorClassDecode} {
		err := error(&APIError{ErrorClass: class})
		if errors.Is(err, catalog.ErrThrottled) {
			t.Errorf("%s error should not match catalog.ErrThrottled", class)
		}
	}
}
