package jikan

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/JudoboyAlex/cu-boulder-anime-database/pkg/catalog"
)

// ErrorClass represents a classification of upstream failures.
type ErrorClass string

const (
	// ErrorClassRateLimit represents HTTP 429 throttling.
	ErrorClassRateLimit ErrorClass = "rate_limit"

	// ErrorClassClient represents any other 4xx response.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx responses.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassNetwork represents transport failures (DNS, reset, timeout).
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassDecode represents a 200 response whose body is not a
	// usable page (bad JSON, missing data array).
	ErrorClassDecode ErrorClass = "decode"

	// ErrorClassUnexpected represents any other non-2xx status (1xx, 3xx).
	ErrorClassUnexpected ErrorClass = "unexpected"
)

// ErrMalformedPage is wrapped by decode errors.
var ErrMalformedPage = errors.New("malformed page payload")

// APIError describes a failed page request.
type APIError struct {
	Page       int
	StatusCode int
	ErrorClass ErrorClass
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("jikan %s error (page %d, status %d): %s: %v",
			e.ErrorClass, e.Page, e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("jikan %s error (page %d, status %d): %s",
		e.ErrorClass, e.Page, e.StatusCode, e.Message)
}

// Unwrap exposes the cause. Throttled errors unwrap to catalog.ErrThrottled
// so callers outside this package can match them with errors.Is.
func (e *APIError) Unwrap() error {
	if e.ErrorClass == ErrorClassRateLimit && e.Err == nil {
		return catalog.ErrThrottled
	}
	return e.Err
}

// Throttled reports whether the error is an upstream 429.
func (e *APIError) Throttled() bool {
	return e.ErrorClass == ErrorClassRateLimit
}

// classifyStatus maps a non-2xx status code to an error class.
func classifyStatus(status int) ErrorClass {
	switch {
	case status == http.StatusTooManyRequests:
		return ErrorClassRateLimit
	case status >= 400 && status < 500:
		return ErrorClassClient
	case status >= 500:
		return ErrorClassServer
	default:
		return ErrorClassUnexpected
	}
}
