package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// ErrorType classifies LLM failures.
type ErrorType string

const (
	ErrTypeAuth      ErrorType = "auth"
	ErrTypeRateLimit ErrorType = "rate_limit"
	ErrTypeTimeout   ErrorType = "timeout"
	ErrTypeServer    ErrorType = "server"
	ErrTypeTransport ErrorType = "transport"
	ErrTypeUnknown   ErrorType = "unknown"
)

// Error represents a structured LLM error with classification.
type Error struct {
	Type       ErrorType // Classification of the error
	Message    string    // Human-readable message
	Retryable  bool      // Whether the operation can be retried
	Cause      error     // Underlying error
	StatusCode int       // HTTP status code if applicable
	Model      string    // Model name if known
}

// Error implements the error interface.
func (e *Error) Error() string {
	var parts []string
	parts = append(parts, string(e.Type))

	if e.StatusCode > 0 {
		parts = append(parts, fmt.Sprintf("HTTP %d", e.StatusCode))
	}
	if e.Model != "" {
		parts = append(parts, fmt.Sprintf("model=%s", e.Model))
	}

	parts = append(parts, e.Message)

	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", strings.Join(parts, " "), e.Cause)
	}
	return strings.Join(parts, " ")
}

// Unwrap returns the underlying cause for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsRetryable implements the retry.RetryableError interface.
// This allows the retry package to check retryability without importing llm.
func (e *Error) IsRetryable() bool {
	return e.Retryable
}

// ClassifyError wraps an upstream failure into a structured Error.
func ClassifyError(err error, model string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Type: ErrTypeTimeout, Message: "request deadline exceeded", Retryable: true, Cause: err, Model: model}
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return classifyStatus(apiErr.HTTPStatusCode, err, model)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return classifyStatus(reqErr.HTTPStatusCode, err, model)
	}

	errStr := strings.ToLower(err.Error())
	if strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "no such host") {
		return &Error{Type: ErrTypeTransport, Message: "endpoint unreachable", Retryable: true, Cause: err, Model: model}
	}

	return &Error{Type: ErrTypeUnknown, Message: "request failed", Retryable: false, Cause: err, Model: model}
}

func classifyStatus(status int, cause error, model string) *Error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &Error{Type: ErrTypeAuth, Message: "authentication failed", Retryable: false, Cause: cause, StatusCode: status, Model: model}
	case status == http.StatusTooManyRequests:
		return &Error{Type: ErrTypeRateLimit, Message: "rate limited", Retryable: true, Cause: cause, StatusCode: status, Model: model}
	case status >= 500:
		return &Error{Type: ErrTypeServer, Message: "server error", Retryable: true, Cause: cause, StatusCode: status, Model: model}
	default:
		return &Error{Type: ErrTypeUnknown, Message: "request failed", Retryable: false, Cause: cause, StatusCode: status, Model: model}
	}
}
