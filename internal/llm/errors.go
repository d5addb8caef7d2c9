// Package llm provides a chat-completion client for multiple providers and
// error classification for their failure modes.
package llm

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Error categories reported by Error.Category.
const (
	CategoryAuth       = "auth"
	CategoryRateLimit  = "rate_limit"
	CategoryQuota      = "quota"
	CategoryPermission = "permission"
	CategoryAPI        = "api"
	CategoryMalformed  = "malformed_response"
	CategoryTimeout    = "timeout"
	CategoryConnection = "connection"
)

// Sentinel errors for the provider failure modes callers branch on.
var (
	ErrInvalidAPIKey     = errors.New("invalid API key")
	ErrRateLimited       = errors.New("rate limited")
	ErrQuotaExceeded     = errors.New("quota exceeded")
	ErrPermissionDenied  = errors.New("permission denied")
	ErrProviderError     = errors.New("provider error")
	ErrMalformedResponse = errors.New("malformed provider response")
	ErrTimeout           = errors.New("request timeout")
	ErrConnection        = errors.New("connection failed")
)

// Error represents a classified failure from an LLM provider.
type Error struct {
	// Original error from the provider
	Err error

	// HTTP status code, if the provider responded
	StatusCode int

	// Provider name (openai, anthropic, ollama, openrouter)
	Provider string

	// Model that was being used
	Model string

	// User-friendly message to surface on jobs
	UserMessage string

	// Raw provider error text for logs
	RawMessage string

	// Error category for classification
	category string

	// Whether retrying the same call might succeed
	Retryable bool
}

func (e *Error) Error() string {
	if e.UserMessage != "" {
		return e.UserMessage
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown LLM error"
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Category returns the classification bucket for this error.
func (e *Error) Category() string {
	return e.category
}

// ClassifyError analyzes a provider failure and returns a classified Error.
// Status codes take precedence; message patterns cover providers that bury
// the real failure inside a 200 or a transport error.
func ClassifyError(err error, provider, model string, statusCode int) *Error {
	if err == nil {
		return nil
	}

	errStr := strings.ToLower(err.Error())
	llmErr := &Error{
		Err:        err,
		StatusCode: statusCode,
		Provider:   provider,
		Model:      model,
		RawMessage: err.Error(),
	}

	switch statusCode {
	case http.StatusUnauthorized:
		llmErr.Err = ErrInvalidAPIKey
		llmErr.category = CategoryAuth
		llmErr.UserMessage = "Invalid API key. Please check the LLM configuration."
		llmErr.Retryable = false

	case http.StatusTooManyRequests:
		llmErr.Err = ErrRateLimited
		llmErr.category = CategoryRateLimit
		llmErr.UserMessage = "Rate limit exceeded. Please wait before retrying."
		llmErr.Retryable = true

	case http.StatusPaymentRequired:
		llmErr.Err = ErrQuotaExceeded
		llmErr.category = CategoryQuota
		llmErr.UserMessage = "API quota exceeded. Please check the account's billing status."
		llmErr.Retryable = false

	case http.StatusForbidden:
		llmErr.Err = ErrPermissionDenied
		llmErr.category = CategoryPermission
		llmErr.UserMessage = "Permission denied by the LLM provider."
		llmErr.Retryable = false

	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		llmErr.Err = ErrProviderError
		llmErr.category = CategoryAPI
		llmErr.UserMessage = "The LLM provider is experiencing issues. Please try again."
		llmErr.Retryable = true

	default:
		classifyByErrorMessage(llmErr, errStr)
	}

	return llmErr
}

// classifyByErrorMessage fills in classification for failures without a
// decisive status code.
func classifyByErrorMessage(llmErr *Error, errStr string) {
	switch {
	case strings.Contains(errStr, "invalid api key") || strings.Contains(errStr, "authentication") || strings.Contains(errStr, "incorrect api key"):
		llmErr.Err = ErrInvalidAPIKey
		llmErr.category = CategoryAuth
		llmErr.UserMessage = "Invalid API key. Please check the LLM configuration."
		llmErr.Retryable = false

	case strings.Contains(errStr, "rate limit") || strings.Contains(errStr, "ratelimit"):
		llmErr.Err = ErrRateLimited
		llmErr.category = CategoryRateLimit
		llmErr.UserMessage = "Rate limit exceeded. Please wait before retrying."
		llmErr.Retryable = true

	case strings.Contains(errStr, "quota") || (strings.Contains(errStr, "insufficient") && strings.Contains(errStr, "credit")):
		llmErr.Err = ErrQuotaExceeded
		llmErr.category = CategoryQuota
		llmErr.UserMessage = "API quota exceeded. Please check the account's billing status."
		llmErr.Retryable = false

	case strings.Contains(errStr, "permission") || strings.Contains(errStr, "forbidden"):
		llmErr.Err = ErrPermissionDenied
		llmErr.category = CategoryPermission
		llmErr.UserMessage = "Permission denied by the LLM provider."
		llmErr.Retryable = false

	case strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline exceeded"):
		llmErr.Err = ErrTimeout
		llmErr.category = CategoryTimeout
		llmErr.UserMessage = "Request to the LLM provider timed out. Please try again."
		llmErr.Retryable = true

	case strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "no such host") || strings.Contains(errStr, "connection reset"):
		llmErr.Err = ErrConnection
		llmErr.category = CategoryConnection
		llmErr.UserMessage = "Could not connect to the LLM provider."
		llmErr.Retryable = true

	case strings.Contains(errStr, "empty response") || strings.Contains(errStr, "failed to parse"):
		llmErr.Err = ErrMalformedResponse
		llmErr.category = CategoryMalformed
		llmErr.UserMessage = "The LLM provider returned an unreadable response."
		llmErr.Retryable = false

	default:
		llmErr.Err = ErrProviderError
		llmErr.category = CategoryAPI
		llmErr.UserMessage = fmt.Sprintf("LLM provider error: %s", llmErr.RawMessage)
		llmErr.Retryable = false
	}
}

// GetCategory returns the classification bucket for err, or "" when err is
// not a classified LLM error.
func GetCategory(err error) string {
	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr.Category()
	}
	return ""
}

// IsRetryable returns true when retrying the same call might succeed.
func IsRetryable(err error) bool {
	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr.Retryable
	}
	return false
}

// GetUserMessage returns a user-friendly message for err.
func GetUserMessage(err error) string {
	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr.UserMessage
	}
	return "An unexpected error occurred. Please try again."
}
