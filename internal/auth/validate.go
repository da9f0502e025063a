package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/fpang/photo-restorer/internal/chat"
	"github.com/fpang/photo-restorer/internal/metrics"
	"github.com/rs/zerolog/log"
)

// ValidationErrorType categorizes validation failures.
type ValidationErrorType int

const (
	ErrTypeUnknown ValidationErrorType = iota
	ErrTypeInvalidKey
	ErrTypeNetworkError
	ErrTypeQuotaExceeded
)

// String returns the metric label for the failure type.
func (t ValidationErrorType) String() string {
	switch t {
	case ErrTypeInvalidKey:
		return "invalid"
	case ErrTypeNetworkError:
		return "network_error"
	case ErrTypeQuotaExceeded:
		return "quota"
	default:
		return "unknown"
	}
}

// ValidationError is a failed API key check.
type ValidationError struct {
	Type    ValidationErrorType
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ValidateAPIKey sends one text-only request with model through backend and
// reports whether the key works. Failures are *ValidationError.
func ValidateAPIKey(ctx context.Context, backend chat.Backend, model string) error {
	log.Debug().Str("model", model).Msg("Validating API key")

	start := time.Now()
	resp, err := backend.GenerateContent(ctx, chat.Request{Model: model, Text: "hi"})
	elapsed := time.Since(start)

	if err != nil {
		valErr := classifyError(err)
		log.Error().Err(err).Stringer("type", valErr.Type).Msg("API key validation failed")
		recordValidation(valErr.Type.String(), elapsed)
		return valErr
	}
	if resp == nil || len(resp.Candidates) == 0 {
		recordValidation("empty_response", elapsed)
		return &ValidationError{Type: ErrTypeUnknown, Message: "API returned empty response"}
	}

	recordValidation("success", elapsed)
	log.Info().Dur("duration", elapsed).Msg("API key validated")
	return nil
}

func recordValidation(result string, elapsed time.Duration) {
	metrics.New(metrics.Namespace).
		Dimension("Result", result).
		Metric("ApiKeyValidationMs", float64(elapsed.Milliseconds()), metrics.UnitMilliseconds).
		Count("ApiKeyValidationResult").
		Flush()
}

// messagePatterns classify errors that carry no HTTP status, in order.
var messagePatterns = []struct {
	typ      ValidationErrorType
	message  string
	contains []string
}{
	{ErrTypeInvalidKey, "API key is invalid or has been revoked",
		[]string{"api key not valid", "invalid api key", "api_key_invalid", "permission denied"}},
	{ErrTypeQuotaExceeded, "API quota exceeded or rate limited",
		[]string{"quota", "resource exhausted", "rate limit"}},
	{ErrTypeNetworkError, "Network error - check your internet connection",
		[]string{"connection", "network", "timeout", "dial", "no such host", "unreachable"}},
}

func classifyError(err error) *ValidationError {
	if code, ok := chat.StatusCode(err); ok {
		return classifyStatus(code, err)
	}

	lower := strings.ToLower(err.Error())
	for _, p := range messagePatterns {
		for _, s := range p.contains {
			if strings.Contains(lower, s) {
				return &ValidationError{Type: p.typ, Message: p.message, Err: err}
			}
		}
	}
	return &ValidationError{Type: ErrTypeUnknown, Message: "Failed to validate API key", Err: err}
}

func classifyStatus(code int, err error) *ValidationError {
	switch {
	case code == http.StatusBadRequest, code == http.StatusUnauthorized, code == http.StatusForbidden:
		return &ValidationError{Type: ErrTypeInvalidKey, Message: "API key is invalid, expired, or lacks permissions", Err: err}
	case code == http.StatusTooManyRequests:
		return &ValidationError{Type: ErrTypeQuotaExceeded, Message: "API rate limit exceeded - try again later", Err: err}
	case code >= 500:
		return &ValidationError{Type: ErrTypeNetworkError, Message: "Gemini API server error - try again later", Err: err}
	default:
		return &ValidationError{Type: ErrTypeUnknown, Message: "Failed to validate API key", Err: err}
	}
}
