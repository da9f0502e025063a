package chat

import (
	"errors"
	"fmt"

	"google.golang.org/genai"
)

// ErrorKind classifies a failed remote call for the workflow.
type ErrorKind string

const (
	// KindAnalysisFailed covers every failure of the analysis call.
	KindAnalysisFailed ErrorKind = "AnalysisFailed"
	// KindRestorationFailed covers every failure of the restoration call,
	// including a response without an image.
	KindRestorationFailed ErrorKind = "RestorationFailed"
)

var (
	// ErrNoImageReturned means the restoration response carried no inline image.
	ErrNoImageReturned = errors.New("no image returned in response")
	// ErrEmptyResponse means the response carried no candidate at all.
	ErrEmptyResponse = errors.New("response has no candidates")
)

// User-facing messages. Raw service errors are never shown.
const (
	MsgAnalysisFailed    = "Falha ao analisar a imagem. Tente novamente."
	MsgRestorationFailed = "Falha ao restaurar a imagem. Verifique o console para detalhes."
)

// Error is the single error type the remote clients return. Message is safe
// to show to the user; Err keeps the underlying cause for logs.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return string(e.Kind) + ": " + e.Err.Error()
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// StatusError is a non-success answer of the REST endpoint.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API returned status %d: %s", e.Code, e.Message)
}

// StatusCode extracts the HTTP status of a failed call from either backend.
func StatusCode(err error) (int, bool) {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code, true
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code, true
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return apiErrPtr.Code, true
	}
	return 0, false
}
