package auth

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/fpang/photo-restorer/internal/chat"
	"google.golang.org/genai"
)

type fakeBackend struct {
	req  chat.Request
	resp *chat.Response
	err  error
}

func (f *fakeBackend) GenerateContent(_ context.Context, req chat.Request) (*chat.Response, error) {
	f.req = req
	return f.resp, f.err
}

func TestValidateSuccess(t *testing.T) {
	backend := &fakeBackend{resp: &chat.Response{
		Candidates: []chat.Candidate{{Content: chat.Content{Parts: []chat.Part{{Text: "hello"}}}}},
	}}
	if err := ValidateAPIKey(context.Background(), backend, "gemini-2.5-flash"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if backend.req.Model != "gemini-2.5-flash" || backend.req.Image.Data != "" || backend.req.Text == "" {
		t.Errorf("expected a text-only request, got %+v", backend.req)
	}
}

func TestValidateEmptyResponse(t *testing.T) {
	err := ValidateAPIKey(context.Background(), &fakeBackend{resp: &chat.Response{}}, "m")
	var valErr *ValidationError
	if !errors.As(err, &valErr) || valErr.Type != ErrTypeUnknown {
		t.Errorf("expected unknown validation error, got %v", err)
	}
}

func TestValidateClassifiesFailure(t *testing.T) {
	err := ValidateAPIKey(context.Background(), &fakeBackend{err: errors.New("connection refused")}, "m")
	var valErr *ValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if valErr.Type != ErrTypeNetworkError {
		t.Errorf("expected network error, got %s", valErr.Type)
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ValidationErrorType
	}{
		{"invalid key message", errors.New("API key not valid. Please pass a valid API key."), ErrTypeInvalidKey},
		{"permission denied", errors.New("rpc error: Permission denied"), ErrTypeInvalidKey},
		{"quota", errors.New("Resource exhausted: quota"), ErrTypeQuotaExceeded},
		{"network", errors.New("dial tcp: lookup generativelanguage.googleapis.com: no such host"), ErrTypeNetworkError},
		{"unknown", errors.New("something odd"), ErrTypeUnknown},
		{"rest 400", &chat.StatusError{Code: 400, Message: "API key not valid"}, ErrTypeInvalidKey},
		{"rest 429", fmt.Errorf("call: %w", &chat.StatusError{Code: 429}), ErrTypeQuotaExceeded},
		{"sdk 401", &genai.APIError{Code: 401, Message: "unauthorized"}, ErrTypeInvalidKey},
		{"sdk 503", &genai.APIError{Code: 503, Message: "unavailable"}, ErrTypeNetworkError},
		{"sdk 418", &genai.APIError{Code: 418, Message: "teapot"}, ErrTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyError(tt.err)
			if got.Type != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got.Type)
			}
			if !errors.Is(got, tt.err) {
				t.Error("expected the original error to be wrapped")
			}
		})
	}
}
