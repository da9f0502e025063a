package chat

// rest.go talks to the Generative Language REST API directly. It is the
// alternative to the SDK backend for networks where only plain HTTPS to the
// public endpoint is allowed, and it keeps the exact JSON wire format visible.

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// geminiBaseURL is the Gemini REST API base URL.
const geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// RESTBackend calls generateContent over HTTP.
type RESTBackend struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewRESTBackend creates a REST backend. timeout bounds each HTTP round trip;
// zero leaves it unbounded.
func NewRESTBackend(apiKey string, timeout time.Duration) *RESTBackend {
	return &RESTBackend{
		apiKey:     apiKey,
		baseURL:    geminiBaseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// --- REST API request/response types ---

type geminiRequest struct {
	Contents         []Content               `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiGenerationConfig struct {
	ResponseModalities []string `json:"responseModalities,omitempty"`
}

type geminiResponse struct {
	Response
	Error *geminiError `json:"error,omitempty"`
}

type geminiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// GenerateContent implements Backend.
func (b *RESTBackend) GenerateContent(ctx context.Context, req Request) (*Response, error) {
	var parts []Part
	if req.Image.Data != "" {
		image := req.Image
		parts = append(parts, Part{InlineData: &image})
	}
	parts = append(parts, Part{Text: req.Text})

	body, err := json.Marshal(geminiRequest{
		Contents:         []Content{{Role: "user", Parts: parts}},
		GenerationConfig: generationConfig(req.ResponseModalities),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", b.baseURL, req.Model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", b.apiKey)

	resp, err := b.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		log.Error().
			Int("status", resp.StatusCode).
			Str("model", req.Model).
			Str("body", truncateString(string(respBody), 500)).
			Msg("Gemini REST API returned error")
		return nil, &StatusError{Code: resp.StatusCode, Message: truncateString(string(respBody), 200)}
	}

	var geminiResp geminiResponse
	if err := json.Unmarshal(respBody, &geminiResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if geminiResp.Error != nil {
		return nil, &StatusError{Code: geminiResp.Error.Code, Message: geminiResp.Error.Message}
	}

	return &geminiResp.Response, nil
}

func generationConfig(modalities []string) *geminiGenerationConfig {
	if len(modalities) == 0 {
		return nil
	}
	return &geminiGenerationConfig{ResponseModalities: modalities}
}

// truncateString truncates a string to maxLen, appending "..." if truncated.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return strings.ToValidUTF8(s[:maxLen], "") + "..."
}

var (
	_ Backend = (*RESTBackend)(nil)
	_ Backend = (*SDKBackend)(nil)
)
