package chat

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/fpang/photo-restorer/internal/filehandler"
	"google.golang.org/genai"
)

// NewGeminiClient creates a Gemini API client authenticated with apiKey.
func NewGeminiClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return client, nil
}

// contentGenerator is the subset of genai.Models used here.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// SDKBackend calls the service through the official Go SDK.
type SDKBackend struct {
	models contentGenerator
}

// NewSDKBackend wraps a genai client.
func NewSDKBackend(client *genai.Client) *SDKBackend {
	return &SDKBackend{models: client.Models}
}

// GenerateContent implements Backend.
func (b *SDKBackend) GenerateContent(ctx context.Context, req Request) (*Response, error) {
	var parts []*genai.Part
	if req.Image.Data != "" {
		data, err := filehandler.Decode(req.Image)
		if err != nil {
			return nil, err
		}
		parts = append(parts, &genai.Part{InlineData: &genai.Blob{MIMEType: req.Image.MIMEType, Data: data}})
	}
	parts = append(parts, &genai.Part{Text: req.Text})

	contents := []*genai.Content{{Role: "user", Parts: parts}}

	var config *genai.GenerateContentConfig
	if len(req.ResponseModalities) > 0 {
		config = &genai.GenerateContentConfig{ResponseModalities: req.ResponseModalities}
	}

	resp, err := b.models.GenerateContent(ctx, req.Model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}
	return fromGenAI(resp), nil
}

// fromGenAI converts an SDK response, re-encoding inline data as base64 so it
// matches the wire format the REST backend sees.
func fromGenAI(resp *genai.GenerateContentResponse) *Response {
	out := &Response{}
	if resp == nil {
		return out
	}
	for _, c := range resp.Candidates {
		if c == nil || c.Content == nil {
			out.Candidates = append(out.Candidates, Candidate{})
			continue
		}
		cand := Candidate{Content: Content{Role: c.Content.Role}}
		for _, p := range c.Content.Parts {
			if p == nil || p.Thought {
				continue
			}
			part := Part{Text: p.Text}
			if p.InlineData != nil {
				part.InlineData = &filehandler.InlinePayload{
					MIMEType: p.InlineData.MIMEType,
					Data:     base64.StdEncoding.EncodeToString(p.InlineData.Data),
				}
			}
			cand.Content.Parts = append(cand.Content.Parts, part)
		}
		out.Candidates = append(out.Candidates, cand)
	}
	return out
}
