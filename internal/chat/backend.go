package chat

import (
	"context"
	"strings"

	"github.com/fpang/photo-restorer/internal/filehandler"
)

// Response modalities understood by the generateContent endpoint.
const (
	ModalityText  = "TEXT"
	ModalityImage = "IMAGE"
)

// Request is a single-turn generateContent call: one inline image followed
// by one text part. A zero Image sends the text alone.
type Request struct {
	Model              string
	Image              filehandler.InlinePayload
	Text               string
	ResponseModalities []string
}

// Response mirrors the generateContent response shape. Both backends decode
// into it so that response parsing is shared.
type Response struct {
	Candidates []Candidate `json:"candidates"`
}

// Candidate is one generated answer.
type Candidate struct {
	Content Content `json:"content"`
}

// Content is an ordered sequence of parts.
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// Part carries either text or inline binary data.
type Part struct {
	Text       string                     `json:"text,omitempty"`
	InlineData *filehandler.InlinePayload `json:"inlineData,omitempty"`
}

// Text concatenates the text parts of the first candidate.
func (r *Response) Text() string {
	if r == nil || len(r.Candidates) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, part := range r.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	return sb.String()
}

// Backend performs generateContent calls against the remote service.
type Backend interface {
	GenerateContent(ctx context.Context, req Request) (*Response, error)
}

// Backend names accepted by NewBackend.
const (
	BackendSDK  = "sdk"
	BackendREST = "rest"
)
