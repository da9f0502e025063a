package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fpang/photo-restorer/internal/filehandler"
	"github.com/fpang/photo-restorer/internal/metrics"
	"github.com/rs/zerolog/log"
)

// Restorer sends the original photo and an instruction to an image model and
// returns the restored photo as a data URI.
type Restorer struct {
	backend Backend
	model   string
}

// NewRestorer creates a Restorer. An empty model resolves to RestorationModelName().
func NewRestorer(backend Backend, model string) *Restorer {
	if model == "" {
		model = RestorationModelName()
	}
	return &Restorer{backend: backend, model: model}
}

// Model returns the model the restorer calls.
func (r *Restorer) Model() string {
	return r.model
}

// Restore requests both image and text modalities and returns the first
// inline image of the response. Any failure, including a response without an
// image, is returned as *Error with kind KindRestorationFailed.
func (r *Restorer) Restore(ctx context.Context, prompt string, img *filehandler.Image) (filehandler.DataURI, error) {
	if img == nil {
		return "", r.fail(errors.New("no image to restore"), 0)
	}

	startTime := time.Now()
	log.Info().
		Str("model", r.model).
		Int("image_bytes", len(img.Data)).
		Str("image_mime", img.MIMEType).
		Int("prompt_length", len(prompt)).
		Msg("Sending image to Gemini for restoration")

	resp, err := r.backend.GenerateContent(ctx, Request{
		Model:              r.model,
		Image:              filehandler.Encode(img),
		Text:               prompt,
		ResponseModalities: []string{ModalityImage, ModalityText},
	})
	var uri filehandler.DataURI
	if err == nil {
		uri, err = ExtractImage(resp)
	}
	elapsed := time.Since(startTime)
	metrics.RecordRemoteCall("restoration", r.model, elapsed, err)
	if err != nil {
		return "", r.fail(err, elapsed)
	}

	log.Info().
		Int("output_length", len(uri)).
		Dur("duration", elapsed).
		Msg("Gemini image restoration complete")

	return uri, nil
}

func (r *Restorer) fail(err error, elapsed time.Duration) error {
	log.Error().
		Err(err).
		Str("model", r.model).
		Dur("duration", elapsed).
		Bool("no_image", errors.Is(err, ErrNoImageReturned)).
		Msg("Error restoring image")
	return &Error{Kind: KindRestorationFailed, Message: MsgRestorationFailed, Err: err}
}

// ExtractImage scans the parts of the first candidate for the first inline
// image and returns it as a data URI. A missing media type defaults to
// image/png. Every failure wraps ErrNoImageReturned; a response without
// candidates also wraps ErrEmptyResponse.
func ExtractImage(resp *Response) (filehandler.DataURI, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: %w", ErrNoImageReturned, ErrEmptyResponse)
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.InlineData != nil && part.InlineData.Data != "" {
			return filehandler.NewDataURI(*part.InlineData), nil
		}
	}
	return "", fmt.Errorf("%w (text: %s)", ErrNoImageReturned, truncateString(resp.Text(), 200))
}
