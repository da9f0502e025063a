package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/fpang/photo-restorer/internal/assets"
	"github.com/fpang/photo-restorer/internal/filehandler"
	"github.com/fpang/photo-restorer/internal/metrics"
	"github.com/rs/zerolog/log"
)

// Analyzer asks a text model to describe a photo's defects and to write the
// restoration instruction for it.
type Analyzer struct {
	backend     Backend
	model       string
	instruction string
}

// NewAnalyzer creates an Analyzer. An empty model resolves to AnalysisModelName().
func NewAnalyzer(backend Backend, model string) *Analyzer {
	if model == "" {
		model = AnalysisModelName()
	}
	return &Analyzer{
		backend:     backend,
		model:       model,
		instruction: assets.RestorationAnalysisPrompt(),
	}
}

// Model returns the model the analyzer calls.
func (a *Analyzer) Model() string {
	return a.model
}

// Analyze returns the generated restoration instruction verbatim. Any failure
// is returned as *Error with kind KindAnalysisFailed.
func (a *Analyzer) Analyze(ctx context.Context, img *filehandler.Image) (string, error) {
	if img == nil {
		return "", a.fail(errors.New("no image to analyze"), 0)
	}

	startTime := time.Now()
	log.Info().
		Str("model", a.model).
		Int("image_bytes", len(img.Data)).
		Str("image_mime", img.MIMEType).
		Msg("Sending image to Gemini for restoration analysis")

	resp, err := a.backend.GenerateContent(ctx, Request{
		Model: a.model,
		Image: filehandler.Encode(img),
		Text:  a.instruction,
	})
	elapsed := time.Since(startTime)
	metrics.RecordRemoteCall("analysis", a.model, elapsed, err)
	if err != nil {
		return "", a.fail(err, elapsed)
	}

	text := resp.Text()
	switch {
	case text == "":
		log.Warn().Str("model", a.model).Msg("Gemini returned an empty restoration instruction")
	case !strings.HasPrefix(strings.TrimSpace(text), assets.RestorationLeadPhrase):
		log.Warn().Str("model", a.model).Msg("Restoration instruction does not start with the expected phrase")
	}

	log.Info().
		Int("response_length", len(text)).
		Dur("duration", elapsed).
		Msg("Restoration analysis complete")

	return text, nil
}

func (a *Analyzer) fail(err error, elapsed time.Duration) error {
	log.Error().
		Err(err).
		Str("model", a.model).
		Dur("duration", elapsed).
		Msg("Error analyzing image")
	return &Error{Kind: KindAnalysisFailed, Message: MsgAnalysisFailed, Err: err}
}
