package cli

import (
	"context"
	"time"

	"github.com/fpang/photo-restorer/internal/auth"
	"github.com/fpang/photo-restorer/internal/chat"
	"github.com/rs/zerolog/log"
)

// BackendConfig selects and configures the generative service backend.
type BackendConfig struct {
	// Name is chat.BackendSDK or chat.BackendREST.
	Name string
	// RESTTimeout bounds each HTTP round trip of the REST backend.
	RESTTimeout time.Duration
	// ValidateKey makes a minimal request with ValidationModel before
	// returning, so a bad key fails at startup instead of at first use.
	ValidateKey     bool
	ValidationModel string
}

// InitBackend resolves the API key and creates the backend.
// A missing credential or a failed validation exits fatally.
func InitBackend(ctx context.Context, cfg BackendConfig) chat.Backend {
	apiKey, err := auth.GetAPIKey()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to retrieve API key")
	}

	backend, err := chat.NewBackend(ctx, cfg.Name, apiKey, cfg.RESTTimeout)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create Gemini backend")
	}

	if cfg.ValidateKey {
		if err := auth.ValidateAPIKey(ctx, backend, cfg.ValidationModel); err != nil {
			HandleValidationError(err)
		}
	}

	log.Info().Str("backend", cfg.Name).Msg("connection successful - Gemini backend initialized")
	return backend
}
