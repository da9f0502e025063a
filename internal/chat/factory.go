package chat

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// NewBackend creates the named backend. restTimeout only applies to the REST
// backend; the SDK backend is bounded by the caller's context.
func NewBackend(ctx context.Context, name, apiKey string, restTimeout time.Duration) (Backend, error) {
	switch name {
	case "", BackendSDK:
		client, err := NewGeminiClient(ctx, apiKey)
		if err != nil {
			return nil, err
		}
		log.Debug().Str("backend", BackendSDK).Msg("Gemini backend ready")
		return NewSDKBackend(client), nil
	case BackendREST:
		log.Debug().Str("backend", BackendREST).Dur("timeout", restTimeout).Msg("Gemini backend ready")
		return NewRESTBackend(apiKey, restTimeout), nil
	default:
		return nil, fmt.Errorf("unknown backend %q (want %q or %q)", name, BackendSDK, BackendREST)
	}
}
