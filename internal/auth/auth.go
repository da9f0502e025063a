// Package auth resolves the credential for the generative service and checks
// that it works.
package auth

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// ErrMissingCredential is fatal at startup: no workflow is reachable without a key.
var ErrMissingCredential = errors.New("API key not found: set GEMINI_API_KEY (or API_KEY) in the environment or a .env file")

// apiKeyEnvVars lists the variables consulted, in priority order.
var apiKeyEnvVars = []string{"GEMINI_API_KEY", "API_KEY"}

// GetAPIKey retrieves the Gemini API key from the environment.
// Priority order:
//  1. GEMINI_API_KEY
//  2. API_KEY
func GetAPIKey() (string, error) {
	for _, name := range apiKeyEnvVars {
		if key := os.Getenv(name); key != "" {
			log.Debug().Str("source", name).Msg("Using API key from environment variable")
			return key, nil
		}
	}
	return "", ErrMissingCredential
}

// LoadDotEnv loads variables from the given .env files, or from ./.env when
// none are named. Variables already set in the environment are not
// overridden. A missing file is not an error.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				log.Debug().Str("file", path).Msg("No .env file, skipping")
				continue
			}
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
		log.Debug().Str("file", path).Msg("Loaded environment file")
	}
	return nil
}
