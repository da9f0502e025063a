package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fpang/photo-restorer/internal/auth"
	"github.com/rs/zerolog/log"
)

// ResolveOutputDirectory checks that dirPath exists and is a directory, then
// returns its absolute path. An empty path means the current directory.
func ResolveOutputDirectory(dirPath string) (string, error) {
	if dirPath == "" {
		dirPath = "."
	}
	info, err := os.Stat(dirPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("directory not found: %s", dirPath)
		}
		return "", fmt.Errorf("failed to access directory: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("path is not a directory: %s", dirPath)
	}

	absPath, err := filepath.Abs(dirPath)
	if err == nil {
		dirPath = absPath
	}
	return dirPath, nil
}

var validationHints = map[auth.ValidationErrorType]string{
	auth.ErrTypeInvalidKey:    "Check GEMINI_API_KEY (or the key in your .env file)",
	auth.ErrTypeNetworkError:  "Check your internet connection or proxy, or try --backend rest",
	auth.ErrTypeQuotaExceeded: "Wait a moment or review the usage limits of the key",
}

// HandleValidationError logs a failed key check with a hint and exits.
func HandleValidationError(err error) {
	event := log.Fatal().Err(err)
	var validationErr *auth.ValidationError
	if errors.As(err, &validationErr) {
		event = event.Stringer("type", validationErr.Type)
		if hint, ok := validationHints[validationErr.Type]; ok {
			event = event.Str("hint", hint)
		}
	}
	event.Msg("API key validation failed")
}
