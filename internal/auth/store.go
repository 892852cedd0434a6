package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// LoadToken reads a cached token from path. A missing or structurally
// invalid file is treated as no cached token, not an error.
func LoadToken(path string) *oauth2.Token {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Debug().Str("path", path).Msg("No cached token found")
		return nil
	}

	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Cached token unreadable, treating as absent")
		return nil
	}

	if tok.AccessToken == "" && tok.RefreshToken == "" {
		log.Warn().Str("path", path).Msg("Cached token has no usable fields, treating as absent")
		return nil
	}

	return &tok
}

// SaveToken overwrites the cached token at path. The parent directory is
// created if needed; the file is user-readable only.
func SaveToken(path string, tok *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	data, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("failed to serialize token: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}

	log.Debug().Str("path", path).Time("expiry", tok.Expiry).Msg("Persisted token")
	return nil
}
