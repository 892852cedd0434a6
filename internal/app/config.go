package app

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config holds application configuration
type Config struct {
	// StoreDir is the directory holding the client secret and cached token
	StoreDir string

	// CredentialsFile is the OAuth client secret JSON (installed-app shape)
	CredentialsFile string

	// CredentialsStore is the serialized token cache, overwritten on refresh
	CredentialsStore string

	// Scopes requested during the consent flow
	Scopes []string

	// RefreshTTL is the time-to-expiry below which the credential
	// accessor refreshes proactively
	RefreshTTL time.Duration

	// ServiceVersions maps service name to the expected API version
	ServiceVersions map[string]string

	// LocalSettings is the path of the script settings YAML file
	LocalSettings string
}

// SecretPath returns the full path of the OAuth client secret file
func (c *Config) SecretPath() string {
	return filepath.Join(c.StoreDir, c.CredentialsFile)
}

// TokenPath returns the full path of the cached token file
func (c *Config) TokenPath() string {
	return filepath.Join(c.StoreDir, c.CredentialsStore)
}

// DefaultScopes cover the services this module drives: Sheets writes,
// Drive file moves/permissions, and Apps Script execution.
var DefaultScopes = []string{
	"https://www.googleapis.com/auth/spreadsheets",
	"https://www.googleapis.com/auth/drive",
	"https://www.googleapis.com/auth/script.projects",
}

// SetupEnvironment loads .env file and configures zerolog output and log level.
func SetupEnvironment() {
	// Load .env file if it exists
	err := godotenv.Load()

	// Configure logging
	if os.Getenv("ENV") == "production" {
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
		log.Logger = log.Output(os.Stderr)
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	levelStr := strings.ToLower(os.Getenv("LOGLEVEL"))
	switch levelStr {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn", "warning":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	case "fatal":
		zerolog.SetGlobalLevel(zerolog.FatalLevel)
	case "panic":
		zerolog.SetGlobalLevel(zerolog.PanicLevel)
	case "disabled":
		zerolog.SetGlobalLevel(zerolog.Disabled)
	case "":
		// Default based on environment
		if os.Getenv("ENV") == "production" {
			zerolog.SetGlobalLevel(zerolog.WarnLevel)
		} else {
			zerolog.SetGlobalLevel(zerolog.InfoLevel)
		}
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		log.Warn().Msgf("Unknown LOGLEVEL '%s', defaulting to info.", levelStr)
	}

	// wait until now to report on the .env file so we have the chance to set up logging first
	if err == nil {
		log.Debug().Msg("Loaded environment variables from .env file.")
	} else {
		log.Debug().Msg("No .env file found or error loading .env file; proceeding with existing environment variables.")
	}
}

// LoadConfig loads configuration from environment variables.
// Every setting has a default; the credential files are only opened
// when a component actually needs them.
func LoadConfig() (*Config, error) {
	storeDir := os.Getenv("GOOGLE_STORE_DIR")
	if storeDir == "" {
		storeDir = "."
	}

	credentialsFile := os.Getenv("GOOGLE_CLIENT_SECRET_FILE")
	if credentialsFile == "" {
		credentialsFile = "client_secret.json"
	}

	credentialsStore := os.Getenv("GOOGLE_TOKEN_STORE")
	if credentialsStore == "" {
		credentialsStore = "token.json"
	}

	scopes := DefaultScopes
	if raw := os.Getenv("GOOGLE_SCOPES"); raw != "" {
		scopes = strings.Fields(raw)
	}

	refreshTTL := 5 * time.Minute
	if raw := os.Getenv("REFRESH_TTL"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			log.Warn().Str("refresh_ttl", raw).Msg("Unparseable REFRESH_TTL, using default")
		} else {
			refreshTTL = parsed
		}
	}

	localSettings := os.Getenv("SCRIPT_SETTINGS_FILE")
	if localSettings == "" {
		localSettings = "settings.yaml"
	}

	return &Config{
		StoreDir:         storeDir,
		CredentialsFile:  credentialsFile,
		CredentialsStore: credentialsStore,
		Scopes:           scopes,
		RefreshTTL:       refreshTTL,
		ServiceVersions: map[string]string{
			"sheets": "v4",
			"drive":  "v3",
			"script": "v1",
		},
		LocalSettings: localSettings,
	}, nil
}

// GetRequiredEnv gets an environment variable or panics if not found
func GetRequiredEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		log.Fatal().Str("key", key).Msg("Required environment variable not set")
	}
	return value
}
