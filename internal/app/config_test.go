package app

import (
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("GOOGLE_STORE_DIR", "")
	t.Setenv("GOOGLE_CLIENT_SECRET_FILE", "")
	t.Setenv("GOOGLE_TOKEN_STORE", "")
	t.Setenv("GOOGLE_SCOPES", "")
	t.Setenv("REFRESH_TTL", "")
	t.Setenv("SCRIPT_SETTINGS_FILE", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}

	if cfg.StoreDir != "." {
		t.Errorf("Expected default store dir '.', got %q", cfg.StoreDir)
	}
	if cfg.CredentialsFile != "client_secret.json" {
		t.Errorf("Expected default client secret file, got %q", cfg.CredentialsFile)
	}
	if cfg.CredentialsStore != "token.json" {
		t.Errorf("Expected default token store, got %q", cfg.CredentialsStore)
	}
	if cfg.RefreshTTL != 5*time.Minute {
		t.Errorf("Expected default refresh TTL 5m, got %v", cfg.RefreshTTL)
	}
	if len(cfg.Scopes) == 0 {
		t.Error("Expected default scopes to be non-empty")
	}
	if cfg.ServiceVersions["sheets"] != "v4" {
		t.Errorf("Expected sheets version v4, got %q", cfg.ServiceVersions["sheets"])
	}
	if cfg.ServiceVersions["script"] != "v1" {
		t.Errorf("Expected script version v1, got %q", cfg.ServiceVersions["script"])
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("GOOGLE_STORE_DIR", "/tmp/creds")
	t.Setenv("GOOGLE_CLIENT_SECRET_FILE", "secret.json")
	t.Setenv("GOOGLE_TOKEN_STORE", "cached.json")
	t.Setenv("GOOGLE_SCOPES", "https://example.com/a https://example.com/b")
	t.Setenv("REFRESH_TTL", "90s")
	t.Setenv("SCRIPT_SETTINGS_FILE", "local.yaml")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}

	if got := cfg.SecretPath(); got != filepath.Join("/tmp/creds", "secret.json") {
		t.Errorf("Unexpected secret path %q", got)
	}
	if got := cfg.TokenPath(); got != filepath.Join("/tmp/creds", "cached.json") {
		t.Errorf("Unexpected token path %q", got)
	}
	if len(cfg.Scopes) != 2 || cfg.Scopes[0] != "https://example.com/a" {
		t.Errorf("Unexpected scopes %v", cfg.Scopes)
	}
	if cfg.RefreshTTL != 90*time.Second {
		t.Errorf("Expected refresh TTL 90s, got %v", cfg.RefreshTTL)
	}
	if cfg.LocalSettings != "local.yaml" {
		t.Errorf("Expected settings path 'local.yaml', got %q", cfg.LocalSettings)
	}
}

func TestLoadConfigBadRefreshTTLFallsBack(t *testing.T) {
	t.Setenv("REFRESH_TTL", "not-a-duration")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.RefreshTTL != 5*time.Minute {
		t.Errorf("Expected fallback refresh TTL 5m, got %v", cfg.RefreshTTL)
	}
}
