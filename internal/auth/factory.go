package auth

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/script/v1"
	"google.golang.org/api/sheets/v4"
)

// Factory builds typed service handles from one credential cache and
// reuses them for the life of the factory. Construction is attempted
// once per call; retries are the caller's decision.
type Factory struct {
	cache    *Cache
	versions map[string]string

	sheetsService *sheets.Service
	driveService  *drive.Service
	scriptService *script.Service
}

// NewFactory creates a service factory bound to the credential cache.
// versions maps service name to the expected API version; the compiled
// clients pin versions, so a mismatch fails construction.
func NewFactory(cache *Cache, versions map[string]string) *Factory {
	return &Factory{
		cache:    cache,
		versions: versions,
	}
}

// Sheets returns the Sheets service handle, building it on first use
func (f *Factory) Sheets(ctx context.Context) (*sheets.Service, error) {
	if f.sheetsService != nil {
		return f.sheetsService, nil
	}

	opts, err := f.options(ctx, "sheets", "v4")
	if err != nil {
		return nil, err
	}

	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		f.logCredentialDiagnostics("sheets", err)
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	f.sheetsService = svc
	return svc, nil
}

// Drive returns the Drive service handle, building it on first use
func (f *Factory) Drive(ctx context.Context) (*drive.Service, error) {
	if f.driveService != nil {
		return f.driveService, nil
	}

	opts, err := f.options(ctx, "drive", "v3")
	if err != nil {
		return nil, err
	}

	svc, err := drive.NewService(ctx, opts...)
	if err != nil {
		f.logCredentialDiagnostics("drive", err)
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}

	f.driveService = svc
	return svc, nil
}

// Script returns the Apps Script service handle, building it on first use
func (f *Factory) Script(ctx context.Context) (*script.Service, error) {
	if f.scriptService != nil {
		return f.scriptService, nil
	}

	opts, err := f.options(ctx, "script", "v1")
	if err != nil {
		return nil, err
	}

	svc, err := script.NewService(ctx, opts...)
	if err != nil {
		f.logCredentialDiagnostics("script", err)
		return nil, fmt.Errorf("failed to create script service: %w", err)
	}

	f.scriptService = svc
	return svc, nil
}

// options validates the configured version and produces client options
// carrying the current credential.
func (f *Factory) options(ctx context.Context, name, compiled string) ([]option.ClientOption, error) {
	log.Debug().Str("service_type", name).Str("version", compiled).Msg("Getting service")

	if configured, ok := f.versions[name]; ok && configured != compiled {
		return nil, fmt.Errorf("service %s: configured version %s does not match client version %s",
			name, configured, compiled)
	}

	// The source is refresh-aware: reused handles consult the cache
	// accessor on every request, not just at construction.
	return []option.ClientOption{option.WithTokenSource(f.cache.TokenSource(ctx))}, nil
}

// logCredentialDiagnostics dumps the credential shape before a
// construction error is returned, mirroring the fatal-with-context
// handling for malformed credentials.
func (f *Factory) logCredentialDiagnostics(name string, err error) {
	evt := log.Warn().Err(err).Str("service_type", name)
	if f.cache != nil && f.cache.tok != nil {
		evt = evt.
			Bool("has_access_token", f.cache.tok.AccessToken != "").
			Bool("has_refresh_token", f.cache.tok.RefreshToken != "").
			Time("expiry", f.cache.tok.Expiry).
			Str("token_type", f.cache.tok.TokenType).
			Str("project", f.cache.Project)
	}
	evt.Msg("Credentials attribute error")
}
