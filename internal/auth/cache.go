package auth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/mniksch/google-as-template/internal/app"
)

// ErrRefreshRejected reports that the authorization server refused a
// refresh request (typically a revoked or expired refresh token). There
// is no automatic fallback to the consent flow; the caller restarts
// credential acquisition with NewCache.
var ErrRefreshRejected = errors.New("token refresh rejected")

// Cache owns the credential bundle for one token-store path. It loads a
// cached token on construction, acquires one interactively when none is
// usable, and persists every refresh back to the store.
type Cache struct {
	conf       *oauth2.Config
	tok        *oauth2.Token
	tokenPath  string
	refreshTTL time.Duration

	// Project is the GCP project id from the client secret file
	Project string
}

// NewCache builds a credential cache from cfg. If the cached token is
// expired it is refreshed; if it is absent or unusable the interactive
// consent flow runs, blocking until the user approves access.
func NewCache(ctx context.Context, cfg *app.Config) (*Cache, error) {
	secret, err := os.ReadFile(cfg.SecretPath())
	if err != nil {
		return nil, fmt.Errorf("failed to read client secret: %w", err)
	}

	conf, err := google.ConfigFromJSON(secret, cfg.Scopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse client secret: %w", err)
	}

	project, err := projectID(secret)
	if err != nil {
		return nil, err
	}

	c := &Cache{
		conf:       conf,
		tokenPath:  cfg.TokenPath(),
		refreshTTL: cfg.RefreshTTL,
		Project:    project,
	}

	log.Debug().Str("project", project).Msg("Getting credentials")

	tok := LoadToken(c.tokenPath)
	switch {
	case tok != nil && tok.Valid():
		c.tok = tok
		return c, nil
	case tok != nil && tok.RefreshToken != "":
		fresh, err := refreshToken(ctx, conf, tok)
		if err != nil {
			return nil, err
		}
		c.tok = fresh
	default:
		fresh, err := RunConsentFlow(ctx, conf)
		if err != nil {
			return nil, err
		}
		c.tok = fresh
	}

	// Persist on every acquisition or refresh
	if err := SaveToken(c.tokenPath, c.tok); err != nil {
		return nil, err
	}

	return c, nil
}

// Cred returns a valid token, refreshing first when the remaining
// lifetime is below the configured threshold. The refreshed token is
// persisted before being returned.
func (c *Cache) Cred(ctx context.Context) (*oauth2.Token, error) {
	if !c.tok.Expiry.IsZero() && time.Until(c.tok.Expiry) < c.refreshTTL {
		log.Debug().
			Time("expiry", c.tok.Expiry).
			Dur("refresh_ttl", c.refreshTTL).
			Msg("Token near expiry, refreshing")

		fresh, err := refreshToken(ctx, c.conf, c.tok)
		if err != nil {
			return nil, err
		}
		c.tok = fresh

		if err := SaveToken(c.tokenPath, fresh); err != nil {
			return nil, err
		}
	}

	return c.tok, nil
}

// TokenSource wraps the cache for Google client construction. Every
// Token call runs through Cred, so clients built over it keep the
// proactive-refresh behavior for their whole lifetime.
func (c *Cache) TokenSource(ctx context.Context) oauth2.TokenSource {
	return &cacheTokenSource{ctx: ctx, cache: c}
}

// cacheTokenSource delegates Token to the cache accessor
type cacheTokenSource struct {
	ctx   context.Context
	cache *Cache
}

func (s *cacheTokenSource) Token() (*oauth2.Token, error) {
	return s.cache.Cred(s.ctx)
}

// refreshToken exchanges the refresh token for a new access token. The
// refresh token is carried forward when the server omits it from the
// response, which Google does on every refresh.
func refreshToken(ctx context.Context, conf *oauth2.Config, tok *oauth2.Token) (*oauth2.Token, error) {
	if tok.RefreshToken == "" {
		return nil, fmt.Errorf("%w: no refresh token held", ErrRefreshRejected)
	}

	src := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: tok.RefreshToken})
	fresh, err := src.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRefreshRejected, err)
	}

	if fresh.RefreshToken == "" {
		fresh.RefreshToken = tok.RefreshToken
	}

	log.Debug().Time("expiry", fresh.Expiry).Msg("Refreshed token")
	return fresh, nil
}
