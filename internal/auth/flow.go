package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/exec"
	"runtime"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// callbackResult carries the authorization code or error out of the
// callback handler.
type callbackResult struct {
	code string
	err  error
}

// openBrowser launches the default browser at url. Replaced in tests.
var openBrowser = func(url string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", url).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	default:
		return exec.Command("xdg-open", url).Start()
	}
}

// RunConsentFlow drives the installed-app authorization flow: it binds a
// localhost callback listener, sends the user to the consent page, and
// exchanges the returned code for a token. It blocks until the user
// completes consent in the browser; only ctx cancellation unblocks it.
func RunConsentFlow(ctx context.Context, conf *oauth2.Config) (*oauth2.Token, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("failed to bind callback listener: %w", err)
	}

	port := listener.Addr().(*net.TCPAddr).Port

	// Copy so the shared config keeps its configured redirect.
	flowConf := *conf
	flowConf.RedirectURL = fmt.Sprintf("http://127.0.0.1:%d/callback", port)

	state, err := generateState()
	if err != nil {
		listener.Close()
		return nil, err
	}

	results := make(chan callbackResult, 1)
	// Only the first result matters; later callback hits (page reloads,
	// stray requests) must not block their handlers forever.
	deliver := func(res callbackResult) {
		select {
		case results <- res:
		default:
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("state") != state {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			deliver(callbackResult{err: errors.New("oauth state mismatch")})
			return
		}
		if errMsg := r.URL.Query().Get("error"); errMsg != "" {
			http.Error(w, "authorization denied", http.StatusBadRequest)
			deliver(callbackResult{err: fmt.Errorf("authorization denied: %s", errMsg)})
			return
		}
		fmt.Fprintln(w, "Authorization complete. You may close this window.")
		deliver(callbackResult{code: r.URL.Query().Get("code")})
	})

	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if serveErr := srv.Serve(listener); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			deliver(callbackResult{err: fmt.Errorf("callback server error: %w", serveErr)})
		}
	}()
	defer srv.Close()

	authURL := flowConf.AuthCodeURL(state, oauth2.AccessTypeOffline)

	log.Info().Int("port", port).Msg("Waiting for user consent in browser")
	if err := openBrowser(authURL); err != nil {
		log.Warn().Err(err).Msg("Could not launch browser, open the URL manually")
		fmt.Printf("Open this URL in your browser to authorize:\n%s\n", authURL)
	}

	var code string
	select {
	case res := <-results:
		if res.err != nil {
			return nil, res.err
		}
		code = res.code
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	tok, err := flowConf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	log.Debug().Time("expiry", tok.Expiry).Msg("Obtained token from consent flow")
	return tok, nil
}

func generateState() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate state token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
