package google

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"golang.org/x/oauth2"
	googleauth "golang.org/x/oauth2/google"
)

const (
	loginCallbackTimeout = 5 * time.Minute
	tokenExchangeTimeout = 30 * time.Second

	// Loopback ports tried for the OAuth redirect.
	loginStartPort    = 8085
	loginPortAttempts = 5
)

// Login runs the OAuth installed-app flow for the stored client
// configuration: it prints an authorization URL, waits for the redirect on
// a loopback port, exchanges the code, and saves the token next to the
// client file. The printURL callback receives the URL the user must open.
func (a *Auth) Login(ctx context.Context, printURL func(url string)) error {
	cfg, err := a.clientConfig()
	if err != nil {
		return err
	}

	listener, port, err := listenLoopback()
	if err != nil {
		return fmt.Errorf("binding loopback port for oauth redirect: %w", err)
	}
	defer listener.Close()
	cfg.RedirectURL = fmt.Sprintf("http://localhost:%d/callback", port)

	verifier := oauth2.GenerateVerifier()
	printURL(cfg.AuthCodeURL("state",
		oauth2.AccessTypeOffline,
		oauth2.S256ChallengeOption(verifier),
	))

	code, err := waitForCode(ctx, listener)
	if err != nil {
		return err
	}

	exchangeCtx, cancel := context.WithTimeout(ctx, tokenExchangeTimeout)
	defer cancel()
	tok, err := cfg.Exchange(exchangeCtx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return fmt.Errorf("exchanging authorization code: %w", err)
	}

	if err := SaveToken(a.tokenPath, tok); err != nil {
		return err
	}

	// Rebuilt lazily on the next Token call.
	a.mu.Lock()
	a.source = nil
	a.mu.Unlock()
	return nil
}

func (a *Auth) clientConfig() (*oauth2.Config, error) {
	clientJSON, err := os.ReadFile(a.clientPath)
	if err != nil {
		return nil, fmt.Errorf("reading oauth client configuration: %w", err)
	}
	cfg, err := googleauth.ConfigFromJSON(clientJSON, tasksScope, calendarScope, contactsScope)
	if err != nil {
		return nil, fmt.Errorf("invalid oauth client configuration: %w", err)
	}
	return cfg, nil
}

func listenLoopback() (net.Listener, int, error) {
	for i := 0; i < loginPortAttempts; i++ {
		port := loginStartPort + i
		listener, err := net.Listen("tcp", fmt.Sprintf("localhost:%d", port))
		if err == nil {
			return listener, port, nil
		}
	}
	return nil, 0, fmt.Errorf("no free port in %d-%d", loginStartPort, loginStartPort+loginPortAttempts-1)
}

// waitForCode serves the redirect endpoint until a code arrives, the
// timeout elapses, or ctx is cancelled.
func waitForCode(ctx context.Context, listener net.Listener) (string, error) {
	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "missing authorization code", http.StatusBadRequest)
			errCh <- fmt.Errorf("redirect arrived without an authorization code")
			return
		}
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, "<html><body><h1>Authentication successful</h1><p>You may close this window.</p></body></html>")
		codeCh <- code
	})

	server := &http.Server{Handler: mux}
	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	select {
	case code := <-codeCh:
		return code, nil
	case err := <-errCh:
		return "", err
	case <-time.After(loginCallbackTimeout):
		return "", fmt.Errorf("oauth redirect timed out")
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
