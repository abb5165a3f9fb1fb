// Package google implements the remote adapters for the Google Tasks,
// Calendar, and People APIs, plus the OAuth token source they share.
package google

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/option"
)

// OAuth scopes covering all three mirrored services.
const (
	tasksScope    = "https://www.googleapis.com/auth/tasks"
	calendarScope = "https://www.googleapis.com/auth/calendar"
	contactsScope = "https://www.googleapis.com/auth/contacts"
)

// apiTimeout bounds individual API calls.
const apiTimeout = 10 * time.Second

// Auth supplies bearer tokens from the stored OAuth client credentials
// and refresh token. It implements remote.TokenSource; refreshed access
// tokens are handled transparently by the underlying oauth2 source.
type Auth struct {
	clientPath string
	tokenPath  string

	mu     sync.Mutex
	source oauth2.TokenSource
}

// NewAuth creates a token source reading the OAuth client configuration
// and the saved token from the given paths.
func NewAuth(clientPath, tokenPath string) *Auth {
	return &Auth{clientPath: clientPath, tokenPath: tokenPath}
}

// Authenticated reports whether both the OAuth client configuration and a
// saved token are present on disk.
func (a *Auth) Authenticated() bool {
	if _, err := os.Stat(a.clientPath); err != nil {
		return false
	}
	_, err := os.Stat(a.tokenPath)
	return err == nil
}

// Token returns a valid access token, refreshing through the stored
// refresh token when the cached one has expired.
func (a *Auth) Token(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.source == nil {
		source, err := a.buildSource(ctx)
		if err != nil {
			return "", err
		}
		a.source = source
	}

	tok, err := a.source.Token()
	if err != nil {
		return "", fmt.Errorf("obtaining access token: %w", err)
	}
	return tok.AccessToken, nil
}

func (a *Auth) buildSource(ctx context.Context) (oauth2.TokenSource, error) {
	cfg, err := a.clientConfig()
	if err != nil {
		return nil, err
	}

	tokenData, err := os.ReadFile(a.tokenPath)
	if err != nil {
		return nil, fmt.Errorf("reading saved token: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(tokenData, &tok); err != nil {
		return nil, fmt.Errorf("invalid saved token: %w", err)
	}

	return cfg.TokenSource(ctx, &tok), nil
}

// SaveToken writes a token to the given path with owner-only permissions.
func SaveToken(path string, tok *oauth2.Token) error {
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding token: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing token: %w", err)
	}
	return nil
}

// tokenOption wraps a per-call bearer token as a client option for the
// generated API services.
func tokenOption(token string) option.ClientOption {
	return option.WithTokenSource(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
}
