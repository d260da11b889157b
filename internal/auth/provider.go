package auth

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"

	"github.com/svidmar/Strava-Run-Coach-MCP-Server/internal/logging"
)

// Provider is the credential collaborator injected into the activity
// fetcher: load persisted tokens, detect expiry, refresh transparently, and
// persist the refreshed set. Auth failures are surfaced as descriptive
// re-authenticate errors and never retried.
type Provider struct {
	store    *FileStore
	endpoint oauth2.Endpoint
	now      func() time.Time
}

// NewProvider creates a Provider over the given token store.
func NewProvider(store *FileStore) *Provider {
	return &Provider{store: store, endpoint: Endpoint, now: time.Now}
}

// GetValidAccessToken returns a usable access token, refreshing and
// persisting first when the stored one is expired. Each call re-reads the
// token file, so a token refreshed by an earlier call is picked up here.
func (p *Provider) GetValidAccessToken() (string, error) {
	tokens, err := p.store.Load()
	if err != nil {
		return "", err
	}
	if tokens == nil {
		return "", fmt.Errorf("not authenticated: run with --force-reauth or complete the OAuth setup first")
	}
	if tokens.ClientID == "" || tokens.ClientSecret == "" {
		return "", fmt.Errorf("client credentials missing from stored tokens: re-authenticate")
	}

	if !tokens.IsExpired(p.now()) {
		return tokens.AccessToken, nil
	}

	logging.Debug("access token expired, refreshing", "expires_at", tokens.ExpiresAt)

	refreshed, err := refresh(context.Background(), tokens.ClientID, tokens.ClientSecret, tokens.RefreshToken, p.endpoint)
	if err != nil {
		return "", fmt.Errorf("refreshing token (re-authentication may be required): %w", err)
	}

	// The refresh response carries no athlete profile; keep the stored one.
	if refreshed.Athlete == nil {
		refreshed.Athlete = tokens.Athlete
	}

	if err := p.store.Save(refreshed); err != nil {
		return "", fmt.Errorf("saving refreshed tokens: %w", err)
	}

	logging.Info("access token refreshed", "expires_at", refreshed.ExpiresAt)
	return refreshed.AccessToken, nil
}
