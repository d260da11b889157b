package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

func fixedNow() time.Time {
	return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
}

func newTestProvider(t *testing.T, tokenURL string) (*Provider, *FileStore) {
	t.Helper()
	store := NewFileStore(t.TempDir())
	p := NewProvider(store)
	p.now = fixedNow
	if tokenURL != "" {
		p.endpoint = oauth2.Endpoint{TokenURL: tokenURL}
	}
	return p, store
}

func TestGetValidAccessTokenNotAuthenticated(t *testing.T) {
	p, _ := newTestProvider(t, "")

	_, err := p.GetValidAccessToken()
	if err == nil {
		t.Fatal("expected error when no tokens are stored")
	}
	if !strings.Contains(err.Error(), "not authenticated") {
		t.Errorf("expected a setup hint, got: %v", err)
	}
}

func TestGetValidAccessTokenFresh(t *testing.T) {
	p, store := newTestProvider(t, "")

	if err := store.Save(&TokenSet{
		AccessToken:  "fresh-token",
		RefreshToken: "refresh",
		ExpiresAt:    fixedNow().Add(time.Hour).Unix(),
		ClientID:     "id",
		ClientSecret: "secret",
	}); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	token, err := p.GetValidAccessToken()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token != "fresh-token" {
		t.Errorf("expected the stored token untouched, got %q", token)
	}
}

func TestGetValidAccessTokenMissingCredentials(t *testing.T) {
	p, store := newTestProvider(t, "")

	if err := store.Save(&TokenSet{
		AccessToken:  "token",
		RefreshToken: "refresh",
		ExpiresAt:    fixedNow().Add(time.Hour).Unix(),
	}); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	_, err := p.GetValidAccessToken()
	if err == nil || !strings.Contains(err.Error(), "client credentials") {
		t.Errorf("expected missing-credentials error, got: %v", err)
	}
}

func TestGetValidAccessTokenRefreshesExpired(t *testing.T) {
	refreshCalls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		refreshCalls++
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parsing form: %v", err)
		}
		if got := r.Form.Get("grant_type"); got != "refresh_token" {
			t.Errorf("expected refresh_token grant, got %q", got)
		}
		if got := r.Form.Get("refresh_token"); got != "old-refresh" {
			t.Errorf("expected refresh token old-refresh, got %q", got)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "new-access",
			"refresh_token": "new-refresh",
			"token_type":    "Bearer",
			"expires_in":    21600,
		})
	}))
	defer server.Close()

	p, store := newTestProvider(t, server.URL)

	if err := store.Save(&TokenSet{
		AccessToken:  "old-access",
		RefreshToken: "old-refresh",
		ExpiresAt:    fixedNow().Add(-time.Hour).Unix(),
		ClientID:     "id",
		ClientSecret: "secret",
		Athlete:      []byte(`{"id":42}`),
	}); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	token, err := p.GetValidAccessToken()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token != "new-access" {
		t.Errorf("expected refreshed token, got %q", token)
	}
	if refreshCalls != 1 {
		t.Errorf("expected 1 refresh call, got %d", refreshCalls)
	}

	// The refreshed set is persisted, with the athlete blob carried forward
	saved, err := store.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if saved.AccessToken != "new-access" || saved.RefreshToken != "new-refresh" {
		t.Errorf("refreshed tokens not persisted: %+v", saved)
	}
	if saved.ClientID != "id" || saved.ClientSecret != "secret" {
		t.Errorf("client credentials not carried forward: %+v", saved)
	}
	if string(saved.Athlete) != `{"id":42}` {
		t.Errorf("athlete blob not carried forward: %s", saved.Athlete)
	}
}

func TestGetValidAccessTokenRefreshFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Bad Request"}`, http.StatusBadRequest)
	}))
	defer server.Close()

	p, store := newTestProvider(t, server.URL)

	if err := store.Save(&TokenSet{
		AccessToken:  "old-access",
		RefreshToken: "revoked",
		ExpiresAt:    fixedNow().Add(-time.Hour).Unix(),
		ClientID:     "id",
		ClientSecret: "secret",
	}); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	_, err := p.GetValidAccessToken()
	if err == nil {
		t.Fatal("expected error when refresh fails")
	}
	if !strings.Contains(err.Error(), "re-authentication may be required") {
		t.Errorf("expected a re-authentication hint, got: %v", err)
	}
}
