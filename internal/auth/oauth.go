package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pkg/browser"
	"golang.org/x/oauth2"
)

const (
	authURL     = "https://www.strava.com/oauth/authorize"
	tokenURL    = "https://www.strava.com/oauth/token"
	redirectURI = "http://localhost:8089/callback"
	scopes      = "read,activity:read_all,profile:read_all"
)

// Endpoint is Strava's OAuth2 endpoint. A variable so tests can point the
// refresh flow at a local server.
var Endpoint = oauth2.Endpoint{
	AuthURL:  authURL,
	TokenURL: tokenURL,
}

// oauthConfig returns an OAuth2 config for Strava.
func oauthConfig(clientID, clientSecret string, endpoint oauth2.Endpoint) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     endpoint,
		RedirectURL:  redirectURI,
		Scopes:       []string{scopes},
	}
}

// tokenSetFromOAuth2 converts an oauth2.Token to the persisted form,
// attaching the client credentials so later refreshes are self-contained.
func tokenSetFromOAuth2(token *oauth2.Token, clientID, clientSecret string) *TokenSet {
	set := &TokenSet{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.Expiry.Unix(),
		TokenType:    token.TokenType,
		ClientID:     clientID,
		ClientSecret: clientSecret,
	}

	// Strava includes the athlete profile in the authorization-code
	// exchange response; keep it verbatim.
	if athlete := token.Extra("athlete"); athlete != nil {
		if raw, err := json.Marshal(athlete); err == nil {
			set.Athlete = raw
		}
	}
	return set
}

// Authenticate performs the one-time browser authorization flow: serve a
// localhost callback, open the athlete's browser at Strava's consent page,
// and exchange the returned code for tokens.
func Authenticate(ctx context.Context, clientID, clientSecret string) (*TokenSet, error) {
	config := oauthConfig(clientID, clientSecret, Endpoint)

	codeChan := make(chan string, 1)
	errChan := make(chan error, 1)

	mux := http.NewServeMux()
	server := &http.Server{
		Addr:    ":8089",
		Handler: mux,
	}

	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			errMsg := r.URL.Query().Get("error")
			if errMsg == "" {
				errMsg = "no authorization code received"
			}
			http.Error(w, errMsg, http.StatusBadRequest)
			errChan <- fmt.Errorf("authorization failed: %s", errMsg)
			return
		}

		w.Header().Set("Content-Type", "text/html")
		fmt.Fprintf(w, `<html><body><h1>Authorization successful!</h1><p>You can close this window.</p></body></html>`)
		codeChan <- code
	})

	go func() {
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			errChan <- fmt.Errorf("callback server error: %w", err)
		}
	}()

	state := "runcoach-auth"
	consentURL := config.AuthCodeURL(state, oauth2.SetAuthURLParam("approval_prompt", "force"))

	fmt.Println("Opening browser for Strava authorization...")
	fmt.Printf("If browser doesn't open, visit: %s\n\n", consentURL)

	if err := browser.OpenURL(consentURL); err != nil {
		fmt.Printf("Could not open browser automatically: %v\n", err)
	}

	var code string
	select {
	case code = <-codeChan:
	case err := <-errChan:
		server.Shutdown(ctx)
		return nil, err
	case <-ctx.Done():
		server.Shutdown(ctx)
		return nil, ctx.Err()
	case <-time.After(5 * time.Minute):
		server.Shutdown(ctx)
		return nil, fmt.Errorf("authorization timeout")
	}

	server.Shutdown(ctx)

	token, err := config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("token exchange failed: %w", err)
	}

	return tokenSetFromOAuth2(token, clientID, clientSecret), nil
}

// refresh exchanges a refresh token for a fresh token pair.
func refresh(ctx context.Context, clientID, clientSecret, refreshToken string, endpoint oauth2.Endpoint) (*TokenSet, error) {
	config := oauthConfig(clientID, clientSecret, endpoint)

	// An already-expired token forces the TokenSource to hit the refresh
	// grant immediately.
	stale := &oauth2.Token{
		RefreshToken: refreshToken,
		Expiry:       time.Now().Add(-time.Hour),
	}

	token, err := config.TokenSource(ctx, stale).Token()
	if err != nil {
		return nil, fmt.Errorf("token refresh failed: %w", err)
	}

	return tokenSetFromOAuth2(token, clientID, clientSecret), nil
}
