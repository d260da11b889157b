// Package auth manages Strava OAuth credentials: the persisted token set,
// the one-time browser authorization flow, and on-demand refresh. It is the
// single owner of tokens.json; nothing else reads or writes credentials.
package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const tokensFile = "tokens.json"

// expiryBuffer is subtracted from expires_at when judging token validity, so
// a token never expires mid-request.
const expiryBuffer = 60 * time.Second

// TokenSet is the persisted credential record: the OAuth token pair, the
// client credentials needed to refresh it, and the athlete profile blob
// Strava returns on the initial exchange. Athlete is carried forward across
// refreshes because the refresh response does not repeat it.
type TokenSet struct {
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
	ExpiresAt    int64           `json:"expires_at"`
	ExpiresIn    int64           `json:"expires_in,omitempty"`
	TokenType    string          `json:"token_type,omitempty"`
	ClientID     string          `json:"client_id"`
	ClientSecret string          `json:"client_secret"`
	Athlete      json.RawMessage `json:"athlete,omitempty"`
}

// IsExpired reports whether the access token is expired or about to be.
func (t *TokenSet) IsExpired(now time.Time) bool {
	return now.Unix() > t.ExpiresAt-int64(expiryBuffer.Seconds())
}

// FileStore persists the token set as a JSON file in the data directory.
type FileStore struct {
	path string
}

// NewFileStore creates a FileStore rooted at the given data directory.
func NewFileStore(dataDir string) *FileStore {
	return &FileStore{path: filepath.Join(dataDir, tokensFile)}
}

// Load returns the stored token set, or (nil, nil) when never authenticated.
func (s *FileStore) Load() (*TokenSet, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading tokens: %w", err)
	}

	var tokens TokenSet
	if err := json.Unmarshal(data, &tokens); err != nil {
		return nil, fmt.Errorf("decoding tokens: %w", err)
	}
	return &tokens, nil
}

// Save writes the token set, creating the data directory if needed. Token
// files carry secrets, so the file is owner-readable only.
func (s *FileStore) Save(tokens *TokenSet) error {
	data, err := json.MarshalIndent(tokens, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding tokens: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("writing tokens: %w", err)
	}
	return nil
}

// Delete removes the stored token set. Missing file is not an error.
func (s *FileStore) Delete() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting tokens: %w", err)
	}
	return nil
}
