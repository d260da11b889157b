// Package cache persists the fetched activity history as a single JSON
// snapshot and answers filtered queries over it. The snapshot is the source
// of truth for every aggregate computation in the service.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/svidmar/Strava-Run-Coach-MCP-Server/internal/logging"
	"github.com/svidmar/Strava-Run-Coach-MCP-Server/internal/strava"
)

const snapshotFile = "activities_cache.json"

// Snapshot is the persisted activity cache: the full fetched history plus a
// timestamp and count. Activities keep the order they were fetched in.
type Snapshot struct {
	UpdatedAt  string            `json:"updated_at"`
	Count      int               `json:"count"`
	Activities []strava.Activity `json:"activities"`
}

// Store owns the snapshot file. Single writer, no locking: concurrent syncs
// are not a supported scenario.
type Store struct {
	path string
	now  func() time.Time
}

// NewStore creates a Store rooted at the given data directory.
func NewStore(dataDir string) *Store {
	return &Store{
		path: filepath.Join(dataDir, snapshotFile),
		now:  time.Now,
	}
}

// Save replaces the entire snapshot with the given activities. This is a
// full overwrite, never a merge: a sync that fetched less than the previous
// one shrinks the cache. That is deliberate upstream behavior; the store
// only calls it out in the log.
func (s *Store) Save(activities []strava.Activity) error {
	prev, err := s.Load()
	if err == nil && prev != nil && len(activities) < prev.Count {
		logging.Warn("cache shrinking on save",
			"previous_count", prev.Count, "new_count", len(activities))
	}

	snap := Snapshot{
		UpdatedAt:  s.now().Format(time.RFC3339),
		Count:      len(activities),
		Activities: activities,
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	return writeFileAtomic(s.path, data)
}

// Load returns the persisted snapshot, or (nil, nil) when no sync has ever
// run. Staleness is the caller's concern; UpdatedAt is surfaced for that.
func (s *Store) Load() (*Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}
	return &snap, nil
}

// writeFileAtomic writes via a temp file and rename so a reader racing a
// sync never observes a torn snapshot.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing snapshot: %w", err)
	}
	return nil
}
