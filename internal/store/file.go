package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/lyfe05/matchfeed/internal/feed"
)

// persistedSnapshot is the on-disk JSON shape. The timestamp is epoch
// seconds so the file stays readable by plain shell tooling.
type persistedSnapshot struct {
	Timestamp int64              `json:"timestamp"`
	Matches   []feed.MatchRecord `json:"matches"`
}

// FileProvider persists the snapshot as a single JSON file.
type FileProvider struct {
	path string
}

// NewFileProvider builds a FileProvider. The parent directory must
// exist or be creatable.
func NewFileProvider(path string) (*FileProvider, error) {
	if path == "" {
		return nil, fmt.Errorf("file path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create snapshot directory: %w", err)
		}
	}
	return &FileProvider{path: path}, nil
}

// Save writes the snapshot via a temp file and rename so a crash
// mid-write never leaves a truncated snapshot behind.
func (p *FileProvider) Save(_ context.Context, snap feed.Snapshot) error {
	data, err := json.Marshal(persistedSnapshot{
		Timestamp: snap.LastUpdated.Unix(),
		Matches:   snap.Records,
	})
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	tmp := p.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp, p.path); err != nil {
		return fmt.Errorf("publish snapshot: %w", err)
	}
	return nil
}

// Load reads the snapshot file. A missing file maps to ErrNotFound; a
// corrupt one is an error so the operator notices instead of silently
// serving an empty feed.
func (p *FileProvider) Load(_ context.Context) (feed.Snapshot, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		if os.IsNotExist(err) {
			return feed.Snapshot{}, ErrNotFound
		}
		return feed.Snapshot{}, fmt.Errorf("read snapshot: %w", err)
	}

	var persisted persistedSnapshot
	if err := json.Unmarshal(data, &persisted); err != nil {
		return feed.Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	if persisted.Timestamp <= 0 {
		return feed.Snapshot{}, ErrNotFound
	}
	return feed.Snapshot{
		Records:     persisted.Matches,
		LastUpdated: timeFromEpoch(persisted.Timestamp),
	}, nil
}

// Close for FileProvider does nothing.
func (p *FileProvider) Close() error { return nil }

func timeFromEpoch(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}
