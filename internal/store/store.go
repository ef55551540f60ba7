// Package store persists the published snapshot across restarts so the
// service can serve immediately after a reboot instead of waiting for
// the first scrape. By using a provider interface we decouple the
// service from a specific backend, allowing a flat file in small
// deployments and Postgres where one is already running.
package store

import (
	"context"
	"errors"

	"github.com/lyfe05/matchfeed/internal/feed"
)

// ErrNotFound is returned by Load when no snapshot has been persisted.
var ErrNotFound = errors.New("no persisted snapshot")

// Provider is the common interface of the snapshot persistence layer.
type Provider interface {
	// Save persists the snapshot, replacing any previous one.
	Save(ctx context.Context, snap feed.Snapshot) error

	// Load returns the most recently saved snapshot, or ErrNotFound.
	Load(ctx context.Context) (feed.Snapshot, error)

	// Close releases any resources held by the provider.
	Close() error
}

// NoopProvider persists nothing. Useful for local development and for
// deployments that accept a cold cache after restart.
type NoopProvider struct{}

// Save for NoopProvider does nothing.
func (NoopProvider) Save(_ context.Context, _ feed.Snapshot) error { return nil }

// Load for NoopProvider always reports an empty store.
func (NoopProvider) Load(_ context.Context) (feed.Snapshot, error) {
	return feed.Snapshot{}, ErrNotFound
}

// Close for NoopProvider does nothing.
func (NoopProvider) Close() error { return nil }
