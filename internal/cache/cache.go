// Package cache owns the published snapshot and the single-flight
// refresh discipline around it.
package cache

import (
	"sync"
	"time"

	"github.com/lyfe05/matchfeed/internal/feed"
)

// Controller guards the published snapshot. Readers get a copy of the
// snapshot header and share the immutable record slice; writers replace
// the slice wholesale and never mutate a committed one.
type Controller struct {
	mu  sync.Mutex
	ttl time.Duration

	records     []feed.MatchRecord
	lastUpdated time.Time
	refreshing  bool
}

// NewController builds a Controller with the given freshness TTL.
func NewController(ttl time.Duration) *Controller {
	return &Controller{ttl: ttl}
}

// Snapshot returns the current published state without blocking on any
// in-flight refresh.
func (c *Controller) Snapshot() feed.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return feed.Snapshot{
		Records:     c.records,
		LastUpdated: c.lastUpdated,
		Refreshing:  c.refreshing,
	}
}

// IsStale reports whether the snapshot is older than the TTL. A never
// populated cache is always stale.
func (c *Controller) IsStale(now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastUpdated.IsZero() {
		return true
	}
	return now.Sub(c.lastUpdated) > c.ttl
}

// BeginRefresh atomically claims the refresh slot. Exactly one caller
// wins between a BeginRefresh and the matching Commit or Abort; losers
// get false with no side effects.
func (c *Controller) BeginRefresh() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.refreshing {
		return false
	}
	c.refreshing = true
	return true
}

// Commit publishes a new record set, stamps the refresh time and
// releases the refresh slot. The slice must not be mutated afterwards.
func (c *Controller) Commit(records []feed.MatchRecord, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = records
	c.lastUpdated = now
	c.refreshing = false
}

// Abort releases the refresh slot leaving the published data untouched,
// so the previous snapshot keeps serving and a later pass can retry.
func (c *Controller) Abort() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.refreshing = false
}

// Populated reports whether any refresh has ever committed.
func (c *Controller) Populated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.lastUpdated.IsZero()
}
