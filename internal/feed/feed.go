// Package feed defines the domain types shared across the scraping,
// aggregation and serving layers.
package feed

import (
	"context"
	"time"
)

// Fetcher retrieves a document body for a URL. Implementations own
// retries and timeouts; callers treat an error (or empty body) as
// "unavailable" without distinguishing causes.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Clock abstracts time.Now for deterministic tests.
type Clock interface {
	Now() time.Time
}

// FixtureCandidate is one entry parsed off the listing page. It lives
// only for the duration of a refresh pass.
type FixtureCandidate struct {
	Title     string
	DetailURL string
	ImageURL  string
	Date      string
	League    string
}

// ResolvedFixture is a candidate after stream resolution. Immutable once
// built; a fixture that failed resolution simply has no StreamURLs.
type ResolvedFixture struct {
	FixtureCandidate

	EmbedURL   string
	StreamURLs []string
	HomeScore  *int
	AwayScore  *int
}

// Team is one side of a published match.
type Team struct {
	Name    string `json:"name"`
	LogoURL string `json:"logo_url"`
	Score   *int   `json:"score,omitempty"`
}

// MatchRecord is the published unit of the feed.
type MatchRecord struct {
	Home       Team     `json:"home"`
	Away       Team     `json:"away"`
	StreamURLs []string `json:"stream_urls"`
	Date       string   `json:"date"`
	League     string   `json:"league"`
}

// Snapshot is the state published by the cache controller. LastUpdated
// is zero until the first successful refresh.
type Snapshot struct {
	Records     []MatchRecord
	LastUpdated time.Time
	Refreshing  bool
}

// Populated reports whether any refresh pass has ever committed.
func (s Snapshot) Populated() bool {
	return !s.LastUpdated.IsZero()
}
