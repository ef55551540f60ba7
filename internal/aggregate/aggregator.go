// Package aggregate turns resolved fixtures into the published match
// records: grouping by title, splitting home/away, filtering streams
// and enriching both sides with logos.
package aggregate

import (
	"strings"

	"go.uber.org/zap"

	"github.com/lyfe05/matchfeed/internal/feed"
	"github.com/lyfe05/matchfeed/internal/logos"
)

// teamSeparator splits a fixture title into home and away names. Only
// the first occurrence counts.
const teamSeparator = " v "

// Config carries stream filtering and decoration settings.
type Config struct {
	// ManifestMarker must appear in a stream URL for it to be playable.
	ManifestMarker string
	// Referer is appended to every playable URL as a playback hint.
	Referer string
}

// Aggregator builds MatchRecords from one refresh pass's fixtures.
type Aggregator struct {
	cfg    Config
	logger *zap.Logger
}

// New builds an Aggregator.
func New(cfg Config, logger *zap.Logger) *Aggregator {
	return &Aggregator{cfg: cfg, logger: logger}
}

// Aggregate groups fixtures by raw title in first-seen order, merging
// the stream lists of repeated titles into one record. Groups whose
// title lacks the separator, and groups with no playable stream, are
// dropped. Logo lookups go through the pass's resolver; a logo miss
// never drops a record.
func (a *Aggregator) Aggregate(fixtures []feed.ResolvedFixture, resolver *logos.Resolver) []feed.MatchRecord {
	type group struct {
		first   feed.ResolvedFixture
		streams []string
	}

	order := make([]string, 0, len(fixtures))
	groups := make(map[string]*group, len(fixtures))
	for _, fx := range fixtures {
		g, ok := groups[fx.Title]
		if !ok {
			g = &group{first: fx}
			groups[fx.Title] = g
			order = append(order, fx.Title)
		}
		g.streams = append(g.streams, fx.StreamURLs...)
	}

	records := make([]feed.MatchRecord, 0, len(order))
	for _, title := range order {
		g := groups[title]

		home, away, ok := splitTitle(title)
		if !ok {
			a.logger.Debug("dropping fixture with malformed title", zap.String("title", title))
			continue
		}

		streams := a.playable(g.streams)
		if len(streams) == 0 {
			a.logger.Debug("dropping fixture with no playable streams", zap.String("title", title))
			continue
		}

		records = append(records, feed.MatchRecord{
			Home:       a.team(home, g.first.League, g.first.HomeScore, resolver),
			Away:       a.team(away, g.first.League, g.first.AwayScore, resolver),
			StreamURLs: streams,
			Date:       g.first.Date,
			League:     g.first.League,
		})
	}
	return records
}

func (a *Aggregator) team(name, league string, score *int, resolver *logos.Resolver) feed.Team {
	url, _ := resolver.Resolve(name, league)
	return feed.Team{Name: name, LogoURL: url, Score: score}
}

// playable keeps manifest-bearing URLs, tags each with the referer and
// drops duplicates, preserving order.
func (a *Aggregator) playable(urls []string) []string {
	seen := make(map[string]struct{}, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if !strings.Contains(u, a.cfg.ManifestMarker) {
			continue
		}
		decorated := u + "|Referer=" + a.cfg.Referer
		if _, dup := seen[decorated]; dup {
			continue
		}
		seen[decorated] = struct{}{}
		out = append(out, decorated)
	}
	return out
}

func splitTitle(title string) (home, away string, ok bool) {
	home, away, ok = strings.Cut(title, teamSeparator)
	if !ok {
		return "", "", false
	}
	home = strings.TrimSpace(home)
	away = strings.TrimSpace(away)
	if home == "" || away == "" {
		return "", "", false
	}
	return home, away, true
}
