// Package refresh drives the scrape-aggregate-commit cycle that keeps
// the published snapshot fresh.
package refresh

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/lyfe05/matchfeed/internal/aggregate"
	"github.com/lyfe05/matchfeed/internal/cache"
	"github.com/lyfe05/matchfeed/internal/feed"
	"github.com/lyfe05/matchfeed/internal/logos"
	"github.com/lyfe05/matchfeed/internal/metrics"
	"github.com/lyfe05/matchfeed/internal/scrape"
	"github.com/lyfe05/matchfeed/internal/store"
)

var (
	// ErrInFlight means another refresh already holds the slot.
	ErrInFlight = errors.New("refresh already in progress")

	// ErrNoFixtures means the listing produced nothing; the previous
	// snapshot stays published.
	ErrNoFixtures = errors.New("listing yielded no fixtures")
)

// FixtureResolver follows one candidate to its playable streams.
type FixtureResolver interface {
	Resolve(ctx context.Context, candidate feed.FixtureCandidate) feed.ResolvedFixture
}

// CatalogLoader fetches the pass's logo catalog and overrides.
type CatalogLoader interface {
	Load(ctx context.Context) (*logos.Catalog, logos.Overrides)
}

// Config carries the refresh loop's scrape target and logo tuning.
type Config struct {
	ListingURL string
	Logos      logos.Config
}

// Deps are the collaborators of a Refresher. Fetcher, Resolver and
// Catalogs touch the network; everything else is pure or local.
type Deps struct {
	Fetcher    feed.Fetcher
	Lister     *scrape.Lister
	Resolver   FixtureResolver
	Catalogs   CatalogLoader
	Aggregator *aggregate.Aggregator
	Cache      *cache.Controller
	Store      store.Provider
	Clock      feed.Clock
	Logger     *zap.Logger
}

// Refresher runs complete refresh passes under the cache controller's
// single-flight discipline.
type Refresher struct {
	cfg  Config
	deps Deps
}

// New builds a Refresher.
func New(cfg Config, deps Deps) *Refresher {
	return &Refresher{cfg: cfg, deps: deps}
}

// Preload seeds the cache from the persistence layer so a restarted
// service serves immediately. A missing snapshot is not an error.
func (r *Refresher) Preload(ctx context.Context) error {
	snap, err := r.deps.Store.Load(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load persisted snapshot: %w", err)
	}
	r.deps.Cache.Commit(snap.Records, snap.LastUpdated)
	metrics.SetMatchesPublished(len(snap.Records))
	r.deps.Logger.Info("snapshot preloaded",
		zap.Int("matches", len(snap.Records)),
		zap.Time("last_updated", snap.LastUpdated))
	return nil
}

// Run executes one refresh pass. It claims the refresh slot, scrapes
// and aggregates, then commits on success or aborts leaving the
// previous snapshot untouched. Exactly one concurrent caller gets past
// the slot claim; the rest receive ErrInFlight with no side effects.
func (r *Refresher) Run(ctx context.Context) error {
	if !r.deps.Cache.BeginRefresh() {
		return ErrInFlight
	}
	return r.finish(ctx)
}

// Trigger claims the refresh slot and completes the pass in the
// background, so a request handler can answer immediately. The pass
// outlives the caller's context deliberately.
func (r *Refresher) Trigger(ctx context.Context) error {
	if !r.deps.Cache.BeginRefresh() {
		return ErrInFlight
	}
	go func() {
		// Failures are logged and metered inside finish.
		_ = r.finish(context.WithoutCancel(ctx))
	}()
	return nil
}

// finish runs the pass body for an already claimed refresh slot.
func (r *Refresher) finish(ctx context.Context) error {
	start := r.deps.Clock.Now()
	records, err := r.pass(ctx)
	elapsed := r.deps.Clock.Now().Sub(start)

	if err != nil {
		r.deps.Cache.Abort()
		metrics.ObserveRefresh("failure", elapsed)
		r.deps.Logger.Warn("refresh pass failed", zap.Error(err), zap.Duration("elapsed", elapsed))
		return err
	}

	r.deps.Cache.Commit(records, r.deps.Clock.Now())
	metrics.ObserveRefresh("success", elapsed)
	metrics.SetMatchesPublished(len(records))
	r.deps.Logger.Info("refresh pass committed",
		zap.Int("matches", len(records)),
		zap.Duration("elapsed", elapsed))

	r.persist(ctx)
	return nil
}

func (r *Refresher) pass(ctx context.Context) ([]feed.MatchRecord, error) {
	listing, err := r.deps.Fetcher.Fetch(ctx, r.cfg.ListingURL)
	if err != nil {
		return nil, fmt.Errorf("fetch listing: %w", err)
	}

	candidates := r.deps.Lister.List(listing)
	if len(candidates) == 0 {
		return nil, ErrNoFixtures
	}
	r.deps.Logger.Info("listing parsed", zap.Int("fixtures", len(candidates)))

	resolved := make([]feed.ResolvedFixture, 0, len(candidates))
	for _, candidate := range candidates {
		fx := r.deps.Resolver.Resolve(ctx, candidate)
		if len(fx.StreamURLs) > 0 {
			metrics.ObserveFixture("streams")
		} else {
			metrics.ObserveFixture("no_streams")
		}
		resolved = append(resolved, fx)
	}

	catalog, overrides := r.deps.Catalogs.Load(ctx)
	logoResolver := logos.NewResolver(r.cfg.Logos, catalog, overrides)

	records := r.deps.Aggregator.Aggregate(resolved, logoResolver)
	if missing := logoResolver.Missing(); len(missing) > 0 {
		metrics.ObserveLogoMisses(len(missing))
		r.deps.Logger.Warn("teams without logos", zap.Strings("teams", missing))
	}
	return records, nil
}

// persist saves the committed snapshot, best effort. A storage failure
// never fails the pass: the in-memory snapshot is already live.
func (r *Refresher) persist(ctx context.Context) {
	snap := r.deps.Cache.Snapshot()
	if err := r.deps.Store.Save(ctx, snap); err != nil {
		r.deps.Logger.Warn("snapshot persistence failed", zap.Error(err))
	}
}
