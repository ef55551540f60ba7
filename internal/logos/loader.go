package logos

import (
	"context"

	"go.uber.org/zap"

	"github.com/lyfe05/matchfeed/internal/feed"
)

// Loader fetches the catalog and override feeds. Both are rebuilt on
// every refresh pass; a failed fetch degrades to an empty set so logo
// resolution misses instead of failing the pass.
type Loader struct {
	fetcher      feed.Fetcher
	catalogURL   string
	overridesURL string
	logger       *zap.Logger
}

// NewLoader builds a Loader. overridesURL may be empty when no manual
// override feed is deployed.
func NewLoader(fetcher feed.Fetcher, catalogURL, overridesURL string, logger *zap.Logger) *Loader {
	return &Loader{
		fetcher:      fetcher,
		catalogURL:   catalogURL,
		overridesURL: overridesURL,
		logger:       logger,
	}
}

// Load fetches and parses both feeds.
func (l *Loader) Load(ctx context.Context) (*Catalog, Overrides) {
	catalog := ParseCatalog(l.fetchText(ctx, l.catalogURL))
	l.logger.Info("logo catalog loaded", zap.Int("entries", catalog.Len()))

	var overrides Overrides
	if l.overridesURL != "" {
		overrides = ParseOverrides(l.fetchText(ctx, l.overridesURL))
		l.logger.Info("logo overrides loaded", zap.Int("aliases", len(overrides)))
	}
	return catalog, overrides
}

func (l *Loader) fetchText(ctx context.Context, url string) string {
	if url == "" {
		return ""
	}
	body, err := l.fetcher.Fetch(ctx, url)
	if err != nil {
		l.logger.Warn("logo feed unavailable", zap.String("url", url), zap.Error(err))
		return ""
	}
	return body
}
