package scrape

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/lyfe05/matchfeed/internal/feed"
)

// embedMarkers identify links to the player page when the designated
// container is missing.
var embedMarkers = []string{"embed", "spotlightmoment"}

// streamMatchers is the ordered extraction cascade run against the embed
// page: primary source key, protocol-relative primary, backup source
// key, protocol-relative backup. Every match is kept. A site layout
// change should only ever add or adjust one entry here.
var streamMatchers = []*regexp.Regexp{
	regexp.MustCompile(`src\s*:\s*{\s*hls\s*:\s*'(https?://[^']+)'`),
	regexp.MustCompile(`src\s*:\s*{\s*hls\s*:\s*'(//[^']+)'`),
	regexp.MustCompile(`backupSrc\s*:\s*{\s*hls\s*:\s*'(https?://[^']+)'`),
	regexp.MustCompile(`backupSrc\s*:\s*{\s*hls\s*:\s*'(//[^']+)'`),
}

var (
	tagRe   = regexp.MustCompile(`<[^>]*>`)
	scoreRe = regexp.MustCompile(`score\s*=\s*["'](\d{1,2})\s*:\s*(\d{1,2})["']`)
)

// Resolver follows a fixture candidate to its playable streams. All
// outbound requests go through a shared limiter so batch resolution
// stays inside the source site's informal rate tolerance.
type Resolver struct {
	fetcher feed.Fetcher
	limiter *rate.Limiter
	lister  *Lister
	logger  *zap.Logger
}

// NewResolver builds a Resolver. The lister is reused for URL
// normalization so both hops share one base.
func NewResolver(fetcher feed.Fetcher, limiter *rate.Limiter, lister *Lister, logger *zap.Logger) *Resolver {
	return &Resolver{
		fetcher: fetcher,
		limiter: limiter,
		lister:  lister,
		logger:  logger,
	}
}

// Resolve fetches the fixture's detail and embed pages and extracts
// stream addresses. It never returns an error: any fetch or parse
// failure yields a fixture with no streams so one bad fixture cannot
// abort the batch.
func (r *Resolver) Resolve(ctx context.Context, candidate feed.FixtureCandidate) feed.ResolvedFixture {
	resolved := feed.ResolvedFixture{FixtureCandidate: candidate}

	detailHTML := r.fetch(ctx, candidate.DetailURL)
	if detailHTML == "" {
		return resolved
	}

	resolved.HomeScore, resolved.AwayScore = extractScore(detailHTML)

	embedURL := r.extractEmbedURL(detailHTML)
	if embedURL == "" {
		return resolved
	}
	resolved.EmbedURL = embedURL

	embedHTML := r.fetch(ctx, embedURL)
	if embedHTML == "" {
		return resolved
	}

	resolved.StreamURLs = extractStreams(embedHTML)
	return resolved
}

func (r *Resolver) fetch(ctx context.Context, url string) string {
	if url == "" {
		return ""
	}
	if err := r.limiter.Wait(ctx); err != nil {
		return ""
	}
	body, err := r.fetcher.Fetch(ctx, url)
	if err != nil {
		r.logger.Debug("fetch unavailable", zap.String("url", url), zap.Error(err))
		return ""
	}
	return body
}

// extractEmbedURL locates the player page link: the designated player
// container first, then any link carrying an embed marker.
func (r *Resolver) extractEmbedURL(detailHTML string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(detailHTML))
	if err != nil {
		return ""
	}

	if href, ok := doc.Find("div#player a[href]").First().Attr("href"); ok {
		return r.lister.Normalize(href)
	}

	var found string
	doc.Find("a[href]").EachWithBreak(func(_ int, link *goquery.Selection) bool {
		href, _ := link.Attr("href")
		for _, marker := range embedMarkers {
			if strings.Contains(href, marker) {
				found = r.lister.Normalize(href)
				return false
			}
		}
		return true
	})
	return found
}

// extractScore pulls an optional live score out of the detail page by
// stripping markup and matching the inline score assignment.
func extractScore(detailHTML string) (home, away *int) {
	text := tagRe.ReplaceAllString(detailHTML, " ")
	m := scoreRe.FindStringSubmatch(text)
	if m == nil {
		return nil, nil
	}
	h, err := strconv.Atoi(m[1])
	if err != nil {
		return nil, nil
	}
	a, err := strconv.Atoi(m[2])
	if err != nil {
		return nil, nil
	}
	return &h, &a
}

// extractStreams runs the matcher cascade, keeping every match in
// first-seen order, coerced to absolute https URLs.
func extractStreams(embedHTML string) []string {
	var streams []string
	seen := make(map[string]struct{})
	for _, matcher := range streamMatchers {
		for _, m := range matcher.FindAllStringSubmatch(embedHTML, -1) {
			u := m[1]
			if strings.HasPrefix(u, "//") {
				u = "https:" + u
			}
			if _, dup := seen[u]; dup {
				continue
			}
			seen[u] = struct{}{}
			streams = append(streams, u)
		}
	}
	return streams
}
