package scrape

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/lyfe05/matchfeed/internal/feed"
)

const detailHTML = `
<html><body>
<script>var score = "2:1";</script>
<div id="player"><a href="/embed?match=arsenal-chelsea">play</a></div>
</body></html>`

const detailFallbackHTML = `
<html><body>
<a href="/news/other">other</a>
<a href="https://hoofootay4.spotlightmoment.com/p/42">play</a>
</body></html>`

const embedHTML = `
<script>
player.setup({
  src: { hls: '//cdn.example/manifest/0.m3u8' },
  backupSrc: { hls: 'https://backup.example/manifest/1.m3u8' }
});
</script>`

type fakeFetcher struct {
	pages map[string]string
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (string, error) {
	body, ok := f.pages[url]
	if !ok {
		return "", errors.New("unavailable")
	}
	return body, nil
}

func newTestResolver(t *testing.T, pages map[string]string) *Resolver {
	t.Helper()
	lister, err := NewLister("https://hoofoot.com/")
	require.NoError(t, err)
	return NewResolver(&fakeFetcher{pages: pages}, rate.NewLimiter(rate.Inf, 1), lister, zap.NewNop())
}

func TestResolveFullChain(t *testing.T) {
	t.Parallel()

	r := newTestResolver(t, map[string]string{
		"https://hoofoot.com/?match=ac":                   detailHTML,
		"https://hoofoot.com/embed?match=arsenal-chelsea": embedHTML,
	})

	resolved := r.Resolve(context.Background(), feed.FixtureCandidate{
		Title:     "Arsenal v Chelsea",
		DetailURL: "https://hoofoot.com/?match=ac",
	})

	require.Equal(t, "https://hoofoot.com/embed?match=arsenal-chelsea", resolved.EmbedURL)
	require.Equal(t, []string{
		"https://cdn.example/manifest/0.m3u8",
		"https://backup.example/manifest/1.m3u8",
	}, resolved.StreamURLs)
	require.NotNil(t, resolved.HomeScore)
	require.NotNil(t, resolved.AwayScore)
	require.Equal(t, 2, *resolved.HomeScore)
	require.Equal(t, 1, *resolved.AwayScore)
}

func TestResolveIsIdempotent(t *testing.T) {
	t.Parallel()

	pages := map[string]string{
		"https://hoofoot.com/?match=ac":                   detailHTML,
		"https://hoofoot.com/embed?match=arsenal-chelsea": embedHTML,
	}
	candidate := feed.FixtureCandidate{Title: "Arsenal v Chelsea", DetailURL: "https://hoofoot.com/?match=ac"}

	first := newTestResolver(t, pages).Resolve(context.Background(), candidate)
	second := newTestResolver(t, pages).Resolve(context.Background(), candidate)
	require.Equal(t, first, second)
}

func TestResolveFetchFailureYieldsEmptyStreams(t *testing.T) {
	t.Parallel()

	r := newTestResolver(t, nil)
	resolved := r.Resolve(context.Background(), feed.FixtureCandidate{
		Title:     "Arsenal v Chelsea",
		DetailURL: "https://hoofoot.com/?match=ac",
	})
	require.Empty(t, resolved.StreamURLs)
	require.Nil(t, resolved.HomeScore)
	require.Equal(t, "Arsenal v Chelsea", resolved.Title)
}

func TestResolveEmbedMarkerFallback(t *testing.T) {
	t.Parallel()

	r := newTestResolver(t, map[string]string{
		"https://hoofoot.com/?match=x":                detailFallbackHTML,
		"https://hoofootay4.spotlightmoment.com/p/42": embedHTML,
	})
	resolved := r.Resolve(context.Background(), feed.FixtureCandidate{
		Title:     "Lyon v Lille",
		DetailURL: "https://hoofoot.com/?match=x",
	})
	require.Equal(t, "https://hoofootay4.spotlightmoment.com/p/42", resolved.EmbedURL)
	require.Len(t, resolved.StreamURLs, 2)
}

func TestResolveNoEmbedReturnsEarly(t *testing.T) {
	t.Parallel()

	r := newTestResolver(t, map[string]string{
		"https://hoofoot.com/?match=x": `<html><body><script>var score = "0:0";</script><p>no player</p></body></html>`,
	})
	resolved := r.Resolve(context.Background(), feed.FixtureCandidate{DetailURL: "https://hoofoot.com/?match=x"})
	require.Empty(t, resolved.EmbedURL)
	require.Empty(t, resolved.StreamURLs)
	require.NotNil(t, resolved.HomeScore)
	require.Equal(t, 0, *resolved.HomeScore)
}

func TestExtractStreamsCascade(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		html string
		want []string
	}{
		{
			name: "absolute primary only",
			html: `src: { hls: 'https://cdn.example/manifest/0.m3u8' }`,
			want: []string{"https://cdn.example/manifest/0.m3u8"},
		},
		{
			name: "protocol-relative backup",
			html: `backupSrc: { hls: '//backup.example/manifest/1.m3u8' }`,
			want: []string{"https://backup.example/manifest/1.m3u8"},
		},
		{
			name: "duplicates collapse",
			html: `src: { hls: '//cdn.example/manifest/0.m3u8' }
			       backupSrc: { hls: '//cdn.example/manifest/0.m3u8' }`,
			want: []string{"https://cdn.example/manifest/0.m3u8"},
		},
		{
			name: "nothing",
			html: `<html></html>`,
			want: nil,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, extractStreams(tc.html))
		})
	}
}
