package scrape

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const listingHTML = `
<html><body>
<div id="port1">
  <h2>Arsenal v Chelsea</h2>
  <a href="/?match=arsenal-chelsea"><img src="//img.hoofoot.com/arsenal.jpg"></a>
  <div class="info"><span>2026-08-29</span><img src="/img/x/premier_league.jpg"></div>
</div>
<div id="port2">
  <h2>Highlights Show</h2>
  <a href="/news/weekly-roundup">read more</a>
</div>
<div id="sidebar">
  <h2>Barcelona v Real Madrid</h2>
  <a href="/?match=clasico">watch</a>
</div>
<div id="port3">
  <a href="/?match=no-title">watch</a>
</div>
<div id="port4">
  <h2>Nice v Monaco</h2>
  <a href="https://hoofoot.com/?match=nice-monaco">watch</a>
</div>
</body></html>`

func TestListAcceptsOnlyFixtureContainers(t *testing.T) {
	t.Parallel()

	lister, err := NewLister("https://hoofoot.com/")
	require.NoError(t, err)

	fixtures := lister.List(listingHTML)
	require.Len(t, fixtures, 2)

	first := fixtures[0]
	require.Equal(t, "Arsenal v Chelsea", first.Title)
	require.Equal(t, "https://hoofoot.com/?match=arsenal-chelsea", first.DetailURL)
	require.Equal(t, "https://img.hoofoot.com/arsenal.jpg", first.ImageURL)
	require.Equal(t, "2026-08-29", first.Date)
	require.Equal(t, "premier league", first.League)

	second := fixtures[1]
	require.Equal(t, "Nice v Monaco", second.Title)
	require.Equal(t, "https://hoofoot.com/?match=nice-monaco", second.DetailURL)
	require.Empty(t, second.League)
}

func TestListEmptyDocument(t *testing.T) {
	t.Parallel()

	lister, err := NewLister("https://hoofoot.com/")
	require.NoError(t, err)
	require.Empty(t, lister.List(""))
}

func TestNormalizeURLShapes(t *testing.T) {
	t.Parallel()

	lister, err := NewLister("https://hoofoot.com/")
	require.NoError(t, err)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"protocol-relative", "//cdn.example/a.jpg", "https://cdn.example/a.jpg"},
		{"root-relative", "/?match=x", "https://hoofoot.com/?match=x"},
		{"bare", "img/logo.png", "https://hoofoot.com/img/logo.png"},
		{"absolute", "https://other.example/b", "https://other.example/b"},
		{"empty", "", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, lister.Normalize(tc.in))
		})
	}
}

func TestEveryCandidateHasAbsoluteDetailURL(t *testing.T) {
	t.Parallel()

	lister, err := NewLister("https://hoofoot.com/")
	require.NoError(t, err)

	for _, f := range lister.List(listingHTML) {
		require.NotEmpty(t, f.Title)
		require.Regexp(t, `^https?://`, f.DetailURL)
	}
}
