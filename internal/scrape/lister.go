// Package scrape turns the source site's pages into fixture records:
// the Lister parses the listing page, the Resolver follows each fixture
// through its detail and embed pages to playable stream addresses.
package scrape

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/lyfe05/matchfeed/internal/feed"
)

// containerPrefix marks listing-page divs that hold fixtures. The page
// mixes other content in the same container shape, so candidates are
// accepted only with both a title heading and a detail link.
const (
	containerPrefix = "port"
	detailMarker    = "match="
	leaguePathMark  = "/x/"
)

// Lister parses the listing page into fixture candidates.
type Lister struct {
	base *url.URL
}

// NewLister builds a Lister resolving relative links against baseURL.
func NewLister(baseURL string) (*Lister, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	return &Lister{base: base}, nil
}

// List extracts fixture candidates from raw listing-page text. An empty
// or unparsable document yields an empty slice, not an error.
func (l *Lister) List(html string) []feed.FixtureCandidate {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	var fixtures []feed.FixtureCandidate
	doc.Find("div[id]").Each(func(_ int, container *goquery.Selection) {
		id, _ := container.Attr("id")
		if !strings.HasPrefix(id, containerPrefix) {
			return
		}

		title := strings.TrimSpace(container.Find("h2").First().Text())
		if title == "" {
			return
		}

		href, ok := container.Find("a[href]").First().Attr("href")
		if !ok || !strings.Contains(href, detailMarker) {
			return
		}

		candidate := feed.FixtureCandidate{
			Title:     title,
			DetailURL: l.Normalize(href),
		}

		if src, ok := container.Find("img[src]").First().Attr("src"); ok {
			candidate.ImageURL = l.Normalize(src)
		}

		info := container.Find("div.info").First()
		if info.Length() > 0 {
			candidate.Date = strings.TrimSpace(info.Find("span").First().Text())
			if src, ok := info.Find("img[src]").First().Attr("src"); ok {
				candidate.League = leagueFromImage(src)
			}
		}

		fixtures = append(fixtures, candidate)
	})
	return fixtures
}

// Normalize converts any of the four link shapes the site emits into an
// absolute URL: protocol-relative, root-relative, bare, or absolute.
func (l *Lister) Normalize(src string) string {
	switch {
	case src == "":
		return ""
	case strings.HasPrefix(src, "//"):
		return "https:" + src
	case strings.HasPrefix(src, "http"):
		return src
	}
	ref, err := url.Parse(src)
	if err != nil {
		return src
	}
	return l.base.ResolveReference(ref).String()
}

// leagueFromImage decodes a league name out of the listing's league
// badge path, e.g. ".../x/premier_league.jpg" -> "premier league".
func leagueFromImage(src string) string {
	idx := strings.LastIndex(src, leaguePathMark)
	if idx < 0 {
		return ""
	}
	name := src[idx+len(leaguePathMark):]
	name = strings.TrimSuffix(name, ".jpg")
	return strings.ReplaceAll(name, "_", " ")
}
