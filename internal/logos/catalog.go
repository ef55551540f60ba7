// Package logos loads the external logo catalog and override feeds and
// maps team names to logo URLs through a cascading matching pipeline.
package logos

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// entryDelimiter separates records in the catalog feed.
const entryDelimiter = "------------------------------"

var (
	filenameRe    = regexp.MustCompile(`Filename:\s*(.+?)\.png`)
	urlRe         = regexp.MustCompile(`URL:\s*(https?://\S+)`)
	descriptionRe = regexp.MustCompile(`Description:\s*(.+)`)
	parentheticRe = regexp.MustCompile(`\s*\([^)]*\)`)
)

// Entry is one catalog record. SourceKey is the feed's own identifier
// (the filename stem); SearchKey is the normalized display name used
// for matching.
type Entry struct {
	SourceKey string
	SearchKey string
	URL       string
}

// Catalog holds the logo feed in source order. Iteration order matters
// only for tie-breaking in approximate matching, where the spec of the
// feed gives us nothing better than first-encountered.
type Catalog struct {
	entries []Entry
	byKey   map[string]string
}

// ParseCatalog reads the plain-text catalog feed. Entries missing any
// of the three fields are skipped.
func ParseCatalog(text string) *Catalog {
	c := &Catalog{byKey: make(map[string]string)}
	for _, block := range strings.Split(text, entryDelimiter) {
		filename := firstGroup(filenameRe, block)
		url := firstGroup(urlRe, block)
		description := firstGroup(descriptionRe, block)
		if filename == "" || url == "" || description == "" {
			continue
		}
		entry := Entry{
			SourceKey: strings.TrimSpace(filename),
			SearchKey: searchKey(description),
			URL:       strings.TrimSpace(url),
		}
		c.entries = append(c.entries, entry)
		c.byKey[entry.SourceKey] = entry.URL
	}
	return c
}

// Len reports the number of usable catalog entries.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// Overrides maps normalized aliases to logo URLs. It takes precedence
// over any catalog matching.
type Overrides map[string]string

// ParseOverrides reads the manual override feed: one mapping per line,
// "alias1, alias2, ... = <URL>". Blank lines and # comments skipped.
func ParseOverrides(text string) Overrides {
	overrides := make(Overrides)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		aliases, url, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		url = strings.TrimSpace(url)
		if url == "" {
			continue
		}
		for _, alias := range strings.Split(aliases, ",") {
			if key := Normalize(alias); key != "" {
				overrides[key] = url
			}
		}
	}
	return overrides
}

func firstGroup(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return m[1]
}

// searchKey reduces a catalog description to its matchable form: drop
// "(Country)" annotations and a trailing "logo" word, then normalize.
func searchKey(description string) string {
	s := parentheticRe.ReplaceAllString(description, "")
	s = Normalize(s)
	s = strings.TrimSuffix(s, " logo")
	return strings.TrimSpace(s)
}

var diacriticFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize folds diacritics to base letters, lowercases and trims.
// Every name comparison in this package happens post-Normalize.
func Normalize(s string) string {
	folded, _, err := transform.String(diacriticFolder, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(strings.TrimSpace(folded))
}
