package logos

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Config carries the matching-cascade tuning data. All of it is
// operator-configurable; the defaults live in the config package.
type Config struct {
	Aliases             map[string]string
	SuffixTokens        []string
	SimilarityThreshold float64
}

// Resolver maps a team name to a logo URL. A Resolver is built fresh
// for each refresh pass against that pass's catalog and overrides, and
// is not safe for concurrent use.
type Resolver struct {
	cfg       Config
	catalog   *Catalog
	overrides Overrides
	suffixes  map[string]struct{}
	missing   map[string]struct{}
}

// NewResolver builds a Resolver over one pass's catalog and overrides.
func NewResolver(cfg Config, catalog *Catalog, overrides Overrides) *Resolver {
	suffixes := make(map[string]struct{}, len(cfg.SuffixTokens))
	for _, tok := range cfg.SuffixTokens {
		suffixes[Normalize(tok)] = struct{}{}
	}
	if catalog == nil {
		catalog = &Catalog{byKey: make(map[string]string)}
	}
	if overrides == nil {
		overrides = make(Overrides)
	}
	return &Resolver{
		cfg:       cfg,
		catalog:   catalog,
		overrides: overrides,
		suffixes:  suffixes,
		missing:   make(map[string]struct{}),
	}
}

// Resolve runs the matching cascade for a team name. Each stage is
// tried only if the previous one yielded nothing; the first hit wins.
// The league is accepted as a hint for signature stability but the
// cascade does not consult it. A miss is not an error: the name is
// recorded for reporting and an empty URL returned.
func (r *Resolver) Resolve(name, _ string) (string, bool) {
	normalized := Normalize(name)
	if normalized == "" {
		return "", false
	}

	if url, ok := r.overrides[normalized]; ok {
		return url, true
	}

	full := normalized
	if canonical, ok := r.cfg.Aliases[normalized]; ok {
		full = Normalize(canonical)
		if url, ok := r.overrides[full]; ok {
			return url, true
		}
	}

	core := r.coreName(full)

	for _, guess := range []string{hyphenate(full), hyphenate(core)} {
		if url, ok := r.catalog.byKey[guess]; ok {
			return url, true
		}
	}

	for _, entry := range r.catalog.entries {
		if core == entry.SearchKey {
			return entry.URL, true
		}
	}

	if len(core) > 3 {
		for _, entry := range r.catalog.entries {
			if strings.Contains(entry.SearchKey, core) || strings.Contains(core, entry.SearchKey) {
				return entry.URL, true
			}
		}
	}

	for _, target := range []string{full, core} {
		if url, ok := r.closest(target); ok {
			return url, true
		}
	}

	r.missing[name] = struct{}{}
	return "", false
}

// Missing returns the original (non-normalized) team names that failed
// resolution during this pass, sorted for stable reporting.
func (r *Resolver) Missing() []string {
	names := make([]string, 0, len(r.missing))
	for name := range r.missing {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// coreName strips leading and trailing club-form tokens ("fc porto" ->
// "porto", "arsenal fc" -> "arsenal"). A name made entirely of such
// tokens is returned unchanged.
func (r *Resolver) coreName(name string) string {
	words := strings.Fields(name)
	lo, hi := 0, len(words)
	for lo < hi {
		if _, ok := r.suffixes[words[lo]]; !ok {
			break
		}
		lo++
	}
	for hi > lo {
		if _, ok := r.suffixes[words[hi-1]]; !ok {
			break
		}
		hi--
	}
	if lo >= hi {
		return name
	}
	return strings.Join(words[lo:hi], " ")
}

// closest finds the best catalog entry by Levenshtein similarity
// (1 - distance/longest). Ties keep the first entry in catalog order;
// that order is feed order and carries no meaning, which the tuning of
// this stage accepts.
func (r *Resolver) closest(target string) (string, bool) {
	if target == "" {
		return "", false
	}
	best := 0.0
	bestURL := ""
	targetLen := len([]rune(target))
	for _, entry := range r.catalog.entries {
		keyLen := len([]rune(entry.SearchKey))
		longest := targetLen
		if keyLen > longest {
			longest = keyLen
		}
		if longest == 0 {
			continue
		}
		distance := fuzzy.LevenshteinDistance(target, entry.SearchKey)
		ratio := 1 - float64(distance)/float64(longest)
		if ratio > best {
			best = ratio
			bestURL = entry.URL
		}
	}
	if best >= r.cfg.SimilarityThreshold && bestURL != "" {
		return bestURL, true
	}
	return "", false
}

func hyphenate(s string) string {
	return strings.ReplaceAll(s, " ", "-")
}
