// Package route maps request paths onto JSON sources and reads the page
// state (page number, tag slug) out of a URL.
package route

import (
	"cmp"
	"math"
	"net/url"
	"slices"
	"strconv"
	"strings"
)

// TagPrefix is the path prefix of tag listings.
const TagPrefix = "/tag"

// Match is the outcome of resolving a path.
type Match struct {
	// Source is the JSON data path to list.
	Source string
	// Section is the normalized route prefix (or exact page path) that
	// matched. Empty for explicit overrides.
	Section string
}

type prefix struct {
	key    string
	source string
}

// Resolver holds a normalized route table.
type Resolver struct {
	prefixes []prefix
	pages    map[string]string
}

// NewResolver builds a resolver from prefix routes and exact-path page
// overrides. Trailing slashes are normalized away on every key.
func NewResolver(routes, pages map[string]string) *Resolver {
	r := &Resolver{pages: make(map[string]string, len(pages))}

	seen := make(map[string]bool, len(routes))
	keys := make([]string, 0, len(routes))
	for k := range routes {
		keys = append(keys, k)
	}
	// Lexical order first so that duplicate keys after normalization
	// resolve deterministically.
	slices.Sort(keys)
	for _, k := range keys {
		nk := Normalize(k)
		if seen[nk] {
			continue
		}
		seen[nk] = true
		r.prefixes = append(r.prefixes, prefix{key: nk, source: routes[k]})
	}
	slices.SortStableFunc(r.prefixes, func(a, b prefix) int {
		return cmp.Compare(len(b.key), len(a.key))
	})

	for k, v := range pages {
		r.pages[Normalize(k)] = v
	}
	return r
}

// Resolve picks the source for path. A non-empty override wins, then exact
// page overrides, then the longest matching prefix.
func (r *Resolver) Resolve(path, override string) (Match, bool) {
	if override != "" {
		return Match{Source: override}, true
	}

	p := Normalize(path)
	if src, ok := r.pages[p]; ok {
		return Match{Source: src, Section: p}, true
	}
	for _, pr := range r.prefixes {
		if p == pr.key || strings.HasPrefix(p, strings.TrimSuffix(pr.key, "/")+"/") {
			return Match{Source: pr.source, Section: pr.key}, true
		}
	}
	return Match{}, false
}

// Sections lists the configured route prefixes with their sources,
// longest first.
func (r *Resolver) Sections() []Match {
	out := make([]Match, 0, len(r.prefixes))
	for _, pr := range r.prefixes {
		out = append(out, Match{Source: pr.source, Section: pr.key})
	}
	return out
}

// Pages lists the exact-path overrides sorted by path.
func (r *Resolver) Pages() []Match {
	out := make([]Match, 0, len(r.pages))
	for k, v := range r.pages {
		out = append(out, Match{Source: v, Section: k})
	}
	slices.SortFunc(out, func(a, b Match) int { return cmp.Compare(a.Section, b.Section) })
	return out
}

// Normalize trims trailing slashes, keeping a lone "/" and adding a leading
// one when missing.
func Normalize(p string) string {
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	for len(p) > 1 && strings.HasSuffix(p, "/") {
		p = p[:len(p)-1]
	}
	return p
}

// PageFromRequest reads the 1-based page: ?page=N when numeric and at least
// 1 (fractions floored), else a trailing integer path segment, else 1.
func PageFromRequest(path string, query url.Values) int {
	if q := strings.TrimSpace(query.Get("page")); q != "" {
		if f, err := strconv.ParseFloat(q, 64); err == nil && f >= 1 && !math.IsInf(f, 0) {
			if f > math.MaxInt32 {
				return math.MaxInt32
			}
			return int(math.Floor(f))
		}
	}
	if n, ok := trailingNumber(path); ok {
		return n
	}
	return 1
}

func trailingNumber(path string) (int, bool) {
	p := Normalize(path)
	last := p[strings.LastIndex(p, "/")+1:]
	if last == "" {
		return 0, false
	}
	n, err := strconv.Atoi(last)
	if err != nil || n < 1 {
		return 0, false
	}
	return min(n, math.MaxInt32), true
}

// TagSlug extracts <slug> from /tag/<slug>[/...].
func TagSlug(path string) (string, bool) {
	rest, ok := strings.CutPrefix(path, TagPrefix+"/")
	if !ok {
		return "", false
	}
	slug, _, _ := strings.Cut(rest, "/")
	if slug == "" {
		return "", false
	}
	if unescaped, err := url.PathUnescape(slug); err == nil {
		slug = unescaped
	}
	return slug, true
}

// TagSection is the listing root of a tag.
func TagSection(slug string) string {
	return TagPrefix + "/" + url.PathEscape(slug)
}

// PageURL is section for page 1 and section/N after it.
func PageURL(section string, page int) string {
	section = Normalize(section)
	if page <= 1 {
		return section
	}
	if section == "/" {
		return "/" + strconv.Itoa(page)
	}
	return section + "/" + strconv.Itoa(page)
}
