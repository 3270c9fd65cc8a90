package entry

import (
	"cmp"
	"slices"
	"time"
)

var epoch = time.Unix(0, 0).UTC()

// EffectiveTime is the sort key: updated_at if present, else created_at.
// Missing or unparseable timestamps count as the Unix epoch.
func EffectiveTime(e Entry) time.Time {
	ts := e.UpdatedAt
	if ts == "" {
		ts = e.CreatedAt
	}
	if ts == "" {
		return epoch
	}
	t, err := ParseTime(ts, time.UTC)
	if err != nil {
		return epoch
	}
	return t
}

// Sort returns a copy of entries ordered by descending effective time.
// Equal keys keep their input order.
func Sort(entries []Entry) []Entry {
	type keyed struct {
		at time.Time
		e  Entry
	}
	ks := make([]keyed, len(entries))
	for i, e := range entries {
		ks[i] = keyed{at: EffectiveTime(e), e: e}
	}
	slices.SortStableFunc(ks, func(a, b keyed) int {
		return b.at.Compare(a.at)
	})

	sorted := make([]Entry, len(ks))
	for i, k := range ks {
		sorted[i] = k.e
	}
	return sorted
}

// Paginate returns the 1-based page of the given size. Pages below 1 are
// clamped to 1; pages past the end are empty.
func Paginate(entries []Entry, page, size int) []Entry {
	if size < 1 {
		size = 1
	}
	if page < 1 {
		page = 1
	}
	// Compare page numbers rather than offsets so huge pages cannot overflow.
	if len(entries) == 0 || page-1 > (len(entries)-1)/size {
		return []Entry{}
	}
	start := (page - 1) * size
	end := min(start+size, len(entries))
	return slices.Clone(entries[start:end])
}

// PageCount is the number of pages needed for n entries, at least 1.
func PageCount(n, size int) int {
	if size < 1 {
		size = 1
	}
	if n <= 0 {
		return 1
	}
	return (n + size - 1) / size
}

// FilterByTag keeps entries carrying a tag with exactly the given slug.
func FilterByTag(entries []Entry, slug string) []Entry {
	out := []Entry{}
	if slug == "" {
		return out
	}
	for _, e := range entries {
		if HasTag(e, slug) {
			out = append(out, e)
		}
	}
	return out
}

// HasTag reports whether e carries a tag with the given slug.
func HasTag(e Entry, slug string) bool {
	for _, t := range e.Tags {
		if t.Slug != "" && t.Slug == slug {
			return true
		}
	}
	return false
}

// TagSummary is one distinct tag across a set of entries.
type TagSummary struct {
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	URL   string `json:"url"`
	Count int    `json:"count"`
}

// Tags lists the distinct slugged tags of entries, most used first. The
// name and url of the first occurrence are kept.
func Tags(entries []Entry) []TagSummary {
	index := make(map[string]int)
	var out []TagSummary
	for _, e := range entries {
		seen := make(map[string]bool, len(e.Tags))
		for _, t := range e.Tags {
			if t.Slug == "" || seen[t.Slug] {
				continue
			}
			seen[t.Slug] = true
			if i, ok := index[t.Slug]; ok {
				out[i].Count++
				continue
			}
			index[t.Slug] = len(out)
			name := t.Name
			if name == "" {
				name = t.Slug
			}
			out = append(out, TagSummary{Name: name, Slug: t.Slug, URL: t.URL, Count: 1})
		}
	}
	slices.SortStableFunc(out, func(a, b TagSummary) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Slug, b.Slug)
	})
	return out
}
