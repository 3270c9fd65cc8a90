package site

import (
	"encoding/json"
	"os"
	"slices"
	"strings"

	"github.com/ziadkadry99/catalogue/internal/entry"
)

// summaryLimit caps the description excerpt stored per entry, in runes.
const summaryLimit = 200

// SearchEntry represents a single searchable entry of the site.
type SearchEntry struct {
	Path    string   `json:"path"`
	Title   string   `json:"title"`
	Summary string   `json:"summary"`
	Section string   `json:"section"`
	Tags    []string `json:"tags,omitempty"`
}

// SectionEntries are the entries listed under one section.
type SectionEntries struct {
	Section string
	Entries []entry.Entry
}

// BuildSearchIndex flattens the sections into one index. An entry listed in
// several sections is indexed once, under the first.
func BuildSearchIndex(sections []SectionEntries) []SearchEntry {
	seen := make(map[string]bool)
	entries := []SearchEntry{}
	for _, s := range sections {
		for _, e := range s.Entries {
			if seen[e.ID] {
				continue
			}
			seen[e.ID] = true
			entries = append(entries, SearchEntry{
				Path:    e.URL,
				Title:   e.Title,
				Summary: excerpt(e.Description, summaryLimit),
				Section: s.Section,
				Tags:    tagNames(e.Tags),
			})
		}
	}
	return entries
}

func tagNames(tags []entry.Tag) []string {
	var names []string
	for _, t := range tags {
		if t.Name != "" {
			names = append(names, t.Name)
		}
	}
	return names
}

func excerpt(s string, limit int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "..."
}

// WriteSearchIndex writes the search index as JSON to the given path.
func WriteSearchIndex(entries []SearchEntry, outputPath string) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(outputPath, data, 0o644)
}

// LoadSearchIndex reads an index written by WriteSearchIndex.
func LoadSearchIndex(path string) ([]SearchEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var entries []SearchEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Search returns up to limit entries matching every word of query in their
// title, summary or tags. Title matches rank first.
func Search(entries []SearchEntry, query string, limit int) []SearchEntry {
	words := strings.Fields(strings.ToLower(query))
	if len(words) == 0 {
		return nil
	}

	type hit struct {
		entry SearchEntry
		score int
	}
	var hits []hit
	for _, e := range entries {
		title := strings.ToLower(e.Title)
		rest := strings.ToLower(e.Summary + " " + strings.Join(e.Tags, " "))
		score := 0
		for _, w := range words {
			switch {
			case strings.Contains(title, w):
				score += 2
			case strings.Contains(rest, w):
				score++
			default:
				score = -1
			}
			if score < 0 {
				break
			}
		}
		if score > 0 {
			hits = append(hits, hit{entry: e, score: score})
		}
	}

	slices.SortStableFunc(hits, func(a, b hit) int { return b.score - a.score })
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	out := make([]SearchEntry, len(hits))
	for i, h := range hits {
		out[i] = h.entry
	}
	return out
}
