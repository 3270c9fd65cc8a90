// Package entry holds the content item model and the pure list operations
// applied to it: decoding at the ingestion boundary, sorting, pagination and
// tag filtering.
package entry

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Defaults applied by Decode.
const (
	DefaultURL   = "#"
	DefaultColor = "rgba(0,0,0,0.0)"
)

// ErrNotObject is returned by Decode for array elements that are not JSON objects.
var ErrNotObject = errors.New("entry is not a JSON object")

// Tag is one label attached to an entry.
type Tag struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Slug string `json:"slug,omitempty"`
}

// Entry is one content item (article, story) of a JSON data file.
// Values returned by Decode have every default applied.
type Entry struct {
	ID             string `json:"id"`
	URL            string `json:"url"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	CoverImage     string `json:"cover_image,omitempty"`
	CoverImageAlt  string `json:"cover_image_alt,omitempty"`
	CreatedAt      string `json:"created_at,omitempty"`
	UpdatedAt      string `json:"updated_at,omitempty"`
	CreatedDisplay string `json:"created_display,omitempty"`
	UpdatedDisplay string `json:"updated_display,omitempty"`
	WordCount      *int   `json:"word_count,omitempty"`
	Color          string `json:"color"`
	Tags           []Tag  `json:"tags"`
}

// rawEntry mirrors the file format. word_count is kept raw because only
// numbers count; any other type is ignored rather than rejected.
type rawEntry struct {
	ID             string          `json:"id"`
	URL            string          `json:"url"`
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	CoverImage     string          `json:"cover_image"`
	CoverImageAlt  string          `json:"cover_image_alt"`
	CreatedAt      string          `json:"created_at"`
	UpdatedAt      string          `json:"updated_at"`
	CreatedDisplay string          `json:"created_display"`
	UpdatedDisplay string          `json:"updated_display"`
	WordCount      json.RawMessage `json:"word_count"`
	Color          string          `json:"color"`
	Tags           []*Tag          `json:"tags"`
}

// Decode validates one array element and returns it with defaults applied.
func Decode(raw json.RawMessage) (Entry, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Entry{}, ErrNotObject
	}

	var r rawEntry
	if err := json.Unmarshal(trimmed, &r); err != nil {
		return Entry{}, fmt.Errorf("decoding entry: %w", err)
	}

	e := Entry{
		ID:             r.ID,
		URL:            r.URL,
		Title:          r.Title,
		Description:    r.Description,
		CoverImage:     r.CoverImage,
		CoverImageAlt:  r.CoverImageAlt,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
		CreatedDisplay: r.CreatedDisplay,
		UpdatedDisplay: r.UpdatedDisplay,
		WordCount:      wordCount(r.WordCount),
		Color:          r.Color,
		Tags:           make([]Tag, 0, len(r.Tags)),
	}

	if e.URL == "" {
		e.URL = DefaultURL
	}
	if !IsSafeColor(e.Color) {
		e.Color = DefaultColor
	}
	if e.ID == "" {
		e.ID = uuid.NewSHA1(uuid.NameSpaceURL, []byte(e.URL+"\n"+e.Title)).String()
	}
	for _, t := range r.Tags {
		if t == nil {
			continue
		}
		tag := *t
		if tag.URL == "" {
			tag.URL = DefaultURL
		}
		e.Tags = append(e.Tags, tag)
	}

	return e, nil
}

// DecodeAll decodes a batch. Elements that fail are logged and skipped; the
// number skipped is returned alongside the survivors.
func DecodeAll(raws []json.RawMessage, log zerolog.Logger) ([]Entry, int) {
	entries := make([]Entry, 0, len(raws))
	skipped := 0
	for i, raw := range raws {
		e, err := Decode(raw)
		if err != nil {
			skipped++
			log.Error().Err(err).Int("index", i).Str("raw", preview(raw)).Msg("skipping entry")
			continue
		}
		entries = append(entries, e)
	}
	return entries, skipped
}

func wordCount(raw json.RawMessage) *int {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil
	}
	if c := raw[0]; c != '-' && (c < '0' || c > '9') {
		return nil
	}
	f, err := strconv.ParseFloat(string(raw), 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return nil
	}
	n := int(math.Trunc(f))
	return &n
}

func preview(raw json.RawMessage) string {
	const limit = 80
	if len(raw) > limit {
		return string(raw[:limit]) + "..."
	}
	return string(raw)
}

var (
	hexColor   = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3,4}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)
	namedColor = regexp.MustCompile(`^[a-zA-Z]{3,20}$`)
	funcColor  = regexp.MustCompile(`^(?:rgb|rgba|hsl|hsla)\(\s*-?[0-9.]+(?:deg|%)?(?:\s*[,/ ]\s*-?[0-9.]+%?){2,3}\s*\)$`)
)

// IsSafeColor reports whether s is a CSS color the renderer can inline into a
// style attribute: hex, a named color, or an rgb/hsl function of numbers.
func IsSafeColor(s string) bool {
	return hexColor.MatchString(s) || namedColor.MatchString(s) || funcColor.MatchString(s)
}
