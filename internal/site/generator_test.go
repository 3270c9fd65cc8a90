package site

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/text/language"

	"github.com/ziadkadry99/catalogue/internal/catalogue"
	"github.com/ziadkadry99/catalogue/internal/config"
	"github.com/ziadkadry99/catalogue/internal/entry"
	"github.com/ziadkadry99/catalogue/internal/loader"
	"github.com/ziadkadry99/catalogue/internal/render"
	"github.com/ziadkadry99/catalogue/internal/route"
)

const testArticles = `[
	{"id":"a1","title":"Premier","url":"/article/premier","description":"Le tout premier essai.","created_at":"2024-01-01T00:00:00Z","tags":[{"name":"Essai","slug":"essai","url":"/tag/essai"}]},
	{"id":"a2","title":"Second","url":"/article/second","created_at":"2024-02-01T00:00:00Z","tags":[{"name":"Essai","slug":"essai","url":"/tag/essai"},{"name":"Comédie","slug":"comédie","url":"/tag/com%C3%A9die"}]},
	{"id":"a3","title":"Troisième","url":"/article/troisieme","created_at":"2024-03-01T00:00:00Z","tags":[{"name":"Piège","slug":"../etc","url":"#"}]}
]`

const testStories = `[
	{"id":"h1","title":"La lune","url":"/histoire/lune","updated_at":"2024-04-01T00:00:00Z","tags":[{"name":"Fini","slug":"fini","url":"/tag/fini"}]}
]`

// newTestService builds a catalogue over a temporary data directory with
// two entries per page.
func newTestService(t *testing.T) *catalogue.Service {
	t.Helper()

	dataDir := t.TempDir()
	writeTestFile(t, filepath.Join(dataDir, "json", "article.json"), testArticles)
	writeTestFile(t, filepath.Join(dataDir, "json", "histoire.json"), testStories)

	defaults := config.DefaultConfig()
	r, err := render.New(render.Options{
		AutoFormatDisplay: true,
		Location:          time.UTC,
		Language:          language.SimplifiedChinese,
		Labels:            defaults.Labels,
		SiteTitle:         "test-site",
		Logger:            zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}
	return catalogue.New(catalogue.Options{
		Loader:     loader.New(loader.Options{DataDir: dataDir, Logger: zerolog.Nop()}),
		Resolver:   route.NewResolver(defaults.Routes, nil),
		Renderer:   r,
		PageSize:   2,
		TagSources: defaults.TagSources,
		NoContent:  defaults.Labels.NoContent,
		Logger:     zerolog.Nop(),
	})
}

func TestPagePath(t *testing.T) {
	tests := []struct {
		section string
		page    int
		want    string
	}{
		{"/article", 1, "article/index.html"},
		{"/article", 3, "article/3/index.html"},
		{"/", 1, "index.html"},
		{"/", 2, "2/index.html"},
		{route.TagSection("comédie"), 2, "tag/comédie/2/index.html"},
	}
	for _, tt := range tests {
		if got := pagePath(tt.section, tt.page); got != tt.want {
			t.Errorf("pagePath(%q, %d) = %q, want %q", tt.section, tt.page, got, tt.want)
		}
	}
}

func TestFullSiteGeneration(t *testing.T) {
	outputDir := filepath.Join(t.TempDir(), "public")
	writeTestFile(t, filepath.Join(outputDir, "stale.html"), "old build")

	gen := NewSiteGenerator(newTestService(t), outputDir, nil, zerolog.Nop())
	pageCount, err := gen.Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}

	// article: 2 pages, histoire: 1, tags essai/comédie/fini: 1 each, tag index: 1.
	if pageCount != 7 {
		t.Errorf("pageCount = %d, want 7", pageCount)
	}

	// Verify output files exist.
	expectedFiles := []string{
		"static/catalogue.css",
		"search-index.json",
		"article/index.html",
		"article/2/index.html",
		"histoire/index.html",
		"tag/index.html",
		"tag/essai/index.html",
		"tag/comédie/index.html",
		"tag/fini/index.html",
	}
	for _, f := range expectedFiles {
		if _, err := os.Stat(filepath.Join(outputDir, filepath.FromSlash(f))); err != nil {
			t.Errorf("expected file %s not found: %v", f, err)
		}
	}

	if _, err := os.Stat(filepath.Join(outputDir, "stale.html")); !os.IsNotExist(err) {
		t.Error("stale files from a previous build should be removed")
	}
	if _, err := os.Stat(filepath.Join(outputDir, "etc")); !os.IsNotExist(err) {
		t.Error("a slug with path separators must not produce pages")
	}

	// Newest first, two per page.
	first := readTestFile(t, filepath.Join(outputDir, "article", "index.html"))
	if !strings.Contains(first, "Troisième") || !strings.Contains(first, "Second") || strings.Contains(first, "Premier") {
		t.Errorf("article/index.html should hold the two newest entries:\n%s", first)
	}
	if !strings.Contains(first, `href="/article/2"`) {
		t.Error("article/index.html should link to page 2")
	}
	second := readTestFile(t, filepath.Join(outputDir, "article", "2", "index.html"))
	if !strings.Contains(second, "Premier") {
		t.Error("article/2/index.html should hold the oldest entry")
	}

	tagPage := readTestFile(t, filepath.Join(outputDir, "tag", "essai", "index.html"))
	if !strings.Contains(tagPage, "<h1 class=\"mt-heading\">Essai</h1>") {
		t.Error("tag page should be titled with the tag name")
	}

	index := readTestFile(t, filepath.Join(outputDir, "tag", "index.html"))
	if !strings.Contains(index, `href="/tag/essai"`) || !strings.Contains(index, `href="/tag/fini"`) {
		t.Error("tag index should link every tag")
	}
}

func TestGenerateRefusesUnsafeOutput(t *testing.T) {
	for _, dir := range []string{"", ".", "/"} {
		gen := NewSiteGenerator(nil, dir, nil, zerolog.Nop())
		_, err := gen.Generate(context.Background())
		if err == nil || !strings.Contains(err.Error(), "refusing") {
			t.Errorf("Generate(%q) error = %v, want refusal", dir, err)
		}
	}
}

func TestSearchIndex(t *testing.T) {
	outputDir := filepath.Join(t.TempDir(), "public")
	gen := NewSiteGenerator(newTestService(t), outputDir, nil, zerolog.Nop())
	if _, err := gen.Generate(context.Background()); err != nil {
		t.Fatalf("Generate error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(outputDir, "search-index.json"))
	if err != nil {
		t.Fatalf("reading search index: %v", err)
	}
	var entries []SearchEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		t.Fatalf("parsing search index: %v", err)
	}
	if len(entries) != 4 {
		t.Fatalf("search index has %d entries, want 4", len(entries))
	}

	found := false
	for _, e := range entries {
		if e.Path == "/article/premier" {
			found = true
			if e.Section != "/article" || e.Summary != "Le tout premier essai." {
				t.Errorf("unexpected entry: %+v", e)
			}
		}
	}
	if !found {
		t.Error("search index should contain /article/premier")
	}
}

func TestBuildSearchIndexDedupes(t *testing.T) {
	e := entry.Entry{ID: "x", URL: "/a/x", Title: "X", Description: strings.Repeat("é", 300)}
	index := BuildSearchIndex([]SectionEntries{
		{Section: "/a", Entries: []entry.Entry{e}},
		{Section: "/b", Entries: []entry.Entry{e}},
	})
	if len(index) != 1 {
		t.Fatalf("len = %d, want 1", len(index))
	}
	if index[0].Section != "/a" {
		t.Errorf("section = %q, want /a", index[0].Section)
	}
	if got := len([]rune(index[0].Summary)); got != summaryLimit+3 {
		t.Errorf("summary length = %d runes, want %d", got, summaryLimit+3)
	}
}

func TestSearch(t *testing.T) {
	entries := []SearchEntry{
		{Path: "/1", Title: "La lune", Summary: "Une nuit", Tags: []string{"Fini"}},
		{Path: "/2", Title: "Le soleil", Summary: "Il y a la lune aussi"},
		{Path: "/3", Title: "Rien", Summary: "Vide"},
	}

	got := Search(entries, "lune", 10)
	if len(got) != 2 || got[0].Path != "/1" || got[1].Path != "/2" {
		t.Errorf("Search(lune) = %+v, want /1 then /2", got)
	}
	if got := Search(entries, "lune fini", 10); len(got) != 1 || got[0].Path != "/1" {
		t.Errorf("Search(lune fini) = %+v, want /1", got)
	}
	if got := Search(entries, "lune", 1); len(got) != 1 {
		t.Errorf("limit not applied: %+v", got)
	}
	if got := Search(entries, "  ", 10); got != nil {
		t.Errorf("blank query should match nothing, got %+v", got)
	}
}

func TestPreviewHandler(t *testing.T) {
	outputDir := filepath.Join(t.TempDir(), "public")
	gen := NewSiteGenerator(newTestService(t), outputDir, nil, zerolog.Nop())
	if _, err := gen.Generate(context.Background()); err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	h := PreviewHandler(outputDir, zerolog.Nop())

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/article/", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "mt-tile") {
		t.Errorf("GET /article/ = %d, want the listing page", w.Code)
	}

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/search?q=lune", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("GET /api/search = %d", w.Code)
	}
	var resp searchResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Results) != 1 || resp.Results[0].Path != "/histoire/lune" {
		t.Errorf("results = %+v, want /histoire/lune", resp.Results)
	}

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/search", nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty query = %d, want 400", w.Code)
	}
}

// writeTestFile is a helper that creates a file with intermediate directories.
func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func readTestFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return string(data)
}
