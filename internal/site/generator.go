package site

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ziadkadry99/catalogue/internal/catalogue"
	"github.com/ziadkadry99/catalogue/internal/progress"
	"github.com/ziadkadry99/catalogue/internal/render"
	"github.com/ziadkadry99/catalogue/internal/route"
)

// SiteGenerator pre-renders every listing of a catalogue into static HTML.
type SiteGenerator struct {
	OutputDir string
	Reporter  progress.Reporter

	svc *catalogue.Service
	log zerolog.Logger
}

// NewSiteGenerator creates a SiteGenerator writing into outputDir.
func NewSiteGenerator(svc *catalogue.Service, outputDir string, reporter progress.Reporter, log zerolog.Logger) *SiteGenerator {
	if reporter == nil {
		reporter = progress.Nop{}
	}
	return &SiteGenerator{
		OutputDir: outputDir,
		Reporter:  reporter,
		svc:       svc,
		log:       log,
	}
}

// page is one document to write.
type page struct {
	rel  string // slash-separated path under OutputDir
	data render.PageData
}

// Generate cleans the output directory and writes every page, the
// stylesheet and the search index. Returns the number of pages generated.
func (g *SiteGenerator) Generate(ctx context.Context) (int, error) {
	if err := g.prepareOutput(); err != nil {
		return 0, err
	}

	// Write static assets.
	css := filepath.Join(g.OutputDir, filepath.FromSlash(strings.TrimPrefix(render.StylesheetPath, "/")))
	if err := writeFile(css, []byte(render.Stylesheet)); err != nil {
		return 0, err
	}

	pages, err := g.plan(ctx)
	if err != nil {
		return 0, err
	}

	g.Reporter.Start(len(pages))
	for i, p := range pages {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		if err := g.renderPage(p); err != nil {
			return i, fmt.Errorf("rendering %s: %w", p.rel, err)
		}
		g.Reporter.Update(i+1, p.rel)
	}
	g.Reporter.Finish()

	// Build and write search index.
	index := BuildSearchIndex(g.sectionEntries(ctx))
	if err := WriteSearchIndex(index, filepath.Join(g.OutputDir, "search-index.json")); err != nil {
		return len(pages), fmt.Errorf("writing search index: %w", err)
	}

	g.log.Info().Int("pages", len(pages)).Int("indexed", len(index)).Str("output", g.OutputDir).Msg("site generated")
	return len(pages), nil
}

// prepareOutput empties the output directory, refusing paths that are
// clearly not a build directory.
func (g *SiteGenerator) prepareOutput() error {
	dir := filepath.Clean(g.OutputDir)
	if g.OutputDir == "" || dir == "." || dir == string(filepath.Separator) || dir == filepath.VolumeName(dir)+string(filepath.Separator) {
		return fmt.Errorf("refusing to clean output directory %q", g.OutputDir)
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("cleaning output directory: %w", err)
	}
	return os.MkdirAll(dir, 0o755)
}

// plan lists every page of every section, tag and the tag index.
func (g *SiteGenerator) plan(ctx context.Context) ([]page, error) {
	var pages []page

	for _, m := range g.svc.Sections() {
		first, err := g.svc.List(ctx, catalogue.ListRequest{Path: m.Section, Page: 1})
		if err != nil {
			return nil, fmt.Errorf("listing %s: %w", m.Section, err)
		}
		pages = append(pages, listingPage(first, ""))
		for n := 2; n <= first.PageCount; n++ {
			res, err := g.svc.List(ctx, catalogue.ListRequest{Path: m.Section, Page: n})
			if err != nil {
				return nil, fmt.Errorf("listing %s page %d: %w", m.Section, n, err)
			}
			pages = append(pages, listingPage(res, ""))
		}
	}

	tags := g.svc.TagIndex(ctx)
	for _, tag := range tags {
		if !isSegment(tag.Slug) {
			g.log.Warn().Str("slug", tag.Slug).Msg("tag slug cannot be a path segment, skipping")
			continue
		}
		path := route.TagSection(tag.Slug)
		for n := 1; ; n++ {
			res, err := g.svc.Tag(ctx, catalogue.TagRequest{Path: path, Page: n})
			if err != nil {
				return nil, fmt.Errorf("listing tag %s: %w", tag.Slug, err)
			}
			pages = append(pages, listingPage(res, tag.Name))
			if n >= res.PageCount {
				break
			}
		}
	}

	pages = append(pages, page{
		rel: "tag/index.html",
		data: render.PageData{
			Title:   "Tags",
			Tags:    tags,
			Empty:   len(tags) == 0,
			Message: g.svc.NoContent(),
		},
	})
	return pages, nil
}

func listingPage(res catalogue.Result, title string) page {
	pager := res.Pager
	return page{
		rel: pagePath(res.Section, res.Page),
		data: render.PageData{
			Title:   title,
			Source:  res.Source,
			Tiles:   res.Tiles,
			Empty:   res.Empty,
			Message: res.Message,
			Pager:   &pager,
		},
	}
}

// pagePath maps a listing URL onto its index.html.
func pagePath(section string, n int) string {
	u := route.PageURL(section, n)
	if unescaped, err := url.PathUnescape(u); err == nil {
		u = unescaped
	}
	rel := strings.Trim(u, "/")
	if rel == "" {
		return "index.html"
	}
	return rel + "/index.html"
}

// renderPage writes a single page below OutputDir.
func (g *SiteGenerator) renderPage(p page) error {
	rel := filepath.FromSlash(p.rel)
	if !filepath.IsLocal(rel) {
		return fmt.Errorf("page path %q leaves the output directory", p.rel)
	}

	var buf bytes.Buffer
	if err := g.svc.Renderer().Page(&buf, p.data); err != nil {
		return err
	}
	return writeFile(filepath.Join(g.OutputDir, rel), buf.Bytes())
}

// sectionEntries loads the entries of every section for the search index.
func (g *SiteGenerator) sectionEntries(ctx context.Context) []SectionEntries {
	sections := g.svc.Sections()
	out := make([]SectionEntries, 0, len(sections))
	for _, m := range sections {
		out = append(out, SectionEntries{Section: m.Section, Entries: g.svc.Entries(ctx, m.Source)})
	}
	return out
}

func isSegment(s string) bool {
	return s != "" && s != "." && s != ".." && !strings.ContainsAny(s, `/\`)
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
