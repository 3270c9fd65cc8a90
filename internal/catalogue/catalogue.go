// Package catalogue composes the listing pipeline: resolve a path to its
// sources, load them, decode, sort, paginate and render tiles.
package catalogue

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ziadkadry99/catalogue/internal/entry"
	"github.com/ziadkadry99/catalogue/internal/loader"
	"github.com/ziadkadry99/catalogue/internal/metrics"
	"github.com/ziadkadry99/catalogue/internal/render"
	"github.com/ziadkadry99/catalogue/internal/route"
)

// Render kinds recorded in metrics.
const (
	KindList     = "list"
	KindTag      = "tag"
	KindTagIndex = "tag_index"
)

var (
	// ErrNoRoute means no configured route or override matched the path.
	ErrNoRoute = errors.New("no route matches path")
	// ErrNoTag means the path carries no /tag/<slug> segment.
	ErrNoTag = errors.New("path has no tag slug")
)

// Options configures a Service.
type Options struct {
	Loader     *loader.Loader
	Resolver   *route.Resolver
	Renderer   *render.Renderer
	PageSize   int
	TagSources []string
	// NoContent is shown when a tag has no entries.
	NoContent string
	Logger    zerolog.Logger
	Metrics   *metrics.Metrics
}

// Service answers listing requests. It holds no per-request state.
type Service struct {
	loader     *loader.Loader
	resolver   *route.Resolver
	renderer   *render.Renderer
	pageSize   int
	tagSources []string
	noContent  string
	log        zerolog.Logger
	metrics    *metrics.Metrics
}

// New creates a Service.
func New(opts Options) *Service {
	size := opts.PageSize
	if size < 1 {
		size = 6
	}
	return &Service{
		loader:     opts.Loader,
		resolver:   opts.Resolver,
		renderer:   opts.Renderer,
		pageSize:   size,
		tagSources: opts.TagSources,
		noContent:  opts.NoContent,
		log:        opts.Logger,
		metrics:    opts.Metrics,
	}
}

// ListRequest asks for the listing under a path.
type ListRequest struct {
	Path  string
	Query url.Values
	// Override names a source directly, bypassing the route table.
	Override string
	// Page forces a page number; zero reads it from Path and Query.
	Page int
}

// TagRequest asks for the entries carrying the tag in Path.
type TagRequest struct {
	Path  string
	Query url.Values
	Page  int
}

// Result is one rendered page of a listing.
type Result struct {
	// Entries are the entries of the requested page, newest first.
	Entries   []entry.Entry
	Total     int
	Page      int
	PageCount int
	Section   string
	Source    string
	Slug      string
	Tiles     template.HTML
	Rendered  int
	Pager     route.Pager
	// Empty is set for tag listings with no matching entry; Message then
	// holds the text to show in place of tiles.
	Empty   bool
	Message string
}

// Resolve exposes the route table lookup.
func (s *Service) Resolve(path, override string) (route.Match, bool) {
	return s.resolver.Resolve(path, override)
}

// List renders the page of the listing mapped to req.Path.
func (s *Service) List(ctx context.Context, req ListRequest) (Result, error) {
	started := time.Now()

	m, ok := s.resolver.Resolve(req.Path, req.Override)
	if !ok {
		s.log.Debug().Str("path", req.Path).Msg("no route for path")
		return Result{}, ErrNoRoute
	}
	section := m.Section
	if section == "" {
		section = stripPage(route.Normalize(req.Path))
	}
	page := req.Page
	if page < 1 {
		page = pageAfter(req.Path, section, req.Query)
	}

	entries := s.decode(s.loader.Load(ctx, m.Source))
	res := s.page(entries, section, page)
	res.Source = m.Source

	s.metrics.Rendered(KindList, started)
	s.log.Debug().
		Str("path", req.Path).
		Str("source", m.Source).
		Int("page", res.Page).
		Int("total", res.Total).
		Int("rendered", res.Rendered).
		Msg("listing rendered")
	return res, nil
}

// Tag renders the page of entries tagged with the slug found in req.Path.
func (s *Service) Tag(ctx context.Context, req TagRequest) (Result, error) {
	started := time.Now()

	slug, ok := route.TagSlug(req.Path)
	if !ok {
		s.log.Debug().Str("path", req.Path).Msg("no tag slug in path")
		return Result{}, ErrNoTag
	}

	all := s.decode(s.loader.Load(ctx, s.loader.Expand(s.tagSources)...))
	filtered := entry.FilterByTag(all, slug)
	s.log.Debug().Str("slug", slug).Int("matches", len(filtered)).Msg("tag filtered")

	section := route.TagSection(slug)
	page := req.Page
	if page < 1 {
		page = tagPage(req.Path, req.Query)
	}
	if len(filtered) == 0 {
		s.metrics.Rendered(KindTag, started)
		return Result{
			Entries:   []entry.Entry{},
			Page:      page,
			PageCount: 1,
			Section:   section,
			Slug:      slug,
			Pager:     route.NewPager(section, page, 1),
			Empty:     true,
			Message:   s.noContent,
			Tiles:     s.renderer.Empty(s.noContent),
		}, nil
	}

	res := s.page(filtered, section, page)
	res.Slug = slug
	s.metrics.Rendered(KindTag, started)
	return res, nil
}

// TagIndex lists every tag found in the tag sources with its entry count.
func (s *Service) TagIndex(ctx context.Context) []entry.TagSummary {
	started := time.Now()
	all := s.decode(s.loader.Load(ctx, s.loader.Expand(s.tagSources)...))
	tags := entry.Tags(all)
	s.metrics.Rendered(KindTagIndex, started)
	return tags
}

// Entries loads and decodes sources, newest first.
func (s *Service) Entries(ctx context.Context, sources ...string) []entry.Entry {
	return entry.Sort(s.decode(s.loader.Load(ctx, sources...)))
}

// PageSize is the number of entries per page.
func (s *Service) PageSize() int { return s.pageSize }

// TagSources returns the expanded tag source list.
func (s *Service) TagSources() []string { return s.loader.Expand(s.tagSources) }

// Sections returns the configured route prefixes and page overrides.
func (s *Service) Sections() []route.Match {
	return append(s.resolver.Sections(), s.resolver.Pages()...)
}

// KnownSource reports whether src is a source named by the route table, the
// page overrides or the tag sources. Overrides arriving from clients must
// pass this check before they reach the loader.
func (s *Service) KnownSource(src string) bool {
	if src == "" {
		return false
	}
	for _, m := range s.Sections() {
		if m.Source == src {
			return true
		}
	}
	return slices.Contains(s.TagSources(), src)
}

// NoContent is the message shown for empty tag listings.
func (s *Service) NoContent() string { return s.noContent }

// Renderer returns the renderer used for tiles.
func (s *Service) Renderer() *render.Renderer { return s.renderer }

func (s *Service) decode(raws []json.RawMessage) []entry.Entry {
	entries, skipped := entry.DecodeAll(raws, s.log)
	s.metrics.Skipped(metrics.StageDecode, skipped)
	return entries
}

// page sorts entries and renders the requested page of them.
func (s *Service) page(entries []entry.Entry, section string, page int) Result {
	sorted := entry.Sort(entries)
	slice := entry.Paginate(sorted, page, s.pageSize)
	count := entry.PageCount(len(sorted), s.pageSize)
	tiles, rendered := s.renderer.Tiles(slice)

	return Result{
		Entries:   slice,
		Total:     len(sorted),
		Page:      page,
		PageCount: count,
		Section:   section,
		Tiles:     tiles,
		Rendered:  rendered,
		Pager:     route.NewPager(section, page, count),
	}
}

// pageAfter reads the page from the part of path below section, so a
// numeric section name is never taken for a page number.
func pageAfter(path, section string, query url.Values) int {
	p := route.Normalize(path)
	if section != "/" {
		if tail, ok := strings.CutPrefix(p, section); ok {
			p = "/" + strings.TrimPrefix(tail, "/")
		}
	}
	return route.PageFromRequest(p, query)
}

// stripPage drops a trailing page number segment.
func stripPage(p string) string {
	i := strings.LastIndex(p, "/")
	if n, err := strconv.Atoi(p[i+1:]); err == nil && n >= 1 {
		return route.Normalize(p[:i])
	}
	return p
}

// tagPage reads the page of a tag listing from the segments after the slug,
// so a numeric slug is never taken for a page number.
func tagPage(path string, query url.Values) int {
	rest, _ := strings.CutPrefix(path, route.TagPrefix+"/")
	_, tail, _ := strings.Cut(rest, "/")
	return route.PageFromRequest("/"+tail, query)
}
