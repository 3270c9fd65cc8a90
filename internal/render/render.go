// Package render turns normalized entries into HTML tiles and listing pages.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/ziadkadry99/catalogue/internal/config"
	"github.com/ziadkadry99/catalogue/internal/entry"
	"github.com/ziadkadry99/catalogue/internal/metrics"
	"github.com/ziadkadry99/catalogue/internal/route"
)

// InfoSeparator joins the parts of a tile's info line.
const InfoSeparator = " | "

// StylesheetPath is where pages link the stylesheet from.
const StylesheetPath = "/static/catalogue.css"

// Options configures a Renderer.
type Options struct {
	AutoFormatDisplay bool
	Location          *time.Location
	Language          language.Tag
	Labels            config.Labels
	// Markdown renders descriptions as sanitized markdown instead of text.
	Markdown bool
	// Stylesheet overrides StylesheetPath.
	Stylesheet string
	SiteTitle  string
	Logger     zerolog.Logger
	Metrics    *metrics.Metrics
}

// Renderer produces tile and page HTML. It is safe for concurrent use.
type Renderer struct {
	opts   Options
	tmpl   *template.Template
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

// New parses the templates.
func New(opts Options) (*Renderer, error) {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Language == language.Und {
		opts.Language = language.SimplifiedChinese
	}
	if opts.Stylesheet == "" {
		opts.Stylesheet = StylesheetPath
	}

	tmpl := template.New("catalogue").Funcs(template.FuncMap{
		"tagURL": route.TagSection,
	})
	for _, src := range []string{tileTemplate, emptyTemplate, pageTemplate} {
		if _, err := tmpl.Parse(src); err != nil {
			return nil, fmt.Errorf("parsing templates: %w", err)
		}
	}

	r := &Renderer{opts: opts, tmpl: tmpl}
	if opts.Markdown {
		r.md = goldmark.New(goldmark.WithExtensions(extension.GFM))
		r.policy = bluemonday.UGCPolicy()
	}
	return r, nil
}

// tileData is the template view of one entry.
type tileData struct {
	ID              string
	URL             string
	Title           string
	Description     string
	HTMLDescription template.HTML
	Image           string
	ImageAlt        string
	Color           template.CSS
	Info            string
	Tags            []entry.Tag
}

// Tiles renders entries into a tile container. Each entry renders on its
// own; one that fails is logged and left out. The number of tiles written
// is returned.
func (r *Renderer) Tiles(entries []entry.Entry) (template.HTML, int) {
	var b strings.Builder
	b.WriteString(`<div class="mt-container">`)

	rendered, failed := 0, 0
	for _, e := range entries {
		html, err := r.Tile(e)
		if err != nil {
			failed++
			r.opts.Logger.Error().Err(err).Str("id", e.ID).Str("title", e.Title).Msg("tile render failed")
			continue
		}
		b.WriteString("\n")
		b.WriteString(string(html))
		rendered++
	}
	b.WriteString("\n</div>")

	r.opts.Metrics.Skipped(metrics.StageRender, failed)
	return template.HTML(b.String()), rendered
}

// Tile renders a single entry. Panics while rendering are turned into errors.
func (r *Renderer) Tile(e entry.Entry) (html template.HTML, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("rendering tile: panic: %v", p)
		}
	}()

	data, err := r.tileData(e)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, "tile", data); err != nil {
		return "", fmt.Errorf("rendering tile: %w", err)
	}
	return template.HTML(buf.String()), nil
}

func (r *Renderer) tileData(e entry.Entry) (tileData, error) {
	color := e.Color
	if !entry.IsSafeColor(color) {
		color = entry.DefaultColor
	}
	d := tileData{
		ID:          e.ID,
		URL:         e.URL,
		Title:       e.Title,
		Description: e.Description,
		Image:       e.CoverImage,
		ImageAlt:    e.CoverImageAlt,
		Color:       template.CSS(color),
		Info:        r.Info(e),
		Tags:        e.Tags,
	}
	if d.ImageAlt == "" {
		d.ImageAlt = e.Title
	}
	if r.md != nil && e.Description != "" {
		html, err := r.markdown(e.Description)
		if err != nil {
			return tileData{}, err
		}
		d.HTMLDescription = html
	}
	return d, nil
}

func (r *Renderer) markdown(src string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("converting description: %w", err)
	}
	return template.HTML(r.policy.SanitizeBytes(buf.Bytes())), nil
}

// Info builds the "<words> | <created> <published> | <updated> <modified>"
// line, leaving out empty parts.
func (r *Renderer) Info(e entry.Entry) string {
	labels := r.opts.Labels
	var parts []string
	if e.WordCount != nil {
		parts = append(parts, joinLabel(message.NewPrinter(r.opts.Language).Sprintf("%d", *e.WordCount), labels.Words))
	}
	if created := r.display(e.CreatedDisplay, e.CreatedAt); created != "" {
		parts = append(parts, joinLabel(created, labels.Published))
	}
	if updated := r.display(e.UpdatedDisplay, e.UpdatedAt); updated != "" {
		parts = append(parts, joinLabel(updated, labels.Modified))
	}
	return strings.Join(parts, InfoSeparator)
}

// display prefers the pre-formatted string, then the auto-formatted
// timestamp, then the raw timestamp.
func (r *Renderer) display(preformatted, iso string) string {
	if preformatted != "" {
		return preformatted
	}
	if r.opts.AutoFormatDisplay {
		return entry.FormatDisplay(iso, r.opts.Location)
	}
	return iso
}

func joinLabel(value, label string) string {
	if label == "" {
		return value
	}
	return value + " " + label
}

// Empty renders the "no content" message.
func (r *Renderer) Empty(message string) template.HTML {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, "empty", message); err != nil {
		r.opts.Logger.Error().Err(err).Msg("empty message render failed")
		return ""
	}
	return template.HTML(buf.String())
}

// PageData is the view of a full listing document.
type PageData struct {
	Title string
	// Source is the data file the listing came from, exposed as data-json.
	Source  string
	Tiles   template.HTML
	Empty   bool
	Message string
	Pager   *route.Pager
	// Tags switches the page to a tag index.
	Tags []entry.TagSummary
}

type pageView struct {
	PageData
	SiteTitle  string
	Stylesheet string
	Lang       string
}

// Page writes a complete HTML document.
func (r *Renderer) Page(w io.Writer, data PageData) error {
	view := pageView{
		PageData:   data,
		SiteTitle:  r.opts.SiteTitle,
		Stylesheet: r.opts.Stylesheet,
		Lang:       r.opts.Language.String(),
	}
	if err := r.tmpl.ExecuteTemplate(w, "page", view); err != nil {
		return fmt.Errorf("rendering page: %w", err)
	}
	return nil
}
