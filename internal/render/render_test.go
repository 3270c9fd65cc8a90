package render

import (
	"bytes"
	"errors"
	"html/template"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/ziadkadry99/catalogue/internal/config"
	"github.com/ziadkadry99/catalogue/internal/entry"
	"github.com/ziadkadry99/catalogue/internal/metrics"
	"github.com/ziadkadry99/catalogue/internal/route"
)

func newRenderer(t *testing.T, mutate func(*Options)) *Renderer {
	t.Helper()
	opts := Options{
		AutoFormatDisplay: true,
		Location:          time.UTC,
		Language:          language.SimplifiedChinese,
		Labels:            config.DefaultConfig().Labels,
		SiteTitle:         "Archive",
		Logger:            zerolog.Nop(),
	}
	if mutate != nil {
		mutate(&opts)
	}
	r, err := New(opts)
	require.NoError(t, err)
	return r
}

func parse(t *testing.T, html template.HTML) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(html)))
	require.NoError(t, err)
	return doc
}

func intPtr(n int) *int { return &n }

func fullEntry() entry.Entry {
	return entry.Entry{
		ID:            "e1",
		URL:           "/histoire/lune",
		Title:         "La lune",
		Description:   "Une histoire.",
		CoverImage:    "/img/lune.webp",
		CreatedAt:     "2024-03-05T10:00:00Z",
		UpdatedAt:     "2024-03-06T10:00:00Z",
		WordCount:     intPtr(12345),
		Color:         "#ffeedd",
		Tags:          []entry.Tag{{Name: "Fini", URL: "/tag/fini", Slug: "fini"}},
		CoverImageAlt: "",
	}
}

func TestTilesRendersEveryPart(t *testing.T) {
	r := newRenderer(t, nil)
	out, n := r.Tiles([]entry.Entry{fullEntry()})
	require.Equal(t, 1, n)

	doc := parse(t, out)
	tile := doc.Find("div.mt-container > article.mt-tile")
	require.Equal(t, 1, tile.Length())

	assert.Equal(t, "e1", tile.AttrOr("data-id", ""))
	_, hasID := tile.Attr("id")
	assert.False(t, hasID, "entry ids repeat across listings, so they are not DOM ids")

	href, _ := tile.Attr("data-href")
	assert.Equal(t, "/histoire/lune", href)
	style, _ := tile.Attr("style")
	assert.Contains(t, style, "--mt-color: #ffeedd")

	img := tile.Find("img.mt-image")
	require.Equal(t, 1, img.Length())
	assert.Equal(t, "lazy", img.AttrOr("loading", ""))
	assert.Equal(t, "async", img.AttrOr("decoding", ""))
	assert.Equal(t, "La lune", img.AttrOr("alt", ""), "alt falls back to the title")

	link := tile.Find("h3.mt-title a.mt-link")
	assert.Equal(t, "La lune", link.Text())
	assert.Equal(t, "/histoire/lune", link.AttrOr("href", ""))

	assert.Equal(t, "Une histoire.", tile.Find("p.mt-description").First().Text())
	assert.Equal(t, "12,345 字 | 05/03/2024 发布 | 06/03/2024 修改", tile.Find("p.mt-info").Text())

	tag := tile.Find(".mt-tags a.mt-tag")
	require.Equal(t, 1, tag.Length())
	assert.Equal(t, "Fini", tag.Text())
	assert.Equal(t, "/tag/fini", tag.AttrOr("href", ""))
}

func TestTileWithoutOptionalFields(t *testing.T) {
	r := newRenderer(t, nil)
	e, err := entry.Decode([]byte(`{"title":"Bare"}`))
	require.NoError(t, err)

	out, n := r.Tiles([]entry.Entry{e})
	require.Equal(t, 1, n)

	doc := parse(t, out)
	assert.Zero(t, doc.Find("img").Length())
	assert.Empty(t, doc.Find("p.mt-info").Text())
	assert.Zero(t, doc.Find("a.mt-tag").Length())
	assert.Equal(t, "#", doc.Find("a.mt-link").AttrOr("href", ""))
}

func TestInfoLine(t *testing.T) {
	tests := []struct {
		name string
		auto bool
		e    entry.Entry
		want string
	}{
		{
			name: "preformatted wins",
			auto: true,
			e:    entry.Entry{CreatedAt: "2024-03-05T10:00:00Z", CreatedDisplay: "mars 2024"},
			want: "mars 2024 发布",
		},
		{
			name: "raw timestamp without auto formatting",
			auto: false,
			e:    entry.Entry{UpdatedAt: "2024-03-05T10:00:00Z"},
			want: "2024-03-05T10:00:00Z 修改",
		},
		{
			name: "unparseable date kept",
			auto: true,
			e:    entry.Entry{CreatedAt: "not-a-date"},
			want: "not-a-date 发布",
		},
		{
			name: "zero words still shown",
			auto: true,
			e:    entry.Entry{WordCount: intPtr(0)},
			want: "0 字",
		},
		{
			name: "nothing",
			auto: true,
			e:    entry.Entry{},
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRenderer(t, func(o *Options) { o.AutoFormatDisplay = tt.auto })
			assert.Equal(t, tt.want, r.Info(tt.e))
		})
	}
}

func TestInfoUsesLocationAndLabels(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)
	r := newRenderer(t, func(o *Options) {
		o.Location = tokyo
		o.Language = language.English
		o.Labels = config.Labels{Words: "words", Published: "published"}
	})
	e := entry.Entry{WordCount: intPtr(1500), CreatedAt: "2024-03-05T20:00:00Z"}
	assert.Equal(t, "1,500 words | 06/03/2024 published", r.Info(e))
}

func TestTilesEscapeContent(t *testing.T) {
	r := newRenderer(t, nil)
	e := fullEntry()
	e.Title = `<script>alert("x")</script>`
	e.URL = "javascript:alert(1)"
	e.Color = "red;background:url(x)"

	out, n := r.Tiles([]entry.Entry{e})
	require.Equal(t, 1, n)
	assert.NotContains(t, string(out), "<script>")
	assert.NotContains(t, string(out), "javascript:")

	doc := parse(t, out)
	style := doc.Find("article.mt-tile").AttrOr("style", "")
	assert.Contains(t, style, entry.DefaultColor)
}

func TestMarkdownDescriptions(t *testing.T) {
	r := newRenderer(t, func(o *Options) { o.Markdown = true })
	e := fullEntry()
	e.Description = "Un **récit** <script>alert(1)</script> [lien](https://example.org)"

	out, n := r.Tiles([]entry.Entry{e})
	require.Equal(t, 1, n)

	doc := parse(t, out)
	desc := doc.Find("div.mt-description")
	require.Equal(t, 1, desc.Length())
	assert.Equal(t, "récit", desc.Find("strong").Text())
	assert.Equal(t, "https://example.org", desc.Find("a").AttrOr("href", ""))
	assert.Zero(t, doc.Find("script").Length())
}

func TestTilesSkipFailingEntry(t *testing.T) {
	m := metrics.New()
	var logs bytes.Buffer
	r := newRenderer(t, func(o *Options) {
		o.Metrics = m
		o.Logger = zerolog.New(&logs)
	})
	r.tmpl = template.Must(template.New("failing").Funcs(template.FuncMap{
		"check": func(title string) (string, error) {
			if title == "boom" {
				return "", errors.New("cannot render")
			}
			if title == "panic" {
				panic("unexpected")
			}
			return title, nil
		},
	}).Parse(`{{define "tile"}}<article class="mt-tile">{{check .Title}}</article>{{end}}`))

	out, n := r.Tiles([]entry.Entry{{Title: "a"}, {Title: "boom"}, {Title: "panic"}, {Title: "b"}})
	assert.Equal(t, 2, n)

	doc := parse(t, out)
	var got []string
	doc.Find("article.mt-tile").Each(func(_ int, s *goquery.Selection) { got = append(got, s.Text()) })
	assert.Equal(t, []string{"a", "b"}, got)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.SkipCounter().WithLabelValues(metrics.StageRender)))
	assert.Contains(t, logs.String(), "tile render failed")
}

func TestEmpty(t *testing.T) {
	r := newRenderer(t, nil)
	doc := parse(t, r.Empty("<nothing>"))
	assert.Equal(t, "<nothing>", doc.Find("p.mt-empty").Text())
}

func TestPageWithPager(t *testing.T) {
	r := newRenderer(t, nil)
	tiles, _ := r.Tiles([]entry.Entry{fullEntry()})
	pager := route.NewPager("/histoire", 2, 3)

	var buf bytes.Buffer
	require.NoError(t, r.Page(&buf, PageData{Title: "Histoire", Source: "/json/histoire.json", Tiles: tiles, Pager: &pager}))

	doc, err := goquery.NewDocumentFromReader(&buf)
	require.NoError(t, err)
	assert.Equal(t, "Histoire | Archive", doc.Find("title").Text())
	assert.Equal(t, StylesheetPath, doc.Find(`link[rel="stylesheet"]`).AttrOr("href", ""))
	assert.Equal(t, "/json/histoire.json", doc.Find("#mt-list").AttrOr("data-json", ""))
	assert.Equal(t, 1, doc.Find("#mt-list article.mt-tile").Length())

	nav := doc.Find("nav.mt-pager")
	assert.Equal(t, "/histoire", nav.Find("a.mt-prev").AttrOr("href", ""))
	assert.Equal(t, "/histoire/3", nav.Find("a.mt-next").AttrOr("href", ""))
	assert.Equal(t, "2", nav.Find(".mt-current").Text())
}

func TestPageSinglePageHasNoPager(t *testing.T) {
	r := newRenderer(t, nil)
	pager := route.NewPager("/article", 1, 1)

	var buf bytes.Buffer
	require.NoError(t, r.Page(&buf, PageData{Tiles: `<div class="mt-container"></div>`, Pager: &pager}))
	doc, err := goquery.NewDocumentFromReader(&buf)
	require.NoError(t, err)
	assert.Zero(t, doc.Find("nav.mt-pager").Length())
	assert.Equal(t, "Archive", doc.Find("title").Text())
}

func TestPageEmptyMessage(t *testing.T) {
	r := newRenderer(t, nil)

	var buf bytes.Buffer
	require.NoError(t, r.Page(&buf, PageData{Empty: true, Message: "未找到包含此标签的内容。"}))
	doc, err := goquery.NewDocumentFromReader(&buf)
	require.NoError(t, err)
	assert.Equal(t, "未找到包含此标签的内容。", doc.Find("p.mt-empty").Text())
	assert.Zero(t, doc.Find(".mt-container").Length())
}

func TestPageTagIndex(t *testing.T) {
	r := newRenderer(t, func(o *Options) { o.Stylesheet = "https://cdn.example.org/catalogue.css" })

	var buf bytes.Buffer
	require.NoError(t, r.Page(&buf, PageData{Tags: []entry.TagSummary{
		{Name: "Fini", Slug: "fini", Count: 3},
		{Name: "Comédie", Slug: "comédie", Count: 1},
	}}))
	doc, err := goquery.NewDocumentFromReader(&buf)
	require.NoError(t, err)

	links := doc.Find(".mt-tag-index a.mt-tag")
	require.Equal(t, 2, links.Length())
	assert.Equal(t, "/tag/fini", links.First().AttrOr("href", ""))
	assert.Equal(t, "/tag/com%C3%A9die", links.Last().AttrOr("href", ""))
	assert.Equal(t, "3", doc.Find(".mt-count").First().Text())
	assert.Equal(t, "https://cdn.example.org/catalogue.css", doc.Find(`link[rel="stylesheet"]`).AttrOr("href", ""))
}
