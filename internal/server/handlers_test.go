package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func get(t *testing.T, srv *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func document(t *testing.T, w *httptest.ResponseRecorder) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(w.Body)
	require.NoError(t, err)
	return doc
}

func tileIDs(doc *goquery.Document) []string {
	var ids []string
	doc.Find("article.mt-tile").Each(func(_ int, s *goquery.Selection) {
		ids = append(ids, s.AttrOr("data-id", ""))
	})
	return ids
}

func TestListPage(t *testing.T) {
	srv, _ := newTestServer(t, Config{})

	w := get(t, srv, "/article")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))

	doc := document(t, w)
	assert.Equal(t, []string{"a2"}, tileIDs(doc))
	assert.Equal(t, "/json/article.json", doc.Find("#mt-list").AttrOr("data-json", ""))
	assert.Equal(t, "/article/2", doc.Find("nav.mt-pager a.mt-next").AttrOr("href", ""))

	doc = document(t, get(t, srv, "/article/2"))
	assert.Equal(t, []string{"a1"}, tileIDs(doc))

	doc = document(t, get(t, srv, "/article/?page=2"))
	assert.Equal(t, []string{"a1"}, tileIDs(doc))
}

func TestListPartial(t *testing.T) {
	srv, _ := newTestServer(t, Config{})

	w := get(t, srv, "/histoire?partial=1")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, strings.HasPrefix(body, `<div class="mt-container">`), body)
	assert.NotContains(t, body, "<html")
	assert.Contains(t, body, "2,048 字 | 01/03/2024 修改")
}

func TestListNoRouteIs404(t *testing.T) {
	srv, _ := newTestServer(t, Config{})
	assert.Equal(t, http.StatusNotFound, get(t, srv, "/unknown").Code)
}

func TestListJSONOverride(t *testing.T) {
	srv, _ := newTestServer(t, Config{})

	w := get(t, srv, "/unknown?json=/json/histoire.json")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"h1"}, tileIDs(document(t, w)))
}

func TestListRejectsUnconfiguredSource(t *testing.T) {
	var hits atomic.Int32
	internal := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(`[{"id":"x","title":"secret"}]`))
	}))
	defer internal.Close()

	srv, _ := newTestServer(t, Config{})
	for _, target := range []string{
		"/article?json=" + url.QueryEscape(internal.URL+"/latest/meta-data"),
		"/api/entries?path=/article&json=" + url.QueryEscape(internal.URL+"/feed.json"),
		"/article?json=/../../etc/passwd",
		"/article?json=/json/other.json",
	} {
		w := get(t, srv, target)
		assert.Equal(t, http.StatusBadRequest, w.Code, target)
		assert.NotContains(t, w.Body.String(), "secret", target)
	}
	assert.Zero(t, hits.Load(), "no request may reach the remote host")
}

func TestTagPage(t *testing.T) {
	srv, _ := newTestServer(t, Config{})

	w := get(t, srv, "/tag/essai")
	require.Equal(t, http.StatusOK, w.Code)
	doc := document(t, w)
	assert.Equal(t, "Essai", doc.Find("h1.mt-heading").Text())
	assert.Equal(t, []string{"a2"}, tileIDs(doc))
	assert.Equal(t, "/tag/essai/2", doc.Find("nav.mt-pager a.mt-next").AttrOr("href", ""))

	doc = document(t, get(t, srv, "/tag/essai/2"))
	assert.Equal(t, []string{"a1"}, tileIDs(doc))
}

func TestTagPageEmpty(t *testing.T) {
	srv, _ := newTestServer(t, Config{})

	w := get(t, srv, "/tag/absent")
	require.Equal(t, http.StatusOK, w.Code)
	doc := document(t, w)
	assert.Equal(t, "未找到包含此标签的内容。", doc.Find("p.mt-empty").Text())
	assert.Zero(t, doc.Find("article.mt-tile").Length())
}

func TestTagIndexPage(t *testing.T) {
	srv, _ := newTestServer(t, Config{})

	for _, target := range []string{"/tag", "/tag/"} {
		w := get(t, srv, target)
		require.Equal(t, http.StatusOK, w.Code, target)
		doc := document(t, w)

		var slugs []string
		doc.Find(".mt-tag-index a.mt-tag").Each(func(_ int, s *goquery.Selection) {
			slugs = append(slugs, s.AttrOr("href", ""))
		})
		assert.Equal(t, []string{"/tag/essai", "/tag/fini"}, slugs, target)
	}
}

func TestAPIEntries(t *testing.T) {
	srv, _ := newTestServer(t, Config{})

	w := get(t, srv, "/api/entries?path=/histoire")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var body listResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "/histoire", body.Section)
	assert.Equal(t, "/json/histoire.json", body.Source)
	assert.Equal(t, 1, body.Total)
	require.Len(t, body.Entries, 1)
	require.NotNil(t, body.Entries[0].WordCount)
	assert.Equal(t, 2048, *body.Entries[0].WordCount)
	assert.Equal(t, "rgba(0,0,0,0.0)", body.Entries[0].Color)

	w = get(t, srv, "/api/entries?path=/article&page=2")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Page)
	assert.Equal(t, "/article", body.Prev)
	assert.Equal(t, "a1", body.Entries[0].ID)
}

func TestAPIEntriesNoRoute(t *testing.T) {
	srv, _ := newTestServer(t, Config{})

	w := get(t, srv, "/api/entries?path=/nope")
	require.Equal(t, http.StatusNotFound, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "no route matches path", body["error"])
}

func TestAPITags(t *testing.T) {
	srv, _ := newTestServer(t, Config{})

	w := get(t, srv, "/api/tags")
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Tags []struct {
			Slug  string `json:"slug"`
			Count int    `json:"count"`
		} `json:"tags"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Tags, 2)
	assert.Equal(t, "essai", body.Tags[0].Slug)
	assert.Equal(t, 2, body.Tags[0].Count)
}

func TestDataFilesAndStylesheet(t *testing.T) {
	srv, _ := newTestServer(t, Config{})

	w := get(t, srv, "/json/histoire.json")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, histoireJSON, w.Body.String())

	w = get(t, srv, "/static/catalogue.css")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/css; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), ".mt-tile")
}
