package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"path/filepath"

	"github.com/ziadkadry99/catalogue/internal/catalogue"
	"github.com/ziadkadry99/catalogue/internal/entry"
	"github.com/ziadkadry99/catalogue/internal/render"
)

// listResponse is the JSON form of one listing page.
type listResponse struct {
	Section   string        `json:"section"`
	Source    string        `json:"source,omitempty"`
	Slug      string        `json:"slug,omitempty"`
	Page      int           `json:"page"`
	PageCount int           `json:"page_count"`
	Total     int           `json:"total"`
	Prev      string        `json:"prev,omitempty"`
	Next      string        `json:"next,omitempty"`
	Entries   []entry.Entry `json:"entries"`
}

func newListResponse(res catalogue.Result) listResponse {
	return listResponse{
		Section:   res.Section,
		Source:    res.Source,
		Slug:      res.Slug,
		Page:      res.Page,
		PageCount: res.PageCount,
		Total:     res.Total,
		Prev:      res.Pager.PrevURL,
		Next:      res.Pager.NextURL,
		Entries:   res.Entries,
	}
}

func (s *Server) handleStylesheet(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write([]byte(render.Stylesheet))
}

// dataFiles serves the raw JSON sources so pages and API clients see the
// same data the listings are built from.
func (s *Server) dataFiles() http.Handler {
	dir := filepath.Join(s.cfg.DataDir, "json")
	return http.StripPrefix("/json", http.FileServer(http.Dir(dir)))
}

const errUnknownSource = "json source is not configured"

// override returns the ?json= source override. Only configured sources are
// accepted, so clients cannot point the loader at arbitrary files or URLs.
func (s *Server) override(q url.Values) (string, bool) {
	src := q.Get("json")
	if src == "" {
		return "", true
	}
	if !s.svc.KnownSource(src) {
		s.log.Warn().Str("json", src).Msg("rejected unknown json source")
		return "", false
	}
	return src, true
}

func (s *Server) handleAPIEntries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	path := q.Get("path")
	if path == "" {
		path = "/"
	}

	override, ok := s.override(q)
	if !ok {
		writeError(w, http.StatusBadRequest, errUnknownSource)
		return
	}

	res, err := s.svc.List(r.Context(), catalogue.ListRequest{
		Path:     path,
		Query:    q,
		Override: override,
	})
	if errors.Is(err, catalogue.ErrNoRoute) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		s.log.Error().Err(err).Str("path", path).Msg("listing failed")
		writeError(w, http.StatusInternalServerError, "listing failed")
		return
	}
	writeJSON(w, http.StatusOK, newListResponse(res))
}

func (s *Server) handleAPITags(w http.ResponseWriter, r *http.Request) {
	tags := s.svc.TagIndex(r.Context())
	if tags == nil {
		tags = []entry.TagSummary{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"tags": tags})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	override, ok := s.override(r.URL.Query())
	if !ok {
		http.Error(w, errUnknownSource, http.StatusBadRequest)
		return
	}

	res, err := s.svc.List(r.Context(), catalogue.ListRequest{
		Path:     r.URL.Path,
		Query:    r.URL.Query(),
		Override: override,
	})
	if errors.Is(err, catalogue.ErrNoRoute) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		s.log.Error().Err(err).Str("path", r.URL.Path).Msg("listing failed")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	s.writeListing(w, r, "", res)
}

func (s *Server) handleTag(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.Tag(r.Context(), catalogue.TagRequest{
		Path:  r.URL.Path,
		Query: r.URL.Query(),
	})
	if errors.Is(err, catalogue.ErrNoTag) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		s.log.Error().Err(err).Str("path", r.URL.Path).Msg("tag listing failed")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	s.writeListing(w, r, tagTitle(res), res)
}

func (s *Server) handleTagIndex(w http.ResponseWriter, r *http.Request) {
	tags := s.svc.TagIndex(r.Context())
	s.writePage(w, render.PageData{
		Title:   "Tags",
		Tags:    tags,
		Empty:   len(tags) == 0,
		Message: s.svc.NoContent(),
	})
}

// writeListing answers with the full page, or only the tiles when the
// request asks for a partial.
func (s *Server) writeListing(w http.ResponseWriter, r *http.Request, title string, res catalogue.Result) {
	if r.URL.Query().Get("partial") != "" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(res.Tiles))
		return
	}
	pager := res.Pager
	s.writePage(w, render.PageData{
		Title:   title,
		Source:  res.Source,
		Tiles:   res.Tiles,
		Empty:   res.Empty,
		Message: res.Message,
		Pager:   &pager,
	})
}

func (s *Server) writePage(w http.ResponseWriter, data render.PageData) {
	var buf bytes.Buffer
	if err := s.svc.Renderer().Page(&buf, data); err != nil {
		s.log.Error().Err(err).Msg("page render failed")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

// tagTitle prefers the display name the data gives the tag.
func tagTitle(res catalogue.Result) string {
	for _, e := range res.Entries {
		for _, t := range e.Tags {
			if t.Slug == res.Slug && t.Name != "" {
				return t.Name
			}
		}
	}
	return res.Slug
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
