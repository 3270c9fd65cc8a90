package site

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Serve previews a generated site on port until ctx is cancelled. The
// built search index is queryable under /api/search.
func Serve(ctx context.Context, dir string, port int, open bool, log zerolog.Logger) error {
	addr := fmt.Sprintf(":%d", port)
	url := fmt.Sprintf("http://localhost:%d", port)

	if open {
		go openBrowser(url)
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           PreviewHandler(dir, log),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("url", url).Str("dir", dir).Msg("serving site preview, press Ctrl+C to stop")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// PreviewHandler serves dir and a keyword search over its search index.
func PreviewHandler(dir string, log zerolog.Logger) http.Handler {
	mux := http.NewServeMux()

	// API endpoint for keyword search.
	mux.HandleFunc("/api/search", func(w http.ResponseWriter, r *http.Request) {
		handleSearch(w, r, filepath.Join(dir, "search-index.json"), log)
	})

	// Static files (must be registered after API routes).
	mux.Handle("/", http.FileServer(http.Dir(dir)))
	return mux
}

type searchResponse struct {
	Query   string        `json:"query"`
	Results []SearchEntry `json:"results"`
}

func handleSearch(w http.ResponseWriter, r *http.Request, indexPath string, log zerolog.Logger) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		http.Error(w, `{"error":"method not allowed"}`, http.StatusMethodNotAllowed)
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		http.Error(w, `{"error":"query is required"}`, http.StatusBadRequest)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 50 {
		limit = 10
	}

	// Read on every request.
	entries, err := LoadSearchIndex(indexPath)
	if err != nil {
		log.Error().Err(err).Msg("loading search index failed")
		http.Error(w, `{"error":"search index unavailable"}`, http.StatusInternalServerError)
		return
	}

	results := Search(entries, query, limit)
	if results == nil {
		results = []SearchEntry{}
	}
	json.NewEncoder(w).Encode(searchResponse{Query: query, Results: results})
}

// openBrowser opens the given URL in the default browser.
func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	_ = cmd.Start()
}
