// Package loader fetches JSON entry arrays from the data directory or over
// HTTP. Failures never propagate: a source that cannot be read, parsed or is
// not an array contributes nothing and is logged.
package loader

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ziadkadry99/catalogue/internal/metrics"
)

// maxBody caps a single source document.
const maxBody = 32 << 20

// Options configures a Loader.
type Options struct {
	// DataDir is the local root that source paths such as /json/article.json
	// are resolved against.
	DataDir string
	// BaseURL, when set, makes relative source paths fetch over HTTP instead.
	BaseURL string
	Client  *http.Client
	Logger  zerolog.Logger
	Metrics *metrics.Metrics
}

// Loader reads entry arrays. It keeps no cache; every call reads fresh data.
type Loader struct {
	dataDir string
	baseURL string
	client  *http.Client
	log     zerolog.Logger
	metrics *metrics.Metrics
}

// New creates a Loader.
func New(opts Options) *Loader {
	client := opts.Client
	if client == nil {
		client = http.DefaultClient
	}
	return &Loader{
		dataDir: opts.DataDir,
		baseURL: strings.TrimSuffix(opts.BaseURL, "/"),
		client:  client,
		log:     opts.Logger,
		metrics: opts.Metrics,
	}
}

// DataDir returns the local data root.
func (l *Loader) DataDir() string { return l.dataDir }

// Load fetches every path concurrently and concatenates the arrays in the
// order the paths were given.
func (l *Loader) Load(ctx context.Context, paths ...string) []json.RawMessage {
	results := make([][]json.RawMessage, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	for i, p := range paths {
		g.Go(func() error {
			results[i] = l.FetchArray(gctx, p)
			return nil
		})
	}
	_ = g.Wait()

	var all []json.RawMessage
	for _, r := range results {
		all = append(all, r...)
	}
	return all
}

// FetchArray reads one source and returns its top-level array elements.
func (l *Loader) FetchArray(ctx context.Context, path string) []json.RawMessage {
	log := l.log.With().Str("source", path).Logger()

	data, err := l.Read(ctx, path)
	if err != nil {
		l.metrics.Fetch(metrics.FetchError)
		log.Error().Err(err).Msg("fetching source failed")
		return nil
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		if !json.Valid(trimmed) {
			l.metrics.Fetch(metrics.FetchError)
			log.Error().Msg("source is not valid JSON")
			return nil
		}
		l.metrics.Fetch(metrics.FetchNotArray)
		log.Warn().Msg("source did not return an array")
		return nil
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(trimmed, &elems); err != nil {
		l.metrics.Fetch(metrics.FetchError)
		log.Error().Err(err).Msg("parsing source failed")
		return nil
	}

	l.metrics.Fetch(metrics.FetchOK)
	log.Debug().Int("entries", len(elems)).Msg("source loaded")
	return elems
}

// Read returns the raw bytes of one source without decoding them.
func (l *Loader) Read(ctx context.Context, path string) ([]byte, error) {
	switch {
	case isURL(path):
		return l.get(ctx, path)
	case l.baseURL != "":
		return l.get(ctx, l.baseURL+"/"+strings.TrimPrefix(path, "/"))
	default:
		local, err := l.localPath(path)
		if err != nil {
			return nil, err
		}
		return os.ReadFile(local)
	}
}

func (l *Loader) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch %s failed: %d", url, resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxBody))
}

// localPath maps a site path onto the data directory, refusing anything
// that would leave it.
func (l *Loader) localPath(path string) (string, error) {
	rel := filepath.FromSlash(strings.TrimPrefix(path, "/"))
	if rel == "" || !filepath.IsLocal(rel) {
		return "", fmt.Errorf("source %q is outside the data directory", path)
	}
	return filepath.Join(l.dataDir, rel), nil
}

// Expand resolves glob patterns against the data directory. Plain paths and
// URLs pass through. Duplicates are dropped, first occurrence wins.
func (l *Loader) Expand(patterns []string) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}

	for _, pattern := range patterns {
		if isURL(pattern) || !strings.ContainsAny(pattern, "*?[{") {
			add(pattern)
			continue
		}
		if l.baseURL != "" || l.dataDir == "" {
			l.log.Warn().Str("pattern", pattern).Msg("glob patterns need a local data directory, skipping")
			continue
		}
		matches, err := doublestar.Glob(os.DirFS(l.dataDir), strings.TrimPrefix(pattern, "/"))
		if err != nil {
			l.log.Warn().Err(err).Str("pattern", pattern).Msg("invalid source pattern")
			continue
		}
		slices.Sort(matches)
		for _, m := range matches {
			add("/" + m)
		}
	}
	return out
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
