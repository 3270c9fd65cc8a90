package cmd

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/ziadkadry99/catalogue/internal/catalogue"
	"github.com/ziadkadry99/catalogue/internal/config"
	"github.com/ziadkadry99/catalogue/internal/loader"
	"github.com/ziadkadry99/catalogue/internal/logging"
	"github.com/ziadkadry99/catalogue/internal/metrics"
	"github.com/ziadkadry99/catalogue/internal/render"
	"github.com/ziadkadry99/catalogue/internal/route"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `catalogue init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", cfgFile, err)
	}
	return cfg, nil
}

// newLogger builds the process logger. --verbose forces debug level.
func newLogger(cfg *config.Config) zerolog.Logger {
	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}
	return logging.New(os.Stderr, level, cfg.Log.Pretty)
}

// newService wires the loader, route table and renderer described by cfg.
func newService(cfg *config.Config, log zerolog.Logger, m *metrics.Metrics) (*catalogue.Service, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	lang, err := cfg.Language()
	if err != nil {
		return nil, err
	}

	r, err := render.New(render.Options{
		AutoFormatDisplay: cfg.AutoFormatDisplay,
		Location:          loc,
		Language:          lang,
		Labels:            cfg.Labels,
		Markdown:          cfg.MarkdownDescriptions,
		SiteTitle:         cfg.SiteTitle,
		Logger:            logging.Component(log, "render"),
		Metrics:           m,
	})
	if err != nil {
		return nil, fmt.Errorf("creating renderer: %w", err)
	}

	return catalogue.New(catalogue.Options{
		Loader:     newLoader(cfg, log, m),
		Resolver:   route.NewResolver(cfg.Routes, cfg.Pages),
		Renderer:   r,
		PageSize:   cfg.PageSize,
		TagSources: cfg.TagSources,
		NoContent:  cfg.Labels.NoContent,
		Logger:     logging.Component(log, "catalogue"),
		Metrics:    m,
	}), nil
}

func newLoader(cfg *config.Config, log zerolog.Logger, m *metrics.Metrics) *loader.Loader {
	return loader.New(loader.Options{
		DataDir: cfg.DataDir,
		BaseURL: cfg.BaseURL,
		Client:  &http.Client{Timeout: 30 * time.Second},
		Logger:  logging.Component(log, "loader"),
		Metrics: m,
	})
}
