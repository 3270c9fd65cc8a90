package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/ziadkadry99/catalogue/internal/catalogue"
	"github.com/ziadkadry99/catalogue/internal/metrics"
)

// Config holds server configuration.
type Config struct {
	Port     int
	DataDir  string // served under /json when set
	AllowAll bool   // allow all CORS origins (dev mode)
	Metrics  bool   // expose /metrics
}

// Server serves rendered listings and their data over HTTP.
type Server struct {
	cfg        Config
	svc        *catalogue.Service
	log        zerolog.Logger
	metrics    *metrics.Metrics
	router     chi.Router
	httpServer *http.Server
}

// New creates a server around a catalogue service.
func New(cfg Config, svc *catalogue.Service, log zerolog.Logger, m *metrics.Metrics) *Server {
	s := &Server{
		cfg:     cfg,
		svc:     svc,
		log:     log,
		metrics: m,
	}

	s.router = s.buildRouter()
	return s
}

// buildRouter creates and configures the chi router with all routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS
	corsOpts := cors.Options{
		AllowedOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods: []string{"GET", "HEAD", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	// Health check
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	if s.cfg.Metrics {
		r.Handle("/metrics", s.metrics.Handler())
	}

	r.Get("/static/catalogue.css", s.handleStylesheet)
	if s.cfg.DataDir != "" {
		r.Handle("/json/*", s.dataFiles())
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/entries", s.handleAPIEntries)
		r.Get("/tags", s.handleAPITags)
	})

	r.Get("/tag", s.handleTagIndex)
	r.Get("/tag/", s.handleTagIndex)
	r.Get("/tag/{slug}", s.handleTag)
	r.Get("/tag/{slug}/*", s.handleTag)

	r.Get("/*", s.handleList)

	return r
}

// Router returns the chi router.
func (s *Server) Router() chi.Router { return s.router }

// ServerConfig returns the server configuration.
func (s *Server) ServerConfig() Config { return s.cfg }

// Start begins listening on the configured port. It returns
// http.ErrServerClosed after Shutdown.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.log.Info().Str("addr", addr).Msg("catalogue server listening")
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
