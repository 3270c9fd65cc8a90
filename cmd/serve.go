package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/catalogue/internal/logging"
	"github.com/ziadkadry99/catalogue/internal/metrics"
	"github.com/ziadkadry99/catalogue/internal/server"
)

const shutdownTimeout = 10 * time.Second

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve tile listings over HTTP",
	Long: `Starts the catalogue HTTP server. Every request path is resolved through
the route table and answered with its tile listing as a page, a fragment
(?partial=1) or JSON (/api/entries). Tag pages live under /tag/<slug>.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("port") {
			cfg.Server.Port = servePort
		}
		log := newLogger(cfg)

		var m *metrics.Metrics
		if cfg.Server.Metrics {
			m = metrics.New()
		}

		svc, err := newService(cfg, log, m)
		if err != nil {
			return err
		}

		dataDir := cfg.DataDir
		if cfg.BaseURL != "" {
			dataDir = ""
		}
		srv := server.New(server.Config{
			Port:     cfg.Server.Port,
			DataDir:  dataDir,
			AllowAll: cfg.Server.AllowAllOrigins,
			Metrics:  cfg.Server.Metrics,
		}, svc, logging.Component(log, "server"), m)

		// Graceful shutdown.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go func() {
			<-ctx.Done()
			log.Info().Msg("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("shutdown failed")
			}
		}()

		log.Info().
			Str("version", Version).
			Int("port", cfg.Server.Port).
			Str("data_dir", cfg.DataDir).
			Int("routes", len(cfg.Routes)).
			Int("pages", len(cfg.Pages)).
			Msg("catalogue server starting")

		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "port to listen on (overrides server.port)")
	rootCmd.AddCommand(serveCmd)
}
