package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ziadkadry99/catalogue/internal/logging"
	"github.com/ziadkadry99/catalogue/internal/progress"
	"github.com/ziadkadry99/catalogue/internal/site"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Pre-render every listing into a static site",
	Long: `Renders every page of every route section, every tag page and the tag
index into the output directory, together with the stylesheet and a search
index. With --watch the site is rebuilt whenever the data files change.`,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().String("output", "", "override the output directory (defaults to output_dir)")
	buildCmd.Flags().Bool("watch", false, "rebuild when files in the data directory change")
	buildCmd.Flags().Bool("serve", false, "start a local HTTP server after building")
	buildCmd.Flags().Int("port", 8080, "port for the local preview server")
	buildCmd.Flags().Bool("open", false, "open browser automatically when serving")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	outputDir, _ := cmd.Flags().GetString("output")
	if outputDir == "" {
		outputDir = cfg.OutputDir
	}
	watch, _ := cmd.Flags().GetBool("watch")
	serve, _ := cmd.Flags().GetBool("serve")
	if watch && cfg.BaseURL != "" {
		return errors.New("--watch needs a local data_dir, but base_url is set")
	}

	svc, err := newService(cfg, log, nil)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	generator := site.NewSiteGenerator(svc, outputDir, progress.NewReporter(), logging.Component(log, "site"))
	pageCount, err := generator.Generate(ctx)
	if err != nil {
		return fmt.Errorf("generating site: %w", err)
	}
	fmt.Printf("Static site generated: %s (%d pages)\n", outputDir, pageCount)

	if !watch && !serve {
		return nil
	}

	g, ctx := errgroup.WithContext(ctx)
	if watch {
		generator.Reporter = progress.Nop{}
		g.Go(func() error {
			return watchData(ctx, cfg.DataDir, func(ctx context.Context) error {
				n, err := generator.Generate(ctx)
				if err == nil {
					fmt.Printf("Static site rebuilt: %s (%d pages)\n", outputDir, n)
				}
				return err
			}, logging.Component(log, "watch"))
		})
	}
	if serve {
		port, _ := cmd.Flags().GetInt("port")
		openBrowser, _ := cmd.Flags().GetBool("open")
		g.Go(func() error {
			if err := site.Serve(ctx, outputDir, port, openBrowser, logging.Component(log, "preview")); err != nil {
				return fmt.Errorf("serving site: %w", err)
			}
			return nil
		})
	}
	return g.Wait()
}
