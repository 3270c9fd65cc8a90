package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/catalogue/internal/config"
	"github.com/ziadkadry99/catalogue/internal/loader"
	"github.com/ziadkadry99/catalogue/internal/schema"
)

var checkCmd = &cobra.Command{
	Use:   "check [source...]",
	Short: "Validate data files against the entry schema",
	Long: `Validates every source named by routes, pages and tag_sources (or the
sources given as arguments) against the entry schema. Exits non-zero when
any source cannot be read or is invalid.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log := newLogger(cfg)
		ld := newLoader(cfg, log, nil)

		sources := args
		if len(sources) == 0 {
			sources = configuredSources(cfg, ld)
		}
		if failed := checkSources(cmd.Context(), ld, sources, os.Stdout); failed > 0 {
			return fmt.Errorf("%d of %d sources failed validation", failed, len(sources))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

// configuredSources lists every distinct source the config refers to:
// routes and pages in path order, then the expanded tag sources.
func configuredSources(cfg *config.Config, ld *loader.Loader) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(s string) {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	for _, table := range []map[string]string{cfg.Routes, cfg.Pages} {
		keys := make([]string, 0, len(table))
		for k := range table {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			add(table[k])
		}
	}
	for _, s := range ld.Expand(cfg.TagSources) {
		add(s)
	}
	return out
}

// checkSources validates each source and reports one line per source to w,
// followed by its schema problems. It returns the number of failures.
func checkSources(ctx context.Context, ld *loader.Loader, sources []string, w io.Writer) int {
	failed := 0
	for _, src := range sources {
		data, err := ld.Read(ctx, src)
		if err == nil {
			err = schema.Validate(bytes.NewReader(data))
		}
		if err == nil {
			fmt.Fprintf(w, "ok    %s\n", src)
			continue
		}

		failed++
		var se *schema.Error
		if errors.As(err, &se) {
			fmt.Fprintf(w, "FAIL  %s\n", src)
			for _, p := range se.Problems {
				fmt.Fprintf(w, "      %s\n", p)
			}
			continue
		}
		fmt.Fprintf(w, "FAIL  %s: %v\n", src, err)
	}
	return failed
}
