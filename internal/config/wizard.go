package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
)

// detectDataDir looks for a directory that already holds a json/ folder.
func detectDataDir() string {
	for _, candidate := range []string{"site", "static", "public", "."} {
		if info, err := os.Stat(filepath.Join(candidate, "json")); err == nil && info.IsDir() {
			return candidate
		}
	}
	return "site"
}

// RunWizard runs an interactive configuration wizard, saves the result to
// path and returns it.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Let's configure the catalogue for this site.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Site title.
	titlePrompt := promptui.Prompt{
		Label:   "Site title",
		Default: cfg.SiteTitle,
	}
	title, err := titlePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("site title: %w", err)
	}
	cfg.SiteTitle = title

	// 2. Data directory.
	dataPrompt := promptui.Prompt{
		Label:   "Directory holding the json/ data files",
		Default: detectDataDir(),
	}
	dataDir, err := dataPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("data dir: %w", err)
	}
	cfg.DataDir = dataDir

	// 3. Page size.
	sizePrompt := promptui.Prompt{
		Label:   "Tiles per page",
		Default: strconv.Itoa(cfg.PageSize),
		Validate: func(s string) error {
			n, err := strconv.Atoi(strings.TrimSpace(s))
			if err != nil || n < 1 {
				return fmt.Errorf("must be a positive integer")
			}
			return nil
		},
	}
	sizeStr, err := sizePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("page size: %w", err)
	}
	cfg.PageSize, _ = strconv.Atoi(strings.TrimSpace(sizeStr))

	// 4. Sections.
	sectionsPrompt := promptui.Prompt{
		Label:   "Sections (comma-separated, each served from /json/<section>.json)",
		Default: "article, histoire",
	}
	sectionsStr, err := sectionsPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("sections: %w", err)
	}
	sections := splitAndTrim(sectionsStr)
	if len(sections) > 0 {
		cfg.Routes = make(map[string]string, len(sections))
		cfg.TagSources = nil
		for _, s := range sections {
			s = strings.Trim(s, "/")
			source := "/json/" + s + ".json"
			cfg.Routes["/"+s] = source
			cfg.TagSources = append(cfg.TagSources, source)
		}
	}

	// 5. Time zone.
	tzSelect := promptui.Select{
		Label: "Time zone for display dates",
		Items: []string{"UTC", "Europe/Paris", "Asia/Shanghai", "Local"},
	}
	_, tz, err := tzSelect.Run()
	if err != nil {
		return nil, fmt.Errorf("time zone: %w", err)
	}
	cfg.Timezone = tz

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	return cfg, nil
}

// splitAndTrim splits a comma-separated string and trims whitespace.
func splitAndTrim(s string) []string {
	var result []string
	for _, part := range strings.Split(s, ",") {
		if token := strings.TrimSpace(part); token != "" {
			result = append(result, token)
		}
	}
	return result
}
