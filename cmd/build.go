package cmd

import (
	"context"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/eso-addons/registry"
	"github.com/eso-addons/registry/internal/addonfile"
	"github.com/eso-addons/registry/internal/index"
)

var buildOpts struct {
	addonsDir   string
	outputDir   string
	noReleases  bool
	concurrency int
	feedTitle   string
	homePageURL string
	feedURL     string
}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Compile the addon index and derived artifacts",
	Long: `Loads approved addon metadata, resolves the latest release for each
addon, and writes the published artifact set: index.json, index.min.json,
feed.json, categories.json, history.json and missing-dependencies.json.

The previous build's index and history are read from the output directory so
last_updated values carry over when nothing relevant changed.`,
	Run: func(cmd *cobra.Command, args []string) {
		runBuild(cmd.Context())
	},
}

func init() {
	buildCmd.Flags().StringVar(&buildOpts.addonsDir, "addons-dir", "addons", "Directory containing addon metadata files")
	buildCmd.Flags().StringVar(&buildOpts.outputDir, "output-dir", "public", "Output directory for JSON artifacts")
	buildCmd.Flags().BoolVar(&buildOpts.noReleases, "no-releases", false, "Skip fetching release information (faster)")
	buildCmd.Flags().IntVar(&buildOpts.concurrency, "concurrency", 10, "Parallel release resolutions")
	buildCmd.Flags().StringVar(&buildOpts.feedTitle, "feed-title", "ESO Addon Index", "Feed title")
	buildCmd.Flags().StringVar(&buildOpts.homePageURL, "home-page-url", "https://github.com/eso-addons/registry", "Feed home page URL")
	buildCmd.Flags().StringVar(&buildOpts.feedURL, "feed-url", "https://eso-addons.github.io/registry/feed.json", "Feed self URL")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}

	records := loadApproved(buildOpts.addonsDir)
	log.Info("Building addon index", "addons", len(records))

	releases := make(map[string]*registry.ReleaseInfo)
	if !buildOpts.noReleases {
		var failures map[string]error
		releases, failures = registry.ResolveAllWithConcurrency(ctx, records, newAPIClient(), buildOpts.concurrency)
		for slug, err := range failures {
			log.Warn("Release resolution failed", "slug", slug, "error", err)
		}
		log.Info("Resolved releases", "resolved", len(releases), "failed", len(failures))
	}

	var previous index.Index
	if err := index.ReadJSON(filepath.Join(buildOpts.outputDir, "index.json"), &previous); err != nil {
		log.Warn("Could not read previous index, treating all addons as new", "error", err)
	}
	var history index.History
	if err := index.ReadJSON(filepath.Join(buildOpts.outputDir, "history.json"), &history); err != nil {
		log.Warn("Could not read previous history", "error", err)
	}

	now := time.Now().UTC()
	idx, newHistory, missing, err := index.Compile(records, releases, &previous, history, now)
	if err != nil {
		log.Fatal("Index compilation failed", "error", err)
	}

	artifacts := []struct {
		name  string
		v     any
		write func(string, any) error
	}{
		{"index.json", idx, index.WriteJSON},
		{"index.min.json", idx, index.WriteMinified},
		{"feed.json", index.BuildFeed(idx, buildOpts.feedTitle, buildOpts.homePageURL, buildOpts.feedURL), index.WriteJSON},
		{"categories.json", index.BuildCategories(idx), index.WriteJSON},
		{"history.json", newHistory, index.WriteJSON},
		{"missing-dependencies.json", index.BuildMissingReport(missing, now), index.WriteJSON},
	}
	for _, a := range artifacts {
		path := filepath.Join(buildOpts.outputDir, a.name)
		if err := a.write(path, a.v); err != nil {
			log.Fatal("Failed to write artifact", "path", path, "error", err)
		}
		log.Debug("Wrote artifact", "path", path)
	}

	log.Info("Build complete", "addons", idx.AddonCount, "missing_dependencies", len(missing))
}

// loadApproved reads the addons directory and filters to approved records.
// Unparseable files are logged and skipped, matching the tolerance of the
// scheduled build: a single bad submission must not block publishing.
func loadApproved(dir string) []registry.AddonRecord {
	files, loadErrs := addonfile.LoadDir(dir)
	for _, err := range loadErrs {
		log.Warn("Skipping unparseable addon file", "error", err)
	}
	for _, f := range files {
		if f.Meta.Status != registry.StatusApproved {
			log.Debug("Skipping addon", "path", f.Path, "status", f.Meta.Status)
		}
	}
	return addonfile.Approved(files)
}
