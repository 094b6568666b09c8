package cmd

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/eso-addons/registry"
	"github.com/eso-addons/registry/internal/index"
)

var pollOpts struct {
	addonsDir   string
	output      string
	concurrency int
	dryRun      bool
}

var pollCmd = &cobra.Command{
	Use:   "poll",
	Short: "Poll hosting APIs for new addon releases",
	Long: `Resolves the latest release for every approved addon, diffs against
the previous version cache, and records the observed updates.`,
	Run: func(cmd *cobra.Command, args []string) {
		runPoll(cmd.Context())
	},
}

func init() {
	pollCmd.Flags().StringVar(&pollOpts.addonsDir, "addons-dir", "addons", "Directory containing addon metadata files")
	pollCmd.Flags().StringVar(&pollOpts.output, "output", "public/versions.json", "Output file for the version cache")
	pollCmd.Flags().IntVar(&pollOpts.concurrency, "concurrency", 10, "Parallel release resolutions")
	pollCmd.Flags().BoolVar(&pollOpts.dryRun, "dry-run", false, "Check for updates without saving")
	rootCmd.AddCommand(pollCmd)
}

func runPoll(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}

	records := loadApproved(pollOpts.addonsDir)
	log.Info("Polling addon repositories for updates", "addons", len(records))

	releases, failures := registry.ResolveAllWithConcurrency(ctx, records, newAPIClient(), pollOpts.concurrency)
	for slug, err := range failures {
		log.Warn("No release found", "slug", slug, "error", err)
	}

	var previous index.PollCache
	if err := index.ReadJSON(pollOpts.output, &previous); err != nil {
		log.Warn("Could not read previous version cache", "error", err)
	}

	cache := index.BuildPollCache(records, releases, &previous, time.Now())

	log.Info("Checked addons", "resolved", len(cache.Versions))
	if len(cache.Updates) == 0 {
		log.Info("No updates found")
	}
	for _, u := range cache.Updates {
		log.Info("Updated", "slug", u.Slug, "old", u.OldVersion, "new", u.NewVersion)
	}

	if pollOpts.dryRun {
		log.Info("Dry run - no changes saved")
		return
	}
	if err := index.WriteJSON(pollOpts.output, cache); err != nil {
		log.Fatal("Failed to write version cache", "path", pollOpts.output, "error", err)
	}
	log.Info("Saved version cache", "path", pollOpts.output)
}
