package cmd

import (
	"context"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/eso-addons/registry/internal/addonfile"
)

var validateOpts struct {
	noRepoCheck bool
}

var validateCmd = &cobra.Command{
	Use:   "validate <file.toml> [file.toml ...]",
	Short: "Validate addon metadata files",
	Long: `Checks addon metadata files against the schema (required fields,
slug pattern, category and status enums), verifies slugs match their
directories and are unique, and, unless --no-repo-check is given, verifies
the source repository exists, has releases, and contains an addon manifest.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runValidate(cmd.Context(), args)
	},
}

func init() {
	validateCmd.Flags().BoolVar(&validateOpts.noRepoCheck, "no-repo-check", false, "Skip repository validation (faster)")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(ctx context.Context, paths []string) {
	if ctx == nil {
		ctx = context.Background()
	}

	apiClient := newAPIClient()
	var files []*addonfile.File
	failed := 0

	for _, path := range paths {
		log.Info("Validating", "path", path)

		f, err := addonfile.Load(path)
		if err != nil {
			log.Error("Failed to parse", "path", path, "error", err)
			failed++
			continue
		}
		files = append(files, f)

		problems := addonfile.Validate(f)
		if !validateOpts.noRepoCheck && len(problems) == 0 {
			problems = append(problems, addonfile.ValidateRepository(ctx, f, apiClient)...)
		}

		for _, p := range problems {
			log.Error("Validation error", "path", path, "problem", p)
		}
		failed += len(problems)
	}

	for _, p := range addonfile.CheckDuplicateSlugs(files) {
		log.Error("Validation error", "problem", p)
		failed++
	}

	if failed > 0 {
		log.Error("Validation failed", "errors", failed)
		os.Exit(1)
	}
	log.Info("All validations passed")
}
