package cmd

import (
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/eso-addons/registry"
	_ "github.com/eso-addons/registry/all"
)

// Version info set via ldflags at build time
var (
	version = "dev"
	commit  = "unknown"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:     "addon-registry",
	Short:   "Build and maintain the ESO addon index",
	Version: version + " (" + commit + ")",
	Long: `Aggregates per-addon metadata files, polls hosting APIs for release
information, and compiles everything into published JSON artifacts.

Typical CI flow:
  addon-registry validate addons/*/addon.toml
  addon-registry poll
  addon-registry build`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if verbose {
			log.SetLevel(log.DebugLevel)
		} else {
			log.SetLevel(log.InfoLevel)
		}
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose/debug logging")
}

// newAPIClient builds the hosting API client shared by all commands:
// retrying HTTP client, per-host circuit breakers, and token auth from the
// environment (GITHUB_TOKEN/GH_TOKEN, GITLAB_TOKEN).
func newAPIClient() *registry.BreakerClient {
	githubToken := os.Getenv("GITHUB_TOKEN")
	if githubToken == "" {
		githubToken = os.Getenv("GH_TOKEN")
	}
	gitlabToken := os.Getenv("GITLAB_TOKEN")

	c := registry.NewClient(registry.WithAuthFunc(func(url string) (string, string) {
		switch {
		case strings.Contains(url, "api.github.com") && githubToken != "":
			return "Authorization", "token " + githubToken
		case strings.Contains(url, "gitlab.com") && gitlabToken != "":
			return "PRIVATE-TOKEN", gitlabToken
		}
		return "", ""
	}))

	return registry.NewBreakerClient(c)
}
