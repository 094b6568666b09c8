package addonfile

import (
	"context"
	"errors"
	"fmt"

	"github.com/eso-addons/registry/client"
	"github.com/eso-addons/registry/internal/core"
)

// ManifestChecker is implemented by hosts that can inspect repository
// contents for an addon manifest.
type ManifestChecker interface {
	HasAddonManifest(ctx context.Context, repo, branch, path string) (bool, error)
}

// ValidateRepository verifies the source repository remotely: it exists and
// is accessible, it has at least one release/tag (or the tracked branch
// resolves), and it contains an addon manifest where the host supports the
// check. Custom sources are skipped. Slow; callers gate it behind a flag.
func ValidateRepository(ctx context.Context, f *File, c client.Doer) []string {
	host, err := core.New(f.Source.Type, "", c)
	if err != nil {
		// Custom sources have no API to check
		return nil
	}

	if err := host.CheckRepo(ctx, f.Source.Repo); err != nil {
		// Don't pile on further checks when the repo itself is missing
		return []string{err.Error()}
	}

	var errs []string

	if mc, ok := host.(ManifestChecker); ok {
		found, err := mc.HasAddonManifest(ctx, f.Source.Repo, f.Source.Branch, f.Source.Path)
		if err != nil {
			errs = append(errs, fmt.Sprintf("checking addon manifest: %v", err))
		} else if !found {
			errs = append(errs, "no valid addon manifest found (missing '## Title:' header)")
		}
	}

	src := core.Source{
		Type:        f.Source.Type,
		Repo:        f.Source.Repo,
		Branch:      f.Source.Branch,
		ReleaseType: f.Source.ReleaseType,
	}
	if _, err := core.Resolve(ctx, host, src); err != nil {
		if errors.Is(err, client.ErrNotFound) {
			errs = append(errs, "no "+missingRefKind(f.Source.ReleaseType)+" found in repository")
		} else {
			errs = append(errs, fmt.Sprintf("checking releases: %v", err))
		}
	}

	return errs
}

func missingRefKind(releaseType string) string {
	switch releaseType {
	case core.ReleaseTypeBranch:
		return "matching branch"
	case core.ReleaseTypeRelease:
		return "releases or tags"
	default:
		return "tags"
	}
}
