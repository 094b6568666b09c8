package addonfile

import (
	"fmt"
	"path/filepath"
	"regexp"
	"slices"

	"github.com/eso-addons/registry/internal/core"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

// Categories accepted in addon metadata.
var Categories = []string{
	"combat",
	"crafting",
	"dungeons",
	"guilds",
	"housing",
	"inventory",
	"library",
	"maps",
	"miscellaneous",
	"pvp",
	"quests",
	"roleplay",
	"social",
	"trading",
	"ui",
}

var statuses = []string{
	core.StatusPending,
	core.StatusApproved,
	core.StatusDeprecated,
	core.StatusRemoved,
}

var sourceTypes = []string{core.HostGitHub, core.HostGitLab, core.HostCustom}

var releaseTypes = []string{"", core.ReleaseTypeTag, core.ReleaseTypeRelease, core.ReleaseTypeBranch}

// Validate checks the file's shape against the metadata schema.
// Returns a list of human-readable problems; an empty list means valid.
func Validate(f *File) []string {
	var errs []string

	if f.Addon.Slug == "" {
		errs = append(errs, "addon.slug is required")
	} else if !slugPattern.MatchString(f.Addon.Slug) {
		errs = append(errs, fmt.Sprintf("addon.slug %q must be lowercase, hyphen-delimited", f.Addon.Slug))
	}
	if f.Addon.Name == "" {
		errs = append(errs, "addon.name is required")
	}
	if f.Addon.Description == "" {
		errs = append(errs, "addon.description is required")
	}
	if len(f.Addon.Authors) == 0 {
		errs = append(errs, "addon.authors must list at least one author")
	}
	if f.Addon.Category == "" {
		errs = append(errs, "addon.category is required")
	} else if !slices.Contains(Categories, f.Addon.Category) {
		errs = append(errs, fmt.Sprintf("addon.category %q is not a known category", f.Addon.Category))
	}

	if f.Source.Type == "" {
		errs = append(errs, "source.type is required")
	} else if !slices.Contains(sourceTypes, f.Source.Type) {
		errs = append(errs, fmt.Sprintf("source.type %q must be one of github, gitlab, custom", f.Source.Type))
	}
	if f.Source.Repo == "" {
		errs = append(errs, "source.repo is required")
	}
	if !slices.Contains(releaseTypes, f.Source.ReleaseType) {
		errs = append(errs, fmt.Sprintf("source.release_type %q must be one of tag, release, branch", f.Source.ReleaseType))
	}

	if f.Meta.SubmittedBy == "" {
		errs = append(errs, "meta.submitted_by is required")
	}
	if f.Meta.Status == "" {
		errs = append(errs, "meta.status is required")
	} else if !slices.Contains(statuses, f.Meta.Status) {
		errs = append(errs, fmt.Sprintf("meta.status %q must be one of pending, approved, deprecated, removed", f.Meta.Status))
	}

	// The slug must match the directory the file lives in
	if f.Path != "" && f.Addon.Slug != "" {
		dir := filepath.Base(filepath.Dir(f.Path))
		if f.Addon.Slug != dir {
			errs = append(errs, fmt.Sprintf("slug %q doesn't match directory %q", f.Addon.Slug, dir))
		}
	}

	return errs
}

// CheckDuplicateSlugs reports slugs appearing in more than one file.
func CheckDuplicateSlugs(files []*File) []string {
	seen := make(map[string]string, len(files))
	var errs []string

	for _, f := range files {
		slug := f.Addon.Slug
		if slug == "" {
			continue
		}
		if first, ok := seen[slug]; ok {
			errs = append(errs, fmt.Sprintf("duplicate slug %q in %s (already used by %s)", slug, f.Path, first))
			continue
		}
		seen[slug] = f.Path
	}
	return errs
}
