// Package index compiles approved addon records and resolved releases into
// the published artifact set: the full and minified index, the version
// history, the missing-dependency report, the category index and the feed.
package index

import (
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/eso-addons/registry/client"
	"github.com/eso-addons/registry/internal/core"
	"github.com/eso-addons/registry/internal/version"
)

// IndexVersion is the published schema version. Existing fields are never
// removed or retyped; new fields are additive only.
const IndexVersion = "1.0"

// Entry is the published per-addon object.
type Entry struct {
	Slug            string             `json:"slug"`
	Name            string             `json:"name"`
	Description     string             `json:"description"`
	Authors         []string           `json:"authors"`
	License         string             `json:"license"`
	Category        string             `json:"category"`
	Tags            []string           `json:"tags"`
	URL             string             `json:"url"`
	PURL            string             `json:"purl,omitempty"`
	Source          core.Source        `json:"source"`
	Compatibility   core.Compatibility `json:"compatibility"`
	Install         Install            `json:"install"`
	DownloadSources []DownloadSource   `json:"download_sources,omitempty"`
	LatestRelease   *core.ReleaseInfo  `json:"latest_release"`
	VersionInfo     *version.Info      `json:"version_info,omitempty"`
	LastUpdated     string             `json:"last_updated"`
}

// DownloadSource is one entry of the ordered download fallback list.
// Sources are tried in order; the first reachable one wins.
type DownloadSource struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Index is the root published object.
type Index struct {
	Version     string    `json:"version"`
	GeneratedAt time.Time `json:"generated_at"`
	AddonCount  int       `json:"addon_count"`
	Addons      []Entry   `json:"addons"`
}

// Entry returns the entry with the given slug, or nil.
func (idx *Index) Entry(slug string) *Entry {
	if idx == nil {
		return nil
	}
	for i := range idx.Addons {
		if idx.Addons[i].Slug == slug {
			return &idx.Addons[i]
		}
	}
	return nil
}

// Compile builds the new index from the approved addon set, merging in
// resolved releases and carrying incremental state over from the previous
// build. previous and prevHistory may be nil on a first build.
//
// Rebuilding with no substantive change alters no last_updated value and
// appends no history entry: consumers use both to detect genuine updates.
func Compile(records []core.AddonRecord, releases map[string]*core.ReleaseInfo, previous *Index, prevHistory History, now time.Time) (*Index, History, []MissingDependency, error) {
	seen := make(map[string]bool, len(records))
	for _, r := range records {
		if seen[r.Slug] {
			return nil, nil, nil, &core.DuplicateSlugError{Slug: r.Slug}
		}
		seen[r.Slug] = true
	}

	buildTS := now.UTC().Format(time.RFC3339)
	history := prevHistory.clone()

	entries := make([]Entry, 0, len(records))
	for _, record := range records {
		prev := previous.Entry(record.Slug)
		entry := buildEntry(record, releases[record.Slug], prev)

		entry.LastUpdated = mergeLastUpdated(entry, prev, buildTS)
		entries = append(entries, entry)

		history.record(record, entry.LatestRelease, now)
	}

	// Case-insensitive by name, ties broken by slug, for reproducible,
	// diff-friendly output.
	sort.Slice(entries, func(i, j int) bool {
		ni, nj := strings.ToLower(entries[i].Name), strings.ToLower(entries[j].Name)
		if ni != nj {
			return ni < nj
		}
		return entries[i].Slug < entries[j].Slug
	})

	idx := &Index{
		Version:     IndexVersion,
		GeneratedAt: now.UTC(),
		AddonCount:  len(entries),
		Addons:      entries,
	}
	return idx, history, MissingDependencies(records), nil
}

// buildEntry assembles one published entry. When the addon's resolution
// failed this cycle, the previous build's release is carried over so a
// transient API failure does not erase the published version.
func buildEntry(record core.AddonRecord, release *core.ReleaseInfo, prev *Entry) Entry {
	source := record.Source
	if source.Branch == "" {
		source.Branch = core.DefaultBranch
	}

	if release == nil && prev != nil {
		release = prev.LatestRelease
	}

	entry := Entry{
		Slug:          record.Slug,
		Name:          record.Name,
		Description:   record.Description,
		Authors:       record.Authors,
		License:       record.License,
		Category:      record.Category,
		Tags:          record.Tags,
		Source:        source,
		Compatibility: record.Compatibility,
		Install:       buildInstall(record),
		LatestRelease: release,
	}

	if urls := core.URLsFor(record.Source.Type); urls != nil {
		entry.URL = urls.Repository(record.Source.Repo)
		if release != nil {
			entry.PURL = urls.PURL(record.Source.Repo, release.Version)
		}
		entry.DownloadSources = downloadSources(urls, record.Source, release)
	} else {
		// Custom sources keep the repo identifier as-is (may be a full URL)
		entry.URL = record.Source.Repo
		if release != nil && release.DownloadURL != "" {
			entry.DownloadSources = []DownloadSource{{Name: "origin", URL: release.DownloadURL}}
		}
	}

	if release != nil {
		info := version.Normalize(release.Version, record.Source.ReleaseType)
		entry.VersionInfo = &info
	}

	return entry
}

// downloadSources builds the ordered fallback list: CDN mirror first, origin
// archive second.
func downloadSources(urls client.URLBuilder, source core.Source, release *core.ReleaseInfo) []DownloadSource {
	if release == nil {
		return nil
	}

	var sources []DownloadSource
	if source.ReleaseType != core.ReleaseTypeBranch {
		if mirror := urls.Mirror(source.Repo, release.Version); mirror != "" {
			sources = append(sources, DownloadSource{Name: "mirror", URL: mirror})
		}
	}
	if release.DownloadURL != "" {
		sources = append(sources, DownloadSource{Name: "origin", URL: release.DownloadURL})
	}
	return sources
}

// mergeLastUpdated implements the incremental merge:
//
//   - no previous entry: the addon is new, stamp with the build timestamp
//   - version or commit changed: the release's publish timestamp, falling
//     back to the build timestamp when the release carries none
//   - any other observable field changed: the build timestamp
//   - otherwise: the previous value, copied unchanged
func mergeLastUpdated(entry Entry, prev *Entry, buildTS string) string {
	if prev == nil {
		return buildTS
	}
	if releaseChanged(prev.LatestRelease, entry.LatestRelease) {
		if entry.LatestRelease != nil && entry.LatestRelease.PublishedAt != nil {
			return entry.LatestRelease.PublishedAt.UTC().Format(time.RFC3339)
		}
		return buildTS
	}
	if observableChanged(prev, &entry) {
		return buildTS
	}
	return prev.LastUpdated
}

func releaseChanged(prev, next *core.ReleaseInfo) bool {
	if prev == nil && next == nil {
		return false
	}
	if prev == nil || next == nil {
		return true
	}
	return prev.Version != next.Version || prev.CommitSHA != next.CommitSHA
}

func observableChanged(prev, next *Entry) bool {
	if prev.Name != next.Name ||
		prev.Description != next.Description ||
		prev.License != next.License ||
		prev.Category != next.Category {
		return true
	}
	if !slices.Equal(prev.Authors, next.Authors) || !slices.Equal(prev.Tags, next.Tags) {
		return true
	}
	return !compatEqual(prev.Compatibility, next.Compatibility)
}

func compatEqual(a, b core.Compatibility) bool {
	return a.APIVersion == b.APIVersion &&
		slices.Equal(a.GameVersions, b.GameVersions) &&
		slices.Equal(a.RequiredDependencies, b.RequiredDependencies) &&
		slices.Equal(a.OptionalDependencies, b.OptionalDependencies)
}
