package index

import (
	"time"

	"github.com/eso-addons/registry/internal/core"
)

// PollCache is the versions.json artifact: the latest resolved release per
// slug plus the deltas observed against the previous poll.
type PollCache struct {
	Versions    map[string]*core.ReleaseInfo `json:"versions"`
	LastChecked *time.Time                   `json:"last_checked"`
	Updates     []VersionUpdate              `json:"updates,omitempty"`
}

// VersionUpdate records one observed version change.
type VersionUpdate struct {
	Slug       string `json:"slug"`
	OldVersion string `json:"old_version"`
	NewVersion string `json:"new_version"`
	Repo       string `json:"repo"`
}

// BuildPollCache diffs freshly resolved releases against the previous cache.
// Slugs that failed to resolve this cycle are absent from the new cache; the
// scheduled polling cadence is the retry mechanism.
func BuildPollCache(records []core.AddonRecord, releases map[string]*core.ReleaseInfo, previous *PollCache, now time.Time) *PollCache {
	checked := now.UTC()
	cache := &PollCache{
		Versions:    make(map[string]*core.ReleaseInfo, len(releases)),
		LastChecked: &checked,
	}

	var oldVersions map[string]*core.ReleaseInfo
	if previous != nil {
		oldVersions = previous.Versions
	}

	for _, record := range records {
		release, ok := releases[record.Slug]
		if !ok {
			continue
		}
		cache.Versions[record.Slug] = release

		if old, ok := oldVersions[record.Slug]; ok && old != nil && old.Version != release.Version {
			cache.Updates = append(cache.Updates, VersionUpdate{
				Slug:       record.Slug,
				OldVersion: old.Version,
				NewVersion: release.Version,
				Repo:       record.Source.Repo,
			})
		}
	}

	return cache
}
