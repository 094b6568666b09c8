package index

import (
	"sort"
	"time"

	"github.com/eso-addons/registry/internal/core"
)

// HistoryEntry is one append-only version-history record. Once written, the
// entry for a given (slug, version) pair is never mutated.
type HistoryEntry struct {
	Version     string     `json:"version"`
	PublishedAt *time.Time `json:"published_at"`
	DetectedAt  time.Time  `json:"detected_at"`
	CommitSHA   string     `json:"commit_sha,omitempty"`
}

// History maps addon slugs to their ordered version-history entries, oldest
// first. The full history file is unbounded; only the derived feed view is
// capped.
type History map[string][]HistoryEntry

func (h History) clone() History {
	out := make(History, len(h))
	for slug, entries := range h {
		out[slug] = append([]HistoryEntry(nil), entries...)
	}
	return out
}

// record appends a new entry when the resolved version differs from the most
// recent one already recorded for the slug. Branch-tracked addons are keyed
// on commit SHA, everything else on the version string.
func (h History) record(addon core.AddonRecord, release *core.ReleaseInfo, now time.Time) {
	if release == nil {
		return
	}

	entries := h[addon.Slug]
	if len(entries) > 0 {
		last := entries[len(entries)-1]
		if addon.Source.ReleaseType == core.ReleaseTypeBranch {
			if last.CommitSHA == release.CommitSHA {
				return
			}
		} else if last.Version == release.Version {
			return
		}
	}

	h[addon.Slug] = append(entries, HistoryEntry{
		Version:     release.Version,
		PublishedAt: release.PublishedAt,
		DetectedAt:  now.UTC(),
		CommitSHA:   release.CommitSHA,
	})
}

// Recent returns the most recent entries across all slugs, newest first,
// capped at limit. This is the bounded view the feed derives from; the full
// history is never truncated.
func (h History) Recent(limit int) []SlugHistoryEntry {
	var all []SlugHistoryEntry
	for slug, entries := range h {
		for _, e := range entries {
			all = append(all, SlugHistoryEntry{Slug: slug, HistoryEntry: e})
		}
	}

	// Stable ordering: detected_at descending, slug ascending on ties
	sort.SliceStable(all, func(i, j int) bool {
		if !all[i].DetectedAt.Equal(all[j].DetectedAt) {
			return all[i].DetectedAt.After(all[j].DetectedAt)
		}
		return all[i].Slug < all[j].Slug
	})

	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all
}

// SlugHistoryEntry pairs a history entry with its owning slug.
type SlugHistoryEntry struct {
	Slug string `json:"slug"`
	HistoryEntry
}
