package index

import (
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/eso-addons/registry/internal/core"
)

// Dependency classifications.
const (
	DepRequired         = "required"
	DepOptional         = "optional"
	DepRequiredOptional = "required+optional"
)

// MissingDependency is a dependency slug referenced by at least one addon
// but not present as an approved addon in the registry.
type MissingDependency struct {
	Name           string   `json:"name"`
	Slug           string   `json:"slug"`
	DependencyType string   `json:"dependency_type"`
	NeededBy       []string `json:"needed_by"`
	NeededByCount  int      `json:"needed_by_count"`
}

// MissingReport is the published missing-dependencies artifact.
type MissingReport struct {
	Version             string              `json:"version"`
	GeneratedAt         time.Time           `json:"generated_at"`
	Count               int                 `json:"count"`
	MissingDependencies []MissingDependency `json:"missing_dependencies"`
}

// MissingDependencies scans every addon's dependency lists against the
// approved slug set, case-insensitively. Stateless and fully recomputed on
// every build.
func MissingDependencies(records []core.AddonRecord) []MissingDependency {
	approved := make(map[string]bool, len(records))
	for _, r := range records {
		approved[strings.ToLower(r.Slug)] = true
	}

	missing := make(map[string]*MissingDependency)

	collect := func(addon core.AddonRecord, deps []string, depType string) {
		for _, dep := range deps {
			slug := strings.ToLower(dep)
			if approved[slug] {
				continue
			}
			m, ok := missing[slug]
			if !ok {
				m = &MissingDependency{Name: dep, Slug: slug, DependencyType: depType}
				missing[slug] = m
			} else if m.DependencyType != depType && m.DependencyType != DepRequiredOptional {
				m.DependencyType = DepRequiredOptional
			}
			if !slices.Contains(m.NeededBy, addon.Slug) {
				m.NeededBy = append(m.NeededBy, addon.Slug)
			}
		}
	}

	for _, addon := range records {
		collect(addon, addon.Compatibility.RequiredDependencies, DepRequired)
		collect(addon, addon.Compatibility.OptionalDependencies, DepOptional)
	}

	out := make([]MissingDependency, 0, len(missing))
	for _, m := range missing {
		sort.Strings(m.NeededBy)
		m.NeededByCount = len(m.NeededBy)
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out
}

// BuildMissingReport wraps the missing-dependency list in its artifact
// envelope.
func BuildMissingReport(missing []MissingDependency, now time.Time) *MissingReport {
	return &MissingReport{
		Version:             IndexVersion,
		GeneratedAt:         now.UTC(),
		Count:               len(missing),
		MissingDependencies: missing,
	}
}
