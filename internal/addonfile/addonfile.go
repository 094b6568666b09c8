// Package addonfile loads and validates per-addon metadata files
// (addons/<slug>/addon.toml).
package addonfile

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/BurntSushi/toml"

	"github.com/eso-addons/registry/internal/core"
)

// FileName is the metadata file expected in each addon directory.
const FileName = "addon.toml"

// File is the parsed shape of one addon.toml.
type File struct {
	Addon         AddonSection  `toml:"addon"`
	Source        SourceSection `toml:"source"`
	Compatibility CompatSection `toml:"compatibility"`
	Meta          MetaSection   `toml:"meta"`

	// Path of the file this was loaded from, for error reporting.
	Path string `toml:"-"`
}

type AddonSection struct {
	Slug        string   `toml:"slug"`
	Name        string   `toml:"name"`
	Description string   `toml:"description"`
	Authors     []string `toml:"authors"`
	License     string   `toml:"license"`
	Category    string   `toml:"category"`
	Tags        []string `toml:"tags"`
}

type SourceSection struct {
	Type          string `toml:"type"`
	Repo          string `toml:"repo"`
	Branch        string `toml:"branch"`
	Path          string `toml:"path"`
	InstallFolder string `toml:"install_folder"`
	ReleaseType   string `toml:"release_type"`
}

type CompatSection struct {
	APIVersion           string   `toml:"api_version"`
	GameVersions         []string `toml:"game_versions"`
	RequiredDependencies []string `toml:"required_dependencies"`
	OptionalDependencies []string `toml:"optional_dependencies"`
}

type MetaSection struct {
	SubmittedBy   string   `toml:"submitted_by"`
	SubmittedDate string   `toml:"submitted_date"`
	LastReviewed  string   `toml:"last_reviewed"`
	Status        string   `toml:"status"`
	Reviewers     []string `toml:"reviewers"`
}

// Load parses a single addon.toml.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var f File
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	f.Path = path
	return &f, nil
}

// LoadDir loads every addons/<slug>/addon.toml under dir in stable directory
// order. Unparseable files are returned as errors alongside the files that
// did load; the caller decides whether they are fatal.
func LoadDir(dir string) ([]*File, []error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*", FileName))
	if err != nil {
		return nil, []error{err}
	}
	sort.Strings(matches)

	var (
		files   []*File
		loadErr []error
	)
	for _, path := range matches {
		f, err := Load(path)
		if err != nil {
			loadErr = append(loadErr, err)
			continue
		}
		files = append(files, f)
	}
	return files, loadErr
}

// Record converts the file into the compiler's addon record.
func (f *File) Record() core.AddonRecord {
	license := f.Addon.License
	if license == "" {
		license = "Unknown"
	}

	return core.AddonRecord{
		Slug:        f.Addon.Slug,
		Name:        f.Addon.Name,
		Description: f.Addon.Description,
		Authors:     f.Addon.Authors,
		License:     license,
		Category:    f.Addon.Category,
		Tags:        append([]string{}, f.Addon.Tags...),
		Source: core.Source{
			Type:          f.Source.Type,
			Repo:          f.Source.Repo,
			Branch:        f.Source.Branch,
			Path:          f.Source.Path,
			InstallFolder: f.Source.InstallFolder,
			ReleaseType:   f.Source.ReleaseType,
		},
		Compatibility: core.Compatibility{
			APIVersion:           f.Compatibility.APIVersion,
			GameVersions:         append([]string{}, f.Compatibility.GameVersions...),
			RequiredDependencies: append([]string{}, f.Compatibility.RequiredDependencies...),
			OptionalDependencies: append([]string{}, f.Compatibility.OptionalDependencies...),
		},
	}
}

// Approved filters to records with approved status, preserving order.
func Approved(files []*File) []core.AddonRecord {
	var records []core.AddonRecord
	for _, f := range files {
		if f.Meta.Status != core.StatusApproved {
			continue
		}
		records = append(records, f.Record())
	}
	return records
}
