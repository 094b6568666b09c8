// Package core provides shared types and the hosting provider system.
package core

import "time"

// Host types supported by the registry.
const (
	HostGitHub = "github"
	HostGitLab = "gitlab"
	HostCustom = "custom"
)

// Release detection modes.
const (
	ReleaseTypeTag     = "tag"
	ReleaseTypeRelease = "release"
	ReleaseTypeBranch  = "branch"
)

// Addon statuses as recorded in addon metadata files.
const (
	StatusPending    = "pending"
	StatusApproved   = "approved"
	StatusDeprecated = "deprecated"
	StatusRemoved    = "removed"
)

// AddonRecord is one approved addon entry. Slug is the stable identity key.
type AddonRecord struct {
	Slug          string        `json:"slug"`
	Name          string        `json:"name"`
	Description   string        `json:"description"`
	Authors       []string      `json:"authors"`
	License       string        `json:"license"`
	Category      string        `json:"category"`
	Tags          []string      `json:"tags"`
	Source        Source        `json:"source"`
	Compatibility Compatibility `json:"compatibility"`
}

// Source describes where an addon's code is hosted and how its latest
// version is detected.
type Source struct {
	Type          string `json:"type"`
	Repo          string `json:"repo"`
	Branch        string `json:"branch,omitempty"`
	Path          string `json:"path,omitempty"`
	InstallFolder string `json:"-"`
	ReleaseType   string `json:"-"`
}

// Compatibility describes game and dependency requirements.
type Compatibility struct {
	APIVersion           string   `json:"api_version"`
	GameVersions         []string `json:"game_versions"`
	RequiredDependencies []string `json:"required_dependencies"`
	OptionalDependencies []string `json:"optional_dependencies"`
}

// ShortSHALen is the abbreviated commit SHA length used for branch-tracked
// version strings. Chosen once so every host reports the same width.
const ShortSHALen = 12

// ShortSHA abbreviates a commit SHA to ShortSHALen characters.
func ShortSHA(sha string) string {
	if len(sha) > ShortSHALen {
		return sha[:ShortSHALen]
	}
	return sha
}

// FirstLine returns the first line of s truncated to max characters.
// Truncation lands on a rune boundary so multi-byte text stays valid.
func FirstLine(s string, max int) string {
	for i, r := range s {
		if r == '\n' || r == '\r' {
			s = s[:i]
			break
		}
	}
	count := 0
	for i := range s {
		if count == max {
			return s[:i]
		}
		count++
	}
	return s
}

// ReleaseInfo is the resolved latest version for one addon. It is recomputed
// on every poll cycle and only persisted embedded in the index and history.
type ReleaseInfo struct {
	Version       string     `json:"version"`
	DownloadURL   string     `json:"download_url"`
	PublishedAt   *time.Time `json:"published_at"`
	CommitSHA     string     `json:"commit_sha,omitempty"`
	CommitMessage string     `json:"commit_message,omitempty"`
	ReleaseNotes  string     `json:"release_notes,omitempty"`
}
