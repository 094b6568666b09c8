// Package version normalizes heterogeneous addon version strings into a
// comparable, sortable representation.
//
// Upstream repositories tag versions as semantic versions ("v1.3.0"),
// date-based versions ("2024.01.15"), prefixed versions ("Version-2.1") or
// prerelease builds ("2.0.0-rc1"). Strings that match no supported pattern
// (short hashes like "r32") are a known, accepted case and normalize to a
// null structured value rather than an error.
package version

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Channel classifies a version as stable, prerelease, or branch (untagged
// rolling).
type Channel string

const (
	ChannelStable     Channel = "stable"
	ChannelPrerelease Channel = "prerelease"
	ChannelBranch     Channel = "branch"
)

// Normalized is the structured form of a parsed version string.
type Normalized struct {
	Major      int    `json:"major"`
	Minor      int    `json:"minor"`
	Patch      int    `json:"patch"`
	Prerelease string `json:"prerelease,omitempty"`
}

// String returns the canonical form of the version. Normalizing the
// canonical form yields the same structured result.
func (n *Normalized) String() string {
	s := fmt.Sprintf("%d.%d.%d", n.Major, n.Minor, n.Patch)
	if n.Prerelease != "" {
		s += "-" + n.Prerelease
	}
	return s
}

// Info is the derived version classification published per index entry.
// Normalized is non-nil if and only if SortKey is non-nil; both are nil when
// the raw string matches no supported pattern or the channel is branch.
type Info struct {
	Normalized   *Normalized `json:"version_normalized"`
	SortKey      *int64      `json:"version_sort_key"`
	IsPrerelease bool        `json:"is_prerelease"`
	Channel      Channel     `json:"release_channel"`
}

// Sort key multipliers. Minor and patch stay well under 1000 in practice,
// so keys order correctly for realistic version ranges.
const (
	majorWeight = 1_000_000
	minorWeight = 1_000
	patchWeight = 1
)

var (
	// Optional v/V/Version-/version_ prefix, up to three numeric components,
	// optional prerelease suffix keyed on alpha/beta/rc/dev.
	semverPattern = regexp.MustCompile(`^(?i)(?:v|version[-_])?(\d{1,4})(?:\.(\d{1,4}))?(?:\.(\d{1,4}))?(?:[-_.]?((?:alpha|beta|rc|dev)(?:[.\-_]?\d+)?))?$`)

	// YYYY.MM.DD or YYYY-MM-DD, interpreted as major/minor/patch.
	datePattern = regexp.MustCompile(`^(\d{4})[.-](\d{1,2})[.-](\d{1,2})$`)
)

// Normalize parses a raw version string according to its release type.
// Pure and deterministic; never fails.
//
// Branch versions are commit SHAs or timestamps and are never compared
// numerically, so release type "branch" always yields a null normalization
// on the branch channel regardless of string content.
func Normalize(raw string, releaseType string) Info {
	if releaseType == "branch" {
		return Info{Channel: ChannelBranch}
	}

	norm := parse(strings.TrimSpace(raw))
	if norm == nil {
		// Unparseable stable-channel versions are accepted, not errors
		return Info{Channel: ChannelStable}
	}

	key := int64(norm.Major)*majorWeight + int64(norm.Minor)*minorWeight + int64(norm.Patch)*patchWeight
	if norm.Prerelease != "" {
		// A prerelease sorts strictly below the final release that shares
		// its major/minor/patch triple.
		key--
	}

	info := Info{
		Normalized:   norm,
		SortKey:      &key,
		IsPrerelease: norm.Prerelease != "",
		Channel:      ChannelStable,
	}
	if info.IsPrerelease {
		info.Channel = ChannelPrerelease
	}
	return info
}

func parse(raw string) *Normalized {
	if m := semverPattern.FindStringSubmatch(raw); m != nil {
		return &Normalized{
			Major:      atoi(m[1]),
			Minor:      atoi(m[2]),
			Patch:      atoi(m[3]),
			Prerelease: strings.ToLower(m[4]),
		}
	}
	if m := datePattern.FindStringSubmatch(raw); m != nil {
		return &Normalized{
			Major: atoi(m[1]),
			Minor: atoi(m[2]),
			Patch: atoi(m[3]),
		}
	}
	return nil
}

// atoi converts a submatch to an int; missing captures default to 0.
func atoi(s string) int {
	if s == "" {
		return 0
	}
	n, _ := strconv.Atoi(s)
	return n
}
