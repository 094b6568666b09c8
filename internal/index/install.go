package index

import "github.com/eso-addons/registry/internal/core"

// Install methods, keyed to the archive layout clients must unpack.
// All GitHub archives carry a {repo}-{ref}/ root folder that should be
// stripped before installing.
const (
	MethodArchive = "github_archive"
	MethodRelease = "github_release"
	MethodBranch  = "branch"
)

// defaultExcludes lists files clients drop when extracting an addon archive.
var defaultExcludes = []string{".*", ".github", "tests", "*.md", "*.yml", "*.yaml"}

// Install gives addon-manager clients the extraction pipeline for an entry:
// the archive format, what to extract, the folder name to install under, and
// what to leave out.
type Install struct {
	Method       string   `json:"method"`
	ExtractPath  string   `json:"extract_path,omitempty"`
	TargetFolder string   `json:"target_folder"`
	Excludes     []string `json:"excludes"`
}

func buildInstall(record core.AddonRecord) Install {
	var method string
	switch record.Source.ReleaseType {
	case core.ReleaseTypeBranch:
		method = MethodBranch
	case core.ReleaseTypeRelease:
		method = MethodRelease
	default:
		method = MethodArchive
	}

	// Target folder priority: install_folder > path > name
	target := record.Source.InstallFolder
	if target == "" {
		target = record.Source.Path
	}
	if target == "" {
		target = record.Name
	}

	return Install{
		Method:       method,
		ExtractPath:  record.Source.Path,
		TargetFolder: target,
		Excludes:     defaultExcludes,
	}
}
