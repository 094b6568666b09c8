// Package github provides a hosting client for the GitHub REST API.
package github

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	packageurl "github.com/package-url/packageurl-go"

	"github.com/eso-addons/registry/client"
	"github.com/eso-addons/registry/internal/core"
)

const (
	DefaultURL = "https://api.github.com"
	hostType   = "github"

	// Release notes are truncated to keep index entries small.
	maxReleaseNotes = 500
	maxCommitLine   = 100
)

func init() {
	core.Register(hostType, DefaultURL, func(baseURL string, c client.Doer) core.Host {
		return New(baseURL, c)
	})
}

type Host struct {
	baseURL string
	client  client.Doer
	urls    *URLs
}

func New(baseURL string, c client.Doer) *Host {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	return &Host{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  c,
		urls:    &URLs{},
	}
}

func (h *Host) Type() string {
	return hostType
}

func (h *Host) URLs() client.URLBuilder {
	return h.urls
}

type releaseResponse struct {
	TagName     string     `json:"tag_name"`
	Name        string     `json:"name"`
	ZipballURL  string     `json:"zipball_url"`
	PublishedAt *time.Time `json:"published_at"`
	Body        string     `json:"body"`
	Draft       bool       `json:"draft"`
	Prerelease  bool       `json:"prerelease"`
}

type tagResponse struct {
	Name   string `json:"name"`
	Commit struct {
		SHA string `json:"sha"`
		URL string `json:"url"`
	} `json:"commit"`
}

type commitResponse struct {
	SHA    string `json:"sha"`
	Commit struct {
		Message   string `json:"message"`
		Committer struct {
			Date *time.Time `json:"date"`
		} `json:"committer"`
	} `json:"commit"`
}

type branchResponse struct {
	Name   string         `json:"name"`
	Commit commitResponse `json:"commit"`
}

// LatestRelease fetches the most recent formal release.
func (h *Host) LatestRelease(ctx context.Context, repo string) (*core.ReleaseInfo, error) {
	url := fmt.Sprintf("%s/repos/%s/releases/latest", h.baseURL, repo)

	var resp releaseResponse
	if err := h.client.GetJSON(ctx, url, &resp); err != nil {
		if isNotFound(err) {
			return nil, &core.NotFoundError{Host: hostType, Repo: repo, Ref: "releases"}
		}
		return nil, err
	}

	rel := &core.ReleaseInfo{
		Version:      resp.TagName,
		DownloadURL:  resp.ZipballURL,
		PublishedAt:  resp.PublishedAt,
		ReleaseNotes: core.FirstLine(resp.Body, maxReleaseNotes),
	}

	// Resolve the release tag to its commit. Best effort only.
	if commit, err := h.commit(ctx, repo, resp.TagName); err == nil {
		rel.CommitSHA = commit.SHA
	}

	return rel, nil
}

// LatestTag fetches the most recently created tag. GitHub returns tags in
// reverse-chronological creation order.
func (h *Host) LatestTag(ctx context.Context, repo string) (*core.ReleaseInfo, error) {
	url := fmt.Sprintf("%s/repos/%s/tags", h.baseURL, repo)

	var tags []tagResponse
	if err := h.client.GetJSON(ctx, url, &tags); err != nil {
		if isNotFound(err) {
			return nil, &core.NotFoundError{Host: hostType, Repo: repo, Ref: "tags"}
		}
		return nil, err
	}
	if len(tags) == 0 {
		return nil, &core.NotFoundError{Host: hostType, Repo: repo, Ref: "tags"}
	}

	latest := tags[0]
	rel := &core.ReleaseInfo{
		Version:     latest.Name,
		DownloadURL: h.urls.Archive(repo, latest.Name),
		CommitSHA:   latest.Commit.SHA,
	}

	// Tags carry no publish timestamp; try the tagged commit's date instead.
	if commit, err := h.commit(ctx, repo, latest.Commit.SHA); err == nil {
		rel.PublishedAt = commit.Commit.Committer.Date
	}

	return rel, nil
}

// BranchHead fetches the named branch's HEAD commit.
func (h *Host) BranchHead(ctx context.Context, repo, branch string) (*core.ReleaseInfo, error) {
	url := fmt.Sprintf("%s/repos/%s/branches/%s", h.baseURL, repo, branch)

	var resp branchResponse
	if err := h.client.GetJSON(ctx, url, &resp); err != nil {
		if isNotFound(err) {
			return nil, &core.NotFoundError{Host: hostType, Repo: repo, Ref: branch}
		}
		return nil, err
	}

	return &core.ReleaseInfo{
		Version:       core.ShortSHA(resp.Commit.SHA),
		DownloadURL:   fmt.Sprintf("https://github.com/%s/archive/refs/heads/%s.zip", repo, branch),
		PublishedAt:   resp.Commit.Commit.Committer.Date,
		CommitSHA:     resp.Commit.SHA,
		CommitMessage: core.FirstLine(resp.Commit.Commit.Message, maxCommitLine),
	}, nil
}

// CheckRepo verifies the repository exists and is accessible.
func (h *Host) CheckRepo(ctx context.Context, repo string) error {
	url := fmt.Sprintf("%s/repos/%s", h.baseURL, repo)

	var resp struct {
		FullName      string `json:"full_name"`
		DefaultBranch string `json:"default_branch"`
		Private       bool   `json:"private"`
	}
	if err := h.client.GetJSON(ctx, url, &resp); err != nil {
		if isNotFound(err) {
			return &core.NotFoundError{Host: hostType, Repo: repo}
		}
		var he *client.HTTPError
		if errors.As(err, &he) && he.StatusCode == 403 {
			return fmt.Errorf("repository access denied (may be private): %s", repo)
		}
		return err
	}
	return nil
}

// DefaultBranch returns the repository's default branch, or "main" when the
// lookup fails.
func (h *Host) DefaultBranch(ctx context.Context, repo string) string {
	url := fmt.Sprintf("%s/repos/%s", h.baseURL, repo)

	var resp struct {
		DefaultBranch string `json:"default_branch"`
	}
	if err := h.client.GetJSON(ctx, url, &resp); err != nil || resp.DefaultBranch == "" {
		return core.DefaultBranch
	}
	return resp.DefaultBranch
}

type contentEntry struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	DownloadURL string `json:"download_url"`
}

// HasAddonManifest reports whether the repository contains an ESO addon
// manifest (a .txt or .addon file with a "## Title:" header) at the
// repository root or the given subdirectory.
func (h *Host) HasAddonManifest(ctx context.Context, repo, branch, path string) (bool, error) {
	url := fmt.Sprintf("%s/repos/%s/contents", h.baseURL, repo)
	if path != "" {
		url = fmt.Sprintf("%s/repos/%s/contents/%s", h.baseURL, repo, path)
	}
	if branch != "" {
		url += "?ref=" + branch
	}

	var files []contentEntry
	if err := h.client.GetJSON(ctx, url, &files); err != nil {
		if isNotFound(err) {
			return false, &core.NotFoundError{Host: hostType, Repo: repo, Ref: path}
		}
		return false, err
	}

	for _, f := range files {
		if f.Type != "file" || f.DownloadURL == "" {
			continue
		}
		if !strings.HasSuffix(f.Name, ".txt") && !strings.HasSuffix(f.Name, ".addon") {
			continue
		}
		body, err := h.client.GetBody(ctx, f.DownloadURL)
		if err != nil {
			continue
		}
		if strings.Contains(string(body), "## Title:") {
			return true, nil
		}
	}
	return false, nil
}

func (h *Host) commit(ctx context.Context, repo, ref string) (*commitResponse, error) {
	url := fmt.Sprintf("%s/repos/%s/commits/%s", h.baseURL, repo, ref)

	var resp commitResponse
	if err := h.client.GetJSON(ctx, url, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func isNotFound(err error) bool {
	var he *client.HTTPError
	return errors.As(err, &he) && he.IsNotFound()
}

// URLs builds GitHub web, archive and package URLs.
type URLs struct{}

func (u *URLs) Repository(repo string) string {
	return fmt.Sprintf("https://github.com/%s", repo)
}

func (u *URLs) Archive(repo, ref string) string {
	return fmt.Sprintf("https://github.com/%s/archive/refs/tags/%s.zip", repo, ref)
}

func (u *URLs) Mirror(repo, ref string) string {
	return fmt.Sprintf("https://codeload.github.com/%s/zip/refs/tags/%s", repo, ref)
}

func (u *URLs) PURL(repo, version string) string {
	owner, name, ok := strings.Cut(repo, "/")
	if !ok {
		return ""
	}
	return packageurl.NewPackageURL(packageurl.TypeGithub, owner, name, version, nil, "").ToString()
}
