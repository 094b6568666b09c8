// Package gitlab provides a hosting client for the GitLab REST API (v4).
package gitlab

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	packageurl "github.com/package-url/packageurl-go"

	"github.com/eso-addons/registry/client"
	"github.com/eso-addons/registry/internal/core"
)

const (
	DefaultURL = "https://gitlab.com/api/v4"
	hostType   = "gitlab"

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

type commitInfo struct {
	ID            string     `json:"id"`
	Message       string     `json:"message"`
	CommittedDate *time.Time `json:"committed_date"`
}

type releaseResponse struct {
	TagName     string     `json:"tag_name"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	ReleasedAt  *time.Time `json:"released_at"`
	Commit      commitInfo `json:"commit"`
	Assets      struct {
		Sources []struct {
			Format string `json:"format"`
			URL    string `json:"url"`
		} `json:"sources"`
	} `json:"assets"`
}

type tagResponse struct {
	Name   string     `json:"name"`
	Commit commitInfo `json:"commit"`
}

type branchResponse struct {
	Name   string     `json:"name"`
	Commit commitInfo `json:"commit"`
}

// LatestRelease fetches the most recent formal release.
func (h *Host) LatestRelease(ctx context.Context, repo string) (*core.ReleaseInfo, error) {
	u := fmt.Sprintf("%s/projects/%s/releases", h.baseURL, url.PathEscape(repo))

	var releases []releaseResponse
	if err := h.client.GetJSON(ctx, u, &releases); err != nil {
		if isNotFound(err) {
			return nil, &core.NotFoundError{Host: hostType, Repo: repo, Ref: "releases"}
		}
		return nil, err
	}
	if len(releases) == 0 {
		return nil, &core.NotFoundError{Host: hostType, Repo: repo, Ref: "releases"}
	}

	latest := releases[0]
	download := h.urls.Archive(repo, latest.TagName)
	for _, src := range latest.Assets.Sources {
		if src.Format == "zip" && src.URL != "" {
			download = src.URL
			break
		}
	}

	return &core.ReleaseInfo{
		Version:      latest.TagName,
		DownloadURL:  download,
		PublishedAt:  latest.ReleasedAt,
		CommitSHA:    latest.Commit.ID,
		ReleaseNotes: core.FirstLine(latest.Description, maxReleaseNotes),
	}, nil
}

// LatestTag fetches the most recently updated tag.
func (h *Host) LatestTag(ctx context.Context, repo string) (*core.ReleaseInfo, error) {
	u := fmt.Sprintf("%s/projects/%s/repository/tags", h.baseURL, url.PathEscape(repo))

	var tags []tagResponse
	if err := h.client.GetJSON(ctx, u, &tags); err != nil {
		if isNotFound(err) {
			return nil, &core.NotFoundError{Host: hostType, Repo: repo, Ref: "tags"}
		}
		return nil, err
	}
	if len(tags) == 0 {
		return nil, &core.NotFoundError{Host: hostType, Repo: repo, Ref: "tags"}
	}

	latest := tags[0]
	return &core.ReleaseInfo{
		Version:     latest.Name,
		DownloadURL: h.urls.Archive(repo, latest.Name),
		PublishedAt: latest.Commit.CommittedDate,
		CommitSHA:   latest.Commit.ID,
	}, nil
}

// BranchHead fetches the named branch's HEAD commit.
func (h *Host) BranchHead(ctx context.Context, repo, branch string) (*core.ReleaseInfo, error) {
	u := fmt.Sprintf("%s/projects/%s/repository/branches/%s", h.baseURL, url.PathEscape(repo), url.PathEscape(branch))

	var resp branchResponse
	if err := h.client.GetJSON(ctx, u, &resp); err != nil {
		if isNotFound(err) {
			return nil, &core.NotFoundError{Host: hostType, Repo: repo, Ref: branch}
		}
		return nil, err
	}

	return &core.ReleaseInfo{
		Version:       core.ShortSHA(resp.Commit.ID),
		DownloadURL:   h.branchArchive(repo, branch),
		PublishedAt:   resp.Commit.CommittedDate,
		CommitSHA:     resp.Commit.ID,
		CommitMessage: core.FirstLine(resp.Commit.Message, maxCommitLine),
	}, nil
}

// CheckRepo verifies the project exists and is accessible.
func (h *Host) CheckRepo(ctx context.Context, repo string) error {
	u := fmt.Sprintf("%s/projects/%s", h.baseURL, url.PathEscape(repo))

	var resp struct {
		PathWithNamespace string `json:"path_with_namespace"`
	}
	if err := h.client.GetJSON(ctx, u, &resp); err != nil {
		if isNotFound(err) {
			return &core.NotFoundError{Host: hostType, Repo: repo}
		}
		return err
	}
	return nil
}

func (h *Host) branchArchive(repo, branch string) string {
	return fmt.Sprintf("https://gitlab.com/%s/-/archive/%s/%s-%s.zip", repo, branch, projectName(repo), branch)
}

func isNotFound(err error) bool {
	var he *client.HTTPError
	return errors.As(err, &he) && he.IsNotFound()
}

func projectName(repo string) string {
	if idx := strings.LastIndex(repo, "/"); idx >= 0 {
		return repo[idx+1:]
	}
	return repo
}

// URLs builds GitLab web, archive and package URLs.
type URLs struct{}

func (u *URLs) Repository(repo string) string {
	return fmt.Sprintf("https://gitlab.com/%s", repo)
}

func (u *URLs) Archive(repo, ref string) string {
	return fmt.Sprintf("https://gitlab.com/%s/-/archive/%s/%s-%s.zip", repo, ref, projectName(repo), ref)
}

func (u *URLs) Mirror(repo, ref string) string {
	// GitLab serves archives from the project host only
	return ""
}

func (u *URLs) PURL(repo, version string) string {
	idx := strings.LastIndex(repo, "/")
	if idx < 0 {
		return ""
	}
	namespace, name := repo[:idx], repo[idx+1:]
	return packageurl.NewPackageURL("gitlab", namespace, name, version, nil, "").ToString()
}
