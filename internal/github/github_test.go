package github

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/eso-addons/registry/client"
	"github.com/eso-addons/registry/internal/core"
)

func newTestHost(t *testing.T, handler http.Handler) *Host {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, client.NewClient(client.WithMaxRetries(0)))
}

func TestLatestRelease(t *testing.T) {
	host := newTestHost(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/someone/warmask/releases/latest":
			w.Write([]byte(`{
				"tag_name": "v1.3.0",
				"zipball_url": "https://api.github.com/repos/someone/warmask/zipball/v1.3.0",
				"published_at": "2024-12-01T12:00:00Z",
				"body": "Big fixes\n\nDetails below"
			}`))
		case "/repos/someone/warmask/commits/v1.3.0":
			w.Write([]byte(`{"sha": "a1b2c3d4e5f6a7b8c9d0"}`))
		default:
			http.NotFound(w, r)
		}
	}))

	rel, err := host.LatestRelease(context.Background(), "someone/warmask")
	if err != nil {
		t.Fatalf("LatestRelease failed: %v", err)
	}
	if rel.Version != "v1.3.0" {
		t.Errorf("version = %q, want v1.3.0", rel.Version)
	}
	if rel.PublishedAt == nil || rel.PublishedAt.Format("2006-01-02") != "2024-12-01" {
		t.Errorf("published_at = %v", rel.PublishedAt)
	}
	if rel.CommitSHA != "a1b2c3d4e5f6a7b8c9d0" {
		t.Errorf("commit sha = %q", rel.CommitSHA)
	}
	if rel.ReleaseNotes != "Big fixes" {
		t.Errorf("release notes = %q, want first line only", rel.ReleaseNotes)
	}
}

func TestLatestReleaseNotFound(t *testing.T) {
	host := newTestHost(t, http.NotFoundHandler())

	_, err := host.LatestRelease(context.Background(), "someone/warmask")
	if !errors.Is(err, client.ErrNotFound) {
		t.Errorf("LatestRelease = %v, want ErrNotFound", err)
	}
	var nfe *core.NotFoundError
	if !errors.As(err, &nfe) {
		t.Fatalf("LatestRelease = %T, want NotFoundError", err)
	}
	if nfe.Repo != "someone/warmask" {
		t.Errorf("repo = %q", nfe.Repo)
	}
}

func TestLatestTag(t *testing.T) {
	host := newTestHost(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/someone/libfoo/tags":
			w.Write([]byte(`[
				{"name": "r32", "commit": {"sha": "ffff1111ffff1111ffff"}},
				{"name": "r31", "commit": {"sha": "eeee2222eeee2222eeee"}}
			]`))
		case "/repos/someone/libfoo/commits/ffff1111ffff1111ffff":
			w.Write([]byte(`{"sha": "ffff1111ffff1111ffff", "commit": {"committer": {"date": "2024-11-20T08:00:00Z"}}}`))
		default:
			http.NotFound(w, r)
		}
	}))

	rel, err := host.LatestTag(context.Background(), "someone/libfoo")
	if err != nil {
		t.Fatalf("LatestTag failed: %v", err)
	}
	if rel.Version != "r32" {
		t.Errorf("version = %q, want newest tag r32", rel.Version)
	}
	if want := "https://github.com/someone/libfoo/archive/refs/tags/r32.zip"; rel.DownloadURL != want {
		t.Errorf("download url = %q, want %q", rel.DownloadURL, want)
	}
	if rel.PublishedAt == nil {
		t.Error("published_at not resolved from tagged commit")
	}
	if rel.CommitSHA != "ffff1111ffff1111ffff" {
		t.Errorf("commit sha = %q", rel.CommitSHA)
	}
}

func TestLatestTagEmpty(t *testing.T) {
	host := newTestHost(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))

	_, err := host.LatestTag(context.Background(), "someone/untagged")
	if !errors.Is(err, client.ErrNotFound) {
		t.Errorf("LatestTag with no tags = %v, want ErrNotFound", err)
	}
}

func TestBranchHead(t *testing.T) {
	host := newTestHost(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/someone/rolling/branches/main" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{
			"name": "main",
			"commit": {
				"sha": "a1b2c3d4e5f6a7b8c9d0e1f2",
				"commit": {"message": "Fix the thing\n\nLong explanation", "committer": {"date": "2024-12-10T09:00:00Z"}}
			}
		}`))
	}))

	rel, err := host.BranchHead(context.Background(), "someone/rolling", "main")
	if err != nil {
		t.Fatalf("BranchHead failed: %v", err)
	}
	if rel.Version != "a1b2c3d4e5f6" {
		t.Errorf("version = %q, want 12-char abbreviated sha", rel.Version)
	}
	if want := "https://github.com/someone/rolling/archive/refs/heads/main.zip"; rel.DownloadURL != want {
		t.Errorf("download url = %q, want %q", rel.DownloadURL, want)
	}
	if rel.CommitMessage != "Fix the thing" {
		t.Errorf("commit message = %q, want first line only", rel.CommitMessage)
	}
}

func TestCheckRepoPrivate(t *testing.T) {
	host := newTestHost(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))

	err := host.CheckRepo(context.Background(), "someone/secret")
	if err == nil {
		t.Fatal("CheckRepo on 403 = nil, want error")
	}
	if errors.Is(err, client.ErrNotFound) {
		t.Errorf("CheckRepo on 403 = %v, want an access error, not a missing repo", err)
	}
}

func TestDefaultBranch(t *testing.T) {
	host := newTestHost(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/someone/warmask" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"full_name": "someone/warmask", "default_branch": "develop"}`))
	}))

	if got := host.DefaultBranch(context.Background(), "someone/warmask"); got != "develop" {
		t.Errorf("DefaultBranch = %q, want develop", got)
	}
	if got := host.DefaultBranch(context.Background(), "someone/gone"); got != "main" {
		t.Errorf("DefaultBranch on missing repo = %q, want main fallback", got)
	}
}

func TestHasAddonManifest(t *testing.T) {
	var srvURL string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/someone/warmask/contents":
			w.Write([]byte(`[
				{"name": "README.md", "type": "file", "download_url": "` + srvURL + `/raw/README.md"},
				{"name": "WarMask.txt", "type": "file", "download_url": "` + srvURL + `/raw/WarMask.txt"}
			]`))
		case "/raw/README.md":
			w.Write([]byte("# WarMask"))
		case "/raw/WarMask.txt":
			w.Write([]byte("## Title: WarMask\n## APIVersion: 101041\n"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()
	srvURL = srv.URL

	host := New(srv.URL, client.NewClient(client.WithMaxRetries(0)))
	ok, err := host.HasAddonManifest(context.Background(), "someone/warmask", "", "")
	if err != nil {
		t.Fatalf("HasAddonManifest failed: %v", err)
	}
	if !ok {
		t.Error("manifest not detected")
	}
}

func TestHasAddonManifestAbsent(t *testing.T) {
	host := newTestHost(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"name": "main.lua", "type": "file", "download_url": ""}]`))
	}))

	ok, err := host.HasAddonManifest(context.Background(), "someone/bare", "", "")
	if err != nil {
		t.Fatalf("HasAddonManifest failed: %v", err)
	}
	if ok {
		t.Error("manifest detected in repository without one")
	}
}

func TestURLs(t *testing.T) {
	u := &URLs{}

	if got := u.Repository("someone/warmask"); got != "https://github.com/someone/warmask" {
		t.Errorf("Repository = %q", got)
	}
	if got := u.Mirror("someone/warmask", "v1.3.0"); got != "https://codeload.github.com/someone/warmask/zip/refs/tags/v1.3.0" {
		t.Errorf("Mirror = %q", got)
	}
	if got := u.PURL("someone/warmask", "v1.3.0"); got != "pkg:github/someone/warmask@v1.3.0" {
		t.Errorf("PURL = %q", got)
	}
	if got := u.PURL("not-a-repo", "v1"); got != "" {
		t.Errorf("PURL on malformed repo = %q, want empty", got)
	}
}
