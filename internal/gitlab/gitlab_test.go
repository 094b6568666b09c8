package gitlab

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/eso-addons/registry/client"
)

func newTestHost(t *testing.T, handler http.Handler) *Host {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, client.NewClient(client.WithMaxRetries(0)))
}

func TestLatestReleasePrefersSourceAsset(t *testing.T) {
	host := newTestHost(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/projects/group%2Fwarmask/releases" && r.URL.Path != "/projects/group/warmask/releases" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`[{
			"tag_name": "v2.0.0",
			"description": "Release notes here",
			"released_at": "2024-12-01T12:00:00Z",
			"commit": {"id": "abc123def456abc123de"},
			"assets": {"sources": [
				{"format": "tar.gz", "url": "https://gitlab.com/group/warmask/-/archive/v2.0.0/warmask-v2.0.0.tar.gz"},
				{"format": "zip", "url": "https://gitlab.com/group/warmask/-/archive/v2.0.0/warmask-v2.0.0.zip"}
			]}
		}]`))
	}))

	rel, err := host.LatestRelease(context.Background(), "group/warmask")
	if err != nil {
		t.Fatalf("LatestRelease failed: %v", err)
	}
	if rel.Version != "v2.0.0" {
		t.Errorf("version = %q", rel.Version)
	}
	if want := "https://gitlab.com/group/warmask/-/archive/v2.0.0/warmask-v2.0.0.zip"; rel.DownloadURL != want {
		t.Errorf("download url = %q, want zip source asset", rel.DownloadURL)
	}
	if rel.CommitSHA != "abc123def456abc123de" {
		t.Errorf("commit sha = %q", rel.CommitSHA)
	}
	if rel.ReleaseNotes != "Release notes here" {
		t.Errorf("release notes = %q", rel.ReleaseNotes)
	}
}

func TestLatestReleaseEmptyList(t *testing.T) {
	host := newTestHost(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))

	_, err := host.LatestRelease(context.Background(), "group/quiet")
	if !errors.Is(err, client.ErrNotFound) {
		t.Errorf("LatestRelease with no releases = %v, want ErrNotFound", err)
	}
}

func TestLatestTag(t *testing.T) {
	host := newTestHost(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{
			"name": "v1.1.0",
			"commit": {"id": "ffff1111ffff1111ffff", "committed_date": "2024-11-20T08:00:00Z"}
		}]`))
	}))

	rel, err := host.LatestTag(context.Background(), "group/libfoo")
	if err != nil {
		t.Fatalf("LatestTag failed: %v", err)
	}
	if rel.Version != "v1.1.0" {
		t.Errorf("version = %q", rel.Version)
	}
	if want := "https://gitlab.com/group/libfoo/-/archive/v1.1.0/libfoo-v1.1.0.zip"; rel.DownloadURL != want {
		t.Errorf("download url = %q, want %q", rel.DownloadURL, want)
	}
	if rel.PublishedAt == nil {
		t.Error("published_at not taken from tag commit")
	}
}

func TestBranchHead(t *testing.T) {
	host := newTestHost(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"name": "main",
			"commit": {
				"id": "a1b2c3d4e5f6a7b8c9d0e1f2",
				"message": "Tweak tooltips\n\nmore detail",
				"committed_date": "2024-12-10T09:00:00Z"
			}
		}`))
	}))

	rel, err := host.BranchHead(context.Background(), "group/rolling", "main")
	if err != nil {
		t.Fatalf("BranchHead failed: %v", err)
	}
	if rel.Version != "a1b2c3d4e5f6" {
		t.Errorf("version = %q, want 12-char abbreviated sha", rel.Version)
	}
	if rel.CommitMessage != "Tweak tooltips" {
		t.Errorf("commit message = %q, want first line only", rel.CommitMessage)
	}
	if want := "https://gitlab.com/group/rolling/-/archive/main/rolling-main.zip"; rel.DownloadURL != want {
		t.Errorf("download url = %q, want %q", rel.DownloadURL, want)
	}
}

func TestCheckRepoNotFound(t *testing.T) {
	host := newTestHost(t, http.NotFoundHandler())

	err := host.CheckRepo(context.Background(), "group/gone")
	if !errors.Is(err, client.ErrNotFound) {
		t.Errorf("CheckRepo = %v, want ErrNotFound", err)
	}
}

func TestURLs(t *testing.T) {
	u := &URLs{}

	if got := u.Repository("group/warmask"); got != "https://gitlab.com/group/warmask" {
		t.Errorf("Repository = %q", got)
	}
	if got := u.Archive("group/warmask", "v2.0.0"); got != "https://gitlab.com/group/warmask/-/archive/v2.0.0/warmask-v2.0.0.zip" {
		t.Errorf("Archive = %q", got)
	}
	if got := u.Mirror("group/warmask", "v2.0.0"); got != "" {
		t.Errorf("Mirror = %q, want empty", got)
	}
	if got := u.PURL("group/sub/warmask", "v2.0.0"); got != "pkg:gitlab/group/sub/warmask@v2.0.0" {
		t.Errorf("PURL = %q", got)
	}
}
