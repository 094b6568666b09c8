package core

import (
	"context"
	"errors"
	"sync"

	"github.com/eso-addons/registry/client"
)

const defaultConcurrency = 10

// DefaultBranch is assumed when a branch-tracked source names no branch and
// the host cannot report the repository's configured default.
const DefaultBranch = "main"

// defaultBrancher is implemented by hosts that can look up a repository's
// configured default branch.
type defaultBrancher interface {
	DefaultBranch(ctx context.Context, repo string) string
}

// Resolve fetches the latest qualifying release, tag or commit for a source
// descriptor.
//
// For release-tracked sources, any existing formal release is authoritative
// over tags; tags are only consulted when the repository has no releases at
// all. Timestamps are never cross-compared between the two mechanisms.
//
// Branch-tracked sources that name no branch resolve against the
// repository's configured default branch when the host can report it,
// falling back to DefaultBranch.
func Resolve(ctx context.Context, host Host, src Source) (*ReleaseInfo, error) {
	switch src.ReleaseType {
	case ReleaseTypeBranch:
		branch := src.Branch
		if branch == "" {
			branch = DefaultBranch
			if db, ok := host.(defaultBrancher); ok {
				if b := db.DefaultBranch(ctx, src.Repo); b != "" {
					branch = b
				}
			}
		}
		return host.BranchHead(ctx, src.Repo, branch)

	case ReleaseTypeRelease:
		rel, err := host.LatestRelease(ctx, src.Repo)
		if err == nil {
			return rel, nil
		}
		if !errors.Is(err, client.ErrNotFound) {
			return nil, err
		}
		// No formal releases: fall back to tags
		return host.LatestTag(ctx, src.Repo)

	default:
		return host.LatestTag(ctx, src.Repo)
	}
}

// ResolveAll resolves the latest release for every addon in parallel with a
// bounded worker pool. Each addon's resolution is independent; a single
// failure degrades that addon to "unknown latest version" and is reported in
// the error map instead of failing the batch.
func ResolveAll(ctx context.Context, addons []AddonRecord, c client.Doer) (map[string]*ReleaseInfo, map[string]error) {
	return ResolveAllWithConcurrency(ctx, addons, c, defaultConcurrency)
}

// ResolveAllWithConcurrency resolves releases with a custom concurrency limit.
func ResolveAllWithConcurrency(ctx context.Context, addons []AddonRecord, c client.Doer, concurrency int) (map[string]*ReleaseInfo, map[string]error) {
	results := make(map[string]*ReleaseInfo)
	failures := make(map[string]error)
	var mu sync.Mutex
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for _, addon := range addons {
		wg.Add(1)
		go func(a AddonRecord) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return
			}

			host, err := New(a.Source.Type, "", c)
			if err != nil {
				mu.Lock()
				failures[a.Slug] = &ResolutionError{Slug: a.Slug, Repo: a.Source.Repo, Err: err}
				mu.Unlock()
				return
			}

			rel, err := Resolve(ctx, host, a.Source)
			mu.Lock()
			if err != nil {
				failures[a.Slug] = &ResolutionError{Slug: a.Slug, Repo: a.Source.Repo, Err: err}
			} else if rel != nil {
				results[a.Slug] = rel
			}
			mu.Unlock()
		}(addon)
	}

	wg.Wait()
	return results, failures
}
