package core

import (
	"fmt"

	"github.com/eso-addons/registry/client"
)

// NotFoundError wraps client.ErrNotFound with addon context.
type NotFoundError struct {
	Host string
	Repo string
	Ref  string
}

func (e *NotFoundError) Error() string {
	if e.Ref != "" {
		return fmt.Sprintf("%s: %s ref %s not found", e.Host, e.Repo, e.Ref)
	}
	return fmt.Sprintf("%s: repository %s not found", e.Host, e.Repo)
}

func (e *NotFoundError) Unwrap() error {
	return client.ErrNotFound
}

// ResolutionError records why a single addon's latest version could not be
// resolved. Callers treat it as "unknown latest version", never as a build
// failure.
type ResolutionError struct {
	Slug string
	Repo string
	Err  error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolving %s (%s): %v", e.Slug, e.Repo, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// DuplicateSlugError is build-fatal: slug uniqueness is load-bearing for
// every downstream lookup, so the build aborts rather than publishing an
// inconsistent index.
type DuplicateSlugError struct {
	Slug string
}

func (e *DuplicateSlugError) Error() string {
	return fmt.Sprintf("duplicate slug: %q", e.Slug)
}
