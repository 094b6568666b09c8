// Package registry builds the published ESO addon index: it aggregates
// per-addon metadata files, polls hosting APIs for release information, and
// compiles everything into static JSON artifacts.
//
// The package supports multiple hosting providers (GitHub, GitLab) with a
// unified interface for resolving the latest release, tag or branch commit.
//
// Basic usage:
//
//	import (
//		"context"
//		"github.com/eso-addons/registry"
//		_ "github.com/eso-addons/registry/all"
//	)
//
//	host, err := registry.NewHost("github", "", registry.DefaultClient())
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	rel, err := host.LatestRelease(context.Background(), "esoui/esoui")
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(rel.Version, rel.DownloadURL)
package registry

import (
	"context"

	"github.com/eso-addons/registry/client"
	"github.com/eso-addons/registry/internal/core"
)

// Re-export types from internal/core
type (
	// Host is the interface implemented by all hosting provider clients.
	Host = core.Host

	// AddonRecord is one approved addon entry.
	AddonRecord = core.AddonRecord

	// Source describes where an addon's code is hosted.
	Source = core.Source

	// Compatibility describes game and dependency requirements.
	Compatibility = core.Compatibility

	// ReleaseInfo is the resolved latest version for one addon.
	ReleaseInfo = core.ReleaseInfo
)

// Re-export types from client
type (
	// Client is an HTTP client with retry logic for hosting APIs.
	Client = client.Client

	// Doer is the request surface hosting providers depend on.
	Doer = client.Doer

	// BreakerClient wraps a Client with per-host circuit breakers.
	BreakerClient = client.BreakerClient

	// URLBuilder constructs URLs for a hosting provider.
	URLBuilder = client.URLBuilder
)

// Re-export constants
const (
	HostGitHub = core.HostGitHub
	HostGitLab = core.HostGitLab
	HostCustom = core.HostCustom

	ReleaseTypeTag     = core.ReleaseTypeTag
	ReleaseTypeRelease = core.ReleaseTypeRelease
	ReleaseTypeBranch  = core.ReleaseTypeBranch

	StatusPending    = core.StatusPending
	StatusApproved   = core.StatusApproved
	StatusDeprecated = core.StatusDeprecated
	StatusRemoved    = core.StatusRemoved
)

// Re-export errors
var (
	ErrNotFound     = client.ErrNotFound
	ErrUpstreamDown = client.ErrUpstreamDown
)

// Error types
type (
	HTTPError          = client.HTTPError
	RateLimitError     = client.RateLimitError
	NotFoundError      = core.NotFoundError
	ResolutionError    = core.ResolutionError
	DuplicateSlugError = core.DuplicateSlugError
)

// NewHost creates a new hosting client for the given host type.
// If baseURL is empty, the default API URL is used.
// If c is nil, DefaultClient() is used.
//
// Supported hosts: "github", "gitlab"
func NewHost(hostType string, baseURL string, c Doer) (Host, error) {
	return core.New(hostType, baseURL, c)
}

// DefaultClient returns a client with sensible defaults:
// 30s timeout, 3 retries with exponential backoff, retry on 429 and 5xx.
func DefaultClient() *Client {
	return client.DefaultClient()
}

// NewClient creates a new client with the given options.
func NewClient(opts ...Option) *Client {
	return client.NewClient(opts...)
}

// NewBreakerClient wraps a client with per-host circuit breakers.
func NewBreakerClient(c *Client) *BreakerClient {
	return client.NewBreakerClient(c)
}

// Option configures a Client.
type Option = client.Option

// WithTimeout sets the HTTP client timeout.
var WithTimeout = client.WithTimeout

// WithMaxRetries sets the maximum number of retries.
var WithMaxRetries = client.WithMaxRetries

// WithAuthFunc sets a function that returns an auth header for a given URL.
var WithAuthFunc = client.WithAuthFunc

// SupportedHosts returns all registered host types.
// Note: hosts must be imported to be registered.
func SupportedHosts() []string {
	return core.SupportedHosts()
}

// DefaultURL returns the default API base URL for a host type.
func DefaultURL(hostType string) string {
	return core.DefaultURL(hostType)
}

// Resolve fetches the latest qualifying release, tag or commit for a source
// descriptor.
func Resolve(ctx context.Context, host Host, src Source) (*ReleaseInfo, error) {
	return core.Resolve(ctx, host, src)
}

// ResolveAll resolves the latest release for every addon in parallel with a
// bounded worker pool. A single addon's failure degrades that addon to
// "unknown latest version" instead of failing the batch.
func ResolveAll(ctx context.Context, addons []AddonRecord, c Doer) (map[string]*ReleaseInfo, map[string]error) {
	return core.ResolveAll(ctx, addons, c)
}

// ResolveAllWithConcurrency resolves releases with a custom concurrency limit.
func ResolveAllWithConcurrency(ctx context.Context, addons []AddonRecord, c Doer, concurrency int) (map[string]*ReleaseInfo, map[string]error) {
	return core.ResolveAllWithConcurrency(ctx, addons, c, concurrency)
}
