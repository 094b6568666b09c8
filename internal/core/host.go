package core

import (
	"context"
	"fmt"
	"sync"

	"github.com/eso-addons/registry/client"
)

// Host is the interface implemented by all hosting provider clients.
type Host interface {
	// Type returns the host type for this provider (e.g., "github", "gitlab").
	Type() string

	// LatestRelease retrieves the most recent formal release.
	// Returns client.ErrNotFound (wrapped) when the repository has none.
	LatestRelease(ctx context.Context, repo string) (*ReleaseInfo, error)

	// LatestTag retrieves the most recently created tag. Hosting APIs return
	// tags in reverse-chronological creation order, not semantic order.
	LatestTag(ctx context.Context, repo string) (*ReleaseInfo, error)

	// BranchHead retrieves the named branch's HEAD commit.
	BranchHead(ctx context.Context, repo, branch string) (*ReleaseInfo, error)

	// CheckRepo verifies the repository exists and is accessible.
	CheckRepo(ctx context.Context, repo string) error

	// URLs returns the URL builder for this host.
	URLs() client.URLBuilder
}

// Factory creates a host instance for a given base URL.
type Factory func(baseURL string, c client.Doer) Host

var (
	factories = make(map[string]Factory)
	defaults  = make(map[string]string)
	builders  = make(map[string]client.URLBuilder)
	mu        sync.RWMutex
)

// Register adds a host factory to the global registry.
// hostType is the source type (e.g., "github", "gitlab").
// defaultURL is the default API base URL for the host.
func Register(hostType string, defaultURL string, factory Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[hostType] = factory
	defaults[hostType] = defaultURL
	delete(builders, hostType)
}

// New creates a new host client for the given host type.
// If baseURL is empty, the default API URL is used.
func New(hostType string, baseURL string, c client.Doer) (Host, error) {
	mu.RLock()
	factory, ok := factories[hostType]
	defaultURL := defaults[hostType]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unsupported host type: %s", hostType)
	}

	if baseURL == "" {
		baseURL = defaultURL
	}

	if c == nil {
		c = client.DefaultClient()
	}

	return factory(baseURL, c), nil
}

// URLsFor returns the URL builder for a registered host type, or nil when
// the type is unknown. Builders are stateless and never touch the network,
// so one instance per type is created lazily and shared; no API client is
// constructed.
func URLsFor(hostType string) client.URLBuilder {
	mu.RLock()
	b, ok := builders[hostType]
	mu.RUnlock()
	if ok {
		return b
	}

	mu.Lock()
	defer mu.Unlock()
	if b, ok := builders[hostType]; ok {
		return b
	}
	factory, ok := factories[hostType]
	if !ok {
		return nil
	}
	// The host is created only to reach its URLs; nil is safe here because
	// URL building takes no client.
	b = factory(defaults[hostType], nil).URLs()
	builders[hostType] = b
	return b
}

// SupportedHosts returns all registered host types.
func SupportedHosts() []string {
	mu.RLock()
	defer mu.RUnlock()

	hosts := make([]string, 0, len(factories))
	for h := range factories {
		hosts = append(hosts, h)
	}
	return hosts
}

// DefaultURL returns the default API base URL for a host type.
func DefaultURL(hostType string) string {
	mu.RLock()
	defer mu.RUnlock()
	return defaults[hostType]
}
