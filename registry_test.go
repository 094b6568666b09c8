package registry_test

import (
	"slices"
	"testing"

	"github.com/eso-addons/registry"
	_ "github.com/eso-addons/registry/all"
)

func TestSupportedHosts(t *testing.T) {
	hosts := registry.SupportedHosts()
	for _, want := range []string{"github", "gitlab"} {
		if !slices.Contains(hosts, want) {
			t.Errorf("SupportedHosts() = %v, missing %q", hosts, want)
		}
	}
}

func TestNewHost(t *testing.T) {
	host, err := registry.NewHost(registry.HostGitHub, "", nil)
	if err != nil {
		t.Fatalf("NewHost failed: %v", err)
	}
	if host.Type() != "github" {
		t.Errorf("Type() = %q, want github", host.Type())
	}
	if host.URLs() == nil {
		t.Error("URLs() = nil")
	}
}

func TestNewHostUnsupported(t *testing.T) {
	if _, err := registry.NewHost("sourceforge", "", nil); err == nil {
		t.Error("NewHost for unsupported type = nil error")
	}
}

func TestDefaultURL(t *testing.T) {
	if got := registry.DefaultURL("github"); got != "https://api.github.com" {
		t.Errorf("DefaultURL(github) = %q", got)
	}
	if got := registry.DefaultURL("gitlab"); got != "https://gitlab.com/api/v4" {
		t.Errorf("DefaultURL(gitlab) = %q", got)
	}
}
