// Package all imports all supported hosting provider implementations.
//
// Import this package for its side effects to register all hosts:
//
//	import (
//		"github.com/eso-addons/registry"
//		_ "github.com/eso-addons/registry/all"
//	)
//
//	// Now all hosts are available
//	hosts := registry.SupportedHosts()
//	// ["github", "gitlab"]
package all

import (
	_ "github.com/eso-addons/registry/internal/github"
	_ "github.com/eso-addons/registry/internal/gitlab"
)
