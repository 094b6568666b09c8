package client

// URLBuilder constructs web, archive and package URLs for a hosting
// provider. Building URLs needs no network access.
//
// Mirror may return "" when the host has no CDN-backed archive endpoint;
// callers skip the mirror source in that case.
type URLBuilder interface {
	Repository(repo string) string
	Archive(repo, ref string) string
	Mirror(repo, ref string) string
	PURL(repo, version string) string
}
