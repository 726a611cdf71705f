package crawler

import (
	"net/url"
	"strings"
)

// LinkPolicy is the pure predicate deciding whether a discovered link may
// enter the frontier. It checks scheme and domain only; deduplication is the
// SeenSet's job and is composed by the caller.
type LinkPolicy struct {
	FollowExternal bool
	StartDomain    string
}

// Allow reports whether the link has an http/https scheme and, when external
// links are disallowed, whether its host matches the start domain.
func (p LinkPolicy) Allow(link string) bool {
	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return false
	}
	if p.FollowExternal {
		return true
	}
	return strings.EqualFold(u.Hostname(), p.StartDomain)
}
