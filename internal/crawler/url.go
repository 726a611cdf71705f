package crawler

import (
	"fmt"
	"net/url"
	"strings"
)

// Normalize reduces a URL to the canonical form used for "already seen"
// decisions. It lowercases the scheme and host, drops default ports, strips
// the fragment, and strips trailing slashes from the path, so two URLs that
// differ only by fragment or trailing slash map to the same identity.
// Normalize is idempotent.
func Normalize(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)

	switch u.Scheme {
	case "http":
		u.Host = strings.TrimSuffix(u.Host, ":80")
	case "https":
		u.Host = strings.TrimSuffix(u.Host, ":443")
	}

	u.Fragment = ""

	for strings.HasSuffix(u.Path, "/") {
		u.Path = strings.TrimSuffix(u.Path, "/")
	}

	return u.String(), nil
}
