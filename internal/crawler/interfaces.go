package crawler

import (
	"context"
	"time"
)

// Fetcher retrieves a single document over the network. Implementations must
// honor the context deadline and be safe for concurrent use.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (FetchResponse, error)
}

// Parser extracts the title, text content, and absolute outbound links from
// raw HTML. Implementations must be safe for concurrent use.
type Parser interface {
	Parse(rawHTML []byte, baseURL string) (ParseResult, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// Hasher fingerprints fetched document bodies. Checksums let downstream
// consumers detect content changes between runs without diffing bodies.
type Hasher interface {
	Hash(data []byte) (string, error)
}

// IDGenerator produces run IDs.
type IDGenerator interface {
	NewRunID() (string, error)
}
