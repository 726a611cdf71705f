package crawler

import (
	"context"
	"fmt"
	"time"
)

// HTTPStatusError reports a fetch that completed with a non-2xx status.
type HTTPStatusError struct {
	StatusCode int
}

// Error implements the error interface.
func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("unexpected http status %d", e.StatusCode)
}

// Processor is the fetch/parse unit: it turns one URL into a Page using the
// external Fetcher and Parser collaborators. It mutates no shared state, so
// any number of workers may call it concurrently.
type Processor struct {
	fetcher Fetcher
	parser  Parser
	hasher  Hasher
	timeout time.Duration
}

// NewProcessor wires the collaborators behind a single "process one URL"
// operation with the given per-fetch timeout. A nil hasher disables body
// checksums.
func NewProcessor(fetcher Fetcher, parser Parser, hasher Hasher, timeout time.Duration) *Processor {
	return &Processor{fetcher: fetcher, parser: parser, hasher: hasher, timeout: timeout}
}

// Process fetches and parses a single URL. Network errors, timeouts, non-2xx
// statuses, and unparsable content all surface as an error carrying the URL.
func (p *Processor) Process(ctx context.Context, rawURL string) (Page, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.fetcher.Fetch(fetchCtx, rawURL)
	if err != nil {
		return Page{}, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Page{}, fmt.Errorf("fetch %s: %w", rawURL, &HTTPStatusError{StatusCode: resp.StatusCode})
	}

	doc, err := p.parser.Parse(resp.Body, rawURL)
	if err != nil {
		return Page{}, fmt.Errorf("parse %s: %w", rawURL, err)
	}

	var checksum string
	if p.hasher != nil {
		checksum, err = p.hasher.Hash(resp.Body)
		if err != nil {
			return Page{}, fmt.Errorf("checksum %s: %w", rawURL, err)
		}
	}

	return NewPage(rawURL, doc.Title, resp.StatusCode, doc.Text, checksum, doc.Links), nil
}
