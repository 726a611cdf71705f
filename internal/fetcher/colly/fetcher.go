// Package collyfetcher implements crawler.Fetcher using gocolly.
package collyfetcher

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/avolkov/crawlkit/internal/crawler"
)

// Config controls collector behavior.
type Config struct {
	UserAgent string
	Timeout   time.Duration
}

// Fetcher performs single-URL HTTP GETs through a shared Colly collector.
// Revisit tracking is disabled: deduplication belongs to the coordinator,
// not the transport.
type Fetcher struct {
	cfg  Config
	base *colly.Collector
	log  *zap.Logger
}

// New builds a Fetcher with a pooled HTTP transport.
func New(cfg Config, logger *zap.Logger) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	base := colly.NewCollector(colly.Async(false))
	base.AllowURLRevisit = true
	base.IgnoreRobotsTxt = true
	if cfg.UserAgent != "" {
		base.UserAgent = cfg.UserAgent
	}
	base.WithTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	})

	return &Fetcher{cfg: cfg, base: base, log: logger}
}

// Fetch executes one HTTP GET. Responses with non-2xx statuses are returned
// with their status code rather than as errors; the coordinator decides what
// a status means. Only transport-level problems produce an error.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (crawler.FetchResponse, error) {
	collector := f.base.Clone()

	timeout := f.cfg.Timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if timeout <= 0 {
		return crawler.FetchResponse{}, fmt.Errorf("fetch %s: %w", rawURL, context.DeadlineExceeded)
	}
	collector.SetRequestTimeout(timeout)

	// The visit goroutine owns all callback state and hands back exactly one
	// result. On cancellation the goroutine is abandoned with its state; the
	// buffered channel lets it finish and be collected without a rendezvous.
	done := make(chan visitResult, 1)
	go func() {
		done <- runVisit(collector, rawURL)
	}()

	select {
	case <-ctx.Done():
		return crawler.FetchResponse{}, fmt.Errorf("fetch %s canceled: %w", rawURL, ctx.Err())
	case res := <-done:
		return res.resp, res.err
	}
}

type visitResult struct {
	resp crawler.FetchResponse
	err  error
}

func runVisit(collector *colly.Collector, rawURL string) visitResult {
	var (
		resp   crawler.FetchResponse
		cbErr  error
		toResp = func(r *colly.Response) crawler.FetchResponse {
			return crawler.FetchResponse{
				URL:        r.Request.URL.String(),
				StatusCode: r.StatusCode,
				Body:       append([]byte(nil), r.Body...),
			}
		}
	)
	collector.OnResponse(func(r *colly.Response) {
		resp = toResp(r)
	})
	collector.OnError(func(r *colly.Response, err error) {
		// Colly reports HTTP error statuses here with the response attached.
		if r != nil && r.StatusCode > 0 {
			resp = toResp(r)
			return
		}
		cbErr = err
	})

	visitErr := collector.Visit(rawURL)
	collector.Wait()

	// Visit reports HTTP error statuses as errors as well; a captured
	// response wins so the coordinator sees the status code.
	if resp.StatusCode > 0 {
		return visitResult{resp: resp}
	}
	if visitErr != nil {
		return visitResult{err: fmt.Errorf("fetch %s: %w", rawURL, visitErr)}
	}
	if cbErr != nil {
		return visitResult{err: fmt.Errorf("fetch %s: %w", rawURL, cbErr)}
	}
	return visitResult{err: fmt.Errorf("fetch %s: no response produced", rawURL)}
}
