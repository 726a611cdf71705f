package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/avolkov/crawlkit/internal/crawler"
)

type fakeRunner struct {
	result crawler.Result
	err    error
	seed   string
}

func (f *fakeRunner) Crawl(_ context.Context, seedURL string) (crawler.Result, error) {
	f.seed = seedURL
	return f.result, f.err
}

func newTestServer(t *testing.T, factory RunnerFactory) *Server {
	t.Helper()
	server, err := NewServer(factory, baseConfig(), prometheus.NewRegistry(), zap.NewNop())
	require.NoError(t, err)
	return server
}

func baseConfig() crawler.Config {
	return crawler.Config{
		MaxDepth:    2,
		MaxPages:    10,
		Timeout:     5 * time.Second,
		Concurrency: 4,
	}
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRunCrawlSuccess(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	runner := &fakeRunner{
		result: crawler.Result{
			RunID: "run-42",
			Pages: []crawler.Page{
				{URL: "http://site.test/index", Title: "Index", StatusCode: 200, Links: []string{"http://site.test/a"}},
			},
			Failures:  []crawler.Failure{{URL: "http://site.test/bad", Reason: "boom"}},
			StartTime: now,
			EndTime:   now.Add(time.Second),
		},
	}
	var gotCfg crawler.Config
	factory := func(cfg crawler.Config) (Runner, error) {
		gotCfg = cfg
		return runner, nil
	}
	server := newTestServer(t, factory)

	body := `{"seed_url":"http://site.test/index","max_pages":3,"concurrency":2}`
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/crawl", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "http://site.test/index", runner.seed)
	require.Equal(t, 3, gotCfg.MaxPages)
	require.Equal(t, 2, gotCfg.Concurrency)
	require.Equal(t, 2, gotCfg.MaxDepth) // untouched base value

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "run-42", resp["run_id"])

	counts, ok := resp["counts"].(map[string]any)
	require.True(t, ok)
	require.EqualValues(t, 1, counts["pages"])
	require.EqualValues(t, 1, counts["failures"])
}

func TestRunCrawlValidation(t *testing.T) {
	t.Parallel()

	factory := func(crawler.Config) (Runner, error) {
		return &fakeRunner{}, nil
	}
	server := newTestServer(t, factory)

	t.Run("invalid json", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/crawl", strings.NewReader("{broken")))
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing seed", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/crawl", strings.NewReader(`{}`)))
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestRunCrawlFactoryErrorIsBadRequest(t *testing.T) {
	t.Parallel()

	factory := func(cfg crawler.Config) (Runner, error) {
		return nil, cfg.Validate()
	}
	server := newTestServer(t, factory)

	// max_pages 0 survives the override and fails engine construction.
	body := `{"seed_url":"http://site.test","max_pages":0}`
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/crawl", strings.NewReader(body)))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRunCrawlTimeoutMapsTo408(t *testing.T) {
	t.Parallel()

	factory := func(crawler.Config) (Runner, error) {
		return &fakeRunner{err: context.DeadlineExceeded}, nil
	}
	server := newTestServer(t, factory)

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/crawl", strings.NewReader(`{"seed_url":"http://site.test"}`)))
	require.Equal(t, http.StatusRequestTimeout, rec.Code)
}

func TestRecoverMiddleware(t *testing.T) {
	t.Parallel()

	factory := func(crawler.Config) (Runner, error) {
		panic("boom")
	}
	server := newTestServer(t, factory)

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/crawl", strings.NewReader(`{"seed_url":"http://site.test"}`)))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}
