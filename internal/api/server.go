// Package api exposes the crawl engine over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/avolkov/crawlkit/internal/crawler"
)

// Runner executes a single crawl run.
type Runner interface {
	Crawl(ctx context.Context, seedURL string) (crawler.Result, error)
}

// RunnerFactory builds a fresh Runner for each request. Engines are
// single-shot, so every crawl request gets its own.
type RunnerFactory func(cfg crawler.Config) (Runner, error)

// Server wires HTTP handlers to the crawl engine.
type Server struct {
	router  chi.Router
	factory RunnerFactory
	baseCfg crawler.Config
	log     *zap.Logger
}

// NewServer constructs a Server with routes and middleware. Collectors are
// registered against reg; nil uses the default registry.
func NewServer(factory RunnerFactory, baseCfg crawler.Config, reg prometheus.Registerer, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics, err := newHTTPMetrics(reg)
	if err != nil {
		return nil, err
	}
	s := &Server{
		factory: factory,
		baseCfg: baseCfg,
		log:     logger,
	}

	r := chi.NewRouter()
	r.Use(recoverMiddleware(logger))
	r.Use(metrics.middleware)

	r.Get("/healthz", s.healthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Post("/v1/crawl", s.runCrawl)

	s.router = r
	return s, nil
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// crawlRequest is the POST /v1/crawl body. Every field except seed_url is an
// optional override of the server's base configuration.
type crawlRequest struct {
	SeedURL             string `json:"seed_url"`
	MaxDepth            *int   `json:"max_depth,omitempty"`
	MaxPages            *int   `json:"max_pages,omitempty"`
	TimeoutMs           *int   `json:"timeout_ms,omitempty"`
	FollowExternalLinks *bool  `json:"follow_external_links,omitempty"`
	StartDomain         string `json:"start_domain,omitempty"`
	Concurrency         *int   `json:"concurrency,omitempty"`
}

type crawlResponse struct {
	RunID      string         `json:"run_id"`
	Pages      []pagePayload  `json:"pages"`
	FailedURLs []failedURL    `json:"failed_urls"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Counts     responseCounts `json:"counts"`
}

type pagePayload struct {
	URL        string `json:"url"`
	Title      string `json:"title"`
	StatusCode int    `json:"status_code"`
	Checksum   string `json:"checksum,omitempty"`
	Links      int    `json:"links"`
}

type failedURL struct {
	URL    string `json:"url"`
	Reason string `json:"reason"`
}

type responseCounts struct {
	Pages    int `json:"pages"`
	Failures int `json:"failures"`
}

func (s *Server) runCrawl(w http.ResponseWriter, r *http.Request) {
	var req crawlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.SeedURL == "" {
		writeError(w, http.StatusBadRequest, "seed_url is required")
		return
	}

	cfg := s.applyOverrides(req)
	runner, err := s.factory(cfg)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := runner.Crawl(r.Context(), req.SeedURL)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			status = http.StatusRequestTimeout
		}
		writeError(w, status, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, toResponse(result))
}

func (s *Server) applyOverrides(req crawlRequest) crawler.Config {
	cfg := s.baseCfg
	if req.MaxDepth != nil {
		cfg.MaxDepth = *req.MaxDepth
	}
	if req.MaxPages != nil {
		cfg.MaxPages = *req.MaxPages
	}
	if req.TimeoutMs != nil {
		cfg.Timeout = time.Duration(*req.TimeoutMs) * time.Millisecond
	}
	if req.FollowExternalLinks != nil {
		cfg.FollowExternalLinks = *req.FollowExternalLinks
	}
	if req.StartDomain != "" {
		cfg.StartDomain = req.StartDomain
	}
	if req.Concurrency != nil {
		cfg.Concurrency = *req.Concurrency
	}
	return cfg
}

func toResponse(result crawler.Result) crawlResponse {
	resp := crawlResponse{
		RunID:      result.RunID,
		Pages:      make([]pagePayload, 0, len(result.Pages)),
		FailedURLs: make([]failedURL, 0, len(result.Failures)),
		StartedAt:  result.StartTime,
		FinishedAt: result.EndTime,
		Counts: responseCounts{
			Pages:    len(result.Pages),
			Failures: len(result.Failures),
		},
	}
	for _, p := range result.Pages {
		resp.Pages = append(resp.Pages, pagePayload{
			URL:        p.URL,
			Title:      p.Title,
			StatusCode: p.StatusCode,
			Checksum:   p.Checksum,
			Links:      len(p.Links),
		})
	}
	for _, f := range result.Failures {
		resp.FailedURLs = append(resp.FailedURLs, failedURL{URL: f.URL, Reason: f.Reason})
	}
	return resp
}

func recoverMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("handler panic", zap.Any("panic", rec), zap.String("path", r.URL.Path))
					writeError(w, http.StatusInternalServerError, "internal error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
