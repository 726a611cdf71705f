package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/avolkov/crawlkit/internal/clock/system"
	sha256hash "github.com/avolkov/crawlkit/internal/hash/sha256"
	idgen "github.com/avolkov/crawlkit/internal/id/uuid"
	"github.com/avolkov/crawlkit/internal/progress"
)

// defaultPollWait is how long an idle worker waits on the frontier before
// re-checking the termination condition.
const defaultPollWait = 150 * time.Millisecond

// Engine-level sentinel errors surfaced before any network activity.
var (
	ErrEmptySeed      = errors.New("seed url must not be empty")
	ErrEngineConsumed = errors.New("engine already ran; runs are single-shot")
)

// Engine is the crawl orchestrator. It validates configuration, seeds the
// frontier, runs the worker pool, and returns the aggregated result once the
// run reaches Completed. An Engine executes exactly one run.
type Engine struct {
	cfg   Config
	proc  *Processor
	clock Clock
	ids   IDGenerator
	hub   *progress.Hub
	log   *zap.Logger

	pollWait time.Duration
	state    atomic.Int32
}

// NewEngine builds an Engine, failing fast on invalid configuration. The hub
// may be nil when no progress reporting is wanted.
func NewEngine(cfg Config, fetcher Fetcher, parser Parser, hub *progress.Hub, logger *zap.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("crawl config: %w", err)
	}
	if fetcher == nil {
		return nil, errors.New("fetcher is required")
	}
	if parser == nil {
		return nil, errors.New("parser is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		cfg:      cfg,
		proc:     NewProcessor(fetcher, parser, sha256hash.New(), cfg.Timeout),
		clock:    system.New(),
		ids:      idgen.NewGenerator(),
		hub:      hub,
		log:      logger,
		pollWait: defaultPollWait,
	}, nil
}

// State reports the current lifecycle phase of the engine's run.
func (e *Engine) State() State {
	return State(e.state.Load())
}

// Crawl executes the run: it claims and enqueues the seed at depth 0, starts
// the configured workers, waits for the pool to drain, and returns the
// immutable result. A seed that fails to fetch is a normal terminal outcome
// with zero pages and one failure, not an error.
func (e *Engine) Crawl(ctx context.Context, seedURL string) (Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if strings.TrimSpace(seedURL) == "" {
		return Result{}, ErrEmptySeed
	}
	seed, err := Normalize(seedURL)
	if err != nil {
		return Result{}, fmt.Errorf("seed url: %w", err)
	}
	seedParsed, err := url.Parse(seed)
	if err != nil {
		return Result{}, fmt.Errorf("seed url: %w", err)
	}
	if seedParsed.Scheme != "http" && seedParsed.Scheme != "https" {
		return Result{}, fmt.Errorf("seed url %q: scheme must be http or https", seedURL)
	}
	if seedParsed.Hostname() == "" {
		return Result{}, fmt.Errorf("seed url %q: missing host", seedURL)
	}

	if !e.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		return Result{}, ErrEngineConsumed
	}

	cfg := e.cfg
	if !cfg.FollowExternalLinks && cfg.StartDomain == "" {
		cfg.StartDomain = seedParsed.Hostname()
	}
	if cfg.MaxRunTime > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.MaxRunTime)
		defer cancel()
	}

	runID, err := e.ids.NewRunID()
	if err != nil {
		e.state.Store(int32(StateCompleted))
		return Result{}, fmt.Errorf("new run id: %w", err)
	}

	r := &run{
		cfg:      cfg,
		proc:     e.proc,
		policy:   LinkPolicy{FollowExternal: cfg.FollowExternalLinks, StartDomain: cfg.StartDomain},
		seen:     NewSeenSet(),
		frontier: NewFrontier(),
		results:  NewAggregator(cfg.MaxPages),
		state:    &e.state,
		hub:      e.hub,
		runID:    runID,
		log:      e.log.With(zap.String("run_id", runID)),
		pollWait: e.pollWait,
	}

	start := e.clock.Now()
	r.emit(progress.Event{Stage: progress.StageRunStart, URL: seed, Host: hostOf(seed)})
	r.log.Info("crawl started",
		zap.String("seed", seed),
		zap.Int("concurrency", cfg.Concurrency),
		zap.Int("max_depth", cfg.MaxDepth),
		zap.Int("max_pages", cfg.MaxPages),
	)

	r.seen.TryClaim(seed)
	r.add(Task{URL: seed, Depth: 0})

	var wg sync.WaitGroup
	for i := 0; i < cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.work(ctx)
		}()
	}
	wg.Wait()

	e.state.Store(int32(StateCompleted))
	end := e.clock.Now()
	pages, failures := r.results.Snapshot()

	r.emit(progress.Event{
		Stage:    progress.StageRunDone,
		Dur:      end.Sub(start),
		Pages:    len(pages),
		Failures: len(failures),
	})
	r.log.Info("crawl completed",
		zap.Int("pages", len(pages)),
		zap.Int("failures", len(failures)),
		zap.Duration("elapsed", end.Sub(start)),
	)

	return Result{
		RunID:     runID,
		Pages:     pages,
		Failures:  failures,
		StartTime: start,
		EndTime:   end,
	}, nil
}

// run holds the shared mutable state of one crawl. It is created inside
// Crawl, mutated concurrently by the workers, and becomes unreachable when
// Crawl returns.
type run struct {
	cfg      Config
	proc     *Processor
	policy   LinkPolicy
	seen     *SeenSet
	frontier *Frontier
	results  *Aggregator
	state    *atomic.Int32
	hub      *progress.Hub
	runID    string
	log      *zap.Logger
	pollWait time.Duration

	// pending counts queued plus in-flight tasks. It is incremented before a
	// task enters the frontier and decremented only after the task has been
	// fully processed, children included, so pending==0 means no further
	// work can ever appear.
	pending atomic.Int64
}

func (r *run) add(t Task) {
	r.pending.Add(1)
	r.frontier.Enqueue(t)
}

// finished is the termination condition every idle worker consults: the
// budget is fully committed, the run context expired, or no queued or
// in-flight work remains.
func (r *run) finished(ctx context.Context) bool {
	if ctx.Err() != nil {
		return true
	}
	if r.results.BudgetExhausted() {
		return true
	}
	return r.pending.Load() == 0
}

// work is one worker loop. Workers exit cooperatively: nothing a single
// worker encounters escalates to a pool-wide abort.
func (r *run) work(ctx context.Context) {
	for {
		if r.finished(ctx) {
			// First observer moves the run into Draining; the rest follow it out.
			r.state.CompareAndSwap(int32(StateRunning), int32(StateDraining))
			return
		}
		task, ok := r.frontier.Dequeue(r.pollWait)
		if !ok {
			continue
		}
		r.process(ctx, task)
	}
}

func (r *run) process(ctx context.Context, task Task) {
	defer r.pending.Add(-1)

	// Skip the network call entirely once the budget is committed.
	if r.results.BudgetExhausted() {
		return
	}

	started := time.Now()
	page, err := r.proc.Process(ctx, task.URL)
	if err != nil {
		r.results.RecordFailure(task.URL, err)
		r.emit(progress.Event{
			Stage: progress.StageFetchFail,
			URL:   task.URL,
			Host:  hostOf(task.URL),
			Depth: task.Depth,
			Note:  err.Error(),
		})
		r.log.Debug("fetch failed", zap.String("url", task.URL), zap.Int("depth", task.Depth), zap.Error(err))
		return
	}

	r.emit(progress.Event{
		Stage:       progress.StageFetchDone,
		URL:         task.URL,
		Host:        hostOf(task.URL),
		Depth:       task.Depth,
		StatusClass: progress.ClassifyStatus(page.StatusCode),
		Dur:         time.Since(started),
	})

	if !r.results.TryCommitPage(page) {
		return
	}
	r.emit(progress.Event{Stage: progress.StagePageCommit, URL: task.URL, Host: hostOf(task.URL), Depth: task.Depth})

	if task.Depth >= r.cfg.MaxDepth {
		return
	}
	for _, link := range page.Links {
		norm, err := Normalize(link)
		if err != nil {
			continue
		}
		if !r.policy.Allow(norm) {
			continue
		}
		if !r.seen.TryClaim(norm) {
			continue
		}
		r.add(Task{URL: norm, Depth: task.Depth + 1})
	}
}

func (r *run) emit(evt progress.Event) {
	if r.hub == nil {
		return
	}
	evt.RunID = r.runID
	if evt.TS.IsZero() {
		evt.TS = time.Now().UTC()
	}
	r.hub.Emit(evt)
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return u.Hostname()
}
