// Package progress carries crawl lifecycle events from the engine to
// pluggable sinks without ever blocking the hot path.
package progress

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Stage denotes the milestone an Event represents.
type Stage string

// Supported progress stages.
const (
	StageRunStart   Stage = "RUN_START"
	StageRunDone    Stage = "RUN_DONE"
	StageFetchDone  Stage = "FETCH_DONE"
	StageFetchFail  Stage = "FETCH_FAIL"
	StagePageCommit Stage = "PAGE_COMMIT"
)

// StatusClass is a coarse HTTP response grouping.
type StatusClass string

// Supported HTTP status classes.
const (
	Status2xx   StatusClass = "2xx"
	Status3xx   StatusClass = "3xx"
	Status4xx   StatusClass = "4xx"
	Status5xx   StatusClass = "5xx"
	StatusOther StatusClass = "other"
)

// ClassifyStatus groups an HTTP status code.
func ClassifyStatus(code int) StatusClass {
	switch {
	case code >= 200 && code < 300:
		return Status2xx
	case code >= 300 && code < 400:
		return Status3xx
	case code >= 400 && code < 500:
		return Status4xx
	case code >= 500 && code < 600:
		return Status5xx
	default:
		return StatusOther
	}
}

// Event is a single crawl progress milestone.
type Event struct {
	// RunID identifies the crawl run the event belongs to.
	RunID string
	// TS is the UTC timestamp recorded by the emitter.
	TS time.Time
	// Stage is the milestone kind.
	Stage Stage
	// Host scopes fetch events to a site label.
	Host string
	// URL is the page URL, when the event concerns one.
	URL string
	// Depth is the task depth for fetch events.
	Depth int
	// StatusClass groups the HTTP response for completed fetches.
	StatusClass StatusClass
	// Dur is the fetch latency or, for RUN_DONE, the run wall time.
	Dur time.Duration
	// Pages and Failures carry final counts on RUN_DONE.
	Pages    int
	Failures int
	// Note holds low-volume debug context such as error text.
	Note string
}

// Validate performs coarse validation before an event is accepted.
func (e Event) Validate() error {
	if e.RunID == "" {
		return errors.New("run id is required")
	}
	if e.TS.IsZero() {
		return errors.New("timestamp is required")
	}
	switch e.Stage {
	case StageRunStart, StageRunDone, StagePageCommit:
	case StageFetchDone:
		if e.Host == "" {
			return errors.New("fetch done requires host")
		}
		if e.StatusClass == "" {
			return errors.New("fetch done requires status class")
		}
	case StageFetchFail:
		if e.Host == "" {
			return errors.New("fetch fail requires host")
		}
	default:
		return fmt.Errorf("unknown stage %q", e.Stage)
	}
	if e.Dur < 0 {
		return errors.New("duration must be >= 0")
	}
	return nil
}

// Sink consumes batches of events. Implementations must tolerate concurrent
// Consume calls from at most one hub goroutine but may be registered with
// multiple hubs.
type Sink interface {
	Consume(ctx context.Context, batch []Event) error
	Close(ctx context.Context) error
}
