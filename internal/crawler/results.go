package crawler

import (
	"sync"
	"sync/atomic"
)

// Aggregator accumulates successful pages and failed URLs across workers and
// enforces the page budget. The budget check is a single atomic
// increment-then-rollback, so len(pages) <= maxPages holds at every instant,
// including when the limit is reached by concurrent workers.
type Aggregator struct {
	maxPages  int64
	committed atomic.Int64

	mu       sync.Mutex
	pages    []Page
	failures []Failure
}

// NewAggregator creates an Aggregator enforcing the given page budget.
func NewAggregator(maxPages int) *Aggregator {
	return &Aggregator{maxPages: int64(maxPages)}
}

// TryCommitPage attempts to add a page under the budget. When the atomic
// increment overshoots maxPages the counter is rolled back and the page is
// discarded. The raw counter is never exposed; readers only see the
// committed list.
func (a *Aggregator) TryCommitPage(p Page) bool {
	if a.committed.Add(1) > a.maxPages {
		a.committed.Add(-1)
		return false
	}
	a.mu.Lock()
	a.pages = append(a.pages, p)
	a.mu.Unlock()
	return true
}

// RecordFailure appends a failed URL. Failures do not consume the page
// budget.
func (a *Aggregator) RecordFailure(url string, err error) {
	reason := "unknown failure"
	if err != nil {
		reason = err.Error()
	}
	a.mu.Lock()
	a.failures = append(a.failures, Failure{URL: url, Reason: reason})
	a.mu.Unlock()
}

// PageCount returns the number of committed pages.
func (a *Aggregator) PageCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.pages)
}

// FailureCount returns the number of recorded failures.
func (a *Aggregator) FailureCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.failures)
}

// BudgetExhausted reports whether the page budget has been fully committed.
func (a *Aggregator) BudgetExhausted() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return int64(len(a.pages)) >= a.maxPages
}

// Snapshot returns copies of the accumulated pages and failures, detached
// from the aggregator's internal state.
func (a *Aggregator) Snapshot() ([]Page, []Failure) {
	a.mu.Lock()
	defer a.mu.Unlock()
	pages := append([]Page(nil), a.pages...)
	failures := append([]Failure(nil), a.failures...)
	return pages, failures
}
