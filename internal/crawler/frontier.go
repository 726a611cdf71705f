package crawler

import (
	"sync"
	"time"
)

// Frontier is the queue of not-yet-fetched tasks. Enqueue never blocks;
// Dequeue waits at most the given duration so workers can periodically
// re-check termination instead of blocking forever on an empty queue.
// Every task in the Frontier has already passed the SeenSet, so dequeued
// tasks are guaranteed novel.
type Frontier struct {
	mu    sync.Mutex
	tasks []Task
	wake  chan struct{}
}

// NewFrontier creates an empty Frontier.
func NewFrontier() *Frontier {
	return &Frontier{wake: make(chan struct{}, 1)}
}

// Enqueue appends a task. It never blocks.
func (f *Frontier) Enqueue(t Task) {
	f.mu.Lock()
	f.tasks = append(f.tasks, t)
	f.mu.Unlock()

	select {
	case f.wake <- struct{}{}:
	default:
	}
}

// Dequeue pops the oldest task, waiting up to wait for one to arrive.
// It returns false if the queue stayed empty for the whole window.
func (f *Frontier) Dequeue(wait time.Duration) (Task, bool) {
	deadline := time.Now().Add(wait)
	for {
		f.mu.Lock()
		if len(f.tasks) > 0 {
			t := f.tasks[0]
			f.tasks = f.tasks[1:]
			f.mu.Unlock()
			return t, true
		}
		f.mu.Unlock()

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return Task{}, false
		}
		timer := time.NewTimer(remaining)
		select {
		case <-f.wake:
			// A task may already have been taken by another worker;
			// loop and look again.
		case <-timer.C:
		}
		timer.Stop()
	}
}

// Len returns the number of queued tasks.
func (f *Frontier) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tasks)
}
