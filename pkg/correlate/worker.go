package correlate

import (
	"context"
	"errors"
	"log"
	"sync"
)

// ErrWorkerClosed is returned by Enqueue after Close.
var ErrWorkerClosed = errors.New("ingest worker closed")

// Worker serializes ingestion through a single goroutine so callers on
// hot paths never block on the correlator mutex. Overflow under
// backpressure is dropped and counted rather than queued unboundedly.
type Worker struct {
	correlator *Correlator
	queue      chan map[string]any

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// NewWorker starts the ingest goroutine with the given queue depth.
func NewWorker(correlator *Correlator, queueSize int) *Worker {
	if queueSize <= 0 {
		queueSize = 1024
	}
	w := &Worker{
		correlator: correlator,
		queue:      make(chan map[string]any, queueSize),
		done:       make(chan struct{}),
	}
	go w.run()
	return w
}

// TryEnqueue submits an event without blocking. A full queue drops the
// event and bumps the drop counter; the producer keeps going. The read
// lock holds the queue open across the send so a concurrent Close
// cannot close it mid-submit.
func (w *Worker) TryEnqueue(raw map[string]any) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		w.correlator.stats.EventDropped()
		return false
	}
	select {
	case w.queue <- raw:
		return true
	default:
		w.correlator.stats.EventDropped()
		return false
	}
}

// Enqueue submits an event, blocking until there is queue space or the
// context ends.
func (w *Worker) Enqueue(ctx context.Context, raw map[string]any) error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		w.correlator.stats.EventDropped()
		return ErrWorkerClosed
	}
	select {
	case w.queue <- raw:
		return nil
	case <-ctx.Done():
		w.correlator.stats.EventDropped()
		return ctx.Err()
	}
}

// Close stops accepting events, drains the queue, and waits for the
// ingest goroutine to exit. Safe to call more than once.
func (w *Worker) Close() {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.queue)
	}
	w.mu.Unlock()
	<-w.done
}

func (w *Worker) run() {
	defer close(w.done)
	ctx := context.Background()
	for raw := range w.queue {
		if _, err := w.correlator.Ingest(ctx, raw); err != nil {
			log.Printf("[WARN] event ingest failed: %v", err)
		}
	}
}
