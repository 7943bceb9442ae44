package fetch

import (
	"context"
	"errors"
	"sync"
	"time"

	"job-board-go/internal/logging"
	"job-board-go/internal/metrics"
)

// Query identifies one read: a resource and an optional row limit (0 means all rows).
type Query struct {
	Resource string
	Limit    int
}

// Fetcher performs the read for a query. It should abort when ctx is cancelled.
type Fetcher[T any] func(ctx context.Context, q Query) (T, error)

// State is what a consumer renders from.
type State[T any] struct {
	Data    T
	HasData bool
	Loading bool
	Err     error
}

// Hook runs at most one current read at a time. A read that has been superseded by Set
// or Refresh, or that settles after Close, never changes the observable state.
type Hook[T any] struct {
	fetcher Fetcher[T]
	logger  logging.Logger

	mu      sync.Mutex
	state   State[T]
	query   Query
	started bool
	closed  bool
	gen     uint64
	cancel  context.CancelFunc
	done    chan struct{}
	changes chan struct{}
}

func New[T any](fetcher Fetcher[T], logger logging.Logger) *Hook[T] {
	return &Hook[T]{
		fetcher: fetcher,
		logger:  logger,
		changes: make(chan struct{}, 1),
	}
}

// Set points the hook at q. Repeating the current query is a no-op.
func (h *Hook[T]) Set(q Query) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed || (h.started && q == h.query) {
		return
	}
	h.startLocked(q)
}

// Refresh re-issues the current query, superseding any read in flight.
func (h *Hook[T]) Refresh() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed || !h.started {
		return
	}
	h.startLocked(h.query)
}

func (h *Hook[T]) startLocked(q Query) {
	if h.cancel != nil {
		h.cancel()
	}
	h.releaseLocked()

	h.gen++
	h.query = q
	h.started = true
	h.state = State[T]{Loading: true}
	h.done = make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	h.notifyLocked()

	go h.run(ctx, h.gen, q)
}

func (h *Hook[T]) run(ctx context.Context, gen uint64, q Query) {
	start := time.Now()
	data, err := h.fetcher(ctx, q)
	metrics.FetchDuration.WithLabelValues(metrics.Outcome(err)).Observe(time.Since(start).Seconds())

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed || gen != h.gen {
		return
	}

	switch {
	case err == nil:
		h.state.Data = data
		h.state.HasData = true
		h.state.Err = nil
	case errors.Is(err, context.Canceled):
		// aborted reads are not failures
	default:
		var zero T
		h.state.Data = zero
		h.state.HasData = false
		h.state.Err = err
		h.logger.Error("Fetch failed", "resource", q.Resource, "limit", q.Limit, "error", err)
	}
	h.state.Loading = false

	h.cancel()
	h.cancel = nil
	h.releaseLocked()
	h.notifyLocked()
}

// Close abandons the current read. Later results are discarded and the state is frozen.
func (h *Hook[T]) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
	h.releaseLocked()
}

func (h *Hook[T]) State() State[T] {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Wait blocks until the current read settles, the hook is closed or ctx ends.
func (h *Hook[T]) Wait(ctx context.Context) State[T] {
	for {
		h.mu.Lock()
		if h.closed || !h.state.Loading {
			s := h.state
			h.mu.Unlock()
			return s
		}
		done := h.done
		h.mu.Unlock()

		select {
		case <-done:
		case <-ctx.Done():
			return h.State()
		}
	}
}

// Changes is signalled after every state change. Signals coalesce.
func (h *Hook[T]) Changes() <-chan struct{} {
	return h.changes
}

func (h *Hook[T]) releaseLocked() {
	if h.done != nil {
		close(h.done)
		h.done = nil
	}
}

func (h *Hook[T]) notifyLocked() {
	select {
	case h.changes <- struct{}{}:
	default:
	}
}
