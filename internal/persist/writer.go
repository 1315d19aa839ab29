// Package persist decouples in-memory mutations from durability. Every
// state-mutating operation enqueues a complete-snapshot write; a single
// worker goroutine drains the queue and performs the writes. Write failures
// are logged (and forwarded to an optional hook), never returned to the
// caller that mutated state.
package persist

import (
	"context"
	"sync"
	"time"

	"github.com/ikkim/babdal-backend/pkg/logger"
)

const defaultWriteTimeout = 5 * time.Second

// WriteFunc performs one complete snapshot write.
type WriteFunc func(ctx context.Context) error

// Writer is a fire-and-forget snapshot writer. Writes are coalesced per
// key: enqueuing while a write for the same key is still pending replaces
// the pending write, so only the most recent snapshot reaches the store.
type Writer struct {
	timeout time.Duration
	onError func(key string, err error)

	mu       sync.Mutex
	cond     *sync.Cond
	pending  map[string]WriteFunc
	order    []string
	inFlight bool
	closed   bool
	done     chan struct{}
}

// Option configures a Writer.
type Option func(*Writer)

// WithOnError installs a hook invoked after a failed write, in addition to
// the log entry. Used as the out-of-band durability failure channel.
func WithOnError(fn func(key string, err error)) Option {
	return func(w *Writer) { w.onError = fn }
}

// WithTimeout overrides the per-write context timeout.
func WithTimeout(d time.Duration) Option {
	return func(w *Writer) { w.timeout = d }
}

// NewWriter creates a Writer and starts its worker goroutine.
func NewWriter(opts ...Option) *Writer {
	w := &Writer{
		timeout: defaultWriteTimeout,
		pending: make(map[string]WriteFunc),
		done:    make(chan struct{}),
	}
	w.cond = sync.NewCond(&w.mu)
	for _, opt := range opts {
		opt(w)
	}
	go w.run()
	return w
}

// Enqueue schedules a snapshot write under the given key. The caller is not
// blocked and never sees the write's outcome. Enqueue after Close is a no-op.
func (w *Writer) Enqueue(key string, write WriteFunc) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		logger.Warn("Snapshot write dropped: writer closed", map[string]interface{}{
			"key": key,
		})
		return
	}
	if _, queued := w.pending[key]; !queued {
		w.order = append(w.order, key)
	}
	w.pending[key] = write
	w.cond.Broadcast()
}

// Flush blocks until every enqueued write has completed. Intended for tests
// and shutdown.
func (w *Writer) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for len(w.order) > 0 || w.inFlight {
		w.cond.Wait()
	}
}

// Close drains outstanding writes and stops the worker.
func (w *Writer) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		<-w.done
		return
	}
	w.closed = true
	w.cond.Broadcast()
	w.mu.Unlock()
	<-w.done
}

func (w *Writer) run() {
	for {
		w.mu.Lock()
		for len(w.order) == 0 && !w.closed {
			w.cond.Wait()
		}
		if len(w.order) == 0 && w.closed {
			w.mu.Unlock()
			close(w.done)
			return
		}
		key := w.order[0]
		w.order = w.order[1:]
		write := w.pending[key]
		delete(w.pending, key)
		w.inFlight = true
		w.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
		err := write(ctx)
		cancel()
		if err != nil {
			logger.Error("Snapshot persistence failed", err, map[string]interface{}{
				"key": key,
			})
			if w.onError != nil {
				w.onError(key, err)
			}
		}

		w.mu.Lock()
		w.inFlight = false
		w.cond.Broadcast()
		w.mu.Unlock()
	}
}
