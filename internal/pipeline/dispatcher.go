package pipeline

import (
	"log/slog"

	"github.com/panjf2000/ants/v2"
)

// Dispatcher submits indexing tasks for execution. Implementations are
// fire-and-forget: a task that cannot be submitted runs inline rather
// than being dropped, so a job never silently disappears.
type Dispatcher interface {
	Submit(task func())
	Close()
}

// InlineDispatcher runs tasks synchronously on the caller's goroutine.
// Used as the fallback strategy and in tests, where deterministic
// completion matters more than throughput.
type InlineDispatcher struct{}

var _ Dispatcher = (*InlineDispatcher)(nil)

func NewInlineDispatcher() *InlineDispatcher { return &InlineDispatcher{} }

func (d *InlineDispatcher) Submit(task func()) { task() }

func (d *InlineDispatcher) Close() {}

// PoolDispatcher runs tasks on a bounded goroutine pool, so concurrent
// jobs cannot exhaust the process.
type PoolDispatcher struct {
	pool   *ants.Pool
	logger *slog.Logger
}

var _ Dispatcher = (*PoolDispatcher)(nil)

// DefaultPoolSize bounds concurrent indexing jobs.
const DefaultPoolSize = 4

// NewPoolDispatcher creates a pool of the given size (DefaultPoolSize
// when size <= 0).
func NewPoolDispatcher(size int, logger *slog.Logger) (*PoolDispatcher, error) {
	if size <= 0 {
		size = DefaultPoolSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	pool, err := ants.NewPool(size, ants.WithNonblocking(false))
	if err != nil {
		return nil, err
	}
	return &PoolDispatcher{pool: pool, logger: logger}, nil
}

// Submit schedules the task on the pool, falling back to inline
// execution if the pool rejects it.
func (d *PoolDispatcher) Submit(task func()) {
	if err := d.pool.Submit(task); err != nil {
		d.logger.Warn("pool submit failed, running task inline", "error", err)
		task()
	}
}

// Close waits for running tasks and releases the pool.
func (d *PoolDispatcher) Close() {
	d.pool.Release()
}
