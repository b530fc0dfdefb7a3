package scheduler

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"adhoc-index/internal/logging"
	"adhoc-index/internal/metrics"
)

// ErrClosed is returned when scheduling on a closed Coordinator.
var ErrClosed = errors.New("scheduler: coordinator closed")

// releaseTimeout bounds how long Close waits for running tasks.
const releaseTimeout = 5 * time.Second

// entry tracks one task id. At most one timer is armed per id, and at most
// one body for the id is running at any time.
type entry struct {
	timer   *time.Timer
	gen     uint64
	task    func()
	armed   bool // timer set and not yet fired
	running bool
	rerun   bool // fired while running; run task again when it finishes
}

func (e *entry) pending() bool {
	return e.armed || e.rerun
}

// Coordinator debounces and coalesces work by task id and runs it on a
// fixed-size goroutine pool.
type Coordinator struct {
	pool *ants.Pool

	mu     sync.Mutex
	tasks  map[string]*entry
	closed bool
}

// New creates a Coordinator backed by a pool of the given size.
// A size below 1 is treated as 1.
func New(size int) (*Coordinator, error) {
	if size < 1 {
		size = 1
	}

	pool, err := ants.NewPool(size, ants.WithPanicHandler(func(p interface{}) {
		logging.Error("Refresh worker panic: %v", p)
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to create refresh pool: %w", err)
	}

	logging.Debug("Refresh coordinator started with %d workers", size)

	return &Coordinator{
		pool:  pool,
		tasks: make(map[string]*entry),
	}, nil
}

// Schedule runs task after delay under id. Scheduling an id that is still
// pending restarts the delay and replaces the body, so only the most recent
// body runs. If the id is running when the delay elapses, the body runs again
// as soon as the current run returns.
func (c *Coordinator) Schedule(id string, delay time.Duration, task func()) error {
	if task == nil {
		return fmt.Errorf("scheduler: nil task for %q", id)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}

	metrics.SchedulerScheduledTotal.Inc()

	e, ok := c.tasks[id]
	if !ok {
		e = &entry{}
		c.tasks[id] = e
	}

	if e.pending() {
		metrics.SchedulerCoalescedTotal.Inc()
	} else {
		metrics.SchedulerPending.Inc()
	}

	if e.timer != nil {
		e.timer.Stop()
	}

	e.gen++
	gen := e.gen
	e.task = task
	e.armed = true
	e.rerun = false
	e.timer = time.AfterFunc(delay, func() { c.fire(id, gen) })

	return nil
}

// fire is the timer callback for one generation of id.
func (c *Coordinator) fire(id string, gen uint64) {
	c.mu.Lock()
	e, ok := c.tasks[id]
	if !ok || e.gen != gen || !e.armed || c.closed {
		c.mu.Unlock()
		return
	}

	e.armed = false
	if e.running {
		e.rerun = true
		c.mu.Unlock()
		return
	}

	metrics.SchedulerPending.Dec()
	e.running = true
	task := e.task
	c.mu.Unlock()

	c.submit(id, task)
}

func (c *Coordinator) submit(id string, task func()) {
	if err := c.pool.Submit(func() { c.run(id, task) }); err != nil {
		logging.Warn("Dropping refresh %s: %v", id, err)
		c.mu.Lock()
		c.release(id)
		c.mu.Unlock()
	}
}

// run executes task and any rerun queued for id while it was busy. Reruns
// stay on the same worker so a full pool never waits on itself.
func (c *Coordinator) run(id string, task func()) {
	for task != nil {
		c.execute(id, task)
		task = c.next(id)
	}
}

func (c *Coordinator) execute(id string, task func()) {
	defer func() {
		if r := recover(); r != nil {
			metrics.SchedulerExecutedTotal.WithLabelValues("panic").Inc()
			logging.Error("Refresh %s panicked: %v\n%s", id, r, debug.Stack())
		}
	}()

	task()
	metrics.SchedulerExecutedTotal.WithLabelValues("success").Inc()
}

// next returns the queued rerun for id, or marks id idle and returns nil.
func (c *Coordinator) next(id string) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.tasks[id]
	if !ok {
		return nil
	}

	if e.rerun && !c.closed {
		e.rerun = false
		metrics.SchedulerPending.Dec()
		return e.task
	}

	c.release(id)
	return nil
}

// release marks id as not running and forgets it when nothing is pending.
// c.mu must be held.
func (c *Coordinator) release(id string) {
	e, ok := c.tasks[id]
	if !ok {
		return
	}
	e.running = false
	if !e.pending() {
		delete(c.tasks, id)
	}
}

// Cancel drops the pending execution for id. It reports whether anything
// was pending. A running body is never interrupted.
func (c *Coordinator) Cancel(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.tasks[id]
	if !ok || !e.pending() {
		return false
	}

	if e.timer != nil {
		e.timer.Stop()
	}
	e.armed = false
	e.rerun = false
	e.gen++

	metrics.SchedulerCancelledTotal.Inc()
	metrics.SchedulerPending.Dec()

	if !e.running {
		delete(c.tasks, id)
	}
	return true
}

// CancelPrefix cancels every pending id that starts with prefix and returns
// how many were cancelled.
func (c *Coordinator) CancelPrefix(prefix string) int {
	c.mu.Lock()
	ids := make([]string, 0, len(c.tasks))
	for id := range c.tasks {
		if len(id) >= len(prefix) && id[:len(prefix)] == prefix {
			ids = append(ids, id)
		}
	}
	c.mu.Unlock()

	cancelled := 0
	for _, id := range ids {
		if c.Cancel(id) {
			cancelled++
		}
	}
	return cancelled
}

// Pending reports whether id has an execution waiting to start.
func (c *Coordinator) Pending(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.tasks[id]
	return ok && e.pending()
}

// Running reports whether a body for id is executing.
func (c *Coordinator) Running(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.tasks[id]
	return ok && e.running
}

// Idle reports whether nothing is pending or running.
func (c *Coordinator) Idle() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.tasks) == 0
}

// Wait blocks until the coordinator is idle or ctx is done.
func (c *Coordinator) Wait(ctx context.Context) error {
	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()

	for {
		if c.Idle() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Close cancels all pending executions and waits briefly for running ones.
// Further Schedule calls return ErrClosed.
func (c *Coordinator) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	for id, e := range c.tasks {
		if e.timer != nil {
			e.timer.Stop()
		}
		if e.pending() {
			metrics.SchedulerPending.Dec()
		}
		e.armed = false
		e.rerun = false
		if !e.running {
			delete(c.tasks, id)
		}
	}
	c.mu.Unlock()

	if err := c.pool.ReleaseTimeout(releaseTimeout); err != nil {
		logging.Warn("Refresh pool did not drain within %v: %v", releaseTimeout, err)
	}
}
