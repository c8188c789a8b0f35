// Package auditqueue admits audit jobs into a bounded pending list, runs up
// to a fixed number of them concurrently in priority order, and resolves
// each caller's result channel exactly once — on success, on exhausted
// retries, or on a control operation (clear/destroy) that rejects it
// outright (spec.md §4.8).
package auditqueue

import (
	"sort"
	"sync"
	"time"

	apperrors "github.com/codeauditor/codeauditor/internal/errors"
	"github.com/codeauditor/codeauditor/internal/events"
	"github.com/codeauditor/codeauditor/internal/retry"
	"github.com/codeauditor/codeauditor/internal/review"
	"github.com/sourcegraph/conc/pool"
)

// RunFunc performs the actual work of one job. It is called on a pooled
// goroutine and must not block past its job's Timeout.
type RunFunc func() (review.Review, error)

// Result is what a submitted job eventually resolves to.
type Result struct {
	Review review.Review
	Err    error
}

// Options configures a Queue. Zero or negative values fall back to the
// defaults noted below, except MaxRetries, which falls back only when
// negative (0 means no retries).
type Options struct {
	Capacity       int           // bounded pending list size, default 50
	MaxConcurrent  int           // default 3
	TickInterval   time.Duration // default 100ms
	DefaultTimeout time.Duration // per-job default, default 30s
	MaxRetries     int           // negative selects the default 2
	HistoryWindow  int           // completed-job samples kept for stats, default 100
	Bus            *events.Bus   // optional
}

func (o Options) withDefaults() Options {
	if o.Capacity <= 0 {
		o.Capacity = 50
	}
	if o.MaxConcurrent <= 0 {
		o.MaxConcurrent = 3
	}
	if o.TickInterval <= 0 {
		o.TickInterval = 100 * time.Millisecond
	}
	if o.DefaultTimeout <= 0 {
		o.DefaultTimeout = 30 * time.Second
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 2
	}
	if o.HistoryWindow <= 0 {
		o.HistoryWindow = 100
	}
	return o
}

type job struct {
	id         string
	priority   int
	seq        int64
	run        RunFunc
	timeout    time.Duration
	maxRetries int
	retryCount int
	createdAt  time.Time
	startedAt  time.Time
	resultCh   chan Result
	done       bool
}

// Stats is a snapshot of queue activity and throughput.
type Stats struct {
	Pending        int
	Running        int
	Completed      int64
	Failed         int64
	Utilization    float64 // running / maxConcurrent
	AvgWaitSeconds float64 // over the last HistoryWindow completions
	AvgExecSeconds float64
}

// Queue is a bounded, priority-ordered job scheduler. Safe for concurrent
// use.
type Queue struct {
	opts Options

	mu        sync.Mutex
	pending   []*job
	running   map[string]*job
	paused    bool
	destroyed bool
	nextSeq   int64

	completed int64
	failed    int64
	waits     []float64
	execs     []float64

	pool    *pool.Pool
	retries *retry.Manager
	bus     *events.Bus

	ticker *time.Ticker
	stopCh chan struct{}
}

// New creates a Queue and starts its scheduler loop.
func New(opts Options) *Queue {
	opts = opts.withDefaults()
	q := &Queue{
		opts:    opts,
		running: make(map[string]*job),
		pool:    pool.New().WithMaxGoroutines(opts.MaxConcurrent),
		retries: retry.NewManager(),
		bus:     opts.Bus,
		ticker:  time.NewTicker(opts.TickInterval),
		stopCh:  make(chan struct{}),
	}
	go q.schedulerLoop()
	return q
}

// Submit admits a job at the given priority (higher runs first; equal
// priority is FIFO). timeout falls back to the queue's default when zero or
// negative, maxRetries when negative. Returns a channel receiving exactly one Result, or an
// error if the pending list is full or the queue has been destroyed.
func (q *Queue) Submit(id string, priority int, timeout time.Duration, maxRetries int, run RunFunc) (<-chan Result, error) {
	if timeout <= 0 {
		timeout = q.opts.DefaultTimeout
	}
	if maxRetries < 0 {
		maxRetries = q.opts.MaxRetries
	}

	q.mu.Lock()
	if q.destroyed {
		q.mu.Unlock()
		return nil, apperrors.NewQueueClearedError("queue has been destroyed")
	}
	if len(q.pending) >= q.opts.Capacity {
		q.mu.Unlock()
		return nil, apperrors.NewQueueFullError("audit queue is at capacity", q.opts.Capacity)
	}

	j := &job{
		id:         id,
		priority:   priority,
		seq:        q.nextSeq,
		run:        run,
		timeout:    timeout,
		maxRetries: maxRetries,
		createdAt:  time.Now(),
		resultCh:   make(chan Result, 1),
	}
	q.nextSeq++
	q.insertPending(j)
	pendingLen := len(q.pending)
	q.mu.Unlock()

	q.retries.GetOrCreateState(id, maxRetries)
	q.publish(events.NewQueueJobEnqueuedEvent(id, priority, pendingLen))
	return j.resultCh, nil
}

// insertPending inserts j keeping q.pending sorted by descending priority,
// then ascending seq (stable FIFO among equal priorities). Caller holds mu.
func (q *Queue) insertPending(j *job) {
	q.pending = append(q.pending, j)
	sort.SliceStable(q.pending, func(i, k int) bool {
		if q.pending[i].priority != q.pending[k].priority {
			return q.pending[i].priority > q.pending[k].priority
		}
		return q.pending[i].seq < q.pending[k].seq
	})
}

// Pause stops admitting pending jobs into running slots; already-running
// jobs continue.
func (q *Queue) Pause() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.paused = true
}

// Resume re-enables admission.
func (q *Queue) Resume() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.paused = false
}

// ClearQueue rejects every pending job (not yet running) with a
// QueueClearedError and empties the pending list.
func (q *Queue) ClearQueue() {
	q.mu.Lock()
	pending := q.pending
	q.pending = nil
	q.mu.Unlock()

	for _, j := range pending {
		q.resolve(j, Result{Err: apperrors.NewQueueClearedError("queue cleared")}, false)
	}
}

// Destroy stops the scheduler, rejects all pending jobs, and marks running
// jobs' eventual results to be discarded: their callers are rejected
// immediately with "queue destroyed" rather than waiting for goroutines Go
// cannot forcibly cancel. After Destroy, Submit always errors.
func (q *Queue) Destroy() {
	q.mu.Lock()
	if q.destroyed {
		q.mu.Unlock()
		return
	}
	q.destroyed = true
	pending := q.pending
	q.pending = nil
	running := make([]*job, 0, len(q.running))
	for _, j := range q.running {
		running = append(running, j)
	}
	q.mu.Unlock()

	close(q.stopCh)
	q.ticker.Stop()

	for _, j := range pending {
		q.resolve(j, Result{Err: apperrors.NewQueueClearedError("queue destroyed")}, false)
	}
	for _, j := range running {
		q.resolve(j, Result{Err: apperrors.NewQueueClearedError("queue destroyed")}, false)
	}
}

// Stats returns a snapshot of current queue activity.
func (q *Queue) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()

	s := Stats{
		Pending:     len(q.pending),
		Running:     len(q.running),
		Completed:   q.completed,
		Failed:      q.failed,
		Utilization: float64(len(q.running)) / float64(q.opts.MaxConcurrent),
	}
	s.AvgWaitSeconds = average(q.waits)
	s.AvgExecSeconds = average(q.execs)
	return s
}

func average(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, v := range samples {
		sum += v
	}
	return sum / float64(len(samples))
}

func (q *Queue) schedulerLoop() {
	for {
		select {
		case <-q.stopCh:
			return
		case <-q.ticker.C:
			q.admit()
		}
	}
}

// admit moves as many pending jobs into running as the concurrency budget
// allows, highest priority first.
func (q *Queue) admit() {
	for {
		q.mu.Lock()
		if q.paused || q.destroyed || len(q.pending) == 0 || len(q.running) >= q.opts.MaxConcurrent {
			q.mu.Unlock()
			return
		}
		j := q.pending[0]
		q.pending = q.pending[1:]
		j.startedAt = time.Now()
		q.running[j.id] = j
		runningLen := len(q.running)
		q.mu.Unlock()

		q.publish(events.NewQueueJobStartedEvent(j.id, runningLen))
		q.pool.Go(func() { q.runJob(j) })
	}
}

// runJob executes j.run with its timeout enforced by a race against the
// job's own goroutine. A timed-out job's goroutine is left to finish on its
// own; procmanager's hard process timeout is what actually reclaims the
// underlying resources.
func (q *Queue) runJob(j *job) {
	done := make(chan Result, 1)
	go func() {
		rev, err := j.run()
		done <- Result{Review: rev, Err: err}
	}()

	var res Result
	select {
	case res = <-done:
	case <-time.After(j.timeout):
		res = Result{Err: apperrors.NewTimeoutError("queue_job", "audit queue job timed out", time.Since(j.startedAt).Seconds(), j.timeout.Seconds())}
	}

	if res.Err != nil && j.retryCount < j.maxRetries {
		q.retryJob(j, res.Err)
		return
	}

	q.finish(j, res)
}

func (q *Queue) retryJob(j *job, cause error) {
	j.retryCount++
	j.startedAt = time.Time{}

	q.mu.Lock()
	delete(q.running, j.id)
	q.insertPending(j)
	q.mu.Unlock()

	q.retries.RecordAttempt(j.id, false)
	q.retries.SetLastError(j.id, cause.Error())
	q.publish(events.NewQueueJobRetriedEvent(j.id, j.retryCount))
}

func (q *Queue) finish(j *job, res Result) {
	q.mu.Lock()
	delete(q.running, j.id)
	wait := j.startedAt.Sub(j.createdAt).Seconds()
	exec := time.Since(j.startedAt).Seconds()
	if res.Err == nil {
		q.completed++
		q.waits = pushWindow(q.waits, wait, q.opts.HistoryWindow)
		q.execs = pushWindow(q.execs, exec, q.opts.HistoryWindow)
	} else {
		q.failed++
	}
	q.mu.Unlock()

	q.retries.RecordAttempt(j.id, res.Err == nil)
	q.retries.Reset(j.id)
	q.resolve(j, res, true)
}

func pushWindow(samples []float64, v float64, window int) []float64 {
	samples = append(samples, v)
	if len(samples) > window {
		samples = samples[len(samples)-window:]
	}
	return samples
}

// resolve sends res to j's result channel at most once and publishes the
// terminal event. publishOutcome controls whether a completed/failed event
// is emitted (control operations publish nothing beyond the caller's
// rejection, since the job never ran to a normal outcome).
func (q *Queue) resolve(j *job, res Result, publishOutcome bool) {
	q.mu.Lock()
	if j.done {
		q.mu.Unlock()
		return
	}
	j.done = true
	q.mu.Unlock()

	j.resultCh <- res
	close(j.resultCh)

	if !publishOutcome {
		return
	}
	if res.Err == nil {
		q.publish(events.NewQueueJobCompletedEvent(j.id))
	} else {
		q.publish(events.NewQueueJobFailedEvent(j.id, res.Err.Error()))
	}
}

func (q *Queue) publish(ev events.Event) {
	if q.bus == nil {
		return
	}
	q.bus.Publish(ev)
}
