package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	defaultWorkers = 4
	queueBuffer    = 64
)

// ErrRunnerStopped is returned for tasks submitted after the runner stopped
// and for queued tasks it never got to run.
var ErrRunnerStopped = errors.New("runner stopped")

// Task is one client call to run off the caller's goroutine.
type Task struct {
	Name string
	// Timeout overrides the runner default when positive.
	Timeout time.Duration
	Run     func(ctx context.Context) (any, error)
}

// Outcome is the result of a Task.
type Outcome struct {
	Name    string
	Value   any
	Err     error
	Elapsed time.Duration
}

type job struct {
	task  Task
	reply chan Outcome
}

// Runner executes Tasks on a fixed set of worker goroutines, each task under
// its own deadline. Tasks touching the same Session settle in completion
// order, so of two overlapping logins the one finishing last wins.
type Runner struct {
	jobs    chan job
	workers int
	timeout time.Duration
	log     zerolog.Logger

	mu      sync.RWMutex
	started bool
	stopped bool

	quit     chan struct{}
	quitOnce sync.Once
	done     chan struct{}
	doneOnce sync.Once
	cause    error

	wg      sync.WaitGroup // workers
	senders sync.WaitGroup // Submit calls past the stopped check
}

// NewRunner creates a Runner with numWorkers workers and a per-task timeout.
// Non-positive values fall back to defaultWorkers and DefaultTimeout.
func NewRunner(numWorkers int, timeout time.Duration, log zerolog.Logger) *Runner {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Runner{
		jobs:    make(chan job, queueBuffer),
		workers: numWorkers,
		timeout: timeout,
		log:     log,
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Start launches the workers. They exit when ctx is cancelled or Stop is
// called. Cancelling ctx fails tasks still queued with ErrRunnerStopped.
func (r *Runner) Start(ctx context.Context) {
	r.mu.Lock()
	if r.started || r.stopped {
		r.mu.Unlock()
		return
	}
	r.started = true
	r.mu.Unlock()

	for i := 0; i < r.workers; i++ {
		r.wg.Add(1)
		go r.runWorker(ctx, i)
	}

	go func() {
		select {
		case <-ctx.Done():
		case <-r.quit:
		}
		r.closeQuit()
		r.wg.Wait()

		cause := ErrRunnerStopped
		if err := ctx.Err(); err != nil {
			cause = fmt.Errorf("%w: %w", ErrRunnerStopped, err)
		}
		r.finish(cause)
	}()
}

// Submit queues t and returns the channel its Outcome will arrive on. The
// channel is buffered, so nobody has to read it.
func (r *Runner) Submit(ctx context.Context, t Task) (<-chan Outcome, error) {
	r.mu.RLock()
	if r.stopped {
		r.mu.RUnlock()
		return nil, ErrRunnerStopped
	}
	r.senders.Add(1)
	r.mu.RUnlock()
	defer r.senders.Done()

	reply := make(chan Outcome, 1)
	select {
	case r.jobs <- job{task: t, reply: reply}:
		return reply, nil
	case <-r.quit:
		return nil, ErrRunnerStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Do submits t and waits for its Outcome, for ctx to end or for the runner
// to stop.
func (r *Runner) Do(ctx context.Context, t Task) Outcome {
	reply, err := r.Submit(ctx, t)
	if err != nil {
		return Outcome{Name: t.Name, Err: err}
	}
	select {
	case out := <-reply:
		return out
	case <-ctx.Done():
		return Outcome{Name: t.Name, Err: ctx.Err()}
	case <-r.done:
		select {
		case out := <-reply:
			return out
		default:
			return Outcome{Name: t.Name, Err: r.cause}
		}
	}
}

// Stop rejects new tasks, lets queued ones finish and waits for the workers.
func (r *Runner) Stop() {
	r.mu.Lock()
	r.closeQuit()
	started := r.started
	r.stopped = true
	r.mu.Unlock()

	if !started {
		r.finish(ErrRunnerStopped)
	}
	<-r.done
}

func (r *Runner) closeQuit() {
	r.quitOnce.Do(func() { close(r.quit) })
}

// finish fails every task left in the queue with cause and releases Do
// callers. It runs once the workers are gone.
func (r *Runner) finish(cause error) {
	r.doneOnce.Do(func() {
		r.mu.Lock()
		r.stopped = true
		r.mu.Unlock()
		r.senders.Wait()

		r.cause = cause
		for {
			select {
			case j := <-r.jobs:
				j.reply <- Outcome{Name: j.task.Name, Err: cause}
			default:
				close(r.done)
				return
			}
		}
	})
}

func (r *Runner) runWorker(ctx context.Context, id int) {
	defer r.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-r.jobs:
			r.handle(ctx, id, j)
		case <-r.quit:
			for {
				select {
				case j := <-r.jobs:
					r.handle(ctx, id, j)
				default:
					return
				}
			}
		}
	}
}

func (r *Runner) handle(ctx context.Context, id int, j job) {
	if err := ctx.Err(); err != nil {
		j.reply <- Outcome{Name: j.task.Name, Err: fmt.Errorf("%w: %w", ErrRunnerStopped, err)}
		return
	}
	out := r.execute(ctx, j.task)
	if out.Err != nil {
		r.log.Debug().Err(out.Err).
			Str("task", out.Name).
			Int("worker_id", id).
			Dur("elapsed", out.Elapsed).
			Msg("task failed")
	}
	j.reply <- out
}

func (r *Runner) execute(ctx context.Context, t Task) (out Outcome) {
	timeout := r.timeout
	if t.Timeout > 0 {
		timeout = t.Timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	out.Name = t.Name
	defer func() {
		if p := recover(); p != nil {
			out.Err = fmt.Errorf("task %q panicked: %v", t.Name, p)
		}
		out.Elapsed = time.Since(start)
	}()

	if t.Run == nil {
		out.Err = fmt.Errorf("task %q has nothing to run", t.Name)
		return out
	}
	out.Value, out.Err = t.Run(ctx)
	return out
}
