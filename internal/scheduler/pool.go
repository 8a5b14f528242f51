package scheduler

import (
	"context"
	"log/slog"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
)

// reservedCPUs are left for the main goroutine and the runtime when sizing the pool.
const reservedCPUs = 2

// Task is a unit of work executed once by a worker.
type Task interface {
	Run(ctx context.Context)
}

// TaskFunc adapts a function to Task.
type TaskFunc func(ctx context.Context)

// Run calls f(ctx).
func (f TaskFunc) Run(ctx context.Context) { f(ctx) }

// Gauge receives queue measurements. prometheus.Gauge satisfies it.
type Gauge interface {
	Set(float64)
}

// Pool is a fixed-size worker pool over an unbounded queue.
type Pool struct {
	workers int
	logger  *slog.Logger
	queued  Gauge
	running Gauge

	mu      sync.Mutex
	cond    *sync.Cond
	queue   []Task
	active  int
	pending int           // queued + active
	idle    chan struct{} // closed while pending == 0
	started bool
	closed  bool

	done     chan struct{} // closed by Shutdown
	stopOnce sync.Once
	g        errgroup.Group
}

// Option configures a Pool.
type Option func(*Pool)

// WithWorkers sets the number of workers. Values below 1 are ignored.
func WithWorkers(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithLogger sets the logger used for task panics and cancellation.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pool) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithGauges reports queue length and busy workers.
func WithGauges(queued, running Gauge) Option {
	return func(p *Pool) {
		p.queued = queued
		p.running = running
	}
}

// DefaultWorkers returns the available parallelism minus a small reserve, at least 1.
func DefaultWorkers() int {
	n := runtime.NumCPU() - reservedCPUs
	if n < 1 {
		return 1
	}
	return n
}

// New creates a stopped pool. Tasks may be submitted before Start.
func New(opts ...Option) *Pool {
	idle := make(chan struct{})
	close(idle)

	p := &Pool{
		workers: DefaultWorkers(),
		logger:  slog.Default(),
		idle:    idle,
		done:    make(chan struct{}),
	}
	p.cond = sync.NewCond(&p.mu)

	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Workers returns the pool size.
func (p *Pool) Workers() int {
	return p.workers
}

// Start launches the workers. Every task runs with ctx. When ctx is
// cancelled, tasks still queued are discarded.
func (p *Pool) Start(ctx context.Context) error {
	p.mu.Lock()
	switch {
	case p.closed:
		p.mu.Unlock()
		return ErrPoolClosed
	case p.started:
		p.mu.Unlock()
		return ErrAlreadyStarted
	}
	p.started = true
	p.mu.Unlock()

	for i := range p.workers {
		p.g.Go(func() error {
			p.work(ctx, i)
			return nil
		})
	}

	go func() {
		select {
		case <-ctx.Done():
			if n := p.discard(); n > 0 {
				p.logger.Warn("discarded queued tasks", "count", n, "reason", ctx.Err())
			}
		case <-p.done:
		}
	}()

	return nil
}

// Submit enqueues t and returns immediately.
func (p *Pool) Submit(t Task) error {
	if t == nil {
		return ErrNilTask
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPoolClosed
	}
	if p.pending == 0 {
		p.idle = make(chan struct{})
	}
	p.pending++
	p.queue = append(p.queue, t)
	p.observe()
	p.cond.Signal()
	return nil
}

// Wait blocks until no task is queued or running, or ctx is done.
// Tasks submitted by running tasks are counted, so Wait does not return
// while a crawl is still expanding.
func (p *Pool) Wait(ctx context.Context) error {
	p.mu.Lock()
	idle := p.idle
	p.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops intake and waits for the workers to drain the queue and exit.
// Submit returns ErrPoolClosed from the moment Shutdown is called; a task
// accepted before that still runs. Shutdown is idempotent.
func (p *Pool) Shutdown() {
	p.mu.Lock()
	p.closed = true
	started := p.started
	p.cond.Broadcast()
	p.mu.Unlock()

	p.stopOnce.Do(func() { close(p.done) })

	if !started {
		p.discard()
		return
	}
	_ = p.g.Wait()
}

// Done is closed once Shutdown has been called.
func (p *Pool) Done() <-chan struct{} {
	return p.done
}

// Len returns the number of queued and running tasks.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pending
}

func (p *Pool) work(ctx context.Context, id int) {
	for {
		t, ok := p.next()
		if !ok {
			return
		}
		p.run(ctx, id, t)
		p.complete()
	}
}

// next blocks until a task is available or the pool is closed and drained.
func (p *Pool) next() (Task, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for len(p.queue) == 0 && !p.closed {
		p.cond.Wait()
	}
	if len(p.queue) == 0 {
		return nil, false
	}

	t := p.queue[0]
	p.queue[0] = nil
	p.queue = p.queue[1:]
	p.active++
	p.observe()
	return t, true
}

func (p *Pool) run(ctx context.Context, id int, t Task) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("task panicked", "worker", id, "panic", r)
		}
	}()
	t.Run(ctx)
}

func (p *Pool) complete() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.active--
	p.pending--
	if p.pending == 0 {
		close(p.idle)
	}
	p.observe()
}

// discard drops every queued task and returns how many were dropped.
func (p *Pool) discard() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := len(p.queue)
	if n == 0 {
		return 0
	}
	clear(p.queue)
	p.queue = nil
	p.pending -= n
	if p.pending == 0 {
		close(p.idle)
	}
	p.observe()
	return n
}

// observe must be called with mu held.
func (p *Pool) observe() {
	if p.queued != nil {
		p.queued.Set(float64(len(p.queue)))
	}
	if p.running != nil {
		p.running.Set(float64(p.active))
	}
}
