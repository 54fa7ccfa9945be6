package world

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"worldsim/internal/events"
)

var ErrStopped = errors.New("runner stopped")

type RunnerConfig struct {
	// TickSeconds is the simulated duration of one step.
	TickSeconds float64
	// Interval is the wall-clock time between steps. Zero runs no automatic
	// steps; the loop then only serves submitted work.
	Interval time.Duration
	Ambient  Ambient
}

type request struct {
	fn   func(*World) error
	done chan error
}

// Runner drives the world. All world access from other goroutines goes
// through Submit so it happens on the loop goroutine between steps.
type Runner struct {
	world     *World
	scheduler *events.Scheduler
	resolver  *events.Resolver
	cfg       RunnerConfig
	logger    *slog.Logger

	inbox    chan request
	stop     chan struct{}
	stopOnce sync.Once
	stopped  atomic.Bool
	running  atomic.Bool

	// owned is set while a loop serves the inbox, or is about to.
	mu    sync.RWMutex
	owned bool
}

func NewRunner(w *World, scheduler *events.Scheduler, resolver *events.Resolver, cfg RunnerConfig, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.TickSeconds <= 0 {
		cfg.TickSeconds = 1
	}
	return &Runner{
		world:     w,
		scheduler: scheduler,
		resolver:  resolver,
		cfg:       cfg,
		logger:    logger,
		inbox:     make(chan request, 64),
		stop:      make(chan struct{}),
	}
}

func (r *Runner) World() *World                { return r.world }
func (r *Runner) Scheduler() *events.Scheduler { return r.scheduler }
func (r *Runner) Resolver() *events.Resolver   { return r.resolver }

// Step advances the world by one tick: clock, ambient drift, traits, then
// the scheduler. It returns the event triggered this tick, if any.
func (r *Runner) Step() *events.ActiveEvent {
	dt := r.cfg.TickSeconds
	r.cfg.Ambient.Update(r.world, dt)
	return r.scheduler.Tick(r.world, dt)
}

// Advance runs n steps and returns the events they triggered.
func (r *Runner) Advance(n int) []*events.ActiveEvent {
	var triggered []*events.ActiveEvent
	for i := 0; i < n && !r.stopped.Load(); i++ {
		if ev := r.Step(); ev != nil {
			triggered = append(triggered, ev)
		}
	}
	return triggered
}

// Run loops until ctx is done or Stop is called. The stop flag is checked
// once per iteration.
func (r *Runner) Run(ctx context.Context) error {
	if !r.running.CompareAndSwap(false, true) {
		return errors.New("runner already running")
	}
	defer r.running.Store(false)
	r.Claim()
	defer r.release()

	var tick <-chan time.Time
	if r.cfg.Interval > 0 {
		ticker := time.NewTicker(r.cfg.Interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	r.logger.Info("runner started", "interval", r.cfg.Interval, "tick_seconds", r.cfg.TickSeconds)
	for {
		if r.stopped.Load() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-r.stop:
		case req := <-r.inbox:
			req.done <- req.fn(r.world)
		case <-tick:
			r.Step()
		}
	}
}

// Running reports whether Run is serving the loop.
func (r *Runner) Running() bool {
	return r.running.Load()
}

func (r *Runner) Stop() {
	r.stopOnce.Do(func() {
		r.stopped.Store(true)
		close(r.stop)
	})
}

// Claim routes Submit through the inbox from now on, before Run has
// started. Call it before handing the runner to other goroutines.
func (r *Runner) Claim() {
	r.mu.Lock()
	r.owned = true
	r.mu.Unlock()
}

// release hands the world back to direct Submit calls once the loop exits.
// Queued requests are failed so no writer holding the read lock stays
// blocked on a full inbox.
func (r *Runner) release() {
	for !r.mu.TryLock() {
		r.drain()
		runtime.Gosched()
	}
	r.owned = false
	r.mu.Unlock()
	r.drain()
}

// Submit runs fn on the loop goroutine and waits for its result. When no
// loop owns the runner fn runs on the caller's goroutine.
func (r *Runner) Submit(ctx context.Context, fn func(*World) error) error {
	if r.stopped.Load() {
		return ErrStopped
	}

	r.mu.RLock()
	if !r.owned {
		r.mu.RUnlock()
		return fn(r.world)
	}
	req := request{fn: fn, done: make(chan error, 1)}
	select {
	case r.inbox <- req:
	case <-ctx.Done():
		r.mu.RUnlock()
		return ctx.Err()
	case <-r.stop:
		r.mu.RUnlock()
		return ErrStopped
	}
	r.mu.RUnlock()

	select {
	case err := <-req.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-r.stop:
		return ErrStopped
	}
}

func (r *Runner) drain() {
	for {
		select {
		case req := <-r.inbox:
			req.done <- ErrStopped
		default:
			return
		}
	}
}
