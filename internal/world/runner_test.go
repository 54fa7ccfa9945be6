package world

import (
	"context"
	"errors"
	"testing"
	"time"

	"worldsim/internal/catalog"
	"worldsim/internal/condition"
	"worldsim/internal/effect"
	"worldsim/internal/events"
	"worldsim/internal/stats"
)

func newTestRunner(t *testing.T, probability float64, interval time.Duration) *Runner {
	t.Helper()
	logger := quietLogger()
	w := New(NewRand(11))
	if _, err := w.AddLocation(1, "Harbor"); err != nil {
		t.Fatalf("adding location: %v", err)
	}

	c, err := catalog.New([]catalog.Definition{{
		ID: "rally",
		Choices: []catalog.Choice{
			{ChoiceText: "cheer", Outcome: catalog.Outcome{Effects: map[string]float64{stats.Morale: 10}}},
		},
	}})
	if err != nil {
		t.Fatalf("building catalog: %v", err)
	}

	s := events.NewScheduler(c, condition.NewEvaluator(logger), nil, events.Options{Probability: probability}, logger)
	r := events.NewResolver(s, effect.NewApplier(nil, nil, logger), nil, logger)
	return NewRunner(w, s, r, RunnerConfig{TickSeconds: 1, Interval: interval}, logger)
}

func TestRunnerAdvance(t *testing.T) {
	r := newTestRunner(t, 1, 0)

	triggered := r.Advance(3)
	if len(triggered) != 3 || len(r.Scheduler().Active()) != 3 {
		t.Fatalf("expected one event per step, got %d", len(triggered))
	}
	if r.World().CurrentTick() != 3 {
		t.Fatalf("expected tick 3, got %d", r.World().CurrentTick())
	}
}

func TestRunnerSubmitWithoutLoop(t *testing.T) {
	r := newTestRunner(t, 0, 0)
	var called bool
	err := r.Submit(context.Background(), func(w *World) error {
		called = w == r.World()
		return nil
	})
	if err != nil || !called {
		t.Fatalf("expected direct execution, got %v", err)
	}
}

func TestRunnerRunServesSubmissions(t *testing.T) {
	r := newTestRunner(t, 0, time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	waitRunning(t, r)

	var ev *events.ActiveEvent
	err := r.Submit(ctx, func(w *World) error {
		ev = r.Scheduler().ForceTick(w)
		return nil
	})
	if err != nil || ev == nil {
		t.Fatalf("expected forced event, got %v", err)
	}

	err = r.Submit(ctx, func(w *World) error {
		_, err := r.Resolver().Resolve(ev, 0, w)
		return err
	})
	if err != nil {
		t.Fatalf("expected resolve to succeed, got %v", err)
	}

	var morale float64
	_ = r.Submit(ctx, func(w *World) error {
		location, _ := w.Location(1)
		morale = location.Stats.Get(stats.Morale)
		return nil
	})
	if morale < 55 {
		t.Fatalf("expected morale raised by the choice, got %v", morale)
	}

	boom := errors.New("boom")
	if err := r.Submit(ctx, func(*World) error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("expected submitted error, got %v", err)
	}

	r.Stop()
	if err := <-done; err != nil {
		t.Fatalf("expected clean stop, got %v", err)
	}
	if err := r.Submit(ctx, func(*World) error { return nil }); !errors.Is(err, ErrStopped) {
		t.Fatalf("expected ErrStopped, got %v", err)
	}
}

func TestRunnerContextCancel(t *testing.T) {
	r := newTestRunner(t, 0, 0)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	waitRunning(t, r)
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func waitRunning(t *testing.T, r *Runner) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !r.Running() {
		if time.Now().After(deadline) {
			t.Fatalf("runner did not start")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestRunnerClaimQueuesUntilLoopStarts(t *testing.T) {
	r := newTestRunner(t, 0, 0)
	r.Claim()

	result := make(chan error, 1)
	go func() {
		result <- r.Submit(context.Background(), func(*World) error {
			if !r.Running() {
				return errors.New("executed outside the loop")
			}
			return nil
		})
	}()

	select {
	case err := <-result:
		t.Fatalf("submit returned before the loop started: %v", err)
	case <-time.After(20 * time.Millisecond):
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	select {
	case err := <-result:
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("submit was never served")
	}

	cancel()
	<-done
	var direct bool
	if err := r.Submit(context.Background(), func(*World) error { direct = true; return nil }); err != nil || !direct {
		t.Fatalf("expected direct execution after the loop exits, got %v", err)
	}
}
