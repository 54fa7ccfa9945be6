package events

import (
	"fmt"
	"log/slog"

	"worldsim/internal/catalog"
	"worldsim/internal/condition"
)

const (
	DefaultProbability     = 0.01
	DefaultMaxCascadeDepth = 8
)

type Options struct {
	// Probability is the per-tick chance of attempting a trigger.
	Probability float64
	// Weighted selects eligible definitions by weight instead of uniformly.
	Weighted bool
	// MaxCascadeDepth bounds chains of cascaded events below a root trigger.
	MaxCascadeDepth int
}

// Scheduler owns the active event set and decides when events trigger.
// It is not safe for concurrent use.
type Scheduler struct {
	catalog   *catalog.Catalog
	evaluator *condition.Evaluator
	namer     Namer
	opts      Options
	logger    *slog.Logger

	active    []*ActiveEvent
	listeners []Listener
	seq       int64
}

func NewScheduler(c *catalog.Catalog, evaluator *condition.Evaluator, namer Namer, opts Options, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	if c == nil {
		c = catalog.Empty()
	}
	if evaluator == nil {
		evaluator = condition.NewEvaluator(logger)
	}
	if namer == nil {
		namer = plainNamer{}
	}
	if opts.MaxCascadeDepth <= 0 {
		opts.MaxCascadeDepth = DefaultMaxCascadeDepth
	}
	return &Scheduler{
		catalog:   c,
		evaluator: evaluator,
		namer:     namer,
		opts:      opts,
		logger:    logger,
	}
}

func (s *Scheduler) Catalog() *catalog.Catalog {
	return s.catalog
}

func (s *Scheduler) Evaluator() *condition.Evaluator {
	return s.evaluator
}

func (s *Scheduler) Options() Options {
	return s.opts
}

func (s *Scheduler) AddListener(l Listener) {
	if l == nil {
		return
	}
	s.listeners = append(s.listeners, l)
}

// Tick runs one scheduling cycle and returns the event it triggered, if any.
// Conditions are only evaluated when the Bernoulli trial succeeds.
func (s *Scheduler) Tick(w World, dt float64) *ActiveEvent {
	if w.Rand().Float64() >= s.opts.Probability {
		return nil
	}
	return s.attempt(w)
}

// ForceTick runs a scheduling cycle without the Bernoulli trial.
func (s *Scheduler) ForceTick(w World) *ActiveEvent {
	return s.attempt(w)
}

func (s *Scheduler) attempt(w World) *ActiveEvent {
	eligible := s.Eligible(w)
	if len(eligible) == 0 {
		s.logger.Debug("no eligible events", "tick", w.CurrentTick())
		return nil
	}
	return s.Trigger(s.pick(eligible, w), nil, w)
}

// Eligible returns the definitions whose conditions hold, in catalog order.
func (s *Scheduler) Eligible(w World) []*catalog.Definition {
	var eligible []*catalog.Definition
	for _, def := range s.catalog.All() {
		if s.evaluator.IsMet(def.Conditions, w) {
			eligible = append(eligible, def)
		}
	}
	return eligible
}

func (s *Scheduler) pick(eligible []*catalog.Definition, w World) *catalog.Definition {
	r := w.Rand()
	if !s.opts.Weighted {
		return eligible[r.IntN(len(eligible))]
	}

	var total float64
	for _, def := range eligible {
		total += def.SelectionWeight()
	}
	target := r.Float64() * total
	for _, def := range eligible {
		target -= def.SelectionWeight()
		if target < 0 {
			return def
		}
	}
	return eligible[len(eligible)-1]
}

// Trigger instantiates def as a Triggered event below parent, resolves its
// text and notifies listeners. Both the scheduler and cascades use it.
func (s *Scheduler) Trigger(def *catalog.Definition, parent *ActiveEvent, w World) *ActiveEvent {
	s.seq++
	ev := &ActiveEvent{
		ID:          fmt.Sprintf("ev-%d", s.seq),
		Definition:  def,
		Title:       s.namer.Title(def.TitleKey),
		Description: s.namer.Expand(def.Description, w.Rand()),
		State:       Triggered,
		Tick:        w.CurrentTick(),
	}
	if parent != nil {
		ev.Depth = parent.Depth + 1
		ev.ParentID = parent.ID
	}
	s.active = append(s.active, ev)

	s.logger.Info("event triggered", "event", def.ID, "instance", ev.ID, "depth", ev.Depth, "tick", ev.Tick)
	for _, l := range s.listeners {
		l.Triggered(ev)
	}
	return ev
}

// Active returns the events awaiting resolution, oldest first.
func (s *Scheduler) Active() []*ActiveEvent {
	return append([]*ActiveEvent(nil), s.active...)
}

func (s *Scheduler) Find(id string) (*ActiveEvent, bool) {
	for _, ev := range s.active {
		if ev.ID == id {
			return ev, true
		}
	}
	return nil, false
}

// Restore puts a previously saved event back into the active set without
// notifying listeners.
func (s *Scheduler) Restore(ev *ActiveEvent) {
	ev.State = Triggered
	s.active = append(s.active, ev)
	var n int64
	if _, err := fmt.Sscanf(ev.ID, "ev-%d", &n); err == nil && n > s.seq {
		s.seq = n
	}
}

// Reset drops every active event.
func (s *Scheduler) Reset() {
	s.active = nil
}

func (s *Scheduler) remove(id string) bool {
	for i, ev := range s.active {
		if ev.ID == id {
			s.active = append(s.active[:i], s.active[i+1:]...)
			return true
		}
	}
	return false
}
