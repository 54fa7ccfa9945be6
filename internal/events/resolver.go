package events

import (
	"fmt"
	"log/slog"

	"worldsim/internal/effect"
)

// Resolver turns a player's choice into effects and cascaded events.
type Resolver struct {
	scheduler *Scheduler
	applier   *effect.Applier
	history   *History
	logger    *slog.Logger
}

func NewResolver(scheduler *Scheduler, applier *effect.Applier, history *History, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	if history == nil {
		history = NewHistory(0)
	}
	return &Resolver{
		scheduler: scheduler,
		applier:   applier,
		history:   history,
		logger:    logger,
	}
}

func (r *Resolver) History() *History {
	return r.history
}

// ResolveByID resolves the active event with the given instance id.
func (r *Resolver) ResolveByID(id string, choiceIndex int, w World) (Resolution, error) {
	ev, ok := r.scheduler.Find(id)
	if !ok {
		return Resolution{}, fmt.Errorf("resolving %s: %w", id, ErrNotActive)
	}
	return r.Resolve(ev, choiceIndex, w)
}

// Resolve applies the chosen outcome's effects, then triggers each next event
// whose condition holds after those effects, then retires ev. An event
// without choices resolves with index 0 and no effects.
func (r *Resolver) Resolve(ev *ActiveEvent, choiceIndex int, w World) (Resolution, error) {
	if ev == nil {
		return Resolution{}, fmt.Errorf("resolving event: %w", ErrNotActive)
	}
	if current, ok := r.scheduler.Find(ev.ID); !ok || current != ev {
		return Resolution{}, fmt.Errorf("resolving %s: %w", ev.ID, ErrNotActive)
	}

	choices := ev.Definition.Choices
	res := Resolution{Event: ev, ChoiceIndex: choiceIndex, Tick: w.CurrentTick()}
	switch {
	case len(choices) == 0 && choiceIndex == 0:
	case choiceIndex < 0 || choiceIndex >= len(choices):
		return Resolution{}, fmt.Errorf("resolving %s: %w: %d of %d", ev.ID, ErrInvalidChoice, choiceIndex, len(choices))
	default:
		res.Choice = choices[choiceIndex]
	}

	res.Applied = r.applier.ApplyAll(res.Choice.Outcome.Effects, w)

	limit := r.scheduler.opts.MaxCascadeDepth
	for _, nextID := range res.Choice.Outcome.TriggerNextEvents {
		next, ok := r.scheduler.catalog.FindByID(nextID)
		if !ok {
			r.logger.Debug("cascade skipped", "event", nextID, "reason", "not in catalog")
			continue
		}
		if !r.scheduler.evaluator.IsMet(next.Conditions, w) {
			r.logger.Debug("cascade skipped", "event", nextID, "reason", "condition not met")
			continue
		}
		if ev.Depth+1 > limit {
			r.logger.Warn("cascade truncated", "event", nextID, "parent", ev.Definition.ID, "max_depth", limit)
			res.Truncated = append(res.Truncated, nextID)
			continue
		}
		res.Cascaded = append(res.Cascaded, r.scheduler.Trigger(next, ev, w))
	}

	ev.State = Resolved
	r.scheduler.remove(ev.ID)
	r.history.Append(res)

	r.logger.Info("event resolved", "event", ev.Definition.ID, "instance", ev.ID, "choice", choiceIndex, "cascaded", len(res.Cascaded))
	for _, l := range r.scheduler.listeners {
		l.Resolved(res)
	}
	return res, nil
}
