package store

import (
	"context"
	"log/slog"
	"time"

	"worldsim/internal/events"
)

// HistoryFromResolution flattens r into a record for runID.
func HistoryFromResolution(runID string, r events.Resolution) HistoryRecord {
	rec := HistoryRecord{
		RunID:       runID,
		Tick:        r.Tick,
		ChoiceIndex: r.ChoiceIndex,
		ChoiceText:  r.Choice.ChoiceText,
		Applied:     r.Applied,
		Truncated:   append([]string(nil), r.Truncated...),
		RecordedAt:  time.Now().UTC(),
	}
	if r.Event != nil {
		rec.EventID = r.Event.Definition.ID
		rec.InstanceID = r.Event.ID
		rec.ParentID = r.Event.ParentID
		rec.Title = r.Event.Title
	}
	for _, ev := range r.Cascaded {
		rec.Cascaded = append(rec.Cascaded, ev.Definition.ID)
	}
	return rec
}

// Recorder is an events.Listener that appends every resolution to a store.
// Write failures are logged; the simulation keeps running.
type Recorder struct {
	ctx    context.Context
	store  Store
	runID  string
	logger *slog.Logger
}

var _ events.Listener = (*Recorder)(nil)

func NewRecorder(ctx context.Context, s Store, runID string, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{ctx: ctx, store: s, runID: runID, logger: logger}
}

func (r *Recorder) RunID() string {
	return r.runID
}

func (r *Recorder) Triggered(*events.ActiveEvent) {}

func (r *Recorder) Resolved(res events.Resolution) {
	rec := HistoryFromResolution(r.runID, res)
	if err := r.store.AppendHistory(r.ctx, rec); err != nil {
		r.logger.Warn("recording history", "run", r.runID, "event", rec.EventID, "error", err)
	}
}
