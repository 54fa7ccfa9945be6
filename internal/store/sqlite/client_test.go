package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"worldsim/internal/store"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	ctx := context.Background()
	c, err := New(ctx, "sqlite://:memory:")
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { c.Close(ctx) })
	if err := c.EnsureSchema(ctx); err != nil {
		t.Fatalf("ensuring schema: %v", err)
	}
	return c
}

func TestSnapshots(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	if _, err := c.LoadSnapshot(ctx, "autosave"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := c.SaveSnapshot(ctx, "  ", 1, []byte("{}")); err == nil {
		t.Fatalf("expected error for blank slot")
	}

	if err := c.SaveSnapshot(ctx, "autosave", 10, []byte(`{"resources":{}}`)); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := c.SaveSnapshot(ctx, "autosave", 25, []byte(`{"resources":{"gold":1}}`)); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := c.SaveSnapshot(ctx, "before-storm", 3, []byte(`{}`)); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	snap, err := c.LoadSnapshot(ctx, "autosave")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if snap.Tick != 25 || string(snap.Payload) != `{"resources":{"gold":1}}` {
		t.Fatalf("expected overwritten slot, got tick %d payload %s", snap.Tick, snap.Payload)
	}
	if snap.SavedAt.IsZero() {
		t.Fatalf("expected saved time")
	}

	list, err := c.ListSnapshots(ctx)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(list) != 2 || list[0].Slot != "autosave" || list[1].Slot != "before-storm" {
		t.Fatalf("unexpected slots %+v", list)
	}
	if list[0].Size != len(`{"resources":{"gold":1}}`) {
		t.Fatalf("unexpected size %d", list[0].Size)
	}
}

func TestHistory(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	records := []store.HistoryRecord{
		{RunID: "run-a", Tick: 4, EventID: "storm", InstanceID: "ev-1", Title: "Storm", ChoiceIndex: 1, ChoiceText: "Shelter", Applied: 2, Cascaded: []string{"flood"}},
		{RunID: "run-b", Tick: 5, EventID: "fair", InstanceID: "ev-1"},
		{RunID: "run-a", Tick: 4, EventID: "flood", InstanceID: "ev-2", ParentID: "ev-1", Truncated: []string{"famine"}},
	}
	for _, rec := range records {
		if err := c.AppendHistory(ctx, rec); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	}

	got, err := c.ListHistory(ctx, "run-a", 0)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	if got[0].EventID != "storm" || got[0].ChoiceText != "Shelter" || got[0].Applied != 2 {
		t.Fatalf("unexpected first record %+v", got[0])
	}
	if !reflect.DeepEqual(got[0].Cascaded, []string{"flood"}) || got[0].Truncated != nil {
		t.Fatalf("unexpected lists %+v", got[0])
	}
	if got[1].ParentID != "ev-1" || !reflect.DeepEqual(got[1].Truncated, []string{"famine"}) {
		t.Fatalf("unexpected second record %+v", got[1])
	}
	if got[1].RecordedAt.IsZero() {
		t.Fatalf("expected recorded time")
	}

	all, err := c.ListHistory(ctx, "", 2)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(all) != 2 || all[1].RunID != "run-b" {
		t.Fatalf("unexpected limited history %+v", all)
	}
}

func TestRunSQL(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)
	if err := c.SaveSnapshot(ctx, "autosave", 7, []byte("{}")); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	rows, err := c.RunSQL(ctx, "SELECT slot, tick, payload FROM snapshots WHERE tick > ?", map[string]any{"1": 5})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(rows) != 1 || rows[0]["slot"] != "autosave" || rows[0]["payload"] != "{}" {
		t.Fatalf("unexpected rows %+v", rows)
	}

	if _, err := c.RunSQL(ctx, "SELECT * FROM missing", nil); err == nil {
		t.Fatalf("expected error for unknown table")
	}
}

func TestNewCreatesDirectory(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "worldsim.db")
	c, err := New(ctx, "sqlite://"+path)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	defer c.Close(ctx)
	if err := c.EnsureSchema(ctx); err != nil {
		t.Fatalf("ensuring schema: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected database file, got %v", err)
	}
}
