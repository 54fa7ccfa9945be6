package store

import "time"

type Snapshot struct {
	Slot    string
	Tick    int64
	Payload []byte
	SavedAt time.Time
}

type SnapshotSummary struct {
	Slot    string
	Tick    int64
	Size    int
	SavedAt time.Time
}

// HistoryRecord is one resolved event as seen by a run.
type HistoryRecord struct {
	RunID       string
	Tick        int64
	EventID     string
	InstanceID  string
	ParentID    string
	Title       string
	ChoiceIndex int
	ChoiceText  string
	Applied     int
	Cascaded    []string
	Truncated   []string
	RecordedAt  time.Time
}
