package events

const DefaultHistoryLimit = 256

// History keeps the most recent resolutions in order.
type History struct {
	limit   int
	entries []Resolution
}

func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &History{limit: limit}
}

func (h *History) Append(r Resolution) {
	h.entries = append(h.entries, r)
	if over := len(h.entries) - h.limit; over > 0 {
		h.entries = append([]Resolution(nil), h.entries[over:]...)
	}
}

func (h *History) Entries() []Resolution {
	return append([]Resolution(nil), h.entries...)
}

func (h *History) Len() int {
	return len(h.entries)
}
