package ws

import "worldsim/internal/events"

const (
	TypeActive    = "active"
	TypeTriggered = "triggered"
	TypeResolved  = "resolved"
	TypeError     = "error"
	TypeChoose    = "choose"
)

// ServerMessage is every frame the hub writes.
type ServerMessage struct {
	Type       string         `json:"type"`
	Tick       int64          `json:"tick"`
	Event      *EventFrame    `json:"event,omitempty"`
	Events     []EventFrame   `json:"events,omitempty"`
	Resolution *ResolvedFrame `json:"resolution,omitempty"`
	Error      string         `json:"error,omitempty"`
}

// ClientMessage is a player's choice.
type ClientMessage struct {
	Type    string `json:"type"`
	EventID string `json:"event_id"`
	Choice  int    `json:"choice"`
}

type EventFrame struct {
	ID          string   `json:"id"`
	EventID     string   `json:"event_id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Depth       int      `json:"depth"`
	ParentID    string   `json:"parent_id,omitempty"`
	Choices     []string `json:"choices"`
}

type ResolvedFrame struct {
	ID         string   `json:"id"`
	EventID    string   `json:"event_id"`
	Choice     int      `json:"choice"`
	ChoiceText string   `json:"choice_text"`
	Applied    int      `json:"applied"`
	Cascaded   []string `json:"cascaded,omitempty"`
	Truncated  []string `json:"truncated,omitempty"`
}

func eventFrame(ev *events.ActiveEvent) EventFrame {
	frame := EventFrame{
		ID:          ev.ID,
		EventID:     ev.Definition.ID,
		Title:       ev.Title,
		Description: ev.Description,
		Depth:       ev.Depth,
		ParentID:    ev.ParentID,
		Choices:     make([]string, 0, len(ev.Definition.Choices)),
	}
	for _, choice := range ev.Definition.Choices {
		frame.Choices = append(frame.Choices, choice.ChoiceText)
	}
	return frame
}

func resolvedFrame(r events.Resolution) *ResolvedFrame {
	frame := &ResolvedFrame{
		ID:         r.Event.ID,
		EventID:    r.Event.Definition.ID,
		Choice:     r.ChoiceIndex,
		ChoiceText: r.Choice.ChoiceText,
		Applied:    r.Applied,
		Truncated:  r.Truncated,
	}
	for _, ev := range r.Cascaded {
		frame.Cascaded = append(frame.Cascaded, ev.ID)
	}
	return frame
}
