package mcp

import (
	"worldsim/internal/catalog"
	"worldsim/internal/events"
	"worldsim/internal/stats"
	"worldsim/internal/world"
)

type GetWorldInput struct{}

type GetLocationInput struct {
	ID   int    `json:"id,omitempty" jsonschema:"location id"`
	Name string `json:"name,omitempty" jsonschema:"location name, used when id is not given"`
}

type ListEventsInput struct {
	Category string `json:"category,omitempty" jsonschema:"category filter"`
}

type EligibleEventsInput struct{}

type ActiveEventsInput struct{}

type ResolveChoiceInput struct {
	EventID string `json:"event_id" jsonschema:"active event instance id, e.g. ev-3"`
	Choice  int    `json:"choice" jsonschema:"zero-based choice index"`
}

type AdvanceInput struct {
	Ticks int  `json:"ticks,omitempty" jsonschema:"number of ticks to run, default 1"`
	Force bool `json:"force,omitempty" jsonschema:"force one trigger attempt after the ticks"`
}

type SaveWorldInput struct {
	Path string `json:"path,omitempty" jsonschema:"save file path, defaults to the configured save path"`
	Slot string `json:"slot,omitempty" jsonschema:"store slot to save into as well"`
}

type WorldOutput struct {
	Tick       int64                   `json:"tick"`
	Phase      string                  `json:"phase"`
	Weather    string                  `json:"weather"`
	Resources  map[string]int          `json:"resources"`
	Aggregates map[string]float64      `json:"aggregates"`
	Averages   map[string]float64      `json:"averages"`
	Locations  []LocationSummaryOutput `json:"locations"`
	Agents     []AgentOutput           `json:"agents"`
	Active     int                     `json:"active_events"`
}

type LocationSummaryOutput struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Connections []int  `json:"connections"`
}

type LocationOutput struct {
	ID           int                `json:"id"`
	Name         string             `json:"name"`
	Stats        map[string]float64 `json:"stats"`
	Connections  []int              `json:"connections"`
	Visited      bool               `json:"visited"`
	UpgradeLevel int                `json:"upgrade_level"`
	Agents       []string           `json:"agents"`
}

type AgentOutput struct {
	ID       int      `json:"id"`
	Name     string   `json:"name"`
	Location int      `json:"location"`
	Traits   []string `json:"traits"`
}

type EventSummaryOutput struct {
	ID       string  `json:"id"`
	TitleKey string  `json:"title_key"`
	Category string  `json:"category,omitempty"`
	Weight   float64 `json:"weight"`
	Choices  int     `json:"choices"`
}

type ListEventsOutput struct {
	Events []EventSummaryOutput `json:"events"`
}

type ActiveEventOutput struct {
	ID          string   `json:"id"`
	EventID     string   `json:"event_id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tick        int64    `json:"tick"`
	Depth       int      `json:"depth"`
	ParentID    string   `json:"parent_id,omitempty"`
	Choices     []string `json:"choices"`
}

type ActiveEventsOutput struct {
	Events []ActiveEventOutput `json:"events"`
}

type ResolutionOutput struct {
	InstanceID  string              `json:"instance_id"`
	EventID     string              `json:"event_id"`
	ChoiceIndex int                 `json:"choice"`
	ChoiceText  string              `json:"choice_text"`
	Applied     int                 `json:"applied"`
	Cascaded    []ActiveEventOutput `json:"cascaded"`
	Truncated   []string            `json:"truncated,omitempty"`
}

type AdvanceOutput struct {
	Tick      int64               `json:"tick"`
	Triggered []ActiveEventOutput `json:"triggered"`
}

type SaveWorldOutput struct {
	Path  string `json:"path,omitempty"`
	Slot  string `json:"slot,omitempty"`
	Tick  int64  `json:"tick"`
	Bytes int    `json:"bytes"`
}

func worldOutput(w *world.World, active int) WorldOutput {
	clock := w.Clock()
	out := WorldOutput{
		Tick:       clock.Tick,
		Phase:      clock.Phase,
		Weather:    clock.Weather,
		Resources:  make(map[string]int, len(w.Resources)),
		Aggregates: w.Aggregates(),
		Averages:   make(map[string]float64),
		Locations:  make([]LocationSummaryOutput, 0),
		Agents:     make([]AgentOutput, 0),
		Active:     active,
	}
	for name, amount := range w.Resources {
		out.Resources[name] = amount
	}
	for _, name := range stats.CoreNames() {
		if avg, ok := w.Average(name); ok {
			out.Averages[name] = avg
		}
	}
	for _, location := range w.Locations() {
		out.Locations = append(out.Locations, LocationSummaryOutput{
			ID:          location.ID,
			Name:        location.Name,
			Connections: location.Connections(),
		})
	}
	for _, agent := range w.Agents() {
		out.Agents = append(out.Agents, agentOutput(agent))
	}
	return out
}

func locationOutput(w *world.World, location *world.Location) LocationOutput {
	out := LocationOutput{
		ID:           location.ID,
		Name:         location.Name,
		Stats:        location.Stats.Serialize(),
		Connections:  location.Connections(),
		Visited:      location.Visited,
		UpgradeLevel: location.UpgradeLevel,
		Agents:       make([]string, 0),
	}
	for _, agent := range w.Agents() {
		if agent.LocationID == location.ID {
			out.Agents = append(out.Agents, agent.Name)
		}
	}
	return out
}

func agentOutput(agent *world.Agent) AgentOutput {
	return AgentOutput{
		ID:       agent.ID,
		Name:     agent.Name,
		Location: agent.LocationID,
		Traits:   agent.TraitNames(),
	}
}

func eventSummaryOutput(def *catalog.Definition) EventSummaryOutput {
	return EventSummaryOutput{
		ID:       def.ID,
		TitleKey: def.TitleKey,
		Category: def.Category,
		Weight:   def.SelectionWeight(),
		Choices:  len(def.Choices),
	}
}

func activeEventOutput(ev *events.ActiveEvent) ActiveEventOutput {
	out := ActiveEventOutput{
		ID:          ev.ID,
		EventID:     ev.Definition.ID,
		Title:       ev.Title,
		Description: ev.Description,
		Tick:        ev.Tick,
		Depth:       ev.Depth,
		ParentID:    ev.ParentID,
		Choices:     make([]string, 0, len(ev.Definition.Choices)),
	}
	for _, choice := range ev.Definition.Choices {
		out.Choices = append(out.Choices, choice.ChoiceText)
	}
	return out
}

func activeEventOutputs(evs []*events.ActiveEvent) []ActiveEventOutput {
	out := make([]ActiveEventOutput, 0, len(evs))
	for _, ev := range evs {
		out = append(out, activeEventOutput(ev))
	}
	return out
}

func resolutionOutput(r events.Resolution) ResolutionOutput {
	return ResolutionOutput{
		InstanceID:  r.Event.ID,
		EventID:     r.Event.Definition.ID,
		ChoiceIndex: r.ChoiceIndex,
		ChoiceText:  r.Choice.ChoiceText,
		Applied:     r.Applied,
		Cascaded:    activeEventOutputs(r.Cascaded),
		Truncated:   r.Truncated,
	}
}
