package mcp

import (
	"context"
	"fmt"
	"strings"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"worldsim/internal/events"
	"worldsim/internal/persistence"
	"worldsim/internal/world"
)

const maxAdvanceTicks = 10000

func (s *Server) registerTools() {
	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "get_world",
		Description: "Summarize the world: clock, resources, aggregates, stat averages, locations and agents",
	}, s.handleGetWorld)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "get_location",
		Description: "Retrieve one location with its stats, connections and agents",
	}, s.handleGetLocation)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "list_events",
		Description: "List the event catalog",
	}, s.handleListEvents)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "eligible_events",
		Description: "List catalog events whose conditions currently hold",
	}, s.handleEligibleEvents)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "active_events",
		Description: "List triggered events awaiting a choice",
	}, s.handleActiveEvents)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "resolve_choice",
		Description: "Resolve an active event with the chosen option",
	}, s.handleResolveChoice)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "advance",
		Description: "Run simulation ticks and report triggered events",
	}, s.handleAdvance)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "save_world",
		Description: "Write the world to a save file and, optionally, a store slot",
	}, s.handleSaveWorld)
}

func (s *Server) handleGetWorld(ctx context.Context, req *sdk.CallToolRequest, input GetWorldInput) (*sdk.CallToolResult, WorldOutput, error) {
	var out WorldOutput
	err := s.runner.Submit(ctx, func(w *world.World) error {
		out = worldOutput(w, len(s.runner.Scheduler().Active()))
		return nil
	})
	if err != nil {
		return nil, WorldOutput{}, err
	}
	return nil, out, nil
}

func (s *Server) handleGetLocation(ctx context.Context, req *sdk.CallToolRequest, input GetLocationInput) (*sdk.CallToolResult, LocationOutput, error) {
	if input.ID == 0 && strings.TrimSpace(input.Name) == "" {
		return nil, LocationOutput{}, fmt.Errorf("id or name is required")
	}
	var out LocationOutput
	err := s.runner.Submit(ctx, func(w *world.World) error {
		location, ok := w.Location(input.ID)
		if !ok && input.Name != "" {
			location, ok = w.FindLocation(input.Name)
		}
		if !ok {
			return fmt.Errorf("location not found")
		}
		out = locationOutput(w, location)
		return nil
	})
	if err != nil {
		return nil, LocationOutput{}, err
	}
	return nil, out, nil
}

func (s *Server) handleListEvents(ctx context.Context, req *sdk.CallToolRequest, input ListEventsInput) (*sdk.CallToolResult, ListEventsOutput, error) {
	output := make([]EventSummaryOutput, 0)
	for _, def := range s.runner.Scheduler().Catalog().All() {
		if input.Category != "" && !strings.EqualFold(def.Category, input.Category) {
			continue
		}
		output = append(output, eventSummaryOutput(def))
	}
	return nil, ListEventsOutput{Events: output}, nil
}

func (s *Server) handleEligibleEvents(ctx context.Context, req *sdk.CallToolRequest, input EligibleEventsInput) (*sdk.CallToolResult, ListEventsOutput, error) {
	output := make([]EventSummaryOutput, 0)
	err := s.runner.Submit(ctx, func(w *world.World) error {
		for _, def := range s.runner.Scheduler().Eligible(w) {
			output = append(output, eventSummaryOutput(def))
		}
		return nil
	})
	if err != nil {
		return nil, ListEventsOutput{}, err
	}
	return nil, ListEventsOutput{Events: output}, nil
}

func (s *Server) handleActiveEvents(ctx context.Context, req *sdk.CallToolRequest, input ActiveEventsInput) (*sdk.CallToolResult, ActiveEventsOutput, error) {
	var output []ActiveEventOutput
	err := s.runner.Submit(ctx, func(w *world.World) error {
		output = activeEventOutputs(s.runner.Scheduler().Active())
		return nil
	})
	if err != nil {
		return nil, ActiveEventsOutput{}, err
	}
	return nil, ActiveEventsOutput{Events: output}, nil
}

func (s *Server) handleResolveChoice(ctx context.Context, req *sdk.CallToolRequest, input ResolveChoiceInput) (*sdk.CallToolResult, ResolutionOutput, error) {
	if input.EventID == "" {
		return nil, ResolutionOutput{}, fmt.Errorf("event_id is required")
	}
	var res events.Resolution
	err := s.runner.Submit(ctx, func(w *world.World) error {
		var err error
		res, err = s.runner.Resolver().ResolveByID(input.EventID, input.Choice, w)
		return err
	})
	if err != nil {
		return nil, ResolutionOutput{}, err
	}
	return nil, resolutionOutput(res), nil
}

func (s *Server) handleAdvance(ctx context.Context, req *sdk.CallToolRequest, input AdvanceInput) (*sdk.CallToolResult, AdvanceOutput, error) {
	ticks := input.Ticks
	if ticks == 0 && !input.Force {
		ticks = 1
	}
	if ticks < 0 || ticks > maxAdvanceTicks {
		return nil, AdvanceOutput{}, fmt.Errorf("ticks must be between 0 and %d", maxAdvanceTicks)
	}

	var out AdvanceOutput
	err := s.runner.Submit(ctx, func(w *world.World) error {
		triggered := s.runner.Advance(ticks)
		if input.Force {
			if ev := s.runner.Scheduler().ForceTick(w); ev != nil {
				triggered = append(triggered, ev)
			}
		}
		out = AdvanceOutput{Tick: w.CurrentTick(), Triggered: activeEventOutputs(triggered)}
		return nil
	})
	if err != nil {
		return nil, AdvanceOutput{}, err
	}
	return nil, out, nil
}

func (s *Server) handleSaveWorld(ctx context.Context, req *sdk.CallToolRequest, input SaveWorldInput) (*sdk.CallToolResult, SaveWorldOutput, error) {
	path := input.Path
	if path == "" {
		path = s.opts.SavePath
	}
	if path == "" && input.Slot == "" {
		return nil, SaveWorldOutput{}, fmt.Errorf("path or slot is required")
	}
	if input.Slot != "" && s.opts.Store == nil {
		return nil, SaveWorldOutput{}, fmt.Errorf("no store configured for slot %q", input.Slot)
	}

	var snap *persistence.Snapshot
	err := s.runner.Submit(ctx, func(w *world.World) error {
		snap = persistence.Save(w, s.runner.Scheduler())
		return nil
	})
	if err != nil {
		return nil, SaveWorldOutput{}, err
	}

	out := SaveWorldOutput{Path: path, Slot: input.Slot, Tick: snap.Clock.Tick}
	if path != "" {
		if err := persistence.WriteFile(path, snap); err != nil {
			return nil, SaveWorldOutput{}, err
		}
	}
	payload, err := persistence.Encode(snap, false)
	if err != nil {
		return nil, SaveWorldOutput{}, err
	}
	out.Bytes = len(payload)
	if input.Slot != "" {
		if err := s.opts.Store.SaveSnapshot(ctx, input.Slot, snap.Clock.Tick, payload); err != nil {
			return nil, SaveWorldOutput{}, err
		}
	}
	s.logger.Info("world saved", "path", path, "slot", input.Slot, "tick", out.Tick)
	return nil, out, nil
}
