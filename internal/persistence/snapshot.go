package persistence

import (
	"errors"
	"fmt"
	"log/slog"

	"worldsim/internal/config"
	"worldsim/internal/events"
	"worldsim/internal/world"
)

const Version = 1

var (
	ErrNotFound = errors.New("save file not found")
	ErrParse    = errors.New("save file parse failed")
)

type Snapshot struct {
	Version      int                `json:"version,omitempty"`
	Resources    map[string]int     `json:"resources"`
	Entities     []Entity           `json:"entities"`
	Agents       []Agent            `json:"agents"`
	Clock        *Clock             `json:"clock,omitempty"`
	Aggregates   map[string]float64 `json:"aggregates,omitempty"`
	ActiveEvents []ActiveEvent      `json:"activeEvents,omitempty"`
}

type Entity struct {
	ID           int                `json:"id"`
	Name         string             `json:"name"`
	Stats        map[string]float64 `json:"stats"`
	ConnectedIDs []int              `json:"connectedIds"`
	Visited      bool               `json:"visited"`
	UpgradeLevel int                `json:"upgradeLevel"`
}

type Agent struct {
	ID              int                `json:"id"`
	Name            string             `json:"name"`
	CurrentEntityID int                `json:"currentEntityId"`
	Traits          []string           `json:"traits"`
	Stats           map[string]float64 `json:"stats,omitempty"`
}

type Clock struct {
	Tick    int64   `json:"tick"`
	Elapsed float64 `json:"elapsed"`
	Phase   string  `json:"phase"`
	Weather string  `json:"weather"`
}

type ActiveEvent struct {
	ID          string `json:"id"`
	EventID     string `json:"eventId"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Tick        int64  `json:"tick"`
	Depth       int    `json:"depth,omitempty"`
	ParentID    string `json:"parentId,omitempty"`
}

// Save captures w. When s is non-nil its active events are included.
func Save(w *world.World, s *events.Scheduler) *Snapshot {
	snap := &Snapshot{
		Version:   Version,
		Resources: make(map[string]int, len(w.Resources)),
	}
	for name, amount := range w.Resources {
		snap.Resources[name] = amount
	}

	for _, location := range w.Locations() {
		snap.Entities = append(snap.Entities, Entity{
			ID:           location.ID,
			Name:         location.Name,
			Stats:        location.Stats.Serialize(),
			ConnectedIDs: location.Connections(),
			Visited:      location.Visited,
			UpgradeLevel: location.UpgradeLevel,
		})
	}

	for _, agent := range w.Agents() {
		snap.Agents = append(snap.Agents, Agent{
			ID:              agent.ID,
			Name:            agent.Name,
			CurrentEntityID: agent.LocationID,
			Traits:          agent.TraitNames(),
			Stats:           agent.Stats.Serialize(),
		})
	}

	clock := w.Clock()
	snap.Clock = &Clock{Tick: clock.Tick, Elapsed: clock.Elapsed, Phase: clock.Phase, Weather: clock.Weather}

	if aggregates := w.Aggregates(); len(aggregates) > 0 {
		snap.Aggregates = aggregates
	}

	if s != nil {
		for _, ev := range s.Active() {
			snap.ActiveEvents = append(snap.ActiveEvents, ActiveEvent{
				ID:          ev.ID,
				EventID:     ev.Definition.ID,
				Title:       ev.Title,
				Description: ev.Description,
				Tick:        ev.Tick,
				Depth:       ev.Depth,
				ParentID:    ev.ParentID,
			})
		}
	}
	return snap
}

type LoadOptions struct {
	Config    *config.ProjectConfig
	Traits    *world.TraitRegistry
	Scheduler *events.Scheduler
	Logger    *slog.Logger
}

// Load rebuilds dst from snap. Entities are created first, then connected,
// then agents are placed. dst is only replaced when every step succeeds.
func Load(snap *Snapshot, dst *world.World, opts LoadOptions) error {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if snap == nil {
		return fmt.Errorf("loading snapshot: %w: empty snapshot", ErrParse)
	}
	if snap.Version > Version {
		return fmt.Errorf("loading snapshot: %w: unsupported version %d", ErrParse, snap.Version)
	}

	fresh := world.New(dst.Rand())
	world.Declare(fresh, opts.Config)
	for name, amount := range snap.Resources {
		fresh.Resources[name] = amount
	}

	for _, entity := range snap.Entities {
		location, err := fresh.AddLocation(entity.ID, entity.Name)
		if err != nil {
			return fmt.Errorf("loading snapshot: %w: %v", ErrParse, err)
		}
		location.Stats.Deserialize(entity.Stats)
		location.Visited = entity.Visited
		location.UpgradeLevel = entity.UpgradeLevel
	}

	for _, entity := range snap.Entities {
		for _, id := range entity.ConnectedIDs {
			if err := fresh.Connect(entity.ID, id); err != nil {
				return fmt.Errorf("loading snapshot: %w: %v", ErrParse, err)
			}
		}
	}

	for _, a := range snap.Agents {
		agent, err := fresh.AddAgent(a.ID, a.Name, a.CurrentEntityID)
		if err != nil {
			return fmt.Errorf("loading snapshot: %w: %v", ErrParse, err)
		}
		agent.Stats.Deserialize(a.Stats)
		world.AttachTraits(agent, a.Traits, opts.Traits, logger)
	}

	if snap.Clock != nil {
		fresh.SetClock(world.Clock{
			Tick:    snap.Clock.Tick,
			Elapsed: snap.Clock.Elapsed,
			Phase:   snap.Clock.Phase,
			Weather: snap.Clock.Weather,
		})
	}
	for name, value := range snap.Aggregates {
		if !fresh.SetAggregate(name, value) {
			fresh.DeclareAggregate(name, value, "")
		}
	}

	dst.ReplaceWith(fresh)

	if opts.Scheduler != nil {
		restoreActive(snap.ActiveEvents, opts.Scheduler, logger)
	}
	return nil
}

func restoreActive(saved []ActiveEvent, s *events.Scheduler, logger *slog.Logger) {
	s.Reset()
	for _, ev := range saved {
		def, ok := s.Catalog().FindByID(ev.EventID)
		if !ok {
			logger.Warn("dropping saved event", "event", ev.EventID, "error", "not in catalog")
			continue
		}
		s.Restore(&events.ActiveEvent{
			ID:          ev.ID,
			Definition:  def,
			Title:       ev.Title,
			Description: ev.Description,
			Tick:        ev.Tick,
			Depth:       ev.Depth,
			ParentID:    ev.ParentID,
		})
	}
}
