package world

import (
	"fmt"
	"log/slog"
	"math/rand/v2"

	"worldsim/internal/config"
)

// Declare registers configured custom stats and aggregates on w.
func Declare(w *World, cfg *config.ProjectConfig) {
	if cfg == nil {
		return
	}
	for _, name := range cfg.CustomStats {
		w.DeclareCustomStat(name, 0)
	}
	for _, agg := range cfg.Aggregates {
		w.DeclareAggregate(agg.Name, agg.Initial, agg.Track)
	}
}

// Build constructs a world from its authored definition. Unknown trait names
// are logged and skipped.
func Build(def *config.WorldDefinition, cfg *config.ProjectConfig, traits *TraitRegistry, rng *rand.Rand, logger *slog.Logger) (*World, error) {
	if logger == nil {
		logger = slog.Default()
	}

	w := New(rng)
	Declare(w, cfg)
	for name, amount := range def.Resources {
		w.Resources[name] = amount
	}
	w.SetClock(Clock{Phase: def.Clock.Phase, Weather: def.Clock.Weather})

	for _, ld := range def.Locations {
		location, err := w.AddLocation(ld.ID, ld.Name)
		if err != nil {
			return nil, fmt.Errorf("building world: %w", err)
		}
		location.Stats.Deserialize(ld.Stats)
		location.Visited = ld.Visited
		location.UpgradeLevel = ld.UpgradeLevel
	}

	for _, ld := range def.Locations {
		for _, target := range ld.Connections {
			if err := w.Connect(ld.ID, target); err != nil {
				return nil, fmt.Errorf("building world: %w", err)
			}
		}
	}

	for _, ad := range def.Agents {
		agent, err := w.AddAgent(ad.ID, ad.Name, ad.Location)
		if err != nil {
			return nil, fmt.Errorf("building world: %w", err)
		}
		agent.Stats.Deserialize(ad.Stats)
		AttachTraits(agent, ad.Traits, traits, logger)
	}

	return w, nil
}

// AttachTraits instantiates each named trait through the registry.
func AttachTraits(agent *Agent, names []string, traits *TraitRegistry, logger *slog.Logger) {
	for _, name := range names {
		trait, err := traits.New(name)
		if err != nil {
			logger.Warn("skipping trait", "agent", agent.Name, "trait", name, "error", err)
			continue
		}
		agent.Traits = append(agent.Traits, trait)
	}
}
