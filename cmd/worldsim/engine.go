package main

import (
	"errors"
	"fmt"
	"log/slog"

	"worldsim/internal/catalog"
	"worldsim/internal/condition"
	"worldsim/internal/config"
	"worldsim/internal/effect"
	"worldsim/internal/events"
	"worldsim/internal/names"
	"worldsim/internal/persistence"
	"worldsim/internal/world"
)

// engine is one fully wired simulation loaded from a project config.
type engine struct {
	cfg       *config.ProjectConfig
	world     *world.World
	catalog   *catalog.Catalog
	applier   *effect.Applier
	scheduler *events.Scheduler
	resolver  *events.Resolver
	runner    *world.Runner
	traits    *world.TraitRegistry
	logger    *slog.Logger
}

type engineOptions struct {
	// Resume restores the world from this save file instead of world.yaml.
	Resume string
	// Realtime runs the loop on the configured tick interval.
	Realtime bool
}

func loadConfig() (*config.ProjectConfig, error) {
	return config.LoadProjectConfig(configPath)
}

func loadEngine(cfg *config.ProjectConfig, opts engineOptions) (*engine, error) {
	logger := slog.Default()
	sim := cfg.Simulation

	c, err := catalog.Load(cfg.Resolve(cfg.Paths.Catalog), logger)
	if err != nil && !errors.Is(err, catalog.ErrNotFound) {
		return nil, err
	}

	var namer events.Namer
	if cfg.Paths.Names != "" {
		table, err := names.Load(cfg.Resolve(cfg.Paths.Names))
		if err != nil {
			return nil, err
		}
		namer = table
	}

	seed := sim.Seed
	if seed == 0 {
		seed = world.NewSeed()
		logger.Info("using random seed", "seed", seed)
	}
	rng := world.NewRand(seed)
	traits := world.DefaultTraits()

	def, err := config.LoadWorld(cfg.Resolve(cfg.Paths.World))
	if err != nil {
		return nil, err
	}
	w, err := world.Build(def, cfg, traits, rng, logger)
	if err != nil {
		return nil, err
	}

	aggregates := make([]string, 0, len(cfg.Aggregates))
	for _, agg := range cfg.Aggregates {
		aggregates = append(aggregates, agg.Name)
	}
	applier := effect.NewApplier(cfg.CustomStats, aggregates, logger)

	scheduler := events.NewScheduler(c, condition.NewEvaluator(logger), namer, events.Options{
		Probability:     sim.Probability(),
		Weighted:        sim.WeightedSelection,
		MaxCascadeDepth: sim.MaxCascadeDepth,
	}, logger)
	resolver := events.NewResolver(scheduler, applier, nil, logger)

	if opts.Resume != "" {
		snap, err := persistence.ReadFile(opts.Resume)
		if err != nil {
			return nil, err
		}
		err = persistence.Load(snap, w, persistence.LoadOptions{
			Config:    cfg,
			Traits:    traits,
			Scheduler: scheduler,
			Logger:    logger,
		})
		if err != nil {
			return nil, err
		}
		logger.Info("world resumed", "path", opts.Resume, "tick", w.CurrentTick(), "active_events", len(scheduler.Active()))
	}

	runnerCfg := world.RunnerConfig{
		TickSeconds: sim.TickSeconds,
		Ambient: world.Ambient{
			DriftRate:            sim.DriftRate,
			DayPhaseSeconds:      sim.DayPhaseSeconds,
			WeatherChangeSeconds: sim.WeatherChangeSeconds,
		},
	}
	if opts.Realtime {
		runnerCfg.Interval = sim.TickInterval
	}

	return &engine{
		cfg:       cfg,
		world:     w,
		catalog:   c,
		applier:   applier,
		scheduler: scheduler,
		resolver:  resolver,
		runner:    world.NewRunner(w, scheduler, resolver, runnerCfg, logger),
		traits:    traits,
		logger:    logger,
	}, nil
}

// save writes the world to path, or to the configured save path when path
// is empty.
func (e *engine) save(path string) (string, error) {
	if path == "" {
		path = e.cfg.Resolve(e.cfg.Paths.Save)
	}
	if path == "" {
		return "", fmt.Errorf("no save path given and paths.save is not configured")
	}
	if err := persistence.WriteFile(path, persistence.Save(e.world, e.scheduler)); err != nil {
		return "", err
	}
	return path, nil
}
