package world

import (
	"fmt"
	"sort"
	"strings"

	"worldsim/internal/stats"
)

// Trait is a behaviour attached to an agent and updated every tick.
type Trait interface {
	Name() string
	Update(w *World, a *Agent, dt float64)
}

type TraitFactory func() Trait

// TraitRegistry constructs traits by name. Lookups are case-insensitive.
type TraitRegistry struct {
	factories map[string]TraitFactory
}

func NewTraitRegistry() *TraitRegistry {
	return &TraitRegistry{factories: make(map[string]TraitFactory)}
}

// DefaultTraits returns a registry holding the built-in traits.
func DefaultTraits() *TraitRegistry {
	r := NewTraitRegistry()
	r.Register("Optimist", func() Trait { return locationDrift{"Optimist", stats.Morale, 0.1} })
	r.Register("Saboteur", func() Trait { return locationDrift{"Saboteur", stats.EconomicProsperity, -0.2} })
	r.Register("Tech Savvy", func() Trait { return locationDrift{"Tech Savvy", stats.TechnologicalLevel, 0.2} })
	return r
}

func (r *TraitRegistry) Register(name string, factory TraitFactory) {
	r.factories[strings.ToLower(strings.TrimSpace(name))] = factory
}

func (r *TraitRegistry) New(name string) (Trait, error) {
	if r == nil {
		return nil, fmt.Errorf("unknown trait: %s", name)
	}
	factory, ok := r.factories[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("unknown trait: %s", name)
	}
	return factory(), nil
}

func (r *TraitRegistry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for _, factory := range r.factories {
		names = append(names, factory().Name())
	}
	sort.Strings(names)
	return names
}

// locationDrift shifts one stat at the agent's current location by rate*dt.
type locationDrift struct {
	name string
	stat string
	rate float64
}

func (t locationDrift) Name() string { return t.name }

func (t locationDrift) Update(w *World, a *Agent, dt float64) {
	location, ok := w.Location(a.LocationID)
	if !ok {
		return
	}
	location.Stats.Add(t.stat, t.rate*dt)
}
