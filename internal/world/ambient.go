package world

import (
	"math"

	"worldsim/internal/stats"
)

// educationBaseline is the population education contribution at its default
// level of 50.
const educationBaseline = 25.0

type Ambient struct {
	DriftRate            float64
	DayPhaseSeconds      float64
	WeatherChangeSeconds float64
}

// Update advances the clock, pulls every location's derived stats toward
// their targets, runs agent traits and follows tracked aggregates.
func (a Ambient) Update(w *World, dt float64) {
	if dt <= 0 {
		return
	}
	w.advanceClock(dt, a.DayPhaseSeconds, a.WeatherChangeSeconds)

	rate := math.Min(1, a.DriftRate*dt)
	if rate > 0 {
		for _, location := range w.Locations() {
			driftLocation(location.Stats, rate)
		}
	}

	for _, agent := range w.Agents() {
		for _, trait := range agent.Traits {
			trait.Update(w, agent, dt)
		}
	}

	for _, agg := range w.aggregates {
		if agg.track == "" {
			continue
		}
		if avg, ok := w.Average(agg.track); ok {
			agg.value += (avg - agg.value) * math.Max(rate, 0)
		}
	}
}

func driftLocation(b *stats.Block, rate float64) {
	morale := (b.Get(stats.EconomicProsperity) + b.Get(stats.PoliticalStability) + b.Get(stats.EnvironmentalHealth)) / 3
	health := (100 - b.Get(stats.EnvironmentalHealth) - b.Get(stats.MedicalResources)) / 2
	prosperity := (b.Get(stats.ResourceAvailability)+b.Get(stats.Infrastructure))/2 +
		0.3*b.Get(stats.TechnologicalLevel) - 0.05*b.Get(stats.PopulationDensity)
	education := educationBaseline + 0.2*b.Get(stats.CulturalDevelopment)

	pull(b, stats.Morale, morale, rate)
	pull(b, stats.HealthRisk, health, rate)
	pull(b, stats.EconomicProsperity, prosperity, rate)
	pull(b, stats.Education, education, rate)
}

func pull(b *stats.Block, name string, target, rate float64) {
	current := b.Get(name)
	b.Set(name, current+(target-current)*rate)
}
