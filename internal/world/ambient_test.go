package world

import (
	"math"
	"testing"

	"worldsim/internal/stats"
)

func TestClockCycles(t *testing.T) {
	w := New(NewRand(7))
	a := Ambient{DayPhaseSeconds: 10}

	for i := 0; i < 10; i++ {
		a.Update(w, 1)
	}
	if w.Phase() != Afternoon {
		t.Fatalf("expected Afternoon after one phase length, got %s", w.Phase())
	}
	clock := w.Clock()
	if clock.Tick != 10 || clock.Elapsed != 10 {
		t.Fatalf("unexpected clock %+v", clock)
	}

	for i := 0; i < 30; i++ {
		a.Update(w, 1)
	}
	if w.Phase() != Morning {
		t.Fatalf("expected phases to wrap to Morning, got %s", w.Phase())
	}

	a.Update(w, 0)
	if w.CurrentTick() != 40 {
		t.Fatalf("zero dt must not advance the clock")
	}
}

func TestWeatherRerolls(t *testing.T) {
	w := New(NewRand(3))
	a := Ambient{WeatherChangeSeconds: 1}
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		a.Update(w, 1)
		seen[w.Weather()] = true
	}
	if len(seen) < 3 {
		t.Fatalf("expected weather to vary, saw %v", seen)
	}
	for weather := range seen {
		known := false
		for _, kind := range WeatherKind {
			known = known || kind == weather
		}
		if !known {
			t.Fatalf("unexpected weather %q", weather)
		}
	}
}

func TestAmbientDrift(t *testing.T) {
	w := New(NewRand(1))
	location, _ := w.AddLocation(1, "Harbor")
	location.Stats.Set(stats.Morale, 0)
	location.Stats.Set(stats.EconomicProsperity, 90)
	location.Stats.Set(stats.PoliticalStability, 90)
	location.Stats.Set(stats.EnvironmentalHealth, 90)

	a := Ambient{DriftRate: 0.5}
	a.Update(w, 1)

	if got := location.Stats.Get(stats.Morale); got <= 0 || got >= 90 {
		t.Fatalf("expected morale to move toward 90, got %v", got)
	}

	for i := 0; i < 200; i++ {
		a.Update(w, 1)
	}
	b := location.Stats
	for _, name := range stats.CoreNames() {
		if v := b.Get(name); v < stats.MinValue || v > stats.MaxValue {
			t.Fatalf("%s left bounds: %v", name, v)
		}
	}
	wantHealth := (100 - b.Get(stats.EnvironmentalHealth) - b.Get(stats.MedicalResources)) / 2
	if math.Abs(b.Get(stats.HealthRisk)-math.Max(0, wantHealth)) > 0.01 {
		t.Fatalf("expected health risk to settle at %v, got %v", wantHealth, b.Get(stats.HealthRisk))
	}
}

func TestAmbientTracksAggregate(t *testing.T) {
	w := New(NewRand(1))
	location, _ := w.AddLocation(1, "Harbor")
	location.Stats.Set(stats.Tourism, 80)
	w.DeclareAggregate("travel.visitors", 0, stats.Tourism)
	w.DeclareAggregate("economy.fixed", 5, "")

	a := Ambient{DriftRate: 1}
	a.Update(w, 1)

	if v, _ := w.Aggregate("travel.visitors"); v != 80 {
		t.Fatalf("expected tracked aggregate at 80, got %v", v)
	}
	if v, _ := w.Aggregate("economy.fixed"); v != 5 {
		t.Fatalf("untracked aggregate must not drift, got %v", v)
	}
}

func TestTraits(t *testing.T) {
	w := New(NewRand(1))
	location, _ := w.AddLocation(1, "Harbor")
	agent, _ := w.AddAgent(1, "Ada", 1)
	AttachTraits(agent, []string{"Optimist", "saboteur", "TECH SAVVY"}, DefaultTraits(), quietLogger())

	a := Ambient{}
	a.Update(w, 10)

	if got := location.Stats.Get(stats.Morale); math.Abs(got-51) > 1e-9 {
		t.Fatalf("expected optimist +1 morale, got %v", got)
	}
	if got := location.Stats.Get(stats.EconomicProsperity); math.Abs(got-48) > 1e-9 {
		t.Fatalf("expected saboteur -2 prosperity, got %v", got)
	}
	if got := location.Stats.Get(stats.TechnologicalLevel); math.Abs(got-52) > 1e-9 {
		t.Fatalf("expected tech savvy +2, got %v", got)
	}

	registry := DefaultTraits()
	if _, err := registry.New("Dragon Rider"); err == nil {
		t.Fatalf("expected unknown trait error")
	}
	if len(registry.Names()) != 3 {
		t.Fatalf("expected 3 built-in traits, got %v", registry.Names())
	}
}
