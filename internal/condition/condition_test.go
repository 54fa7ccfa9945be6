package condition

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"worldsim/internal/stats"
)

type fakeWorld struct {
	phase      string
	weather    string
	blocks     []*stats.Block
	aggregates map[string]float64
}

func (f *fakeWorld) Phase() string              { return f.phase }
func (f *fakeWorld) Weather() string            { return f.weather }
func (f *fakeWorld) StatBlocks() []*stats.Block { return f.blocks }
func (f *fakeWorld) Aggregate(name string) (float64, bool) {
	v, ok := f.aggregates[name]
	return v, ok
}

func newFakeWorld(values ...map[string]float64) *fakeWorld {
	w := &fakeWorld{phase: "Morning", weather: "Clear", aggregates: map[string]float64{}}
	for _, v := range values {
		b := stats.NewBlock()
		b.Deserialize(v)
		w.blocks = append(w.blocks, b)
	}
	return w
}

func quietEvaluator() *Evaluator {
	return NewEvaluator(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestEmptyDescriptorAlwaysMet(t *testing.T) {
	e := quietEvaluator()
	for _, w := range []*fakeWorld{newFakeWorld(), newFakeWorld(map[string]float64{"Morale": 0})} {
		if !e.IsMet(Descriptor{}, w) {
			t.Fatalf("expected empty descriptor to be met")
		}
	}
	if !(Descriptor{}).IsEmpty() {
		t.Fatalf("expected zero descriptor to report empty")
	}
}

func TestPhaseAndWeather(t *testing.T) {
	e := quietEvaluator()
	w := newFakeWorld()
	w.phase = "Night"
	w.weather = "Storm"

	tests := []struct {
		name string
		d    Descriptor
		want bool
	}{
		{"phase matches", Descriptor{TimePhase: "Night"}, true},
		{"phase differs", Descriptor{TimePhase: "Morning"}, false},
		{"weather matches", Descriptor{Weather: "Storm"}, true},
		{"weather differs", Descriptor{Weather: "Clear"}, false},
		{"both match", Descriptor{TimePhase: "Night", Weather: "Storm"}, true},
		{"one differs", Descriptor{TimePhase: "Night", Weather: "Rain"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.IsMet(tt.d, w); got != tt.want {
				t.Fatalf("IsMet = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPopulationDensity(t *testing.T) {
	e := quietEvaluator()
	w := newFakeWorld(
		map[string]float64{stats.PopulationDensity: 20},
		map[string]float64{stats.PopulationDensity: 55},
	)

	tests := []struct {
		label string
		want  bool
	}{
		{"low", true},
		{"Medium", true},
		{"high", false},
		{"crowded", false},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			if got := e.IsMet(Descriptor{PopulationDensity: tt.label}, w); got != tt.want {
				t.Fatalf("IsMet = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCustomConditionBoundaries(t *testing.T) {
	e := quietEvaluator()
	d := Descriptor{CustomConditions: map[string]string{"morale": "min 50"}}

	if e.IsMet(d, newFakeWorld(map[string]float64{"Morale": 49.99})) {
		t.Fatalf("expected morale 49.99 to fail min 50")
	}
	if !e.IsMet(d, newFakeWorld(map[string]float64{"Morale": 50})) {
		t.Fatalf("expected morale 50 to satisfy min 50")
	}

	maxed := Descriptor{CustomConditions: map[string]string{"HealthRisk": "max 10"}}
	if !e.IsMet(maxed, newFakeWorld(map[string]float64{"HealthRisk": 10})) {
		t.Fatalf("expected max to be inclusive")
	}
}

func TestCustomConditionEquals(t *testing.T) {
	e := quietEvaluator()
	d := Descriptor{CustomConditions: map[string]string{"x": "equals 10"}}

	tests := []struct {
		value float64
		want  bool
	}{
		{10, true},
		{10.0005, true},
		{9.9995, true},
		{10.01, false},
		{9.9, false},
	}
	for _, tt := range tests {
		w := newFakeWorld(map[string]float64{"x": tt.value})
		if got := e.IsMet(d, w); got != tt.want {
			t.Fatalf("x=%v: IsMet = %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestCustomConditionAveragesDeclaringEntities(t *testing.T) {
	e := quietEvaluator()
	w := newFakeWorld(
		map[string]float64{"Morale": 40, "Faith": 90},
		map[string]float64{"Morale": 80},
	)

	if !e.IsMet(Descriptor{CustomConditions: map[string]string{"Morale": "equals 60"}}, w) {
		t.Fatalf("expected core stat average over both entities")
	}
	if !e.IsMet(Descriptor{CustomConditions: map[string]string{"Faith": "equals 90"}}, w) {
		t.Fatalf("expected custom stat average over declaring entity only")
	}
}

func TestCustomConditionFailsClosed(t *testing.T) {
	e := quietEvaluator()
	w := newFakeWorld(map[string]float64{"Morale": 70})

	tests := []struct {
		name string
		raw  map[string]string
	}{
		{"single token", map[string]string{"Morale": "min"}},
		{"three tokens", map[string]string{"Morale": "min 5 6"}},
		{"bad number", map[string]string{"Morale": "min lots"}},
		{"unknown operator", map[string]string{"Morale": "above 5"}},
		{"unknown stat", map[string]string{"Wealth": "min 0"}},
		{"unknown aggregate", map[string]string{"economy.gdp": "min 0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if e.IsMet(Descriptor{CustomConditions: tt.raw}, w) {
				t.Fatalf("expected configuration error to fail closed")
			}
		})
	}
}

func TestCustomConditionAggregate(t *testing.T) {
	e := quietEvaluator()
	w := newFakeWorld(map[string]float64{"EconomicProsperity": 10})
	w.aggregates["economy.prosperity"] = 75

	d := Descriptor{CustomConditions: map[string]string{"economy.prosperity": "min 70"}}
	if !e.IsMet(d, w) {
		t.Fatalf("expected dotted name to read the aggregate, not the entity stat")
	}
}

func TestParseClause(t *testing.T) {
	if _, err := ParseClause("equals"); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
	if _, err := ParseClause("near 4"); !errors.Is(err, ErrUnknownOp) {
		t.Fatalf("expected ErrUnknownOp, got %v", err)
	}
	clause, err := ParseClause("  MAX   12.5 ")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if clause.Op != OpMax || clause.Threshold != 12.5 {
		t.Fatalf("unexpected clause %+v", clause)
	}
	if _, err := DensityFloor("dense"); !errors.Is(err, ErrUnknownDensity) {
		t.Fatalf("expected ErrUnknownDensity, got %v", err)
	}
}

func TestCustomConditionIgnoresCase(t *testing.T) {
	e := quietEvaluator()
	w := newFakeWorld(map[string]float64{"Faith": 60, "Morale": 40})
	w.aggregates["economy.prosperity"] = 75

	d := Descriptor{CustomConditions: map[string]string{"faith": "min 50", "MORALE": "max 40"}}
	if !e.IsMet(d, w) {
		t.Fatalf("expected custom and core stats to match regardless of case")
	}
	if e.IsMet(Descriptor{CustomConditions: map[string]string{"FAITH": "min 61"}}, w) {
		t.Fatalf("expected threshold still applied")
	}
}
