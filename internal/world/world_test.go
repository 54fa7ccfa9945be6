package world

import (
	"errors"
	"io"
	"log/slog"
	"reflect"
	"testing"

	"worldsim/internal/config"
	"worldsim/internal/stats"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func twoLocationWorld(t *testing.T) *World {
	t.Helper()
	w := New(NewRand(1))
	if _, err := w.AddLocation(2, "Millbrook"); err != nil {
		t.Fatalf("adding location: %v", err)
	}
	if _, err := w.AddLocation(1, "Harbor"); err != nil {
		t.Fatalf("adding location: %v", err)
	}
	return w
}

func TestLocations(t *testing.T) {
	w := twoLocationWorld(t)

	if _, err := w.AddLocation(1, "Again"); !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}

	locations := w.Locations()
	if len(locations) != 2 || locations[0].ID != 1 || locations[1].ID != 2 {
		t.Fatalf("expected locations in id order")
	}
	if len(w.StatBlocks()) != 2 || w.StatBlocks()[0] != locations[0].Stats {
		t.Fatalf("expected stat blocks in location order")
	}
	if l, ok := w.FindLocation("harbor"); !ok || l.ID != 1 {
		t.Fatalf("expected case-insensitive name lookup")
	}
}

func TestConnect(t *testing.T) {
	w := twoLocationWorld(t)

	if err := w.Connect(1, 2); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	a, _ := w.Location(1)
	b, _ := w.Location(2)
	if !a.ConnectedTo(2) || !b.ConnectedTo(1) {
		t.Fatalf("expected symmetric connection")
	}
	if !reflect.DeepEqual(a.Connections(), []int{2}) {
		t.Fatalf("unexpected connections %v", a.Connections())
	}

	if err := w.Connect(1, 1); !errors.Is(err, ErrSelfLoop) {
		t.Fatalf("expected ErrSelfLoop, got %v", err)
	}
	if err := w.Connect(1, 9); !errors.Is(err, ErrUnknownLocation) {
		t.Fatalf("expected ErrUnknownLocation, got %v", err)
	}

	w.Disconnect(2, 1)
	if a.ConnectedTo(2) || b.ConnectedTo(1) {
		t.Fatalf("expected symmetric disconnect")
	}
}

func TestAgents(t *testing.T) {
	w := twoLocationWorld(t)

	if _, err := w.AddAgent(1, "Ada", 1); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if _, err := w.AddAgent(1, "Ada", 1); !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
	if _, err := w.AddAgent(2, "Bren", 7); !errors.Is(err, ErrUnknownLocation) {
		t.Fatalf("expected ErrUnknownLocation, got %v", err)
	}

	if err := w.MoveAgent(1, 2); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	agent, _ := w.Agent(1)
	location, _ := w.Location(2)
	if agent.LocationID != 2 || !location.Visited {
		t.Fatalf("expected agent moved and destination visited")
	}
	if err := w.MoveAgent(5, 1); !errors.Is(err, ErrUnknownAgent) {
		t.Fatalf("expected ErrUnknownAgent, got %v", err)
	}
}

func TestAggregates(t *testing.T) {
	w := twoLocationWorld(t)
	w.DeclareAggregate("economy.prosperity", 40, "")

	if v, ok := w.Aggregate("Economy.Prosperity"); !ok || v != 40 {
		t.Fatalf("unexpected aggregate %v %v", v, ok)
	}
	if !w.AddAggregate("economy.prosperity", 5) || !w.SetAggregate("economy.prosperity", w.Aggregates()["economy.prosperity"]+1) {
		t.Fatalf("expected aggregate writes to succeed")
	}
	if v, _ := w.Aggregate("economy.prosperity"); v != 46 {
		t.Fatalf("expected 46, got %v", v)
	}
	if w.AddAggregate("health.budget", 1) {
		t.Fatalf("undeclared aggregates cannot be written")
	}

	harbor, _ := w.Location(1)
	if harbor.Stats.Get(stats.EconomicProsperity) != 50 {
		t.Fatalf("aggregates must not alias entity stats")
	}
}

func TestDeclareCustomStat(t *testing.T) {
	w := twoLocationWorld(t)
	w.DeclareCustomStat("Faith", 3)
	w.DeclareCustomStat("faith", 9)

	location, err := w.AddLocation(3, "Outpost")
	if err != nil {
		t.Fatalf("adding location: %v", err)
	}
	if !location.Stats.Has("Faith") {
		t.Fatalf("expected new locations to declare custom stats")
	}
	if got := location.Stats.Get("Faith"); got != 3 {
		t.Fatalf("expected later location to start at the declared initial value, got %v", got)
	}
	if avg, ok := w.Average("faith"); !ok || avg != 3 {
		t.Fatalf("expected average 3 under any case, got %v %v", avg, ok)
	}
	if len(w.CustomStats()) != 1 {
		t.Fatalf("expected one custom stat, got %v", w.CustomStats())
	}
	if _, ok := w.Average("Wealth"); ok {
		t.Fatalf("expected unknown stat to have no average")
	}
}

func TestBuild(t *testing.T) {
	def := &config.WorldDefinition{
		Version:   1,
		Resources: map[string]int{"gold": 120},
		Clock:     config.ClockDefinition{Phase: Night, Weather: Rain},
		Locations: []config.LocationDefinition{
			{ID: 1, Name: "Harbor", Stats: map[string]float64{"Morale": 70, "Faith": 4}, Connections: []int{2}, Visited: true},
			{ID: 2, Name: "Millbrook", Stats: map[string]float64{"Morale": 30}, UpgradeLevel: 2},
		},
		Agents: []config.AgentDefinition{
			{ID: 1, Name: "Ada", Location: 1, Traits: []string{"optimist", "Dragon Rider"}, Stats: map[string]float64{"Morale": 90}},
		},
	}
	cfg := &config.ProjectConfig{
		CustomStats: []string{"Faith"},
		Aggregates:  []config.Aggregate{{Name: "economy.prosperity", Initial: 50, Track: stats.EconomicProsperity}},
	}

	w, err := Build(def, cfg, DefaultTraits(), NewRand(1), quietLogger())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	harbor, _ := w.Location(1)
	millbrook, _ := w.Location(2)
	if harbor.Stats.Get(stats.Morale) != 70 || millbrook.Stats.Get(stats.Morale) != 30 {
		t.Fatalf("expected authored morale")
	}
	if !millbrook.ConnectedTo(1) || millbrook.UpgradeLevel != 2 || !harbor.Visited {
		t.Fatalf("expected connections and location flags")
	}
	if !millbrook.Stats.Has("Faith") || harbor.Stats.Get("Faith") != 4 {
		t.Fatalf("expected configured custom stat on every location")
	}
	if w.Resources["gold"] != 120 || w.Phase() != Night || w.Weather() != Rain {
		t.Fatalf("expected resources and clock")
	}
	if _, ok := w.Aggregate("economy.prosperity"); !ok {
		t.Fatalf("expected configured aggregate")
	}

	agent, _ := w.Agent(1)
	if !reflect.DeepEqual(agent.TraitNames(), []string{"Optimist"}) {
		t.Fatalf("expected unknown trait skipped, got %v", agent.TraitNames())
	}
	if agent.Stats.Get(stats.Morale) != 90 {
		t.Fatalf("expected agent stats")
	}
}

func TestBuildRejectsBadConnection(t *testing.T) {
	def := &config.WorldDefinition{
		Version:   1,
		Locations: []config.LocationDefinition{{ID: 1, Name: "A", Connections: []int{1}}},
	}
	if _, err := Build(def, nil, DefaultTraits(), NewRand(1), quietLogger()); !errors.Is(err, ErrSelfLoop) {
		t.Fatalf("expected ErrSelfLoop, got %v", err)
	}
}
