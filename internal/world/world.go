package world

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"

	"worldsim/internal/stats"
)

var (
	ErrUnknownLocation = errors.New("unknown location")
	ErrUnknownAgent    = errors.New("unknown agent")
	ErrDuplicateID     = errors.New("duplicate id")
	ErrSelfLoop        = errors.New("location cannot connect to itself")
)

type Location struct {
	ID           int
	Name         string
	Stats        *stats.Block
	Visited      bool
	UpgradeLevel int

	connections map[int]struct{}
}

// Connections returns the connected location ids in ascending order.
func (l *Location) Connections() []int {
	ids := make([]int, 0, len(l.connections))
	for id := range l.connections {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func (l *Location) ConnectedTo(id int) bool {
	_, ok := l.connections[id]
	return ok
}

type Agent struct {
	ID         int
	Name       string
	LocationID int
	Traits     []Trait
	Stats      *stats.Block
}

func (a *Agent) TraitNames() []string {
	names := make([]string, len(a.Traits))
	for i, trait := range a.Traits {
		names[i] = trait.Name()
	}
	return names
}

type customStat struct {
	name    string
	initial float64
}

type aggregate struct {
	name  string
	value float64
	track string
}

// World is the mutable simulation state handed to the engine each tick. It is
// owned by a single goroutine.
type World struct {
	Resources map[string]int

	locations   map[int]*Location
	agents      map[int]*Agent
	aggregates  map[string]*aggregate
	customStats []customStat
	clock       Clock
	rng         *rand.Rand
}

func New(rng *rand.Rand) *World {
	if rng == nil {
		rng = NewRand(0)
	}
	return &World{
		Resources:  make(map[string]int),
		locations:  make(map[int]*Location),
		agents:     make(map[int]*Agent),
		aggregates: make(map[string]*aggregate),
		clock:      Clock{Phase: Morning, Weather: Clear},
		rng:        rng,
	}
}

func (w *World) Rand() *rand.Rand {
	return w.rng
}

// DeclareCustomStat adds name to every current and future location.
func (w *World) DeclareCustomStat(name string, initial float64) {
	for _, existing := range w.customStats {
		if strings.EqualFold(existing.name, name) {
			return
		}
	}
	w.customStats = append(w.customStats, customStat{name: name, initial: initial})
	for _, location := range w.locations {
		location.Stats.AddCustomStat(name, initial)
	}
}

func (w *World) CustomStats() []string {
	names := make([]string, len(w.customStats))
	for i, custom := range w.customStats {
		names[i] = custom.name
	}
	return names
}

func (w *World) AddLocation(id int, name string) (*Location, error) {
	if _, exists := w.locations[id]; exists {
		return nil, fmt.Errorf("adding location %d: %w", id, ErrDuplicateID)
	}
	location := &Location{
		ID:          id,
		Name:        name,
		Stats:       stats.NewBlock(),
		connections: make(map[int]struct{}),
	}
	for _, custom := range w.customStats {
		location.Stats.AddCustomStat(custom.name, custom.initial)
	}
	w.locations[id] = location
	return location, nil
}

func (w *World) Location(id int) (*Location, bool) {
	location, ok := w.locations[id]
	return location, ok
}

// Locations returns every location ordered by id.
func (w *World) Locations() []*Location {
	out := make([]*Location, 0, len(w.locations))
	for _, location := range w.locations {
		out = append(out, location)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (w *World) FindLocation(name string) (*Location, bool) {
	for _, location := range w.Locations() {
		if strings.EqualFold(location.Name, name) {
			return location, true
		}
	}
	return nil, false
}

// StatBlocks returns the location stat blocks ordered by location id.
func (w *World) StatBlocks() []*stats.Block {
	locations := w.Locations()
	blocks := make([]*stats.Block, len(locations))
	for i, location := range locations {
		blocks[i] = location.Stats
	}
	return blocks
}

// Connect links a and b in both directions.
func (w *World) Connect(a, b int) error {
	if a == b {
		return fmt.Errorf("connecting %d: %w", a, ErrSelfLoop)
	}
	from, ok := w.locations[a]
	if !ok {
		return fmt.Errorf("connecting %d to %d: %w", a, b, ErrUnknownLocation)
	}
	to, ok := w.locations[b]
	if !ok {
		return fmt.Errorf("connecting %d to %d: %w", a, b, ErrUnknownLocation)
	}
	from.connections[b] = struct{}{}
	to.connections[a] = struct{}{}
	return nil
}

func (w *World) Disconnect(a, b int) {
	if from, ok := w.locations[a]; ok {
		delete(from.connections, b)
	}
	if to, ok := w.locations[b]; ok {
		delete(to.connections, a)
	}
}

func (w *World) AddAgent(id int, name string, locationID int) (*Agent, error) {
	if _, exists := w.agents[id]; exists {
		return nil, fmt.Errorf("adding agent %d: %w", id, ErrDuplicateID)
	}
	if _, ok := w.locations[locationID]; !ok {
		return nil, fmt.Errorf("adding agent %d at %d: %w", id, locationID, ErrUnknownLocation)
	}
	agent := &Agent{
		ID:         id,
		Name:       name,
		LocationID: locationID,
		Stats:      stats.NewBlock(),
	}
	w.agents[id] = agent
	return agent, nil
}

func (w *World) Agent(id int) (*Agent, bool) {
	agent, ok := w.agents[id]
	return agent, ok
}

// Agents returns every agent ordered by id.
func (w *World) Agents() []*Agent {
	out := make([]*Agent, 0, len(w.agents))
	for _, agent := range w.agents {
		out = append(out, agent)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (w *World) MoveAgent(id, locationID int) error {
	agent, ok := w.agents[id]
	if !ok {
		return fmt.Errorf("moving agent %d: %w", id, ErrUnknownAgent)
	}
	location, ok := w.locations[locationID]
	if !ok {
		return fmt.Errorf("moving agent %d to %d: %w", id, locationID, ErrUnknownLocation)
	}
	agent.LocationID = locationID
	location.Visited = true
	return nil
}

// DeclareAggregate registers a world-level accumulator. When track names an
// entity stat the ambient update pulls the accumulator toward its average.
func (w *World) DeclareAggregate(name string, initial float64, track string) {
	key := strings.ToLower(strings.TrimSpace(name))
	if existing, ok := w.aggregates[key]; ok {
		existing.track = track
		return
	}
	w.aggregates[key] = &aggregate{name: name, value: initial, track: track}
}

func (w *World) Aggregate(name string) (float64, bool) {
	agg, ok := w.aggregates[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, false
	}
	return agg.value, true
}

func (w *World) SetAggregate(name string, value float64) bool {
	agg, ok := w.aggregates[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return false
	}
	agg.value = value
	return true
}

func (w *World) AddAggregate(name string, delta float64) bool {
	agg, ok := w.aggregates[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return false
	}
	agg.value += delta
	return true
}

// AggregateNames returns the declared aggregate names, sorted.
func (w *World) AggregateNames() []string {
	names := make([]string, 0, len(w.aggregates))
	for _, agg := range w.aggregates {
		names = append(names, agg.name)
	}
	sort.Strings(names)
	return names
}

// Aggregates returns every accumulator keyed by its declared name.
func (w *World) Aggregates() map[string]float64 {
	out := make(map[string]float64, len(w.aggregates))
	for _, agg := range w.aggregates {
		out[agg.name] = agg.value
	}
	return out
}

// Average returns the mean of name over locations that declare it.
func (w *World) Average(name string) (float64, bool) {
	var sum float64
	var n int
	for _, location := range w.locations {
		stored, ok := location.Stats.Lookup(name)
		if !ok {
			continue
		}
		sum += location.Stats.Get(stored)
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// ReplaceWith moves the state of other into w. The random sequence of w is
// kept.
func (w *World) ReplaceWith(other *World) {
	rng := w.rng
	*w = *other
	w.rng = rng
}
