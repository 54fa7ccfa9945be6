package effect

import (
	"log/slog"
	"sort"
	"strings"

	"worldsim/internal/stats"
)

type Kind int

const (
	// Broadcast targets add the delta to every entity that declares the stat.
	Broadcast Kind = iota
	// Aggregate targets add the delta to one world-level accumulator.
	Aggregate
)

func (k Kind) String() string {
	switch k {
	case Broadcast:
		return "broadcast"
	case Aggregate:
		return "aggregate"
	}
	return "unknown"
}

type Target struct {
	Name string
	Kind Kind
}

// World is the write view effects need.
type World interface {
	StatBlocks() []*stats.Block
	AddAggregate(name string, delta float64) bool
}

// Applier resolves effect names against a fixed target table.
type Applier struct {
	targets map[string]Target
	logger  *slog.Logger
}

// NewApplier builds the target table from the core stats, the given custom
// stats and the given aggregate names.
func NewApplier(customStats, aggregates []string, logger *slog.Logger) *Applier {
	if logger == nil {
		logger = slog.Default()
	}
	a := &Applier{targets: make(map[string]Target), logger: logger}
	for _, name := range stats.CoreNames() {
		a.targets[strings.ToLower(name)] = Target{Name: name, Kind: Broadcast}
	}
	for _, name := range customStats {
		key := strings.ToLower(strings.TrimSpace(name))
		if _, exists := a.targets[key]; exists {
			continue
		}
		a.targets[key] = Target{Name: name, Kind: Broadcast}
	}
	for _, name := range aggregates {
		a.targets[strings.ToLower(strings.TrimSpace(name))] = Target{Name: name, Kind: Aggregate}
	}
	return a
}

func (a *Applier) Lookup(name string) (Target, bool) {
	target, ok := a.targets[strings.ToLower(strings.TrimSpace(name))]
	return target, ok
}

// Targets lists the table sorted by name.
func (a *Applier) Targets() []Target {
	out := make([]Target, 0, len(a.targets))
	for _, target := range a.targets {
		out = append(out, target)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Apply adds delta to the target named by name and reports whether anything
// was applied. Unknown names are logged and skipped.
func (a *Applier) Apply(name string, delta float64, w World) bool {
	target, ok := a.Lookup(name)
	if !ok {
		a.logger.Warn("skipping effect", "stat", name, "error", "unknown effect target")
		return false
	}

	switch target.Kind {
	case Aggregate:
		if !w.AddAggregate(target.Name, delta) {
			a.logger.Warn("skipping effect", "stat", name, "error", "aggregate not declared in world")
			return false
		}
	default:
		for _, block := range w.StatBlocks() {
			if block.Has(target.Name) {
				block.Add(target.Name, delta)
			}
		}
	}
	return true
}

// ApplyAll applies every effect in name order and returns how many applied.
func (a *Applier) ApplyAll(effects map[string]float64, w World) int {
	names := make([]string, 0, len(effects))
	for name := range effects {
		names = append(names, name)
	}
	sort.Strings(names)

	applied := 0
	for _, name := range names {
		if a.Apply(name, effects[name], w) {
			applied++
		}
	}
	return applied
}
