package condition

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"strings"

	"worldsim/internal/stats"
)

const Epsilon = 1e-3

const (
	OpMin    = "min"
	OpMax    = "max"
	OpEquals = "equals"
)

var (
	ErrMalformed      = errors.New("malformed condition")
	ErrUnknownOp      = errors.New("unknown condition operator")
	ErrUnknownDensity = errors.New("unknown population density")
)

var densityFloors = map[string]float64{
	"high":   70,
	"medium": 50,
	"low":    30,
}

// Descriptor is an event's eligibility rule. Empty fields are vacuously met.
type Descriptor struct {
	TimePhase         string            `json:"timePhase,omitempty" yaml:"timePhase,omitempty"`
	Weather           string            `json:"weather,omitempty" yaml:"weather,omitempty"`
	PopulationDensity string            `json:"populationDensity,omitempty" yaml:"populationDensity,omitempty"`
	CustomConditions  map[string]string `json:"customConditions,omitempty" yaml:"customConditions,omitempty"`
}

func (d Descriptor) IsEmpty() bool {
	return d.TimePhase == "" && d.Weather == "" && d.PopulationDensity == "" && len(d.CustomConditions) == 0
}

// World is the read view the evaluator needs.
type World interface {
	Phase() string
	Weather() string
	StatBlocks() []*stats.Block
	Aggregate(name string) (float64, bool)
}

// Clause is a parsed custom condition.
type Clause struct {
	Op        string
	Threshold float64
}

// ParseClause splits "<op> <threshold>" into its two tokens.
func ParseClause(raw string) (Clause, error) {
	fields := strings.Fields(raw)
	if len(fields) != 2 {
		return Clause{}, fmt.Errorf("%w: %q", ErrMalformed, raw)
	}
	op := strings.ToLower(fields[0])
	switch op {
	case OpMin, OpMax, OpEquals:
	default:
		return Clause{}, fmt.Errorf("%w: %q", ErrUnknownOp, fields[0])
	}
	threshold, err := strconv.ParseFloat(fields[1], 64)
	if err != nil || math.IsNaN(threshold) {
		return Clause{}, fmt.Errorf("%w: %q", ErrMalformed, raw)
	}
	return Clause{Op: op, Threshold: threshold}, nil
}

func (c Clause) Holds(value float64) bool {
	switch c.Op {
	case OpMin:
		return value >= c.Threshold
	case OpMax:
		return value <= c.Threshold
	case OpEquals:
		return math.Abs(value-c.Threshold) < Epsilon
	}
	return false
}

// DensityFloor maps a density label to its PopulationDensity floor.
func DensityFloor(label string) (float64, error) {
	floor, ok := densityFloors[strings.ToLower(strings.TrimSpace(label))]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownDensity, label)
	}
	return floor, nil
}

// IsAggregateName reports whether name addresses a system aggregate rather
// than an entity stat.
func IsAggregateName(name string) bool {
	return strings.Contains(name, ".")
}

type Evaluator struct {
	logger *slog.Logger
}

func NewEvaluator(logger *slog.Logger) *Evaluator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Evaluator{logger: logger}
}

// IsMet is the AND of every field set on d. Configuration errors are logged
// and make the descriptor fail.
func (e *Evaluator) IsMet(d Descriptor, w World) bool {
	if d.TimePhase != "" && d.TimePhase != w.Phase() {
		return false
	}
	if d.Weather != "" && d.Weather != w.Weather() {
		return false
	}
	if d.PopulationDensity != "" && !e.densityMet(d.PopulationDensity, w) {
		return false
	}

	names := make([]string, 0, len(d.CustomConditions))
	for name := range d.CustomConditions {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if !e.customMet(name, d.CustomConditions[name], w) {
			return false
		}
	}
	return true
}

func (e *Evaluator) densityMet(label string, w World) bool {
	floor, err := DensityFloor(label)
	if err != nil {
		e.logger.Warn("condition not met", "error", err)
		return false
	}
	for _, block := range w.StatBlocks() {
		if block.Get(stats.PopulationDensity) >= floor {
			return true
		}
	}
	return false
}

func (e *Evaluator) customMet(name, raw string, w World) bool {
	clause, err := ParseClause(raw)
	if err != nil {
		e.logger.Warn("condition not met", "stat", name, "error", err)
		return false
	}
	value, ok := Resolve(name, w)
	if !ok {
		e.logger.Warn("condition not met", "stat", name, "error", "unknown stat")
		return false
	}
	return clause.Holds(value)
}

// Resolve returns the world value of name: the named aggregate for dotted
// names, otherwise the average over every entity that declares the stat.
func Resolve(name string, w World) (float64, bool) {
	if IsAggregateName(name) {
		return w.Aggregate(name)
	}
	var sum float64
	var n int
	for _, block := range w.StatBlocks() {
		stored, ok := block.Lookup(name)
		if !ok {
			continue
		}
		sum += block.Get(stored)
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}
