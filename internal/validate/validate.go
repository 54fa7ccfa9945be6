package validate

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"worldsim/internal/catalog"
	"worldsim/internal/condition"
	"worldsim/internal/effect"
	"worldsim/internal/world"
)

type Severity string

const (
	SeverityError Severity = "error"
	SeverityWarn  Severity = "warning"
)

const (
	codeUnknownNextEvent     = "unknown_next_event"
	codeUnknownEffectTarget  = "unknown_effect_target"
	codeMalformedCondition   = "malformed_condition"
	codeUnknownConditionOp   = "unknown_condition_op"
	codeUnknownDensity       = "unknown_density"
	codeUnknownConditionStat = "unknown_condition_stat"
	codeUnknownTimePhase     = "unknown_time_phase"
	codeUnknownWeather       = "unknown_weather"
	codeCascadeCycle         = "cascade_cycle"
	codeNoChoices            = "no_choices"
)

type Issue struct {
	Severity Severity
	Code     string
	Message  string
	Event    string
	FilePath string
}

type Report struct {
	Issues []Issue
}

func (r *Report) Errors() []Issue   { return r.filter(SeverityError) }
func (r *Report) Warnings() []Issue { return r.filter(SeverityWarn) }

func (r *Report) HasErrors() bool {
	return len(r.Errors()) > 0
}

func (r *Report) filter(severity Severity) []Issue {
	var out []Issue
	for _, issue := range r.Issues {
		if issue.Severity == severity {
			out = append(out, issue)
		}
	}
	return out
}

// Targets resolves effect and condition stat names.
type Targets interface {
	Lookup(name string) (effect.Target, bool)
}

// Run checks every definition in c for references the engine would
// silently skip at runtime.
func Run(c *catalog.Catalog, targets Targets) (*Report, error) {
	if c == nil {
		return nil, fmt.Errorf("catalog is required")
	}
	if targets == nil {
		return nil, fmt.Errorf("effect targets are required")
	}

	issues := make([]Issue, 0)
	for _, def := range c.All() {
		issues = append(issues, validateConditions(def, targets)...)
		issues = append(issues, validateChoices(def, c, targets)...)
	}
	issues = append(issues, findCycles(c)...)

	return &Report{Issues: issues}, nil
}

func validateConditions(def *catalog.Definition, targets Targets) []Issue {
	var issues []Issue
	d := def.Conditions

	if d.TimePhase != "" && !contains(world.Phases, d.TimePhase) {
		issues = append(issues, issueFor(def, SeverityWarn, codeUnknownTimePhase,
			fmt.Sprintf("time phase %q never occurs", d.TimePhase)))
	}
	if d.Weather != "" && !contains(world.WeatherKind, d.Weather) {
		issues = append(issues, issueFor(def, SeverityWarn, codeUnknownWeather,
			fmt.Sprintf("weather %q never occurs", d.Weather)))
	}
	if d.PopulationDensity != "" {
		if _, err := condition.DensityFloor(d.PopulationDensity); err != nil {
			issues = append(issues, issueFor(def, SeverityError, codeUnknownDensity, err.Error()))
		}
	}

	for _, name := range sortedKeys(d.CustomConditions) {
		if _, err := condition.ParseClause(d.CustomConditions[name]); err != nil {
			code := codeMalformedCondition
			if errors.Is(err, condition.ErrUnknownOp) {
				code = codeUnknownConditionOp
			}
			issues = append(issues, issueFor(def, SeverityError, code, fmt.Sprintf("%s: %v", name, err)))
		}
		target, ok := targets.Lookup(name)
		if !ok || (target.Kind == effect.Aggregate) != condition.IsAggregateName(name) {
			issues = append(issues, issueFor(def, SeverityError, codeUnknownConditionStat,
				fmt.Sprintf("condition references unknown stat: %s", name)))
		}
	}
	return issues
}

func validateChoices(def *catalog.Definition, c *catalog.Catalog, targets Targets) []Issue {
	var issues []Issue
	if len(def.Choices) == 0 {
		issues = append(issues, issueFor(def, SeverityWarn, codeNoChoices, "event has no choices"))
	}

	for i, choice := range def.Choices {
		for _, name := range sortedKeys(choice.Outcome.Effects) {
			if _, ok := targets.Lookup(name); !ok {
				issues = append(issues, issueFor(def, SeverityError, codeUnknownEffectTarget,
					fmt.Sprintf("choice %d effect targets unknown stat: %s", i, name)))
			}
		}
		for _, next := range choice.Outcome.TriggerNextEvents {
			if _, ok := c.FindByID(next); !ok {
				issues = append(issues, issueFor(def, SeverityError, codeUnknownNextEvent,
					fmt.Sprintf("choice %d triggers unknown event: %s", i, next)))
			}
		}
	}
	return issues
}

// findCycles reports each cascade cycle once, attributed to the first event
// of the cycle in catalog order.
func findCycles(c *catalog.Catalog) []Issue {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int)
	var issues []Issue
	var stack []string

	var visit func(def *catalog.Definition)
	visit = func(def *catalog.Definition) {
		state[def.ID] = visiting
		stack = append(stack, def.ID)
		for _, next := range nextEvents(def) {
			nextDef, ok := c.FindByID(next)
			if !ok {
				continue
			}
			switch state[next] {
			case unvisited:
				visit(nextDef)
			case visiting:
				cycle := append(cycleFrom(stack, next), next)
				issues = append(issues, issueFor(nextDef, SeverityWarn, codeCascadeCycle,
					fmt.Sprintf("cascade cycle: %s", strings.Join(cycle, " -> "))))
			}
		}
		stack = stack[:len(stack)-1]
		state[def.ID] = done
	}

	for _, def := range c.All() {
		if state[def.ID] == unvisited {
			visit(def)
		}
	}
	return issues
}

func nextEvents(def *catalog.Definition) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, choice := range def.Choices {
		for _, next := range choice.Outcome.TriggerNextEvents {
			if _, ok := seen[next]; ok {
				continue
			}
			seen[next] = struct{}{}
			out = append(out, next)
		}
	}
	return out
}

func cycleFrom(stack []string, id string) []string {
	for i, entry := range stack {
		if entry == id {
			return append([]string(nil), stack[i:]...)
		}
	}
	return []string{id}
}

func issueFor(def *catalog.Definition, severity Severity, code, message string) Issue {
	return Issue{
		Severity: severity,
		Code:     code,
		Message:  message,
		Event:    def.ID,
		FilePath: def.SourceFile,
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func contains(values []string, target string) bool {
	for _, value := range values {
		if value == target {
			return true
		}
	}
	return false
}
