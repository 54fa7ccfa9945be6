package events

import (
	"errors"
	"math/rand/v2"

	"worldsim/internal/catalog"
	"worldsim/internal/condition"
	"worldsim/internal/effect"
)

var (
	ErrNotActive     = errors.New("event is not active")
	ErrInvalidChoice = errors.New("invalid choice")
)

type State int

const (
	Triggered State = iota
	Resolved
)

func (s State) String() string {
	switch s {
	case Triggered:
		return "triggered"
	case Resolved:
		return "resolved"
	}
	return "unknown"
}

// ActiveEvent is an instantiated definition awaiting or past resolution.
type ActiveEvent struct {
	ID          string
	Definition  *catalog.Definition
	Title       string
	Description string
	State       State
	Tick        int64
	Depth       int
	ParentID    string
}

// World is everything the scheduler and resolver read or write.
type World interface {
	condition.World
	effect.World
	Rand() *rand.Rand
	CurrentTick() int64
}

// Namer resolves localized titles and description placeholders.
type Namer interface {
	Title(key string) string
	Expand(template string, r *rand.Rand) string
}

type plainNamer struct{}

func (plainNamer) Title(key string) string                     { return key }
func (plainNamer) Expand(template string, _ *rand.Rand) string { return template }
