package events

import "worldsim/internal/catalog"

// Resolution describes a resolved event and what its choice caused.
type Resolution struct {
	Event       *ActiveEvent
	ChoiceIndex int
	Choice      catalog.Choice
	Applied     int
	Cascaded    []*ActiveEvent
	Truncated   []string
	Tick        int64
}

// Listener is the presentation layer's view of the engine.
type Listener interface {
	Triggered(ev *ActiveEvent)
	Resolved(r Resolution)
}

// ListenerFuncs adapts plain functions to Listener. Nil fields are ignored.
type ListenerFuncs struct {
	OnTriggered func(ev *ActiveEvent)
	OnResolved  func(r Resolution)
}

func (l ListenerFuncs) Triggered(ev *ActiveEvent) {
	if l.OnTriggered != nil {
		l.OnTriggered(ev)
	}
}

func (l ListenerFuncs) Resolved(r Resolution) {
	if l.OnResolved != nil {
		l.OnResolved(r)
	}
}
