package core

import (
	"fmt"
)

// StateActionKind says what a StateAction does.
type StateActionKind string

const (
	// GraphAction pushes a nested state machine.
	GraphAction StateActionKind = "graph"

	// TreeAction starts a behavior tree, replacing any that's
	// running.
	TreeAction StateActionKind = "tree"

	// CallAction invokes a host method.  The method gets a nil
	// *Node.
	CallAction StateActionKind = "call"
)

// StateAction is something to do when entering or leaving a state.
type StateAction struct {
	Kind StateActionKind `json:"kind" yaml:"kind"`

	// Name is a state machine name, a tree name, or a method
	// name (depending on the Kind).
	Name string `json:"name" yaml:"name"`

	// Args are only used for a CallAction.
	Args []Param `json:"args,omitempty" yaml:",omitempty"`
}

// StateDesc is a state in an FsmDesc.
type StateDesc struct {
	Name  string        `json:"name" yaml:"name"`
	Doc   string        `json:"doc,omitempty" yaml:",omitempty"`
	Enter []StateAction `json:"enter,omitempty" yaml:",omitempty"`

	// Leave can only have CallActions.
	Leave []StateAction `json:"leave,omitempty" yaml:",omitempty"`
}

// Transition is an edge in an FsmDesc's graph.
type Transition struct {
	From  int    `json:"from" yaml:"from"`
	Event string `json:"event" yaml:"event"`
	To    int    `json:"to" yaml:"to"`
}

type edge struct {
	from  int
	event string
}

// FsmDesc is a named finite-state machine.
//
// States are addressed by their index.  A state machine should be
// Compiled before use.
type FsmDesc struct {
	Name    string       `json:"name" yaml:"name"`
	Doc     string       `json:"doc,omitempty" yaml:",omitempty"`
	States  []*StateDesc `json:"states" yaml:"states"`
	Initial int          `json:"initial,omitempty" yaml:",omitempty"`

	// Events is the event name table.  A Transition's event must
	// be here.
	Events      []string     `json:"events,omitempty" yaml:",omitempty"`
	Transitions []Transition `json:"transitions,omitempty" yaml:",omitempty"`

	graph map[edge]int
}

// Compiled reports whether Compile has succeeded.
func (f *FsmDesc) Compiled() bool {
	return f.graph != nil
}

// Compile checks the state machine and builds its transition graph.
func (f *FsmDesc) Compile() error {
	bad := func(format string, args ...interface{}) error {
		return &BadFsm{f.Name, fmt.Sprintf(format, args...)}
	}

	n := len(f.States)
	if n == 0 {
		return bad("no states")
	}
	if f.Initial < 0 || n <= f.Initial {
		return bad("initial state %d out of range", f.Initial)
	}

	for i, s := range f.States {
		if s == nil {
			return bad("state %d is nil", i)
		}
		for _, a := range s.Enter {
			switch a.Kind {
			case GraphAction, TreeAction, CallAction:
			default:
				return bad("state %s: unknown action kind '%s'", s.Name, a.Kind)
			}
			if a.Name == "" && a.Kind != CallAction {
				return bad("state %s: %s action without a name", s.Name, a.Kind)
			}
		}
		for _, a := range s.Leave {
			if a.Kind != CallAction {
				return bad("state %s: leave action of kind '%s'", s.Name, a.Kind)
			}
		}
	}

	events := make(map[string]bool, len(f.Events))
	for _, e := range f.Events {
		events[e] = true
	}

	graph := make(map[edge]int, len(f.Transitions))
	for _, t := range f.Transitions {
		if t.From < 0 || n <= t.From || t.To < 0 || n <= t.To {
			return bad("transition %d -%s-> %d out of range", t.From, t.Event, t.To)
		}
		if !events[t.Event] {
			return bad("transition on unknown event '%s'", t.Event)
		}
		e := edge{t.From, t.Event}
		if _, have := graph[e]; have {
			return bad("duplicate transition from %d on '%s'", t.From, t.Event)
		}
		graph[e] = t.To
	}

	f.graph = graph

	return nil
}

// TryReceive returns the target of the transition from the given
// state on the given event, if there is one.
func (f *FsmDesc) TryReceive(state int, event string) (int, bool) {
	to, have := f.graph[edge{state, event}]
	return to, have
}

// StateIndex finds a state by name.
func (f *FsmDesc) StateIndex(name string) (int, bool) {
	for i, s := range f.States {
		if s.Name == name {
			return i, true
		}
	}
	return -1, false
}
