package tools

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/Comcast/brains/core"
)

// TreeAnalysis summarizes a tree and reports problems that
// compilation can't see, like calls to trees that don't exist.
type TreeAnalysis struct {
	Name       string         `json:"name"`
	Nodes      int            `json:"nodes"`
	Leaves     int            `json:"leaves"`
	Categories map[string]int `json:"categories"`

	// Interpreters used by compute and condition nodes.  The
	// empty name is reported as "default".
	Interpreters []string `json:"interpreters,omitempty"`

	// Methods are the host methods that action nodes invoke.
	Methods []string `json:"methods,omitempty"`

	// Events are the events that wait nodes wait for.
	Events []string `json:"events,omitempty"`

	// Calls are the trees that call nodes run.
	Calls []string `json:"calls,omitempty"`

	// MissingTrees are Calls that the Resolver couldn't find.
	MissingTrees []string `json:"missingTrees,omitempty"`

	Errors []string `json:"errors,omitempty"`
}

// AnalyzeTree examines the tree.  If r isn't nil, called trees are
// resolved with it.
func AnalyzeTree(ctx context.Context, t *core.TreeDesc, r core.Resolver) (*TreeAnalysis, error) {
	if t.Root == nil {
		return nil, &core.BadTree{Tree: t.Name, Problem: "no root"}
	}

	a := &TreeAnalysis{
		Name:       t.Name,
		Categories: make(map[string]int),
	}
	interpreters, methods, events, calls := set{}, set{}, set{}, set{}

	t.Root.Walk(func(n *core.NodeDesc) error {
		a.Nodes++
		a.Categories[string(n.Category)]++
		if n.Category.Leaf() {
			a.Leaves++
		}
		switch n.Category {
		case core.Action:
			if n.Enter != nil && n.Enter.Method != "" {
				methods[n.Enter.Method] = true
			}
			if n.Leave != nil && n.Leave.Method != "" {
				methods[n.Leave.Method] = true
			}
		case core.Compute, core.Condition:
			if n.Expr != nil && n.Expr.Func == nil {
				name := n.Expr.Interpreter
				if name == "" {
					name = "default"
				}
				interpreters[name] = true
			}
		case core.Wait:
			events[n.Event] = true
		case core.Call:
			calls[n.Tree] = true
		}
		return nil
	})

	a.Interpreters = interpreters.sorted()
	a.Methods = methods.sorted()
	a.Events = events.sorted()
	a.Calls = calls.sorted()

	if r != nil {
		for _, name := range a.Calls {
			if missing, err := unresolved(resolveTree(ctx, r, name)); missing {
				a.MissingTrees = append(a.MissingTrees, name)
			} else if err != nil {
				a.Errors = append(a.Errors, fmt.Sprintf("tree %s: %v", name, err))
			}
		}
	}

	return a, nil
}

// FsmAnalysis summarizes a state machine.
type FsmAnalysis struct {
	Name        string `json:"name"`
	States      int    `json:"states"`
	Transitions int    `json:"transitions"`

	// Unreachable states can't be reached from the initial state.
	Unreachable []string `json:"unreachable,omitempty"`

	// Terminal states have no outgoing transitions.
	Terminal []string `json:"terminal,omitempty"`

	// UnusedEvents are in the event table but no transition uses
	// them.
	UnusedEvents []string `json:"unusedEvents,omitempty"`

	// UnknownEvents are used by transitions but aren't in the
	// event table.
	UnknownEvents []string `json:"unknownEvents,omitempty"`

	Trees []string `json:"trees,omitempty"`
	Fsms  []string `json:"fsms,omitempty"`
	Calls []string `json:"calls,omitempty"`

	// MissingTrees and MissingFsms couldn't be resolved.
	MissingTrees []string `json:"missingTrees,omitempty"`
	MissingFsms  []string `json:"missingFsms,omitempty"`

	Errors []string `json:"errors,omitempty"`
}

// AnalyzeFsm examines the state machine, which need not be compiled.
// If r isn't nil, referenced trees and state machines are resolved
// with it.
func AnalyzeFsm(ctx context.Context, f *core.FsmDesc, r core.Resolver) (*FsmAnalysis, error) {
	a := &FsmAnalysis{
		Name:        f.Name,
		States:      len(f.States),
		Transitions: len(f.Transitions),
	}

	if len(f.States) == 0 {
		a.Errors = append(a.Errors, "no states")
		return a, nil
	}
	if f.Initial < 0 || len(f.States) <= f.Initial {
		a.Errors = append(a.Errors, fmt.Sprintf("initial state %d out of range", f.Initial))
		return a, nil
	}

	known := set{}
	for _, e := range f.Events {
		known[e] = true
	}

	used, unknown := set{}, set{}
	out := make([][]int, len(f.States))
	for _, t := range f.Transitions {
		if t.From < 0 || len(f.States) <= t.From || t.To < 0 || len(f.States) <= t.To {
			a.Errors = append(a.Errors, fmt.Sprintf("transition %d -%s-> %d out of range", t.From, t.Event, t.To))
			continue
		}
		used[t.Event] = true
		if !known[t.Event] {
			unknown[t.Event] = true
		}
		out[t.From] = append(out[t.From], t.To)
	}

	for _, e := range f.Events {
		if !used[e] {
			a.UnusedEvents = append(a.UnusedEvents, e)
		}
	}
	sort.Strings(a.UnusedEvents)
	a.UnknownEvents = unknown.sorted()

	reached := make([]bool, len(f.States))
	pending := []int{f.Initial}
	reached[f.Initial] = true
	for 0 < len(pending) {
		i := pending[0]
		pending = pending[1:]
		for _, j := range out[i] {
			if !reached[j] {
				reached[j] = true
				pending = append(pending, j)
			}
		}
	}

	trees, fsms, calls := set{}, set{}, set{}
	for i, s := range f.States {
		if !reached[i] {
			a.Unreachable = append(a.Unreachable, s.Name)
		}
		if len(out[i]) == 0 {
			a.Terminal = append(a.Terminal, s.Name)
		}
		for _, act := range append(append([]core.StateAction{}, s.Enter...), s.Leave...) {
			switch act.Kind {
			case core.TreeAction:
				trees[act.Name] = true
			case core.GraphAction:
				fsms[act.Name] = true
			case core.CallAction:
				calls[act.Name] = true
			default:
				a.Errors = append(a.Errors, fmt.Sprintf("state %s: unknown action kind '%s'", s.Name, act.Kind))
			}
		}
	}
	a.Trees = trees.sorted()
	a.Fsms = fsms.sorted()
	a.Calls = calls.sorted()

	if r != nil {
		for _, name := range a.Trees {
			if missing, err := unresolved(resolveTree(ctx, r, name)); missing {
				a.MissingTrees = append(a.MissingTrees, name)
			} else if err != nil {
				a.Errors = append(a.Errors, fmt.Sprintf("tree %s: %v", name, err))
			}
		}
		for _, name := range a.Fsms {
			if missing, err := unresolved(resolveFsm(ctx, r, name)); missing {
				a.MissingFsms = append(a.MissingFsms, name)
			} else if err != nil {
				a.Errors = append(a.Errors, fmt.Sprintf("fsm %s: %v", name, err))
			}
		}
	}

	return a, nil
}

func resolveTree(ctx context.Context, r core.Resolver, name string) error {
	_, err := r.ResolveTree(ctx, name)
	return err
}

func resolveFsm(ctx context.Context, r core.Resolver, name string) error {
	_, err := r.ResolveFsm(ctx, name)
	return err
}

// unresolved reports whether a resolution failed with NotFound.
func unresolved(err error) (bool, error) {
	var nf *core.NotFound
	if errors.As(err, &nf) {
		return true, nil
	}
	return false, err
}

type set map[string]bool

func (s set) sorted() []string {
	var acc []string
	for k := range s {
		acc = append(acc, k)
	}
	sort.Strings(acc)
	return acc
}
