package core

import (
	"context"
	"fmt"
	"math/rand"
	"testing"
)

// Little constructors to keep the test trees readable.

func seq(cs ...*NodeDesc) *NodeDesc {
	return &NodeDesc{Category: Sequence, Debug: "seq", Children: cs}
}

func sel(cs ...*NodeDesc) *NodeDesc {
	return &NodeDesc{Category: Selector, Debug: "sel", Children: cs}
}

func wait(event string) *NodeDesc {
	return &NodeDesc{Category: Wait, Debug: "wait-" + event, Event: event}
}

func act(method string, args ...Param) *NodeDesc {
	return &NodeDesc{
		Category: Action,
		Debug:    method,
		Enter:    &Invocation{Method: method, Args: args},
	}
}

func actLeave(enter, leave string, args ...Param) *NodeDesc {
	return &NodeDesc{
		Category: Action,
		Debug:    enter,
		Enter:    &Invocation{Method: enter, Args: args},
		Leave:    &Invocation{Method: leave, Args: args},
	}
}

func setBB(key string, v interface{}) *NodeDesc {
	return act("set_blackboard", Const(key), Const(v))
}

// record runs the given node and writes its result to the blackboard
// at key.
func record(key string, n *NodeDesc) *NodeDesc {
	return &NodeDesc{
		Category: IfElse,
		Debug:    "record-" + key,
		Children: []*NodeDesc{n, setBB(key, true), setBB(key, false)},
	}
}

func cond(b interface{}) *NodeDesc {
	return &NodeDesc{
		Category: Condition,
		Debug:    fmt.Sprintf("cond-%v", b),
		Expr: NewExprFunc(func(ctx context.Context, vars Bindings) (*Execution, error) {
			return &Execution{Vars: vars, Value: b}, nil
		}, nil, nil),
	}
}

// countIs is a condition that checks the blackboard's key against n.
func countIs(key string, n int) *NodeDesc {
	return &NodeDesc{
		Category: Condition,
		Debug:    "count-is",
		Expr: NewExprFunc(func(ctx context.Context, vars Bindings) (*Execution, error) {
			return &Execution{Vars: vars, Value: vars["x"] == n}, nil
		}, []Binding{Bind("x", BB(key))}, nil),
	}
}

// incr adds one to the blackboard's key.
func incr(key string) *NodeDesc {
	return &NodeDesc{
		Category: Compute,
		Debug:    "incr-" + key,
		Expr: NewExprFunc(func(ctx context.Context, vars Bindings) (*Execution, error) {
			vars["x"] = vars["x"].(int) + 1
			return &Execution{Vars: vars}, nil
		}, []Binding{Bind("x", BB(key))}, []Binding{Bind("x", BB(key))}),
	}
}

// assign sets the blackboard's key using a Compute.
func assign(key string, v interface{}) *NodeDesc {
	return &NodeDesc{
		Category: Compute,
		Debug:    "assign-" + key,
		Expr: NewExprFunc(func(ctx context.Context, vars Bindings) (*Execution, error) {
			vars["x"] = v
			return &Execution{Vars: vars}, nil
		}, nil, []Binding{Bind("x", BB(key))}),
	}
}

func appendTrace(s string) *NodeDesc {
	return act("append", Const(s))
}

// testActions are the builtins plus some host methods for tests.
func testActions() ActionMap {
	return Builtins().With(ActionMap{
		"append": func(ctx context.Context, a *Agent, n *Node, args []interface{}) error {
			s, _ := a.Blackboard()["trace"].(string)
			a.Blackboard()["trace"] = s + args[0].(string)
			return n.Finish(ctx, true)
		},
		"fail": func(ctx context.Context, a *Agent, n *Node, args []interface{}) error {
			return n.Finish(ctx, false)
		},
		// hold leaves its node blocked and stores the node on
		// the blackboard.
		"hold": func(ctx context.Context, a *Agent, n *Node, args []interface{}) error {
			a.Blackboard()[args[0].(string)] = n
			return nil
		},
		"release": func(ctx context.Context, a *Agent, n *Node, args []interface{}) error {
			a.Blackboard()[args[0].(string)] = false
			return nil
		},
		"mark": func(ctx context.Context, a *Agent, n *Node, args []interface{}) error {
			s, _ := a.Blackboard()["marks"].(string)
			a.Blackboard()["marks"] = s + args[0].(string)
			if n != nil {
				return n.Finish(ctx, true)
			}
			return nil
		},
	})
}

// treeFsm makes a one-state machine that runs the given tree.
func treeFsm(name, tree string) *FsmDesc {
	return &FsmDesc{
		Name: name,
		States: []*StateDesc{
			{
				Name:  "run",
				Enter: []StateAction{{Kind: TreeAction, Name: tree}},
			},
		},
	}
}

type fixture struct {
	t   *testing.T
	ctx context.Context
	lib *Library
	a   *Agent
}

// newFixture makes an agent whose state machine runs the tree
// "main", which is the given node.  More trees can follow.
func newFixture(t *testing.T, main *NodeDesc, more ...*TreeDesc) *fixture {
	ctx := context.Background()
	lib := NewLibrary()

	trees := append([]*TreeDesc{{Name: "main", Root: main}}, more...)
	for _, tree := range trees {
		if err := lib.AddTree(ctx, tree); err != nil {
			t.Fatal(err)
		}
	}
	if err := lib.AddFsm(ctx, treeFsm("main", "main")); err != nil {
		t.Fatal(err)
	}

	a := NewAgent("test", lib, testActions())
	a.Rand = rand.New(rand.NewSource(42))
	a.SetFsm("main")

	return &fixture{
		t:   t,
		ctx: ctx,
		lib: lib,
		a:   a,
	}
}

func (f *fixture) enable() {
	if err := f.a.Enable(f.ctx, true); err != nil {
		f.t.Fatal(err)
	}
}

func (f *fixture) fire(event string) {
	if err := f.a.FireEvent(f.ctx, event); err != nil {
		f.t.Fatal(err)
	}
}

func (f *fixture) bb(key string) interface{} {
	return f.a.Blackboard()[key]
}
