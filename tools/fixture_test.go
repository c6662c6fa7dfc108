package tools

import (
	"context"
	"testing"

	"github.com/Comcast/brains/core"
)

func action(method string, args ...core.Param) *core.NodeDesc {
	return &core.NodeDesc{
		Category: core.Action,
		Enter:    &core.Invocation{Method: method, Args: args},
	}
}

func patrolTree() *core.TreeDesc {
	yes := core.NewExprFunc(func(ctx context.Context, vars core.Bindings) (*core.Execution, error) {
		return &core.Execution{Vars: vars, Value: true}, nil
	}, nil, nil)

	return &core.TreeDesc{
		Name: "patrol",
		Doc:  "Walk *around*.",
		Root: &core.NodeDesc{
			Category: core.Sequence,
			Children: []*core.NodeDesc{
				action("set_blackboard", core.Const("walking"), core.Const(true)),
				{Category: core.Wait, Debug: "wait", Event: "turn"},
				{
					Category: core.IfElse,
					Children: []*core.NodeDesc{
						{Category: core.Condition, Debug: "always", Expr: yes},
						action("log", core.Const("ok")),
						action("nop"),
					},
				},
				{
					Category: core.Probability,
					Weights:  []float64{1, 2},
					Children: []*core.NodeDesc{
						action("nop"),
						{Category: core.Call, Tree: "chase"},
					},
				},
			},
		},
	}
}

func guardFsm() *core.FsmDesc {
	return &core.FsmDesc{
		Name: "guard",
		Doc:  "Guards *things*.",
		States: []*core.StateDesc{
			{
				Name:  "patrolling",
				Enter: []core.StateAction{{Kind: core.TreeAction, Name: "patrol"}},
			},
			{
				Name:  "chasing",
				Enter: []core.StateAction{{Kind: core.TreeAction, Name: "chase"}},
				Leave: []core.StateAction{{Kind: core.CallAction, Name: "log", Args: []core.Param{core.Const("gave up")}}},
			},
			{Name: "lost"},
		},
		Events: []string{"seen", "lost-sight", "unused"},
		Transitions: []core.Transition{
			{From: 0, Event: "seen", To: 1},
			{From: 1, Event: "lost-sight", To: 0},
		},
	}
}

func library(t *testing.T) (*core.Library, *core.TreeDesc, *core.FsmDesc) {
	ctx := context.Background()
	lib := core.NewLibrary()
	tree, fsm := patrolTree(), guardFsm()
	if err := lib.AddTree(ctx, tree); err != nil {
		t.Fatal(err)
	}
	if err := lib.AddFsm(ctx, fsm); err != nil {
		t.Fatal(err)
	}
	return lib, tree, fsm
}
