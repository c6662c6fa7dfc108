package core

import (
	"context"
	"fmt"
)

func Example() {
	ctx := context.Background()

	lib := NewLibrary()

	patrol := &TreeDesc{
		Name: "patrol",
		Root: &NodeDesc{
			Category: Sequence,
			Children: []*NodeDesc{
				{
					Category: Action,
					Enter:    &Invocation{Method: "say", Args: []Param{Const("walking")}},
				},
				{
					Category: Wait,
					Event:    "arrived",
				},
				{
					Category: Action,
					Enter:    &Invocation{Method: "say", Args: []Param{Const("turning")}},
				},
			},
		},
	}
	if err := lib.AddTree(ctx, patrol); err != nil {
		panic(err)
	}

	guard := &FsmDesc{
		Name: "guard",
		States: []*StateDesc{
			{
				Name:  "patrolling",
				Enter: []StateAction{{Kind: TreeAction, Name: "patrol"}},
			},
			{
				Name:  "chasing",
				Enter: []StateAction{{Kind: CallAction, Name: "say", Args: []Param{Const("hey you")}}},
			},
		},
		Events:      []string{"intruder"},
		Transitions: []Transition{{From: 0, Event: "intruder", To: 1}},
	}
	if err := lib.AddFsm(ctx, guard); err != nil {
		panic(err)
	}

	actions := ActionMap{
		"say": func(ctx context.Context, a *Agent, n *Node, args []interface{}) error {
			fmt.Println(args[0])
			if n != nil {
				return n.Finish(ctx, true)
			}
			return nil
		},
	}

	a := NewAgent("guard1", lib, actions)
	a.SetFsm("guard")

	if err := a.Enable(ctx, true); err != nil {
		panic(err)
	}
	if err := a.FireEvent(ctx, "arrived"); err != nil {
		panic(err)
	}
	if err := a.FireEvent(ctx, "intruder"); err != nil {
		panic(err)
	}
	fmt.Println(a.Fsms()[0].StateName)

	// Output:
	// walking
	// turning
	// walking
	// hey you
	// chasing
}
