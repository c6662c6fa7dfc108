package noop

import (
	"context"

	"github.com/Comcast/brains/core"
	"github.com/Comcast/brains/util"
)

// Interpreter is a core.Interpreter which just returns the variables
// without modification.  Every expression's value is true.
//
// Useful for tools that need compiled descriptors but never run
// them.
type Interpreter struct {
	// Silent, if false, will log a warning on every call.
	Silent bool
}

func NewInterpreter() *Interpreter {
	return &Interpreter{}
}

func (i *Interpreter) Compile(ctx context.Context, src string) (interface{}, error) {
	if !i.Silent {
		util.Logger("noop").Warn("using noop interpreter for compilation")
	}
	return nil, nil
}

func (i *Interpreter) Exec(ctx context.Context, vars core.Bindings, src string, compiled interface{}) (*core.Execution, error) {
	if !i.Silent {
		util.Logger("noop").Warn("using noop interpreter for execution")
	}
	return &core.Execution{
		Vars:  vars,
		Value: true,
	}, nil
}

// Interpreters maps every name to the same Interpreter.
type Interpreters struct {
	I *Interpreter
}

func NewInterpreters() *Interpreters {
	return &Interpreters{
		I: &Interpreter{Silent: true},
	}
}

// For returns a map that has the Interpreter under every interpreter
// name that the tree uses.
func (i *Interpreters) For(t *core.TreeDesc) map[string]core.Interpreter {
	m := map[string]core.Interpreter{
		core.DefaultInterpreterName: i.I,
	}
	t.Root.Walk(func(n *core.NodeDesc) error {
		if n.Expr != nil {
			m[n.Expr.Interpreter] = i.I
		}
		return nil
	})
	m[""] = i.I
	return m
}
