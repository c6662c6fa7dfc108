// Package exprlang is a core.Interpreter that uses
// https://github.com/expr-lang/expr.
//
// A Condition's source is any boolean expression:
//
//	hp < 10 && !fleeing
//
// A Compute's source must evaluate to a map, whose entries become
// (or replace) variables:
//
//	{"hp": hp + heal, "healed": true}
package exprlang

import (
	"context"
	"fmt"

	"github.com/Comcast/brains/core"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

func init() {
	core.DefaultInterpreters["expr"] = NewInterpreter()
}

type Interpreter struct {
	// Options are added to the ones Compile always uses.
	Options []expr.Option
}

func NewInterpreter() *Interpreter {
	return &Interpreter{}
}

func (i *Interpreter) Compile(ctx context.Context, src string) (interface{}, error) {
	opts := append([]expr.Option{
		expr.Env(map[string]interface{}{}),
		expr.AllowUndefinedVariables(),
	}, i.Options...)

	return expr.Compile(src, opts...)
}

func (i *Interpreter) Exec(ctx context.Context, vars core.Bindings, src string, compiled interface{}) (*core.Execution, error) {
	if compiled == nil {
		var err error
		if compiled, err = i.Compile(ctx, src); err != nil {
			return nil, err
		}
	}
	p, is := compiled.(*vm.Program)
	if !is {
		return nil, fmt.Errorf("expr bad compilation: %T", compiled)
	}

	if vars == nil {
		vars = make(core.Bindings)
	}

	x, err := expr.Run(p, map[string]interface{}(vars))
	if err != nil {
		return nil, err
	}

	exe := &core.Execution{
		Vars:  vars,
		Value: x,
	}

	if m, is := x.(map[string]interface{}); is {
		acc := vars.Copy()
		for k, v := range m {
			acc[k] = v
		}
		exe.Vars = acc
	}

	return exe, nil
}
