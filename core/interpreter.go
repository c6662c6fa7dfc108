/* Copyright 2018-2019 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package core

import (
	"context"
	"errors"
)

var (
	// InterpreterNotFound occurs when you try to Compile an Expr,
	// and the required interpreter isn't in the given map of
	// interpreters.
	InterpreterNotFound = errors.New("interpreter not found")

	// DefaultInterpreters will be used in Expr.Compile if given
	// nil interpreters.
	//
	// Interpreter packages register themselves here in their
	// init().
	DefaultInterpreters = make(map[string]Interpreter)

	// DefaultInterpreterName is the interpreter an Expr uses when
	// it doesn't name one.
	DefaultInterpreterName = "goja"
)

// Execution is what an Interpreter returns.
type Execution struct {
	// Vars are the variables after execution.  A Compute node
	// reads its outputs from here.
	Vars Bindings

	// Value is the value of the expression.  A Condition node
	// wants a bool.
	Value interface{}
}

// Interpreter can optionally compile and execute the source of
// Compute and Condition nodes.
type Interpreter interface {
	// Compile can make something that helps when Exec()ing the
	// code later.
	Compile(ctx context.Context, src string) (interface{}, error)

	// Exec executes the code.  The result of previous Compile()
	// might be provided.
	//
	// The given vars belong to the Interpreter, which can modify
	// them.
	Exec(ctx context.Context, vars Bindings, src string, compiled interface{}) (*Execution, error)
}

// ExprFunc is a native (Go) implementation of an Expr.
type ExprFunc func(ctx context.Context, vars Bindings) (*Execution, error)

// Expr is the expression of a Compute or a Condition node.
//
// Inputs are resolved into a fresh set of variables before each
// evaluation.  After a Compute, Outputs are written back from the
// resulting variables.
type Expr struct {
	Interpreter string `json:"interpreter,omitempty" yaml:",omitempty"`
	Source      string `json:"source,omitempty" yaml:",omitempty"`

	Inputs  []Binding `json:"inputs,omitempty" yaml:",omitempty"`
	Outputs []Binding `json:"outputs,omitempty" yaml:",omitempty"`

	// Func, if not nil, is used instead of any Interpreter.
	Func ExprFunc `json:"-" yaml:"-"`

	compiled ExprFunc
}

// NewExprFunc makes an Expr from a Go function.
func NewExprFunc(f ExprFunc, inputs, outputs []Binding) *Expr {
	return &Expr{
		Func:    f,
		Inputs:  inputs,
		Outputs: outputs,
	}
}

// Compile attempts to compile the Expr using the given interpreters,
// which defaults to DefaultInterpreters.
func (x *Expr) Compile(ctx context.Context, interpreters map[string]Interpreter, force bool) error {
	if x.compiled != nil && !force {
		return nil
	}

	if x.Func != nil {
		x.compiled = x.Func
		return nil
	}

	if interpreters == nil {
		interpreters = DefaultInterpreters
	}

	name := x.Interpreter
	if name == "" {
		name = DefaultInterpreterName
	}

	interpreter, have := interpreters[name]
	if !have {
		return InterpreterNotFound
	}

	c, err := interpreter.Compile(ctx, x.Source)
	if err != nil {
		return err
	}

	src := x.Source
	x.compiled = func(ctx context.Context, vars Bindings) (*Execution, error) {
		return interpreter.Exec(ctx, vars, src, c)
	}

	return nil
}

// Compiled reports whether the Expr is ready to Eval.
func (x *Expr) Compiled() bool {
	return x.compiled != nil
}

// Eval runs the compiled expression with the given variables.
func (x *Expr) Eval(ctx context.Context, vars Bindings) (*Execution, error) {
	if x.compiled == nil {
		return nil, &NotCompiled{"expression", x.Source}
	}
	exe, err := x.compiled(ctx, vars)
	if err != nil {
		return nil, err
	}
	if exe == nil {
		exe = &Execution{Vars: vars}
	}
	if exe.Vars == nil {
		exe.Vars = vars
	}
	return exe, nil
}
