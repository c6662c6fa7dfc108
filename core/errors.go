package core

// These errors are user errors, not internal errors.  An internal
// error (a broken invariant) is a panic with an *InvariantViolation.

import (
	"errors"
	"fmt"
)

// NotCompiled occurs when a descriptor or an expression is used
// before it has been Compile()ed.
type NotCompiled struct {
	What string
	Name string
}

func (e *NotCompiled) Error() string {
	return e.What + ` "` + e.Name + `" not compiled`
}

// NotFound occurs when a Resolver doesn't know about a tree or a
// state machine.
type NotFound struct {
	What string
	Name string
}

func (e *NotFound) Error() string {
	return e.What + ` "` + e.Name + `" not found`
}

// BadTree occurs when a TreeDesc doesn't have the right shape.
type BadTree struct {
	Tree    string
	Node    string
	Problem string
}

func (e *BadTree) Error() string {
	if e.Node == "" {
		return `tree "` + e.Tree + `": ` + e.Problem
	}
	return `node "` + e.Node + `" in tree "` + e.Tree + `": ` + e.Problem
}

// BadFsm occurs when an FsmDesc doesn't make sense.
type BadFsm struct {
	Fsm     string
	Problem string
}

func (e *BadFsm) Error() string {
	return `fsm "` + e.Fsm + `": ` + e.Problem
}

// MissingKey occurs when a blackboard or property Param refers to
// nothing.
type MissingKey struct {
	Key string
}

func (e *MissingKey) Error() string {
	return `missing key "` + e.Key + `"`
}

// MissingVar occurs when a Compute's output binding names a variable
// that the expression didn't produce.
type MissingVar struct {
	Var string
}

func (e *MissingVar) Error() string {
	return `expression did not produce variable "` + e.Var + `"`
}

// NoProperties occurs when a property Param is used with an agent
// that has no Properties.
type NoProperties struct {
	Agent string
}

func (e *NoProperties) Error() string {
	return `agent "` + e.Agent + `" has no properties`
}

// ConstantTarget occurs when something tries to write through a
// constant Param.
type ConstantTarget struct {
	Param Param
}

func (e *ConstantTarget) Error() string {
	return fmt.Sprintf("can't write to constant %v", e.Param.Value)
}

// BadParam occurs for a Param with an unknown Kind.
type BadParam struct {
	Param Param
}

func (e *BadParam) Error() string {
	return `unknown param kind "` + string(e.Param.Kind) + `"`
}

// UnknownAction occurs when a Dispatcher has no method by the given
// name.
type UnknownAction struct {
	Method string
}

func (e *UnknownAction) Error() string {
	return `unknown action "` + e.Method + `"`
}

// BadArgs occurs when a host action gets arguments it can't use.
type BadArgs struct {
	Method  string
	Problem string
}

func (e *BadArgs) Error() string {
	return `action "` + e.Method + `": ` + e.Problem
}

// NonBoolean occurs when a Condition's expression returns something
// other than a bool.
type NonBoolean struct {
	Node  string
	Value interface{}
}

func (e *NonBoolean) Error() string {
	return fmt.Sprintf(`condition "%s" returned %#v (%T), not a bool`, e.Node, e.Value, e.Value)
}

// InvariantViolation is the value of a panic that occurs when the
// runtime finds itself in a state it should never be in.
type InvariantViolation struct {
	Problem string
}

func (e *InvariantViolation) Error() string {
	return "invariant violation: " + e.Problem
}

func violation(format string, args ...interface{}) {
	panic(&InvariantViolation{fmt.Sprintf(format, args...)})
}

// ErrNoFsm occurs when an agent is enabled before SetFsm.
var ErrNoFsm = errors.New("no initial fsm")
