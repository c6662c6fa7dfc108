package core

import (
	"context"
	"fmt"
)

// Dispatcher runs host methods for Action nodes and for state
// machine "call" actions.
//
// The node is nil when the call comes from a state machine.  A method
// can finish its node right away, or it can hang on to the node and
// finish it later.
type Dispatcher interface {
	Invoke(ctx context.Context, a *Agent, method string, n *Node, args []interface{}) error
}

// ActionFunc is a host method.
type ActionFunc func(ctx context.Context, a *Agent, n *Node, args []interface{}) error

// ActionMap is a Dispatcher backed by a map.
type ActionMap map[string]ActionFunc

func (m ActionMap) Invoke(ctx context.Context, a *Agent, method string, n *Node, args []interface{}) error {
	f, have := m[method]
	if !have {
		return &UnknownAction{method}
	}
	return f(ctx, a, n, args)
}

// With returns a new ActionMap with this map's methods and then the
// given map's methods, which win.
func (m ActionMap) With(other ActionMap) ActionMap {
	acc := make(ActionMap, len(m)+len(other))
	for name, f := range m {
		acc[name] = f
	}
	for name, f := range other {
		acc[name] = f
	}
	return acc
}

// invoke resolves the parameters and dispatches.  A nil or empty
// invocation does nothing.
func (a *Agent) invoke(ctx context.Context, n *node, inv *Invocation) error {
	if inv == nil || inv.Method == "" {
		return nil
	}
	args, err := a.resolveArgs(inv.Args)
	if err != nil {
		return err
	}
	if a.dispatcher == nil {
		return &UnknownAction{inv.Method}
	}
	if err = a.dispatcher.Invoke(ctx, a, inv.Method, a.handle(n), args); err != nil {
		return fmt.Errorf("%s: %w", inv.Method, err)
	}
	return nil
}
