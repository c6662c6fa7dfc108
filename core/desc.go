package core

import (
	"context"
	"fmt"
)

// Category identifies the kind of a tree node.
type Category string

const (
	// Root is the top of every tree.  A root without a parent
	// restarts its child forever.  A root reached through a Call
	// forwards its child's result.
	Root Category = "root"

	Sequence       Category = "sequence"
	RandomSequence Category = "random-sequence"
	Selector       Category = "selector"
	Probability    Category = "probability"
	IfElse         Category = "if-else"
	Parallel       Category = "parallel"
	Until          Category = "until"
	Not            Category = "not"
	Always         Category = "always"
	Call           Category = "call"

	Action    Category = "action"
	Compute   Category = "compute"
	Condition Category = "condition"
	Wait      Category = "wait"
)

// Leaf reports whether nodes of this category never have children.
func (c Category) Leaf() bool {
	switch c {
	case Call, Action, Compute, Condition, Wait:
		return true
	}
	return false
}

// NodeDesc is the immutable description of one occurrence of a node
// in a tree.
//
// Only the payload fields that matter for the Category are
// consulted.
type NodeDesc struct {
	Category Category `json:"category" yaml:"category"`

	// Debug is an opaque identity for tooling (debuggers,
	// renderers).  Something like "patrol/42".
	Debug string `json:"debug,omitempty" yaml:",omitempty"`

	Children []*NodeDesc `json:"children,omitempty" yaml:",omitempty"`

	// Weights is a non-decreasing cumulative weight table for a
	// Probability node.  One entry per child.
	Weights []float64 `json:"weights,omitempty" yaml:",omitempty"`

	// Value is the fixed result of an Always node.
	Value bool `json:"value,omitempty" yaml:",omitempty"`

	// Tree is the name of the tree that a Call node runs.
	Tree string `json:"tree,omitempty" yaml:",omitempty"`

	// Event is the name of the event a Wait node waits for.
	Event string `json:"event,omitempty" yaml:",omitempty"`

	// Enter and Leave are the host methods an Action node
	// invokes.
	Enter *Invocation `json:"enter,omitempty" yaml:",omitempty"`
	Leave *Invocation `json:"leave,omitempty" yaml:",omitempty"`

	// Expr is the expression for a Compute or Condition node.
	Expr *Expr `json:"expr,omitempty" yaml:",omitempty"`
}

// Walk calls f on this node and then on each descendant, depth
// first, stopping at the first error.
func (n *NodeDesc) Walk(f func(*NodeDesc) error) error {
	if n == nil {
		return nil
	}
	if err := f(n); err != nil {
		return err
	}
	for _, c := range n.Children {
		if err := c.Walk(f); err != nil {
			return err
		}
	}
	return nil
}

// Invocation names a host method and the parameters to resolve for
// it.
type Invocation struct {
	Method string  `json:"method" yaml:"method"`
	Args   []Param `json:"args,omitempty" yaml:",omitempty"`
}

// TreeDesc is a named behavior tree.
//
// A TreeDesc should be Compiled before use.
type TreeDesc struct {
	Name string `json:"name" yaml:"name"`
	Doc  string `json:"doc,omitempty" yaml:",omitempty"`

	// Root is the top node.  If it's not a Root, Compile will
	// wrap it in one.
	Root *NodeDesc `json:"root" yaml:"root"`

	compiled bool
}

// Compiled reports whether Compile has succeeded.
func (t *TreeDesc) Compiled() bool {
	return t.compiled
}

// Compile checks the shape of every node and compiles every
// expression using the given interpreters, which default to
// DefaultInterpreters.
//
// Expressions that already have been compiled are left alone unless
// force is true.
func (t *TreeDesc) Compile(ctx context.Context, interpreters map[string]Interpreter, force bool) error {
	if t.Root == nil {
		return &BadTree{t.Name, "", "no root"}
	}
	if t.Root.Category != Root {
		t.Root = &NodeDesc{
			Category: Root,
			Debug:    t.Name,
			Children: []*NodeDesc{t.Root},
		}
	}

	err := t.Root.Walk(func(n *NodeDesc) error {
		if problem := n.check(); problem != "" {
			return &BadTree{t.Name, n.Debug, problem}
		}
		if n.Expr != nil {
			if err := n.Expr.Compile(ctx, interpreters, force); err != nil {
				return &BadTree{t.Name, n.Debug, err.Error()}
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	t.compiled = true

	return nil
}

// check returns a description of what's wrong with the node (if
// anything).
func (n *NodeDesc) check() string {
	have := len(n.Children)
	arity := func(want int) string {
		if have != want {
			return fmt.Sprintf("%s wants %d children, not %d", n.Category, want, have)
		}
		return ""
	}
	some := func() string {
		if have == 0 {
			return fmt.Sprintf("%s wants children", n.Category)
		}
		return ""
	}

	switch n.Category {
	case Root, Not, Always:
		return arity(1)
	case Sequence, RandomSequence, Selector, Parallel:
		return some()
	case Probability:
		if problem := some(); problem != "" {
			return problem
		}
		if len(n.Weights) != have {
			return fmt.Sprintf("%d weights for %d children", len(n.Weights), have)
		}
		for i := 1; i < len(n.Weights); i++ {
			if n.Weights[i] < n.Weights[i-1] {
				return "weights must be cumulative"
			}
		}
		if n.Weights[have-1] <= 0 {
			return "total weight must be positive"
		}
		return ""
	case IfElse:
		return arity(3)
	case Until:
		return arity(2)
	case Call:
		if n.Tree == "" {
			return "call without a tree"
		}
		return arity(0)
	case Action:
		return arity(0)
	case Compute, Condition:
		if n.Expr == nil {
			return fmt.Sprintf("%s without an expression", n.Category)
		}
		return arity(0)
	case Wait:
		if n.Event == "" {
			return "wait without an event"
		}
		return arity(0)
	default:
		return fmt.Sprintf("unknown category '%s'", n.Category)
	}
}
