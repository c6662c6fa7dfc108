package core

import (
	"context"
	"errors"
	"sort"
)

// NodeId identifies a live node within its agent.
//
// IDs are never reused, and zero means no node.
type NodeId uint64

// child is a parent's record of one of its children.
//
// The record (and so the result) outlives the child.
type child struct {
	id     NodeId
	done   bool
	result bool
}

// node is one live instance of a NodeDesc.
type node struct {
	id       NodeId
	desc     *NodeDesc
	state    NodeState
	parent   NodeId
	children []child

	// cursor is the next child for a Sequence or Selector, and
	// the phase of an IfElse or an Until.
	cursor int

	// order is what's left of a RandomSequence's permutation.
	order []int

	// data is host scratch space.
	data interface{}
}

const (
	ifElseCondition = iota + 1
	ifElseBranch
)

const (
	untilPredicate = iota
	untilBody
)

// Node is a host's handle on a live node.
//
// A handle stays safe to use after its node is gone.
type Node struct {
	agent *Agent
	id    NodeId
	desc  *NodeDesc
}

// Id returns the node's id, which the agent never reuses.
func (h *Node) Id() NodeId {
	return h.id
}

// Agent returns the agent that owns the node.
func (h *Node) Agent() *Agent {
	return h.agent
}

// Desc returns the node's compiled descriptor.
func (h *Node) Desc() *NodeDesc {
	return h.desc
}

// State returns the node's current state.  A node that's gone is
// DEAD.
func (h *Node) State() NodeState {
	if n, have := h.agent.nodes[h.id]; have {
		return n.state
	}
	return StateDead
}

// SetData stores something for the host.  Does nothing if the node
// is gone.
func (h *Node) SetData(x interface{}) {
	if n, have := h.agent.nodes[h.id]; have {
		n.data = x
	}
}

// Data returns what SetData stored.
func (h *Node) Data() interface{} {
	if n, have := h.agent.nodes[h.id]; have {
		return n.data
	}
	return nil
}

// Finish completes the node with the given result.
//
// Finishing a node that's DEAD (or gone) does nothing.  If the agent
// isn't already polling, Finish polls.
func (h *Node) Finish(ctx context.Context, result bool) error {
	a := h.agent
	n, have := a.nodes[h.id]
	if !have || n.state == StateDead {
		return nil
	}
	if err := a.quickFinish(ctx, n, result); err != nil {
		return err
	}
	if !a.processing {
		return a.poll(ctx)
	}
	return nil
}

func (a *Agent) handle(n *node) *Node {
	if n == nil {
		return nil
	}
	return &Node{
		agent: a,
		id:    n.id,
		desc:  n.desc,
	}
}

func (a *Agent) setState(n *node, s NodeState) {
	n.state = s
	if a.Debugger != nil {
		a.Debugger.StateChanged(a.Id, n.desc.Debug, n.id, s)
	}
}

// pushNode makes a new node, which is ready but not yet entered.
//
// A nil parent means a new tree, which replaces the current one.
func (a *Agent) pushNode(ctx context.Context, parent *node, desc *NodeDesc) (*node, error) {
	if parent == nil {
		if err := a.StopTree(ctx); err != nil {
			return nil, err
		}
	}

	a.nextId++
	n := &node{
		id:    a.nextId,
		desc:  desc,
		state: StateNew,
	}
	if desc.Category == RandomSequence {
		n.order = a.rand().Perm(len(desc.Children))
	}

	if parent == nil {
		a.root = n.id
	} else {
		n.parent = parent.id
		parent.children = append(parent.children, child{id: n.id})
	}
	a.nodes[n.id] = n
	a.fronts.add(n.id)

	return n, nil
}

func (a *Agent) parentOf(n *node) *node {
	if n.parent == 0 {
		return nil
	}
	p, have := a.nodes[n.parent]
	if !have {
		violation("node %d has lost parent %d", n.id, n.parent)
	}
	return p
}

func (a *Agent) release(n *node) {
	delete(a.nodes, n.id)
}

func (a *Agent) visit(ctx context.Context, n *node) error {
	switch n.state {
	case StateNew:
		if err := a.enter(ctx, n); err != nil {
			return err
		}
		if n.state == StateEntering {
			violation("%s node %d still entering", n.desc.Category, n.id)
		}
	case StateAwaken:
		if err := a.revisit(ctx, n); err != nil {
			return err
		}
		if n.state == StateRevisiting {
			violation("%s node %d still revisiting", n.desc.Category, n.id)
		}
	}
	return nil
}

// quickFinish records the result with the parent, leaves, and
// backtraces.  It doesn't poll.
//
// A root without a parent never finishes.
func (a *Agent) quickFinish(ctx context.Context, n *node, result bool) error {
	if n.state == StateDead {
		violation("finishing dead node %d", n.id)
	}
	p := a.parentOf(n)
	if p == nil {
		return nil
	}
	p.setResult(n.id, result)
	if err := a.leave(ctx, n); err != nil {
		return err
	}
	a.backtrace(n)
	return nil
}

func (n *node) setResult(id NodeId, result bool) {
	for i := range n.children {
		if n.children[i].id == id {
			n.children[i].done = true
			n.children[i].result = result
			return
		}
	}
	violation("node %d isn't a child of %d", id, n.id)
}

func (a *Agent) block(n *node) {
	if n.state != StateEntering {
		violation("node %d blocking while %s", n.id, n.state)
	}
	a.setState(n, StateBlocking)
}

// backtrace kills the node and wakes up its parent.
func (a *Agent) backtrace(n *node) {
	if !a.fronts.has(n.id) {
		violation("backtrace of node %d, which isn't a front", n.id)
	}
	p := a.parentOf(n)
	if p.state != StateAwaken && p.state != StateWaitChild {
		violation("backtrace to node %d, which is %s", p.id, p.state)
	}
	a.fronts.remove(n.id)
	a.setState(n, StateDead)
	a.release(n)
	a.fronts.add(p.id)
	a.setState(p, StateAwaken)
}

func (a *Agent) pushChild(ctx context.Context, n *node, i int) error {
	if !a.fronts.has(n.id) {
		violation("node %d pushing a child while not a front", n.id)
	}
	if n.desc.Category != Parallel {
		a.waitForChild(n)
	}
	_, err := a.pushNode(ctx, n, n.desc.Children[i])
	return err
}

func (a *Agent) waitForChild(n *node) {
	a.fronts.remove(n.id)
	a.setState(n, StateWaitChild)
}

// interrupt cancels the subtree at n.  Children that are already
// dead are left alone.
func (a *Agent) interrupt(ctx context.Context, n *node) error {
	var errs []error
	if err := a.leave(ctx, n); err != nil {
		errs = append(errs, err)
	}
	a.fronts.remove(n.id)
	for _, c := range n.children {
		if k, have := a.nodes[c.id]; have && k.state != StateDead {
			if err := a.interrupt(ctx, k); err != nil {
				errs = append(errs, err)
			}
		}
	}
	a.setState(n, StateDead)
	a.release(n)
	return errors.Join(errs...)
}

func (n *node) clearChildren() {
	n.children = nil
}

func (n *node) singleResult() bool {
	if len(n.children) != 1 || !n.children[0].done {
		violation("node %d wants exactly one finished child", n.id)
	}
	return n.children[0].result
}

func (a *Agent) enter(ctx context.Context, n *node) error {
	a.setState(n, StateEntering)

	d := n.desc
	switch d.Category {
	case Root, Sequence, Selector, Not, Always:
		return a.pushChild(ctx, n, 0)

	case RandomSequence:
		return a.pushChild(ctx, n, n.nextRandom())

	case Probability:
		high := d.Weights[len(d.Weights)-1]
		x := a.rand().Float64() * high
		i := sort.SearchFloat64s(d.Weights, x)
		return a.pushChild(ctx, n, i)

	case IfElse:
		n.cursor = ifElseCondition
		return a.pushChild(ctx, n, 0)

	case Until:
		n.cursor = untilPredicate
		return a.pushChild(ctx, n, 0)

	case Parallel:
		for i := range d.Children {
			if err := a.pushChild(ctx, n, i); err != nil {
				return err
			}
		}
		a.waitForChild(n)
		return nil

	case Call:
		t, err := a.resolveTree(ctx, d.Tree)
		if err != nil {
			return err
		}
		a.waitForChild(n)
		_, err = a.pushNode(ctx, n, t.Root)
		return err

	case Action:
		if err := a.invoke(ctx, n, d.Enter); err != nil {
			return err
		}
		if n.state == StateEntering {
			a.block(n)
		}
		return nil

	case Compute:
		vars, err := a.resolveInputs(d.Expr.Inputs)
		if err != nil {
			return err
		}
		exe, err := d.Expr.Eval(ctx, vars)
		if err != nil {
			return err
		}
		if err = a.writeOutputs(d.Expr.Outputs, exe.Vars); err != nil {
			return err
		}
		return a.quickFinish(ctx, n, true)

	case Condition:
		vars, err := a.resolveInputs(d.Expr.Inputs)
		if err != nil {
			return err
		}
		exe, err := d.Expr.Eval(ctx, vars)
		if err != nil {
			return err
		}
		b, is := exe.Value.(bool)
		if !is {
			return &NonBoolean{d.Debug, exe.Value}
		}
		return a.quickFinish(ctx, n, b)

	case Wait:
		a.block(n)
		return nil

	default:
		violation("entering node with unknown category '%s'", d.Category)
	}
	return nil
}

func (a *Agent) revisit(ctx context.Context, n *node) error {
	a.setState(n, StateRevisiting)

	d := n.desc
	switch d.Category {
	case Root:
		if n.parent == 0 {
			n.clearChildren()
			return a.pushChild(ctx, n, 0)
		}
		return a.quickFinish(ctx, n, n.singleResult())

	case Sequence:
		if !n.singleResult() {
			return a.quickFinish(ctx, n, false)
		}
		n.cursor++
		if n.cursor == len(d.Children) {
			return a.quickFinish(ctx, n, true)
		}
		n.clearChildren()
		return a.pushChild(ctx, n, n.cursor)

	case RandomSequence:
		if !n.singleResult() {
			return a.quickFinish(ctx, n, false)
		}
		if len(n.order) == 0 {
			return a.quickFinish(ctx, n, true)
		}
		n.clearChildren()
		return a.pushChild(ctx, n, n.nextRandom())

	case Selector:
		if n.singleResult() {
			return a.quickFinish(ctx, n, true)
		}
		n.cursor++
		if n.cursor == len(d.Children) {
			return a.quickFinish(ctx, n, false)
		}
		n.clearChildren()
		return a.pushChild(ctx, n, n.cursor)

	case Probability, Call:
		return a.quickFinish(ctx, n, n.singleResult())

	case Not:
		return a.quickFinish(ctx, n, !n.singleResult())

	case Always:
		return a.quickFinish(ctx, n, d.Value)

	case IfElse:
		switch n.cursor {
		case ifElseCondition:
			n.cursor = ifElseBranch
			cond := n.singleResult()
			n.clearChildren()
			if cond {
				return a.pushChild(ctx, n, 1)
			}
			return a.pushChild(ctx, n, 2)
		case ifElseBranch:
			return a.quickFinish(ctx, n, n.singleResult())
		default:
			violation("if-else node %d in phase %d", n.id, n.cursor)
		}

	case Until:
		if n.cursor == untilPredicate {
			if n.singleResult() {
				return a.quickFinish(ctx, n, true)
			}
			n.cursor = untilBody
			return a.pushChild(ctx, n, 1)
		}
		n.clearChildren()
		n.cursor = untilPredicate
		return a.pushChild(ctx, n, 0)

	case Parallel:
		var (
			found  bool
			result bool
			errs   []error
		)
		for _, c := range n.children {
			if c.done {
				if !found {
					found, result = true, c.result
				}
				continue
			}
			if k, have := a.nodes[c.id]; have && k.state != StateDead {
				if err := a.interrupt(ctx, k); err != nil {
					errs = append(errs, err)
				}
			}
		}
		if err := errors.Join(errs...); err != nil {
			return err
		}
		if !found {
			violation("parallel node %d revisited without a finished child", n.id)
		}
		if !a.fronts.has(n.id) {
			a.fronts.add(n.id)
		}
		return a.quickFinish(ctx, n, result)

	default:
		violation("revisiting %s node %d", d.Category, n.id)
	}
	return nil
}

func (n *node) nextRandom() int {
	i := n.order[len(n.order)-1]
	n.order = n.order[:len(n.order)-1]
	return i
}

func (a *Agent) leave(ctx context.Context, n *node) error {
	a.setState(n, StateLeaving)
	if n.desc.Category == Action {
		return a.invoke(ctx, n, n.desc.Leave)
	}
	return nil
}

// trySwallow finishes the node if it's waiting for the event.
func (a *Agent) trySwallow(ctx context.Context, n *node, event string) (bool, error) {
	if n.desc.Category != Wait || n.desc.Event != event {
		return false, nil
	}
	return true, a.quickFinish(ctx, n, true)
}
