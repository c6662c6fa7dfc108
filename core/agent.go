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
	"log/slog"
	"math/rand"

	"github.com/Comcast/brains/util"
	"github.com/google/uuid"
)

// FrontsInitialCap is the initial capacity of an agent's front set.
var FrontsInitialCap = 16

// Agent runs state machines and behavior trees for one entity.
//
// An Agent isn't safe for concurrent use.  See the crew package for a
// way to share agents between goroutines.
type Agent struct {
	Id string

	// Logger defaults to util.Logger("agent").
	Logger *slog.Logger

	// Debugger, if not nil, hears about every node state change.
	Debugger Debugger

	// Props are the host properties that PropertyParams see.
	Props Properties

	// Rand drives RandomSequence and Probability nodes.  Nil means
	// a source seeded from the global one.
	Rand *rand.Rand

	resolver   Resolver
	dispatcher Dispatcher

	enabled    bool
	processing bool
	queue      []string

	fsmName string
	fsms    []*Fsm

	root   NodeId
	nodes  map[NodeId]*node
	nextId NodeId
	fronts *frontSet

	blackboard map[string]interface{}
}

// NewAgent makes an agent that finds descriptors with the given
// Resolver and runs host methods with the given Dispatcher.
//
// An empty id gets a UUID.
func NewAgent(id string, r Resolver, d Dispatcher) *Agent {
	if id == "" {
		id = uuid.NewString()
	}
	return &Agent{
		Id:         id,
		Logger:     util.Logger("agent"),
		resolver:   r,
		dispatcher: d,
		nodes:      make(map[NodeId]*node),
		fronts:     newFrontSet(FrontsInitialCap),
		blackboard: make(map[string]interface{}),
	}
}

func (a *Agent) rand() *rand.Rand {
	if a.Rand == nil {
		a.Rand = rand.New(rand.NewSource(rand.Int63()))
	}
	return a.Rand
}

// SetFsm sets the state machine that Enable starts.
func (a *Agent) SetFsm(name string) {
	a.fsmName = name
}

func (a *Agent) Enabled() bool {
	return a.enabled
}

// Enable starts or stops the agent.
//
// Starting pushes the state machine given to SetFsm and then polls.
// Stopping stops the tree, unwinds the state machine stack, and drops
// queued events.  The blackboard survives.
func (a *Agent) Enable(ctx context.Context, on bool) error {
	if a.enabled == on {
		return nil
	}
	if !on {
		a.enabled = false
		a.queue = nil
		return errors.Join(a.StopTree(ctx), a.stopAllFsms(ctx))
	}

	if a.fsmName == "" {
		return ErrNoFsm
	}
	if len(a.fsms) != 0 {
		violation("agent %s starting with %d state machines", a.Id, len(a.fsms))
	}
	a.enabled = true
	if err := a.pushFsm(ctx, a.fsmName); err != nil {
		return err
	}
	return a.pollIfIdle(ctx)
}

// FireEvent queues the event and polls unless the agent is already
// polling.  A disabled agent ignores events.
func (a *Agent) FireEvent(ctx context.Context, event string) error {
	if !a.enabled {
		return nil
	}
	a.queue = append(a.queue, event)
	return a.pollIfIdle(ctx)
}

// Blackboard returns the agent's blackboard, which the caller may
// modify.
func (a *Agent) Blackboard() map[string]interface{} {
	return a.blackboard
}

// IsReady reports whether the agent has work to do: a node ready to
// visit or a queued event.
func (a *Agent) IsReady() bool {
	return a.readyFront() || 0 < len(a.queue)
}

// Fsms describes the state machine stack, bottom first.
func (a *Agent) Fsms() []FsmStatus {
	acc := make([]FsmStatus, len(a.fsms))
	for i, f := range a.fsms {
		acc[i] = f.status()
	}
	return acc
}

// Fronts returns handles for the nodes in the front set, in the order
// they were added.
func (a *Agent) Fronts() []*Node {
	acc := make([]*Node, 0, len(a.fronts.ids))
	for _, id := range a.fronts.ids {
		if n, have := a.nodes[id]; have {
			acc = append(acc, a.handle(n))
		}
	}
	return acc
}

// PushFsm pushes the named state machine on top of the stack.
func (a *Agent) PushFsm(ctx context.Context, name string) error {
	if err := a.pushFsm(ctx, name); err != nil {
		return err
	}
	return a.pollIfIdle(ctx)
}

// PushTree starts the named tree, replacing the running tree.
func (a *Agent) PushTree(ctx context.Context, name string) error {
	if err := a.pushTree(ctx, name); err != nil {
		return err
	}
	return a.pollIfIdle(ctx)
}

func (a *Agent) pushFsm(ctx context.Context, name string) error {
	f, err := a.newFsm(ctx, name)
	if err != nil {
		return err
	}
	return f.pushSelf(ctx)
}

func (a *Agent) pushTree(ctx context.Context, name string) error {
	t, err := a.resolveTree(ctx, name)
	if err != nil {
		return err
	}
	a.Logger.Debug("starting tree", "agent", a.Id, "tree", name)
	_, err = a.pushNode(ctx, nil, t.Root)
	return err
}

// StopTree interrupts the running tree, if any.
func (a *Agent) StopTree(ctx context.Context) error {
	if a.root == 0 {
		return nil
	}
	n, have := a.nodes[a.root]
	a.root = 0
	if !have {
		return nil
	}
	return a.interrupt(ctx, n)
}

func (a *Agent) stopAllFsms(ctx context.Context) error {
	var errs []error
	for 0 < len(a.fsms) {
		if err := a.fsms[len(a.fsms)-1].popSelf(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (a *Agent) pollIfIdle(ctx context.Context) error {
	if a.processing {
		return nil
	}
	return a.poll(ctx)
}

// poll alternates between the event pass and the front pass until
// neither does anything.
func (a *Agent) poll(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		events, err := a.pollEvents(ctx)
		if err != nil {
			return err
		}
		fronts, err := a.pollFronts(ctx)
		if err != nil {
			return err
		}
		if !events && !fronts {
			return nil
		}
	}
}

func (a *Agent) startProcessing() {
	if a.processing {
		violation("agent %s is already processing", a.Id)
	}
	a.processing = true
}

// pollEvents drains the queue until it's empty or the tree swallows
// an event.
func (a *Agent) pollEvents(ctx context.Context) (bool, error) {
	a.startProcessing()
	defer func() { a.processing = false }()

	processed := false
	for 0 < len(a.queue) {
		event := a.queue[0]
		a.queue = a.queue[1:]

		swallowed, err := a.treeSwallow(ctx, event)
		if err != nil {
			return true, err
		}
		if swallowed {
			processed = true
			break
		}

		received, err := a.fsmReceive(ctx, event)
		if err != nil {
			return true, err
		}
		if !received {
			a.Logger.Info("event with no receiver", "agent", a.Id, "event", event)
		}
		processed = true
	}
	return processed, nil
}

func (a *Agent) treeSwallow(ctx context.Context, event string) (bool, error) {
	for _, id := range a.fronts.snapshot() {
		n, have := a.nodes[id]
		if !have {
			continue
		}
		swallowed, err := a.trySwallow(ctx, n, event)
		if swallowed || err != nil {
			return swallowed, err
		}
	}
	return false, nil
}

// fsmReceive looks for a state machine, top of the stack first, that
// has a transition for the event.  Everything above the receiver is
// popped.
func (a *Agent) fsmReceive(ctx context.Context, event string) (bool, error) {
	for i := len(a.fsms) - 1; 0 <= i; i-- {
		receiver := a.fsms[i]
		to, have := receiver.TryReceive(event)
		if !have {
			continue
		}
		a.Logger.Debug("transition", "agent", a.Id, "fsm", receiver.desc.Name,
			"from", receiver.current, "event", event, "to", to)
		if err := a.StopTree(ctx); err != nil {
			return true, err
		}
		for j := len(a.fsms) - 1; i < j; j-- {
			if err := a.fsms[j].popSelf(ctx); err != nil {
				return true, err
			}
		}
		return true, receiver.transferState(ctx, to)
	}
	return false, nil
}

// pollFronts visits ready nodes until there aren't any.
func (a *Agent) pollFronts(ctx context.Context) (bool, error) {
	if !a.readyFront() {
		return false, nil
	}

	a.startProcessing()
	defer func() { a.processing = false }()

	for ready := true; ready; {
		if err := ctx.Err(); err != nil {
			return true, err
		}
		ready = false
		for _, id := range a.fronts.snapshot() {
			// A node can die before its turn.
			n, have := a.nodes[id]
			if !have || !n.state.Ready() {
				continue
			}
			ready = true
			if err := a.visit(ctx, n); err != nil {
				return true, err
			}
		}
	}
	return true, nil
}

func (a *Agent) readyFront() bool {
	for _, id := range a.fronts.ids {
		if n, have := a.nodes[id]; have && n.state.Ready() {
			return true
		}
	}
	return false
}

// frontSet is a set of node ids that remembers insertion order.
type frontSet struct {
	ids []NodeId
	in  map[NodeId]bool
}

func newFrontSet(n int) *frontSet {
	return &frontSet{
		ids: make([]NodeId, 0, n),
		in:  make(map[NodeId]bool, n),
	}
}

func (s *frontSet) has(id NodeId) bool {
	return s.in[id]
}

func (s *frontSet) add(id NodeId) {
	if s.in[id] {
		return
	}
	s.in[id] = true
	s.ids = append(s.ids, id)
}

func (s *frontSet) remove(id NodeId) {
	if !s.in[id] {
		return
	}
	delete(s.in, id)
	for i, x := range s.ids {
		if x == id {
			s.ids = append(s.ids[:i], s.ids[i+1:]...)
			return
		}
	}
}

func (s *frontSet) snapshot() []NodeId {
	acc := make([]NodeId, len(s.ids))
	copy(acc, s.ids)
	return acc
}
