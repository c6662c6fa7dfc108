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

// Package core provides the core gear for executing behavior trees
// and hierarchical finite-state machines on behalf of game or
// simulation agents.
//
// The static structure lives in descriptors: a TreeDesc is a tree of
// NodeDescs, and an FsmDesc is a list of states with enter and leave
// actions plus a (state, event) transition graph.  Descriptors are
// plain data (they have JSON and YAML tags) and are never modified
// once Compiled.  Any number of agents can share them.
//
// An Agent runs descriptors.  It owns a blackboard, an event queue, a
// stack of running state machines, at most one running behavior tree,
// and the "front set" of live tree nodes that are either ready to be
// visited or blocked waiting for something external.  Execution is
// cooperative and single-threaded: nothing happens except inside
// Agent.Enable, Agent.FireEvent, or Node.Finish, and each of those
// polls until no node is ready and no event is queued.
//
// Domain work happens in host actions.  An Action leaf dispatches a
// named method through a Dispatcher (usually an ActionMap).  The
// method can finish its node right away, or it can keep the *Node
// and call Finish later, perhaps from a tick callback.  Compute and
// Condition leaves run expressions through an Interpreter (see the
// interpreters packages) or a native Go function.
//
// To use this package, make some descriptors, Compile them, and put
// them in something that implements Resolver (a Library will do).
// Then make an Agent, tell it which state machine to start with
// SetFsm, and Enable it.
package core
