/* Copyright 2018 Comcast Cable Communications Management, LLC
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

// Package crew manages a set of agents addressed by id.
//
// An agent is single-threaded.  A Crew gives each agent its own
// mutex, so different agents can be driven concurrently while calls
// into any one agent are serialized.
package crew

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/Comcast/brains/core"
	"github.com/Comcast/brains/util"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

type Crew struct {
	sync.RWMutex

	Id string `json:"id"`

	// Parallel makes Broadcast and EnableAll drive agents
	// concurrently.
	Parallel bool `json:"parallel"`

	members map[string]*Member
}

// NewCrew makes an empty crew.  An empty id gets a random one.
func NewCrew(id string) *Crew {
	if id == "" {
		id = uuid.NewString()
	}
	return &Crew{
		Id:      id,
		members: make(map[string]*Member, 32),
	}
}

// Exists is returned when adding an agent with an id that's already
// in the crew.
type Exists struct {
	Id string
}

func (e *Exists) Error() string {
	return fmt.Sprintf("agent '%s' already exists", e.Id)
}

// Add puts the agent in the crew.
func (c *Crew) Add(a *core.Agent) error {
	c.Lock()
	defer c.Unlock()
	if _, have := c.members[a.Id]; have {
		return &Exists{a.Id}
	}
	c.members[a.Id] = &Member{Agent: a}
	util.Logger("crew").Debug("added", "crew", c.Id, "agent", a.Id)
	return nil
}

// Remove disables the agent and takes it out of the crew.
func (c *Crew) Remove(ctx context.Context, id string) error {
	c.Lock()
	m, have := c.members[id]
	if have {
		delete(c.members, id)
	}
	c.Unlock()

	if !have {
		return &core.NotFound{What: "agent", Name: id}
	}
	return m.do(func(a *core.Agent) error {
		return a.Enable(ctx, false)
	})
}

func (c *Crew) member(id string) (*Member, bool) {
	c.RLock()
	m, have := c.members[id]
	c.RUnlock()
	return m, have
}

// Get returns the agent with the given id.
//
// Calling the agent directly bypasses the member's lock.  Use Do
// instead if other goroutines might be using the crew.
func (c *Crew) Get(id string) (*core.Agent, bool) {
	m, have := c.member(id)
	if !have {
		return nil, false
	}
	return m.Agent, true
}

// Do calls f with the agent while holding the agent's lock.
func (c *Crew) Do(id string, f func(a *core.Agent) error) error {
	m, have := c.member(id)
	if !have {
		return &core.NotFound{What: "agent", Name: id}
	}
	return m.do(f)
}

// Fire sends the event to one agent.
func (c *Crew) Fire(ctx context.Context, id string, event string) error {
	return c.Do(id, func(a *core.Agent) error {
		return a.FireEvent(ctx, event)
	})
}

// Ids returns the sorted ids of the crew's agents.
func (c *Crew) Ids() []string {
	c.RLock()
	acc := make([]string, 0, len(c.members))
	for id := range c.members {
		acc = append(acc, id)
	}
	c.RUnlock()
	sort.Strings(acc)
	return acc
}

// each calls f for every member, in id order or concurrently if the
// crew is Parallel.  Stops at the first error.
func (c *Crew) each(ctx context.Context, f func(ctx context.Context, a *core.Agent) error) error {
	ids := c.Ids()

	if !c.Parallel {
		for _, id := range ids {
			err := c.Do(id, func(a *core.Agent) error {
				return f(ctx, a)
			})
			if err != nil {
				return err
			}
		}
		return nil
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, id := range ids {
		m, have := c.member(id)
		if !have {
			continue
		}
		g.Go(func() error {
			return m.do(func(a *core.Agent) error {
				return f(ctx, a)
			})
		})
	}
	return g.Wait()
}

// Broadcast sends the event to every agent.
func (c *Crew) Broadcast(ctx context.Context, event string) error {
	util.Logger("crew").Debug("broadcast", "crew", c.Id, "event", event)
	return c.each(ctx, func(ctx context.Context, a *core.Agent) error {
		return a.FireEvent(ctx, event)
	})
}

// EnableAll enables or disables every agent.
func (c *Crew) EnableAll(ctx context.Context, on bool) error {
	return c.each(ctx, func(ctx context.Context, a *core.Agent) error {
		return a.Enable(ctx, on)
	})
}

// Copy returns a snapshot of every member's status.
func (c *Crew) Copy() map[string]*Status {
	acc := make(map[string]*Status)
	for _, id := range c.Ids() {
		if m, have := c.member(id); have {
			acc[id] = m.Status()
		}
	}
	return acc
}
