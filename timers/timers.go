/* Copyright 2019 Comcast Cable Communications Management, LLC
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

// Package timers delivers events to agents later.
//
// The engine itself has no notion of time.  A host that wants "fire
// 'alarm' at this agent in ten seconds" uses a Timers with an Emitter
// that knows how to reach the agent (see CrewEmitter).
package timers

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Comcast/brains/crew"
	"github.com/Comcast/brains/util"

	"github.com/google/uuid"
	"github.com/gorhill/cronexpr"
)

// Emitter delivers a timer's event.
type Emitter func(ctx context.Context, e *Entry)

// Entry represents a pending timer.
type Entry struct {
	Id string `json:"id"`

	// Agent is the target agent's id.  Empty means everybody.
	Agent string    `json:"agent,omitempty"`
	Event string    `json:"event"`
	At    time.Time `json:"at"`

	// Cron, if not empty, makes the timer recurring.
	Cron string `json:"cron,omitempty"`

	ctl    chan bool
	cron   *cronexpr.Expression
	timers *Timers
}

// Timers represents pending timers.
type Timers struct {
	Map     map[string]*Entry `json:"timers"`
	Emitter Emitter           `json:"-"`

	sync.Mutex
}

// NewTimers creates a Timers with the given function that the
// Entries will use to emit their events.
func NewTimers(emitter Emitter) *Timers {
	return &Timers{
		Map:     make(map[string]*Entry, 8),
		Emitter: emitter,
	}
}

// CrewEmitter returns an Emitter that fires the event at the entry's
// agent in the crew, or at the whole crew if the entry has no agent.
func CrewEmitter(c *crew.Crew) Emitter {
	return func(ctx context.Context, e *Entry) {
		var err error
		if e.Agent == "" {
			err = c.Broadcast(ctx, e.Event)
		} else {
			err = c.Fire(ctx, e.Agent, e.Event)
		}
		if err != nil {
			util.Logger("timers").Warn("emit failed", "timer", e.Id, "agent", e.Agent, "event", e.Event, "error", err)
		}
	}
}

func logf(msg string, args ...interface{}) {
	util.Logger("timers").Debug(msg, args...)
}

// add replaces any existing timer with the same id.
//
// Caller should hold the lock.
func (ts *Timers) add(ctx context.Context, e *Entry) {
	if _, have := ts.Map[e.Id]; have {
		ts.cancel(ctx, e.Id)
	}
	e.timers = ts
	e.ctl = make(chan bool)
	ts.Map[e.Id] = e

	go e.run(ctx)
}

// Add creates a new timer that will emit the given event later (if
// the timer isn't cancelled first).  An empty id gets a random one,
// which is returned.
func (ts *Timers) Add(ctx context.Context, id, agent, event string, d time.Duration) (string, error) {
	if id == "" {
		id = uuid.NewString()
	}
	logf("Timers.Add", "timer", id, "in", d)

	ts.Lock()
	ts.add(ctx, &Entry{
		Id:    id,
		Agent: agent,
		Event: event,
		At:    time.Now().UTC().Add(d),
	})
	ts.Unlock()

	return id, nil
}

// AddCron creates a recurring timer given a cron expression (see
// github.com/gorhill/cronexpr).
func (ts *Timers) AddCron(ctx context.Context, id, agent, event, spec string) (string, error) {
	x, err := cronexpr.Parse(spec)
	if err != nil {
		return "", err
	}
	at := x.Next(time.Now())
	if at.IsZero() {
		return "", fmt.Errorf("cron '%s' never fires", spec)
	}
	if id == "" {
		id = uuid.NewString()
	}
	logf("Timers.AddCron", "timer", id, "cron", spec)

	ts.Lock()
	ts.add(ctx, &Entry{
		Id:    id,
		Agent: agent,
		Event: event,
		At:    at.UTC(),
		Cron:  spec,
		cron:  x,
	})
	ts.Unlock()

	return id, nil
}

// run waits for the entry's time and emits its event, repeatedly for
// a cron entry, until the entry is cancelled or the context is done.
func (te *Entry) run(ctx context.Context) {
	logf("Entry run", "timer", te.Id)

	for {
		t := time.NewTimer(time.Until(te.At))
		select {
		case <-t.C:
			logf("firing", "timer", te.Id)
			te.timers.Emitter(ctx, te)
			if te.cron != nil {
				if next := te.cron.Next(time.Now()); !next.IsZero() {
					te.timers.Lock()
					te.At = next.UTC()
					te.timers.Unlock()
					continue
				}
			}
			te.timers.Lock()
			if te.timers.Map[te.Id] == te {
				delete(te.timers.Map, te.Id)
			}
			te.timers.Unlock()
			return
		case <-te.ctl:
			t.Stop()
			logf("canceled", "timer", te.Id)
			return
		case <-ctx.Done():
			t.Stop()
			return
		}
	}
}

func (ts *Timers) cancel(ctx context.Context, id string) error {
	logf("Timers.cancel", "timer", id)

	t, have := ts.Map[id]
	if !have {
		return fmt.Errorf("timer '%s' doesn't exist", id)
	}
	delete(ts.Map, id)

	close(t.ctl)

	return nil
}

// Cancel attempts to cancel the timer with the given id.
func (ts *Timers) Cancel(ctx context.Context, id string) error {
	ts.Lock()
	err := ts.cancel(ctx, id)
	ts.Unlock()
	return err
}

// Pending returns copies of the pending timers ordered by time.
func (ts *Timers) Pending() []Entry {
	ts.Lock()
	acc := make([]Entry, 0, len(ts.Map))
	for _, e := range ts.Map {
		acc = append(acc, Entry{
			Id:    e.Id,
			Agent: e.Agent,
			Event: e.Event,
			At:    e.At,
			Cron:  e.Cron,
		})
	}
	ts.Unlock()

	sort.Slice(acc, func(i, j int) bool {
		if acc[i].At.Equal(acc[j].At) {
			return acc[i].Id < acc[j].Id
		}
		return acc[i].At.Before(acc[j].At)
	})
	return acc
}
