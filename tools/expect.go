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

package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/Comcast/brains/core"
	"github.com/Comcast/brains/util"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/jsccast/yaml"
)

// Step is a batch of events and what should be true afterwards.
type Step struct {
	// Doc is an opaque documentation string.
	Doc string `json:"doc,omitempty" yaml:"doc,omitempty"`

	// Events are fired in order.
	Events []string `json:"events,omitempty" yaml:"events,omitempty"`

	// WaitAfter is the time to wait after firing the events.
	WaitAfter time.Duration `json:"waitAfter,omitempty" yaml:"waitAfter,omitempty"`

	// Blackboard entries must all be present (with equal values)
	// in the agent's blackboard.  Other entries are ignored.
	Blackboard map[string]interface{} `json:"blackboard,omitempty" yaml:"blackboard,omitempty"`

	// States, if given, must be the names of the current states
	// of the state machine stack, bottom first.
	States []string `json:"states,omitempty" yaml:"states,omitempty"`

	// Guard is an optional expression that's evaluated with the
	// blackboard as its variables.  It must return true.
	Guard *core.Expr `json:"guard,omitempty" yaml:"guard,omitempty"`
}

// Session is an agent's initial setup and a sequence of Steps.
type Session struct {
	// Doc is an opaque documentation string.
	Doc string `json:"doc,omitempty" yaml:"doc,omitempty"`

	// Fsm is the agent's top-level state machine.
	Fsm string `json:"fsm" yaml:"fsm"`

	// Blackboard is the agent's initial blackboard.
	Blackboard map[string]interface{} `json:"blackboard,omitempty" yaml:"blackboard,omitempty"`

	// Properties, if given, become the agent's properties.
	Properties map[string]interface{} `json:"properties,omitempty" yaml:"properties,omitempty"`

	// Seed for the agent's random source.  Zero means 1.
	Seed int64 `json:"seed,omitempty" yaml:"seed,omitempty"`

	Steps []Step `json:"steps" yaml:"steps"`

	// Interpreters are used (if necessary) to compile Guards.
	Interpreters map[string]core.Interpreter `json:"-" yaml:"-"`

	// Debugger, if not nil, is given to the agent.
	Debugger core.Debugger `json:"-" yaml:"-"`

	Verbose bool `json:"verbose,omitempty" yaml:"verbose,omitempty"`
}

// ReadSession reads a YAML (or JSON) session.
func ReadSession(filename string) (*Session, error) {
	bs, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	var s Session
	if err = yaml.Unmarshal(bs, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Failure reports a Step that didn't go as expected.
type Failure struct {
	Step    int
	Doc     string
	Problem string
}

func (f *Failure) Error() string {
	if f.Doc == "" {
		return fmt.Sprintf("step %d: %s", f.Step, f.Problem)
	}
	return fmt.Sprintf("step %d (%s): %s", f.Step, f.Doc, f.Problem)
}

// Run makes an agent, enables it, and runs the Steps.  Returns the
// agent (for inspection) and a *Failure if a Step's expectations
// weren't met.
func (s *Session) Run(ctx context.Context, r core.Resolver, d core.Dispatcher) (*core.Agent, error) {
	log := util.Logger("expect")

	a := core.NewAgent("", r, d)
	a.Debugger = s.Debugger
	if s.Properties != nil {
		a.Props = core.NewPropertyMap(s.Properties)
	}
	seed := s.Seed
	if seed == 0 {
		seed = 1
	}
	a.Rand = rand.New(rand.NewSource(seed))
	for k, v := range s.Blackboard {
		a.Blackboard()[k] = v
	}

	a.SetFsm(s.Fsm)
	if err := a.Enable(ctx, true); err != nil {
		return a, err
	}

	for i, step := range s.Steps {
		if s.Verbose {
			log.Info("step", "n", i, "doc", step.Doc)
		}
		for _, e := range step.Events {
			if err := a.FireEvent(ctx, e); err != nil {
				return a, err
			}
		}
		if 0 < step.WaitAfter {
			select {
			case <-ctx.Done():
				return a, ctx.Err()
			case <-time.After(step.WaitAfter):
			}
		}
		if problem, err := s.check(ctx, a, &step); err != nil {
			return a, err
		} else if problem != "" {
			return a, &Failure{Step: i, Doc: step.Doc, Problem: problem}
		}
	}

	return a, nil
}

// check returns a description of the first unmet expectation (if
// any).
func (s *Session) check(ctx context.Context, a *core.Agent, step *Step) (string, error) {
	if 0 < len(step.Blackboard) {
		got := make(map[string]interface{}, len(step.Blackboard))
		for k := range step.Blackboard {
			if v, have := a.Blackboard()[k]; have {
				got[k] = v
			}
		}
		want, err := canonical(step.Blackboard)
		if err != nil {
			return "", err
		}
		have, err := canonical(got)
		if err != nil {
			return "", err
		}
		if diff := cmp.Diff(want, have); diff != "" {
			return "blackboard (-want +got):\n" + diff, nil
		}
	}

	if step.States != nil {
		var states []string
		for _, f := range a.Fsms() {
			states = append(states, f.StateName)
		}
		if diff := cmp.Diff(step.States, states, cmpopts.EquateEmpty()); diff != "" {
			return "states (-want +got):\n" + diff, nil
		}
	}

	if step.Guard != nil {
		if !step.Guard.Compiled() {
			if err := step.Guard.Compile(ctx, s.Interpreters, false); err != nil {
				return "", err
			}
		}
		vars := make(core.Bindings, len(a.Blackboard()))
		for k, v := range a.Blackboard() {
			vars[k] = v
		}
		exe, err := step.Guard.Eval(ctx, vars)
		if err != nil {
			return "", err
		}
		if exe.Value != true {
			return fmt.Sprintf("guard returned %#v", exe.Value), nil
		}
	}

	return "", nil
}

// canonical round-trips x through JSON so that, for example, ints
// and float64s compare equal.
func canonical(x interface{}) (interface{}, error) {
	js, err := json.Marshal(x)
	if err != nil {
		return nil, err
	}
	var y interface{}
	if err = json.Unmarshal(js, &y); err != nil {
		return nil, err
	}
	return y, nil
}
