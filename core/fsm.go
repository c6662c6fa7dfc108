package core

import (
	"context"
)

// Fsm is a live state machine on an agent's stack.
type Fsm struct {
	desc  *FsmDesc
	agent *Agent

	// current is -1 while transitioning.
	current int
}

// FsmStatus describes one level of an agent's state machine stack.
type FsmStatus struct {
	Name      string `json:"name"`
	State     int    `json:"state"`
	StateName string `json:"stateName,omitempty"`
}

func (a *Agent) newFsm(ctx context.Context, name string) (*Fsm, error) {
	desc, err := a.resolveFsm(ctx, name)
	if err != nil {
		return nil, err
	}
	return &Fsm{
		desc:    desc,
		agent:   a,
		current: -1,
	}, nil
}

func (f *Fsm) Desc() *FsmDesc {
	return f.desc
}

// Current returns the index of the current state, which is -1 during
// a transition.
func (f *Fsm) Current() int {
	return f.current
}

// TryReceive returns the target state of the current state's
// transition on the given event, if there is one.
func (f *Fsm) TryReceive(event string) (int, bool) {
	if f.current < 0 {
		return -1, false
	}
	return f.desc.TryReceive(f.current, event)
}

func (f *Fsm) status() FsmStatus {
	s := FsmStatus{
		Name:  f.desc.Name,
		State: f.current,
	}
	if 0 <= f.current {
		s.StateName = f.desc.States[f.current].Name
	}
	return s
}

// pushSelf puts this machine on top of the agent's stack and enters
// the initial state.
func (f *Fsm) pushSelf(ctx context.Context) error {
	f.agent.fsms = append(f.agent.fsms, f)
	return f.enterState(ctx, f.desc.Initial)
}

// popSelf leaves the current state and removes this machine from the
// top of the agent's stack.
func (f *Fsm) popSelf(ctx context.Context) error {
	err := f.leaveState(ctx)
	a := f.agent
	if n := len(a.fsms); n == 0 || a.fsms[n-1] != f {
		violation("fsm %s popping while not on top", f.desc.Name)
	}
	a.fsms = a.fsms[:len(a.fsms)-1]
	return err
}

func (f *Fsm) transferState(ctx context.Context, to int) error {
	if err := f.leaveState(ctx); err != nil {
		return err
	}
	return f.enterState(ctx, to)
}

func (f *Fsm) enterState(ctx context.Context, i int) error {
	a := f.agent
	f.current = i
	state := f.desc.States[i]
	a.Logger.Debug("entering state", "agent", a.Id, "fsm", f.desc.Name, "state", state.Name)

	for _, act := range state.Enter {
		switch act.Kind {
		case GraphAction:
			if err := a.pushFsm(ctx, act.Name); err != nil {
				return err
			}
		case TreeAction:
			if err := a.pushTree(ctx, act.Name); err != nil {
				return err
			}
		case CallAction:
			if err := a.invoke(ctx, nil, &Invocation{act.Name, act.Args}); err != nil {
				return err
			}
		default:
			violation("fsm %s: unknown state action '%s'", f.desc.Name, act.Kind)
		}
	}
	return nil
}

// leaveState stops the running tree and then runs the current state's
// leave actions.
func (f *Fsm) leaveState(ctx context.Context) error {
	a := f.agent
	if err := a.StopTree(ctx); err != nil {
		return err
	}
	if f.current < 0 {
		return nil
	}
	state := f.desc.States[f.current]
	a.Logger.Debug("leaving state", "agent", a.Id, "fsm", f.desc.Name, "state", state.Name)

	for _, act := range state.Leave {
		if err := a.invoke(ctx, nil, &Invocation{act.Name, act.Args}); err != nil {
			return err
		}
	}
	f.current = -1
	return nil
}
