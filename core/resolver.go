package core

import (
	"context"
	"sync"
)

// Resolver finds descriptors by name.
//
// Descriptors returned by a Resolver should be Compiled.  An agent
// will refuse to use one that isn't.
type Resolver interface {
	ResolveTree(ctx context.Context, name string) (*TreeDesc, error)
	ResolveFsm(ctx context.Context, name string) (*FsmDesc, error)
}

// Library is an in-memory Resolver.
type Library struct {
	sync.RWMutex

	// Interpreters are used to compile trees.  Nil means
	// DefaultInterpreters.
	Interpreters map[string]Interpreter

	trees map[string]*TreeDesc
	fsms  map[string]*FsmDesc
}

func NewLibrary() *Library {
	return &Library{
		trees: make(map[string]*TreeDesc),
		fsms:  make(map[string]*FsmDesc),
	}
}

// AddTree compiles the tree and adds it, replacing any tree with the
// same name.
func (l *Library) AddTree(ctx context.Context, t *TreeDesc) error {
	if err := t.Compile(ctx, l.Interpreters, false); err != nil {
		return err
	}
	l.Lock()
	l.trees[t.Name] = t
	l.Unlock()
	return nil
}

// AddFsm compiles the state machine and adds it, replacing any state
// machine with the same name.
func (l *Library) AddFsm(ctx context.Context, f *FsmDesc) error {
	if err := f.Compile(); err != nil {
		return err
	}
	l.Lock()
	l.fsms[f.Name] = f
	l.Unlock()
	return nil
}

func (l *Library) ResolveTree(ctx context.Context, name string) (*TreeDesc, error) {
	l.RLock()
	t, have := l.trees[name]
	l.RUnlock()
	if !have {
		return nil, &NotFound{"tree", name}
	}
	return t, nil
}

func (l *Library) ResolveFsm(ctx context.Context, name string) (*FsmDesc, error) {
	l.RLock()
	f, have := l.fsms[name]
	l.RUnlock()
	if !have {
		return nil, &NotFound{"fsm", name}
	}
	return f, nil
}

func (a *Agent) resolveTree(ctx context.Context, name string) (*TreeDesc, error) {
	if a.resolver == nil {
		return nil, &NotFound{"tree", name}
	}
	t, err := a.resolver.ResolveTree(ctx, name)
	if err != nil {
		return nil, err
	}
	if !t.Compiled() {
		return nil, &NotCompiled{"tree", name}
	}
	return t, nil
}

func (a *Agent) resolveFsm(ctx context.Context, name string) (*FsmDesc, error) {
	if a.resolver == nil {
		return nil, &NotFound{"fsm", name}
	}
	f, err := a.resolver.ResolveFsm(ctx, name)
	if err != nil {
		return nil, err
	}
	if !f.Compiled() {
		return nil, &NotCompiled{"fsm", name}
	}
	return f, nil
}
