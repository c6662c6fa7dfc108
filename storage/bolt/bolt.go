// Package bolt stores descriptors and blackboards in a BoltDB file.
//
// A Storage is a core.Resolver.
package bolt

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/Comcast/brains/core"
	"github.com/Comcast/brains/util"

	bolt "go.etcd.io/bbolt"
)

var (
	treesBucket       = []byte("trees")
	fsmsBucket        = []byte("fsms")
	blackboardsBucket = []byte("blackboards")

	NotOpen = errors.New("storage not open")
)

type Storage struct {
	Debug bool

	// Interpreters are used to compile trees.  Nil means
	// core.DefaultInterpreters.
	Interpreters map[string]core.Interpreter

	filename string
	db       *bolt.DB

	sync.Mutex
	trees map[string]*core.TreeDesc
	fsms  map[string]*core.FsmDesc
}

func NewStorage(filename string) (*Storage, error) {
	return &Storage{
		filename: filename,
		trees:    make(map[string]*core.TreeDesc),
		fsms:     make(map[string]*core.FsmDesc),
	}, nil
}

func (s *Storage) Open() error {
	opts := &bolt.Options{
		Timeout: time.Second,
	}

	db, err := bolt.Open(s.filename, 0644, opts)
	if err != nil {
		return err
	}
	s.db = db

	return db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{treesBucket, fsmsBucket, blackboardsBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Storage) Close() error {
	if s.db == nil {
		return NotOpen
	}
	return s.db.Close()
}

func (s *Storage) logf(msg string, args ...interface{}) {
	if s.Debug {
		util.Logger("bolt").Debug(msg, args...)
	}
}

func (s *Storage) put(bucket []byte, key string, x interface{}) error {
	if s.db == nil {
		return NotOpen
	}
	js, err := json.Marshal(x)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).Put([]byte(key), js)
	})
}

// get returns false if there's nothing at the key.
func (s *Storage) get(bucket []byte, key string, x interface{}) (bool, error) {
	if s.db == nil {
		return false, NotOpen
	}
	var found bool
	err := s.db.View(func(tx *bolt.Tx) error {
		bs := tx.Bucket(bucket).Get([]byte(key))
		if bs == nil {
			return nil
		}
		found = true
		return json.Unmarshal(bs, x)
	})
	return found, err
}

func (s *Storage) keys(bucket []byte) ([]string, error) {
	if s.db == nil {
		return nil, NotOpen
	}
	var acc []string
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucket).Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			acc = append(acc, string(k))
		}
		return nil
	})
	return acc, err
}

// PutTree stores the tree under its name.  The tree is compiled first
// so that bad trees are never stored.
func (s *Storage) PutTree(ctx context.Context, t *core.TreeDesc) error {
	s.logf("PutTree", "name", t.Name)
	if err := t.Compile(ctx, s.Interpreters, false); err != nil {
		return err
	}
	if err := s.put(treesBucket, t.Name, t); err != nil {
		return err
	}
	s.Lock()
	delete(s.trees, t.Name)
	s.Unlock()
	return nil
}

// PutFsm stores the state machine under its name.
func (s *Storage) PutFsm(ctx context.Context, f *core.FsmDesc) error {
	s.logf("PutFsm", "name", f.Name)
	if err := f.Compile(); err != nil {
		return err
	}
	if err := s.put(fsmsBucket, f.Name, f); err != nil {
		return err
	}
	s.Lock()
	delete(s.fsms, f.Name)
	s.Unlock()
	return nil
}

func (s *Storage) ResolveTree(ctx context.Context, name string) (*core.TreeDesc, error) {
	s.Lock()
	defer s.Unlock()

	if t, have := s.trees[name]; have {
		return t, nil
	}

	var t core.TreeDesc
	found, err := s.get(treesBucket, name, &t)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, &core.NotFound{What: "tree", Name: name}
	}
	if err = t.Compile(ctx, s.Interpreters, false); err != nil {
		return nil, err
	}
	s.trees[name] = &t
	s.logf("ResolveTree", "name", name)

	return &t, nil
}

func (s *Storage) ResolveFsm(ctx context.Context, name string) (*core.FsmDesc, error) {
	s.Lock()
	defer s.Unlock()

	if f, have := s.fsms[name]; have {
		return f, nil
	}

	var f core.FsmDesc
	found, err := s.get(fsmsBucket, name, &f)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, &core.NotFound{What: "fsm", Name: name}
	}
	if err = f.Compile(); err != nil {
		return nil, err
	}
	s.fsms[name] = &f
	s.logf("ResolveFsm", "name", name)

	return &f, nil
}

// Trees lists the names of the stored trees.
func (s *Storage) Trees(ctx context.Context) ([]string, error) {
	return s.keys(treesBucket)
}

// Fsms lists the names of the stored state machines.
func (s *Storage) Fsms(ctx context.Context) ([]string, error) {
	return s.keys(fsmsBucket)
}

// WriteBlackboard saves a snapshot of the agent's blackboard.
//
// Values must be JSON-serializable.
func (s *Storage) WriteBlackboard(ctx context.Context, a *core.Agent) error {
	s.logf("WriteBlackboard", "agent", a.Id)
	return s.put(blackboardsBucket, a.Id, a.Blackboard())
}

// ReadBlackboard loads a snapshot into the agent's blackboard.
// Returns false if there wasn't one.
func (s *Storage) ReadBlackboard(ctx context.Context, a *core.Agent) (bool, error) {
	s.logf("ReadBlackboard", "agent", a.Id)
	m := make(map[string]interface{})
	found, err := s.get(blackboardsBucket, a.Id, &m)
	if err != nil || !found {
		return found, err
	}
	bb := a.Blackboard()
	for k, v := range m {
		bb[k] = v
	}
	return true, nil
}
