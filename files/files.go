// Package files reads tree and state machine descriptors from YAML
// or JSON files.
//
// A Dir is a core.Resolver over a directory laid out like
//
//	trees/patrol.yaml
//	trees/chase.json
//	fsms/guard.yaml
//
// Descriptors are loaded lazily, compiled, and cached.
package files

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Comcast/brains/core"

	"github.com/jsccast/yaml"
)

// Extensions are tried in this order.
var Extensions = []string{".yaml", ".yml", ".json"}

// Parse decodes JSON (if the data starts with '{') or YAML into x.
func Parse(bs []byte, x interface{}) error {
	bs = bytes.TrimSpace(bs)
	if len(bs) == 0 {
		return errors.New("empty source")
	}
	if bs[0] == '{' {
		return json.Unmarshal(bs, x)
	}
	return yaml.Unmarshal(bs, x)
}

// ParseTree decodes a tree.  It doesn't compile it.
func ParseTree(bs []byte) (*core.TreeDesc, error) {
	var t core.TreeDesc
	if err := Parse(bs, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// ParseFsm decodes a state machine.  It doesn't compile it.
func ParseFsm(bs []byte) (*core.FsmDesc, error) {
	var f core.FsmDesc
	if err := Parse(bs, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// nameOf returns the file name without its extension.
func nameOf(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ReadTree reads a tree from a file.  If the tree doesn't have a
// name, it gets the file's name (without the extension).
func ReadTree(filename string) (*core.TreeDesc, error) {
	bs, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	t, err := ParseTree(bs)
	if err != nil {
		return nil, err
	}
	if t.Name == "" {
		t.Name = nameOf(filename)
	}
	return t, nil
}

// ReadFsm reads a state machine from a file.  If the state machine
// doesn't have a name, it gets the file's name.
func ReadFsm(filename string) (*core.FsmDesc, error) {
	bs, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	f, err := ParseFsm(bs)
	if err != nil {
		return nil, err
	}
	if f.Name == "" {
		f.Name = nameOf(filename)
	}
	return f, nil
}

// Dir is a core.Resolver backed by a directory.
type Dir struct {
	sync.Mutex

	Root string

	// Interpreters are used to compile trees.  Nil means
	// core.DefaultInterpreters.
	Interpreters map[string]core.Interpreter

	trees map[string]*core.TreeDesc
	fsms  map[string]*core.FsmDesc
}

func NewDir(root string) *Dir {
	return &Dir{
		Root:  root,
		trees: make(map[string]*core.TreeDesc),
		fsms:  make(map[string]*core.FsmDesc),
	}
}

// find returns the first existing file for the name in the given
// subdirectory.
func (d *Dir) find(sub, name string) (string, bool) {
	if strings.ContainsAny(name, `/\`) || name == ".." {
		return "", false
	}
	for _, ext := range Extensions {
		filename := filepath.Join(d.Root, sub, name+ext)
		if _, err := os.Stat(filename); err == nil {
			return filename, true
		}
	}
	return "", false
}

func (d *Dir) ResolveTree(ctx context.Context, name string) (*core.TreeDesc, error) {
	d.Lock()
	defer d.Unlock()

	if t, have := d.trees[name]; have {
		return t, nil
	}

	filename, have := d.find("trees", name)
	if !have {
		return nil, &core.NotFound{What: "tree", Name: name}
	}
	t, err := ReadTree(filename)
	if err != nil {
		return nil, err
	}
	t.Name = name
	if err = t.Compile(ctx, d.Interpreters, false); err != nil {
		return nil, err
	}
	d.trees[name] = t

	return t, nil
}

func (d *Dir) ResolveFsm(ctx context.Context, name string) (*core.FsmDesc, error) {
	d.Lock()
	defer d.Unlock()

	if f, have := d.fsms[name]; have {
		return f, nil
	}

	filename, have := d.find("fsms", name)
	if !have {
		return nil, &core.NotFound{What: "fsm", Name: name}
	}
	f, err := ReadFsm(filename)
	if err != nil {
		return nil, err
	}
	f.Name = name
	if err = f.Compile(); err != nil {
		return nil, err
	}
	d.fsms[name] = f

	return f, nil
}

// Names lists the tree and state machine names in the directory.
func (d *Dir) Names() (trees []string, fsms []string, err error) {
	list := func(sub string) ([]string, error) {
		entries, err := os.ReadDir(filepath.Join(d.Root, sub))
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, nil
			}
			return nil, err
		}
		seen := make(map[string]bool)
		var acc []string
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			ext := filepath.Ext(e.Name())
			for _, x := range Extensions {
				if ext == x {
					name := nameOf(e.Name())
					if !seen[name] {
						seen[name] = true
						acc = append(acc, name)
					}
				}
			}
		}
		return acc, nil
	}

	if trees, err = list("trees"); err != nil {
		return
	}
	fsms, err = list("fsms")
	return
}
