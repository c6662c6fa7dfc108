package main

import (
	"context"
	"encoding/json"
	"io"
	"math/rand"

	"github.com/Comcast/brains/core"
	"github.com/Comcast/brains/files"
	"github.com/Comcast/brains/interpreters/noop"
)

func newRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

func writeJSON(w io.Writer, x interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(x)
}

// readTree reads a tree from a file if the arg has an extension and
// otherwise resolves it by name.
//
// Trees read from files are compiled with noop interpreters, which is
// all rendering needs.
func readTree(ctx context.Context, src core.Resolver, arg string) (*core.TreeDesc, error) {
	if !hasExt(arg) {
		return src.ResolveTree(ctx, arg)
	}
	t, err := files.ReadTree(arg)
	if err != nil {
		return nil, err
	}
	if err = t.Compile(ctx, noop.NewInterpreters().For(t), false); err != nil {
		return nil, err
	}
	return t, nil
}

// readFsm is readTree for state machines.
func readFsm(ctx context.Context, src core.Resolver, arg string) (*core.FsmDesc, error) {
	if !hasExt(arg) {
		return src.ResolveFsm(ctx, arg)
	}
	f, err := files.ReadFsm(arg)
	if err != nil {
		return nil, err
	}
	return f, f.Compile()
}

func hasExt(arg string) bool {
	for _, ext := range files.Extensions {
		if len(ext) < len(arg) && arg[len(arg)-len(ext):] == ext {
			return true
		}
	}
	return false
}
