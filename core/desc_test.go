package core

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

func TestTreeCompileWrapsRoot(t *testing.T) {
	tree := &TreeDesc{Name: "t", Root: wait("x")}
	if err := tree.Compile(context.Background(), nil, false); err != nil {
		t.Fatal(err)
	}
	if tree.Root.Category != Root {
		t.Fatal(tree.Root.Category)
	}
	if !tree.Compiled() {
		t.Fatal("not compiled")
	}

	// Compiling again doesn't wrap again.
	if err := tree.Compile(context.Background(), nil, false); err != nil {
		t.Fatal(err)
	}
	if tree.Root.Children[0].Category != Wait {
		t.Fatal(tree.Root.Children[0].Category)
	}
}

func TestTreeCompileBad(t *testing.T) {
	for name, n := range map[string]*NodeDesc{
		"if":       {Category: IfElse, Children: []*NodeDesc{cond(true), cond(true)}},
		"until":    {Category: Until, Children: []*NodeDesc{cond(true)}},
		"not":      {Category: Not},
		"seq":      {Category: Sequence},
		"call":     {Category: Call},
		"wait":     {Category: Wait},
		"compute":  {Category: Compute},
		"weights":  {Category: Probability, Weights: []float64{1}, Children: []*NodeDesc{cond(true), cond(true)}},
		"order":    {Category: Probability, Weights: []float64{2, 1}, Children: []*NodeDesc{cond(true), cond(true)}},
		"zero":     {Category: Probability, Weights: []float64{0}, Children: []*NodeDesc{cond(true)}},
		"leaf":     {Category: Action, Children: []*NodeDesc{cond(true)}},
		"category": {Category: "tacos"},
	} {
		tree := &TreeDesc{Name: name, Root: seq(n)}
		err := tree.Compile(context.Background(), nil, false)
		var bad *BadTree
		if !errors.As(err, &bad) {
			t.Fatalf("%s: %#v", name, err)
		}
		if tree.Compiled() {
			t.Fatalf("%s: compiled", name)
		}
	}
}

func TestTreeCompileInterpreter(t *testing.T) {
	tree := &TreeDesc{
		Name: "t",
		Root: &NodeDesc{
			Category: Condition,
			Expr:     &Expr{Interpreter: "nope", Source: "true"},
		},
	}
	err := tree.Compile(context.Background(), map[string]Interpreter{}, false)
	if err == nil {
		t.Fatal("expected an error")
	}
}

func TestUncompiledTree(t *testing.T) {
	ctx := context.Background()
	lib := NewLibrary()
	lib.trees["raw"] = &TreeDesc{Name: "raw", Root: wait("x")}
	if err := lib.AddFsm(ctx, treeFsm("main", "raw")); err != nil {
		t.Fatal(err)
	}
	a := NewAgent("a", lib, nil)
	a.SetFsm("main")
	err := a.Enable(ctx, true)
	var nc *NotCompiled
	if !errors.As(err, &nc) {
		t.Fatalf("%#v", err)
	}
}

func TestTreeJSON(t *testing.T) {
	js := `{
  "name": "patrol",
  "root": {
    "category": "sequence",
    "debug": "patrol/1",
    "children": [
      {"category": "action", "enter": {"method": "log", "args": [{"value": "hi"}]}},
      {"category": "probability", "weights": [1, 2],
       "children": [{"category": "wait", "event": "a"}, {"category": "wait", "event": "b"}]},
      {"category": "call", "tree": "other"}
    ]
  }
}`
	var tree TreeDesc
	if err := json.Unmarshal([]byte(js), &tree); err != nil {
		t.Fatal(err)
	}
	if err := tree.Compile(context.Background(), nil, false); err != nil {
		t.Fatal(err)
	}

	var cats []Category
	tree.Root.Walk(func(n *NodeDesc) error {
		cats = append(cats, n.Category)
		return nil
	})
	want := []Category{Root, Sequence, Action, Probability, Wait, Wait, Call}
	if len(cats) != len(want) {
		t.Fatal(cats)
	}
	for i, c := range want {
		if cats[i] != c {
			t.Fatal(cats)
		}
	}
}
