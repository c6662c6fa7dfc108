package core

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func twoStates() *FsmDesc {
	return &FsmDesc{
		Name: "two",
		States: []*StateDesc{
			{
				Name:  "idle",
				Enter: []StateAction{{Kind: TreeAction, Name: "idle"}},
				Leave: []StateAction{{Kind: CallAction, Name: "mark", Args: []Param{Const("-idle")}}},
			},
			{
				Name:  "busy",
				Enter: []StateAction{{Kind: CallAction, Name: "mark", Args: []Param{Const("+busy")}}, {Kind: TreeAction, Name: "busy"}},
			},
		},
		Events: []string{"go", "stop"},
		Transitions: []Transition{
			{From: 0, Event: "go", To: 1},
			{From: 1, Event: "stop", To: 0},
		},
	}
}

func newFsmFixture(t *testing.T, fsms ...*FsmDesc) *fixture {
	f := newFixture(t, seq(wait("goon")),
		&TreeDesc{Name: "idle", Root: seq(appendTrace("i"), actLeave("hold", "release", Const("held")))},
		&TreeDesc{Name: "busy", Root: seq(appendTrace("b"), wait("goon"))})
	for _, desc := range fsms {
		if err := f.lib.AddFsm(f.ctx, desc); err != nil {
			t.Fatal(err)
		}
	}
	f.a.SetFsm(fsms[0].Name)
	return f
}

func TestFsmTransition(t *testing.T) {
	f := newFsmFixture(t, twoStates())
	f.enable()

	want := []FsmStatus{{Name: "two", State: 0, StateName: "idle"}}
	if diff := cmp.Diff(want, f.a.Fsms()); diff != "" {
		t.Fatal(diff)
	}
	if _, is := f.bb("held").(*Node); !is {
		t.Fatalf("held: %#v", f.bb("held"))
	}

	f.fire("go")

	want = []FsmStatus{{Name: "two", State: 1, StateName: "busy"}}
	if diff := cmp.Diff(want, f.a.Fsms()); diff != "" {
		t.Fatal(diff)
	}
	// The idle tree was interrupted before the leave actions ran.
	if x := f.bb("held"); x != false {
		t.Fatalf("held: %#v", x)
	}
	if x := f.bb("marks"); x != "-idle+busy" {
		t.Fatalf("marks: %#v", x)
	}
	if x := f.bb("trace"); x != "ib" {
		t.Fatalf("trace: %#v", x)
	}

	f.fire("stop")
	if x := f.a.Fsms()[0].StateName; x != "idle" {
		t.Fatal(x)
	}
	if x := f.bb("trace"); x != "ibi" {
		t.Fatalf("trace: %#v", x)
	}
}

func TestFsmUnknownEvent(t *testing.T) {
	f := newFsmFixture(t, twoStates())
	var buf bytes.Buffer
	f.a.Logger = slog.New(slog.NewTextHandler(&buf, nil))
	f.enable()

	// Not an event at all.
	f.fire("tacos")
	// An event, but not for this state.
	f.fire("stop")

	if x := f.a.Fsms()[0].StateName; x != "idle" {
		t.Fatal(x)
	}
	if f.a.IsReady() {
		t.Fatal("ready")
	}

	logged := buf.String()
	for _, want := range []string{`msg="event with no receiver"`, "event=tacos", "event=stop"} {
		if !strings.Contains(logged, want) {
			t.Fatalf("no %s in %s", want, logged)
		}
	}
}

// A swallowed event ends the event pass, so the tree gets to move on
// before the next queued event.
func TestEventPassStopsAfterSwallow(t *testing.T) {
	f := newFixture(t, seq(
		act("trigger_event", Const("a")),
		act("trigger_event", Const("b")),
		wait("a"),
		wait("b"),
		appendTrace("done"),
		wait("goon")))
	f.enable()

	if x := f.bb("trace"); x != "done" {
		t.Fatalf("trace: %#v", x)
	}
}

// A transition doesn't end the event pass.  The next queued event
// reaches the machine before the new state's tree starts.
func TestEventPassDrainsAfterTransition(t *testing.T) {
	relay := &FsmDesc{
		Name: "relay",
		States: []*StateDesc{
			{Name: "start", Enter: []StateAction{{Kind: TreeAction, Name: "kick"}}},
			{Name: "mid", Enter: []StateAction{{Kind: TreeAction, Name: "mid"}}},
			{Name: "end", Enter: []StateAction{{Kind: TreeAction, Name: "end"}}},
		},
		Events: []string{"go", "stop"},
		Transitions: []Transition{
			{From: 0, Event: "go", To: 1},
			{From: 1, Event: "stop", To: 2},
		},
	}
	f := newFixture(t, seq(wait("goon")),
		&TreeDesc{Name: "kick", Root: seq(act("trigger_event", Const("go")), act("trigger_event", Const("stop")), wait("goon"))},
		&TreeDesc{Name: "mid", Root: seq(appendTrace("m"), wait("goon"))},
		&TreeDesc{Name: "end", Root: seq(appendTrace("e"), wait("goon"))})
	if err := f.lib.AddFsm(f.ctx, relay); err != nil {
		t.Fatal(err)
	}
	f.a.SetFsm("relay")
	f.enable()

	if x := f.a.Fsms()[0].StateName; x != "end" {
		t.Fatal(x)
	}
	if x := f.bb("trace"); x != "e" {
		t.Fatalf("trace: %#v", x)
	}
}

func TestFsmNested(t *testing.T) {
	outer := &FsmDesc{
		Name: "outer",
		States: []*StateDesc{
			{
				Name:  "a",
				Enter: []StateAction{{Kind: GraphAction, Name: "inner"}},
				Leave: []StateAction{{Kind: CallAction, Name: "mark", Args: []Param{Const("-a")}}},
			},
			{
				Name:  "b",
				Enter: []StateAction{{Kind: CallAction, Name: "mark", Args: []Param{Const("+b")}}},
			},
		},
		Events:      []string{"x"},
		Transitions: []Transition{{From: 0, Event: "x", To: 1}},
	}
	inner := &FsmDesc{
		Name: "inner",
		States: []*StateDesc{
			{
				Name:  "i0",
				Leave: []StateAction{{Kind: CallAction, Name: "mark", Args: []Param{Const("-i0")}}},
			},
			{
				Name:  "i1",
				Enter: []StateAction{{Kind: TreeAction, Name: "busy"}},
				Leave: []StateAction{{Kind: CallAction, Name: "mark", Args: []Param{Const("-i1")}}},
			},
		},
		Events:      []string{"y"},
		Transitions: []Transition{{From: 0, Event: "y", To: 1}},
	}

	f := newFsmFixture(t, outer, inner)
	f.enable()

	want := []FsmStatus{
		{Name: "outer", State: 0, StateName: "a"},
		{Name: "inner", State: 0, StateName: "i0"},
	}
	if diff := cmp.Diff(want, f.a.Fsms()); diff != "" {
		t.Fatal(diff)
	}

	f.fire("y")
	if x := f.a.Fsms()[1].StateName; x != "i1" {
		t.Fatal(x)
	}
	if x := f.bb("trace"); x != "b" {
		t.Fatalf("trace: %#v", x)
	}

	// The outer machine receives "x", so the inner one is popped
	// first.
	f.fire("x")
	want = []FsmStatus{{Name: "outer", State: 1, StateName: "b"}}
	if diff := cmp.Diff(want, f.a.Fsms()); diff != "" {
		t.Fatal(diff)
	}
	if x := f.bb("marks"); x != "-i0-i1-a+b" {
		t.Fatalf("marks: %#v", x)
	}
	if 0 < len(f.a.Fronts()) {
		t.Fatal("tree survived")
	}
}

func TestEnableDisable(t *testing.T) {
	f := newFsmFixture(t, twoStates())

	// Disabled agents ignore events.
	f.fire("go")
	if 0 < len(f.a.Fsms()) {
		t.Fatal("fsm before enable")
	}

	f.enable()
	if !f.a.Enabled() {
		t.Fatal("not enabled")
	}
	if err := f.a.Enable(f.ctx, false); err != nil {
		t.Fatal(err)
	}
	if 0 < len(f.a.Fsms()) || 0 < len(f.a.Fronts()) {
		t.Fatal("didn't unwind")
	}
	if x := f.bb("marks"); x != "-idle" {
		t.Fatalf("marks: %#v", x)
	}

	// Again.
	f.enable()
	if x := f.a.Fsms()[0].StateName; x != "idle" {
		t.Fatal(x)
	}
}

func TestNoFsm(t *testing.T) {
	a := NewAgent("", NewLibrary(), nil)
	if a.Id == "" {
		t.Fatal("no id")
	}
	if err := a.Enable(context.Background(), true); !errors.Is(err, ErrNoFsm) {
		t.Fatal(err)
	}
}

func TestPushTreeAction(t *testing.T) {
	f := newFixture(t, seq(appendTrace("m"), act("push_tree", Const("other")), appendTrace("never")),
		&TreeDesc{Name: "other", Root: seq(appendTrace("o"), wait("goon"))})
	f.enable()

	if x := f.bb("trace"); x != "mo" {
		t.Fatalf("trace: %#v", x)
	}
}

func TestTriggerEventAction(t *testing.T) {
	f := newFsmFixture(t, twoStates())
	if err := f.lib.AddTree(f.ctx, &TreeDesc{Name: "idle", Root: seq(act("trigger_event", Const("go")), wait("goon"))}); err != nil {
		t.Fatal(err)
	}
	f.enable()

	if x := f.a.Fsms()[0].StateName; x != "busy" {
		t.Fatal(x)
	}
}

func TestPushFsm(t *testing.T) {
	f := newFsmFixture(t, twoStates(), &FsmDesc{
		Name:   "extra",
		States: []*StateDesc{{Name: "only"}},
	})
	f.enable()

	if err := f.a.PushFsm(f.ctx, "extra"); err != nil {
		t.Fatal(err)
	}
	if n := len(f.a.Fsms()); n != 2 {
		t.Fatal(n)
	}

	// "go" passes through "extra", which gets popped.
	f.fire("go")
	if n := len(f.a.Fsms()); n != 1 {
		t.Fatal(n)
	}
}

func TestFsmCompile(t *testing.T) {
	for name, desc := range map[string]*FsmDesc{
		"empty":   {Name: "empty"},
		"initial": {Name: "initial", States: []*StateDesc{{Name: "s"}}, Initial: 1},
		"event": {
			Name:        "event",
			States:      []*StateDesc{{Name: "s"}},
			Transitions: []Transition{{From: 0, Event: "nope", To: 0}},
		},
		"range": {
			Name:        "range",
			States:      []*StateDesc{{Name: "s"}},
			Events:      []string{"e"},
			Transitions: []Transition{{From: 0, Event: "e", To: 3}},
		},
		"leave": {
			Name: "leave",
			States: []*StateDesc{{
				Name:  "s",
				Leave: []StateAction{{Kind: TreeAction, Name: "t"}},
			}},
		},
	} {
		err := desc.Compile()
		var bad *BadFsm
		if !errors.As(err, &bad) {
			t.Fatalf("%s: %#v", name, err)
		}
	}
}
