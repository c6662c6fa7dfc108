package timers

import (
	"context"
	"testing"
	"time"

	"github.com/Comcast/brains/core"
	"github.com/Comcast/brains/crew"
)

func collector() (*Timers, chan *Entry) {
	fired := make(chan *Entry, 10)
	ts := NewTimers(func(ctx context.Context, e *Entry) {
		fired <- e
	})
	return ts, fired
}

func TestTimersAdd(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ts, fired := collector()
	id, err := ts.Add(ctx, "", "a1", "alarm", 10*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	if id == "" {
		t.Fatal("no id")
	}
	if ps := ts.Pending(); len(ps) != 1 || ps[0].Event != "alarm" {
		t.Fatalf("%#v", ps)
	}

	select {
	case e := <-fired:
		if e.Id != id || e.Agent != "a1" || e.Event != "alarm" {
			t.Fatalf("%#v", e)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timer didn't fire")
	}

	// The entry is removed after it fires.
	deadline := time.Now().Add(time.Second)
	for len(ts.Pending()) != 0 {
		if time.Now().After(deadline) {
			t.Fatal("entry not removed")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestTimersCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ts, fired := collector()
	if _, err := ts.Add(ctx, "t1", "a1", "alarm", 50*time.Millisecond); err != nil {
		t.Fatal(err)
	}
	if err := ts.Cancel(ctx, "t1"); err != nil {
		t.Fatal(err)
	}
	if err := ts.Cancel(ctx, "t1"); err == nil {
		t.Fatal("expected an error")
	}
	if n := len(ts.Pending()); n != 0 {
		t.Fatal(n)
	}

	select {
	case e := <-fired:
		t.Fatalf("cancelled timer fired: %#v", e)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestTimersReplace(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ts, fired := collector()
	if _, err := ts.Add(ctx, "t1", "a1", "first", time.Hour); err != nil {
		t.Fatal(err)
	}
	if _, err := ts.Add(ctx, "t1", "a1", "second", 10*time.Millisecond); err != nil {
		t.Fatal(err)
	}
	if ps := ts.Pending(); len(ps) != 1 || ps[0].Event != "second" {
		t.Fatalf("%#v", ps)
	}
	select {
	case e := <-fired:
		if e.Event != "second" {
			t.Fatal(e.Event)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timer didn't fire")
	}
}

func TestTimersCron(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ts, fired := collector()
	if _, err := ts.AddCron(ctx, "tick", "", "tick", "not a cron"); err == nil {
		t.Fatal("expected an error")
	}

	// Every second.
	id, err := ts.AddCron(ctx, "tick", "", "tick", "* * * * * * *")
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 2; i++ {
		select {
		case e := <-fired:
			if e.Event != "tick" {
				t.Fatal(e.Event)
			}
		case <-time.After(3 * time.Second):
			t.Fatalf("tick %d didn't fire", i)
		}
	}
	if ps := ts.Pending(); len(ps) != 1 || ps[0].Cron == "" {
		t.Fatalf("%#v", ps)
	}
	if err = ts.Cancel(ctx, id); err != nil {
		t.Fatal(err)
	}
}

func TestCrewEmitter(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	lib := core.NewLibrary()
	err := lib.AddFsm(ctx, &core.FsmDesc{
		Name:        "sleeper",
		States:      []*core.StateDesc{{Name: "asleep"}, {Name: "awake"}},
		Events:      []string{"alarm"},
		Transitions: []core.Transition{{From: 0, Event: "alarm", To: 1}},
	})
	if err != nil {
		t.Fatal(err)
	}

	c := crew.NewCrew("house")
	a := core.NewAgent("sleepy", lib, core.Builtins())
	a.SetFsm("sleeper")
	if err = c.Add(a); err != nil {
		t.Fatal(err)
	}
	if err = c.EnableAll(ctx, true); err != nil {
		t.Fatal(err)
	}

	emit := CrewEmitter(c)
	done := make(chan bool, 1)
	ts := NewTimers(func(ctx context.Context, e *Entry) {
		emit(ctx, e)
		done <- true
	})
	if _, err = ts.Add(ctx, "", "sleepy", "alarm", 10*time.Millisecond); err != nil {
		t.Fatal(err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timer didn't fire")
	}
	if s := c.Copy()["sleepy"].Fsms[0].StateName; s != "awake" {
		t.Fatal(s)
	}
}
