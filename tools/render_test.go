package tools

import (
	"bytes"
	"strings"
	"testing"

	"github.com/Comcast/brains/core"
)

func contains(t *testing.T, got string, wants ...string) {
	t.Helper()
	for _, want := range wants {
		if !strings.Contains(got, want) {
			t.Fatalf("missing %q in\n%s", want, got)
		}
	}
}

func TestTreeDot(t *testing.T) {
	_, tree, _ := library(t)
	var buf bytes.Buffer
	if err := TreeDot(tree, &buf); err != nil {
		t.Fatal(err)
	}
	contains(t, buf.String(),
		"digraph G {",
		"<B>root patrol</B>",
		"n1 -> n2",
		"n2 -> n3 [ label = <1> ]",
		"n5 -> n6 [ label = <if> ]",
		"n5 -> n8 [ label = <else> ]",
		"n9 -> n11 [ label = <1> ]",
		"event: turn",
		"tree: chase",
		"set_blackboard(walking, true)",
		"(native)",
	)

	if err := TreeDot(&core.TreeDesc{Name: "empty"}, &buf); err == nil {
		t.Fatal("expected an error")
	}
}

func TestFsmDot(t *testing.T) {
	_, _, fsm := library(t)
	var buf bytes.Buffer
	if err := FsmDot(fsm, &buf, 1); err != nil {
		t.Fatal(err)
	}
	contains(t, buf.String(),
		"s0 -> s1 [ label = <seen> ]",
		"s1 -> s0 [ label = <lost-sight> ]",
		`s1 [style="rounded,filled", color="red"`,
		`s0 [style="rounded,filled,bold"`,
		"tree chase",
		"log(gave up)",
	)
}

func TestTreeMermaid(t *testing.T) {
	_, tree, _ := library(t)
	var buf bytes.Buffer
	if err := TreeMermaid(tree, &buf, nil); err != nil {
		t.Fatal(err)
	}
	contains(t, buf.String(),
		"graph TB",
		`n1("root patrol")`,
		`n4["wait<br/>event: turn"]`,
		"style n4 fill:#bcf2db",
		`n5 -- "if" --> n6`,
		"n1 --> n2",
	)

	buf.Reset()
	if err := TreeMermaid(tree, &buf, &MermaidOpts{}); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "event: turn") || strings.Contains(buf.String(), "style") {
		t.Fatal(buf.String())
	}
}

func TestFsmMermaid(t *testing.T) {
	_, _, fsm := library(t)
	var buf bytes.Buffer
	if err := FsmMermaid(fsm, &buf, nil, 0); err != nil {
		t.Fatal(err)
	}
	contains(t, buf.String(),
		`s0(["patrolling`,
		`s2("lost")`,
		"style s0 fill:#f98b8b",
		`s0 -- "seen" --> s1`,
	)
}

func TestRenderPage(t *testing.T) {
	_, tree, fsm := library(t)
	var buf bytes.Buffer
	err := RenderPage("guard", []*core.TreeDesc{tree}, []*core.FsmDesc{fsm}, &buf, []string{"brains.css"})
	if err != nil {
		t.Fatal(err)
	}
	contains(t, buf.String(),
		"<h1>guard</h1>",
		`<link href="brains.css" rel="stylesheet">`,
		"<em>around</em>",
		"<em>things</em>",
		`<a href="#tree-chase"><code>tree: chase</code></a>`,
		`<a href="#fsm-guard-1"><code>chasing</code></a>`,
		"var brains = {",
	)
}
