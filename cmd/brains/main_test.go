package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		line string
		want *command
		bad  bool
	}{
		{line: "", want: nil},
		{line: "# comment", want: nil},
		{line: "wake", want: &command{event: "wake"}},
		{line: "@a1 wake", want: &command{agent: "a1", event: "wake"}},
		{line: "in 2s wake", want: &command{after: 2 * time.Second, event: "wake"}},
		{line: "in 1m @a1 wake", want: &command{after: time.Minute, agent: "a1", event: "wake"}},
		{line: "in wake", bad: true},
		{line: "in soon wake", bad: true},
		{line: "@a1", bad: true},
		{line: "wake up", bad: true},
	}
	for _, tc := range tests {
		got, err := parseCommand(tc.line)
		if tc.bad {
			if err == nil {
				t.Fatalf("%q: expected an error", tc.line)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%q: %v", tc.line, err)
		}
		if diff := cmp.Diff(tc.want, got, cmp.AllowUnexported(command{})); diff != "" {
			t.Fatalf("%q: %s", tc.line, diff)
		}
	}
}

func TestParseKV(t *testing.T) {
	got, err := parseKV([]string{"n=3", "name=homer", `xs=[1,"a"]`, "empty="})
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]interface{}{
		"n":     3.0,
		"name":  "homer",
		"xs":    []interface{}{1.0, "a"},
		"empty": "",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatal(diff)
	}
	if _, err = parseKV([]string{"novalue"}); err == nil {
		t.Fatal("expected an error")
	}
}

var sleeperYAML = `
states:
  - name: asleep
  - name: awake
    enter:
      - kind: call
        name: set_blackboard
        args:
          - value: awake
          - value: true
events: [wake]
transitions:
  - {from: 0, event: wake, to: 1}
`

func TestRun(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "fsms"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "fsms", "sleeper.yaml"), []byte(sleeperYAML), 0644); err != nil {
		t.Fatal(err)
	}

	var out, errs bytes.Buffer
	rootCmd.SetIn(strings.NewReader("# wake only a2\n@a2 wake\n"))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errs)
	rootCmd.SetArgs([]string{"--dir", dir, "run", "--fsm", "sleeper", "--agents", "a1,a2", "--bb", "n=1"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("%v: %s", err, errs.String())
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("%d lines: %s", len(lines), out.String())
	}

	var report struct {
		Line   string `json:"line"`
		Agents map[string]struct {
			Blackboard map[string]interface{} `json:"blackboard"`
			Fsms       []struct {
				StateName string `json:"stateName"`
			} `json:"fsms"`
		} `json:"agents"`
	}
	if err := json.Unmarshal([]byte(lines[1]), &report); err != nil {
		t.Fatal(err)
	}
	if report.Line != "@a2 wake" {
		t.Fatal(report.Line)
	}
	a1, a2 := report.Agents["a1"], report.Agents["a2"]
	if a1.Blackboard["awake"] != nil || a2.Blackboard["awake"] != true {
		t.Fatalf("%#v", report.Agents)
	}
	if a1.Blackboard["n"] != 1.0 {
		t.Fatalf("%#v", a1.Blackboard)
	}
	if a1.Fsms[0].StateName != "asleep" || a2.Fsms[0].StateName != "awake" {
		t.Fatalf("%#v", report.Agents)
	}
}
