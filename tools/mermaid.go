package tools

import (
	"fmt"
	"io"
	"strings"

	"github.com/Comcast/brains/core"
)

type MermaidOpts struct {
	// ShowDetails adds each node's payload (expression source,
	// action calls, etc.) to its label.
	ShowDetails bool `json:"showDetails"`

	// ActionFill is the fill color for leaf nodes.
	ActionFill string `json:"actionFill,omitempty"`

	// CurrentFill is the fill color for an FSM's current state.
	CurrentFill string `json:"currentFill,omitempty"`
}

var DefaultMermaidOpts = &MermaidOpts{
	ShowDetails: true,
	ActionFill:  "#bcf2db",
	CurrentFill: "#f98b8b",
}

// mermaidText makes a string safe for a quoted Mermaid label.
func mermaidText(s string) string {
	s = strings.Replace(s, `"`, `'`, -1)
	return strings.Replace(s, "\n", "<br/>", -1)
}

// TreeMermaid makes a Mermaid (https://mermaidjs.github.io/) input
// file for the given tree.
func TreeMermaid(t *core.TreeDesc, w io.Writer, opts *MermaidOpts) error {
	if t.Root == nil {
		return &core.BadTree{Tree: t.Name, Problem: "no root"}
	}
	if opts == nil {
		opts = DefaultMermaidOpts
	}

	fmt.Fprintf(w, "graph TB\n")

	walkTree(t.Root, func(id string, n *core.NodeDesc, parent, label string) {
		text := title(n)
		if opts.ShowDetails {
			if d := detail(n); d != "" {
				text += "\n" + d
			}
		}
		if n.Category.Leaf() {
			fmt.Fprintf(w, "  %s[\"%s\"]\n", id, mermaidText(text))
			if opts.ActionFill != "" {
				fmt.Fprintf(w, "  style %s fill:%s\n", id, opts.ActionFill)
			}
		} else {
			fmt.Fprintf(w, "  %s(\"%s\")\n", id, mermaidText(text))
		}
		if parent == "" {
			return
		}
		if label == "" {
			fmt.Fprintf(w, "  %s --> %s\n", parent, id)
		} else {
			fmt.Fprintf(w, "  %s -- \"%s\" --> %s\n", parent, mermaidText(label), id)
		}
	})

	fmt.Fprintf(w, "\n")
	return nil
}

// FsmMermaid makes a Mermaid input file for the given state machine.
//
// If current is a state index, that state gets opts.CurrentFill.
func FsmMermaid(f *core.FsmDesc, w io.Writer, opts *MermaidOpts, current int) error {
	if opts == nil {
		opts = DefaultMermaidOpts
	}

	fmt.Fprintf(w, "graph TB\n")

	for i, s := range f.States {
		text := s.Name
		if opts.ShowDetails {
			if sl := stateLabel(s); sl != "" {
				text += "\n" + sl
			}
		}
		if i == f.Initial {
			fmt.Fprintf(w, "  s%d([\"%s\"])\n", i, mermaidText(text))
		} else {
			fmt.Fprintf(w, "  s%d(\"%s\")\n", i, mermaidText(text))
		}
		if i == current && opts.CurrentFill != "" {
			fmt.Fprintf(w, "  style s%d fill:%s\n", i, opts.CurrentFill)
		}
	}

	for _, t := range f.Transitions {
		fmt.Fprintf(w, "  s%d -- \"%s\" --> s%d\n", t.From, mermaidText(t.Event), t.To)
	}

	fmt.Fprintf(w, "\n")
	return nil
}
