/* Copyright 2018 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package tools

// dot -Tpng g.dot > g.png

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/Comcast/brains/core"
)

func dotLines(s string) string {
	return strings.Replace(escape(s)+"\n", "\n", `<BR ALIGN="LEFT"/>`, -1)
}

func dotHeader(w io.Writer) {
	fmt.Fprintf(w, "digraph G {\n")
	fmt.Fprintf(w, `  graph [ordering=out,rankdir=TB,nodesep=0.3,ranksep=0.6]
  node [shape="record" style="rounded,filled"]
  edge [fontsize = "12"]
`)
}

// TreeDot makes a Graphviz dot file for the given tree.
func TreeDot(t *core.TreeDesc, w io.Writer) error {
	if t.Root == nil {
		return &core.BadTree{Tree: t.Name, Problem: "no root"}
	}

	dotHeader(w)
	if t.Name != "" {
		fmt.Fprintf(w, "  label=<%s>\n  labelloc=\"t\"\n", escape(t.Name))
	}

	walkTree(t.Root, func(id string, n *core.NodeDesc, parent, label string) {
		shape := "box"
		style := "rounded,filled"
		fillcolor := "#99ddc8"
		switch n.Category {
		case core.Root:
			style += ",bold"
			fillcolor = "#ffffff"
		case core.Action:
			shape = "note"
			style = "filled"
			fillcolor = "#bcf2db"
		case core.Compute, core.Condition:
			shape = "note"
			style = "filled"
			fillcolor = "#2d93ad"
		case core.Wait:
			shape = "ellipse"
			fillcolor = "#f9d78b"
		case core.Call:
			shape = "component"
			style = "filled"
			fillcolor = "#52aa5e"
		}

		text := "<B>" + escape(title(n)) + "</B>"
		if d := detail(n); d != "" {
			text += `<FONT POINT-SIZE="8"><BR/>` + dotLines(d) + `</FONT>`
		}
		fmt.Fprintf(w, "  %s [shape=\"%s\", style=\"%s\", fillcolor=\"%s\", label=<%s> ]\n",
			id, shape, style, fillcolor, text)

		if parent != "" {
			fmt.Fprintf(w, "  %s -> %s [ label = <%s> ]\n", parent, id, escape(label))
		}
	})

	fmt.Fprintf(w, "}\n")
	return nil
}

// FsmDot makes a Graphviz dot file for the given state machine.
//
// If current is a state index, that state is red.
func FsmDot(f *core.FsmDesc, w io.Writer, current int) error {
	dotHeader(w)
	if f.Name != "" {
		fmt.Fprintf(w, "  label=<%s>\n  labelloc=\"t\"\n", escape(f.Name))
	}

	for i, s := range f.States {
		color := "black"
		fillcolor := "#99ddc8"
		style := "rounded,filled"
		if i == f.Initial {
			style += ",bold"
		}
		if i == current {
			color = "red"
			fillcolor = "#f98b8b"
		}
		label := "<B>" + escape(s.Name) + "</B>"
		if s.Doc != "" {
			doc := s.Doc
			if 40 < len(doc) {
				if period := strings.Index(doc, ". "); 0 < period {
					doc = doc[0 : period+1]
				}
			}
			label += `<BR/><FONT POINT-SIZE="8">` + escape(doc) + `</FONT>`
		}
		if sl := stateLabel(s); sl != "" {
			label += `<FONT POINT-SIZE="6"><BR/>` + dotLines(sl) + `</FONT>`
		}
		fmt.Fprintf(w, "  s%d [style=\"%s\", color=\"%s\", fillcolor=\"%s\", label=<%s> ]\n",
			i, style, color, fillcolor, label)
	}

	for _, t := range f.Transitions {
		fmt.Fprintf(w, "  s%d -> s%d [ label = <%s> ]\n", t.From, t.To, escape(t.Event))
	}

	fmt.Fprintf(w, "}\n")
	return nil
}

// PNG runs Graphviz's dot on the output of render.
//
// This function will write two files: basename.dot and basename.png,
// where the basename is the given string.
func PNG(basename string, render func(w io.Writer) error) (string, error) {
	dotname := basename + ".dot"
	pngname := basename + ".png"

	dotfile, err := os.Create(dotname)
	if err != nil {
		return pngname, err
	}
	if err = render(dotfile); err != nil {
		dotfile.Close()
		return pngname, err
	}
	if err = dotfile.Close(); err != nil {
		return pngname, err
	}
	if err = exec.Command("dot", "-Tpng", "-o", pngname, dotname).Run(); err != nil {
		return pngname, err
	}
	return pngname, nil
}
