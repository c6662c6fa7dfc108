package tools

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/Comcast/brains/core"

	md "github.com/russross/blackfriday/v2"
)

// RenderTreeHTML writes an HTML fragment documenting the tree.  Docs
// are Markdown.
func RenderTreeHTML(t *core.TreeDesc, out io.Writer) error {
	if t.Root == nil {
		return &core.BadTree{Tree: t.Name, Problem: "no root"}
	}
	f := func(format string, args ...interface{}) {
		fmt.Fprintf(out, format+"\n", args...)
	}

	f(`<div class="tree" id="tree-%s">`, escape(t.Name))
	f(`<h2>tree %s</h2>`, escape(t.Name))
	if t.Doc != "" {
		f(`<div class="treeDoc doc">%s</div>`, md.Run([]byte(t.Doc)))
	}

	var node func(n *core.NodeDesc, label string)
	node = func(n *core.NodeDesc, label string) {
		f(`<li class="node %s">`, n.Category)
		if label != "" {
			f(`<span class="role">%s</span>`, escape(label))
		}
		f(`<span class="category">%s</span>`, n.Category)
		if n.Debug != "" {
			f(`<span class="debug">%s</span>`, escape(n.Debug))
		}
		if d := detail(n); d != "" {
			if n.Category == core.Call {
				f(`<a href="#tree-%s"><code>%s</code></a>`, escape(n.Tree), escape(d))
			} else {
				f(`<div class="code"><pre>%s</pre></div>`, escape(d))
			}
		}
		if 0 < len(n.Children) {
			f(`<ul>`)
			for i, c := range n.Children {
				node(c, edgeLabel(n, i))
			}
			f(`</ul>`)
		}
		f(`</li>`)
	}
	f(`<ul class="nodes">`)
	node(t.Root, "")
	f(`</ul>`)
	f(`</div>`)

	return nil
}

// RenderFsmHTML writes an HTML fragment documenting the state
// machine.
func RenderFsmHTML(fsm *core.FsmDesc, out io.Writer) error {
	f := func(format string, args ...interface{}) {
		fmt.Fprintf(out, format+"\n", args...)
	}

	f(`<div class="fsm" id="fsm-%s">`, escape(fsm.Name))
	f(`<h2>state machine %s</h2>`, escape(fsm.Name))
	if fsm.Doc != "" {
		f(`<div class="fsmDoc doc">%s</div>`, md.Run([]byte(fsm.Doc)))
	}

	f(`<div class="states"><table>`)
	for i, s := range fsm.States {
		class := "state"
		if i == fsm.Initial {
			class += " initial"
		}
		f(`<tr class="%s"><td><span id="fsm-%s-%d" class="stateName">%s</span></td><td>`,
			class, escape(fsm.Name), i, escape(s.Name))
		if s.Doc != "" {
			f(`<div class="stateDoc doc">%s</div>`, md.Run([]byte(s.Doc)))
		}
		for _, a := range s.Enter {
			f(`<div class="enter">enter <code>%s</code></div>`, escape(actionString(a)))
		}
		for _, a := range s.Leave {
			f(`<div class="leave">leave <code>%s</code></div>`, escape(actionString(a)))
		}
		f(`<table class="transitions">`)
		for _, t := range fsm.Transitions {
			if t.From != i || t.To < 0 || len(fsm.States) <= t.To {
				continue
			}
			f(`<tr><td>%s</td><td><a href="#fsm-%s-%d"><code>%s</code></a></td></tr>`,
				escape(t.Event), escape(fsm.Name), t.To, escape(fsm.States[t.To].Name))
		}
		f(`</table>`)
		f(`</td></tr>`)
	}
	f(`</table></div>`)
	f(`</div>`)

	return nil
}

// RenderPage writes a complete HTML page for the given descriptors.
//
// The descriptors are also embedded as JSON (var brains) for any
// scripts the page might want.
func RenderPage(title string, trees []*core.TreeDesc, fsms []*core.FsmDesc, out io.Writer, cssFiles []string) error {
	if cssFiles == nil {
		cssFiles = []string{"/static/brains.css"}
	}

	js, err := json.Marshal(map[string]interface{}{
		"trees": trees,
		"fsms":  fsms,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(out, `<!DOCTYPE html>
<html>
  <head>
  <meta charset="utf-8">
  <title>%s</title>
  <script>
  var brains = %s;
  </script>
`, escape(title), js)

	for _, cssFile := range cssFiles {
		fmt.Fprintf(out, "  <link href=\"%s\" rel=\"stylesheet\">\n", cssFile)
	}

	fmt.Fprintf(out, `
  </head>
  <body>
    <h1>%s</h1>
`, escape(title))

	for _, f := range fsms {
		if err = RenderFsmHTML(f, out); err != nil {
			return err
		}
	}
	for _, t := range trees {
		if err = RenderTreeHTML(t, out); err != nil {
			return err
		}
	}

	fmt.Fprintf(out, `
  </body>
</html>
`)

	return nil
}
