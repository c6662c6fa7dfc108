package tools

import (
	"fmt"
	"strings"

	"github.com/Comcast/brains/core"

	"gopkg.in/yaml.v2"
)

// visit is called for each node in a tree in pre-order.  The root's
// parent is "".  Label is the edge label from the parent (if any).
type visit func(id string, n *core.NodeDesc, parent string, label string)

// walkTree assigns ids n1, n2, ... to the tree's nodes in pre-order.
func walkTree(root *core.NodeDesc, f visit) {
	num := 0
	var walk func(n *core.NodeDesc, parent, label string)
	walk = func(n *core.NodeDesc, parent, label string) {
		if n == nil {
			return
		}
		num++
		id := fmt.Sprintf("n%d", num)
		f(id, n, parent, label)
		for i, c := range n.Children {
			walk(c, id, edgeLabel(n, i))
		}
	}
	walk(root, "", "")
}

// edgeLabel names the role of a parent's i-th child.
func edgeLabel(n *core.NodeDesc, i int) string {
	switch n.Category {
	case core.IfElse:
		return []string{"if", "then", "else"}[i%3]
	case core.Until:
		return []string{"until", "do"}[i%2]
	case core.Probability:
		if i < len(n.Weights) {
			prev := 0.0
			if 0 < i {
				prev = n.Weights[i-1]
			}
			return fmt.Sprintf("%g", n.Weights[i]-prev)
		}
	case core.Sequence, core.Selector, core.Parallel:
		if 1 < len(n.Children) {
			return fmt.Sprintf("%d", i+1)
		}
	}
	return ""
}

// title is the category plus the debug name if there is one.
func title(n *core.NodeDesc) string {
	if n.Debug == "" || n.Debug == string(n.Category) {
		return string(n.Category)
	}
	return string(n.Category) + " " + n.Debug
}

// detail is the node's payload as a few lines of text.
func detail(n *core.NodeDesc) string {
	switch n.Category {
	case core.Action:
		var acc []string
		if n.Enter != nil {
			acc = append(acc, "enter: "+invocation(n.Enter))
		}
		if n.Leave != nil {
			acc = append(acc, "leave: "+invocation(n.Leave))
		}
		return strings.Join(acc, "\n")
	case core.Compute, core.Condition:
		if n.Expr == nil {
			return ""
		}
		if n.Expr.Source == "" && n.Expr.Func != nil {
			return "(native)"
		}
		return strings.TrimSpace(n.Expr.Source)
	case core.Wait:
		return "event: " + n.Event
	case core.Call:
		return "tree: " + n.Tree
	case core.Always:
		return fmt.Sprintf("%v", n.Value)
	}
	return ""
}

func invocation(inv *core.Invocation) string {
	if len(inv.Args) == 0 {
		return inv.Method + "()"
	}
	args := make([]string, len(inv.Args))
	for i, p := range inv.Args {
		args[i] = p.String()
	}
	return inv.Method + "(" + strings.Join(args, ", ") + ")"
}

// yamlLabel renders x as YAML, which is easier to read in a graph
// than JSON.
func yamlLabel(x interface{}) string {
	bs, err := yaml.Marshal(x)
	if err != nil {
		return err.Error()
	}
	return strings.TrimSpace(string(bs))
}

// stateLabel describes a state's enter and leave actions.
func stateLabel(s *core.StateDesc) string {
	if len(s.Enter) == 0 && len(s.Leave) == 0 {
		return ""
	}
	m := make(map[string][]string)
	for _, a := range s.Enter {
		m["enter"] = append(m["enter"], actionString(a))
	}
	for _, a := range s.Leave {
		m["leave"] = append(m["leave"], actionString(a))
	}
	return yamlLabel(m)
}

func actionString(a core.StateAction) string {
	if a.Kind == core.CallAction {
		return invocation(&core.Invocation{Method: a.Name, Args: a.Args})
	}
	return string(a.Kind) + " " + a.Name
}

func escape(s string) string {
	s = strings.Replace(s, "&", "&amp;", -1)
	s = strings.Replace(s, "<", "&lt;", -1)
	s = strings.Replace(s, ">", "&gt;", -1)
	s = strings.Replace(s, `"`, "&quot;", -1)
	return s
}
