package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/Comcast/brains/core"
	"github.com/Comcast/brains/tools"

	"github.com/spf13/cobra"
)

var renderFlags struct {
	current string
	png     string
	details bool
	title   string
	css     []string
}

var dotCmd = &cobra.Command{
	Use:   "dot (tree|fsm) NAME_OR_FILE",
	Short: "Write a Graphviz graph of a tree or state machine",
	Args:  cobra.ExactArgs(2),
	RunE:  runDot,
}

var mermaidCmd = &cobra.Command{
	Use:   "mermaid (tree|fsm) NAME_OR_FILE",
	Short: "Write a Mermaid graph of a tree or state machine",
	Args:  cobra.ExactArgs(2),
	RunE:  runMermaid,
}

var htmlCmd = &cobra.Command{
	Use:   "html",
	Short: "Write an HTML page documenting every tree and state machine",
	Args:  cobra.NoArgs,
	RunE:  runHTML,
}

func init() {
	for _, c := range []*cobra.Command{dotCmd, mermaidCmd} {
		c.Flags().StringVar(&renderFlags.current, "current", "", "highlight this state")
	}
	dotCmd.Flags().StringVar(&renderFlags.png, "png", "", "also run dot to make BASENAME.png")
	mermaidCmd.Flags().BoolVar(&renderFlags.details, "details", true, "show node and state details")
	htmlCmd.Flags().StringVar(&renderFlags.title, "title", "brains", "page title")
	htmlCmd.Flags().StringSliceVar(&renderFlags.css, "css", nil, "CSS files to link")
}

// render resolves the descriptor and calls the matching renderer.
func render(cmd *cobra.Command, args []string,
	tree func(t *core.TreeDesc, w io.Writer) error,
	fsm func(f *core.FsmDesc, w io.Writer, current int) error) error {

	ctx := cmd.Context()
	src, err := openSource()
	if err != nil {
		return err
	}
	defer src.Close()

	switch args[0] {
	case "tree":
		t, err := readTree(ctx, src, args[1])
		if err != nil {
			return err
		}
		if renderFlags.png != "" {
			if _, err = tools.PNG(renderFlags.png, func(w io.Writer) error { return tree(t, w) }); err != nil {
				return err
			}
		}
		return tree(t, cmd.OutOrStdout())
	case "fsm":
		f, err := readFsm(ctx, src, args[1])
		if err != nil {
			return err
		}
		current := -1
		if renderFlags.current != "" {
			i, have := f.StateIndex(renderFlags.current)
			if !have {
				return fmt.Errorf("no state '%s' in %s", renderFlags.current, f.Name)
			}
			current = i
		}
		if renderFlags.png != "" {
			if _, err = tools.PNG(renderFlags.png, func(w io.Writer) error { return fsm(f, w, current) }); err != nil {
				return err
			}
		}
		return fsm(f, cmd.OutOrStdout(), current)
	default:
		return fmt.Errorf("want 'tree' or 'fsm', not '%s'", args[0])
	}
}

func runDot(cmd *cobra.Command, args []string) error {
	return render(cmd, args, tools.TreeDot, tools.FsmDot)
}

func runMermaid(cmd *cobra.Command, args []string) error {
	opts := *tools.DefaultMermaidOpts
	opts.ShowDetails = renderFlags.details
	return render(cmd, args,
		func(t *core.TreeDesc, w io.Writer) error {
			return tools.TreeMermaid(t, w, &opts)
		},
		func(f *core.FsmDesc, w io.Writer, current int) error {
			return tools.FsmMermaid(f, w, &opts, current)
		})
}

func runHTML(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	src, err := openSource()
	if err != nil {
		return err
	}
	defer src.Close()

	treeNames, fsmNames, err := src.names(ctx)
	if err != nil {
		return err
	}
	sort.Strings(treeNames)
	sort.Strings(fsmNames)

	var trees []*core.TreeDesc
	for _, name := range treeNames {
		t, err := src.ResolveTree(ctx, name)
		if err != nil {
			return err
		}
		trees = append(trees, t)
	}
	var fsms []*core.FsmDesc
	for _, name := range fsmNames {
		f, err := src.ResolveFsm(ctx, name)
		if err != nil {
			return err
		}
		fsms = append(fsms, f)
	}

	return tools.RenderPage(renderFlags.title, trees, fsms, cmd.OutOrStdout(), renderFlags.css)
}
