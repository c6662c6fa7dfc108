package main

import (
	"fmt"
	"sort"

	"github.com/Comcast/brains/tools"

	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Report problems in every tree and state machine",
	Long: `Analyze looks for unreachable states, unused and unknown events,
and references to trees and state machines that don't exist.  The
report is JSON.  Exits non-zero if there are problems.`,
	Args: cobra.NoArgs,
	RunE: runAnalyze,
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
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

	var (
		problems int
		trees    = make([]*tools.TreeAnalysis, 0, len(treeNames))
		fsms     = make([]*tools.FsmAnalysis, 0, len(fsmNames))
	)

	for _, name := range treeNames {
		t, err := src.ResolveTree(ctx, name)
		if err != nil {
			return fmt.Errorf("tree %s: %w", name, err)
		}
		a, err := tools.AnalyzeTree(ctx, t, src)
		if err != nil {
			return err
		}
		problems += len(a.MissingTrees) + len(a.Errors)
		trees = append(trees, a)
	}

	for _, name := range fsmNames {
		f, err := src.ResolveFsm(ctx, name)
		if err != nil {
			return fmt.Errorf("fsm %s: %w", name, err)
		}
		a, err := tools.AnalyzeFsm(ctx, f, src)
		if err != nil {
			return err
		}
		problems += len(a.Unreachable) + len(a.UnknownEvents) +
			len(a.MissingTrees) + len(a.MissingFsms) + len(a.Errors)
		fsms = append(fsms, a)
	}

	err = writeJSON(cmd.OutOrStdout(), map[string]interface{}{
		"trees": trees,
		"fsms":  fsms,
	})
	if err != nil {
		return err
	}
	if 0 < problems {
		return fmt.Errorf("%d problems", problems)
	}
	return nil
}
