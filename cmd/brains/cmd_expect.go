package main

import (
	"fmt"

	"github.com/Comcast/brains/core"
	"github.com/Comcast/brains/interpreters"
	"github.com/Comcast/brains/tools"

	"github.com/spf13/cobra"
)

var expectFlags struct {
	trace bool
}

var expectCmd = &cobra.Command{
	Use:   "expect SESSION...",
	Short: "Run sessions of events and check the results",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runExpect,
}

func init() {
	expectCmd.Flags().BoolVar(&expectFlags.trace, "trace", false, "write node state changes of failed sessions to stderr")
}

func runExpect(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	src, err := openSource()
	if err != nil {
		return err
	}
	defer src.Close()

	out := cmd.OutOrStdout()
	failed := 0
	for _, filename := range args {
		s, err := tools.ReadSession(filename)
		if err != nil {
			return err
		}
		s.Interpreters = interpreters.Standard()
		s.Verbose = rootFlags.verbose
		rec := tools.NewRecorder()
		s.Debugger = rec

		if _, err = s.Run(ctx, src, core.Builtins()); err != nil {
			failed++
			fmt.Fprintf(out, "FAIL %s: %v\n", filename, err)
			if expectFlags.trace {
				for _, r := range rec.Take() {
					fmt.Fprintf(cmd.ErrOrStderr(), "%d %s %s\n", r.Id, r.Name, r.Debug)
				}
			}
			continue
		}
		fmt.Fprintf(out, "ok   %s\n", filename)
	}

	if 0 < failed {
		return fmt.Errorf("%d of %d sessions failed", failed, len(args))
	}
	return nil
}
