package main

import (
	"fmt"
	"sort"

	"github.com/Comcast/brains/files"

	"github.com/spf13/cobra"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage descriptors in a BoltDB --store",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		rootCmd.PersistentPreRun(cmd, args)
		if rootFlags.store == "" {
			return fmt.Errorf("store commands need --store")
		}
		return nil
	},
}

var storeTreeCmd = &cobra.Command{
	Use:   "put-tree FILE...",
	Short: "Store trees read from files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()
		for _, filename := range args {
			t, err := files.ReadTree(filename)
			if err != nil {
				return err
			}
			if err = s.PutTree(cmd.Context(), t); err != nil {
				return fmt.Errorf("%s: %w", filename, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "tree %s\n", t.Name)
		}
		return nil
	},
}

var storeFsmCmd = &cobra.Command{
	Use:   "put-fsm FILE...",
	Short: "Store state machines read from files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()
		for _, filename := range args {
			f, err := files.ReadFsm(filename)
			if err != nil {
				return err
			}
			if err = s.PutFsm(cmd.Context(), f); err != nil {
				return fmt.Errorf("%s: %w", filename, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "fsm %s\n", f.Name)
		}
		return nil
	},
}

var storeImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Store every tree and state machine in --dir",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		d := openDir()
		trees, fsms, err := d.Names()
		if err != nil {
			return err
		}
		for _, name := range trees {
			t, err := d.ResolveTree(ctx, name)
			if err != nil {
				return err
			}
			if err = s.PutTree(ctx, t); err != nil {
				return err
			}
		}
		for _, name := range fsms {
			f, err := d.ResolveFsm(ctx, name)
			if err != nil {
				return err
			}
			if err = s.PutFsm(ctx, f); err != nil {
				return err
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "imported %d trees and %d state machines\n", len(trees), len(fsms))
		return nil
	},
}

var storeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored trees and state machines",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		trees, fsms, err := storeSource{s}.names(cmd.Context())
		if err != nil {
			return err
		}
		sort.Strings(trees)
		sort.Strings(fsms)
		return writeJSON(cmd.OutOrStdout(), map[string][]string{
			"trees": trees,
			"fsms":  fsms,
		})
	},
}

func init() {
	storeCmd.AddCommand(storeTreeCmd)
	storeCmd.AddCommand(storeFsmCmd)
	storeCmd.AddCommand(storeImportCmd)
	storeCmd.AddCommand(storeListCmd)
}
