package main

import (
	"context"

	"github.com/Comcast/brains/core"
	"github.com/Comcast/brains/files"
	"github.com/Comcast/brains/interpreters"
	"github.com/Comcast/brains/storage/bolt"
	"github.com/Comcast/brains/util"

	"github.com/spf13/cobra"
)

var rootFlags struct {
	dir       string
	store     string
	logLevel  string
	logFormat string
	verbose   bool
}

var rootCmd = &cobra.Command{
	Use:          "brains",
	Short:        "Run and inspect behavior trees and state machines",
	SilenceUsage: true,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		util.Init(util.ParseLevel(rootFlags.logLevel), rootFlags.logFormat, cmd.ErrOrStderr())
		util.Logging = rootFlags.verbose
	},
}

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVar(&rootFlags.dir, "dir", ".", "directory with trees/ and fsms/")
	f.StringVar(&rootFlags.store, "store", "", "BoltDB file to use instead of --dir")
	f.StringVar(&rootFlags.logLevel, "log-level", "warn", "debug, info, warn, or error")
	f.StringVar(&rootFlags.logFormat, "log-format", "text", "text or json")
	f.BoolVarP(&rootFlags.verbose, "verbose", "v", false, "say what's going on")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(dotCmd)
	rootCmd.AddCommand(mermaidCmd)
	rootCmd.AddCommand(htmlCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(expectCmd)
	rootCmd.AddCommand(storeCmd)
}

// source is where descriptors come from.
type source interface {
	core.Resolver
	names(ctx context.Context) (trees []string, fsms []string, err error)
	Close() error
}

type dirSource struct {
	*files.Dir
}

func (s dirSource) names(ctx context.Context) ([]string, []string, error) {
	return s.Names()
}

func (s dirSource) Close() error {
	return nil
}

type storeSource struct {
	*bolt.Storage
}

func (s storeSource) names(ctx context.Context) ([]string, []string, error) {
	trees, err := s.Trees(ctx)
	if err != nil {
		return nil, nil, err
	}
	fsms, err := s.Fsms(ctx)
	return trees, fsms, err
}

// openStore opens the --store file.
func openStore() (*bolt.Storage, error) {
	s, err := bolt.NewStorage(rootFlags.store)
	if err != nil {
		return nil, err
	}
	s.Interpreters = interpreters.Standard()
	s.Debug = rootFlags.verbose
	if err = s.Open(); err != nil {
		return nil, err
	}
	return s, nil
}

func openDir() *files.Dir {
	d := files.NewDir(rootFlags.dir)
	d.Interpreters = interpreters.Standard()
	return d
}

// openSource returns the --store if given and the --dir otherwise.
func openSource() (source, error) {
	if rootFlags.store != "" {
		s, err := openStore()
		if err != nil {
			return nil, err
		}
		util.Logf("using store %s", rootFlags.store)
		return storeSource{s}, nil
	}
	util.Logf("using directory %s", rootFlags.dir)
	return dirSource{openDir()}, nil
}
