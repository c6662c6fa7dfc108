// Brains runs and inspects behavior trees and hierarchical state
// machines.
//
// Descriptors come from a directory (see package files) or, with
// --store, from a BoltDB file (see package storage/bolt).
//
// Examples:
//
//	brains --dir examples run --fsm guard < events.txt
//	brains --dir examples dot tree patrol | dot -Tpng > patrol.png
//	brains --dir examples analyze
//	brains --dir examples --store brains.db store import
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
