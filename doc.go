// Package brains is an embeddable behavior-tree and hierarchical
// state machine engine for game agents.
//
// The core code is in package 'core'.  Expression interpreters are in
// 'interpreters', descriptor loading is in 'files' and 'storage/bolt',
// and multi-agent plumbing is in 'crew' and 'timers'.  The command-line
// tool is in 'cmd/brains'.
package brains
