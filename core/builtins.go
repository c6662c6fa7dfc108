package core

import (
	"context"
	"fmt"
)

// Builtins returns the standard host methods:
//
//	log(msg)
//	push_fsm(name)
//	push_tree(name)
//	trigger_event(name)
//	set_blackboard(key, value)
//	nop()
//	nop_enter()
//	nop_leave()
//
// All but nop_leave finish their node (if any) with true.  Use
// ActionMap.With to add your own.
func Builtins() ActionMap {
	return ActionMap{
		"log": func(ctx context.Context, a *Agent, n *Node, args []interface{}) error {
			if len(args) != 1 {
				return &BadArgs{"log", "wants one argument"}
			}
			a.Logger.Info("log", "agent", a.Id, "node", debugOf(n), "msg", args[0])
			return finishTrue(ctx, n)
		},
		"push_fsm": func(ctx context.Context, a *Agent, n *Node, args []interface{}) error {
			name, err := stringArg("push_fsm", args)
			if err != nil {
				return err
			}
			if err = a.pushFsm(ctx, name); err != nil {
				return err
			}
			return finishTrue(ctx, n)
		},
		"push_tree": func(ctx context.Context, a *Agent, n *Node, args []interface{}) error {
			name, err := stringArg("push_tree", args)
			if err != nil {
				return err
			}
			if err = a.pushTree(ctx, name); err != nil {
				return err
			}
			// The new tree has probably replaced n's tree, in
			// which case this finish does nothing.
			return finishTrue(ctx, n)
		},
		"trigger_event": func(ctx context.Context, a *Agent, n *Node, args []interface{}) error {
			name, err := stringArg("trigger_event", args)
			if err != nil {
				return err
			}
			if err = a.FireEvent(ctx, name); err != nil {
				return err
			}
			return finishTrue(ctx, n)
		},
		"set_blackboard": func(ctx context.Context, a *Agent, n *Node, args []interface{}) error {
			if len(args) != 2 {
				return &BadArgs{"set_blackboard", "wants a key and a value"}
			}
			key, is := args[0].(string)
			if !is {
				return &BadArgs{"set_blackboard", fmt.Sprintf("key %#v isn't a string", args[0])}
			}
			a.blackboard[key] = args[1]
			return finishTrue(ctx, n)
		},
		"nop": func(ctx context.Context, a *Agent, n *Node, args []interface{}) error {
			a.Logger.Info("nop action called", "agent", a.Id)
			return finishTrue(ctx, n)
		},
		"nop_enter": func(ctx context.Context, a *Agent, n *Node, args []interface{}) error {
			a.Logger.Debug("entered nop action node", "agent", a.Id, "node", debugOf(n))
			return finishTrue(ctx, n)
		},
		"nop_leave": func(ctx context.Context, a *Agent, n *Node, args []interface{}) error {
			a.Logger.Debug("leaving nop action node", "agent", a.Id, "node", debugOf(n))
			return nil
		},
	}
}

func finishTrue(ctx context.Context, n *Node) error {
	if n == nil {
		return nil
	}
	return n.Finish(ctx, true)
}

func debugOf(n *Node) string {
	if n == nil {
		return ""
	}
	return n.desc.Debug
}

func stringArg(method string, args []interface{}) (string, error) {
	if len(args) != 1 {
		return "", &BadArgs{method, "wants one argument"}
	}
	s, is := args[0].(string)
	if !is {
		return "", &BadArgs{method, fmt.Sprintf("%#v isn't a string", args[0])}
	}
	return s, nil
}
