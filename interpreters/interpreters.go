// Package interpreters collects the standard expression interpreters.
package interpreters

import (
	"github.com/Comcast/brains/core"
	"github.com/Comcast/brains/interpreters/exprlang"
	"github.com/Comcast/brains/interpreters/goja"
	"github.com/Comcast/brains/interpreters/noop"
)

// Standard returns a new map of the standard interpreters.
func Standard() map[string]core.Interpreter {
	is := make(map[string]core.Interpreter)

	g := goja.NewInterpreter()
	is["goja"] = g
	is["ecmascript"] = g

	is["expr"] = exprlang.NewInterpreter()

	is["noop"] = noop.NewInterpreter()

	return is
}
