package core

// NodeState is where a live node is in its lifecycle.
type NodeState int

const (
	StateNew NodeState = iota
	StateEntering
	StateAwaken
	StateRevisiting
	StateBlocking
	StateWaitChild
	StateLeaving
	StateDead
)

func (s NodeState) String() string {
	switch s {
	case StateNew:
		return "NEW"
	case StateEntering:
		return "ENTERING"
	case StateAwaken:
		return "AWAKEN"
	case StateRevisiting:
		return "REVISITING"
	case StateBlocking:
		return "BLOCKING"
	case StateWaitChild:
		return "WAIT_CHILD"
	case StateLeaving:
		return "LEAVING"
	case StateDead:
		return "DEAD"
	default:
		return "UNKNOWN"
	}
}

// Ready reports whether a node in this state wants to be visited.
//
// LEAVING isn't ready because leaving happens right away.
func (s NodeState) Ready() bool {
	return s == StateNew || s == StateAwaken
}

// Debugger hears about node state changes.
//
// StateChanged is called synchronously on every transition after
// NEW.  It shouldn't call back into the agent.
type Debugger interface {
	StateChanged(agent string, debug string, id NodeId, s NodeState)
}

// DebugFunc is a Debugger.
type DebugFunc func(agent string, debug string, id NodeId, s NodeState)

func (f DebugFunc) StateChanged(agent string, debug string, id NodeId, s NodeState) {
	f(agent, debug, id, s)
}
