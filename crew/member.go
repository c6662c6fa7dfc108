package crew

import (
	"sync"

	"github.com/Comcast/brains/core"
)

// Member is an agent plus the lock that serializes calls into it.
type Member struct {
	sync.Mutex

	Agent *core.Agent
}

func (m *Member) do(f func(a *core.Agent) error) error {
	m.Lock()
	defer m.Unlock()
	return f(m.Agent)
}

// Status is a snapshot of an agent.
type Status struct {
	Id         string                 `json:"id"`
	Enabled    bool                   `json:"enabled"`
	Ready      bool                   `json:"ready"`
	Fsms       []core.FsmStatus       `json:"fsms"`
	Blackboard map[string]interface{} `json:"blackboard"`
}

// Status gets the member's lock and returns a snapshot.
//
// The blackboard is copied but its values are not.
func (m *Member) Status() *Status {
	m.Lock()
	defer m.Unlock()

	a := m.Agent
	bb := make(map[string]interface{}, len(a.Blackboard()))
	for k, v := range a.Blackboard() {
		bb[k] = v
	}
	return &Status{
		Id:         a.Id,
		Enabled:    a.Enabled(),
		Ready:      a.IsReady(),
		Fsms:       a.Fsms(),
		Blackboard: bb,
	}
}
