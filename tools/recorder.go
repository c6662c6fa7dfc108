package tools

import (
	"sync"
	"time"

	"github.com/Comcast/brains/core"
)

// Record is one node state change.
type Record struct {
	Agent string         `json:"agent"`
	Debug string         `json:"debug,omitempty"`
	Id    core.NodeId    `json:"id"`
	State core.NodeState `json:"-"`
	Name  string         `json:"state"`
	At    time.Time      `json:"at"`
}

// Recorder is a core.Debugger that keeps a history of state changes.
//
// A Recorder can be shared by agents running in different
// goroutines.
type Recorder struct {
	sync.Mutex

	// Filter, if not nil, decides which changes are kept.
	Filter func(r *Record) bool

	// Limit, if positive, is the maximum number of records kept.
	// Older records are dropped.
	Limit int

	history []*Record
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) StateChanged(agent string, debug string, id core.NodeId, s core.NodeState) {
	rec := &Record{
		Agent: agent,
		Debug: debug,
		Id:    id,
		State: s,
		Name:  s.String(),
		At:    time.Now().UTC(),
	}

	r.Lock()
	defer r.Unlock()

	if r.Filter != nil && !r.Filter(rec) {
		return
	}
	r.history = append(r.history, rec)
	if 0 < r.Limit && r.Limit < len(r.history) {
		r.history = r.history[len(r.history)-r.Limit:]
	}
}

// Take returns the history and starts a new one.
func (r *Recorder) Take() []*Record {
	r.Lock()
	acc := r.history
	r.history = nil
	r.Unlock()
	return acc
}

// Len is the number of records in the history.
func (r *Recorder) Len() int {
	r.Lock()
	defer r.Unlock()
	return len(r.history)
}

// ForAgent returns a Filter that only keeps the given agent's changes.
func ForAgent(id string) func(r *Record) bool {
	return func(r *Record) bool {
		return r.Agent == id
	}
}
