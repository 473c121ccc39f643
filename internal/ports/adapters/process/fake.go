package process

import (
	"context"
	"sync"
)

// Recorder is a Runner that records invocations and answers them through Handle.
// It is safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	Calls  []Cmd
	Handle func(Cmd) (Result, error)
}

func (r *Recorder) Run(_ context.Context, c Cmd) (Result, error) {
	r.mu.Lock()
	r.Calls = append(r.Calls, c)
	h := r.Handle
	r.mu.Unlock()
	if h == nil {
		return Result{}, nil
	}
	return h(c)
}

// Snapshot returns a copy of the recorded calls.
func (r *Recorder) Snapshot() []Cmd {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Cmd(nil), r.Calls...)
}
