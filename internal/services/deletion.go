package services

import "sync"

// DeleteFlow is the per-session two-step deletion state machine. At most
// one record is pending confirmation at a time; requesting a different id
// silently replaces the pending one. Confirm hands back the id to delete
// and resets to idle, so the actual store call stays with the caller.
type DeleteFlow struct {
	mu      sync.Mutex
	pending int64
	armed   bool
}

func NewDeleteFlow() *DeleteFlow {
	return &DeleteFlow{}
}

// Request moves the flow to pending-confirmation for id, replacing any
// previously pending target.
func (f *DeleteFlow) Request(id int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending = id
	f.armed = true
}

// Cancel returns the flow to idle without deleting anything.
func (f *DeleteFlow) Cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending = 0
	f.armed = false
}

// Pending reports the id awaiting confirmation, if any.
func (f *DeleteFlow) Pending() (int64, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pending, f.armed
}

// Confirm resets the flow and returns the id that was pending. The second
// return is false when nothing was pending, making a stray confirm a
// no-op.
func (f *DeleteFlow) Confirm() (int64, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.armed {
		return 0, false
	}
	id := f.pending
	f.pending = 0
	f.armed = false
	return id, true
}
