// Package inflight tracks calls awaiting settlement by the remote process.
//
// Each tracked call owns a single-fire completion handle. Three independent
// triggers compete to settle it: a matching response, the call's timeout
// timer, and process failure (which settles every call at once). Whichever
// fires first claims the call by removing its table entry under the lock;
// the claim is what makes settlement idempotent: a later trigger finds the
// entry absent and is a guaranteed no-op.
//
// # Usage
//
//	call := table.Track(id, 5*time.Second, ErrTimeout)
//	// ... write the request line ...
//	result, err := call.Wait(ctx)
//
// and on the receive side:
//
//	if !table.Settle(id, result, nil) {
//	    // already timed out or failed; drop
//	}
package inflight

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

type outcome struct {
	result json.RawMessage
	err    error
}

// Call is one in-flight request awaiting exactly one settlement.
type Call struct {
	id   string
	done chan outcome
}

// ID returns the call's correlation id.
func (c *Call) ID() string { return c.id }

// Wait blocks until the call settles or ctx is cancelled.
// Cancellation abandons the wait without claiming the table entry; the
// timeout timer will eventually reap it.
func (c *Call) Wait(ctx context.Context) (json.RawMessage, error) {
	select {
	case o := <-c.done:
		return o.result, o.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type entry struct {
	call  *Call
	timer *time.Timer
}

// Table is the in-flight request table for one service.
type Table struct {
	mu    sync.Mutex
	calls map[string]*entry
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{calls: make(map[string]*entry)}
}

// Track inserts a pending call and arms its timeout timer.
// When the timer fires first, the call settles with expire as its error.
// A timeout of zero or less disables the timer.
func (t *Table) Track(id string, timeout time.Duration, expire error) *Call {
	c := &Call{id: id, done: make(chan outcome, 1)}
	e := &entry{call: c}

	t.mu.Lock()
	t.calls[id] = e
	if timeout > 0 {
		e.timer = time.AfterFunc(timeout, func() {
			t.Settle(id, nil, expire)
		})
	}
	t.mu.Unlock()

	return c
}

// Settle claims the call with the given id and fires its outcome.
// Returns false if the id is unknown (already settled or never tracked),
// in which case nothing happens.
func (t *Table) Settle(id string, result json.RawMessage, err error) bool {
	t.mu.Lock()
	e, ok := t.calls[id]
	if ok {
		delete(t.calls, id)
	}
	t.mu.Unlock()

	if !ok {
		return false
	}
	if e.timer != nil {
		e.timer.Stop()
	}
	e.call.done <- outcome{result: result, err: err}
	return true
}

// FailAll claims every pending call and fails it with err.
// Returns the number of calls settled. Used when the process dies.
func (t *Table) FailAll(err error) int {
	t.mu.Lock()
	claimed := make([]*entry, 0, len(t.calls))
	for id, e := range t.calls {
		delete(t.calls, id)
		claimed = append(claimed, e)
	}
	t.mu.Unlock()

	for _, e := range claimed {
		if e.timer != nil {
			e.timer.Stop()
		}
		e.call.done <- outcome{err: err}
	}
	return len(claimed)
}

// Len returns the number of calls currently pending.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.calls)
}
