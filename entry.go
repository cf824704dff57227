package binsvc

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/smnsjas/go-binsvc/events"
	"github.com/smnsjas/go-binsvc/framing"
	"github.com/smnsjas/go-binsvc/inflight"
	"github.com/smnsjas/go-binsvc/logging"
	"github.com/smnsjas/go-binsvc/protocol"
)

// Status is the lifecycle state of a registered service.
type Status int

const (
	// StatusOffline means no live process: either never spawned or exited.
	StatusOffline Status = iota
	// StatusOnline means the process is running and accepting calls.
	StatusOnline
	// StatusMissing means the binary could not be resolved; nothing was spawned.
	StatusMissing
)

// String returns a string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusOffline:
		return "Offline"
	case StatusOnline:
		return "Online"
	case StatusMissing:
		return "Missing"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// procHandle is the slice of a live process the registry needs.
// *process.Process satisfies it; tests substitute a pipe-backed fake.
type procHandle interface {
	Write(b []byte) error
	Kill() error
	PID() int
}

// entry is the per-service state owned by the Registry.
//
// The framer is only touched by the process's stdout pump goroutine, so
// framing needs no lock. The pending table has its own mutex. mu guards
// status and the process handle.
type entry struct {
	name           string
	binary         string
	resolvedPath   string
	defaultTimeout time.Duration
	actionTimeouts map[string]time.Duration

	mu     sync.Mutex
	status Status
	proc   procHandle

	pending    *inflight.Table
	framer     *framing.Framer
	dispatcher *events.Dispatcher
	log        logging.Logger
}

func newEntry(b Binding, log logging.Logger) *entry {
	e := &entry{
		name:           b.Name,
		binary:         b.Binary,
		defaultTimeout: b.DefaultTimeout,
		actionTimeouts: b.ActionTimeouts,
		status:         StatusOffline,
		pending:        inflight.NewTable(),
		dispatcher:     events.NewDispatcher(log),
		log:            log,
	}
	if e.defaultTimeout <= 0 {
		e.defaultTimeout = DefaultCallTimeout
	}
	e.framer = framing.New(e.route)
	for name, h := range b.Events {
		e.dispatcher.Register(name, h)
	}
	return e
}

// currentStatus returns the status under the entry lock.
func (e *entry) currentStatus() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// liveProc returns the process handle if the entry is Online.
func (e *entry) liveProc() (procHandle, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.status != StatusOnline || e.proc == nil {
		return nil, false
	}
	return e.proc, true
}

// timeoutFor resolves the effective timeout for one call:
// explicit override, then per-action override, then the entry default.
func (e *entry) timeoutFor(action string, override time.Duration) time.Duration {
	if override > 0 {
		return override
	}
	if d, ok := e.actionTimeouts[action]; ok && d > 0 {
		return d
	}
	return e.defaultTimeout
}

// route handles one complete framed line from the process's stdout.
// Runs on the stdout pump goroutine. Anything malformed is logged and
// dropped; routing never fails a call it cannot match.
func (e *entry) route(line []byte) {
	switch protocol.Classify(line) {
	case protocol.KindEvent:
		ev, err := protocol.DecodeEvent(line)
		if err != nil {
			e.log.Warn("dropping malformed event", "service", e.name, "err", err)
			return
		}
		if !e.dispatcher.Dispatch(ev.Event, ev.Data) {
			e.log.Warn("no handler registered for event", "service", e.name, "event", ev.Event)
		}

	case protocol.KindResponse:
		resp, err := protocol.DecodeResponse(line)
		if err != nil {
			e.log.Warn("dropping malformed response", "service", e.name, "err", err)
			return
		}
		var result json.RawMessage
		var callErr error
		if resp.Status == protocol.StatusOK {
			result = resp.Result
		} else {
			callErr = &RemoteError{Service: e.name, Payload: resp.Error}
		}
		if !e.pending.Settle(resp.ID, result, callErr) {
			// Timed out, duplicated, or already failed by a crash. Not an
			// error for anyone: the original caller was settled long ago.
			e.log.Debug("dropping response with no pending call", "service", e.name, "id", resp.ID)
		}

	default:
		e.log.Warn("dropping malformed line", "service", e.name, "line", truncate(string(line), 200))
	}
}

// handleExit is the process exit hook. It marks the service Offline and fails
// every pending call. Runs once per spawned process, after the final stdout
// chunk has been routed.
func (e *entry) handleExit(cause error) {
	e.mu.Lock()
	e.status = StatusOffline
	e.proc = nil
	e.mu.Unlock()

	var failure error
	if cause != nil {
		failure = fmt.Errorf("service %q: %w: %v", e.name, ErrProcessExited, cause)
	} else {
		failure = fmt.Errorf("service %q: %w", e.name, ErrProcessExited)
	}

	failed := e.pending.FailAll(failure)
	e.log.Warn("service process exited",
		"service", e.name, "pending_failed", failed, "cause", cause)
}

// truncate shortens a string for log output.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
