// Package events routes out-of-band notifications from a binary service to
// locally registered handlers.
//
// Events are spontaneous: they carry no correlation id and never settle a
// pending call. Each service owns one Dispatcher mapping event names to
// handlers. A handler that panics is recovered and logged so one bad handler
// cannot take down the stream's routing loop or affect other events.
package events

import (
	"encoding/json"
	"sync"

	"github.com/smnsjas/go-binsvc/logging"
)

// Handler processes one event's payload. The payload is opaque JSON and may
// be empty.
type Handler func(data json.RawMessage)

// Dispatcher maps event names to handlers for one service.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	log      logging.Logger
}

// NewDispatcher creates an empty dispatcher. A nil logger discards logs.
func NewDispatcher(log logging.Logger) *Dispatcher {
	if log == nil {
		log = logging.Nop()
	}
	return &Dispatcher{
		handlers: make(map[string]Handler),
		log:      log,
	}
}

// Register binds a handler to an event name.
// Registering the same name twice silently replaces the earlier handler:
// last registration wins.
func (d *Dispatcher) Register(name string, h Handler) {
	if name == "" || h == nil {
		return
	}
	d.mu.Lock()
	d.handlers[name] = h
	d.mu.Unlock()
}

// Registered reports whether a handler exists for the event name.
func (d *Dispatcher) Registered(name string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.handlers[name]
	return ok
}

// Dispatch invokes the handler registered for name with data.
// Returns false when no handler is registered; the caller decides how to log
// the drop. Handler panics are recovered and logged here.
func (d *Dispatcher) Dispatch(name string, data json.RawMessage) bool {
	d.mu.RLock()
	h := d.handlers[name]
	d.mu.RUnlock()

	if h == nil {
		return false
	}

	defer func() {
		if r := recover(); r != nil {
			d.log.Error("event handler panicked", "event", name, "panic", r)
		}
	}()
	h(data)
	return true
}
