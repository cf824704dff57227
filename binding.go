package binsvc

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/smnsjas/go-binsvc/events"
)

// Binding declares a service's remote surface at registration time: which
// binary backs it, its default call timeout, and the handlers for the events
// it emits. There is no runtime discovery; everything a service exposes is
// stated here, once, before the process spawns.
type Binding struct {
	// Name is the unique logical service name.
	Name string
	// Binary is the logical executable name resolved under the resource
	// root. Letters, digits, underscore and hyphen only.
	Binary string
	// DefaultTimeout bounds each call unless overridden per action or per
	// call. Zero means DefaultCallTimeout.
	DefaultTimeout time.Duration
	// Events maps event names to handlers. Duplicate names across separate
	// Register calls on the dispatcher follow last-registration-wins.
	Events map[string]events.Handler
	// ActionTimeouts overrides the default timeout for specific actions.
	ActionTimeouts map[string]time.Duration
}

// callConfig carries per-call options.
type callConfig struct {
	timeout time.Duration
}

// CallOption adjusts one call.
type CallOption func(*callConfig)

// WithCallTimeout overrides every configured timeout for this call.
func WithCallTimeout(d time.Duration) CallOption {
	return func(c *callConfig) { c.timeout = d }
}

// Caller is the forwarding half of a bound service: each invocation becomes
// one request line to the service's process. Typed adapters hold a Caller and
// forward their methods through it, which replaces any notion of rewriting
// methods at runtime.
type Caller struct {
	reg     *Registry
	service string
}

// Caller returns a forwarder bound to a service name. The service does not
// need to be registered yet; calls before registration fail as unavailable.
func (r *Registry) Caller(service string) *Caller {
	return &Caller{reg: r, service: service}
}

// Service returns the bound service name.
func (c *Caller) Service() string { return c.service }

// Call forwards one action with positional params and returns the raw result.
func (c *Caller) Call(ctx context.Context, action string, params ...any) (json.RawMessage, error) {
	return c.reg.Call(ctx, c.service, action, params)
}

// Invoke forwards one action and decodes the result into out.
// A nil out or empty result skips decoding.
func (c *Caller) Invoke(ctx context.Context, action string, out any, params ...any) error {
	raw, err := c.reg.Call(ctx, c.service, action, params)
	if err != nil {
		return err
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %q result: %w", action, err)
	}
	return nil
}
