package binsvc

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/smnsjas/go-binsvc/logging"
	"github.com/smnsjas/go-binsvc/process"
	"github.com/smnsjas/go-binsvc/protocol"
)

// DefaultCallTimeout applies when a Binding does not set one.
const DefaultCallTimeout = 30 * time.Second

// RootProvider supplies the resource root directory used to resolve service
// binaries. It is consulted at registration time only.
type RootProvider interface {
	ResourceRoot() string
}

type staticRoot string

func (r staticRoot) ResourceRoot() string { return string(r) }

type cwdRoot struct{}

func (cwdRoot) ResourceRoot() string {
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}

// startFunc spawns a process; replaced in tests.
type startFunc func(path string, hooks process.Hooks) (procHandle, error)

// Registry owns every registered binary service: one entry per logical name,
// each with its own process, framer, pending-call table and event dispatcher.
//
// Registration is expected at startup; Call may be used concurrently from any
// goroutine. Entries for different services share no mutable state.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry

	log      logging.Logger
	root     RootProvider
	platform string
	start    startFunc
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the structured logger. The default discards everything.
func WithLogger(log logging.Logger) Option {
	return func(r *Registry) {
		if log != nil {
			r.log = log
		}
	}
}

// WithRoot fixes the resource root to a directory.
func WithRoot(dir string) Option {
	return func(r *Registry) { r.root = staticRoot(dir) }
}

// WithRootProvider sets the resource root provider. The default is the
// process working directory.
func WithRootProvider(p RootProvider) Option {
	return func(r *Registry) {
		if p != nil {
			r.root = p
		}
	}
}

// WithPlatform overrides the platform directory used in binary resolution.
// The default is runtime.GOOS.
func WithPlatform(platform string) Option {
	return func(r *Registry) {
		if platform != "" {
			r.platform = platform
		}
	}
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		entries:  make(map[string]*entry),
		log:      logging.Nop(),
		root:     cwdRoot{},
		platform: runtime.GOOS,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.start = func(path string, hooks process.Hooks) (procHandle, error) {
		return process.Start(path, nil, hooks, r.log)
	}
	return r
}

// Register creates the entry for a service, resolves its binary and spawns
// the process.
//
// Invalid input (empty name, unsafe binary name) returns an error. A
// duplicate name is logged and ignored: at most one entry per name, ever,
// and the first registration's binary and timeout stand. A missing binary
// leaves the entry in StatusMissing without error; calls against it fail
// as unavailable.
func (r *Registry) Register(b Binding) error {
	if strings.TrimSpace(b.Name) == "" {
		return fmt.Errorf("register: service name must not be empty")
	}
	if !validBinaryName(b.Binary) {
		return fmt.Errorf("register: invalid binary name %q (want letters, digits, underscore, hyphen)", b.Binary)
	}

	r.mu.Lock()
	if _, exists := r.entries[b.Name]; exists {
		r.mu.Unlock()
		r.log.Warn("duplicate service registration ignored", "service", b.Name)
		return nil
	}
	e := newEntry(b, r.log)
	r.entries[b.Name] = e
	r.mu.Unlock()

	root := r.root.ResourceRoot()
	path, found := resolveBinary(root, r.platform, b.Binary)
	if !found {
		e.mu.Lock()
		e.status = StatusMissing
		e.mu.Unlock()
		r.log.Error("service binary not found",
			"service", b.Name, "binary", b.Binary, "root", root, "platform", r.platform)
		return nil
	}
	e.resolvedPath = path

	// Hold the entry lock across the spawn so an instant crash cannot mark
	// the entry Offline before it was ever Online.
	e.mu.Lock()
	proc, err := r.start(path, process.Hooks{
		OnStdout: e.framer.Push,
		OnStderrLine: func(line string) {
			r.log.Warn("service stderr", "service", b.Name, "line", line)
		},
		OnExit: e.handleExit,
	})
	if err != nil {
		e.status = StatusOffline
		e.mu.Unlock()
		r.log.Error("failed to start service process",
			"service", b.Name, "path", path, "err", err)
		return nil
	}
	e.proc = proc
	e.status = StatusOnline
	e.mu.Unlock()

	r.log.Info("service online", "service", b.Name, "path", path, "pid", proc.PID())
	return nil
}

// Call invokes an action on a registered service and waits for settlement.
//
// The request is one line on the child's stdin; the returned result is the
// opaque JSON the child answered with. The call settles exactly once, by
// whichever comes first: a matching response, the timeout, or process death.
func (r *Registry) Call(ctx context.Context, service, action string, params []any, opts ...CallOption) (json.RawMessage, error) {
	r.mu.RLock()
	e := r.entries[service]
	r.mu.RUnlock()

	if e == nil {
		return nil, fmt.Errorf("service %q not registered: %w", service, ErrUnavailable)
	}
	proc, ok := e.liveProc()
	if !ok {
		return nil, fmt.Errorf("service %q is %s: %w", service, e.currentStatus(), ErrUnavailable)
	}

	var cfg callConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	timeout := e.timeoutFor(action, cfg.timeout)

	id := uuid.NewString()
	line, err := protocol.EncodeRequest(id, action, params)
	if err != nil {
		return nil, fmt.Errorf("service %q action %q: %w", service, action, err)
	}

	expire := fmt.Errorf("service %q action %q after %s: %w", service, action, timeout, ErrTimeout)

	// Track before writing so a fast response always finds its entry.
	call := e.pending.Track(id, timeout, expire)

	if err := proc.Write(line); err != nil {
		// Claim our own entry; nobody else may settle a call never sent.
		e.pending.Settle(id, nil, nil)
		return nil, fmt.Errorf("service %q action %q: %w", service, action, err)
	}
	r.log.Debug("request sent", "service", service, "action", action, "id", id)

	return call.Wait(ctx)
}

// Status reports the lifecycle state of a registered service.
func (r *Registry) Status(service string) (Status, bool) {
	r.mu.RLock()
	e := r.entries[service]
	r.mu.RUnlock()

	if e == nil {
		return StatusOffline, false
	}
	return e.currentStatus(), true
}

// Pending returns the number of in-flight calls for a service. Zero for
// unknown services.
func (r *Registry) Pending(service string) int {
	r.mu.RLock()
	e := r.entries[service]
	r.mu.RUnlock()

	if e == nil {
		return 0
	}
	return e.pending.Len()
}

// Close kills every live service process. Exit hooks mark the entries
// Offline and fail any pending calls; subsequent calls reject as
// unavailable. Close is idempotent. Entries are kept so status remains
// observable after shutdown.
func (r *Registry) Close() {
	r.mu.RLock()
	entries := make([]*entry, 0, len(r.entries))
	for _, e := range r.entries {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	for _, e := range entries {
		if proc, ok := e.liveProc(); ok {
			if err := proc.Kill(); err != nil {
				r.log.Warn("failed to kill service process", "service", e.name, "err", err)
			}
		}
	}
}
