// Package binsvc manages binary services: external, independently executed
// programs run as long-lived child processes and reachable only through a
// newline-delimited JSON protocol on their stdin/stdout.
//
// Application code talks to a binary service the way it talks to any other
// dependency, a method call that returns a result or an error, while the
// real work happens in the child process. The registry owns the machinery in
// between: spawning, line framing, request/response correlation, out-of-band
// event dispatch, and turning process death into failed calls.
//
// # Wire Protocol
//
// One JSON object per line, UTF-8, newline-terminated:
//
//	host → process  {"id":"<opaque>","action":"scan","params":[42]}
//	process → host  {"id":"<same>","status":"ok","result":{"clean":true}}
//	process → host  {"id":"<same>","status":"error","error":"scan failed"}
//	process → host  {"type":"event","event":"detection","data":{"player":9}}
//
// Responses are matched by id, not arrival order; the child may answer out of
// order. Events carry no id and are routed to handlers registered at
// registration time.
//
// # Binary Resolution
//
// A service is registered under a logical binary name (letters, digits,
// underscore, hyphen; no extension, no path separators). The executable is
// searched relative to the resource root:
//
//	<root>/bin/<platform>/<name>[.exe]
//	<root>/bin/<name>[.exe]
//
// If neither exists the service is Missing: nothing is spawned and every call
// fails as unavailable.
//
// # Usage
//
//	reg := binsvc.New(binsvc.WithLogger(log))
//	err := reg.Register(binsvc.Binding{
//	    Name:           "anti-cheat",
//	    Binary:         "anticheat-core",
//	    DefaultTimeout: 5 * time.Second,
//	    Events: map[string]events.Handler{
//	        "detection": onDetection,
//	    },
//	})
//
//	result, err := reg.Call(ctx, "anti-cheat", "scan", []any{playerID})
//
// A typed adapter wraps the forwarding half:
//
//	type AntiCheat struct{ c *binsvc.Caller }
//
//	func (a *AntiCheat) Scan(ctx context.Context, playerID int) (ScanResult, error) {
//	    var res ScanResult
//	    err := a.c.Invoke(ctx, "scan", &res, playerID)
//	    return res, err
//	}
//
// # Failure Model
//
// Exactly four failure kinds reach a caller: ErrUnavailable (no live process),
// *RemoteError (the process answered status "error"), ErrTimeout (no answer in
// the window), and ErrProcessExited (the process died with the call pending).
// Malformed lines, responses with unknown ids and events without handlers are
// logged and dropped; they never fail anyone's call. A crashed service stays
// Offline; there is no automatic restart.
package binsvc
