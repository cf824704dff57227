// Command binsvc-echo is a reference binary service.
//
// It speaks the newline-delimited JSON protocol on stdin/stdout and exists
// for demos and manual testing of hosts. Supported actions:
//
//	echo   - result is the params array as received
//	sum    - result is the numeric sum of params
//	sleep  - waits params[0] milliseconds, then answers ok
//	fail   - answers status "error" with params[0] (or a default message)
//	emit   - emits an event named params[0] with data params[1], then ok
//
// Anything else answers a status "error" response. Diagnostics go to stderr,
// which a host logs as warnings and never parses as protocol.
package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/smnsjas/go-binsvc/protocol"
)

func main() {
	out := bufio.NewWriter(os.Stdout)
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req protocol.Request
		if err := json.Unmarshal(line, &req); err != nil {
			fmt.Fprintf(os.Stderr, "binsvc-echo: skipping malformed line: %v\n", err)
			continue
		}

		reply, event := handle(req)
		if event != nil {
			writeLine(out, event)
		}
		writeLine(out, reply)
	}

	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "binsvc-echo: stdin: %v\n", err)
		os.Exit(1)
	}
}

// handle executes one request and returns the response line plus an optional
// event line to emit first.
func handle(req protocol.Request) (reply, event []byte) {
	switch req.Action {
	case "echo":
		reply = mustResponse(req.ID, protocol.StatusOK, req.Params, nil)

	case "sum":
		total := 0.0
		for _, p := range req.Params {
			n, ok := p.(float64)
			if !ok {
				reply = mustResponse(req.ID, protocol.StatusError,
					nil, fmt.Sprintf("sum: non-numeric param %v", p))
				return
			}
			total += n
		}
		reply = mustResponse(req.ID, protocol.StatusOK, total, nil)

	case "sleep":
		if len(req.Params) == 1 {
			if ms, ok := req.Params[0].(float64); ok {
				time.Sleep(time.Duration(ms) * time.Millisecond)
			}
		}
		reply = mustResponse(req.ID, protocol.StatusOK, "awake", nil)

	case "fail":
		payload := any("requested failure")
		if len(req.Params) > 0 {
			payload = req.Params[0]
		}
		reply = mustResponse(req.ID, protocol.StatusError, nil, payload)

	case "emit":
		if len(req.Params) < 1 {
			reply = mustResponse(req.ID, protocol.StatusError, nil, "emit: missing event name")
			return
		}
		name, ok := req.Params[0].(string)
		if !ok {
			reply = mustResponse(req.ID, protocol.StatusError, nil, "emit: event name must be a string")
			return
		}
		var data any
		if len(req.Params) > 1 {
			data = req.Params[1]
		}
		ev, err := protocol.EncodeEvent(name, data)
		if err != nil {
			reply = mustResponse(req.ID, protocol.StatusError, nil, err.Error())
			return
		}
		event = ev
		reply = mustResponse(req.ID, protocol.StatusOK, "emitted", nil)

	default:
		reply = mustResponse(req.ID, protocol.StatusError,
			nil, fmt.Sprintf("unknown action %q", req.Action))
	}
	return
}

func mustResponse(id, status string, result, errPayload any) []byte {
	line, err := protocol.EncodeResponse(id, status, result, errPayload)
	if err != nil {
		// Payloads here are our own values; encoding them cannot fail.
		fmt.Fprintf(os.Stderr, "binsvc-echo: encode response: %v\n", err)
		os.Exit(1)
	}
	return line
}

func writeLine(out *bufio.Writer, line []byte) {
	if _, err := out.Write(line); err != nil {
		fmt.Fprintf(os.Stderr, "binsvc-echo: stdout: %v\n", err)
		os.Exit(1)
	}
	if err := out.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "binsvc-echo: stdout: %v\n", err)
		os.Exit(1)
	}
}
