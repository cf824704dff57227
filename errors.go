package binsvc

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/smnsjas/go-binsvc/protocol"
)

var (
	// ErrUnavailable is returned by Call when the service is not registered,
	// not Online, or has no live process. No I/O is attempted.
	ErrUnavailable = errors.New("service unavailable")
	// ErrTimeout is returned when no response arrives within the call's
	// timeout window. A response arriving afterward is silently dropped.
	ErrTimeout = errors.New("call timed out")
	// ErrProcessExited is returned for every call that was pending when the
	// service process exited or failed. The service stays Offline.
	ErrProcessExited = errors.New("service process exited")
)

// RemoteError is the failure reported by the process itself: a response with
// status "error". Payload is the process-supplied error value, opaque JSON.
type RemoteError struct {
	Service string
	Payload json.RawMessage
}

// Error returns a message containing the process-supplied error text.
func (e *RemoteError) Error() string {
	return fmt.Sprintf("service %q: remote error: %s", e.Service, protocol.ErrorMessage(e.Payload))
}
