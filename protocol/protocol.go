// Package protocol defines the wire envelopes exchanged with a binary service.
//
// The protocol is newline-delimited UTF-8 JSON on the child process's
// stdin/stdout. Three envelope shapes exist:
//
//	host → process  {"id":"<opaque>","action":"<string>","params":[...]}
//	process → host  {"id":"<same>","status":"ok"|"error","result"?:...,"error"?:...}
//	process → host  {"type":"event","event":"<string>","data"?:...}
//
// Responses are matched to requests by the opaque id; events carry no id and
// are spontaneous. Result, error and data payloads are opaque JSON; this
// package never interprets them beyond classification.
//
// Classification is deliberately lenient (gjson peeks at a field or two)
// because a malformed line must be logged and dropped, never turned into a
// failure of an unrelated call. Decoding is strict.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

// Response status values.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// TypeEvent marks an envelope as an out-of-band event.
const TypeEvent = "event"

var (
	// ErrMissingID is returned when a response envelope has no string id.
	ErrMissingID = errors.New("response missing id")
	// ErrMissingEvent is returned when an event envelope has no event name.
	ErrMissingEvent = errors.New("event missing name")
)

// Request is the host→process call envelope.
type Request struct {
	ID     string `json:"id"`
	Action string `json:"action"`
	Params []any  `json:"params"`
}

// Response is the process→host reply envelope. Result and Error are opaque.
type Response struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  json.RawMessage `json:"error,omitempty"`
}

// Event is the process→host spontaneous notification envelope.
type Event struct {
	Type  string          `json:"type"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Kind classifies one framed line.
type Kind int

const (
	// KindInvalid means the line is not a JSON object.
	KindInvalid Kind = iota
	// KindResponse means the line should be decoded as a Response.
	KindResponse
	// KindEvent means the line should be decoded as an Event.
	KindEvent
)

// String returns a string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "Invalid"
	case KindResponse:
		return "Response"
	case KindEvent:
		return "Event"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// Classify inspects a framed line without fully decoding it.
// Anything that is not a JSON object is KindInvalid; an object with
// type=="event" is KindEvent; every other object is treated as a response.
func Classify(line []byte) Kind {
	if !gjson.ValidBytes(line) {
		return KindInvalid
	}
	v := gjson.ParseBytes(line)
	if !v.IsObject() {
		return KindInvalid
	}
	if v.Get("type").Str == TypeEvent {
		return KindEvent
	}
	return KindResponse
}

// EncodeRequest serializes one request as a newline-terminated line.
// Params are always encoded as an array, never null.
func EncodeRequest(id, action string, params []any) ([]byte, error) {
	if params == nil {
		params = []any{}
	}
	b, err := json.Marshal(Request{ID: id, Action: action, Params: params})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	return append(b, '\n'), nil
}

// EncodeResponse serializes one response as a newline-terminated line.
// The result and error payloads are marshaled as-is; a nil error payload with
// StatusError still encodes (the host will report an unknown error).
func EncodeResponse(id, status string, result, errPayload any) ([]byte, error) {
	r := Response{ID: id, Status: status}
	var err error
	if result != nil {
		if r.Result, err = json.Marshal(result); err != nil {
			return nil, fmt.Errorf("encode result: %w", err)
		}
	}
	if errPayload != nil {
		if r.Error, err = json.Marshal(errPayload); err != nil {
			return nil, fmt.Errorf("encode error payload: %w", err)
		}
	}
	b, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	return append(b, '\n'), nil
}

// EncodeEvent serializes one event as a newline-terminated line.
func EncodeEvent(event string, data any) ([]byte, error) {
	e := Event{Type: TypeEvent, Event: event}
	var err error
	if data != nil {
		if e.Data, err = json.Marshal(data); err != nil {
			return nil, fmt.Errorf("encode event data: %w", err)
		}
	}
	b, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encode event: %w", err)
	}
	return append(b, '\n'), nil
}

// DecodeResponse strictly decodes a response line.
// The id must be present as a non-empty JSON string.
func DecodeResponse(line []byte) (*Response, error) {
	var r Response
	if err := json.Unmarshal(line, &r); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if r.ID == "" {
		return nil, ErrMissingID
	}
	return &r, nil
}

// DecodeEvent strictly decodes an event line.
func DecodeEvent(line []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(line, &e); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}
	if e.Event == "" {
		return nil, ErrMissingEvent
	}
	return &e, nil
}

// ErrorMessage extracts a human-readable message from an opaque remote error
// payload. A JSON string is unquoted, an object's "message" field is
// preferred, anything else is returned as raw JSON text.
func ErrorMessage(payload json.RawMessage) string {
	if len(payload) == 0 {
		return "unknown error"
	}
	v := gjson.ParseBytes(payload)
	switch {
	case v.Type == gjson.String:
		return v.Str
	case v.IsObject() && v.Get("message").Type == gjson.String:
		return v.Get("message").Str
	default:
		return string(payload)
	}
}
