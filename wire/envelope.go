package wire

import (
	"encoding/json"
	"fmt"
	"time"
)

// Request is one command envelope sent by the host. The ID is opaque to
// the worker: whatever JSON value the host chose (string, number, null or
// absent) is carried through untouched and echoed on the response.
type Request struct {
	ID      json.RawMessage `json:"id"`
	Command string          `json:"command"`
	Args    map[string]any  `json:"args"`
}

// Response is the worker's reply to a single Request. Success reports
// whether the command dispatch itself completed; command-level failures
// such as an unknown program still arrive as Success true with an error
// status inside Result. Exactly one of Result and Error is set.
type Response struct {
	ID        json.RawMessage `json:"id"`
	Success   bool            `json:"success"`
	Result    map[string]any  `json:"result,omitempty"`
	Error     string          `json:"error,omitempty"`
	Timestamp float64         `json:"timestamp"`
}

// epochSeconds is the wall clock as fractional seconds since the Unix
// epoch, the timestamp convention of the envelope.
func epochSeconds() float64 {
	return float64(time.Now().UnixNano()) / float64(time.Second)
}

// NewResponse builds a successful response for the given request ID.
func NewResponse(id json.RawMessage, result map[string]any) *Response {
	return &Response{
		ID:        id,
		Success:   true,
		Result:    result,
		Timestamp: epochSeconds(),
	}
}

// NewFaultResponse builds a dispatch-failure response for the given
// request ID. It is reserved for faults in the worker machinery itself.
func NewFaultResponse(id json.RawMessage, msg string) *Response {
	return &Response{
		ID:        id,
		Success:   false,
		Error:     msg,
		Timestamp: epochSeconds(),
	}
}

// DecodeRequest parses a frame payload into a Request.
func DecodeRequest(payload []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, fmt.Errorf("failed to decode request: %w", err)
	}
	return &req, nil
}

// EncodeResponse serializes resp as compact JSON suitable for a frame
// payload.
func EncodeResponse(resp *Response) ([]byte, error) {
	payload, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to encode response: %w", err)
	}
	return payload, nil
}
