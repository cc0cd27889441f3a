// Package rpc defines the reply envelope exchanged over message-pattern request-reply.
//
// A successful reply is {"response": <payload>}; a failed one is
// {"err": {"message": "...", "status": 404, "code": "PRODUCT_NOT_FOUND"}}.
// Status values are HTTP-equivalent so gateways can forward them unchanged.
package rpc

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Error is the wire representation of a failed command.
type Error struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
	Code    string `json:"code,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("rpc error %d %s: %s", e.Status, e.Code, e.Message)
}

// IsClientError reports whether the failure was caused by the request rather than the service.
func (e *Error) IsClientError() bool {
	return e.Status >= http.StatusBadRequest && e.Status < http.StatusInternalServerError
}

// Reply is the envelope written back to the requester.
type Reply struct {
	Response json.RawMessage `json:"response,omitempty"`
	Err      *Error          `json:"err,omitempty"`
}

// EncodeResponse wraps a successful result.
func EncodeResponse(v any) ([]byte, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode response: %w", err)
	}
	return json.Marshal(Reply{Response: payload})
}

// EncodeError wraps a failure.
func EncodeError(e *Error) []byte {
	data, err := json.Marshal(Reply{Err: e})
	if err != nil {
		// Error only holds strings and ints.
		panic(err)
	}
	return data
}

// DecodeReply unwraps an envelope into out. A failed reply is returned as *Error.
func DecodeReply(data []byte, out any) error {
	var reply Reply
	if err := json.Unmarshal(data, &reply); err != nil {
		return fmt.Errorf("failed to decode reply: %w", err)
	}
	if reply.Err != nil {
		return reply.Err
	}
	if out == nil || len(reply.Response) == 0 {
		return nil
	}
	if err := json.Unmarshal(reply.Response, out); err != nil {
		return fmt.Errorf("failed to decode reply payload: %w", err)
	}
	return nil
}
