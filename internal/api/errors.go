package api

import (
	"encoding/json"
	"fmt"
)

// The API wraps errors in up to two layers: the body is
// {"error": "<string>"}, and that string may itself be a JSON document
// with a "message" field. decodeAPIError unwraps both so callers see a
// flat message. This is the fixed protocol contract, applied uniformly
// to every call.
type errorEnvelope struct {
	Error string `json:"error"`
}

type nestedError struct {
	Message string `json:"message"`
}

// Error is the flattened API failure.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string { return e.Message }

func decodeAPIError(status int, body []byte) error {
	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != "" {
		var nested nestedError
		if err := json.Unmarshal([]byte(envelope.Error), &nested); err == nil && nested.Message != "" {
			return &Error{StatusCode: status, Message: nested.Message}
		}
		return &Error{StatusCode: status, Message: envelope.Error}
	}
	return &Error{StatusCode: status, Message: fmt.Sprintf("API request failed: %s", body)}
}
