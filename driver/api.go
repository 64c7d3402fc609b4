package driver

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// APIError carries the backend's status code and its error message when a
// request completes with a non-2xx status.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed with status %d", e.StatusCode)
}

// DecodeAPIError extracts the backend's error message from a failed response
// body. The backend reports either {"error": "..."} or {"message": "..."}.
func DecodeAPIError(status int, body []byte) *APIError {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	_ = json.Unmarshal(body, &payload)

	message := payload.Error
	if message == "" {
		message = payload.Message
	}
	return &APIError{StatusCode: status, Message: message}
}

// DecodeEnvelope unmarshals a response body into v, accepting both the bare
// payload and the {"data": payload} envelope some endpoints wrap it in.
func DecodeEnvelope(body []byte, v any) error {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil &&
		len(envelope.Data) > 0 && !bytes.Equal(envelope.Data, []byte("null")) {
		return json.Unmarshal(envelope.Data, v)
	}
	return json.Unmarshal(body, v)
}
