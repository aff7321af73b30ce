package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

const FallbackMessage = "An error occurred while processing your request."

// ErrEmptyInput is returned for input that is empty after trimming whitespace
var ErrEmptyInput = errors.New("empty input")

// Classifier sends text to an inference backend and returns the decoded response body
type Classifier interface {
	Classify(ctx context.Context, text string) (json.RawMessage, error)
	Name() string
}

// TransportError wraps network failures, including timeouts
type TransportError struct {
	Err     error
	Timeout bool
}

func (e *TransportError) Error() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func (e *TransportError) Unwrap() error { return e.Err }

// ServerError represents a non-2xx response. Message is the body's "message" field, if any.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("request failed with status code %d", e.StatusCode)
}

// MalformedResponseError is returned when a 2xx body is not valid JSON
type MalformedResponseError struct {
	Err error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("failed to decode response: %v", e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// Describe turns a classification error into the message shown to the user.
func Describe(err error) string {
	if err == nil {
		return ""
	}

	var serverErr *ServerError
	if errors.As(err, &serverErr) && serverErr.Message != "" {
		return serverErr.Message
	}

	if msg := err.Error(); msg != "" {
		return msg
	}
	return FallbackMessage
}

// bodyMessage extracts a string "message" field from a JSON object body.
func bodyMessage(body []byte) string {
	var payload struct {
		Message json.RawMessage `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Message) == 0 {
		return ""
	}

	var msg string
	if err := json.Unmarshal(payload.Message, &msg); err != nil {
		return ""
	}
	return msg
}
