package chattypes

import (
	"errors"
	"fmt"
)

// ErrNotConnected is returned by Send when the connection is not open.
var ErrNotConnected = errors.New("not connected")

// ConnectionError reports a socket that failed to open or failed while open.
type ConnectionError struct {
	Op  string
	URL string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection %s %s: %v", e.Op, e.URL, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// MalformedMessageError reports an inbound frame that is not valid JSON.
// The payload is still shown to the user as plain text.
type MalformedMessageError struct {
	Payload string
	Err     error
}

func (e *MalformedMessageError) Error() string {
	return fmt.Sprintf("malformed message (%d bytes): %v", len(e.Payload), e.Err)
}

func (e *MalformedMessageError) Unwrap() error {
	return e.Err
}

// SerializationError reports tool arguments that could not be formatted.
type SerializationError struct {
	Err error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("failed to format tool arguments: %v", e.Err)
}

func (e *SerializationError) Unwrap() error {
	return e.Err
}
