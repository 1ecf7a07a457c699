package turnstream

import (
	"errors"
	"fmt"
)

// DefaultStreamErrorDetail is reported for error frames without a detail.
const DefaultStreamErrorDetail = "Erreur pendant le streaming."

var (
	// ErrNoDone is the cause of a protocol error for streams that ended
	// without a done frame.
	ErrNoDone = errors.New("stream ended before the turn was done")

	// ErrStreamUnsupported is the cause of a transport error for responses
	// that carry no readable body.
	ErrStreamUnsupported = errors.New("streaming is not supported by the response")

	// ErrStreamFailed is the cause of a protocol error for streams that
	// reported an error frame.
	ErrStreamFailed = errors.New("stream reported an error")
)

type ErrorKind string

const (
	// TransportError covers connection failures, non-2xx responses and read
	// failures.
	TransportError ErrorKind = "transport"
	// ProtocolError covers well transported streams that did not produce a
	// valid turn.
	ProtocolError ErrorKind = "protocol"
)

// StreamError is returned when streaming a turn fails. Detail is suitable
// for the operator.
type StreamError struct {
	Kind   ErrorKind
	Detail string
	Cause  error
}

func (e *StreamError) Error() string {
	message := fmt.Sprintf("turn stream %s error", e.Kind)
	if e.Detail != "" {
		message += ": " + e.Detail
	}
	if e.Cause != nil {
		message += ": " + e.Cause.Error()
	}
	return message
}

func (e *StreamError) Unwrap() error {
	return e.Cause
}

func IsTransport(err error) bool {
	return kindOf(err) == TransportError
}

func IsProtocol(err error) bool {
	return kindOf(err) == ProtocolError
}

func kindOf(err error) ErrorKind {
	var streamErr *StreamError
	if errors.As(err, &streamErr) {
		return streamErr.Kind
	}
	return ""
}
