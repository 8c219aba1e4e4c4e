package domain

import (
	"errors"
	"fmt"
)

// ErrNotAuthenticated is returned when no local user identity is available
// at session start. Fatal to the attempt, never retried automatically.
var ErrNotAuthenticated = errors.New("not authenticated: no local user identity")

// NegotiationError is an HTTP failure during session creation or token
// fetch. It carries the status code and body for diagnostics.
type NegotiationError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *NegotiationError) Error() string {
	return fmt.Sprintf("negotiation failed: %s returned status %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

// ProtocolError is a malformed or incomplete success response from either
// negotiation call (missing success flag, missing room_id/token, or a
// server-reported failure message).
type ProtocolError struct {
	Endpoint string
	Reason   string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol error from %s: %s", e.Endpoint, e.Reason)
}

// TransportError is a connect-time failure from the realtime channel.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// DecodeError is a malformed inbound frame. Recovered locally: logged and
// dropped, never surfaced to the user, never terminates the session.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode error: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// PublishError is an outbound send failure. The session stays connected; the
// caller surfaces a transient notice.
type PublishError struct {
	Err error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publish error: %v", e.Err)
}

func (e *PublishError) Unwrap() error { return e.Err }
