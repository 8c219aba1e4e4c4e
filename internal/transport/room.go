// Package transport owns the realtime room channel: connect, disconnect,
// reconnect notification, and raw frame delivery. Callers treat the room as
// an opaque bidirectional byte channel.
package transport

import "context"

// PublishOptions control how a frame is published.
type PublishOptions struct {
	// Topic is the logical subchannel the frame belongs to.
	Topic string
	// Reliable frames must not be silently dropped.
	Reliable bool
}

// Events is the connection-lifecycle callback set. Callbacks fire in
// delivery order from a single goroutine; OnData receives each inbound frame
// payload verbatim. Nil callbacks are skipped.
type Events struct {
	OnConnected    func()
	OnDisconnected func(reason string)
	OnReconnecting func()
	OnReconnected  func()
	OnData         func(payload []byte)
}

func (e Events) connected() {
	if e.OnConnected != nil {
		e.OnConnected()
	}
}

func (e Events) disconnected(reason string) {
	if e.OnDisconnected != nil {
		e.OnDisconnected(reason)
	}
}

func (e Events) reconnecting() {
	if e.OnReconnecting != nil {
		e.OnReconnecting()
	}
}

func (e Events) reconnected() {
	if e.OnReconnected != nil {
		e.OnReconnected()
	}
}

func (e Events) data(payload []byte) {
	if e.OnData != nil {
		e.OnData(payload)
	}
}

// Room is a transient bidirectional session with the realtime server. A Room
// is single-use: once disconnected it cannot be connected again.
type Room interface {
	// Connect establishes the channel using the given access token.
	Connect(ctx context.Context, token string) error
	// Publish sends one frame. Returns an error for reliable frames that
	// could not be handed to the channel.
	Publish(ctx context.Context, payload []byte, opts PublishOptions) error
	// Disconnect tears the channel down. Idempotent.
	Disconnect() error
}

// Dialer creates a Room wired to the given event callbacks. The controller
// owns the returned Room exclusively.
type Dialer func(events Events) Room
