package domain

// ConnectionState tracks the realtime channel lifecycle. Exactly one value
// holds at any time; sending is permitted only in StateConnected.
type ConnectionState int

const (
	StateIdle ConnectionState = iota
	StateConnecting
	StateConnected
	StateReconnecting
	StateDisconnected
	StateFailed
)

func (s ConnectionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	case StateDisconnected:
		return "disconnected"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ChatSession is one negotiated, possibly-connected realtime session.
// Sessions are never reused: a new one is negotiated per start.
type ChatSession struct {
	SessionID     string
	RoomID        string
	ParticipantID string
	IsActive      bool
}
