// Package codec translates between application chat messages and the binary
// frame payloads carried by the room transport.
package codec

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/nitish-vaani/codeyoung/internal/domain"
)

// EventType is the closed set of effects an inbound frame can have.
type EventType int

const (
	// EventIgnored covers non-agent senders, blank text, and unrecognized
	// message types. No observable effect.
	EventIgnored EventType = iota
	// EventAgentText appends an agent message and clears the typing flag.
	EventAgentText
	// EventTextComplete is a deliberate no-op: the protocol defines the type
	// but it produces no observable effect.
	EventTextComplete
	// EventToolStart sets the typing flag and appends an annotated system
	// message.
	EventToolStart
	// EventToolSuccess appends an annotated system message.
	EventToolSuccess
	// EventToolError appends an annotated system message.
	EventToolError
)

// Event is one decoded inbound frame.
type Event struct {
	Type    EventType
	Content string
}

// Markers prefixed to tool lifecycle system messages.
const (
	MarkerToolStart   = "[tool]"
	MarkerToolSuccess = "[ok]"
	MarkerToolError   = "[error]"
)

// EncodeUserMessage serializes an outgoing user message to a frame payload.
func EncodeUserMessage(content string, now time.Time) ([]byte, error) {
	msg := domain.WireMessage{
		Type:      domain.MsgTypeUserMessage,
		Content:   content,
		Timestamp: now.UTC().Format(time.RFC3339),
		Sender:    domain.SenderUser,
	}
	return json.Marshal(msg)
}

// Decode parses one inbound frame payload. A payload that is not valid JSON
// yields a DecodeError; the caller logs and drops it. Frames from senders
// other than the agent decode to EventIgnored.
func Decode(payload []byte) (Event, error) {
	var msg domain.WireMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Event{}, &domain.DecodeError{Err: err}
	}

	if msg.Sender != domain.SenderAgent {
		return Event{Type: EventIgnored}, nil
	}

	switch msg.Type {
	case domain.MsgTypeText, domain.MsgTypeTextChunk:
		if strings.TrimSpace(msg.Content) == "" {
			return Event{Type: EventIgnored}, nil
		}
		return Event{Type: EventAgentText, Content: msg.Content}, nil
	case domain.MsgTypeTextComplete:
		return Event{Type: EventTextComplete}, nil
	case domain.MsgTypeToolStart:
		return Event{Type: EventToolStart, Content: MarkerToolStart + " " + msg.Content}, nil
	case domain.MsgTypeToolSuccess:
		return Event{Type: EventToolSuccess, Content: MarkerToolSuccess + " " + msg.Content}, nil
	case domain.MsgTypeToolError:
		return Event{Type: EventToolError, Content: MarkerToolError + " " + msg.Content}, nil
	default:
		return Event{Type: EventIgnored}, nil
	}
}
