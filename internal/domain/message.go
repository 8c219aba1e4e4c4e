package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MessageKind classifies entries in the session message log.
type MessageKind string

const (
	KindUser   MessageKind = "user"
	KindAgent  MessageKind = "agent"
	KindSystem MessageKind = "system"
)

// ChatMessage is one immutable entry in the append-only message log.
// The log lives only as long as its session.
type ChatMessage struct {
	ID        string
	Kind      MessageKind
	Content   string
	Timestamp time.Time
	Sender    string
}

// NewChatMessage builds a log entry. An empty sender defaults to the kind
// string. IDs are unique within one log, not globally.
func NewChatMessage(kind MessageKind, content, sender string, now time.Time) ChatMessage {
	if sender == "" {
		sender = string(kind)
	}
	return ChatMessage{
		ID:        newMessageID(now),
		Kind:      kind,
		Content:   content,
		Timestamp: now,
		Sender:    sender,
	}
}

func newMessageID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("msg_%d_%s", now.UnixMilli(), suffix)
}
