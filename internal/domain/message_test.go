package domain

import (
	"regexp"
	"testing"
	"time"
)

func TestNewChatMessageIDFormat(t *testing.T) {
	t.Parallel()

	now := time.Now()
	msg := NewChatMessage(KindAgent, "hi", "Agent", now)

	pattern := regexp.MustCompile(`^msg_\d+_[a-z0-9]{9}$`)
	if !pattern.MatchString(msg.ID) {
		t.Fatalf("message id %q does not match expected pattern", msg.ID)
	}

	other := NewChatMessage(KindAgent, "hi", "Agent", now)
	if msg.ID == other.ID {
		t.Fatalf("consecutive message ids should differ, both were %q", msg.ID)
	}
}

func TestNewChatMessageSenderDefaultsToKind(t *testing.T) {
	t.Parallel()

	msg := NewChatMessage(KindSystem, "session ended", "", time.Now())
	if msg.Sender != "system" {
		t.Fatalf("expected sender to default to kind, got %q", msg.Sender)
	}
}
