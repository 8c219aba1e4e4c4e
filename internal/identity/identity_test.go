package identity

import (
	"regexp"
	"testing"
	"time"
)

func TestGenerateFormat(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	id := Generate("bob", now)

	pattern := regexp.MustCompile(`^bob_[a-z0-9]{8}_\d{8}$`)
	if !pattern.MatchString(id) {
		t.Fatalf("participant id %q does not match expected pattern", id)
	}
	if want := "_20250314"; id[len(id)-9:] != want {
		t.Fatalf("participant id %q does not end with %q", id, want)
	}
}

func TestGenerateUniquePerCall(t *testing.T) {
	t.Parallel()

	now := time.Now()
	a := Generate("bob", now)
	b := Generate("bob", now)
	if a == b {
		t.Fatalf("consecutive ids should differ, both were %q", a)
	}
}
