package controller

import "github.com/nitish-vaani/codeyoung/internal/domain"

// shouldFlagUnread reports whether appending a message of the given kind
// while the surface has the given visibility should raise the unread flag.
// Only agent content arriving on a hidden surface counts.
func shouldFlagUnread(kind domain.MessageKind, surfaceVisible bool) bool {
	return kind == domain.KindAgent && !surfaceVisible
}
