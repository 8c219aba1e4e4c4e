// Package identity derives per-session participant identifiers.
package identity

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Generate produces a participant id of the form
// <userID>_<8 lowercase alphanumeric>_<YYYYMMDD>. A fresh id is generated for
// every session start; collisions are accepted as negligible and not checked
// against any registry.
func Generate(userID string, now time.Time) string {
	random := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	date := now.Format("20060102")
	return fmt.Sprintf("%s_%s_%s", userID, random, date)
}
