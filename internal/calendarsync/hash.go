package calendarsync

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/barbridge/barbridge/backend/internal/scheduling"
)

// Fingerprint computes a stable content hash over the mutable appointment
// fields. Syncing the same snapshot twice yields the same hash, so mirrors
// only need rewriting when something actually changed.
func Fingerprint(a scheduling.Appointment) string {
	fields := []string{
		a.Title,
		a.Description,
		string(a.Modality),
		a.Location,
		a.VideoURL,
		a.StartsAt.UTC().Format(time.RFC3339),
		a.EndsAt.UTC().Format(time.RFC3339),
		a.Timezone,
		string(a.Status),
	}
	sum := sha256.Sum256([]byte(strings.Join(fields, "\x1f")))
	return hex.EncodeToString(sum[:])
}
