package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
	"unicode"
)

// NotificationPayload is the normalized shape of one delivered notification.
// The dispatcher owns it for the duration of a single invocation; it is never
// persisted except as the most-recent value in the raw archive.
type NotificationPayload struct {
	Title         string    `json:"title"`
	Text          string    `json:"text"`
	SourcePackage string    `json:"source_package"`
	ReceivedAt    time.Time `json:"received_at"`
}

// Fingerprint derives the idempotency key for this payload: a SHA-256 over
// the normalized title and text plus the receipt time truncated to the
// minute, so a redelivered notification maps to the same key.
func (p NotificationPayload) Fingerprint() string {
	h := sha256.New()
	h.Write([]byte(normalizeForFingerprint(p.Title)))
	h.Write([]byte{0})
	h.Write([]byte(normalizeForFingerprint(p.Text)))
	h.Write([]byte{0})
	h.Write([]byte(p.ReceivedAt.UTC().Truncate(time.Minute).Format(time.RFC3339)))
	return hex.EncodeToString(h.Sum(nil))
}

// normalizeForFingerprint lower-cases the input and collapses runs of
// whitespace so cosmetic differences between redeliveries do not change
// the fingerprint.
func normalizeForFingerprint(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if unicode.IsSpace(r) {
			space = true
			continue
		}
		if space {
			b.WriteByte(' ')
			space = false
		}
		b.WriteRune(r)
	}
	return b.String()
}
