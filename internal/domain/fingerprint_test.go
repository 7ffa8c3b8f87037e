package domain

import (
	"testing"
	"time"
)

func TestFingerprint_Deterministic(t *testing.T) {
	p := NotificationPayload{
		Title:      "HDFC Bank",
		Text:       "Rs.500.00 debited from A/c XX1234 on 01-01-24 to Swiggy",
		ReceivedAt: time.Date(2024, 1, 1, 10, 30, 12, 0, time.UTC),
	}

	first := p.Fingerprint()
	second := p.Fingerprint()
	if first != second {
		t.Errorf("Fingerprint not deterministic: %q vs %q", first, second)
	}
	if len(first) != 64 {
		t.Errorf("Fingerprint length = %d, want 64 hex chars", len(first))
	}
}

func TestFingerprint_MinuteTruncation(t *testing.T) {
	base := NotificationPayload{
		Title:      "HDFC Bank",
		Text:       "Rs.500.00 debited",
		ReceivedAt: time.Date(2024, 1, 1, 10, 30, 5, 0, time.UTC),
	}
	sameMinute := base
	sameMinute.ReceivedAt = time.Date(2024, 1, 1, 10, 30, 55, 0, time.UTC)
	nextMinute := base
	nextMinute.ReceivedAt = time.Date(2024, 1, 1, 10, 31, 5, 0, time.UTC)

	if base.Fingerprint() != sameMinute.Fingerprint() {
		t.Error("payloads within the same minute should share a fingerprint")
	}
	if base.Fingerprint() == nextMinute.Fingerprint() {
		t.Error("payloads a minute apart should not share a fingerprint")
	}
}

func TestFingerprint_WhitespaceAndCaseInsensitive(t *testing.T) {
	at := time.Date(2024, 1, 1, 10, 30, 0, 0, time.UTC)
	a := NotificationPayload{Title: "HDFC Bank", Text: "Rs.500 debited  to Swiggy", ReceivedAt: at}
	b := NotificationPayload{Title: " hdfc  bank ", Text: "RS.500 DEBITED TO SWIGGY", ReceivedAt: at}

	if a.Fingerprint() != b.Fingerprint() {
		t.Error("normalization should make fingerprints case and whitespace insensitive")
	}
}

func TestFingerprint_DistinctText(t *testing.T) {
	at := time.Date(2024, 1, 1, 10, 30, 0, 0, time.UTC)
	a := NotificationPayload{Title: "HDFC Bank", Text: "Rs.500 debited", ReceivedAt: at}
	b := NotificationPayload{Title: "HDFC Bank", Text: "Rs.501 debited", ReceivedAt: at}

	if a.Fingerprint() == b.Fingerprint() {
		t.Error("different texts must not collide")
	}
}
