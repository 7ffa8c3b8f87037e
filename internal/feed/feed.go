// Package feed models the notification source: an external listener that
// delivers raw payloads asynchronously with at-least-once semantics. After a
// process restart the host may redeliver a backlog, so consumers must
// tolerate duplicate deliveries; the committer's fingerprint dedup is what
// makes that safe.
package feed

import (
	"context"
	"time"

	"github.com/zeninapp/zenin-ingest/internal/domain"
)

// Delivery is one asynchronous hand-off of a notification payload.
type Delivery struct {
	// DeliveryID identifies this hand-off, not the notification: a
	// redelivered notification gets a new DeliveryID but the same payload.
	DeliveryID string `json:"delivery_id"`

	// Payload is the normalized notification.
	Payload domain.NotificationPayload `json:"payload"`

	// Attempt counts deliveries of this payload, starting at 1.
	Attempt int `json:"attempt"`

	// EnqueuedAt is when the delivery entered the feed.
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// Handler processes one delivery. A returned error signals the invocation
// did not complete and the feed may redeliver.
type Handler func(ctx context.Context, d *Delivery) error

// Publisher pushes deliveries into the feed.
type Publisher interface {
	// Publish enqueues a delivery.
	Publish(ctx context.Context, d *Delivery) error

	// Close closes the publisher and releases resources.
	Close() error
}

// Consumer drains the feed.
type Consumer interface {
	// Start begins consuming deliveries, invoking handler for each.
	Start(ctx context.Context, handler Handler) error

	// Stop stops consuming and waits for in-flight deliveries to finish.
	Stop(ctx context.Context) error
}
