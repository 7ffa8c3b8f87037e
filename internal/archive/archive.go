// Package archive keeps the single most-recent raw notification, written on
// every invocation regardless of classification outcome. It is a diagnostic
// and recovery surface: when a template is missed, the raw payload is still
// there to inspect.
package archive

import (
	"context"

	"github.com/zeninapp/zenin-ingest/internal/domain"
)

// lastNotificationKey is the slot name in the backing key-value store.
const lastNotificationKey = "lastNotification"

// Archive is a last-value slot with overwrite semantics.
type Archive interface {
	// SetLast overwrites the archived payload with p.
	SetLast(ctx context.Context, p *domain.NotificationPayload) error

	// Last returns the most recently archived payload, or nil when nothing
	// has been archived yet.
	Last(ctx context.Context) (*domain.NotificationPayload, error)
}
