package archive

import (
	"context"
	"sync"

	"github.com/zeninapp/zenin-ingest/internal/domain"
)

// MemoryArchive is an in-memory Archive, safe for concurrent use. Data is
// lost on restart; it serves tests and local development without Redis.
type MemoryArchive struct {
	mu   sync.RWMutex
	last *domain.NotificationPayload
}

// NewMemoryArchive creates an empty in-memory archive.
func NewMemoryArchive() *MemoryArchive {
	return &MemoryArchive{}
}

// SetLast implements the Archive interface.
func (a *MemoryArchive) SetLast(ctx context.Context, p *domain.NotificationPayload) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	// Copy so the caller cannot mutate the archived value afterwards.
	cp := *p
	a.last = &cp
	return nil
}

// Last implements the Archive interface.
func (a *MemoryArchive) Last(ctx context.Context) (*domain.NotificationPayload, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.last == nil {
		return nil, nil
	}
	cp := *a.last
	return &cp, nil
}

var _ Archive = (*MemoryArchive)(nil)
