package store

import (
	"context"
	"sort"
	"sync"

	"github.com/zeninapp/zenin-ingest/internal/domain"
)

// MemoryStore is an in-memory TransactionStore, safe for concurrent use. It
// mirrors the conditional-write semantics of the Postgres store and serves
// tests and local development.
type MemoryStore struct {
	mu  sync.Mutex
	byKey map[string]*domain.PersistedTransaction
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byKey: make(map[string]*domain.PersistedTransaction)}
}

// Commit implements the TransactionStore interface with the same
// at-most-one-creation guarantee as the conditional insert.
func (s *MemoryStore) Commit(ctx context.Context, userID string, draft *domain.TransactionDraft) (CommitResult, error) {
	if err := ctx.Err(); err != nil {
		return Failed, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := userID + "\x00" + draft.Fingerprint
	if _, exists := s.byKey[key]; exists {
		return AlreadyExists, nil
	}
	s.byKey[key] = buildTransaction(userID, draft)
	return Created, nil
}

// ListByUser implements the TransactionStore interface.
func (s *MemoryStore) ListByUser(ctx context.Context, userID string) ([]*domain.PersistedTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []*domain.PersistedTransaction
	for _, t := range s.byKey {
		if t.UserID != userID {
			continue
		}
		cp := *t
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Date.After(result[j].Date)
	})
	return result, nil
}

var _ TransactionStore = (*MemoryStore)(nil)
