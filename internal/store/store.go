// Package store commits transaction drafts to the durable per-user store.
// The commit is idempotent: the draft fingerprint acts as the key of a
// conditional write, so redelivered notifications create at most one record
// no matter how many invocations race. There is no retry and no outbox; a
// failed commit is logged by the caller and dropped.
package store

import (
	"context"

	"github.com/zeninapp/zenin-ingest/internal/domain"
)

// CommitResult is the outcome of one commit attempt.
type CommitResult string

const (
	// Created means a new transaction record was written.
	Created CommitResult = "created"
	// AlreadyExists means a record with the same fingerprint was already
	// present for this user; the call was a no-op.
	AlreadyExists CommitResult = "already-exists"
	// Failed means the store was unreachable or rejected the write.
	Failed CommitResult = "failed"
)

// TransactionStore is the durable per-user transaction store.
type TransactionStore interface {
	// Commit conditionally writes the draft for userID. The result is
	// Failed exactly when the returned error is non-nil.
	Commit(ctx context.Context, userID string, draft *domain.TransactionDraft) (CommitResult, error)

	// ListByUser returns the user's transactions, newest first.
	ListByUser(ctx context.Context, userID string) ([]*domain.PersistedTransaction, error)
}
