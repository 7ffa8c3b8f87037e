package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/zeninapp/zenin-ingest/internal/domain"
)

func draftFixture(fingerprint string) *domain.TransactionDraft {
	return &domain.TransactionDraft{
		Amount:            decimal.NewFromInt(500),
		Direction:         domain.DirectionExpense,
		MerchantHint:      "Swiggy",
		PaymentMethodHint: "UPI",
		OccurredAt:        time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Fingerprint:       fingerprint,
	}
}

func TestMemoryStore_CommitIdempotent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	draft := draftFixture("fp-1")

	res, err := s.Commit(ctx, "user-1", draft)
	assert.NoError(t, err)
	assert.Equal(t, Created, res)

	// Same fingerprint again, simulating OS redelivery.
	res, err = s.Commit(ctx, "user-1", draft)
	assert.NoError(t, err)
	assert.Equal(t, AlreadyExists, res)

	txs, err := s.ListByUser(ctx, "user-1")
	assert.NoError(t, err)
	assert.Len(t, txs, 1, "store must contain exactly one transaction per fingerprint")
}

func TestMemoryStore_FingerprintScopedPerUser(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	draft := draftFixture("fp-1")

	res, err := s.Commit(ctx, "user-1", draft)
	assert.NoError(t, err)
	assert.Equal(t, Created, res)

	// A different user committing the same fingerprint gets their own record.
	res, err = s.Commit(ctx, "user-2", draft)
	assert.NoError(t, err)
	assert.Equal(t, Created, res)
}

func TestMemoryStore_ConcurrentSameFingerprint(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	draft := draftFixture("fp-race")

	const n = 16
	results := make(chan CommitResult, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := s.Commit(ctx, "user-1", draft)
			assert.NoError(t, err)
			results <- res
		}()
	}
	wg.Wait()
	close(results)

	created := 0
	for res := range results {
		if res == Created {
			created++
		}
	}
	assert.Equal(t, 1, created, "exactly one concurrent commit should create")

	txs, err := s.ListByUser(ctx, "user-1")
	assert.NoError(t, err)
	assert.Len(t, txs, 1)
}

func TestBuildTransaction_MapsDraftFields(t *testing.T) {
	draft := draftFixture("fp-1")
	tx := buildTransaction("user-1", draft)

	assert.NotEmpty(t, tx.ID)
	assert.Equal(t, "user-1", tx.UserID)
	assert.True(t, tx.Amount.Equal(decimal.NewFromInt(500)))
	assert.True(t, tx.Amount.IsPositive(), "amount stays positive; direction is the discriminant")
	assert.Equal(t, domain.DirectionExpense, tx.TransactionType)
	assert.Equal(t, "Food & Dining", tx.Category)
	assert.Equal(t, "UPI", tx.PaymentMethod)
	assert.Equal(t, draft.OccurredAt, tx.Date)
	assert.Equal(t, "fp-1", tx.Fingerprint)
	assert.False(t, tx.CreatedAt.IsZero())
}

func TestBuildTransaction_OtherBucketFallback(t *testing.T) {
	draft := draftFixture("fp-2")
	draft.MerchantHint = "Unrecognized Vendor"
	tx := buildTransaction("user-1", draft)
	assert.Equal(t, "Other", tx.Category)
}
