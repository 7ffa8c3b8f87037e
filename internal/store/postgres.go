package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/zeninapp/zenin-ingest/internal/category"
	"github.com/zeninapp/zenin-ingest/internal/domain"
)

// PostgresStore is the production TransactionStore. The unique index on
// (user_id, fingerprint) plus INSERT ... ON CONFLICT DO NOTHING is the sole
// dedup mechanism; there is no in-memory coordination between invocations.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to Postgres using the given DSN and verifies the
// connection.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("NewPostgresStore: creating pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("NewPostgresStore: pinging database: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Commit implements the TransactionStore interface. The conditional insert
// returns zero affected rows when another invocation already committed the
// same fingerprint, which maps to AlreadyExists.
func (s *PostgresStore) Commit(ctx context.Context, userID string, draft *domain.TransactionDraft) (CommitResult, error) {
	tx := buildTransaction(userID, draft)

	query := `
		INSERT INTO transactions
			(id, user_id, amount, transaction_type, category, payment_method,
			 description, transaction_date, fingerprint, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (user_id, fingerprint) DO NOTHING`

	tag, err := s.pool.Exec(ctx, query,
		tx.ID,
		tx.UserID,
		tx.Amount,
		string(tx.TransactionType),
		tx.Category,
		tx.PaymentMethod,
		tx.Description,
		tx.Date,
		tx.Fingerprint,
		tx.CreatedAt,
	)
	if err != nil {
		return Failed, fmt.Errorf("Commit: inserting transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return AlreadyExists, nil
	}
	return Created, nil
}

// ListByUser implements the TransactionStore interface.
func (s *PostgresStore) ListByUser(ctx context.Context, userID string) ([]*domain.PersistedTransaction, error) {
	query := `
		SELECT id, user_id, amount, transaction_type, category, payment_method,
		       description, transaction_date, fingerprint, created_at
		FROM transactions
		WHERE user_id = $1
		ORDER BY transaction_date DESC, created_at DESC`

	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("ListByUser: querying transactions: %w", err)
	}
	defer rows.Close()

	var result []*domain.PersistedTransaction
	for rows.Next() {
		var t domain.PersistedTransaction
		var txType string
		if err := rows.Scan(&t.ID, &t.UserID, &t.Amount, &txType, &t.Category,
			&t.PaymentMethod, &t.Description, &t.Date, &t.Fingerprint, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("ListByUser: scanning row: %w", err)
		}
		t.TransactionType = domain.Direction(txType)
		result = append(result, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListByUser: iterating rows: %w", err)
	}
	return result, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// buildTransaction maps a draft onto the persisted record: a fresh ID, the
// direction as the transaction_type discriminant (amount stays positive),
// and a best-effort default category from the merchant hint.
func buildTransaction(userID string, draft *domain.TransactionDraft) *domain.PersistedTransaction {
	return &domain.PersistedTransaction{
		ID:              uuid.NewString(),
		UserID:          userID,
		Amount:          draft.Amount,
		TransactionType: draft.Direction,
		Category:        category.Infer(draft.MerchantHint, draft.Direction),
		PaymentMethod:   draft.PaymentMethodHint,
		Description:     draft.MerchantHint,
		Date:            draft.OccurredAt,
		Fingerprint:     draft.Fingerprint,
		CreatedAt:       time.Now().UTC(),
	}
}

var _ TransactionStore = (*PostgresStore)(nil)
