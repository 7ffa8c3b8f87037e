package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Direction distinguishes money in from money out. Amounts are always
// positive; the direction carries the sign.
type Direction string

const (
	DirectionIncome  Direction = "income"
	DirectionExpense Direction = "expense"
)

// TransactionDraft is a fully validated candidate transaction produced by the
// extractor and consumed exactly once by the committer. Amount is always
// strictly positive. MerchantHint and PaymentMethodHint are empty when the
// text did not yield them.
type TransactionDraft struct {
	Amount            decimal.Decimal
	Direction         Direction
	MerchantHint      string
	PaymentMethodHint string
	OccurredAt        time.Time
	Fingerprint       string
}

// PersistedTransaction is the durable per-user record created by the
// committer. At most one exists per (UserID, Fingerprint); after creation it
// is mutated only by explicit user action outside this service.
type PersistedTransaction struct {
	ID              string          `json:"id"`
	UserID          string          `json:"user_id"`
	Amount          decimal.Decimal `json:"amount"`
	TransactionType Direction       `json:"transaction_type"`
	Category        string          `json:"category"`
	PaymentMethod   string          `json:"payment_method,omitempty"`
	Description     string          `json:"description,omitempty"`
	Date            time.Time       `json:"date"`
	Fingerprint     string          `json:"fingerprint"`
	CreatedAt       time.Time       `json:"created_at"`
}
