package extract

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/zeninapp/zenin-ingest/internal/domain"
)

var receivedAt = time.Date(2024, 1, 2, 9, 15, 0, 0, time.UTC)

func TestParse_AccountDebit(t *testing.T) {
	draft := Parse("Rs.500.00 debited from A/c XX1234 on 01-01-24 to Swiggy", receivedAt)
	if draft == nil {
		t.Fatal("Parse returned nil, want draft")
	}
	if !draft.Amount.Equal(decimal.NewFromInt(500)) {
		t.Errorf("Amount = %s, want 500", draft.Amount)
	}
	if draft.Direction != domain.DirectionExpense {
		t.Errorf("Direction = %s, want expense", draft.Direction)
	}
	if draft.MerchantHint != "Swiggy" {
		t.Errorf("MerchantHint = %q, want \"Swiggy\"", draft.MerchantHint)
	}
	wantDate := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if !draft.OccurredAt.Equal(wantDate) {
		t.Errorf("OccurredAt = %s, want %s", draft.OccurredAt, wantDate)
	}
}

func TestParse_NEFTCredit(t *testing.T) {
	draft := Parse("Rs.20,000.00 credited to A/c XX1234 by NEFT from Acme Corp", receivedAt)
	if draft == nil {
		t.Fatal("Parse returned nil, want draft")
	}
	if !draft.Amount.Equal(decimal.NewFromInt(20000)) {
		t.Errorf("Amount = %s, want 20000", draft.Amount)
	}
	if draft.Direction != domain.DirectionIncome {
		t.Errorf("Direction = %s, want income", draft.Direction)
	}
	if draft.MerchantHint != "Acme Corp" {
		t.Errorf("MerchantHint = %q, want \"Acme Corp\"", draft.MerchantHint)
	}
	if draft.PaymentMethodHint != "NEFT" {
		t.Errorf("PaymentMethodHint = %q, want \"NEFT\"", draft.PaymentMethodHint)
	}
	if !draft.OccurredAt.Equal(receivedAt) {
		t.Errorf("OccurredAt = %s, want receipt time %s", draft.OccurredAt, receivedAt)
	}
}

func TestParse_Templates(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		wantNil    bool
		amount     string
		direction  domain.Direction
		merchant   string
		method     string
	}{
		{
			name:      "upi payment verb after amount",
			text:      "INR 120.00 paid via UPI to Chai Point. UPI Ref 403998877123",
			amount:    "120",
			direction: domain.DirectionExpense,
			merchant:  "Chai Point",
			method:    "UPI",
		},
		{
			name:      "card spend verb before amount",
			text:      "You spent Rs. 249.00 at Starbucks using your HDFC Card",
			amount:    "249",
			direction: domain.DirectionExpense,
			merchant:  "Starbucks",
			method:    "Card",
		},
		{
			name:      "salary credit",
			text:      "Salary of Rs.55,000 credited to your account",
			amount:    "55000",
			direction: domain.DirectionIncome,
		},
		{
			name:      "imps transfer received",
			text:      "You have received Rs.1,500.00 by IMPS from Ravi Kumar",
			amount:    "1500",
			direction: domain.DirectionIncome,
			merchant:  "Ravi Kumar",
			method:    "IMPS",
		},
		{
			name:      "atm withdrawal",
			text:      "Rs.2000 withdrawn at ATM from A/c XX1234. Avl bal Rs.10,000",
			amount:    "2000",
			direction: domain.DirectionExpense,
			method:    "ATM",
		},
		{
			name:      "generic fallback amount and verb far apart",
			text:      "Alert: an amount of ₹85.50 was transferred. Merchant: unknown",
			amount:    "85.5",
			direction: domain.DirectionExpense,
		},
		{
			name:    "no amount",
			text:    "Money was debited from your account",
			wantNil: true,
		},
		{
			name:    "amount without direction verb",
			text:    "Your statement balance is Rs.4,200.00",
			wantNil: true,
		},
		{
			name:    "zero amount rejected",
			text:    "Rs.0.00 debited from A/c XX1234",
			wantNil: true,
		},
		{
			name:    "empty input",
			text:    "",
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draft := Parse(tt.text, receivedAt)
			if tt.wantNil {
				if draft != nil {
					t.Fatalf("Parse(%q) = %+v, want nil", tt.text, draft)
				}
				return
			}
			if draft == nil {
				t.Fatalf("Parse(%q) = nil, want draft", tt.text)
			}
			want, err := decimal.NewFromString(tt.amount)
			if err != nil {
				t.Fatalf("bad test amount %q: %v", tt.amount, err)
			}
			if !draft.Amount.Equal(want) {
				t.Errorf("Amount = %s, want %s", draft.Amount, want)
			}
			if draft.Direction != tt.direction {
				t.Errorf("Direction = %s, want %s", draft.Direction, tt.direction)
			}
			if tt.merchant != "" && draft.MerchantHint != tt.merchant {
				t.Errorf("MerchantHint = %q, want %q", draft.MerchantHint, tt.merchant)
			}
			if tt.method != "" && draft.PaymentMethodHint != tt.method {
				t.Errorf("PaymentMethodHint = %q, want %q", draft.PaymentMethodHint, tt.method)
			}
		})
	}
}

func TestParse_Deterministic(t *testing.T) {
	text := "Rs.500.00 debited from A/c XX1234 on 01-01-24 to Swiggy"
	first := Parse(text, receivedAt)
	for i := 0; i < 50; i++ {
		again := Parse(text, receivedAt)
		if again == nil || !again.Amount.Equal(first.Amount) || again.Direction != first.Direction ||
			again.MerchantHint != first.MerchantHint || !again.OccurredAt.Equal(first.OccurredAt) {
			t.Fatal("Parse is not deterministic")
		}
	}
}

func TestParse_NeverNegativeOrZeroAmount(t *testing.T) {
	texts := []string{
		"Rs.500.00 debited from A/c XX1234",
		"Rs.20,000.00 credited to A/c XX1234 by NEFT from Acme Corp",
		"You spent Rs. 249.00 at Starbucks",
		"INR 120.00 paid via UPI to Chai Point",
	}
	for _, text := range texts {
		draft := Parse(text, receivedAt)
		if draft == nil {
			t.Fatalf("Parse(%q) = nil", text)
		}
		if !draft.Amount.IsPositive() {
			t.Errorf("Parse(%q) amount = %s, want > 0", text, draft.Amount)
		}
		if draft.Direction != domain.DirectionIncome && draft.Direction != domain.DirectionExpense {
			t.Errorf("Parse(%q) direction = %q, want income or expense", text, draft.Direction)
		}
	}
}

func TestOccurredAt_Plausibility(t *testing.T) {
	tests := []struct {
		name string
		text string
		want time.Time
	}{
		{
			name: "embedded recent date used",
			text: "debited on 01-01-24",
			want: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "iso date used",
			text: "debited on 2023-12-30",
			want: time.Date(2023, 12, 30, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "month name date used",
			text: "debited on 30-Dec-23",
			want: time.Date(2023, 12, 30, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "future date falls back to receipt time",
			text: "debited on 15-06-24",
			want: receivedAt,
		},
		{
			name: "absurdly old date falls back to receipt time",
			text: "debited on 01-01-19",
			want: receivedAt,
		},
		{
			name: "invalid day falls back to receipt time",
			text: "debited on 45-01-24",
			want: receivedAt,
		},
		{
			name: "no date falls back to receipt time",
			text: "debited today",
			want: receivedAt,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := occurredAt(tt.text, receivedAt)
			if !got.Equal(tt.want) {
				t.Errorf("occurredAt(%q) = %s, want %s", tt.text, got, tt.want)
			}
		})
	}
}

func TestMerchantHint(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"Rs.500 debited to Swiggy", "Swiggy"},
		{"Rs.500 paid at Big Bazaar on 01-01-24", "Big Bazaar"},
		{"credited by NEFT from Acme Corp", "Acme Corp"},
		{"debited from A/c XX1234", ""},
		{"paid via UPI", ""},
		{"no trailing clause here", ""},
	}

	for _, tt := range tests {
		if got := merchantHint(tt.text); got != tt.want {
			t.Errorf("merchantHint(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestPaymentMethodHint(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"paid via UPI to Chai Point", "UPI"},
		{"by NEFT from Acme Corp", "NEFT"},
		{"using your debit card", "Card"},
		{"withdrawn at ATM", "ATM"},
		{"cash deposit at branch", "Cash"},
		{"nothing recognizable", ""},
	}

	for _, tt := range tests {
		if got := paymentMethodHint(tt.text); got != tt.want {
			t.Errorf("paymentMethodHint(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}
