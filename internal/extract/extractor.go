// Package extract turns classified notification text into a structured
// transaction draft. Input is free text from an open set of senders, so the
// extractor works through an ordered list of template matchers, most specific
// first, with a generic currency-amount-plus-verb matcher as the fallback.
// The first matcher whose required fields all resolve wins; fields are never
// merged across matchers and a draft is never fabricated from partial data.
package extract

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/zeninapp/zenin-ingest/internal/domain"
)

const (
	currencyRE = `(?:rs\.?|inr|₹|\$|usd|€|eur|£|gbp)`
	amountRE   = `(\d[\d,]*(?:\.\d{1,2})?)`
	linkRE     = `\s+(?:has been\s+|was\s+|is\s+)?`
)

// matcher recognizes one family of notification text formats. The pattern
// must capture the amount in group 1; direction is either fixed by the
// template or resolved from the surrounding verb vocabulary.
type matcher struct {
	name      string
	pattern   *regexp.Regexp
	direction domain.Direction // empty = derive from verb vocabulary
}

// matchers are ordered most-specific first. The generic matcher stays last.
var matchers = []matcher{
	{
		name:      "account-debit",
		pattern:   regexp.MustCompile(`(?i)` + currencyRE + `\s*` + amountRE + linkRE + `(?:debited|deducted|withdrawn)\b`),
		direction: domain.DirectionExpense,
	},
	{
		name:      "account-credit",
		pattern:   regexp.MustCompile(`(?i)` + currencyRE + `\s*` + amountRE + linkRE + `(?:credited|deposited)\b`),
		direction: domain.DirectionIncome,
	},
	{
		name:      "payment-sent",
		pattern:   regexp.MustCompile(`(?i)` + currencyRE + `\s*` + amountRE + `\s+(?:paid|sent|transferred)\b`),
		direction: domain.DirectionExpense,
	},
	{
		name:      "spend-verb-first",
		pattern:   regexp.MustCompile(`(?i)\b(?:spent|paid|sent|transferred)\s+` + currencyRE + `\s*` + amountRE),
		direction: domain.DirectionExpense,
	},
	{
		name:      "receive-verb-first",
		pattern:   regexp.MustCompile(`(?i)\b(?:received|credited with)\s+` + currencyRE + `\s*` + amountRE),
		direction: domain.DirectionIncome,
	},
	{
		name:    "generic-amount-and-verb",
		pattern: regexp.MustCompile(`(?i)` + currencyRE + `\s*` + amountRE),
	},
}

// directionVerbs maps the verb vocabulary onto a direction for templates that
// do not fix one themselves.
var directionVerbs = regexp.MustCompile(`(?i)\b(debited|deducted|spent|paid|withdrawn|sent|transferred|credited|received|deposited)\b`)

var incomeVerbs = map[string]bool{
	"credited":  true,
	"received":  true,
	"deposited": true,
}

// Parse extracts a transaction draft from notification text. receivedAt is
// the notification's receipt time, used as the fallback occurrence time and
// as the anchor for date plausibility. It returns nil when no matcher's
// required fields all resolve; it never returns a partial draft.
func Parse(text string, receivedAt time.Time) *domain.TransactionDraft {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	for _, m := range matchers {
		groups := m.pattern.FindStringSubmatch(text)
		if groups == nil {
			continue
		}

		amount, ok := parseAmount(groups[1])
		if !ok {
			continue
		}

		dir := m.direction
		if dir == "" {
			verb := directionVerbs.FindString(text)
			if verb == "" {
				continue
			}
			if incomeVerbs[strings.ToLower(verb)] {
				dir = domain.DirectionIncome
			} else {
				dir = domain.DirectionExpense
			}
		}

		return &domain.TransactionDraft{
			Amount:            amount,
			Direction:         dir,
			MerchantHint:      merchantHint(text),
			PaymentMethodHint: paymentMethodHint(text),
			OccurredAt:        occurredAt(text, receivedAt),
		}
	}

	return nil
}

// parseAmount normalizes a captured amount token: grouping commas are
// stripped, the result must be a strictly positive decimal.
func parseAmount(raw string) (decimal.Decimal, bool) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	d, err := decimal.NewFromString(cleaned)
	if err != nil || !d.IsPositive() {
		return decimal.Decimal{}, false
	}
	return d, true
}
