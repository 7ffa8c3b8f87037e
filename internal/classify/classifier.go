// Package classify decides whether a notification text describes a financial
// event. The decision is a pure function of the text and the static indicator
// tables below; there is no I/O and no mutable state.
package classify

import (
	"regexp"
	"strings"
)

// amountPattern recognizes a currency marker followed by a numeric amount,
// tolerating grouping commas and a two-digit fraction. Input is lower-cased
// before matching.
var amountPattern = regexp.MustCompile(`(?:rs\.?|inr|₹|\$|usd|€|eur|£|gbp)\s*\d[\d,]*(?:\.\d{1,2})?`)

// scoredIndicator is one positive signal with its contribution to the score.
type scoredIndicator struct {
	phrase string
	weight int
}

// positiveIndicators are matched as substrings of the lower-cased text. Each
// entry contributes at most once.
var positiveIndicators = []scoredIndicator{
	{"debited", 2},
	{"credited", 2},
	{"deducted", 2},
	{"withdrawn", 2},
	{"deposited", 2},
	{"spent", 2},
	{"paid", 2},
	{"received", 2},
	{"available balance", 2},
	{"avl bal", 2},
	{"avl limit", 2},
	{"upi ref", 2},
	{"a/c", 1},
	{"acct", 1},
	{"account", 1},
	{"ref no", 1},
	{"txn", 1},
	{"transaction", 1},
	{"neft", 1},
	{"imps", 1},
	{"rtgs", 1},
	{"upi", 1},
}

// negativePhrases short-circuit the decision to false regardless of the
// positive score. A false positive silently fabricates a transaction with no
// user feedback loop, so anything that smells like an OTP, a promotion or a
// failed transaction is rejected outright.
var negativePhrases = []string{
	"otp",
	"one time password",
	"one-time password",
	"verification code",
	"security code",
	"use code",
	"do not share",
	"login",
	"offer",
	"discount",
	"% off",
	"coupon",
	"promo",
	"congratulations",
	"you have won",
	"lucky draw",
	"apply now",
	"subscribe",
	"transaction failed",
	"payment failed",
	"declined",
	"unsuccessful",
	"could not be processed",
	"will be charged",
	"payment due",
	"is due",
	"requested money",
	"payment request",
}

// amountWeight is the contribution of a currency-amount match, the strongest
// single signal.
const amountWeight = 3

// scoreThreshold is tuned for precision over recall: a missed capture can be
// entered manually, a fabricated one cannot be noticed. A score equal to the
// threshold is treated as non-financial.
const scoreThreshold = 3

// IsFinancial reports whether text looks like a notification about a
// completed financial event. It is deterministic and total: any input,
// including the empty string, yields a verdict without panicking.
func IsFinancial(text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}

	lower := strings.ToLower(text)

	for _, phrase := range negativePhrases {
		if strings.Contains(lower, phrase) {
			return false
		}
	}

	score := 0
	if amountPattern.MatchString(lower) {
		score += amountWeight
	}
	for _, ind := range positiveIndicators {
		if strings.Contains(lower, ind.phrase) {
			score += ind.weight
		}
	}

	return score > scoreThreshold
}
