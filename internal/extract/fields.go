package extract

import (
	"regexp"
	"strings"
	"time"
)

// merchantTriggers introduce a trailing merchant clause.
var merchantTriggers = map[string]bool{
	"to":      true,
	"at":      true,
	"by":      true,
	"from":    true,
	"towards": true,
}

// merchantStopWords end a merchant clause when collecting tokens.
var merchantStopWords = map[string]bool{
	"on":    true,
	"via":   true,
	"ref":   true,
	"using": true,
	"info":  true,
	"avl":   true,
	"bal":   true,
	"is":    true,
	"was":   true,
	"dated": true,
	"your":  true,
}

// merchantRejects disqualify a whole candidate when its first token is one of
// these: account references and similar boilerplate, not merchant names.
var merchantRejects = map[string]bool{
	"a/c":     true,
	"ac":      true,
	"acct":    true,
	"account": true,
	"card":    true,
	"bank":    true,
	"your":    true,
	"the":     true,
}

// paymentMethods is the small recognition vocabulary, scanned in order so the
// more specific entries win.
var paymentMethods = []struct {
	needle string
	label  string
}{
	{"upi", "UPI"},
	{"neft", "NEFT"},
	{"imps", "IMPS"},
	{"rtgs", "RTGS"},
	{"credit card", "Card"},
	{"debit card", "Card"},
	{"card", "Card"},
	{"net banking", "NetBanking"},
	{"netbanking", "NetBanking"},
	{"atm", "ATM"},
	{"cash", "Cash"},
}

var methodWords = map[string]bool{
	"upi": true, "neft": true, "imps": true, "rtgs": true,
	"card": true, "cash": true, "atm": true, "netbanking": true,
}

const maxMerchantTokens = 4

// merchantHint extracts the merchant from a trailing "to/at/by <name>"
// clause. Candidates that look like account references or payment methods
// are skipped; when several clauses qualify the last one wins, which matches
// the "... by NEFT from Acme Corp" shape where the sender comes final.
func merchantHint(text string) string {
	tokens := strings.Fields(text)
	best := ""

	for i, tok := range tokens {
		if !merchantTriggers[normalizeToken(tok)] {
			continue
		}
		candidate := collectMerchant(tokens[i+1:])
		if candidate == "" {
			continue
		}
		first := normalizeToken(strings.Fields(candidate)[0])
		if merchantRejects[first] || methodWords[first] {
			continue
		}
		best = candidate
	}

	return best
}

// collectMerchant gathers tokens after a trigger until the clause ends: a
// stop word, another trigger, a token carrying digits, or clause-ending
// punctuation on the previous token.
func collectMerchant(tokens []string) string {
	var out []string
	for _, tok := range tokens {
		norm := normalizeToken(tok)
		if norm == "" || merchantStopWords[norm] || merchantTriggers[norm] {
			break
		}
		if strings.ContainsAny(norm, "0123456789") {
			break
		}
		out = append(out, strings.Trim(tok, ".,:;!?()"))
		if len(out) == maxMerchantTokens || hasClauseEnd(tok) {
			break
		}
	}
	return strings.Join(out, " ")
}

func hasClauseEnd(tok string) bool {
	return strings.ContainsAny(tok, ".,:;!?")
}

func normalizeToken(tok string) string {
	return strings.ToLower(strings.Trim(tok, ".,:;!?()"))
}

// paymentMethodHint matches the payment-method vocabulary anywhere in the
// text. Returns the canonical label or empty when nothing matches.
func paymentMethodHint(text string) string {
	lower := strings.ToLower(text)
	for _, pm := range paymentMethods {
		if strings.Contains(lower, pm.needle) {
			return pm.label
		}
	}
	return ""
}

var (
	isoDatePattern   = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
	dayFirstPattern  = regexp.MustCompile(`\b(\d{1,2})[-/](\d{1,2})[-/](\d{2}|\d{4})\b`)
	monthNamePattern = regexp.MustCompile(`(?i)\b(\d{1,2})[- ]?(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*[- ]?(\d{2,4})\b`)
)

var monthsByName = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

// Embedded dates further than this behind the receipt time are treated as
// noise (reference numbers, validity ranges) rather than occurrence times.
const maxDateAge = 2 * 365 * 24 * time.Hour

// occurredAt parses an embedded date from the text when one is present and
// plausible; otherwise it falls back to the notification's receipt time.
// Plausible means not after the receipt day and not absurdly old.
func occurredAt(text string, receivedAt time.Time) time.Time {
	if d, ok := embeddedDate(text); ok && plausible(d, receivedAt) {
		return d
	}
	return receivedAt
}

func embeddedDate(text string) (time.Time, bool) {
	if g := isoDatePattern.FindStringSubmatch(text); g != nil {
		return buildDate(atoi(g[1]), time.Month(atoi(g[2])), atoi(g[3]))
	}
	if g := dayFirstPattern.FindStringSubmatch(text); g != nil {
		year := atoi(g[3])
		if year < 100 {
			year += 2000
		}
		return buildDate(year, time.Month(atoi(g[2])), atoi(g[1]))
	}
	if g := monthNamePattern.FindStringSubmatch(text); g != nil {
		year := atoi(g[3])
		if year < 100 {
			year += 2000
		}
		return buildDate(year, monthsByName[strings.ToLower(g[2])], atoi(g[1]))
	}
	return time.Time{}, false
}

// buildDate validates the components by round-tripping them through
// time.Date, which silently normalizes out-of-range values.
func buildDate(year int, month time.Month, day int) (time.Time, bool) {
	if month < time.January || month > time.December || day < 1 || day > 31 {
		return time.Time{}, false
	}
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if d.Year() != year || d.Month() != month || d.Day() != day {
		return time.Time{}, false
	}
	return d, true
}

func plausible(d, receivedAt time.Time) bool {
	if d.After(receivedAt.Add(24 * time.Hour)) {
		return false
	}
	if receivedAt.Sub(d) > maxDateAge {
		return false
	}
	return true
}

func atoi(s string) int {
	n := 0
	for _, r := range s {
		n = n*10 + int(r-'0')
	}
	return n
}
