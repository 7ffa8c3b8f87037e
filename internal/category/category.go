// Package category provides the best-effort default categorization applied
// when a captured transaction is committed. The user can recategorize later;
// anything unrecognized lands in the Other bucket.
package category

import (
	"strings"

	"github.com/zeninapp/zenin-ingest/internal/domain"
)

// Other is the fallback bucket for unrecognized merchants.
const Other = "Other"

// keywordBuckets maps merchant-name keywords onto default categories. First
// match wins, scanned in declaration order.
var keywordBuckets = []struct {
	keywords []string
	category string
}{
	{[]string{"swiggy", "zomato", "dominos", "mcdonald", "starbucks", "cafe", "restaurant", "eats"}, "Food & Dining"},
	{[]string{"uber", "ola", "rapido", "irctc", "redbus", "makemytrip", "airlines", "indigo"}, "Travel"},
	{[]string{"amazon", "flipkart", "myntra", "ajio", "meesho", "store", "mart"}, "Shopping"},
	{[]string{"netflix", "spotify", "hotstar", "prime", "bookmyshow"}, "Entertainment"},
	{[]string{"airtel", "jio", "vodafone", "electricity", "broadband", "gas", "recharge"}, "Bills & Utilities"},
	{[]string{"pharmacy", "apollo", "hospital", "clinic", "medplus"}, "Health"},
	{[]string{"salary", "payroll"}, "Salary"},
}

// Infer picks a default category from the merchant hint. Income without a
// recognizable merchant defaults to the Income bucket rather than Other.
func Infer(merchantHint string, direction domain.Direction) string {
	lower := strings.ToLower(merchantHint)
	if lower != "" {
		for _, bucket := range keywordBuckets {
			for _, kw := range bucket.keywords {
				if strings.Contains(lower, kw) {
					return bucket.category
				}
			}
		}
	}
	if direction == domain.DirectionIncome {
		return "Income"
	}
	return Other
}
