// Package category holds the built-in category catalog and a keyword based
// detector that suggests a category from a free-text note.
package category

import (
	"regexp"
	"strings"

	"github.com/nNEWBE/expense-tracker-sub000/pkg/domain/record"
	"github.com/shopspring/decimal"
)

// Other is the fallback category for both kinds.
const Other = "Other"

var expenseCategories = []string{
	"Food", "Transport", "Shopping", "Entertainment", "Health", "Bills", "Education",
	"Travel", "Groceries", "Subscription", "Rent", "Insurance", "Utilities", Other,
}

var incomeCategories = []string{
	"Salary", "Freelance", "Investment", "Gift", "Bonus", "Refund", "Rental Income", Other,
}

// Defaults returns the built-in categories for a kind. The result is a copy.
func Defaults(kind record.Kind) []string {
	var src []string
	switch kind {
	case record.Expense:
		src = expenseCategories
	case record.Income:
		src = incomeCategories
	default:
		return nil
	}
	return append([]string(nil), src...)
}

type rule struct {
	category string
	keywords []string
}

// rules are evaluated in order; the first keyword found wins.
var rules = []rule{
	{"Food", []string{"lunch", "dinner", "breakfast", "coffee", "restaurant", "pizza", "burger", "food", "snack", "grocery"}},
	{"Transport", []string{"uber", "taxi", "bus", "train", "fuel", "gas", "petrol", "rickshaw", "cng"}},
	{"Shopping", []string{"shopping", "clothes", "shirt", "shoes", "amazon", "daraz"}},
	{"Entertainment", []string{"movie", "netflix", "spotify", "game", "concert"}},
	{"Health", []string{"medicine", "doctor", "hospital", "pharmacy", "gym"}},
	{"Bills", []string{"electricity", "water", "internet", "phone", "rent", "wifi"}},
	{"Education", []string{"book", "course", "tuition", "school", "college", "university"}},
}

// Detect suggests a category for a note, or Other when no keyword matches.
func Detect(note string) string {
	lower := strings.ToLower(note)
	if strings.TrimSpace(lower) == "" {
		return Other
	}
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(lower, kw) {
				return r.category
			}
		}
	}
	return Other
}

var numberPattern = regexp.MustCompile(`[0-9][0-9,]*(\.[0-9]+)?`)

// ExtractAmount returns the first number in text ("1,000", "200.50"), or
// zero when there is none.
func ExtractAmount(text string) decimal.Decimal {
	for _, m := range numberPattern.FindAllString(text, -1) {
		d, err := decimal.NewFromString(strings.ReplaceAll(m, ",", ""))
		if err == nil {
			return d
		}
	}
	return decimal.Zero
}
