package ledger

import (
	"fmt"
	"strconv"
	"strings"
)

type Category string

const (
	CategoryAsset     Category = "ASSET"
	CategoryLiability Category = "LIABILITY"
	CategoryEquity    Category = "EQUITY"
	CategoryRevenue   Category = "REVENUE"
	CategoryExpense   Category = "EXPENSE"
)

var AllCategories = []Category{
	CategoryAsset,
	CategoryLiability,
	CategoryEquity,
	CategoryRevenue,
	CategoryExpense,
}

// Account is one entry of the chart of accounts. Category is empty unless the
// chart carries an explicit override for the code.
type Account struct {
	Code        string   `json:"code"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Category    Category `json:"category,omitempty"`
}

// CategoryForCode derives the category from the leading digit of an account code.
func CategoryForCode(code string) (Category, error) {
	code = strings.TrimSpace(code)
	if code == "" || !isDigits(code) {
		return "", fmt.Errorf("%w: %q", ErrInvalidAccountCode, code)
	}
	switch code[0] {
	case '1':
		return CategoryAsset, nil
	case '2':
		return CategoryLiability, nil
	case '3':
		return CategoryEquity, nil
	case '4':
		return CategoryRevenue, nil
	case '5', '6', '7', '8', '9':
		return CategoryExpense, nil
	default:
		return "", fmt.Errorf("%w: %q (leading digit must be 1-9)", ErrInvalidAccountCode, code)
	}
}

// CategoryLabel returns a human-readable label for a category.
func CategoryLabel(cat Category) string {
	switch cat {
	case CategoryAsset:
		return "Assets"
	case CategoryLiability:
		return "Liabilities"
	case CategoryEquity:
		return "Equity"
	case CategoryRevenue:
		return "Revenue"
	case CategoryExpense:
		return "Expenses"
	default:
		return string(cat)
	}
}

// NormalBalance returns the side on which an account of the category is
// conventionally positive. Assets and Expenses are debit-normal.
func NormalBalance(cat Category) Side {
	switch cat {
	case CategoryAsset, CategoryExpense:
		return SideDebit
	default:
		return SideCredit
	}
}

// IsBalanceSheet reports whether the category appears on the balance sheet.
func IsBalanceSheet(cat Category) bool {
	return cat == CategoryAsset || cat == CategoryLiability || cat == CategoryEquity
}

// ValidCategory checks if a category string is valid.
func ValidCategory(cat Category) bool {
	for _, c := range AllCategories {
		if c == cat {
			return true
		}
	}
	return false
}

// ParseCategory accepts the canonical names plus the plural labels.
func ParseCategory(s string) (Category, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ASSET", "ASSETS":
		return CategoryAsset, nil
	case "LIABILITY", "LIABILITIES":
		return CategoryLiability, nil
	case "EQUITY":
		return CategoryEquity, nil
	case "REVENUE", "INCOME":
		return CategoryRevenue, nil
	case "EXPENSE", "EXPENSES":
		return CategoryExpense, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidCategory, s)
}

// codeBucket maps a code onto a four-digit number so range rules work for
// codes of any length: "11" -> 1100, "1205" -> 1205, "120501" -> 1205.
func codeBucket(code string) (int, bool) {
	code = strings.TrimSpace(code)
	if code == "" || !isDigits(code) {
		return 0, false
	}
	if len(code) > 4 {
		code = code[:4]
	}
	for len(code) < 4 {
		code += "0"
	}
	n, err := strconv.Atoi(code)
	if err != nil {
		return 0, false
	}
	return n, true
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
