package ledger

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Epsilon is the tolerance for every balance comparison, in currency units.
var Epsilon = decimal.New(5, -3)

type CurrencyDef struct {
	Code     string
	Name     string
	Exponent int32 // 2 for USD (100 cents), 0 for JPY
}

var Currencies = map[string]CurrencyDef{
	"USD": {Code: "USD", Name: "US Dollar", Exponent: 2},
	"EUR": {Code: "EUR", Name: "Euro", Exponent: 2},
	"GBP": {Code: "GBP", Name: "Pound Sterling", Exponent: 2},
	"JPY": {Code: "JPY", Name: "Japanese Yen", Exponent: 0},
	"CHF": {Code: "CHF", Name: "Swiss Franc", Exponent: 2},
	"AUD": {Code: "AUD", Name: "Australian Dollar", Exponent: 2},
	"CAD": {Code: "CAD", Name: "Canadian Dollar", Exponent: 2},
	"CNY": {Code: "CNY", Name: "Chinese Yuan", Exponent: 2},
	"IDR": {Code: "IDR", Name: "Indonesian Rupiah", Exponent: 2},
	"INR": {Code: "INR", Name: "Indian Rupee", Exponent: 2},
	"SGD": {Code: "SGD", Name: "Singapore Dollar", Exponent: 2},
	"HKD": {Code: "HKD", Name: "Hong Kong Dollar", Exponent: 2},
	"NZD": {Code: "NZD", Name: "New Zealand Dollar", Exponent: 2},
	"SEK": {Code: "SEK", Name: "Swedish Krona", Exponent: 2},
	"NOK": {Code: "NOK", Name: "Norwegian Krone", Exponent: 2},
	"KRW": {Code: "KRW", Name: "South Korean Won", Exponent: 0},
	"BRL": {Code: "BRL", Name: "Brazilian Real", Exponent: 2},
	"ZAR": {Code: "ZAR", Name: "South African Rand", Exponent: 2},
}

func init() {
	// The wire form carries amounts as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

func ValidCurrency(code string) bool {
	_, ok := Currencies[code]
	return ok
}

// ParseAmount accepts "1000", "1000.50" and the comma-decimal form "1.000,50".
// Comma thousands separators ("1,000.50") are rejected as ambiguous.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	if comma := strings.LastIndex(s, ","); comma >= 0 {
		if strings.LastIndex(s, ".") > comma {
			return decimal.Zero, fmt.Errorf("invalid amount %q: comma must be the decimal separator", s)
		}
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return d, nil
}

// NearlyEqual compares two amounts within Epsilon.
func NearlyEqual(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThan(Epsilon)
}

// FormatAmount renders an amount with the currency's minor-unit precision.
// E.g. 10.5 USD -> "10.50".
func FormatAmount(amount decimal.Decimal, currency string) string {
	cur, ok := Currencies[currency]
	if !ok {
		return amount.StringFixed(2) + " " + currency
	}
	return amount.StringFixed(cur.Exponent)
}

// FormatLocale renders an amount with a comma decimal separator and dot
// thousands grouping: 1234.5 -> "1.234,50".
func FormatLocale(amount decimal.Decimal) string {
	s := amount.Abs().StringFixed(2)
	whole, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	if amount.IsNegative() && !amount.Round(2).IsZero() {
		b.WriteByte('-')
	}
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	b.WriteByte(',')
	b.WriteString(frac)
	return b.String()
}

// CurrencyCodes returns a sorted list of supported currency codes.
func CurrencyCodes() []string {
	codes := make([]string, 0, len(Currencies))
	for code := range Currencies {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
