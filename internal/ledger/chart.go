package ledger

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Default sub-classification limits: asset codes below 1500 and liability
// codes below 2500 are current.
const (
	DefaultCurrentAssetLimit     = 1500
	DefaultCurrentLiabilityLimit = 2500
)

// DefaultAccounts is the starter chart of accounts.
var DefaultAccounts = []Account{
	// Assets (1xxx)
	{Code: "1000", Name: "Cash on Hand", Description: "Petty cash and till floats"},
	{Code: "1010", Name: "Bank Current Account", Description: "Operating bank account"},
	{Code: "1020", Name: "Bank Savings Account", Description: "Interest-bearing bank deposits"},
	{Code: "1100", Name: "Accounts Receivable", Description: "Amounts owed to the entity by customers"},
	{Code: "1200", Name: "Inventory", Description: "Goods held for sale"},
	{Code: "1300", Name: "Prepaid Expenses", Description: "Payments made in advance for future expenses"},
	{Code: "1500", Name: "Property, Plant & Equipment", Description: "Long-term tangible assets"},
	{Code: "1590", Name: "Accumulated Depreciation", Description: "Contra asset for depreciation to date"},

	// Liabilities (2xxx)
	{Code: "2000", Name: "Accounts Payable", Description: "Amounts owed to suppliers"},
	{Code: "2100", Name: "Accrued Expenses", Description: "Expenses incurred but not yet paid"},
	{Code: "2200", Name: "Tax Payable", Description: "Tax held on behalf of tax authorities"},
	{Code: "2300", Name: "Customer Deposits", Description: "Advance payments received from customers"},
	{Code: "2500", Name: "Long-term Loans", Description: "Loan obligations due after twelve months"},

	// Equity (3xxx)
	{Code: "3000", Name: "Share Capital", Description: "Owner contributions"},
	{Code: "3100", Name: "Retained Earnings", Description: "Accumulated profits retained in the entity"},
	{Code: "3200", Name: "Drawings", Description: "Owner withdrawals"},

	// Revenue (4xxx)
	{Code: "4000", Name: "Sales Revenue", Description: "Income from goods sold"},
	{Code: "4100", Name: "Service Revenue", Description: "Income from services rendered"},
	{Code: "4200", Name: "Interest Income", Description: "Income earned from interest"},

	// Expenses (5xxx-9xxx)
	{Code: "5000", Name: "Cost of Goods Sold", Description: "Direct costs of goods sold"},
	{Code: "5100", Name: "Operating Expenses", Description: "General operating costs"},
	{Code: "5200", Name: "Salaries and Wages", Description: "Employee compensation"},
	{Code: "5300", Name: "Depreciation", Description: "Allocation of asset costs over useful life"},
	{Code: "6000", Name: "Rent Expense", Description: "Premises rent"},
	{Code: "7000", Name: "Bank Charges", Description: "Fees charged by banks"},
}

// Chart is the chart of accounts plus the per-code settings that override
// the leading-digit rules. It is safe for concurrent use.
type Chart struct {
	mu                    sync.RWMutex
	accounts              map[string]Account
	settings              map[string]CodeSettings
	CurrentAssetLimit     int
	CurrentLiabilityLimit int
}

// NewChart builds a chart from the given accounts.
func NewChart(accounts ...Account) *Chart {
	c := &Chart{
		accounts:              make(map[string]Account, len(accounts)),
		settings:              make(map[string]CodeSettings),
		CurrentAssetLimit:     DefaultCurrentAssetLimit,
		CurrentLiabilityLimit: DefaultCurrentLiabilityLimit,
	}
	for _, a := range accounts {
		c.accounts[a.Code] = a
	}
	return c
}

// DefaultChart returns a chart seeded with DefaultAccounts.
func DefaultChart() *Chart {
	return NewChart(DefaultAccounts...)
}

// Add inserts or replaces an account.
func (c *Chart) Add(a Account) error {
	if _, err := CategoryForCode(a.Code); err != nil {
		return err
	}
	if a.Category != "" && !ValidCategory(a.Category) {
		return fmt.Errorf("%w: %s", ErrInvalidCategory, a.Category)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accounts[a.Code] = a
	return nil
}

// Lookup finds an account by exact code.
func (c *Chart) Lookup(code string) (Account, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	a, ok := c.accounts[code]
	return a, ok
}

// Name returns the display name for a code, or "" when unknown.
func (c *Chart) Name(code string) string {
	a, _ := c.Lookup(code)
	return a.Name
}

// Accounts returns all accounts sorted by code, with resolved categories.
func (c *Chart) Accounts() []Account {
	c.mu.RLock()
	out := make([]Account, 0, len(c.accounts))
	for _, a := range c.accounts {
		out = append(out, a)
	}
	c.mu.RUnlock()

	for i := range out {
		if cat, err := c.Category(out[i].Code); err == nil {
			out[i].Category = cat
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// Category resolves the category for a code: per-code setting first, then the
// account's own override, then the leading digit.
func (c *Chart) Category(code string) (Category, error) {
	c.mu.RLock()
	s, hasSetting := c.settings[code]
	a, hasAccount := c.accounts[code]
	c.mu.RUnlock()

	if hasSetting && s.Category != "" {
		return s.Category, nil
	}
	if hasAccount && a.Category != "" {
		return a.Category, nil
	}
	return CategoryForCode(code)
}

// IsCurrent applies the numeric-range rule for current vs non-current.
// Only assets and liabilities are ever current.
func (c *Chart) IsCurrent(code string) bool {
	c.mu.RLock()
	s, ok := c.settings[code]
	c.mu.RUnlock()
	if ok && s.Classification != "" {
		return s.Classification == ClassCurrent
	}

	cat, err := c.Category(code)
	if err != nil {
		return false
	}
	n, ok := codeBucket(code)
	if !ok {
		return false
	}
	switch cat {
	case CategoryAsset:
		return n < c.CurrentAssetLimit
	case CategoryLiability:
		return n < c.CurrentLiabilityLimit
	default:
		return false
	}
}

// Resolve maps user input onto an account code. It accepts a bare code,
// "1000 - Cash on Hand" style labels, or an exact account name.
func (c *Chart) Resolve(input string) (string, bool) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", false
	}
	if isDigits(input) {
		return input, true
	}

	lead := input
	if i := strings.IndexFunc(input, func(r rune) bool { return r < '0' || r > '9' }); i > 0 {
		lead = input[:i]
		if isDigits(lead) {
			return lead, true
		}
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	for code, a := range c.accounts {
		if strings.EqualFold(a.Name, input) {
			return code, true
		}
	}
	return "", false
}

// ApplySettings replaces the per-code settings.
func (c *Chart) ApplySettings(settings []CoASetting) error {
	resolved := make(map[string]CodeSettings)
	for _, s := range settings {
		cs := resolved[s.Code]
		cs.Code = s.Code
		if err := cs.apply(s); err != nil {
			return err
		}
		resolved[s.Code] = cs
	}
	c.mu.Lock()
	c.settings = resolved
	c.mu.Unlock()
	return nil
}

// Settings returns the resolved settings for a code.
func (c *Chart) Settings(code string) CodeSettings {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if s, ok := c.settings[code]; ok {
		return s
	}
	return CodeSettings{Code: code}
}
