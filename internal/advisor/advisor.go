// Package advisor proposes counter-accounts for a posting while an entry is
// being composed. It is advisory only and never blocks validation.
package advisor

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/simonvc/ledgersync/internal/ledger"
)

const (
	PreferredScore = 10
	PatternScore   = 3

	GroupPrimary = "primary suggestions"
	GroupAlso    = "also plausible"
)

// Role is a semantic account role such as cash-like or payables. Accounts in
// Preferred score PreferredScore; accounts whose name or description match
// Pattern score PatternScore.
type Role struct {
	Name      string
	Preferred []string
	Pattern   *regexp.Regexp
}

// DefaultRoles match the default chart of accounts.
var DefaultRoles = []Role{
	{
		Name:      "cash",
		Preferred: []string{"1000", "1010", "1020"},
		Pattern:   regexp.MustCompile(`(?i)\b(cash|bank|petty|till)\b`),
	},
	{
		Name:      "payables",
		Preferred: []string{"2000", "2100"},
		Pattern:   regexp.MustCompile(`(?i)(payable|creditor|accrued)`),
	},
	{
		Name:      "receivables",
		Preferred: []string{"1100"},
		Pattern:   regexp.MustCompile(`(?i)(receivable|debtor)`),
	},
}

// Candidate is one suggested account.
type Candidate struct {
	Code     string          `json:"code"`
	Name     string          `json:"name"`
	Category ledger.Category `json:"category"`
	Score    int             `json:"score"`
	Roles    []string        `json:"roles,omitempty"`
}

// Group is a labelled block of candidates.
type Group struct {
	Label    string      `json:"label"`
	Accounts []Candidate `json:"accounts"`
}

// Suggestion is the advisor output for one posted side.
type Suggestion struct {
	Account   string            `json:"account"`
	Side      ledger.Side       `json:"side"`
	Category  ledger.Category   `json:"category"`
	Opposite  ledger.Side       `json:"opposite"`
	Permitted []ledger.Category `json:"permitted"`
	Groups    []Group           `json:"groups"`
}

// Advisor ranks counter-accounts from a chart.
type Advisor struct {
	chart  *ledger.Chart
	matrix Matrix
	roles  []Role
}

// Option configures an Advisor.
type Option func(*Advisor)

// WithRoles replaces the default roles.
func WithRoles(roles []Role) Option {
	return func(a *Advisor) { a.roles = roles }
}

// WithPairs replaces the default permission pairs.
func WithPairs(pairs []Pair) Option {
	return func(a *Advisor) { a.matrix = NewMatrix(pairs) }
}

// New creates an advisor over chart.
func New(chart *ledger.Chart, opts ...Option) *Advisor {
	a := &Advisor{
		chart:  chart,
		matrix: NewMatrix(DefaultPairs),
		roles:  DefaultRoles,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Matrix returns the permission matrix in use.
func (a *Advisor) Matrix() Matrix { return a.matrix }

// Permitted returns the categories allowed opposite side on cat.
func (a *Advisor) Permitted(side ledger.Side, cat ledger.Category) []ledger.Category {
	return a.matrix.Permitted(side, cat)
}

// Check reports whether debiting one account against crediting another is a
// permitted combination.
func (a *Advisor) Check(debitAccount, creditAccount string) error {
	dc, err := a.chart.Category(debitAccount)
	if err != nil {
		return err
	}
	cc, err := a.chart.Category(creditAccount)
	if err != nil {
		return err
	}
	if !a.matrix.Permits(dc, cc) {
		return fmt.Errorf("%w: debit %s (%s) against credit %s (%s)", ErrNotPermitted, debitAccount, dc, creditAccount, cc)
	}
	return nil
}

// Suggest returns the permitted categories for the opposite side of a posting
// to account on side, and the chart accounts in those categories split into
// primary and secondary groups.
func (a *Advisor) Suggest(account string, side ledger.Side) (Suggestion, error) {
	cat, err := a.chart.Category(account)
	if err != nil {
		return Suggestion{}, err
	}

	s := Suggestion{
		Account:   account,
		Side:      side,
		Category:  cat,
		Opposite:  side.Opposite(),
		Permitted: a.matrix.Permitted(side, cat),
	}

	allowed := make(map[ledger.Category]bool, len(s.Permitted))
	for _, c := range s.Permitted {
		allowed[c] = true
	}

	var primary, also []Candidate
	for _, acct := range a.chart.Accounts() {
		if acct.Code == account || !allowed[acct.Category] {
			continue
		}
		c := a.score(acct)
		if c.Score > 0 {
			primary = append(primary, c)
		} else {
			also = append(also, c)
		}
	}

	sort.SliceStable(primary, func(i, j int) bool {
		if primary[i].Score != primary[j].Score {
			return primary[i].Score > primary[j].Score
		}
		return primary[i].Code < primary[j].Code
	})
	sort.SliceStable(also, func(i, j int) bool { return also[i].Code < also[j].Code })

	s.Groups = []Group{
		{Label: GroupPrimary, Accounts: nonNil(primary)},
		{Label: GroupAlso, Accounts: nonNil(also)},
	}
	return s, nil
}

func (a *Advisor) score(acct ledger.Account) Candidate {
	c := Candidate{Code: acct.Code, Name: acct.Name, Category: acct.Category}
	text := acct.Name + " " + acct.Description
	for _, r := range a.roles {
		hit := false
		for _, code := range r.Preferred {
			if code == acct.Code {
				c.Score += PreferredScore
				hit = true
				break
			}
		}
		if r.Pattern != nil && r.Pattern.MatchString(text) {
			c.Score += PatternScore
			hit = true
		}
		if hit {
			c.Roles = append(c.Roles, r.Name)
		}
	}
	return c
}

func nonNil(c []Candidate) []Candidate {
	if c == nil {
		return []Candidate{}
	}
	return c
}
