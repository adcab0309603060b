package directive

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/simonvc/ledgersync/internal/ledger"
)

type Direction string

const (
	DirectionIn       Direction = "in"
	DirectionOut      Direction = "out"
	DirectionTransfer Direction = "transfer"
)

// Directive is the canonical form of a parsed directive.
type Directive struct {
	Kind       Kind
	Line       int
	Item       string
	Quantity   decimal.Decimal
	UnitCost   decimal.Decimal
	Direction  Direction
	Warehouse  string
	From       string
	To         string
	UOM        string
	Memo       string
	PreparedBy string
	ApprovedBy string
}

var aliases = map[string]string{
	"sku":        "item",
	"item":       "item",
	"itemsku":    "item",
	"qty":        "quantity",
	"quantity":   "quantity",
	"cost":       "cost",
	"unitcost":   "cost",
	"dir":        "direction",
	"direction":  "direction",
	"wh":         "warehouse",
	"warehouse":  "warehouse",
	"fromwh":     "from",
	"from":       "from",
	"towh":       "to",
	"to":         "to",
	"uom":        "uom",
	"memo":       "memo",
	"preparedby": "preparedBy",
	"approvedby": "approvedBy",
}

// Normalize maps either encoding onto a Directive. It reports false when the
// fields lack an item, a positive quantity, or any of direction, warehouse,
// source or destination. Unknown keys are ignored.
func Normalize(p Parsed) (Directive, bool) {
	if !p.Found() {
		return Directive{}, false
	}

	keys := make([]string, 0, len(p.Fields))
	for k := range p.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	// When a field is given under two aliases the first non-empty one in
	// key order wins.
	canon := make(map[string]string, len(p.Fields))
	for _, k := range keys {
		name, ok := aliases[strings.ToLower(strings.TrimSpace(k))]
		if !ok {
			continue
		}
		v := strings.TrimSpace(p.Fields[k])
		if canon[name] == "" {
			canon[name] = v
		}
	}

	d := Directive{
		Kind:       p.Kind,
		Line:       p.Line,
		Item:       canon["item"],
		Warehouse:  canon["warehouse"],
		From:       canon["from"],
		To:         canon["to"],
		UOM:        canon["uom"],
		Memo:       canon["memo"],
		PreparedBy: canon["preparedBy"],
		ApprovedBy: canon["approvedBy"],
		UnitCost:   decimal.Zero,
	}
	if d.Item == "" {
		return Directive{}, false
	}

	qty, err := ledger.ParseAmount(canon["quantity"])
	if err != nil || !qty.IsPositive() {
		return Directive{}, false
	}
	d.Quantity = qty

	if c := canon["cost"]; c != "" {
		cost, err := ledger.ParseAmount(c)
		if err != nil || cost.IsNegative() {
			return Directive{}, false
		}
		d.UnitCost = cost
	}

	switch strings.ToLower(canon["direction"]) {
	case "":
	case "in":
		d.Direction = DirectionIn
	case "out":
		d.Direction = DirectionOut
	default:
		return Directive{}, false
	}

	if d.Direction == "" && d.Warehouse == "" && d.From == "" && d.To == "" {
		return Directive{}, false
	}
	return d, true
}

// Extract parses and normalizes every directive in text.
func Extract(text string) []Directive {
	var out []Directive
	for _, p := range ParseAll(text) {
		if d, ok := Normalize(p); ok {
			out = append(out, d)
		}
	}
	return out
}

// Route decides direction and warehouses. Explicit source and destination
// win, then dir with wh. When only a warehouse is given the posting side
// decides: a debit receives stock, a credit issues it.
func (d Directive) Route(side ledger.Side) (dir Direction, from, to string) {
	switch {
	case d.From != "" && d.To != "":
		return DirectionTransfer, d.From, d.To
	case d.From != "":
		return DirectionOut, d.From, ""
	case d.To != "":
		return DirectionIn, "", d.To
	}

	dir = d.Direction
	if dir == "" {
		dir = DirectionIn
		if side == ledger.SideCredit {
			dir = DirectionOut
		}
	}
	if dir == DirectionIn {
		return dir, "", d.Warehouse
	}
	return dir, d.Warehouse, ""
}
