package report

import (
	"encoding/csv"
	"io"

	"github.com/shopspring/decimal"
	"github.com/simonvc/ledgersync/internal/ledger"
)

var (
	TrialBalanceHeader  = []string{"Account", "Name", "Opening Dr", "Opening Cr", "Period Debit", "Period Credit", "Ending Dr", "Ending Cr"}
	BalanceSheetHeader  = []string{"Section", "Account", "Name", "Amount"}
	GeneralLedgerHeader = []string{"Date", "Account", "Description", "Debit", "Credit", "Reference", "Entry No."}
)

func amount(d decimal.Decimal) string {
	return ledger.FormatLocale(d)
}

func WriteTrialBalanceCSV(w io.Writer, tb *TrialBalance) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(TrialBalanceHeader); err != nil {
		return err
	}
	for _, l := range tb.Lines {
		if err := cw.Write([]string{
			l.Account, l.Name,
			amount(l.OpeningDebit), amount(l.OpeningCredit),
			amount(l.PeriodDebit), amount(l.PeriodCredit),
			amount(l.EndingDebit), amount(l.EndingCredit),
		}); err != nil {
			return err
		}
	}
	if err := cw.Write([]string{
		"TOTAL", "",
		amount(tb.TotalOpeningDebit), amount(tb.TotalOpeningCredit),
		amount(tb.TotalPeriodDebit), amount(tb.TotalPeriodCredit),
		amount(tb.TotalEndingDebit), amount(tb.TotalEndingCredit),
	}); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

// WriteBalanceSheetCSV writes each section followed by a TOTAL row, then a
// closing CHECK row carrying the diff.
func WriteBalanceSheetCSV(w io.Writer, bs *BalanceSheet) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(BalanceSheetHeader); err != nil {
		return err
	}
	for _, s := range bs.Sections {
		for _, l := range s.Lines {
			if err := cw.Write([]string{s.Name, l.Account, l.Name, amount(l.Amount)}); err != nil {
				return err
			}
		}
		if err := cw.Write([]string{s.Name, "TOTAL", "", amount(s.Total)}); err != nil {
			return err
		}
	}
	if err := cw.Write([]string{"CHECK", "", "Assets - (Liabilities + Equity)", amount(bs.Diff)}); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

// WriteGeneralLedgerCSV exports rows in the order given.
func WriteGeneralLedgerCSV(w io.Writer, rows []ledger.Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(GeneralLedgerHeader); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write([]string{
			r.Date.Format(ledger.DateLayout),
			r.Account,
			r.Memo,
			amount(r.Debit),
			amount(r.Credit),
			r.Reference,
			r.EntryNumber,
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
