package server

import (
	"net/http"
	"time"

	"github.com/simonvc/ledgersync/internal/ledger"
	"github.com/simonvc/ledgersync/internal/report"
)

type trialBalanceResponse struct {
	*report.TrialBalance
	Warnings []string `json:"warnings"`
}

type balanceSheetResponse struct {
	*report.BalanceSheet
	Warnings []string `json:"warnings"`
}

func window(r *http.Request) (report.Window, error) {
	q := r.URL.Query()
	return report.ParseWindow(q.Get("start"), q.Get("end"), q.Get("as_of"))
}

func wantsCSV(r *http.Request) bool {
	return r.URL.Query().Get("format") == "csv"
}

func csvHeaders(w http.ResponseWriter, name string) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`.csv"`)
}

func nonNilWarnings(ws []string) []string {
	if ws == nil {
		return []string{}
	}
	return ws
}

func (s *Server) trialBalance(w http.ResponseWriter, r *http.Request) {
	win, err := window(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	tb, err := s.book.TrialBalance(win)
	if err != nil {
		writeErr(w, err)
		return
	}
	if wantsCSV(r) {
		csvHeaders(w, "trial-balance")
		report.WriteTrialBalanceCSV(w, tb)
		return
	}
	writeJSON(w, http.StatusOK, trialBalanceResponse{TrialBalance: tb, Warnings: nonNilWarnings(tb.Warnings())})
}

func (s *Server) balanceSheet(w http.ResponseWriter, r *http.Request) {
	win, err := window(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	var opts []report.BalanceSheetOption
	if r.URL.Query().Get("unclosed_earnings") == "true" {
		opts = append(opts, report.WithUnclosedEarnings())
	}
	bs, err := s.book.BalanceSheet(win, opts...)
	if err != nil {
		writeErr(w, err)
		return
	}
	if wantsCSV(r) {
		csvHeaders(w, "balance-sheet")
		report.WriteBalanceSheetCSV(w, bs)
		return
	}
	writeJSON(w, http.StatusOK, balanceSheetResponse{BalanceSheet: bs, Warnings: nonNilWarnings(bs.Warnings())})
}

func (s *Server) profitAndLoss(w http.ResponseWriter, r *http.Request) {
	win, err := window(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	pl, err := s.book.ProfitAndLoss(win)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pl)
}

// generalLedger exports the merged rows as CSV, optionally narrowed to one
// account and to rows on or before the window's last day.
func (s *Server) generalLedger(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	account := q.Get("account")

	var until time.Time
	bounded := q.Get("as_of") != "" || q.Get("end") != ""
	if bounded {
		win, err := window(r)
		if err != nil {
			writeErr(w, err)
			return
		}
		until = win.Last()
	}

	var rows []ledger.Row
	for _, row := range s.book.Rows() {
		if account != "" && row.Account != account {
			continue
		}
		if bounded && row.Date.After(until) {
			continue
		}
		rows = append(rows, row)
	}
	csvHeaders(w, "general-ledger")
	report.WriteGeneralLedgerCSV(w, rows)
}
