package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/simonvc/ledgersync/internal/ledger"
	"github.com/simonvc/ledgersync/internal/store"
)

type lineRequest struct {
	Account string           `json:"account"`
	Debit   decimal.Decimal  `json:"debit"`
	Credit  decimal.Decimal  `json:"credit"`
	Memo    string           `json:"memo,omitempty"`
	Rate    *decimal.Decimal `json:"rate,omitempty"`
}

type createEntryRequest struct {
	Date      string          `json:"date"`
	Reference string          `json:"reference"`
	Memo      string          `json:"memo"`
	Currency  string          `json:"currency"`
	Rate      decimal.Decimal `json:"rate"`
	Lines     []lineRequest   `json:"lines"`
}

func (req createEntryRequest) lines() []ledger.Line {
	lines := make([]ledger.Line, len(req.Lines))
	for i, l := range req.Lines {
		lines[i] = ledger.Line{Account: l.Account, Debit: l.Debit, Credit: l.Credit, Memo: l.Memo, Rate: l.Rate}
	}
	return lines
}

// optionalDate parses s, returning the zero time when s is blank.
func optionalDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return ledger.ParseDate(s)
}

func (s *Server) createEntry(w http.ResponseWriter, r *http.Request) {
	var req createEntryRequest
	if !decode(w, r, &req) {
		return
	}
	date, err := optionalDate(req.Date)
	if err != nil {
		writeErr(w, err)
		return
	}

	e := &ledger.JournalEntry{
		Date:      date,
		Reference: req.Reference,
		Memo:      req.Memo,
		Currency:  req.Currency,
		Rate:      req.Rate,
		Lines:     req.lines(),
	}
	if err := s.book.CreateEntry(r.Context(), e); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

type quickEntryRequest struct {
	Date          string          `json:"date"`
	DebitAccount  string          `json:"debit_account"`
	CreditAccount string          `json:"credit_account"`
	Amount        decimal.Decimal `json:"amount"`
	Memo          string          `json:"memo"`
	Reference     string          `json:"reference"`
	Currency      string          `json:"currency"`
	Rate          decimal.Decimal `json:"rate"`
}

func (s *Server) quickEntry(w http.ResponseWriter, r *http.Request) {
	var req quickEntryRequest
	if !decode(w, r, &req) {
		return
	}
	date, err := optionalDate(req.Date)
	if err != nil {
		writeErr(w, err)
		return
	}

	e, err := s.book.QuickEntry(r.Context(), ledger.QuickEntry{
		Date:          date,
		DebitAccount:  req.DebitAccount,
		CreditAccount: req.CreditAccount,
		Amount:        req.Amount,
		Memo:          req.Memo,
		Reference:     req.Reference,
		Currency:      req.Currency,
		Rate:          req.Rate,
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (s *Server) listEntries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.EntryFilter{Status: ledger.Status(q.Get("status"))}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit: "+v)
			return
		}
		filter.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid offset: "+v)
			return
		}
		filter.Offset = n
	}

	entries, err := s.book.ListEntries(r.Context(), filter)
	if err != nil {
		writeErr(w, err)
		return
	}
	if entries == nil {
		entries = []ledger.JournalEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) getEntry(w http.ResponseWriter, r *http.Request) {
	e, err := s.book.GetEntry(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) approveEntry(w http.ResponseWriter, r *http.Request) {
	e, err := s.book.ApproveEntry(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) postEntry(w http.ResponseWriter, r *http.Request) {
	e, err := s.book.PostEntry(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) deleteEntry(w http.ResponseWriter, r *http.Request) {
	if err := s.book.DeleteEntry(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type validateResponse struct {
	ledger.Result
	Lines []ledger.Line `json:"lines,omitempty"`
}

// validate runs the balance check without persisting anything. A rejected
// candidate is still a 200: the verdict is the payload.
func (s *Server) validate(w http.ResponseWriter, r *http.Request) {
	var req createEntryRequest
	if !decode(w, r, &req) {
		return
	}
	res := s.book.Validate(ledger.Candidate{Currency: req.Currency, Rate: req.Rate, Lines: req.lines()})
	writeJSON(w, http.StatusOK, validateResponse{Result: res, Lines: res.EntryLines()})
}
