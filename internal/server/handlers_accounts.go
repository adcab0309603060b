package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/simonvc/ledgersync/internal/ledger"
)

type chartAccount struct {
	ledger.Account
	Current bool `json:"current"`
}

// getChart returns the effective chart: stored accounts with categories and
// current classification resolved.
func (s *Server) getChart(w http.ResponseWriter, r *http.Request) {
	chart := s.book.Chart()
	accounts := chart.Accounts()
	out := make([]chartAccount, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, chartAccount{Account: a, Current: chart.IsCurrent(a.Code)})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createAccount(w http.ResponseWriter, r *http.Request) {
	var acct ledger.Account
	if !decode(w, r, &acct) {
		return
	}
	if err := s.accounts.CreateAccount(r.Context(), acct); err != nil {
		writeErr(w, err)
		return
	}
	if err := s.book.ReloadChart(r.Context()); err != nil {
		writeErr(w, err)
		return
	}

	created, err := s.accounts.GetAccount(r.Context(), acct.Code)
	if err != nil {
		writeJSON(w, http.StatusCreated, acct)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) listAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.accounts.ListAccounts(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	if accounts == nil {
		accounts = []ledger.Account{}
	}
	writeJSON(w, http.StatusOK, accounts)
}

func (s *Server) getAccount(w http.ResponseWriter, r *http.Request) {
	acct, err := s.accounts.GetAccount(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, acct)
}

func (s *Server) deleteAccount(w http.ResponseWriter, r *http.Request) {
	if err := s.accounts.DeleteAccount(r.Context(), chi.URLParam(r, "code")); err != nil {
		writeErr(w, err)
		return
	}
	if err := s.book.ReloadChart(r.Context()); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
