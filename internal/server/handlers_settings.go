package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/simonvc/ledgersync/internal/ledger"
)

func (s *Server) listSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.accounts.ListAllSettings(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	if settings == nil {
		settings = []ledger.CoASetting{}
	}
	writeJSON(w, http.StatusOK, settings)
}

type upsertSettingRequest struct {
	Value string `json:"value"`
}

func (s *Server) upsertSetting(w http.ResponseWriter, r *http.Request) {
	var req upsertSettingRequest
	if !decode(w, r, &req) {
		return
	}

	cs := ledger.CoASetting{
		Code:    chi.URLParam(r, "code"),
		Setting: ledger.SettingName(chi.URLParam(r, "setting")),
		Value:   req.Value,
	}
	if err := s.accounts.UpsertSetting(r.Context(), cs); err != nil {
		writeErr(w, err)
		return
	}
	if err := s.book.ReloadChart(r.Context()); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cs)
}

func (s *Server) deleteSetting(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	setting := ledger.SettingName(chi.URLParam(r, "setting"))
	if err := s.accounts.DeleteSetting(r.Context(), code, setting); err != nil {
		writeErr(w, err)
		return
	}
	if err := s.book.ReloadChart(r.Context()); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
