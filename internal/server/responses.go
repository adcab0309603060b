package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/simonvc/ledgersync/internal/advisor"
	"github.com/simonvc/ledgersync/internal/ledger"
	"github.com/simonvc/ledgersync/internal/report"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeErr(w http.ResponseWriter, err error) {
	writeError(w, mapError(err), err.Error())
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return false
	}
	return true
}

func mapError(err error) int {
	switch {
	case errors.Is(err, ledger.ErrAccountNotFound),
		errors.Is(err, ledger.ErrEntryNotFound),
		errors.Is(err, ledger.ErrRowNotFound):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrRowLocked),
		errors.Is(err, ledger.ErrInvalidTransition):
		return http.StatusConflict
	case ledger.IsValidationError(err),
		errors.Is(err, ledger.ErrInvalidCategory),
		errors.Is(err, ledger.ErrInvalidSetting),
		errors.Is(err, report.ErrInvalidWindow),
		errors.Is(err, advisor.ErrNotPermitted):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
