package server

import (
	"net/http"

	"github.com/simonvc/ledgersync/internal/ledger"
)

func (s *Server) listRows(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	origin := ledger.Origin(q.Get("origin"))
	account := q.Get("account")

	out := []ledger.Row{}
	for _, row := range s.book.Rows() {
		if origin != "" && row.Origin != origin {
			continue
		}
		if account != "" && row.Account != account {
			continue
		}
		out = append(out, row)
	}
	writeJSON(w, http.StatusOK, out)
}

type addRowsResponse struct {
	Added int `json:"added"`
	Total int `json:"total"`
}

func (s *Server) addRows(w http.ResponseWriter, r *http.Request, origin ledger.Origin) {
	var rows []ledger.Row
	if !decode(w, r, &rows) {
		return
	}
	added, err := s.book.AddRows(r.Context(), origin, rows)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, addRowsResponse{Added: added, Total: len(s.book.Rows())})
}

func (s *Server) addManualRows(w http.ResponseWriter, r *http.Request) {
	s.addRows(w, r, ledger.OriginManual)
}

func (s *Server) addOverlayRows(w http.ResponseWriter, r *http.Request) {
	s.addRows(w, r, ledger.OriginLocalCache)
}

func (s *Server) deleteRow(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		writeError(w, http.StatusBadRequest, "key is required")
		return
	}
	if err := s.book.RemoveRow(r.Context(), key); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
