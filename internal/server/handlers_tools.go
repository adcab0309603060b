package server

import (
	"net/http"

	"github.com/simonvc/ledgersync/internal/ledger"
)

func (s *Server) suggest(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	side, err := ledger.ParseSide(q.Get("side"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	sg, err := s.book.Suggest(q.Get("account"), side)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sg)
}

type nextNumberRequest struct {
	Prefix string `json:"prefix"`
	Date   string `json:"date"`
}

type nextNumberResponse struct {
	Number string `json:"number"`
}

func (s *Server) nextNumber(w http.ResponseWriter, r *http.Request) {
	var req nextNumberRequest
	if !decode(w, r, &req) {
		return
	}
	date, err := optionalDate(req.Date)
	if err != nil {
		writeErr(w, err)
		return
	}
	n, err := s.book.NextNumber(r.Context(), req.Prefix, date)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nextNumberResponse{Number: n})
}

// scan runs a synchronous scan bound to the request context.
func (s *Server) scan(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.book.Scan(r.Context()))
}

func (s *Server) syncStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.book.LastScan())
}
