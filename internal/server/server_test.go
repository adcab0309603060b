package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonvc/ledgersync/internal/book"
	"github.com/simonvc/ledgersync/internal/ledger"
	"github.com/simonvc/ledgersync/internal/merge"
	"github.com/simonvc/ledgersync/internal/store"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	svc, err := book.New(context.Background(), st, st)
	require.NoError(t, err)
	t.Cleanup(svc.Close)

	ts := httptest.NewServer(New(svc, st, "").Handler())
	t.Cleanup(ts.Close)
	return ts
}

func do(t *testing.T, ts *httptest.Server, method, path string, body any) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, ts.URL+path, r)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func createAndPost(t *testing.T, ts *httptest.Server, body map[string]any) ledger.JournalEntry {
	t.Helper()
	resp := do(t, ts, http.MethodPost, "/api/v1/entries", body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var e ledger.JournalEntry
	decodeBody(t, resp, &e)

	resp = do(t, ts, http.MethodPost, "/api/v1/entries/"+e.ID+"/approve", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = do(t, ts, http.MethodPost, "/api/v1/entries/"+e.ID+"/post", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp, &e)
	return e
}

func cashSale() map[string]any {
	return map[string]any{
		"date":      "2025-01-10",
		"reference": "INV-0001",
		"memo":      "Cash sale",
		"lines": []map[string]any{
			{"account": "1000", "debit": 1000},
			{"account": "Sales Revenue", "credit": "1000.00"},
		},
	}
}

func TestEntryLifecycle(t *testing.T) {
	ts := newTestServer(t)

	e := createAndPost(t, ts, cashSale())
	assert.Equal(t, ledger.StatusPosted, e.Status)
	assert.Equal(t, "JE-20250110-0001", e.Number)
	assert.Equal(t, "4000", e.Lines[1].Account)

	resp := do(t, ts, http.MethodGet, "/api/v1/entries?status=posted", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []ledger.JournalEntry
	decodeBody(t, resp, &list)
	assert.Len(t, list, 1)

	resp = do(t, ts, http.MethodPost, "/api/v1/entries/"+e.ID+"/approve", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = do(t, ts, http.MethodGet, "/api/v1/rows", nil)
	var rows []ledger.Row
	decodeBody(t, resp, &rows)
	require.Len(t, rows, 2)
	assert.True(t, rows[0].Locked)
	assert.Equal(t, ledger.MustDate("2025-01-10"), rows[0].Date)

	resp = do(t, ts, http.MethodDelete, "/api/v1/entries/"+e.ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = do(t, ts, http.MethodGet, "/api/v1/entries/"+e.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = do(t, ts, http.MethodGet, "/api/v1/rows", nil)
	decodeBody(t, resp, &rows)
	assert.Empty(t, rows)
}

func TestCreateEntryValidation(t *testing.T) {
	ts := newTestServer(t)

	body := cashSale()
	body["lines"] = []map[string]any{
		{"account": "1000", "debit": 100},
		{"account": "4000", "credit": 99.99},
	}
	resp := do(t, ts, http.MethodPost, "/api/v1/entries", body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var er errorResponse
	decodeBody(t, resp, &er)
	assert.Contains(t, er.Error, "do not balance")

	resp = do(t, ts, http.MethodPost, "/api/v1/entries", map[string]any{"date": "10/01/2025"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/api/v1/entries", strings.NewReader("{"))
	require.NoError(t, err)
	raw, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer raw.Body.Close()
	assert.Equal(t, http.StatusBadRequest, raw.StatusCode)
}

func TestValidateEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp := do(t, ts, http.MethodPost, "/api/v1/validate", map[string]any{
		"lines": []map[string]any{
			{"account": "1000 - Cash on Hand", "debit": 50},
			{"account": "", "debit": 0},
			{"account": "5000", "debit": -50},
		},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out struct {
		OK    bool          `json:"ok"`
		Lines []ledger.Line `json:"lines"`
	}
	decodeBody(t, resp, &out)
	assert.True(t, out.OK)
	require.Len(t, out.Lines, 2)
	assert.Equal(t, "1000", out.Lines[0].Account)
	assert.True(t, out.Lines[1].Credit.IsPositive())

	resp = do(t, ts, http.MethodPost, "/api/v1/validate", map[string]any{
		"lines": []map[string]any{{"account": "1000", "debit": 50}},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var rejected struct {
		OK     bool   `json:"ok"`
		Reason string `json:"reason"`
	}
	decodeBody(t, resp, &rejected)
	assert.False(t, rejected.OK)
	assert.Contains(t, rejected.Reason, "at least 2")
}

func TestQuickEntry(t *testing.T) {
	ts := newTestServer(t)

	resp := do(t, ts, http.MethodPost, "/api/v1/entries/quick", map[string]any{
		"date":           "2025-03-01",
		"debit_account":  "5000",
		"credit_account": "1010",
		"amount":         "12.50",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var e ledger.JournalEntry
	decodeBody(t, resp, &e)
	assert.Equal(t, ledger.StatusDraft, e.Status)
	assert.Len(t, e.Lines, 2)
}

func TestRowsEndpoints(t *testing.T) {
	ts := newTestServer(t)
	createAndPost(t, ts, cashSale())

	manual := []map[string]any{
		{"date": "2025-01-15", "account": "1000", "memo": "float", "debit": 20, "credit": 0},
		{"date": "2025-01-15", "account": "3000", "memo": "float", "debit": 0, "credit": 20},
	}
	resp := do(t, ts, http.MethodPost, "/api/v1/rows", manual)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var added addRowsResponse
	decodeBody(t, resp, &added)
	assert.Equal(t, 2, added.Added)
	assert.Equal(t, 4, added.Total)

	resp = do(t, ts, http.MethodPost, "/api/v1/rows", manual)
	decodeBody(t, resp, &added)
	assert.Zero(t, added.Added)

	resp = do(t, ts, http.MethodGet, "/api/v1/rows?origin=manual", nil)
	var rows []ledger.Row
	decodeBody(t, resp, &rows)
	require.Len(t, rows, 2)

	resp = do(t, ts, http.MethodGet, "/api/v1/rows?origin=server", nil)
	var server []ledger.Row
	decodeBody(t, resp, &server)
	require.Len(t, server, 2)

	resp = do(t, ts, http.MethodDelete, "/api/v1/rows?key="+url.QueryEscape(merge.Key(server[0])), nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = do(t, ts, http.MethodDelete, "/api/v1/rows?key="+url.QueryEscape(merge.Key(rows[0])), nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = do(t, ts, http.MethodDelete, "/api/v1/rows?key=nope", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = do(t, ts, http.MethodPost, "/api/v1/rows", []map[string]any{
		{"date": "2025-01-15", "account": "1000", "debit": 5, "credit": 5},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestReports(t *testing.T) {
	ts := newTestServer(t)
	createAndPost(t, ts, cashSale())

	resp := do(t, ts, http.MethodGet, "/api/v1/reports/trial-balance?start=2025-01-01&end=2025-01-31", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var tb struct {
		Balanced bool     `json:"balanced"`
		Warnings []string `json:"warnings"`
		Lines    []struct {
			Account string `json:"account"`
		} `json:"lines"`
	}
	decodeBody(t, resp, &tb)
	assert.True(t, tb.Balanced)
	assert.Empty(t, tb.Warnings)
	assert.Len(t, tb.Lines, 2)

	resp = do(t, ts, http.MethodGet, "/api/v1/reports/balance-sheet?as_of=2025-01-31", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var bs struct {
		Balanced bool `json:"balanced"`
	}
	decodeBody(t, resp, &bs)
	assert.False(t, bs.Balanced)

	resp = do(t, ts, http.MethodGet, "/api/v1/reports/balance-sheet?as_of=2025-01-31&unclosed_earnings=true", nil)
	decodeBody(t, resp, &bs)
	assert.True(t, bs.Balanced)

	resp = do(t, ts, http.MethodGet, "/api/v1/reports/profit-loss?start=2025-01-01&end=2025-01-31", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var pl map[string]any
	decodeBody(t, resp, &pl)
	assert.EqualValues(t, 1000, pl["netIncome"])

	resp = do(t, ts, http.MethodGet, "/api/v1/reports/trial-balance?start=2025-02-01", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestReportCSV(t *testing.T) {
	ts := newTestServer(t)
	createAndPost(t, ts, cashSale())

	resp := do(t, ts, http.MethodGet, "/api/v1/reports/trial-balance?as_of=2025-01-31&format=csv", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/csv")
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "1.000,00")
	assert.Contains(t, string(body), "TOTAL")

	resp = do(t, ts, http.MethodGet, "/api/v1/reports/general-ledger?account=1000", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err = io.ReadAll(resp.Body)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(body)), "\n")
	assert.Len(t, lines, 2)
}

func TestSuggestAndSequence(t *testing.T) {
	ts := newTestServer(t)

	resp := do(t, ts, http.MethodGet, "/api/v1/advisor/suggest?account=5000&side=debit", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var sg struct {
		Permitted []ledger.Category `json:"permitted"`
		Groups    []struct {
			Label string `json:"label"`
		} `json:"groups"`
	}
	decodeBody(t, resp, &sg)
	assert.ElementsMatch(t, []ledger.Category{ledger.CategoryAsset, ledger.CategoryLiability}, sg.Permitted)
	assert.Len(t, sg.Groups, 2)

	resp = do(t, ts, http.MethodGet, "/api/v1/advisor/suggest?account=5000&side=sideways", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, ts, http.MethodPost, "/api/v1/sequence/next", nextNumberRequest{Prefix: "inv", Date: "2025-01-10"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var n nextNumberResponse
	decodeBody(t, resp, &n)
	assert.Equal(t, "INV-20250110-0001", n.Number)
}

func TestChartAndSettings(t *testing.T) {
	ts := newTestServer(t)

	resp := do(t, ts, http.MethodPost, "/api/v1/accounts", ledger.Account{Code: "1250", Name: "Goods in Transit"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = do(t, ts, http.MethodGet, "/api/v1/chart", nil)
	var chart []chartAccount
	decodeBody(t, resp, &chart)
	var found bool
	for _, a := range chart {
		if a.Code == "1250" {
			found = true
			assert.True(t, a.Current)
		}
	}
	assert.True(t, found)

	resp = do(t, ts, http.MethodPut, "/api/v1/settings/1250/CLASSIFICATION", upsertSettingRequest{Value: "NON_CURRENT"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, ts, http.MethodPut, "/api/v1/settings/1250/COLOUR", upsertSettingRequest{Value: "red"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, ts, http.MethodGet, "/api/v1/accounts/9999", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestScanAndMetrics(t *testing.T) {
	ts := newTestServer(t)

	resp := do(t, ts, http.MethodPost, "/api/v1/sync/scan", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, ts, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
