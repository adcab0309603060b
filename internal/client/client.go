package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"github.com/simonvc/ledgersync/internal/advisor"
	"github.com/simonvc/ledgersync/internal/ledger"
	"github.com/simonvc/ledgersync/internal/report"
	"github.com/simonvc/ledgersync/internal/syncer"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// EntryRequest is the wire form of a new journal entry. Date is YYYY-MM-DD;
// blank means today.
type EntryRequest struct {
	Date      string          `json:"date,omitempty"`
	Reference string          `json:"reference,omitempty"`
	Memo      string          `json:"memo,omitempty"`
	Currency  string          `json:"currency,omitempty"`
	Rate      decimal.Decimal `json:"rate"`
	Lines     []ledger.Line   `json:"lines"`
}

type QuickEntryRequest struct {
	Date          string          `json:"date,omitempty"`
	DebitAccount  string          `json:"debit_account"`
	CreditAccount string          `json:"credit_account"`
	Amount        decimal.Decimal `json:"amount"`
	Memo          string          `json:"memo,omitempty"`
	Reference     string          `json:"reference,omitempty"`
	Currency      string          `json:"currency,omitempty"`
}

type ValidateResponse struct {
	OK          bool            `json:"ok"`
	Reason      string          `json:"reason"`
	TotalDebit  decimal.Decimal `json:"total_debit"`
	TotalCredit decimal.Decimal `json:"total_credit"`
	BaseDebit   decimal.Decimal `json:"base_debit"`
	BaseCredit  decimal.Decimal `json:"base_credit"`
	Lines       []ledger.Line   `json:"lines"`
}

type TrialBalanceResponse struct {
	report.TrialBalance
	Warnings []string `json:"warnings"`
}

type BalanceSheetResponse struct {
	report.BalanceSheet
	Warnings []string `json:"warnings"`
}

type AddRowsResponse struct {
	Added int `json:"added"`
	Total int `json:"total"`
}

type ChartAccount struct {
	ledger.Account
	Current bool `json:"current"`
}

func (c *Client) CreateEntry(ctx context.Context, req EntryRequest) (*ledger.JournalEntry, error) {
	var result ledger.JournalEntry
	if err := c.post(ctx, "/api/v1/entries", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) QuickEntry(ctx context.Context, req QuickEntryRequest) (*ledger.JournalEntry, error) {
	var result ledger.JournalEntry
	if err := c.post(ctx, "/api/v1/entries/quick", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) ListEntries(ctx context.Context, status ledger.Status) ([]ledger.JournalEntry, error) {
	params := url.Values{}
	if status != "" {
		params.Set("status", string(status))
	}
	var result []ledger.JournalEntry
	if err := c.get(ctx, "/api/v1/entries?"+params.Encode(), &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) GetEntry(ctx context.Context, id string) (*ledger.JournalEntry, error) {
	var result ledger.JournalEntry
	if err := c.get(ctx, "/api/v1/entries/"+url.PathEscape(id), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) ApproveEntry(ctx context.Context, id string) (*ledger.JournalEntry, error) {
	var result ledger.JournalEntry
	if err := c.post(ctx, "/api/v1/entries/"+url.PathEscape(id)+"/approve", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) PostEntry(ctx context.Context, id string) (*ledger.JournalEntry, error) {
	var result ledger.JournalEntry
	if err := c.post(ctx, "/api/v1/entries/"+url.PathEscape(id)+"/post", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) DeleteEntry(ctx context.Context, id string) error {
	return c.del(ctx, "/api/v1/entries/"+url.PathEscape(id))
}

func (c *Client) Validate(ctx context.Context, req EntryRequest) (*ValidateResponse, error) {
	var result ValidateResponse
	if err := c.post(ctx, "/api/v1/validate", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) Rows(ctx context.Context, origin ledger.Origin, account string) ([]ledger.Row, error) {
	params := url.Values{}
	if origin != "" {
		params.Set("origin", string(origin))
	}
	if account != "" {
		params.Set("account", account)
	}
	var result []ledger.Row
	if err := c.get(ctx, "/api/v1/rows?"+params.Encode(), &result); err != nil {
		return nil, err
	}
	return result, nil
}

// AddRows posts manual rows, or local-cache rows when overlay is set.
func (c *Client) AddRows(ctx context.Context, rows []ledger.Row, overlay bool) (*AddRowsResponse, error) {
	path := "/api/v1/rows"
	if overlay {
		path += "/overlay"
	}
	var result AddRowsResponse
	if err := c.post(ctx, path, rows, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) DeleteRow(ctx context.Context, key string) error {
	return c.del(ctx, "/api/v1/rows?key="+url.QueryEscape(key))
}

// windowQuery encodes w. The zero window encodes to nothing.
func windowQuery(w report.Window) url.Values {
	params := url.Values{}
	switch w.Mode {
	case "":
	case report.ModeAsOf:
		params.Set("as_of", w.Date.Format(ledger.DateLayout))
	default:
		params.Set("start", w.Start.Format(ledger.DateLayout))
		params.Set("end", w.End.Format(ledger.DateLayout))
	}
	return params
}

func (c *Client) TrialBalance(ctx context.Context, w report.Window) (*TrialBalanceResponse, error) {
	var result TrialBalanceResponse
	if err := c.get(ctx, "/api/v1/reports/trial-balance?"+windowQuery(w).Encode(), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) BalanceSheet(ctx context.Context, w report.Window, unclosedEarnings bool) (*BalanceSheetResponse, error) {
	params := windowQuery(w)
	if unclosedEarnings {
		params.Set("unclosed_earnings", "true")
	}
	var result BalanceSheetResponse
	if err := c.get(ctx, "/api/v1/reports/balance-sheet?"+params.Encode(), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) ProfitAndLoss(ctx context.Context, w report.Window) (*report.ProfitAndLoss, error) {
	var result report.ProfitAndLoss
	if err := c.get(ctx, "/api/v1/reports/profit-loss?"+windowQuery(w).Encode(), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ExportCSV fetches a report as CSV. name is trial-balance, balance-sheet or
// general-ledger.
func (c *Client) ExportCSV(ctx context.Context, name string, w report.Window, account string) ([]byte, error) {
	params := windowQuery(w)
	params.Set("format", "csv")
	if account != "" {
		params.Set("account", account)
	}
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/api/v1/reports/"+name+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, responseError(resp.StatusCode, bodyBytes)
	}
	return bodyBytes, nil
}

func (c *Client) Suggest(ctx context.Context, account string, side ledger.Side) (*advisor.Suggestion, error) {
	params := url.Values{}
	params.Set("account", account)
	params.Set("side", string(side))
	var result advisor.Suggestion
	if err := c.get(ctx, "/api/v1/advisor/suggest?"+params.Encode(), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) NextNumber(ctx context.Context, prefix, date string) (string, error) {
	var result struct {
		Number string `json:"number"`
	}
	body := map[string]string{"prefix": prefix, "date": date}
	if err := c.post(ctx, "/api/v1/sequence/next", body, &result); err != nil {
		return "", err
	}
	return result.Number, nil
}

func (c *Client) Scan(ctx context.Context) (*syncer.Report, error) {
	var result syncer.Report
	if err := c.post(ctx, "/api/v1/sync/scan", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) SyncStatus(ctx context.Context) (*syncer.Report, error) {
	var result syncer.Report
	if err := c.get(ctx, "/api/v1/sync/status", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) GetChart(ctx context.Context) ([]ChartAccount, error) {
	var result []ChartAccount
	if err := c.get(ctx, "/api/v1/chart", &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) CreateAccount(ctx context.Context, acct ledger.Account) (*ledger.Account, error) {
	var result ledger.Account
	if err := c.post(ctx, "/api/v1/accounts", acct, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) DeleteAccount(ctx context.Context, code string) error {
	return c.del(ctx, "/api/v1/accounts/"+url.PathEscape(code))
}

// Ping checks if the server is reachable.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/api/v1/chart", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func (c *Client) get(ctx context.Context, path string, result any) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return c.doRequest(req, result)
}

func (c *Client) del(ctx context.Context, path string) error {
	req, err := http.NewRequestWithContext(ctx, "DELETE", c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return c.doRequest(req, nil)
}

func (c *Client) post(ctx context.Context, path string, body any, result any) error {
	var r io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, r)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.doRequest(req, result)
}

type apiError struct {
	Error string `json:"error"`
}

func responseError(status int, body []byte) error {
	var apiErr apiError
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
		return fmt.Errorf("server error (%d): %s", status, apiErr.Error)
	}
	return fmt.Errorf("server error (%d): %s", status, string(body))
}

func (c *Client) doRequest(req *http.Request, result any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return responseError(resp.StatusCode, bodyBytes)
	}

	if result != nil && len(bodyBytes) > 0 {
		if err := json.Unmarshal(bodyBytes, result); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
