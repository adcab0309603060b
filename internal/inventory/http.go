// Package inventory talks to the inventory module: a REST client that
// creates and posts stock movements and resolves documents, and a Kafka
// publisher that emits the same movements as commands.
package inventory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/simonvc/ledgersync/internal/syncer"
)

// HTTPClient implements syncer.MovementService and syncer.DocumentResolver
// against the inventory REST API.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type createResponse struct {
	ID string `json:"id"`
}

// CreateMovement sends the sync key as Idempotency-Key so the inventory
// service can drop replays of its own.
func (c *HTTPClient) CreateMovement(ctx context.Context, m syncer.Movement) (string, error) {
	var res createResponse
	if err := c.post(ctx, "/api/v1/movements", m.Key, m, &res); err != nil {
		return "", err
	}
	if res.ID == "" {
		return "", fmt.Errorf("create movement: response carried no id")
	}
	return res.ID, nil
}

func (c *HTTPClient) PostMovement(ctx context.Context, id, who string) error {
	body := map[string]string{"postedBy": who}
	return c.post(ctx, "/api/v1/movements/"+url.PathEscape(id)+"/post", "", body, nil)
}

// DocumentByReference returns nil when the service answers 404.
func (c *HTTPClient) DocumentByReference(ctx context.Context, ref string) (*syncer.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/api/v1/documents?reference="+url.QueryEscape(ref), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	var doc syncer.Document
	status, err := c.doRequest(req, &doc)
	if status == http.StatusNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (c *HTTPClient) post(ctx context.Context, path, idempotencyKey string, body, result any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}
	_, err = c.doRequest(req, result)
	return err
}

type apiError struct {
	Error string `json:"error"`
}

func (c *HTTPClient) doRequest(req *http.Request, result any) (int, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var apiErr apiError
		if json.Unmarshal(bodyBytes, &apiErr) == nil && apiErr.Error != "" {
			return resp.StatusCode, fmt.Errorf("inventory error (%d): %s", resp.StatusCode, apiErr.Error)
		}
		return resp.StatusCode, fmt.Errorf("inventory error (%d): %s", resp.StatusCode, string(bodyBytes))
	}

	if result != nil && len(bodyBytes) > 0 {
		if err := json.Unmarshal(bodyBytes, result); err != nil {
			return resp.StatusCode, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}
