// ABOUTME: HTTP implementation of the deal gateway
// ABOUTME: Speaks JSON to /deals and /products and tags each request with an X-Request-Id
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/dealflow/models"
)

const RequestIDHeader = "X-Request-Id"

// maxErrorBody bounds how much of a failed response body ends up in a StatusError.
const maxErrorBody = 512

type HTTPClient struct {
	baseURL string
	client  *http.Client
	logger  *log.Logger
}

type Option func(*HTTPClient)

// WithTimeout sets a per-request timeout. Zero means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *HTTPClient) {
		c.client.Timeout = d
	}
}

// WithHTTPClient replaces the underlying client, e.g. for httptest servers.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) {
		c.client = hc
	}
}

func WithLogger(l *log.Logger) Option {
	return func(c *HTTPClient) {
		c.logger = l
	}
}

func NewHTTPClient(baseURL string, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{},
		logger:  log.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *HTTPClient) BaseURL() string {
	return c.baseURL
}

func (c *HTTPClient) ListDeals(ctx context.Context) ([]models.Deal, error) {
	var deals []models.Deal
	if err := c.do(ctx, http.MethodGet, "/deals", nil, &deals); err != nil {
		return nil, fmt.Errorf("failed to list deals: %w", err)
	}
	if deals == nil {
		deals = []models.Deal{}
	}
	return deals, nil
}

func (c *HTTPClient) CreateDeal(ctx context.Context, draft models.DealDraft) (models.Deal, error) {
	var deal models.Deal
	if err := c.do(ctx, http.MethodPost, "/deals", draft, &deal); err != nil {
		return models.Deal{}, fmt.Errorf("failed to create deal: %w", err)
	}
	return deal, nil
}

func (c *HTTPClient) UpdateDeal(ctx context.Context, id models.DealID, patch models.DealPatch) (models.Deal, error) {
	var deal models.Deal
	if err := c.do(ctx, http.MethodPatch, "/deals/"+id.String(), patch, &deal); err != nil {
		return models.Deal{}, fmt.Errorf("failed to update deal %s: %w", id, err)
	}
	return deal, nil
}

func (c *HTTPClient) DeleteDeal(ctx context.Context, id models.DealID) error {
	if err := c.do(ctx, http.MethodDelete, "/deals/"+id.String(), nil, nil); err != nil {
		return fmt.Errorf("failed to delete deal %s: %w", id, err)
	}
	return nil
}

func (c *HTTPClient) ListEntities(ctx context.Context) ([]models.Entity, error) {
	var entities []models.Entity
	if err := c.do(ctx, http.MethodGet, "/products", nil, &entities); err != nil {
		return nil, fmt.Errorf("failed to list entities: %w", err)
	}
	return entities, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	requestID := uuid.New().String()
	req.Header.Set(RequestIDHeader, requestID)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Printf("[gateway] request_id=%s method=%s path=%s error=%q", requestID, method, path, err)
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	c.logger.Printf("[gateway] request_id=%s method=%s path=%s status=%d duration=%s",
		requestID, method, path, resp.StatusCode, time.Since(start).Round(time.Millisecond))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(msg)),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
