// Package orderclient submits completed orders to the remote order service,
// the single persistence collaborator of the till.
package orderclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/warungku/poscore/internal/domain"
	"github.com/warungku/poscore/pkg/httpclient"
)

// HTTPDoer executes HTTP requests. Both httpclient.Client and
// httpclient.CircuitBreakerClient satisfy this.
type HTTPDoer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// Client calls the order service. Submission is never retried: the call is
// treated as atomic and its failure surfaces verbatim, since a blind retry
// could persist the sale twice.
type Client struct {
	httpClient HTTPDoer
	baseURL    string
	timeout    time.Duration
	logger     *slog.Logger
}

// New creates an order service client.
func New(httpClient HTTPDoer, baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		timeout:    timeout,
		logger:     logger,
	}
}

// SubmitOrderInput is the payload persisted by the order service.
type SubmitOrderInput struct {
	Totals       domain.OrderTotals `json:"totals"`
	Cashier      string             `json:"cashier"`
	CustomerName string             `json:"customer_name,omitempty"`
	Notes        string             `json:"notes,omitempty"`
	SoldAt       time.Time          `json:"sold_at"`
}

type submitOrderResponse struct {
	OrderNumber string `json:"order_number"`
}

// SubmitOrder persists the order and returns the authoritative order number.
func (c *Client) SubmitOrder(ctx context.Context, input SubmitOrderInput) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	body, err := json.Marshal(input)
	if err != nil {
		return "", fmt.Errorf("marshal submit order request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/orders", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create submit order request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(ctx, req)
	if err != nil {
		return "", fmt.Errorf("call order service: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", httpclient.ParseResponseError(resp, "order")
	}
	defer resp.Body.Close()

	var orderResp submitOrderResponse
	if err := json.NewDecoder(resp.Body).Decode(&orderResp); err != nil {
		return "", fmt.Errorf("decode order response: %w", err)
	}
	if orderResp.OrderNumber == "" {
		return "", fmt.Errorf("order service returned an empty order number")
	}

	c.logger.InfoContext(ctx, "order submitted",
		slog.String("order_number", orderResp.OrderNumber),
		slog.Int64("grand_total", int64(input.Totals.GrandTotal)),
	)
	return orderResp.OrderNumber, nil
}
