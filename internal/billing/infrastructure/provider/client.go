// Package provider is the outbound client for the payment provider's
// order API. Checkout starts by creating an order here; confirmations
// come back through the callback and webhook endpoints.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
)

// Order is a provider-side payment order awaiting checkout.
type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// Client calls the provider's REST API with basic auth credentials
// issued at onboarding. Calls run through a circuit breaker so a
// provider outage fails fast instead of tying up request handlers.
type Client struct {
	baseURL string
	keyID   string
	secret  string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[*Order]
	logger  *slog.Logger
}

func NewClient(baseURL, keyID, secret string, timeout time.Duration, logger *slog.Logger) *Client {
	c := &Client{
		baseURL: baseURL,
		keyID:   keyID,
		secret:  secret,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
	c.breaker = gobreaker.NewCircuitBreaker[*Order](gobreaker.Settings{
		Name:    "payment-provider",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("payment provider breaker state change",
				"breaker", name, "from", from.String(), "to", to.String())
		},
	})
	return c
}

type createOrderRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

// CreateOrder opens a provider order for amount. The provider expects
// minor units (paise/cents), so the decimal amount is shifted by two.
func (c *Client) CreateOrder(ctx context.Context, amount decimal.Decimal, currency, receipt string) (*Order, error) {
	return c.breaker.Execute(func() (*Order, error) {
		body, err := json.Marshal(createOrderRequest{
			Amount:   amount.Shift(2).IntPart(),
			Currency: currency,
			Receipt:  receipt,
		})
		if err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/orders", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.SetBasicAuth(c.keyID, c.secret)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("calling payment provider: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
			data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			return nil, fmt.Errorf("payment provider returned %d: %s", resp.StatusCode, data)
		}

		var order Order
		if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
			return nil, fmt.Errorf("decoding provider order: %w", err)
		}
		return &order, nil
	})
}
