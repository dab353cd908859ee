// Package paymentgateway is a thin HTTP client for the Razorpay Orders and
// Payments APIs. It performs no amount policy decisions of its own; callers
// pass the amount and are responsible for validating what comes back.
package paymentgateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

type Order struct {
	ID        string `json:"id"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	Receipt   string `json:"receipt"`
	Status    string `json:"status"`
	CreatedAt int64  `json:"created_at"`
}

type Payment struct {
	ID       string `json:"id"`
	OrderID  string `json:"order_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
	Email    string `json:"email"`
	Contact  string `json:"contact"`
}

// PaymentStatusCaptured is the only gateway status that proves money moved.
const PaymentStatusCaptured = "captured"

type Config struct {
	APIURL    string
	KeyID     string
	KeySecret string
	Timeout   time.Duration
}

type Client struct {
	apiURL    string
	keyID     string
	keySecret string
	timeout   time.Duration
	client    *http.Client
	logger    *slog.Logger
}

func NewClient(config Config, logger *slog.Logger) *Client {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		apiURL:    config.APIURL,
		keyID:     config.KeyID,
		keySecret: config.KeySecret,
		timeout:   timeout,
		client:    &http.Client{Timeout: timeout},
		logger:    logger,
	}
}

type createOrderRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

// CreateOrder registers a payment intent with the gateway and returns its
// order handle. Orders are transient per checkout attempt and never stored.
func (c *Client) CreateOrder(ctx context.Context, amount int64, currency, receipt string, notes map[string]string) (*Order, error) {
	payload := createOrderRequest{
		Amount:   amount,
		Currency: currency,
		Receipt:  receipt,
		Notes:    notes,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal order request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.apiURL+"/orders", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}

	httpReq.SetBasicAuth(c.keyID, c.keySecret)
	httpReq.Header.Set("Content-Type", "application/json")

	c.logger.Info("creating gateway order",
		"amount", amount,
		"currency", currency,
		"receipt", receipt)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read gateway response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		c.logger.Error("gateway order creation failed",
			"status", resp.StatusCode,
			"receipt", receipt)
		return nil, fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}

	var order Order
	if err := json.Unmarshal(respBody, &order); err != nil {
		return nil, fmt.Errorf("failed to decode order response: %w", err)
	}

	c.logger.Info("gateway order created",
		"order_id", order.ID,
		"amount", order.Amount,
		"currency", order.Currency)

	return &order, nil
}

// FetchPayment retrieves the gateway's authoritative record of a payment.
// Verification trusts this record over anything the client asserted.
func (c *Client) FetchPayment(ctx context.Context, paymentID string) (*Payment, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	url := fmt.Sprintf("%s/payments/%s", c.apiURL, paymentID)
	httpReq, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}

	httpReq.SetBasicAuth(c.keyID, c.keySecret)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("gateway payment lookup failed",
			"status", resp.StatusCode,
			"payment_id", paymentID)
		return nil, fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}

	var payment Payment
	if err := json.NewDecoder(resp.Body).Decode(&payment); err != nil {
		return nil, fmt.Errorf("failed to decode payment response: %w", err)
	}

	c.logger.Info("gateway payment fetched",
		"payment_id", payment.ID,
		"order_id", payment.OrderID,
		"amount", payment.Amount,
		"status", payment.Status)

	return &payment, nil
}
