package razorpay

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	razorpay "github.com/razorpay/razorpay-go"

	"github.com/mayakapoor/aurelia-backend/pkg/config"
)

// GatewayOrder captures the fields we keep from a created gateway order.
type GatewayOrder struct {
	ID       string
	Amount   int64
	Currency string
	Receipt  string
	Status   string
}

// Client wraps the Razorpay SDK with context-aware calls and signature checks.
type Client struct {
	sdk       *razorpay.Client
	keySecret string
	currency  string
	timeout   time.Duration
}

var errNotConfigured = errors.New("razorpay credentials not configured")

// NewClient validates credentials and returns a gateway client.
func NewClient(cfg config.RazorpayConfig) (*Client, error) {
	if !cfg.Configured() {
		return nil, errNotConfigured
	}
	currency := strings.ToUpper(strings.TrimSpace(cfg.Currency))
	if currency == "" {
		currency = "INR"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		sdk:       razorpay.NewClient(cfg.KeyID, cfg.KeySecret),
		keySecret: cfg.KeySecret,
		currency:  currency,
		timeout:   timeout,
	}, nil
}

// Currency returns the configured settlement currency.
func (c *Client) Currency() string {
	return c.currency
}

// CreateOrder registers an order with the gateway for the given amount in
// minor units. The SDK has no context support, so the call runs in a
// goroutine bounded by the client timeout.
func (c *Client) CreateOrder(ctx context.Context, amountMinor int64, receipt string) (*GatewayOrder, error) {
	if c == nil || c.sdk == nil {
		return nil, errNotConfigured
	}
	if amountMinor <= 0 {
		return nil, fmt.Errorf("amount must be positive, got %d", amountMinor)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	type result struct {
		body map[string]interface{}
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		data := map[string]interface{}{
			"amount":   amountMinor,
			"currency": c.currency,
			"receipt":  receipt,
		}
		body, err := c.sdk.Order.Create(data, nil)
		ch <- result{body: body, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("gateway order create: %w", ctx.Err())
	case res := <-ch:
		if res.err != nil {
			return nil, fmt.Errorf("gateway order create: %w", res.err)
		}
		return orderFromBody(res.body)
	}
}

func orderFromBody(body map[string]interface{}) (*GatewayOrder, error) {
	id, _ := body["id"].(string)
	if id == "" {
		return nil, errors.New("gateway order response missing id")
	}
	order := &GatewayOrder{ID: id}
	if v, ok := body["amount"].(float64); ok {
		order.Amount = int64(v)
	}
	if v, ok := body["currency"].(string); ok {
		order.Currency = v
	}
	if v, ok := body["receipt"].(string); ok {
		order.Receipt = v
	}
	if v, ok := body["status"].(string); ok {
		order.Status = v
	}
	return order, nil
}

// VerifySignature checks the HMAC-SHA256 signature Razorpay sends back after
// a successful payment. The signed message is "<order_id>|<payment_id>".
func (c *Client) VerifySignature(gatewayOrderID, paymentID, signature string) bool {
	return VerifySignature(c.keySecret, gatewayOrderID, paymentID, signature)
}

// VerifySignature is the standalone form used by tests and webhook handlers.
func VerifySignature(secret, gatewayOrderID, paymentID, signature string) bool {
	if secret == "" || gatewayOrderID == "" || paymentID == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(gatewayOrderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// KeyPreview returns a truncated key id safe for logs.
func KeyPreview(keyID string) string {
	trimmed := strings.TrimSpace(keyID)
	if len(trimmed) <= 8 {
		return trimmed
	}
	return trimmed[:8] + "..."
}
