package payment

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client talks to the Snap-style payment gateway. The gateway tokenizes a
// transaction keyed by order code and gross amount; the returned token is
// persisted on the order row and redeemed client-side.
type Client struct {
	http      *resty.Client
	serverKey string
}

type Config struct {
	BaseURL    string
	ServerKey  string
	Production bool
	Timeout    time.Duration
}

type TransactionRequest struct {
	OrderCode    string
	GrossAmount  float64
	CustomerName string
}

type Transaction struct {
	Token       string `json:"token"`
	RedirectURL string `json:"redirect_url"`
}

type gatewayError struct {
	ErrorMessages []string `json:"error_messages"`
}

var ErrServerKeyRequired = errors.New("payment server key is required")

func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.ServerKey) == "" {
		return nil, ErrServerKeyRequired
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	http := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")

	return &Client{http: http, serverKey: cfg.ServerKey}, nil
}

// CreateTransaction requests a payment token. Gross amount is rounded to the
// nearest whole currency unit, matching what the gateway accepts.
func (c *Client) CreateTransaction(ctx context.Context, req TransactionRequest) (*Transaction, error) {
	if strings.TrimSpace(req.OrderCode) == "" {
		return nil, errors.New("order code is required")
	}
	if req.GrossAmount <= 0 {
		return nil, errors.New("gross amount must be positive")
	}

	body := map[string]any{
		"transaction_details": map[string]any{
			"order_id":     req.OrderCode,
			"gross_amount": int64(math.Round(req.GrossAmount)),
		},
		"customer_details": map[string]any{
			"first_name": req.CustomerName,
		},
	}

	var out Transaction
	var gwErr gatewayError
	resp, err := c.http.R().
		SetContext(ctx).
		SetBasicAuth(c.serverKey, "").
		SetBody(body).
		SetResult(&out).
		SetError(&gwErr).
		Post("/snap/v1/transactions")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		if len(gwErr.ErrorMessages) > 0 {
			return nil, fmt.Errorf("payment gateway rejected transaction: %s", strings.Join(gwErr.ErrorMessages, "; "))
		}
		return nil, fmt.Errorf("payment gateway returned %s", resp.Status())
	}
	if out.Token == "" {
		return nil, errors.New("payment gateway returned an empty token")
	}
	return &out, nil
}
