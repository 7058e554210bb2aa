// Package cryptopay is the HTTP client for the Crypto Pay API. One
// client serves both sides of the pipeline: it is the rate source the
// oracle refreshes from and the payment gateway invoices and checks go
// through.
package cryptopay

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

	"github.com/Pelmeshek11/FlipEx/pkg/config"
	"github.com/Pelmeshek11/FlipEx/pkg/provider/payment"
	"github.com/Pelmeshek11/FlipEx/pkg/provider/rates"
)

const tokenHeader = "Crypto-Pay-API-Token"

// Client talks to the Crypto Pay API.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// envelope is the uniform Crypto Pay response wrapper. Result stays
// raw until the caller knows its shape.
type envelope struct {
	Ok     bool            `json:"ok"`
	Result json.RawMessage `json:"result"`
	Error  *apiError       `json:"error"`
}

type apiError struct {
	Code int    `json:"code"`
	Name string `json:"name"`
}

type exchangeRate struct {
	IsValid bool            `json:"is_valid"`
	Source  string          `json:"source"`
	Target  string          `json:"target"`
	Rate    decimal.Decimal `json:"rate"`
}

type invoice struct {
	InvoiceID int64  `json:"invoice_id"`
	Status    string `json:"status"`
	PayURL    string `json:"bot_invoice_url"`
}

type check struct {
	CheckID   int64  `json:"check_id"`
	RedeemURL string `json:"bot_check_url"`
}

// NewClient creates a Client from the gateway config.
func NewClient(cfg config.CryptoPay, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		token:   cfg.Token,
		baseURL: cfg.ApiUrl,
		httpClient: &http.Client{
			Timeout: cfg.HTTPTimeout,
		},
		logger: logger,
	}
}

// Name implements rates.RateSource.
func (c *Client) Name() string {
	return "crypto-pay"
}

// FetchRates implements rates.RateSource. Entries the API flags as
// invalid are dropped.
func (c *Client) FetchRates(ctx context.Context) ([]rates.RateInfo, error) {
	var raw []exchangeRate
	if err := c.call(ctx, "getExchangeRates", nil, &raw); err != nil {
		return nil, err
	}

	now := time.Now()
	out := make([]rates.RateInfo, 0, len(raw))
	for _, r := range raw {
		if !r.IsValid {
			c.logger.Warn("skipping invalid exchange rate", "source", r.Source, "target", r.Target)
			continue
		}
		out = append(out, rates.RateInfo{
			Source:    r.Source,
			Target:    r.Target,
			Rate:      r.Rate,
			Provider:  c.Name(),
			FetchedAt: now,
		})
	}

	c.logger.Info("exchange rates fetched", "count", len(out))
	return out, nil
}

// CreateInvoice implements payment.Gateway.
func (c *Client) CreateInvoice(ctx context.Context, params payment.CreateInvoiceParams) (*payment.Invoice, error) {
	body := map[string]any{
		"asset":          params.Asset,
		"amount":         params.Amount.String(),
		"description":    params.Description,
		"hidden_message": params.HiddenMessage,
		"expires_in":     int(params.ExpiresIn.Seconds()),
	}

	var inv invoice
	if err := c.call(ctx, "createInvoice", body, &inv); err != nil {
		return nil, err
	}

	c.logger.Info("invoice created", "invoice_id", inv.InvoiceID, "asset", params.Asset, "amount", params.Amount)
	return &payment.Invoice{
		InvoiceID: inv.InvoiceID,
		Status:    payment.InvoiceStatus(inv.Status),
		PayURL:    inv.PayURL,
	}, nil
}

// GetInvoiceStatus implements payment.Gateway.
func (c *Client) GetInvoiceStatus(ctx context.Context, invoiceID int64) (payment.InvoiceStatus, error) {
	body := map[string]any{
		"invoice_ids": fmt.Sprintf("%d", invoiceID),
	}

	var result struct {
		Items []invoice `json:"items"`
	}
	if err := c.call(ctx, "getInvoices", body, &result); err != nil {
		return "", err
	}

	for _, inv := range result.Items {
		if inv.InvoiceID == invoiceID {
			return payment.InvoiceStatus(inv.Status), nil
		}
	}
	return "", fmt.Errorf("invoice %d not found in gateway response", invoiceID)
}

// CreateCheck implements payment.Gateway. The check is pinned to the
// recipient so nobody else can redeem it.
func (c *Client) CreateCheck(ctx context.Context, params payment.CreateCheckParams) (*payment.Check, error) {
	body := map[string]any{
		"asset":          params.Asset,
		"amount":         params.Amount.String(),
		"pin_to_user_id": params.PinToUserID,
	}

	var chk check
	if err := c.call(ctx, "createCheck", body, &chk); err != nil {
		return nil, err
	}

	c.logger.Info("check created", "check_id", chk.CheckID, "amount", params.Amount, "user_id", params.PinToUserID)
	return &payment.Check{
		CheckID:   chk.CheckID,
		RedeemURL: chk.RedeemURL,
	}, nil
}

// call posts a method to the API, unwraps the {ok, result} envelope
// and decodes the result into out.
func (c *Client) call(ctx context.Context, method string, body map[string]any, out any) error {
	url := fmt.Sprintf("%s/%s", c.baseURL, method)

	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode %s request: %w", method, err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", method, err)
	}
	req.Header.Set(tokenHeader, c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", method, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s returned status %d: %s", method, resp.StatusCode, string(raw))
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", method, err)
	}
	if !env.Ok {
		if env.Error != nil {
			return fmt.Errorf("%s returned error %d: %s", method, env.Error.Code, env.Error.Name)
		}
		return fmt.Errorf("%s returned ok=false", method)
	}

	if out != nil {
		if err := json.Unmarshal(env.Result, out); err != nil {
			return fmt.Errorf("failed to decode %s result: %w", method, err)
		}
	}
	return nil
}

var (
	_ rates.RateSource = (*Client)(nil)
	_ payment.Gateway  = (*Client)(nil)
)
