package oxapay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// resultOK is the success code the merchant API returns for a created invoice.
const resultOK = 100

// Client is a thin wrapper around the OxaPay merchant API.
type Client struct {
	invoiceURL  string
	merchantKey string
	callbackURL string
	httpClient  *http.Client
}

// NewClient creates a merchant API client. callbackURL is where OxaPay posts
// payment confirmations for invoices created through this client.
func NewClient(invoiceURL, merchantKey, callbackURL string) *Client {
	return &Client{
		invoiceURL:  invoiceURL,
		merchantKey: merchantKey,
		callbackURL: callbackURL,
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
	}
}

type invoiceRequest struct {
	Merchant    string  `json:"merchant"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	OrderID     string  `json:"orderId"`
	CallbackURL string  `json:"callbackUrl"`
	Description string  `json:"description"`
}

type invoiceResponse struct {
	Result  int    `json:"result"`
	Message string `json:"message"`
	TrackID string `json:"trackId"`

	// The pay link field name varies between API versions.
	PayLink string `json:"payLink"`
	PayURL  string `json:"payUrl"`
	Link    string `json:"link"`
}

// CreateInvoice asks OxaPay for a payment invoice. The amount is rounded to
// two decimal places. No retries; any transport error, non-200 status,
// non-success result code, or missing pay link is returned as an error for
// the caller to surface.
func (c *Client) CreateInvoice(ctx context.Context, amountUSD decimal.Decimal, coin, orderID, description string) (*Invoice, error) {
	amt, _ := amountUSD.Round(2).Float64()

	payload := invoiceRequest{
		Merchant:    c.merchantKey,
		Amount:      amt,
		Currency:    coin,
		OrderID:     orderID,
		CallbackURL: c.callbackURL,
		Description: description,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal invoice request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.invoiceURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("create invoice: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read invoice response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("invoice API status %d: %s", resp.StatusCode, data)
	}

	var ir invoiceResponse
	if err := json.Unmarshal(data, &ir); err != nil {
		return nil, fmt.Errorf("unmarshal invoice response: %w", err)
	}

	if ir.Result != resultOK {
		return nil, fmt.Errorf("invoice API result %d: %s", ir.Result, ir.Message)
	}

	link := ir.PayLink
	if link == "" {
		link = ir.PayURL
	}
	if link == "" {
		link = ir.Link
	}
	if link == "" {
		return nil, fmt.Errorf("invoice created but no pay link in response")
	}

	return &Invoice{
		TrackID: ir.TrackID,
		PayLink: link,
		OrderID: orderID,
	}, nil
}
