package oxapay

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Statuses OxaPay reports for a payment that is safe to credit.
// Anything else (waiting, expired, ...) is ignored.
var confirmedStatuses = map[string]bool{
	"paid":      true,
	"confirmed": true,
	"completed": true,
}

// PaymentEvent is one parsed webhook callback. It lives only for the
// duration of a single delivery.
type PaymentEvent struct {
	OrderID      string
	TrackID      string
	Status       string
	AmountUSD    float64
	PaidCurrency string
	PayAmount    float64 // actual crypto units paid
}

// Confirmed reports whether the status allows crediting.
func (e *PaymentEvent) Confirmed() bool {
	return confirmedStatuses[strings.ToLower(e.Status)]
}

// DedupKey is the identifier a payment is credited at most once for.
// The order reference when present, the processor tracking id otherwise.
func (e *PaymentEvent) DedupKey() string {
	if e.OrderID != "" {
		return e.OrderID
	}
	return e.TrackID
}

// ParsePaymentEvent decodes a webhook body. OxaPay field names and types
// vary between payload versions (payAmount vs pay_amount, numbers sent as
// strings), so parsing goes through a generic map.
func ParsePaymentEvent(raw []byte) (*PaymentEvent, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var data map[string]any
	if err := dec.Decode(&data); err != nil {
		return nil, fmt.Errorf("decode webhook payload: %w", err)
	}

	ev := &PaymentEvent{
		OrderID:      asString(data["orderId"]),
		TrackID:      asString(data["trackId"]),
		Status:       strings.ToLower(asString(data["status"])),
		AmountUSD:    asFloat(data["amount"]),
		PaidCurrency: strings.ToUpper(asString(data["currency"])),
	}
	if ev.PaidCurrency == "" {
		ev.PaidCurrency = "USDT"
	}

	pay, ok := data["payAmount"]
	if !ok {
		pay, ok = data["pay_amount"]
	}
	if ok {
		ev.PayAmount = asFloat(pay)
	} else {
		// Older payloads omit the crypto amount entirely.
		ev.PayAmount = ev.AmountUSD
	}

	return ev, nil
}

func asString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case json.Number:
		return s.String()
	default:
		return ""
	}
}

func asFloat(v any) float64 {
	switch n := v.(type) {
	case json.Number:
		f, _ := n.Float64()
		return f
	case string:
		f, _ := strconv.ParseFloat(n, 64)
		return f
	case float64:
		return n
	default:
		return 0
	}
}

// Invoice is a successfully created payment request.
type Invoice struct {
	TrackID string
	PayLink string
	OrderID string
}
