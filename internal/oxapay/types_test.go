package oxapay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePaymentEvent(t *testing.T) {
	tests := []struct {
		name string
		body string
		want PaymentEvent
	}{
		{
			name: "camelCase pay amount",
			body: `{"status":"Paid","orderId":"12345_abc","trackId":"t-1","amount":50,"currency":"btc","payAmount":0.001}`,
			want: PaymentEvent{
				OrderID: "12345_abc", TrackID: "t-1", Status: "paid",
				AmountUSD: 50, PaidCurrency: "BTC", PayAmount: 0.001,
			},
		},
		{
			name: "snake_case pay amount",
			body: `{"status":"confirmed","orderId":"7_x","amount":10,"currency":"LTC","pay_amount":0.2}`,
			want: PaymentEvent{
				OrderID: "7_x", Status: "confirmed",
				AmountUSD: 10, PaidCurrency: "LTC", PayAmount: 0.2,
			},
		},
		{
			name: "missing pay amount falls back to USD amount",
			body: `{"status":"completed","orderId":"7_x","amount":25,"currency":"USDT"}`,
			want: PaymentEvent{
				OrderID: "7_x", Status: "completed",
				AmountUSD: 25, PaidCurrency: "USDT", PayAmount: 25,
			},
		},
		{
			name: "numbers sent as strings",
			body: `{"status":"paid","orderId":"9_y","amount":"12.5","currency":"ETH","payAmount":"0.004"}`,
			want: PaymentEvent{
				OrderID: "9_y", Status: "paid",
				AmountUSD: 12.5, PaidCurrency: "ETH", PayAmount: 0.004,
			},
		},
		{
			name: "numeric track id, missing currency defaults to USDT",
			body: `{"status":"paid","trackId":998877,"amount":5,"payAmount":5}`,
			want: PaymentEvent{
				TrackID: "998877", Status: "paid",
				AmountUSD: 5, PaidCurrency: "USDT", PayAmount: 5,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := ParsePaymentEvent([]byte(tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.want, *ev)
		})
	}
}

func TestParsePaymentEvent_Invalid(t *testing.T) {
	_, err := ParsePaymentEvent([]byte("not json"))
	require.Error(t, err)
}

func TestPaymentEvent_Confirmed(t *testing.T) {
	for _, status := range []string{"paid", "confirmed", "completed", "PAID"} {
		ev := PaymentEvent{Status: status}
		assert.True(t, ev.Confirmed(), status)
	}
	for _, status := range []string{"waiting", "expired", "failed", ""} {
		ev := PaymentEvent{Status: status}
		assert.False(t, ev.Confirmed(), status)
	}
}

func TestPaymentEvent_DedupKey(t *testing.T) {
	ev := PaymentEvent{OrderID: "12345_abc", TrackID: "t-1"}
	assert.Equal(t, "12345_abc", ev.DedupKey())

	ev = PaymentEvent{TrackID: "t-1"}
	assert.Equal(t, "t-1", ev.DedupKey(), "track id is the fallback dedup key")

	ev = PaymentEvent{}
	assert.Equal(t, "", ev.DedupKey())
}
