package currency

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		amount float64
		coin   string
		want   string
	}{
		{0.001, "BTC", "0.001"},
		{0.00000001, "BTC", "0.00000001"},
		{1.0, "BTC", "1"},
		{1.5, "ETH", "1.5"},
		{25, "USDT", "25"},
		{25.5, "USDT", "25.5"},
		{0, "SOL", "0"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatAmount(tt.amount, tt.coin), "%v %s", tt.amount, tt.coin)
	}
}

func TestSymbol(t *testing.T) {
	assert.Equal(t, "₿", Symbol("BTC"))
	assert.Equal(t, "₿", Symbol("btc"))
	assert.Equal(t, "", Symbol("XYZ"))
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported("BTC"))
	assert.True(t, Supported("usdt"))
	assert.False(t, Supported("XYZ"))

	for _, coin := range List() {
		assert.True(t, Supported(coin), coin)
	}
}
