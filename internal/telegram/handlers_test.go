package telegram

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/spinhall/deposit-bot/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCustomAmount(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
		want    string
	}{
		{"preset-like integer", "75", false, "75"},
		{"decimal", "12.50", false, "12.5"},
		{"thousands separator", "1,000", false, "1000"},
		{"exactly the minimum", "5", false, "5"},
		{"below minimum", "4.99", true, ""},
		{"zero", "0", true, ""},
		{"negative", "-10", true, ""},
		{"not a number", "ten dollars", true, ""},
		{"empty", "", true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseCustomAmount(tt.input, 5.0)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestEstimateCrypto(t *testing.T) {
	// $50 at a BTC price of $50,000 needs 0.001 BTC.
	got := estimateCrypto(decimal.NewFromInt(50), 50000)
	assert.True(t, got.Equal(decimal.RequireFromString("0.001")), got.String())

	// Missing price falls back to 1.0.
	got = estimateCrypto(decimal.NewFromInt(50), 0)
	assert.True(t, got.Equal(decimal.NewFromInt(50)), got.String())
}

func TestAvailableCoins_Intersection(t *testing.T) {
	b := &Bot{
		cfg: &config.Config{
			// XYZ is processor-supported but unknown to the wallet.
			SupportedCoins: []string{"BTC", "XYZ", "SOL"},
		},
	}

	assert.Equal(t, []string{"BTC", "SOL"}, b.availableCoins())
}
