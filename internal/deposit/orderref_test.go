package deposit

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderRef_RoundTrip(t *testing.T) {
	ref := MakeOrderRef(12345)

	userID, err := ParseOrderRef(ref)
	require.NoError(t, err)
	assert.Equal(t, int64(12345), userID)
}

func TestMakeOrderRef_Unique(t *testing.T) {
	// Two invoices created back-to-back by the same user must not collide.
	a := MakeOrderRef(42)
	b := MakeOrderRef(42)
	assert.NotEqual(t, a, b)

	assert.True(t, strings.HasPrefix(a, "42_"))
}

func TestParseOrderRef_Invalid(t *testing.T) {
	tests := []struct {
		name string
		ref  string
	}{
		{"no underscore", "12345"},
		{"empty", ""},
		{"non-numeric prefix", "abc_1700000000"},
		{"negative user id", "-5_abc"},
		{"zero user id", "0_abc"},
		{"underscore first", "_1700000000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseOrderRef(tt.ref)
			require.Error(t, err)
		})
	}
}

func TestParseOrderRef_LegacyTimestampFormat(t *testing.T) {
	// References produced by the old {id}_{unix} scheme still resolve.
	userID, err := ParseOrderRef("12345_1700000000")
	require.NoError(t, err)
	assert.Equal(t, int64(12345), userID)
}
