package oxapay

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

const testSecret = "test-merchant-key"

// signedBody builds a webhook body whose hmac field is valid for the secret.
func signedBody(t *testing.T, secret string, fields map[string]any) []byte {
	t.Helper()

	canonical, err := json.Marshal(fields)
	require.NoError(t, err)

	v := NewVerifier(secret, false)

	all := make(map[string]any, len(fields)+1)
	for k, val := range fields {
		all[k] = val
	}
	all["hmac"] = v.sign(canonical)

	body, err := json.Marshal(all)
	require.NoError(t, err)
	return body
}

func TestVerifier_ValidSignature(t *testing.T) {
	body := signedBody(t, testSecret, map[string]any{
		"status":  "paid",
		"orderId": "12345_abc",
		"amount":  50,
	})

	v := NewVerifier(testSecret, false)
	require.True(t, v.Verify(body))
}

func TestVerifier_WrongSecret(t *testing.T) {
	body := signedBody(t, "other-secret", map[string]any{
		"status": "paid",
	})

	v := NewVerifier(testSecret, false)
	require.False(t, v.Verify(body))
}

func TestVerifier_TamperedBody(t *testing.T) {
	body := signedBody(t, testSecret, map[string]any{
		"status":    "paid",
		"payAmount": 0.001,
	})

	var data map[string]any
	require.NoError(t, json.Unmarshal(body, &data))
	data["payAmount"] = 100.0
	tampered, err := json.Marshal(data)
	require.NoError(t, err)

	v := NewVerifier(testSecret, false)
	require.False(t, v.Verify(tampered))
}

func TestVerifier_UnsignedPolicy(t *testing.T) {
	unsigned := []byte(`{"status":"paid","orderId":"12345_abc"}`)

	require.False(t, NewVerifier(testSecret, false).Verify(unsigned),
		"unsigned payloads are rejected by default")
	require.True(t, NewVerifier(testSecret, true).Verify(unsigned),
		"opt-out accepts unsigned payloads")
}

func TestVerifier_EmptySignatureTreatedAsUnsigned(t *testing.T) {
	body := []byte(`{"status":"paid","hmac":""}`)

	require.False(t, NewVerifier(testSecret, false).Verify(body))
	require.True(t, NewVerifier(testSecret, true).Verify(body))
}

func TestVerifier_MalformedJSON(t *testing.T) {
	v := NewVerifier(testSecret, true)
	require.False(t, v.Verify([]byte("not json")))
}

func TestVerifier_LargeNumbersSurviveReserialization(t *testing.T) {
	// Integer timestamps must not be mangled into scientific notation when
	// the payload is re-serialized for signing.
	body := signedBody(t, testSecret, map[string]any{
		"status":  "paid",
		"trackId": 1700000000123,
	})

	v := NewVerifier(testSecret, false)
	require.True(t, v.Verify(body))
}
