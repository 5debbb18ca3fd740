package oxapay

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Verifier authenticates webhook bodies against the shared merchant secret.
//
// OxaPay embeds the signature in the payload itself (the "hmac" field), so
// verification recomputes an HMAC-SHA256 over a canonical re-serialization
// of the payload with that field removed.
type Verifier struct {
	secret        []byte
	allowUnsigned bool
}

// NewVerifier creates a Verifier. When allowUnsigned is true, payloads that
// carry no hmac field at all pass verification (compatibility with processor
// payload variants); the default posture is to reject them.
func NewVerifier(secret string, allowUnsigned bool) *Verifier {
	return &Verifier{
		secret:        []byte(secret),
		allowUnsigned: allowUnsigned,
	}
}

// Verify reports whether the raw webhook body is authentic.
func (v *Verifier) Verify(raw []byte) bool {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var data map[string]any
	if err := dec.Decode(&data); err != nil {
		return false
	}

	claimed, ok := data["hmac"].(string)
	if !ok || claimed == "" {
		return v.allowUnsigned
	}

	delete(data, "hmac")
	canonical, err := json.Marshal(data)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, v.secret)
	mac.Write(canonical)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(claimed))
}

// sign computes the signature for a canonical body. Used by tests to build
// authentic payloads.
func (v *Verifier) sign(canonical []byte) string {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write(canonical)
	return hex.EncodeToString(mac.Sum(nil))
}
