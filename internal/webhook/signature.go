package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"github.com/soyeahso/scambot/internal/logging"
)

// SignatureHeader carries the base64 HMAC-SHA256 of the raw request body.
const SignatureHeader = "X-Line-Signature"

// Verifier checks inbound webhook signatures against a shared key.
// An empty Key disables verification.
type Verifier struct {
	Key []byte
	Log *logging.Logger
}

// NewVerifier creates a Verifier for the given key.
func NewVerifier(key string, logger *logging.Logger) *Verifier {
	v := &Verifier{Log: logger}
	if key != "" {
		v.Key = []byte(key)
	}
	return v
}

// Enabled reports whether a signing key is configured.
func (v *Verifier) Enabled() bool {
	return len(v.Key) > 0
}

// Verify reports whether signature matches body. It never panics.
func (v *Verifier) Verify(body []byte, signature string) (ok bool) {
	if !v.Enabled() {
		return true
	}

	defer func() {
		if r := recover(); r != nil {
			if v.Log != nil {
				v.Log.Error().Interface("panic", r).Msg("signature verification failed")
			}
			ok = false
		}
	}()

	expected := Sign(body, v.Key)
	ok = hmac.Equal([]byte(expected), []byte(signature))
	if !ok && v.Log != nil {
		v.Log.Debug().Int("bodyLen", len(body)).Bool("hasSignature", signature != "").Msg("signature mismatch")
	}
	return ok
}

// Sign returns the base64-encoded HMAC-SHA256 of body keyed by key.
func Sign(body, key []byte) string {
	mac := hmac.New(sha256.New, key)
	if _, err := mac.Write(body); err != nil {
		panic(fmt.Sprintf("hmac write: %v", err))
	}
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
