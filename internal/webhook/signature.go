package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Validator verifies the HMAC-SHA256 signature of inbound webhook
// bodies. With no secret configured every request is accepted, which
// matches platform setups where the webhook URL itself is the secret.
type Validator struct {
	secret string
}

func NewValidator(secret string) *Validator {
	return &Validator{secret: secret}
}

// Enabled reports whether signature verification is active.
func (v *Validator) Enabled() bool { return v.secret != "" }

// Valid checks the signature header value against the raw request body.
// The hex digest may carry an optional "sha256=" prefix.
func (v *Validator) Valid(body []byte, signature string) bool {
	if v.secret == "" {
		return true
	}
	signature = strings.TrimPrefix(strings.TrimSpace(signature), "sha256=")
	if signature == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(v.secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(signature)))
}
