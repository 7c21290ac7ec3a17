package webhooks

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"strings"

	pkgerrors "github.com/hooterhq/hooter-backend/pkg/errors"
)

// VerifySignature checks the request body HMAC against the X-Signature
// header value. A missing secret rejects everything; the guard fails closed.
// Hex and base64 encoded signatures are both accepted.
func VerifySignature(secret string, body []byte, signature string) error {
	if strings.TrimSpace(secret) == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "webhook secret not configured")
	}
	signature = strings.TrimSpace(signature)
	if signature == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "missing webhook signature")
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := mac.Sum(nil)

	if decoded, err := hex.DecodeString(signature); err == nil && hmac.Equal(expected, decoded) {
		return nil
	}
	if decoded, err := base64.StdEncoding.DecodeString(signature); err == nil && hmac.Equal(expected, decoded) {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid webhook signature")
}

// Sign computes the hex signature for a body, used by tests and tooling.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
