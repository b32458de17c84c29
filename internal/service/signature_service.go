package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"

	"github.com/lynkbyte/evolution-bridge/pkg/apperror"

	"github.com/rs/zerolog"
)

// Signature headers checked in priority order. The first non-empty one wins.
var signatureHeaders = []string{
	"X-Webhook-Signature",
	"X-Evolution-Signature",
	"X-Signature",
}

// HMACVerifier implements ports.WebhookVerifier using HMAC-SHA256.
// Verification is skipped entirely when disabled or when no secret is set.
type HMACVerifier struct {
	enabled bool
	secret  string
	log     zerolog.Logger
}

// NewHMACVerifier creates a webhook signature verifier.
func NewHMACVerifier(enabled bool, secret string, log zerolog.Logger) *HMACVerifier {
	if enabled && secret == "" {
		log.Warn().Msg("signature verification enabled but no secret configured, requests will not be verified")
	}
	return &HMACVerifier{
		enabled: enabled,
		secret:  secret,
		log:     log,
	}
}

// Verify checks the request signature against the raw body.
// Uses constant-time comparison to prevent timing attacks.
func (v *HMACVerifier) Verify(rawBody []byte, header http.Header) error {
	if !v.enabled || v.secret == "" {
		return nil
	}

	var signature string
	for _, name := range signatureHeaders {
		if s := header.Get(name); s != "" {
			signature = s
			break
		}
	}
	if signature == "" {
		return apperror.ErrMissingSignature()
	}

	expected := Sign(v.secret, rawBody)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return apperror.ErrInvalidSignature()
	}

	return nil
}

// Sign computes HMAC-SHA256 of payload using secret.
// Returns lowercase hex-encoded signature.
func Sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
