package bitmex

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

// Signer produces BitMEX API key signatures.
type Signer struct {
	apiKey    string
	apiSecret string
	ttl       time.Duration
	now       func() time.Time
}

// NewSigner creates a signer whose signatures expire ttl after they are made.
func NewSigner(apiKey, apiSecret string, ttl time.Duration) *Signer {
	return &Signer{
		apiKey:    apiKey,
		apiSecret: apiSecret,
		ttl:       ttl,
		now:       time.Now,
	}
}

// HasCredentials reports whether both key and secret are set.
func (s *Signer) HasCredentials() bool {
	return s.apiKey != "" && s.apiSecret != ""
}

// Expires returns the unix second at which a signature made now stops being valid.
func (s *Signer) Expires() int64 {
	return s.now().Add(s.ttl).Unix()
}

// GenerateHeaders creates the auth headers for a REST request.
// path: /api/v1/order (no host)
// body: the exact encoded body that will be sent (empty if none)
func (s *Signer) GenerateHeaders(verb, path, body string) map[string]string {
	expires := strconv.FormatInt(s.Expires(), 10)

	return map[string]string{
		"api-expires":   expires,
		"api-key":       s.apiKey,
		"api-signature": Sign(s.apiSecret, verb+path+expires+body),
	}
}

// RealtimeAuthArgs returns the args of the websocket authKeyExpires request.
func (s *Signer) RealtimeAuthArgs() []any {
	expires := s.Expires()
	sig := Sign(s.apiSecret, realtimePath+strconv.FormatInt(expires, 10))
	return []any{s.apiKey, expires, sig}
}

// Sign returns the upper-case hex HMAC-SHA256 of payload keyed by secret.
func Sign(secret, payload string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(payload))
	return strings.ToUpper(hex.EncodeToString(h.Sum(nil)))
}
