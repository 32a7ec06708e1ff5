package event

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var ErrAuthentication = errors.New("authentication_failed")

// Verifier authenticates webhook deliveries. The media server signs each
// delivery with an HS256 token whose issuer is the API key and whose
// sha256 claim is the base64 digest of the raw body.
type Verifier struct {
	apiKey    string
	apiSecret string
}

// NewVerifier builds a Verifier for the given API key pair.
func NewVerifier(apiKey, apiSecret string) *Verifier {
	return &Verifier{apiKey: strings.TrimSpace(apiKey), apiSecret: strings.TrimSpace(apiSecret)}
}

type webhookClaims struct {
	SHA256 string `json:"sha256"`
	jwt.RegisteredClaims
}

// Verify checks the Authorization token against the raw request body.
// It returns ErrAuthentication on any mismatch so callers never leak the
// failing detail to the sender.
func (v *Verifier) Verify(token string, body []byte) error {
	token = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))
	if token == "" || v.apiKey == "" || v.apiSecret == "" {
		return ErrAuthentication
	}

	claims := &webhookClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrAuthentication
		}
		return []byte(v.apiSecret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !parsed.Valid {
		return ErrAuthentication
	}

	issuer, err := claims.GetIssuer()
	if err != nil || issuer != v.apiKey {
		return ErrAuthentication
	}

	digest := sha256.Sum256(body)
	expected := base64.StdEncoding.EncodeToString(digest[:])
	if subtle.ConstantTimeCompare([]byte(expected), []byte(claims.SHA256)) != 1 {
		return ErrAuthentication
	}

	return nil
}
