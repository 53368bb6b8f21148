package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
)

var (
	ErrMissingKey   = errors.New("auth: missing API key")
	ErrInvalidKey   = errors.New("auth: invalid API key")
	ErrInvalidToken = errors.New("auth: invalid token")
)

// Validator checks presented client keys against the configured secrets.
type Validator struct {
	keys map[string]struct{}
}

// NewValidator builds a validator over the configured secret list. An empty
// list means any non-empty key is accepted; this is the MVP mode of the
// service, not a production credential store.
func NewValidator(keys []string) *Validator {
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			set[k] = struct{}{}
		}
	}
	return &Validator{keys: set}
}

// Validate reports whether the presented key is acceptable. It never errors
// on malformed input; empty and unknown keys are simply invalid.
func (v *Validator) Validate(key string) bool {
	key = strings.TrimSpace(key)
	if key == "" {
		return false
	}
	if len(v.keys) == 0 {
		return true
	}
	_, ok := v.keys[key]
	return ok
}

// Authenticator resolves the client credential on a request down to the
// underlying API key. Clients present either the raw key in the configured
// header (optionally prefixed "Bearer "), or a JWT minted by the token
// endpoint in the Authorization header.
type Authenticator struct {
	validator *Validator
	header    string
	jwtSecret string
}

func NewAuthenticator(keys []string, header, jwtSecret string) *Authenticator {
	return &Authenticator{
		validator: NewValidator(keys),
		header:    header,
		jwtSecret: jwtSecret,
	}
}

func (a *Authenticator) Validator() *Validator { return a.validator }

// Authenticate extracts and validates the credential, returning the API key
// that identifies the client for rate limiting and logging.
func (a *Authenticator) Authenticate(r *http.Request) (string, error) {
	if raw := r.Header.Get(a.header); raw != "" {
		key := strings.TrimSpace(strings.TrimPrefix(raw, "Bearer "))
		if !a.validator.Validate(key) {
			return "", ErrInvalidKey
		}
		return key, nil
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", ErrMissingKey
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", ErrInvalidToken
	}
	claims, err := ValidateToken(parts[1], a.jwtSecret)
	if err != nil {
		return "", ErrInvalidToken
	}
	if !a.validator.Validate(claims.APIKey) {
		return "", ErrInvalidKey
	}
	return claims.APIKey, nil
}

// KeyFingerprint returns a short stable identifier for an API key that is
// safe to log and persist.
func KeyFingerprint(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:8])
}
