package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/call-relay/crc/internal/config"
)

// Verifier validates HS256 bearer tokens against the shared key.
type Verifier struct {
	key      []byte
	issuer   string
	audience string
}

// NewVerifier creates a token verifier from the auth configuration.
func NewVerifier(cfg config.AuthConfig) (*Verifier, error) {
	if cfg.HMACKey == "" {
		return nil, errors.New("auth HMAC key is required")
	}
	return &Verifier{
		key:      []byte(cfg.HMACKey),
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
	}, nil
}

// VerifyToken parses and validates a token string, returning its claims.
func (v *Verifier) VerifyToken(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		return v.key, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("token verification failed: %w", err)
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("unexpected claims type")
	}
	return extractClaims(mapClaims)
}

// extractClaims pulls subject and scopes out of the raw claim map.
func extractClaims(mapClaims jwt.MapClaims) (*Claims, error) {
	subject, _ := mapClaims["sub"].(string)
	if subject == "" {
		return nil, errors.New("missing sub claim")
	}

	scopes, err := extractStringSlice(mapClaims, "scopes")
	if err != nil {
		return nil, err
	}
	for _, scope := range scopes {
		if !validScopes[scope] {
			return nil, fmt.Errorf("unknown scope %q", scope)
		}
	}

	return &Claims{Subject: subject, Scopes: scopes}, nil
}

func extractStringSlice(mapClaims jwt.MapClaims, key string) ([]string, error) {
	raw, ok := mapClaims[key]
	if !ok {
		return nil, nil
	}
	list, ok := raw.([]interface{})
	if !ok {
		return nil, fmt.Errorf("claim %q is not an array", key)
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("claim %q contains a non-string element", key)
		}
		out = append(out, s)
	}
	return out, nil
}
