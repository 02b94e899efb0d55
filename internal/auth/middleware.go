package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// Claims represents the parsed token claims.
type Claims struct {
	Subject string   `json:"sub"`
	Scopes  []string `json:"scopes"`
}

// ContextKey is used for storing claims in request context.
type ContextKey string

const (
	ClaimsKey ContextKey = "claims"
)

// Scope constants.
const (
	ScopeObserve = "observe"
	ScopeControl = "control"
	ScopeIngest  = "ingest"
)

var validScopes = map[string]bool{
	ScopeObserve: true,
	ScopeControl: true,
	ScopeIngest:  true,
}

// Middleware handles authentication and authorization.
type Middleware struct {
	verifier *Verifier
}

// NewMiddleware creates an auth middleware backed by the given verifier.
func NewMiddleware(verifier *Verifier) *Middleware {
	return &Middleware{verifier: verifier}
}

// RequireAuth creates middleware that requires a valid bearer token.
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, err := m.extractBearerToken(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED",
				"Authentication required", nil)
			return
		}

		claims, err := m.verifier.VerifyToken(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED",
				"Invalid token", nil)
			return
		}

		ctx := context.WithValue(r.Context(), ClaimsKey, claims)
		next(w, r.WithContext(ctx))
	}
}

// RequireScope creates middleware that requires specific scopes.
func (m *Middleware) RequireScope(requiredScopes ...string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			claims := GetClaimsFromRequest(r)
			if claims == nil {
				writeError(w, http.StatusUnauthorized, "UNAUTHORIZED",
					"Authentication required", nil)
				return
			}

			if !hasRequiredScopes(claims, requiredScopes) {
				writeError(w, http.StatusForbidden, "FORBIDDEN",
					"Insufficient permissions", nil)
				return
			}

			next(w, r)
		}
	}
}

// extractBearerToken extracts the bearer token from the Authorization header.
func (m *Middleware) extractBearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", fmt.Errorf("missing Authorization header")
	}

	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", fmt.Errorf("invalid Authorization header format")
	}

	token := strings.TrimPrefix(authHeader, "Bearer ")
	if token == "" {
		return "", fmt.Errorf("empty token")
	}

	return token, nil
}

// hasRequiredScopes checks if the claims carry all required scopes.
func hasRequiredScopes(claims *Claims, requiredScopes []string) bool {
	if claims == nil {
		return false
	}

	for _, required := range requiredScopes {
		found := false
		for _, scope := range claims.Scopes {
			if scope == required {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	return true
}

// GetClaimsFromRequest extracts claims from the request context.
// This is a helper function for use in handlers.
func GetClaimsFromRequest(r *http.Request) *Claims {
	claims, ok := r.Context().Value(ClaimsKey).(*Claims)
	if !ok {
		return nil
	}
	return claims
}

// writeError writes an error response in the API format.
func writeError(w http.ResponseWriter, status int, code, message string, details interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	response := map[string]interface{}{
		"result":        "error",
		"code":          code,
		"message":       message,
		"correlationId": uuid.NewString(),
	}

	if details != nil {
		response["details"] = details
	}

	_ = json.NewEncoder(w).Encode(response)
}
