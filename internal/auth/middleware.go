package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// contextKey is unexported so no other package can read or overwrite the
// claims stored by RequireAuth.
type contextKey string

const claimsKey contextKey = "claims"

// RequireAuth rejects requests without a valid bearer token.
//
// On success the token's claims are stored in the request context (see
// ClaimsFromContext). On failure the response is 401 with an empty body and a
// WWW-Authenticate challenge, as RFC 6750 asks for.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				challenge(w, "")
				return
			}

			claims, err := tokens.Validate(raw)
			if err != nil {
				if errors.Is(err, ErrExpiredToken) {
					challenge(w, `error="invalid_token", error_description="The token expired"`)
					return
				}
				challenge(w, `error="invalid_token"`)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// RequirePolicy only lets through callers whose claims satisfy p.
// It must run after RequireAuth; a request without claims gets 401.
func RequirePolicy(p Policy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				challenge(w, "")
				return
			}
			if !p.Allows(claims) {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithClaims returns a copy of ctx carrying c.
func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, claimsKey, c)
}

// ClaimsFromContext returns the claims of the authenticated caller, if any.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsKey).(*Claims)
	return c, ok && c != nil
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
// The scheme is matched case-insensitively.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func challenge(w http.ResponseWriter, params string) {
	value := "Bearer"
	if params != "" {
		value += " " + params
	}
	w.Header().Set("WWW-Authenticate", value)
	w.WriteHeader(http.StatusUnauthorized)
}
