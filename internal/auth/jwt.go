// Package auth issues and checks the bearer tokens of the CityInfo API.
//
// AUTHENTICATION FLOW OVERVIEW:
//  1. Client POSTs {"userName","password"} to /api/authentication/authenticate
//  2. A CredentialVerifier turns the credentials into an AuthenticatedUser
//  3. TokenService.Issue signs a JWT carrying that user's identity claims
//  4. Client sends "Authorization: Bearer <token>" on every other API call
//  5. RequireAuth validates the token and stores its claims in the request
//     context; RequirePolicy then checks individual claims (e.g. city=Berlin)
//
// JWT STRUCTURE (three base64url parts separated by dots):
//
//	HEADER.PAYLOAD.SIGNATURE
//	- Header:    {"alg":"HS256","typ":"JWT"}
//	- Payload:   {"sub":"1","given_name":"Bogdan","family_name":"Polojan","city":"Berlin",
//	              "iss":"...","aud":["cityinfoapi"],"iat":...,"nbf":...,"exp":...}
//	- Signature: HMAC-SHA256(header+"."+payload, secret)
//
// Validation needs only the secret: no lookup, no server-side session.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sakif/cityinfo/internal/model"
)

const minSecretLength = 16

var (
	ErrInvalidToken = errors.New("auth: invalid token")
	ErrExpiredToken = errors.New("auth: token expired")
)

// TokenConfig configures a TokenService.
type TokenConfig struct {
	Secret   string
	Issuer   string
	Audience string
	Lifetime time.Duration
}

// Claims is the JWT payload.
//
// The identity claims use the standard OpenID Connect names so that any JWT
// tooling shows them meaningfully; "city" is application specific and is what
// the MustLiveInBerlin policy inspects.
type Claims struct {
	GivenName  string `json:"given_name,omitempty"`
	FamilyName string `json:"family_name,omitempty"`
	City       string `json:"city,omitempty"`
	jwt.RegisteredClaims
}

// Value returns a claim by its JWT name. Only single-valued string claims are
// addressable.
func (c *Claims) Value(name string) (string, bool) {
	var v string
	switch name {
	case "sub":
		v = c.Subject
	case "given_name":
		v = c.GivenName
	case "family_name":
		v = c.FamilyName
	case "city":
		v = c.City
	case "iss":
		v = c.Issuer
	}
	return v, v != ""
}

// TokenService signs and validates HS256 tokens with one shared secret.
type TokenService struct {
	secret   []byte
	issuer   string
	audience string
	lifetime time.Duration
	now      func() time.Time
}

// NewTokenService checks cfg and builds a TokenService.
// Generate a suitable secret with: openssl rand -hex 32
func NewTokenService(cfg TokenConfig) (*TokenService, error) {
	if len(cfg.Secret) < minSecretLength {
		return nil, fmt.Errorf("auth: token secret must be at least %d characters", minSecretLength)
	}
	if cfg.Lifetime <= 0 {
		cfg.Lifetime = time.Hour
	}
	return &TokenService{
		secret:   []byte(cfg.Secret),
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		lifetime: cfg.Lifetime,
		now:      time.Now,
	}, nil
}

// Issue signs a token for user that expires after the configured lifetime.
func (s *TokenService) Issue(user model.AuthenticatedUser) (string, error) {
	return s.IssueWithDuration(user, s.lifetime)
}

// IssueWithDuration signs a token with a custom lifetime. A negative d yields a
// token that is already expired, which tests use.
func (s *TokenService) IssueWithDuration(user model.AuthenticatedUser, d time.Duration) (string, error) {
	now := s.now()

	c := Claims{
		GivenName:  user.FirstName,
		FamilyName: user.LastName,
		City:       user.City,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.UserID, 10),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
		},
	}
	if s.audience != "" {
		c.Audience = jwt.ClaimStrings{s.audience}
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// Validate parses tokenStr and returns its claims.
//
// VALIDATION CHECKS (performed by the jwt library):
//   - signature made with our secret
//   - algorithm is HS256 (rejects "none" and algorithm-confusion tricks)
//   - exp present and in the future, nbf not in the future
//   - iss and aud match the configured values
//
// An expired token yields ErrExpiredToken; every other failure ErrInvalidToken.
func (s *TokenService) Validate(tokenStr string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}
	if s.audience != "" {
		opts = append(opts, jwt.WithAudience(s.audience))
	}

	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	c, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if c.Subject == "" {
		return nil, fmt.Errorf("%w: no subject", ErrInvalidToken)
	}
	return c, nil
}
