package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/cityinfo/internal/apperror"
	"github.com/sakif/cityinfo/internal/auth"
)

// AuthService exchanges credentials for a bearer token.
//
//	AuthHandler (HTTP) → AuthService → CredentialVerifier (who is this?)
//	                                 ↘ TokenService       (sign their claims)
type AuthService struct {
	verifier auth.CredentialVerifier
	tokens   *auth.TokenService
	logger   *slog.Logger
}

func NewAuthService(verifier auth.CredentialVerifier, tokens *auth.TokenService, logger *slog.Logger) *AuthService {
	return &AuthService{verifier: verifier, tokens: tokens, logger: logger}
}

// Authenticate returns a signed token for the identity behind userName and
// password. Rejected credentials yield an apperror.ErrUnauthorized error.
func (s *AuthService) Authenticate(ctx context.Context, userName, password string) (string, error) {
	user, err := s.verifier.Verify(ctx, userName, password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			s.logger.InfoContext(ctx, "authentication rejected", slog.String("user", userName))
			return "", apperror.Unauthorized("invalid credentials")
		}
		return "", fmt.Errorf("verifying credentials: %w", err)
	}

	token, err := s.tokens.Issue(*user)
	if err != nil {
		return "", fmt.Errorf("issuing token: %w", err)
	}

	s.logger.InfoContext(ctx, "token issued",
		slog.Int64("user_id", user.UserID),
		slog.String("city", user.City),
	)
	return token, nil
}
