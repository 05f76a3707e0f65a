package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/sakif/cityinfo/internal/dto"
)

// Authenticator is what AuthHandler needs from the business layer.
type Authenticator interface {
	Authenticate(ctx context.Context, userName, password string) (string, error)
}

// AuthHandler serves /api/authentication.
type AuthHandler struct {
	auth   Authenticator
	logger *slog.Logger
}

func NewAuthHandler(auth Authenticator, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logger}
}

// HandleAuthenticate exchanges credentials for a bearer token.
//
// HTTP: POST /api/authentication/authenticate
// REQUEST BODY: {"userName": "bogdan", "password": "..."}
// RESPONSE: the raw token as text/plain, ready to paste into
// "Authorization: Bearer <token>".
//
// Credentials travel in the body, never the query string, because query
// strings end up in access logs.
func (h *AuthHandler) HandleAuthenticate(w http.ResponseWriter, r *http.Request) {
	var body dto.AuthenticationRequestBody
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	token, err := h.auth.Authenticate(r.Context(), body.UserName, body.Password)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, token)
}
