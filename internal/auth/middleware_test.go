package auth

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/cityinfo/internal/model"
)

// okHandler records the claims it saw and answers 200.
func okHandler(seen **Claims) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, _ := ClaimsFromContext(r.Context())
		*seen = c
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAuth(t *testing.T) {
	ts := newTestTokenService(t)
	valid, err := ts.Issue(testUser)
	require.NoError(t, err)
	expired, err := ts.IssueWithDuration(testUser, -time.Minute)
	require.NoError(t, err)

	tests := []struct {
		name          string
		header        string
		wantStatus    int
		wantChallenge string
	}{
		{"valid token", "Bearer " + valid, http.StatusOK, ""},
		{"lower-case scheme", "bearer " + valid, http.StatusOK, ""},
		{"no header", "", http.StatusUnauthorized, "Bearer"},
		{"basic scheme", "Basic Ym9nZGFuOnB3", http.StatusUnauthorized, "Bearer"},
		{"empty token", "Bearer ", http.StatusUnauthorized, "Bearer"},
		{"garbage", "Bearer abc.def.ghi", http.StatusUnauthorized, `Bearer error="invalid_token"`},
		{"expired", "Bearer " + expired, http.StatusUnauthorized,
			`Bearer error="invalid_token", error_description="The token expired"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen *Claims
			h := RequireAuth(ts)(okHandler(&seen))

			req := httptest.NewRequest(http.MethodGet, "/api/cities", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, tt.wantChallenge, rr.Header().Get("WWW-Authenticate"))
			if tt.wantStatus == http.StatusOK {
				require.NotNil(t, seen)
				assert.Equal(t, "Berlin", seen.City)
			} else {
				assert.Nil(t, seen)
				assert.Empty(t, rr.Body.String())
			}
		})
	}
}

func TestRequirePolicy_MustLiveInBerlin(t *testing.T) {
	tests := []struct {
		name       string
		claims     *Claims
		wantStatus int
	}{
		{"berlin resident", &Claims{City: "Berlin"}, http.StatusOK},
		{"other city", &Claims{City: "Antwerp"}, http.StatusForbidden},
		{"case differs", &Claims{City: "berlin"}, http.StatusForbidden},
		{"no city claim", &Claims{GivenName: "Bogdan"}, http.StatusForbidden},
		{"unauthenticated", nil, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen *Claims
			h := RequirePolicy(MustLiveInBerlin)(okHandler(&seen))

			req := httptest.NewRequest(http.MethodGet, "/api/cities/1/pointsofinterest", nil)
			if tt.claims != nil {
				req = req.WithContext(WithClaims(req.Context(), tt.claims))
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)
		})
	}
}

func TestClaimsFromContext_Empty(t *testing.T) {
	_, ok := ClaimsFromContext(context.Background())
	assert.False(t, ok)
}

// =========================================================================
// CREDENTIAL VERIFIERS
// =========================================================================

func TestDemoVerifier(t *testing.T) {
	v := DemoVerifier{User: model.AuthenticatedUser{UserID: 1, FirstName: "Bogdan", LastName: "Polojan", City: "Berlin"}}

	u, err := v.Verify(context.Background(), "anyone", "anything")
	require.NoError(t, err)
	assert.Equal(t, "anyone", u.UserName)
	assert.Equal(t, "Berlin", u.City)
	assert.Empty(t, v.User.UserName, "the configured identity is not mutated")
}

func TestPasswordVerifier(t *testing.T) {
	ps := newTestPasswordService()
	hash, err := ps.Hash("s3cret")
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	v := NewPasswordVerifier([]UserRecord{
		{PasswordHash: hash, User: model.AuthenticatedUser{UserID: 7, UserName: "ada", City: "Antwerp"}},
		{PasswordHash: "broken", User: model.AuthenticatedUser{UserID: 8, UserName: "bob"}},
	}, ps, logger)

	u, err := v.Verify(context.Background(), "ada", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, int64(7), u.UserID)

	for _, tc := range []struct{ user, password string }{
		{"ada", "wrong"},
		{"nobody", "s3cret"},
		{"bob", "anything"},
	} {
		_, err := v.Verify(context.Background(), tc.user, tc.password)
		assert.ErrorIs(t, err, ErrInvalidCredentials, "%s/%s", tc.user, tc.password)
	}
}

func TestPasswordVerifier_UnknownUserCostsACompare(t *testing.T) {
	ps := newTestPasswordService()
	hash, err := ps.Hash("s3cret")
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	v := NewPasswordVerifier([]UserRecord{
		{PasswordHash: hash, User: model.AuthenticatedUser{UserID: 7, UserName: "ada"}},
	}, ps, logger)

	var compared []string
	v.compare = func(h, plaintext string) error {
		compared = append(compared, h)
		return ps.Verify(h, plaintext)
	}

	_, err = v.Verify(context.Background(), "nobody", "s3cret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	require.Len(t, compared, 1)
	assert.Equal(t, v.dummyHash, compared[0])
	assert.NotEmpty(t, v.dummyHash)
	assert.NotEqual(t, hash, compared[0])

	_, err = v.Verify(context.Background(), "ada", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	require.Len(t, compared, 2)
	assert.Equal(t, hash, compared[1])
}
