package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/sakif/cityinfo/internal/model"
)

var ErrInvalidCredentials = errors.New("auth: invalid credentials")

// CredentialVerifier turns a user name and password into an identity.
// It returns ErrInvalidCredentials when the pair is not accepted.
type CredentialVerifier interface {
	Verify(ctx context.Context, userName, password string) (*model.AuthenticatedUser, error)
}

// DemoVerifier accepts any credentials and answers with one fixed identity.
// It exists so the API can be explored without a user store.
type DemoVerifier struct {
	User model.AuthenticatedUser
}

var _ CredentialVerifier = DemoVerifier{}

func (d DemoVerifier) Verify(_ context.Context, userName, _ string) (*model.AuthenticatedUser, error) {
	u := d.User
	u.UserName = userName
	return &u, nil
}

// UserRecord is one configured account.
type UserRecord struct {
	PasswordHash string
	User         model.AuthenticatedUser
}

// PasswordVerifier checks passwords against configured bcrypt hashes.
type PasswordVerifier struct {
	users  map[string]UserRecord
	logger *slog.Logger

	// compare is PasswordService.Verify.
	compare func(hash, plaintext string) error

	// dummyHash is compared against for unknown user names, so rejecting
	// them takes as long as rejecting a wrong password.
	dummyHash string
}

var _ CredentialVerifier = (*PasswordVerifier)(nil)

// NewPasswordVerifier indexes records by their user name.
func NewPasswordVerifier(records []UserRecord, passwords *PasswordService, logger *slog.Logger) *PasswordVerifier {
	users := make(map[string]UserRecord, len(records))
	for _, r := range records {
		users[r.User.UserName] = r
	}

	// Hashing the empty password cannot hit the length limit.
	dummy, err := passwords.Hash("")
	if err != nil {
		logger.Error("cannot prepare dummy password hash", slog.String("error", err.Error()))
	}

	return &PasswordVerifier{
		users:     users,
		logger:    logger,
		compare:   passwords.Verify,
		dummyHash: dummy,
	}
}

func (v *PasswordVerifier) Verify(_ context.Context, userName, password string) (*model.AuthenticatedUser, error) {
	record, ok := v.users[userName]
	if !ok {
		_ = v.compare(v.dummyHash, password)
		return nil, ErrInvalidCredentials
	}

	if err := v.compare(record.PasswordHash, password); err != nil {
		if !errors.Is(err, ErrPasswordMismatch) {
			// A malformed hash in the configuration, not a wrong password.
			v.logger.Error("cannot verify password",
				slog.String("user", userName),
				slog.String("error", err.Error()),
			)
		}
		return nil, ErrInvalidCredentials
	}

	u := record.User
	return &u, nil
}
