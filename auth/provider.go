package auth

import (
	"context"

	"github.com/pkg/errors"
)

var (
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// Provider is the hosted email/password identity service. The repository
// never implements authentication itself, every call delegates to the vendor.
type Provider interface {
	// SignUp creates the account and returns the new uid.
	SignUp(ctx context.Context, email string, password string) (uid string, err error)

	// SignIn exchanges credentials for an access token and the account uid.
	SignIn(ctx context.Context, email string, password string) (token string, uid string, err error)

	// SignOut revokes the access token everywhere.
	SignOut(ctx context.Context, token string) error

	// ResetPassword starts the vendor's password reset flow for the account.
	ResetPassword(ctx context.Context, email string) error

	// UserFromToken validates the token and returns the account uid.
	UserFromToken(ctx context.Context, token string) (uid string, err error)

	// DeleteAccount permanently removes the account behind the token.
	DeleteAccount(ctx context.Context, token string) error
}
