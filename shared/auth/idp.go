package auth

import (
	"context"
	"errors"
)

var (
	// ErrCredentialsRejected means the provider answered and refused the password
	ErrCredentialsRejected = errors.New("identity provider rejected the credentials")
	// ErrEmailTaken means the provider already has an account for the email
	ErrEmailTaken = errors.New("email is already registered with the identity provider")
)

// IdentityProvider is an external account store that owns the passwords of
// users stored with the externally managed sentinel.
type IdentityProvider interface {
	Name() string
	VerifyPassword(ctx context.Context, email, password string) error
	CreateUser(ctx context.Context, email, password, name string) error
	ChangePassword(ctx context.Context, email, currentPassword, newPassword string) error
}
