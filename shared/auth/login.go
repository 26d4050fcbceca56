package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/pavitra93/dealer-management-api/shared/models"
	"github.com/pavitra93/dealer-management-api/shared/repository"
	"github.com/pavitra93/dealer-management-api/shared/utils"
)

const invalidCredentials = "Invalid email or password."

// Session is the result of a successful login
type Session struct {
	Token string
	User  *models.User
}

// Authenticator exchanges email and password for a signed token
type Authenticator struct {
	users    repository.UserRepository
	verifier *CredentialVerifier
	codec    *TokenCodec
	log      logrus.FieldLogger
}

func NewAuthenticator(users repository.UserRepository, verifier *CredentialVerifier, codec *TokenCodec, log logrus.FieldLogger) *Authenticator {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Authenticator{users: users, verifier: verifier, codec: codec, log: log}
}

// Login returns Unauthorized for unknown emails, inactive accounts and wrong
// passwords alike.
func (a *Authenticator) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, utils.BadRequest("Email and password are required.")
	}

	user, err := a.users.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		a.log.WithField("email", email).Info("Login attempt for unknown email")
		return nil, utils.Unauthorized(invalidCredentials)
	}
	if err != nil {
		return nil, utils.Internal("Failed to look up user", err)
	}

	if !user.IsActive {
		a.log.WithField("user_id", user.ID).Info("Login attempt for inactive user")
		return nil, utils.Unauthorized(invalidCredentials)
	}

	if !a.verifier.Verify(ctx, user.Email, user.PasswordHash, password) {
		a.log.WithField("user_id", user.ID).Info("Login attempt with wrong password")
		return nil, utils.Unauthorized(invalidCredentials)
	}

	principal := models.PrincipalFromUser(user)
	if principal.Role == models.RoleProducerAdmin {
		principal.DealerID = nil
	}
	token, err := a.codec.Issue(principal)
	if err != nil {
		return nil, utils.Internal("Failed to issue token", err)
	}

	a.log.WithFields(logrus.Fields{
		"user_id": user.ID,
		"role":    user.Role,
	}).Info("User logged in")
	return &Session{Token: token, User: user}, nil
}
