package auth

import (
	"context"
	"crypto/subtle"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/pavitra93/dealer-management-api/shared/models"
)

const hashPrefix = "$2"

// IsHashedSecret reports whether a stored secret looks like a bcrypt hash
func IsHashedSecret(secret string) bool {
	return strings.HasPrefix(secret, hashPrefix)
}

// HashPassword returns a bcrypt hash suitable for storage
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// CredentialVerifier checks a supplied password against a stored secret that
// may be externally managed, hashed or legacy plaintext.
type CredentialVerifier struct {
	provider IdentityProvider
	log      logrus.FieldLogger
}

// NewCredentialVerifier creates a verifier. A nil provider enables the
// development bypass for externally managed accounts.
func NewCredentialVerifier(provider IdentityProvider, log logrus.FieldLogger) *CredentialVerifier {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &CredentialVerifier{provider: provider, log: log}
}

// Delegating reports whether an identity provider is configured
func (v *CredentialVerifier) Delegating() bool {
	return v.provider != nil
}

// Verify never returns true on a provider error.
func (v *CredentialVerifier) Verify(ctx context.Context, email, storedSecret, password string) bool {
	switch {
	case storedSecret == models.ExternallyManagedSecret:
		return v.verifyDelegated(ctx, email, password)
	case IsHashedSecret(storedSecret):
		return bcrypt.CompareHashAndPassword([]byte(storedSecret), []byte(password)) == nil
	default:
		return subtle.ConstantTimeCompare([]byte(storedSecret), []byte(password)) == 1
	}
}

func (v *CredentialVerifier) verifyDelegated(ctx context.Context, email, password string) bool {
	if v.provider == nil {
		// Insecure: any password is accepted for externally managed accounts
		v.log.WithField("email", email).
			Warn("No identity provider configured, skipping password check (development mode)")
		return true
	}

	if err := v.provider.VerifyPassword(ctx, email, password); err != nil {
		v.log.WithFields(logrus.Fields{
			"email":    email,
			"provider": v.provider.Name(),
			"error":    err.Error(),
		}).Warn("Identity provider login failed")
		return false
	}
	return true
}
