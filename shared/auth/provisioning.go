package auth

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/pavitra93/dealer-management-api/shared/models"
	"github.com/pavitra93/dealer-management-api/shared/repository"
	"github.com/pavitra93/dealer-management-api/shared/utils"
)

// MinPasswordLength applies to new and changed passwords
const MinPasswordLength = 6

// NewUser is the draft submitted to Register
type NewUser struct {
	Email    string
	Password string
	Name     string
	Role     string
	DealerID *uint
}

// Provisioner creates users and changes passwords
type Provisioner struct {
	users    repository.UserRepository
	dealers  repository.DealerRepository
	verifier *CredentialVerifier
	provider IdentityProvider
	log      logrus.FieldLogger
}

// NewProvisioner creates a provisioner. With a nil provider, passwords are
// stored as bcrypt hashes.
func NewProvisioner(users repository.UserRepository, dealers repository.DealerRepository, verifier *CredentialVerifier, provider IdentityProvider, log logrus.FieldLogger) *Provisioner {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Provisioner{
		users:    users,
		dealers:  dealers,
		verifier: verifier,
		provider: provider,
		log:      log,
	}
}

// authorizeDraft applies the provisioning authority rules and returns the
// role and dealer the new user will get.
func authorizeDraft(creator *models.Principal, draft NewUser) (models.Role, *uint, error) {
	role := models.RoleDealerUser
	if strings.TrimSpace(draft.Role) != "" {
		parsed, ok := models.ParseRole(draft.Role)
		if !ok {
			return "", nil, utils.BadRequest("Invalid role.")
		}
		role = parsed
	}

	switch creator.Role {
	case models.RoleProducerAdmin:
		if role == models.RoleProducerAdmin {
			return role, nil, nil
		}
		if draft.DealerID == nil {
			return "", nil, utils.BadRequest("dealerId is required for dealer roles.")
		}
		return role, draft.DealerID, nil

	case models.RoleDealerAdmin:
		if role != models.RoleDealerUser {
			return "", nil, utils.Forbidden("Dealer admins can only create dealer_user accounts.")
		}
		if creator.DealerID == nil {
			return "", nil, utils.BadRequest("Your account is not linked to a dealer.")
		}
		id := *creator.DealerID
		return role, &id, nil

	default:
		return "", nil, utils.Forbidden("You are not allowed to create users.")
	}
}

// Register creates a user on behalf of creator
func (p *Provisioner) Register(ctx context.Context, creator *models.Principal, draft NewUser) (*models.User, error) {
	if creator == nil {
		return nil, utils.Forbidden("You are not allowed to create users.")
	}
	role, dealerID, err := authorizeDraft(creator, draft)
	if err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(draft.Email))
	if email == "" {
		return nil, utils.BadRequest("Email is required.")
	}
	if len(draft.Password) < MinPasswordLength {
		return nil, utils.BadRequest("Password must be at least 6 characters.")
	}

	if dealerID != nil && p.dealers != nil {
		if _, err := p.dealers.FindByID(ctx, *dealerID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, utils.BadRequest("Dealer not found.")
			}
			return nil, utils.Internal("Failed to look up dealer", err)
		}
	}

	if _, err := p.users.FindByEmail(ctx, email); err == nil {
		return nil, utils.Conflict("This email address is already registered.")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, utils.Internal("Failed to look up user", err)
	}

	secret, err := p.storeSecret(ctx, email, draft.Password, draft.Name)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:        email,
		PasswordHash: secret,
		Name:         draft.Name,
		Role:         role,
		DealerID:     dealerID,
		IsActive:     true,
	}
	if err := p.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, utils.Conflict("This email address is already registered.")
		}
		return nil, utils.Internal("Failed to create user", err)
	}

	p.log.WithFields(logrus.Fields{
		"user_id":    user.ID,
		"role":       user.Role,
		"created_by": creator.ID,
	}).Info("User created")
	return user, nil
}

// storeSecret registers the account with the provider when one is
// configured, otherwise hashes the password locally.
func (p *Provisioner) storeSecret(ctx context.Context, email, password, name string) (string, error) {
	if p.provider == nil {
		hashed, err := HashPassword(password)
		if err != nil {
			return "", utils.Internal("Failed to hash password", err)
		}
		return hashed, nil
	}

	if err := p.provider.CreateUser(ctx, email, password, name); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return "", utils.Conflict("This email address is already registered with the identity provider.")
		}
		return "", utils.Internal("Failed to register user with identity provider", err)
	}
	return models.ExternallyManagedSecret, nil
}

// ChangePassword re-verifies the current password before storing the new one.
// Confirmation matching is the caller's job.
func (p *Provisioner) ChangePassword(ctx context.Context, principal *models.Principal, currentPassword, newPassword string) error {
	if len(newPassword) < MinPasswordLength {
		return utils.BadRequest("New password must be at least 6 characters.")
	}

	user, err := p.lookup(ctx, principal)
	if err != nil {
		return err
	}

	if !p.verifier.Verify(ctx, user.Email, user.PasswordHash, currentPassword) {
		return utils.BadRequest("Current password is incorrect.")
	}

	if user.PasswordHash == models.ExternallyManagedSecret && p.provider != nil {
		if err := p.provider.ChangePassword(ctx, user.Email, currentPassword, newPassword); err != nil {
			return utils.Internal("Failed to change password with identity provider", err)
		}
		return nil
	}

	hashed, err := HashPassword(newPassword)
	if err != nil {
		return utils.Internal("Failed to hash password", err)
	}
	if err := p.users.UpdatePassword(ctx, user.ID, hashed); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return utils.NotFound("User not found.")
		}
		return utils.Internal("Failed to update password", err)
	}
	return nil
}

// lookup finds the stored user by numeric id, falling back to email for
// principals verified by the identity provider.
func (p *Provisioner) lookup(ctx context.Context, principal *models.Principal) (*models.User, error) {
	if principal == nil {
		return nil, utils.Unauthorized("Not authorized.")
	}

	var (
		user *models.User
		err  error
	)
	if id, parseErr := strconv.ParseUint(principal.ID, 10, 64); parseErr == nil {
		user, err = p.users.FindByID(ctx, uint(id))
	} else {
		user, err = p.users.FindByEmail(ctx, strings.ToLower(principal.Email))
	}
	if errors.Is(err, repository.ErrNotFound) {
		return nil, utils.NotFound("User not found.")
	}
	if err != nil {
		return nil, utils.Internal("Failed to look up user", err)
	}
	return user, nil
}
