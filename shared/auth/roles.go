package auth

import (
	"strings"

	"github.com/pavitra93/dealer-management-api/shared/models"
)

// RoleHeuristic guesses a role from an email address. It exists for demo and
// test accounts only and is never a security boundary.
type RoleHeuristic func(email string) (models.Role, bool)

var dealerOwnerMarkers = []string{"owner", "dealer", "bayi", "manager"}

// EmailRoleHeuristic maps "admin" addresses to producer_admin and dealer
// ownership markers to dealer_admin.
func EmailRoleHeuristic(email string) (models.Role, bool) {
	local := strings.ToLower(email)
	if at := strings.IndexByte(local, '@'); at >= 0 {
		local = local[:at]
	}

	if strings.Contains(local, "admin") {
		return models.RoleProducerAdmin, true
	}
	for _, marker := range dealerOwnerMarkers {
		if strings.Contains(local, marker) {
			return models.RoleDealerAdmin, true
		}
	}
	return "", false
}

// ClaimMapper turns identity-provider claims into a principal role and dealer.
type ClaimMapper struct {
	// Heuristic is only set in development and test configurations
	Heuristic RoleHeuristic
	// DefaultDealerID is used for tenant-scoped principals without a dealer claim
	DefaultDealerID *uint
}

// Role applies the precedence: an explicit non-default claim, then the
// heuristic, then the claimed default, then dealer_user.
func (m ClaimMapper) Role(claimed, email string) models.Role {
	role, ok := models.ParseRole(claimed)
	if ok && role != models.RoleDealerUser {
		return role
	}
	if m.Heuristic != nil {
		if guessed, matched := m.Heuristic(email); matched {
			return guessed
		}
	}
	return models.RoleDealerUser
}

// DealerID enforces that producer admins carry no dealer and applies the
// default dealer to tenant-scoped principals.
func (m ClaimMapper) DealerID(role models.Role, claimed *uint) *uint {
	if !role.IsTenantScoped() {
		return nil
	}
	if claimed != nil {
		return claimed
	}
	if m.DefaultDealerID != nil {
		id := *m.DefaultDealerID
		return &id
	}
	return nil
}

// Principal builds the principal for an externally verified identity
func (m ClaimMapper) Principal(subject, email, claimedRole string, claimedDealer *uint) *models.Principal {
	role := m.Role(claimedRole, email)
	return &models.Principal{
		ID:       subject,
		Email:    email,
		Role:     role,
		DealerID: m.DealerID(role, claimedDealer),
	}
}
