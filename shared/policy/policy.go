// Package policy decides which dealer's records a principal may read or write.
// Every function here is pure and safe for concurrent use.
package policy

import (
	"github.com/pavitra93/dealer-management-api/shared/models"
	"github.com/pavitra93/dealer-management-api/shared/utils"
)

// Scope is the effective dealer filter of a list query
type Scope struct {
	// All means no dealer filter applies
	All bool
	// DealerID is the only visible dealer when All is false
	DealerID *uint
}

// Empty reports a scope that can match no rows
func (s Scope) Empty() bool {
	return !s.All && s.DealerID == nil
}

// ReadScope computes the list filter. A tenant-scoped principal without a
// dealer sees nothing rather than getting an error.
func ReadScope(p *models.Principal) Scope {
	if p == nil {
		return Scope{}
	}
	if p.Role == models.RoleProducerAdmin {
		return Scope{All: true}
	}
	if p.Role.IsTenantScoped() && p.DealerID != nil {
		id := *p.DealerID
		return Scope{DealerID: &id}
	}
	return Scope{}
}

// WriteDealerID returns the dealer a new record is stamped with. Tenant-scoped
// principals always write to their own dealer; producer admins must name one.
func WriteDealerID(p *models.Principal, submitted *uint) (uint, error) {
	if p == nil {
		return 0, utils.Unauthorized("Not authorized.")
	}

	switch {
	case p.Role == models.RoleProducerAdmin:
		if submitted == nil || *submitted == 0 {
			return 0, utils.BadRequest("A valid dealerId is required.")
		}
		return *submitted, nil
	case p.Role.IsTenantScoped():
		if p.DealerID == nil {
			return 0, utils.BadRequest("Your account is not linked to a dealer.")
		}
		return *p.DealerID, nil
	default:
		return 0, utils.Forbidden("You do not have permission to perform this action.")
	}
}

// AuthorizeMutation checks that p may change a record owned by dealerID
func AuthorizeMutation(p *models.Principal, dealerID uint) error {
	if p == nil {
		return utils.Unauthorized("Not authorized.")
	}
	if p.CanAccessDealer(dealerID) {
		return nil
	}
	return utils.Forbidden("You do not have permission to modify this record.")
}

// AuthorizeDealerRead checks that p may read data of the requested dealer,
// such as per-dealer visit statistics.
func AuthorizeDealerRead(p *models.Principal, requested uint) error {
	if p == nil {
		return utils.Unauthorized("Not authorized.")
	}
	if p.IsProducerAdmin() || p.OwnsDealer(requested) {
		return nil
	}
	return utils.Forbidden("You do not have permission to view this dealer's data.")
}
