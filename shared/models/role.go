package models

import "strings"

// Role is the canonical authorization role of a user.
type Role string

const (
	RoleProducerAdmin Role = "producer_admin"
	RoleDealerAdmin   Role = "dealer_admin"
	RoleDealerUser    Role = "dealer_user"
)

// roleAliases maps every accepted spelling, including legacy ones from older
// user tables, to a canonical role. This is the only place legacy spellings
// are recognised.
var roleAliases = map[string]Role{
	"producer_admin": RoleProducerAdmin,
	"producer":       RoleProducerAdmin,
	"superuser":      RoleProducerAdmin,
	"dealer_admin":   RoleDealerAdmin,
	"dealer_user":    RoleDealerUser,
}

// ParseRole normalises a stored or submitted role string.
func ParseRole(s string) (Role, bool) {
	role, ok := roleAliases[strings.ToLower(strings.TrimSpace(s))]
	return role, ok
}

// IsTenantScoped reports whether the role is restricted to a single dealer.
func (r Role) IsTenantScoped() bool {
	return r == RoleDealerAdmin || r == RoleDealerUser
}
