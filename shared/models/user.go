package models

import (
	"strconv"
	"time"

	"gorm.io/gorm"
)

// ExternallyManagedSecret marks a user whose password lives with the
// external identity provider.
const ExternallyManagedSecret = "FIREBASE_MANAGED"

// User represents a dealer-portal account
type User struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Email        string    `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"column:password_hash;type:varchar(512);not null"`
	Name         string    `json:"name" gorm:"type:varchar(255)"`
	Role         Role      `json:"role" gorm:"type:varchar(50);not null;default:dealer_user"`
	DealerID     *uint     `json:"dealerId" gorm:"index"`
	DealerLimit  int       `json:"dealerLimit" gorm:"default:10"`
	IsActive     bool      `json:"isActive" gorm:"default:true"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`

	Dealer *Dealer `json:"dealer,omitempty" gorm:"foreignKey:DealerID"`
}

func (User) TableName() string {
	return "users"
}

// Principal is the authenticated actor of a request, built from verified
// token claims.
type Principal struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
	DealerID *uint  `json:"dealerId"`
}

func (p *Principal) IsProducerAdmin() bool {
	return p.Role == RoleProducerAdmin
}

// OwnsDealer reports whether the principal belongs to the given dealer.
func (p *Principal) OwnsDealer(dealerID uint) bool {
	return p.DealerID != nil && *p.DealerID == dealerID
}

// CanAccessDealer checks whether the principal may see data of a dealer.
func (p *Principal) CanAccessDealer(dealerID uint) bool {
	if p.IsProducerAdmin() {
		return true
	}
	return p.OwnsDealer(dealerID)
}

// PrincipalFromUser builds a principal for a stored user
func PrincipalFromUser(u *User) *Principal {
	return &Principal{
		ID:       strconv.FormatUint(uint64(u.ID), 10),
		Email:    u.Email,
		Role:     u.Role,
		DealerID: u.DealerID,
	}
}

// NormalizeRole rewrites legacy role spellings to the canonical role.
func (u *User) NormalizeRole() {
	if role, ok := ParseRole(string(u.Role)); ok {
		u.Role = role
	}
}

// AfterFind normalises rows written by older versions of the user table.
func (u *User) AfterFind(tx *gorm.DB) error {
	u.NormalizeRole()
	return nil
}
