package models

import (
	"time"
)

// Dealer is a retail account and the unit of data isolation
type Dealer struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	Name       string    `json:"name" gorm:"type:varchar(255);not null"`
	LinkHash   string    `json:"currentLinkHash" gorm:"column:link_hash;type:varchar(128);uniqueIndex;not null"`
	IsActive   bool      `json:"isActive" gorm:"default:true"`
	QuotaLimit int       `json:"quotaLimit" gorm:"default:10"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`

	// Relationships
	Users []User `json:"users,omitempty" gorm:"foreignKey:DealerID"`
}

// TableName returns the table name for the Dealer model
func (Dealer) TableName() string {
	return "dealers"
}
