package models

import (
	"time"

	"github.com/google/uuid"
)

// VisitLog records a single click on a dealer tracking link
type VisitLog struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	LinkHash  string    `json:"linkHash" gorm:"type:varchar(128);not null"`
	DealerID  uint      `json:"dealerId" gorm:"not null;index"`
	IP        string    `json:"ip" gorm:"type:varchar(64)"`
	UserAgent string    `json:"userAgent" gorm:"type:text"`
	Timestamp time.Time `json:"timestamp" gorm:"not null;index"`
}

func (VisitLog) TableName() string {
	return "visit_logs"
}

// NewVisitLog stamps a fresh id and timestamp
func NewVisitLog(dealer *Dealer, ip, userAgent string) *VisitLog {
	if ip == "" {
		ip = "0.0.0.0"
	}
	if userAgent == "" {
		userAgent = "unknown"
	}
	return &VisitLog{
		ID:        uuid.New(),
		LinkHash:  dealer.LinkHash,
		DealerID:  dealer.ID,
		IP:        ip,
		UserAgent: userAgent,
		Timestamp: time.Now().UTC(),
	}
}
