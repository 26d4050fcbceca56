package analytics

import (
	"time"

	"github.com/pavitra93/dealer-management-api/shared/models"
)

// Stats summarises the visits of one dealer
type Stats struct {
	DealerID    uint              `json:"dealerId"`
	TotalVisits int64             `json:"totalVisits"`
	LastVisit   *time.Time        `json:"lastVisit"`
	Visits      []models.VisitLog `json:"data"`
}

// newStats expects visits ordered oldest first
func newStats(dealerID uint, total int64, visits []models.VisitLog) *Stats {
	if visits == nil {
		visits = []models.VisitLog{}
	}
	stats := &Stats{
		DealerID:    dealerID,
		TotalVisits: total,
		Visits:      visits,
	}
	if len(visits) > 0 {
		last := visits[len(visits)-1].Timestamp
		stats.LastVisit = &last
	}
	return stats
}
