package analytics

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pavitra93/dealer-management-api/shared/metrics"
	"github.com/pavitra93/dealer-management-api/shared/models"
	"github.com/pavitra93/dealer-management-api/shared/repository"
	"github.com/pavitra93/dealer-management-api/shared/utils"
)

// SecondaryStore holds a best-effort copy of the visit log
type SecondaryStore interface {
	Name() string
	Record(ctx context.Context, visit *models.VisitLog) error
	Stats(ctx context.Context, dealerID uint) (*Stats, error)
}

// Publisher emits visit events to downstream consumers
type Publisher interface {
	Publish(visit models.VisitLog) error
}

// Recorder writes visits to the primary store, then to the optional
// secondary store and publisher. Only the dealer lookup can fail a request.
type Recorder struct {
	primary     repository.VisitLogRepository
	secondary   SecondaryStore
	publisher   Publisher
	sideTimeout time.Duration
	log         logrus.FieldLogger
}

// NewRecorder creates a recorder; secondary and publisher may be nil
func NewRecorder(primary repository.VisitLogRepository, secondary SecondaryStore, publisher Publisher, log logrus.FieldLogger) *Recorder {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Recorder{
		primary:     primary,
		secondary:   secondary,
		publisher:   publisher,
		sideTimeout: 2 * time.Second,
		log:         log,
	}
}

// RecordVisit logs a click on the dealer's tracking link. Write failures are
// logged and swallowed.
func (r *Recorder) RecordVisit(ctx context.Context, dealer *models.Dealer, ip, userAgent string) *models.VisitLog {
	visit := models.NewVisitLog(dealer, ip, userAgent)
	fields := logrus.Fields{"dealer_id": dealer.ID, "link_hash": dealer.LinkHash}

	err := r.primary.Create(ctx, visit)
	metrics.RecordVisit("primary", err)
	if err != nil {
		r.log.WithFields(fields).WithError(err).Error("Failed to save visit log")
	}

	if r.secondary != nil {
		sideCtx, cancel := context.WithTimeout(ctx, r.sideTimeout)
		err := r.secondary.Record(sideCtx, visit)
		cancel()
		metrics.RecordVisit(r.secondary.Name(), err)
		if err != nil {
			r.log.WithFields(fields).WithError(err).Warn("Failed to save visit log to secondary store")
		}
	}

	if r.publisher != nil {
		if err := r.publisher.Publish(*visit); err != nil {
			r.log.WithFields(fields).WithError(err).Warn("Visit event not published")
		}
	}
	return visit
}

// Stats reads the dealer's visits from the primary store, falling back to the
// secondary store when the primary read fails.
func (r *Recorder) Stats(ctx context.Context, dealerID uint) (*Stats, error) {
	visits, err := r.primary.ListByDealer(ctx, dealerID)
	if err == nil {
		return newStats(dealerID, int64(len(visits)), visits), nil
	}

	r.log.WithField("dealer_id", dealerID).WithError(err).Warn("Failed to read visits from primary store")
	if r.secondary == nil {
		return nil, utils.Internal("Failed to load visit statistics", err)
	}

	sideCtx, cancel := context.WithTimeout(ctx, r.sideTimeout)
	defer cancel()
	stats, sideErr := r.secondary.Stats(sideCtx, dealerID)
	if sideErr != nil {
		return nil, utils.Internal("Failed to load visit statistics", sideErr)
	}
	return stats, nil
}
