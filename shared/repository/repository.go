// Package repository holds the storage contracts consumed by the API and
// their Postgres (GORM) and in-memory adapters.
package repository

import (
	"context"
	"errors"

	"github.com/pavitra93/dealer-management-api/shared/models"
)

var (
	// ErrNotFound is returned when a record does not exist
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique field is already taken
	ErrDuplicate = errors.New("duplicate record")
)

type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uint) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, id uint, secret string) error
}

type DealerRepository interface {
	List(ctx context.Context) ([]models.Dealer, error)
	FindByID(ctx context.Context, id uint) (*models.Dealer, error)
	FindByLinkHash(ctx context.Context, linkHash string) (*models.Dealer, error)
	Create(ctx context.Context, dealer *models.Dealer) error
}

type OrderRepository interface {
	ListAll(ctx context.Context) ([]models.Order, error)
	ListByDealer(ctx context.Context, dealerID uint) ([]models.Order, error)
	FindByID(ctx context.Context, id uint) (*models.Order, error)
	Create(ctx context.Context, order *models.Order) error
	UpdateStatus(ctx context.Context, id uint, status models.OrderStatus) error
}

type AppointmentRepository interface {
	ListAll(ctx context.Context) ([]models.Appointment, error)
	ListByDealer(ctx context.Context, dealerID uint) ([]models.Appointment, error)
	FindByID(ctx context.Context, id uint) (*models.Appointment, error)
	Create(ctx context.Context, appointment *models.Appointment) error
	UpdateStatus(ctx context.Context, id uint, status models.AppointmentStatus) error
}

type VisitLogRepository interface {
	Create(ctx context.Context, visit *models.VisitLog) error
	ListByDealer(ctx context.Context, dealerID uint) ([]models.VisitLog, error)
}

// Store bundles every repository the API needs
type Store struct {
	Users        UserRepository
	Dealers      DealerRepository
	Orders       OrderRepository
	Appointments AppointmentRepository
	Visits       VisitLogRepository
}
