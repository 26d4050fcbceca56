package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/pavitra93/dealer-management-api/shared/models"
)

// NewGormStore builds Postgres-backed repositories over one connection pool
func NewGormStore(db *gorm.DB) *Store {
	return &Store{
		Users:        &gormUserRepository{db: db},
		Dealers:      &gormDealerRepository{db: db},
		Orders:       &gormOrderRepository{db: db},
		Appointments: &gormAppointmentRepository{db: db},
		Visits:       &gormVisitLogRepository{db: db},
	}
}

// AutoMigrate creates or updates the tables used by the API
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Dealer{},
		&models.User{},
		&models.Order{},
		&models.Appointment{},
		&models.VisitLog{},
	)
}

func translate(err error, op string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

type gormUserRepository struct {
	db *gorm.DB
}

func (r *gormUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error; err != nil {
		return nil, translate(err, "find user by email")
	}
	return &user, nil
}

func (r *gormUserRepository) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, translate(err, "find user by id")
	}
	return &user, nil
}

func (r *gormUserRepository) Create(ctx context.Context, user *models.User) error {
	return translate(r.db.WithContext(ctx).Create(user).Error, "create user")
}

func (r *gormUserRepository) UpdatePassword(ctx context.Context, id uint, secret string) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("password_hash", secret)
	if res.Error != nil {
		return translate(res.Error, "update password")
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

type gormDealerRepository struct {
	db *gorm.DB
}

func (r *gormDealerRepository) List(ctx context.Context) ([]models.Dealer, error) {
	var dealers []models.Dealer
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&dealers).Error; err != nil {
		return nil, translate(err, "list dealers")
	}
	return dealers, nil
}

func (r *gormDealerRepository) FindByID(ctx context.Context, id uint) (*models.Dealer, error) {
	var dealer models.Dealer
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&dealer).Error; err != nil {
		return nil, translate(err, "find dealer")
	}
	return &dealer, nil
}

func (r *gormDealerRepository) FindByLinkHash(ctx context.Context, linkHash string) (*models.Dealer, error) {
	var dealer models.Dealer
	if err := r.db.WithContext(ctx).Where("link_hash = ?", linkHash).First(&dealer).Error; err != nil {
		return nil, translate(err, "find dealer by link hash")
	}
	return &dealer, nil
}

func (r *gormDealerRepository) Create(ctx context.Context, dealer *models.Dealer) error {
	return translate(r.db.WithContext(ctx).Create(dealer).Error, "create dealer")
}

type gormOrderRepository struct {
	db *gorm.DB
}

func (r *gormOrderRepository) ListAll(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, translate(err, "list orders")
	}
	return orders, nil
}

func (r *gormOrderRepository) ListByDealer(ctx context.Context, dealerID uint) ([]models.Order, error) {
	var orders []models.Order
	if err := r.db.WithContext(ctx).Where("dealer_id = ?", dealerID).Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, translate(err, "list dealer orders")
	}
	return orders, nil
}

func (r *gormOrderRepository) FindByID(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&order).Error; err != nil {
		return nil, translate(err, "find order")
	}
	return &order, nil
}

func (r *gormOrderRepository) Create(ctx context.Context, order *models.Order) error {
	if order.Status == "" {
		order.Status = models.OrderStatusPending
	}
	return translate(r.db.WithContext(ctx).Create(order).Error, "create order")
}

func (r *gormOrderRepository) UpdateStatus(ctx context.Context, id uint, status models.OrderStatus) error {
	res := r.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return translate(res.Error, "update order status")
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

type gormAppointmentRepository struct {
	db *gorm.DB
}

func (r *gormAppointmentRepository) ListAll(ctx context.Context) ([]models.Appointment, error) {
	var appointments []models.Appointment
	if err := r.db.WithContext(ctx).Order("appointment_date DESC").Find(&appointments).Error; err != nil {
		return nil, translate(err, "list appointments")
	}
	return appointments, nil
}

func (r *gormAppointmentRepository) ListByDealer(ctx context.Context, dealerID uint) ([]models.Appointment, error) {
	var appointments []models.Appointment
	err := r.db.WithContext(ctx).
		Where("dealer_id = ?", dealerID).
		Order("appointment_date DESC").
		Find(&appointments).Error
	if err != nil {
		return nil, translate(err, "list dealer appointments")
	}
	return appointments, nil
}

func (r *gormAppointmentRepository) FindByID(ctx context.Context, id uint) (*models.Appointment, error) {
	var appointment models.Appointment
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&appointment).Error; err != nil {
		return nil, translate(err, "find appointment")
	}
	return &appointment, nil
}

func (r *gormAppointmentRepository) Create(ctx context.Context, appointment *models.Appointment) error {
	if appointment.Status == "" {
		appointment.Status = models.AppointmentStatusScheduled
	}
	return translate(r.db.WithContext(ctx).Create(appointment).Error, "create appointment")
}

func (r *gormAppointmentRepository) UpdateStatus(ctx context.Context, id uint, status models.AppointmentStatus) error {
	res := r.db.WithContext(ctx).Model(&models.Appointment{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return translate(res.Error, "update appointment status")
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

type gormVisitLogRepository struct {
	db *gorm.DB
}

func (r *gormVisitLogRepository) Create(ctx context.Context, visit *models.VisitLog) error {
	return translate(r.db.WithContext(ctx).Create(visit).Error, "create visit log")
}

func (r *gormVisitLogRepository) ListByDealer(ctx context.Context, dealerID uint) ([]models.VisitLog, error) {
	var visits []models.VisitLog
	if err := r.db.WithContext(ctx).Where("dealer_id = ?", dealerID).Order("timestamp ASC").Find(&visits).Error; err != nil {
		return nil, translate(err, "list visit logs")
	}
	return visits, nil
}
