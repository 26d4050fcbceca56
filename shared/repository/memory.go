package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pavitra93/dealer-management-api/shared/models"
)

// MemoryStore is a non-persistent store for development and tests. Each
// instance owns its data; nothing is shared between instances.
type MemoryStore struct {
	mu           sync.RWMutex
	users        map[uint]models.User
	dealers      map[uint]models.Dealer
	orders       map[uint]models.Order
	appointments map[uint]models.Appointment
	visits       []models.VisitLog
	lastID       uint
}

// NewMemoryStore returns an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:        make(map[uint]models.User),
		dealers:      make(map[uint]models.Dealer),
		orders:       make(map[uint]models.Order),
		appointments: make(map[uint]models.Appointment),
	}
}

// Store exposes the memory store through the repository contracts
func (m *MemoryStore) Store() *Store {
	return &Store{
		Users:        memoryUsers{m},
		Dealers:      memoryDealers{m},
		Orders:       memoryOrders{m},
		Appointments: memoryAppointments{m},
		Visits:       memoryVisits{m},
	}
}

// assignID keeps ids unique across tables, honouring preset ids from seeds.
func (m *MemoryStore) assignID(id *uint) {
	if *id == 0 {
		m.lastID++
		*id = m.lastID
		return
	}
	if *id > m.lastID {
		m.lastID = *id
	}
}

func stamp(created, updated *time.Time) {
	now := time.Now().UTC()
	if created.IsZero() {
		*created = now
	}
	*updated = now
}

type memoryUsers struct{ m *MemoryStore }

func (r memoryUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	for _, u := range r.m.users {
		if strings.EqualFold(u.Email, strings.TrimSpace(email)) {
			u.NormalizeRole()
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (r memoryUsers) FindByID(_ context.Context, id uint) (*models.User, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	u, ok := r.m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	u.NormalizeRole()
	return &u, nil
}

func (r memoryUsers) Create(_ context.Context, user *models.User) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, u := range r.m.users {
		if strings.EqualFold(u.Email, user.Email) {
			return ErrDuplicate
		}
	}
	r.m.assignID(&user.ID)
	stamp(&user.CreatedAt, &user.UpdatedAt)
	r.m.users[user.ID] = *user
	return nil
}

func (r memoryUsers) UpdatePassword(_ context.Context, id uint, secret string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	u, ok := r.m.users[id]
	if !ok {
		return ErrNotFound
	}
	u.PasswordHash = secret
	u.UpdatedAt = time.Now().UTC()
	r.m.users[id] = u
	return nil
}

type memoryDealers struct{ m *MemoryStore }

func (r memoryDealers) List(_ context.Context) ([]models.Dealer, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	dealers := make([]models.Dealer, 0, len(r.m.dealers))
	for _, d := range r.m.dealers {
		dealers = append(dealers, d)
	}
	sort.Slice(dealers, func(i, j int) bool { return dealers[i].ID < dealers[j].ID })
	return dealers, nil
}

func (r memoryDealers) FindByID(_ context.Context, id uint) (*models.Dealer, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	d, ok := r.m.dealers[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &d, nil
}

func (r memoryDealers) FindByLinkHash(_ context.Context, linkHash string) (*models.Dealer, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	for _, d := range r.m.dealers {
		if d.LinkHash == linkHash {
			return &d, nil
		}
	}
	return nil, ErrNotFound
}

func (r memoryDealers) Create(_ context.Context, dealer *models.Dealer) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, d := range r.m.dealers {
		if d.LinkHash == dealer.LinkHash {
			return ErrDuplicate
		}
	}
	r.m.assignID(&dealer.ID)
	stamp(&dealer.CreatedAt, &dealer.UpdatedAt)
	r.m.dealers[dealer.ID] = *dealer
	return nil
}

type memoryOrders struct{ m *MemoryStore }

func (r memoryOrders) ListAll(_ context.Context) ([]models.Order, error) {
	return r.list(func(models.Order) bool { return true }), nil
}

func (r memoryOrders) ListByDealer(_ context.Context, dealerID uint) ([]models.Order, error) {
	return r.list(func(o models.Order) bool { return o.DealerID == dealerID }), nil
}

func (r memoryOrders) list(keep func(models.Order) bool) []models.Order {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	orders := []models.Order{}
	for _, o := range r.m.orders {
		if keep(o) {
			orders = append(orders, o)
		}
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].ID > orders[j].ID })
	return orders
}

func (r memoryOrders) FindByID(_ context.Context, id uint) (*models.Order, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	o, ok := r.m.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &o, nil
}

func (r memoryOrders) Create(_ context.Context, order *models.Order) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if order.Status == "" {
		order.Status = models.OrderStatusPending
	}
	r.m.assignID(&order.ID)
	stamp(&order.CreatedAt, &order.UpdatedAt)
	r.m.orders[order.ID] = *order
	return nil
}

func (r memoryOrders) UpdateStatus(_ context.Context, id uint, status models.OrderStatus) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	o, ok := r.m.orders[id]
	if !ok {
		return ErrNotFound
	}
	o.Status = status
	o.UpdatedAt = time.Now().UTC()
	r.m.orders[id] = o
	return nil
}

type memoryAppointments struct{ m *MemoryStore }

func (r memoryAppointments) ListAll(_ context.Context) ([]models.Appointment, error) {
	return r.list(func(models.Appointment) bool { return true }), nil
}

func (r memoryAppointments) ListByDealer(_ context.Context, dealerID uint) ([]models.Appointment, error) {
	return r.list(func(a models.Appointment) bool { return a.DealerID == dealerID }), nil
}

func (r memoryAppointments) list(keep func(models.Appointment) bool) []models.Appointment {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	appointments := []models.Appointment{}
	for _, a := range r.m.appointments {
		if keep(a) {
			appointments = append(appointments, a)
		}
	}
	sort.Slice(appointments, func(i, j int) bool {
		return appointments[i].AppointmentDate.After(appointments[j].AppointmentDate)
	})
	return appointments
}

func (r memoryAppointments) FindByID(_ context.Context, id uint) (*models.Appointment, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	a, ok := r.m.appointments[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &a, nil
}

func (r memoryAppointments) Create(_ context.Context, appointment *models.Appointment) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if appointment.Status == "" {
		appointment.Status = models.AppointmentStatusScheduled
	}
	r.m.assignID(&appointment.ID)
	stamp(&appointment.CreatedAt, &appointment.UpdatedAt)
	r.m.appointments[appointment.ID] = *appointment
	return nil
}

func (r memoryAppointments) UpdateStatus(_ context.Context, id uint, status models.AppointmentStatus) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	a, ok := r.m.appointments[id]
	if !ok {
		return ErrNotFound
	}
	a.Status = status
	a.UpdatedAt = time.Now().UTC()
	r.m.appointments[id] = a
	return nil
}

type memoryVisits struct{ m *MemoryStore }

func (r memoryVisits) Create(_ context.Context, visit *models.VisitLog) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.visits = append(r.m.visits, *visit)
	return nil
}

func (r memoryVisits) ListByDealer(_ context.Context, dealerID uint) ([]models.VisitLog, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	visits := []models.VisitLog{}
	for _, v := range r.m.visits {
		if v.DealerID == dealerID {
			visits = append(visits, v)
		}
	}
	return visits, nil
}
