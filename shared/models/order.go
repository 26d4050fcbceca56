package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// OrderStatus represents the production state of an order
type OrderStatus string

const (
	OrderStatusPending      OrderStatus = "Pending"
	OrderStatusConfirmed    OrderStatus = "Confirmed"
	OrderStatusInProduction OrderStatus = "In Production"
	OrderStatusShipped      OrderStatus = "Shipped"
	OrderStatusCancelled    OrderStatus = "Cancelled"
)

var orderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusInProduction,
	OrderStatusShipped,
	OrderStatusCancelled,
}

// ParseOrderStatus accepts the canonical spelling as well as the
// space-less variant ("InProduction").
func ParseOrderStatus(s string) (OrderStatus, bool) {
	for _, st := range orderStatuses {
		if matchStatus(string(st), s) {
			return st, true
		}
	}
	return "", false
}

// Configuration is the frame/lens configuration produced by the configurator.
// It is kept as raw JSON.
type Configuration json.RawMessage

// Value implements driver.Valuer
func (c Configuration) Value() (driver.Value, error) {
	if len(c) == 0 {
		return nil, nil
	}
	return string(c), nil
}

// Scan implements sql.Scanner
func (c *Configuration) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*c = nil
	case []byte:
		*c = append((*c)[:0], v...)
	case string:
		*c = Configuration(v)
	default:
		return fmt.Errorf("unsupported configuration type %T", src)
	}
	return nil
}

func (c Configuration) MarshalJSON() ([]byte, error) {
	if len(c) == 0 {
		return []byte("null"), nil
	}
	return c, nil
}

func (c *Configuration) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*c = nil
		return nil
	}
	*c = append((*c)[:0], data...)
	return nil
}

// Order is a configured eyewear order placed for a dealer
type Order struct {
	ID            uint          `json:"id" gorm:"primaryKey"`
	DealerID      uint          `json:"dealerId" gorm:"not null;index"`
	CustomerName  string        `json:"customerName" gorm:"type:varchar(255)"`
	Configuration Configuration `json:"configuration" gorm:"type:text"`
	Status        OrderStatus   `json:"status" gorm:"type:varchar(50);default:Pending"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

func (Order) TableName() string {
	return "orders"
}

// TenantID returns the owning dealer
func (o *Order) TenantID() uint {
	return o.DealerID
}

func matchStatus(canonical, given string) bool {
	given = strings.TrimSpace(given)
	if strings.EqualFold(canonical, given) {
		return true
	}
	return strings.EqualFold(strings.ReplaceAll(canonical, " ", ""), given)
}
