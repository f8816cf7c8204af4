package models

import (
	"time"

	"github.com/google/uuid"
)

// Customer is the person or business booking a space.
type Customer struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	FirstName string    `gorm:"column:first_name;not null"`
	LastName  string    `gorm:"column:last_name;not null"`
	Email     string    `gorm:"column:email;not null"`
	Phone     *string   `gorm:"column:phone"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// FullName renders the customer's display name.
func (c Customer) FullName() string {
	return c.FirstName + " " + c.LastName
}

// CustomerProfile carries the optional company details attached to a customer.
type CustomerProfile struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID  uuid.UUID `gorm:"column:customer_id;type:uuid;not null;uniqueIndex"`
	CompanyName *string   `gorm:"column:company_name"`
	TradingName *string   `gorm:"column:trading_name"`
	ABN         *string   `gorm:"column:abn"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
