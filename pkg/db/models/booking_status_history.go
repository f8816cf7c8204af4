package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/liamreece/leasepoint-backend/pkg/enums"
)

// BookingStatusHistory is the append-only audit of booking status transitions.
// ChangedByID is nil for system-initiated transitions (e.g. payment webhooks).
type BookingStatusHistory struct {
	ID             uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BookingID      uuid.UUID           `gorm:"column:booking_id;type:uuid;not null;index"`
	PreviousStatus enums.BookingStatus `gorm:"column:previous_status;type:booking_status;not null"`
	NewStatus      enums.BookingStatus `gorm:"column:new_status;type:booking_status;not null"`
	ChangedByID    *uuid.UUID          `gorm:"column:changed_by_id;type:uuid"`
	ChangedByName  string              `gorm:"column:changed_by_name;not null"`
	Reason         *string             `gorm:"column:reason"`
	CreatedAt      time.Time           `gorm:"column:created_at;autoCreateTime"`
}
