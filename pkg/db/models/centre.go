package models

import (
	"time"

	"github.com/google/uuid"
)

// Centre is a shopping centre holding leasable assets.
type Centre struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerID   uuid.UUID `gorm:"column:owner_id;type:uuid;not null"`
	Name      string    `gorm:"column:name;not null"`
	Suburb    string    `gorm:"column:suburb;not null"`
	State     string    `gorm:"column:state;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
