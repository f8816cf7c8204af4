package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/liamreece/leasepoint-backend/pkg/enums"
)

// Asset is a leasable space inside a centre: a casual leasing site, a vacant
// shop, or a third-line income asset (vending, media, ATMs).
type Asset struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CentreID    uuid.UUID       `gorm:"column:centre_id;type:uuid;not null;index"`
	Kind        enums.AssetKind `gorm:"column:kind;type:asset_kind;not null;default:'site'"`
	Label       string          `gorm:"column:label;not null"`
	Description *string         `gorm:"column:description"`
	WeeklyRate  decimal.Decimal `gorm:"column:weekly_rate;type:numeric(12,2);not null"`
	Active      bool            `gorm:"column:active;not null;default:true"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
