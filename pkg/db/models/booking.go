package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/liamreece/leasepoint-backend/pkg/enums"
)

// Booking represents a reservation of one leasable asset for a date range.
// Bookings are never physically deleted; cancellation is a status transition.
type Booking struct {
	ID                    uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BookingNumber         string              `gorm:"column:booking_number;not null;uniqueIndex"`
	AssetID               uuid.UUID           `gorm:"column:asset_id;type:uuid;not null"`
	AssetKind             enums.AssetKind     `gorm:"column:asset_kind;type:asset_kind;not null;default:'site'"`
	CustomerID            uuid.UUID           `gorm:"column:customer_id;type:uuid;not null"`
	StartDate             time.Time           `gorm:"column:start_date;type:date;not null"`
	EndDate               time.Time           `gorm:"column:end_date;type:date;not null"`
	Status                enums.BookingStatus `gorm:"column:status;type:booking_status;not null;default:'pending'"`
	TotalAmount           decimal.Decimal     `gorm:"column:total_amount;type:numeric(12,2);not null"`
	GSTAmount             decimal.Decimal     `gorm:"column:gst_amount;type:numeric(12,2);not null"`
	GSTPercentage         decimal.Decimal     `gorm:"column:gst_percentage;type:numeric(5,2);not null"`
	OwnerAmount           decimal.Decimal     `gorm:"column:owner_amount;type:numeric(12,2);not null"`
	PlatformFee           decimal.Decimal     `gorm:"column:platform_fee;type:numeric(12,2);not null"`
	PaymentMethod         enums.PaymentMethod `gorm:"column:payment_method;type:payment_method;not null;default:'invoice'"`
	PaidAt                *time.Time          `gorm:"column:paid_at"`
	StripePaymentIntentID *string             `gorm:"column:stripe_payment_intent_id"`
	RefundStatus          *enums.RefundStatus `gorm:"column:refund_status;type:refund_status"`
	RefundPendingAt       *time.Time          `gorm:"column:refund_pending_at"`
	CancelledAt           *time.Time          `gorm:"column:cancelled_at"`
	AdminComments         *string             `gorm:"column:admin_comments"`
	ApprovedAt            *time.Time          `gorm:"column:approved_at"`
	LastReminderSentAt    *time.Time          `gorm:"column:last_reminder_sent_at"`
	CreatedAt             time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
