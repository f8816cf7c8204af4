package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/liamreece/leasepoint-backend/pkg/enums"
)

// Transaction records one immutable money-movement event tied to a booking.
// A cancellation entry negates every monetary field of the original booking
// entry so a fully reversed booking sums to zero.
type Transaction struct {
	ID                    uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BookingID             uuid.UUID             `gorm:"column:booking_id;type:uuid;not null"`
	OwnerID               uuid.UUID             `gorm:"column:owner_id;type:uuid;not null"`
	Type                  enums.TransactionType `gorm:"column:type;type:transaction_type;not null"`
	Amount                decimal.Decimal       `gorm:"column:amount;type:numeric(12,2);not null"`
	GSTAmount             decimal.Decimal       `gorm:"column:gst_amount;type:numeric(12,2);not null"`
	GSTPercentage         decimal.Decimal       `gorm:"column:gst_percentage;type:numeric(5,2);not null"`
	OwnerAmount           decimal.Decimal       `gorm:"column:owner_amount;type:numeric(12,2);not null"`
	PlatformFee           decimal.Decimal       `gorm:"column:platform_fee;type:numeric(12,2);not null"`
	Remitted              bool                  `gorm:"column:remitted;not null;default:false"`
	CreditNoteNumber      *string               `gorm:"column:credit_note_number"`
	StripePaymentIntentID *string               `gorm:"column:stripe_payment_intent_id;uniqueIndex:ux_transactions_payment_intent"`
	CreatedAt             time.Time             `gorm:"column:created_at;autoCreateTime"`
}
