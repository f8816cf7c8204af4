package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/liamreece/leasepoint-backend/pkg/enums"
)

// InvoiceRequestedEvent asks the invoice worker to dispatch a tax invoice
// for a booking paid by card.
type InvoiceRequestedEvent struct {
	BookingID     uuid.UUID       `json:"booking_id"`
	BookingNumber string          `json:"booking_number"`
	AssetKind     enums.AssetKind `json:"asset_kind"`
	CustomerID    uuid.UUID       `json:"customer_id"`
	CustomerEmail string          `json:"customer_email"`
	CustomerName  string          `json:"customer_name"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	GSTAmount     decimal.Decimal `json:"gst_amount"`
	PaidAt        time.Time       `json:"paid_at"`
}

// BookingCancelledEvent is emitted when a cancellation workflow completes.
type BookingCancelledEvent struct {
	BookingID     uuid.UUID          `json:"booking_id"`
	BookingNumber string             `json:"booking_number"`
	AssetKind     enums.AssetKind    `json:"asset_kind"`
	CustomerID    uuid.UUID          `json:"customer_id"`
	RefundStatus  enums.RefundStatus `json:"refund_status"`
	CancelledAt   time.Time          `json:"cancelled_at"`
	Reason        string             `json:"reason,omitempty"`
}

// BookingConfirmedEvent is emitted when a checkout payment is reconciled.
type BookingConfirmedEvent struct {
	BookingID       uuid.UUID       `json:"booking_id"`
	BookingNumber   string          `json:"booking_number"`
	AssetKind       enums.AssetKind `json:"asset_kind"`
	CustomerID      uuid.UUID       `json:"customer_id"`
	PaymentIntentID string          `json:"payment_intent_id"`
	PaidAt          time.Time       `json:"paid_at"`
}
