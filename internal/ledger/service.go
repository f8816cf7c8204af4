package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbpkg "github.com/liamreece/leasepoint-backend/pkg/db"
	"github.com/liamreece/leasepoint-backend/pkg/db/models"
	"github.com/liamreece/leasepoint-backend/pkg/enums"
)

// ErrDuplicateCapture is returned when a capture for the same payment intent
// was already ledgered.
var ErrDuplicateCapture = fmt.Errorf("capture already recorded for payment intent")

// Service records money-movement events against bookings.
type Service interface {
	WithTx(tx *gorm.DB) Service
	RecordCapture(ctx context.Context, booking *models.Booking, ownerID uuid.UUID, paymentIntentID string) (*models.Transaction, error)
	RecordReversal(ctx context.Context, booking *models.Booking) (*models.Transaction, error)
	FindCapture(ctx context.Context, bookingID uuid.UUID) (*models.Transaction, error)
	HasCaptureForIntent(ctx context.Context, paymentIntentID string) (bool, error)
}

type service struct {
	repo Repository
}

// NewService wires a ledger service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) WithTx(tx *gorm.DB) Service {
	if tx == nil {
		return s
	}
	return &service{repo: s.repo.WithTx(tx)}
}

// RecordCapture inserts the booking-type transaction mirroring the booking's
// monetary fields. The partial unique index on the payment intent column makes
// duplicate webhook deliveries surface as ErrDuplicateCapture.
func (s *service) RecordCapture(ctx context.Context, booking *models.Booking, ownerID uuid.UUID, paymentIntentID string) (*models.Transaction, error) {
	if booking == nil {
		return nil, fmt.Errorf("booking is required")
	}
	if ownerID == uuid.Nil {
		return nil, fmt.Errorf("owner id is required")
	}

	txn := &models.Transaction{
		BookingID:     booking.ID,
		OwnerID:       ownerID,
		Type:          enums.TransactionTypeBooking,
		Amount:        booking.TotalAmount,
		GSTAmount:     booking.GSTAmount,
		GSTPercentage: booking.GSTPercentage,
		OwnerAmount:   booking.OwnerAmount,
		PlatformFee:   booking.PlatformFee,
		Remitted:      false,
	}
	if paymentIntentID != "" {
		txn.StripePaymentIntentID = &paymentIntentID
	}

	if err := s.repo.Create(ctx, txn); err != nil {
		if dbpkg.IsUniqueViolation(err, "ux_transactions_payment_intent") {
			return nil, ErrDuplicateCapture
		}
		return nil, err
	}
	return txn, nil
}

// RecordReversal negates every monetary field of the original capture so the
// booking's ledger sums to zero, tagging the row with a credit note number.
// Returns (nil, nil) when no original capture exists.
func (s *service) RecordReversal(ctx context.Context, booking *models.Booking) (*models.Transaction, error) {
	if booking == nil {
		return nil, fmt.Errorf("booking is required")
	}

	original, err := s.repo.FindByBookingAndType(ctx, booking.ID, enums.TransactionTypeBooking)
	if err != nil {
		return nil, err
	}
	if original == nil {
		return nil, nil
	}

	creditNote := fmt.Sprintf("CN-%s", booking.BookingNumber)
	reversal := &models.Transaction{
		BookingID:        booking.ID,
		OwnerID:          original.OwnerID,
		Type:             enums.TransactionTypeCancellation,
		Amount:           original.Amount.Neg(),
		GSTAmount:        original.GSTAmount.Neg(),
		GSTPercentage:    original.GSTPercentage,
		OwnerAmount:      original.OwnerAmount.Neg(),
		PlatformFee:      original.PlatformFee.Neg(),
		Remitted:         false,
		CreditNoteNumber: &creditNote,
	}

	if err := s.repo.Create(ctx, reversal); err != nil {
		return nil, err
	}
	return reversal, nil
}

func (s *service) FindCapture(ctx context.Context, bookingID uuid.UUID) (*models.Transaction, error) {
	if bookingID == uuid.Nil {
		return nil, fmt.Errorf("booking id is required")
	}
	return s.repo.FindByBookingAndType(ctx, bookingID, enums.TransactionTypeBooking)
}

func (s *service) HasCaptureForIntent(ctx context.Context, paymentIntentID string) (bool, error) {
	if paymentIntentID == "" {
		return false, fmt.Errorf("payment intent id is required")
	}
	return s.repo.ExistsByPaymentIntent(ctx, paymentIntentID)
}
