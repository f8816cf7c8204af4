package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/liamreece/leasepoint-backend/pkg/db/models"
	"github.com/liamreece/leasepoint-backend/pkg/enums"
)

type fakeRepository struct {
	createFn func(ctx context.Context, txn *models.Transaction) error
	findFn   func(ctx context.Context, bookingID uuid.UUID, txType enums.TransactionType) (*models.Transaction, error)
	existsFn func(ctx context.Context, paymentIntentID string) (bool, error)
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) Create(ctx context.Context, txn *models.Transaction) error {
	if f.createFn != nil {
		return f.createFn(ctx, txn)
	}
	return nil
}

func (f *fakeRepository) FindByBookingAndType(ctx context.Context, bookingID uuid.UUID, txType enums.TransactionType) (*models.Transaction, error) {
	if f.findFn != nil {
		return f.findFn(ctx, bookingID, txType)
	}
	return nil, nil
}

func (f *fakeRepository) ListByBookingID(ctx context.Context, bookingID uuid.UUID) ([]models.Transaction, error) {
	return nil, nil
}

func (f *fakeRepository) ExistsByPaymentIntent(ctx context.Context, paymentIntentID string) (bool, error) {
	if f.existsFn != nil {
		return f.existsFn(ctx, paymentIntentID)
	}
	return false, nil
}

func testBooking() *models.Booking {
	return &models.Booking{
		ID:            uuid.New(),
		BookingNumber: "BK-20260101-0042",
		TotalAmount:   decimal.RequireFromString("550.00"),
		GSTAmount:     decimal.RequireFromString("50.00"),
		GSTPercentage: decimal.RequireFromString("10.00"),
		OwnerAmount:   decimal.RequireFromString("495.00"),
		PlatformFee:   decimal.RequireFromString("55.00"),
	}
}

func TestRecordCaptureMirrorsBookingAmounts(t *testing.T) {
	booking := testBooking()
	ownerID := uuid.New()

	var created *models.Transaction
	repo := &fakeRepository{
		createFn: func(ctx context.Context, txn *models.Transaction) error {
			created = txn
			return nil
		},
	}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	got, err := svc.RecordCapture(context.Background(), booking, ownerID, "pi_123")
	if err != nil {
		t.Fatalf("RecordCapture: %v", err)
	}
	if created == nil {
		t.Fatal("expected transaction to be created")
	}
	if created.Type != enums.TransactionTypeBooking {
		t.Fatalf("expected booking type, got %s", created.Type)
	}
	if !created.Amount.Equal(booking.TotalAmount) || !created.GSTAmount.Equal(booking.GSTAmount) {
		t.Fatalf("amounts not mirrored: %+v", created)
	}
	if created.OwnerID != ownerID {
		t.Fatalf("owner mismatch: %s", created.OwnerID)
	}
	if created.StripePaymentIntentID == nil || *created.StripePaymentIntentID != "pi_123" {
		t.Fatalf("payment intent not recorded: %+v", created.StripePaymentIntentID)
	}
	if got != created {
		t.Fatal("service should return the created transaction")
	}
}

func TestRecordCaptureDuplicateIntent(t *testing.T) {
	repo := &fakeRepository{
		createFn: func(ctx context.Context, txn *models.Transaction) error {
			return errors.New(`duplicate key value violates unique constraint "ux_transactions_payment_intent"`)
		},
	}
	svc, _ := NewService(repo)

	_, err := svc.RecordCapture(context.Background(), testBooking(), uuid.New(), "pi_dup")
	if !errors.Is(err, ErrDuplicateCapture) {
		t.Fatalf("expected ErrDuplicateCapture, got %v", err)
	}
}

func TestRecordReversalNegatesEveryAmount(t *testing.T) {
	booking := testBooking()
	original := &models.Transaction{
		ID:            uuid.New(),
		BookingID:     booking.ID,
		OwnerID:       uuid.New(),
		Type:          enums.TransactionTypeBooking,
		Amount:        booking.TotalAmount,
		GSTAmount:     booking.GSTAmount,
		GSTPercentage: booking.GSTPercentage,
		OwnerAmount:   booking.OwnerAmount,
		PlatformFee:   booking.PlatformFee,
	}

	var created *models.Transaction
	repo := &fakeRepository{
		findFn: func(ctx context.Context, bookingID uuid.UUID, txType enums.TransactionType) (*models.Transaction, error) {
			if txType != enums.TransactionTypeBooking {
				t.Fatalf("expected lookup for booking transaction, got %s", txType)
			}
			return original, nil
		},
		createFn: func(ctx context.Context, txn *models.Transaction) error {
			created = txn
			return nil
		},
	}
	svc, _ := NewService(repo)

	reversal, err := svc.RecordReversal(context.Background(), booking)
	if err != nil {
		t.Fatalf("RecordReversal: %v", err)
	}
	if reversal == nil || created == nil {
		t.Fatal("expected reversal transaction")
	}
	if created.Type != enums.TransactionTypeCancellation {
		t.Fatalf("expected cancellation type, got %s", created.Type)
	}

	// the booking's ledger must sum to zero after the reversal
	zero := decimal.Zero
	if !original.Amount.Add(created.Amount).Equal(zero) {
		t.Fatalf("amount does not zero out: %s", original.Amount.Add(created.Amount))
	}
	if !original.GSTAmount.Add(created.GSTAmount).Equal(zero) {
		t.Fatalf("gst does not zero out: %s", original.GSTAmount.Add(created.GSTAmount))
	}
	if !original.OwnerAmount.Add(created.OwnerAmount).Equal(zero) {
		t.Fatalf("owner amount does not zero out: %s", original.OwnerAmount.Add(created.OwnerAmount))
	}
	if !original.PlatformFee.Add(created.PlatformFee).Equal(zero) {
		t.Fatalf("platform fee does not zero out: %s", original.PlatformFee.Add(created.PlatformFee))
	}
	if !created.GSTPercentage.Equal(original.GSTPercentage) {
		t.Fatalf("gst percentage should carry over unchanged, got %s", created.GSTPercentage)
	}

	if created.CreditNoteNumber == nil || *created.CreditNoteNumber != "CN-BK-20260101-0042" {
		t.Fatalf("unexpected credit note number: %v", created.CreditNoteNumber)
	}
	if created.Remitted {
		t.Fatal("reversal must not be marked remitted")
	}
}

func TestRecordReversalWithoutCapture(t *testing.T) {
	repo := &fakeRepository{
		findFn: func(ctx context.Context, bookingID uuid.UUID, txType enums.TransactionType) (*models.Transaction, error) {
			return nil, nil
		},
		createFn: func(ctx context.Context, txn *models.Transaction) error {
			t.Fatal("no reversal should be created without an original capture")
			return nil
		},
	}
	svc, _ := NewService(repo)

	reversal, err := svc.RecordReversal(context.Background(), testBooking())
	if err != nil {
		t.Fatalf("RecordReversal: %v", err)
	}
	if reversal != nil {
		t.Fatalf("expected nil reversal, got %+v", reversal)
	}
}

func TestHasCaptureForIntentRequiresID(t *testing.T) {
	svc, _ := NewService(&fakeRepository{})
	if _, err := svc.HasCaptureForIntent(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty payment intent id")
	}
}
