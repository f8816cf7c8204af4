package stripewebhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/liamreece/leasepoint-backend/internal/assets"
	"github.com/liamreece/leasepoint-backend/internal/bookings"
	"github.com/liamreece/leasepoint-backend/internal/customers"
	"github.com/liamreece/leasepoint-backend/internal/history"
	"github.com/liamreece/leasepoint-backend/internal/ledger"
	"github.com/liamreece/leasepoint-backend/pkg/db/models"
	"github.com/liamreece/leasepoint-backend/pkg/enums"
	pkgerrors "github.com/liamreece/leasepoint-backend/pkg/errors"
	"github.com/liamreece/leasepoint-backend/pkg/logger"
	"github.com/liamreece/leasepoint-backend/pkg/outbox"
	"github.com/liamreece/leasepoint-backend/pkg/outbox/payloads"
)

// gatewayActorName labels system-initiated status transitions in the history.
const gatewayActorName = "Stripe Payment"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// ServiceParams carries the reconciler's collaborators.
type ServiceParams struct {
	Bookings  bookings.Repository
	Assets    assets.Repository
	Customers customers.Repository
	History   history.Repository
	Ledger    ledger.Service
	Outbox    outboxPublisher
	Tx        txRunner
	Logger    *logger.Logger
	Now       func() time.Time
}

// Service reconciles asynchronous checkout payment events against bookings.
// Delivery is at-least-once: malformed or stale events are logged and dropped,
// never surfaced as handler failures.
type Service struct {
	bookings  bookings.Repository
	assets    assets.Repository
	customers customers.Repository
	history   history.Repository
	ledger    ledger.Service
	outbox    outboxPublisher
	tx        txRunner
	logg      *logger.Logger
	now       func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Bookings == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "booking repo required")
	}
	if params.Assets == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "asset repo required")
	}
	if params.Customers == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "customer repo required")
	}
	if params.History == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "history repo required")
	}
	if params.Ledger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "ledger service required")
	}
	if params.Outbox == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "outbox publisher required")
	}
	if params.Tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		bookings:  params.Bookings,
		assets:    params.Assets,
		customers: params.Customers,
		history:   params.History,
		ledger:    params.Ledger,
		outbox:    params.Outbox,
		tx:        params.Tx,
		logg:      params.Logger,
		now:       now,
	}, nil
}

// HandleEvent dispatches supported Stripe events. Unknown event types are
// acknowledged without work.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			s.logg.Error(ctx, "checkout session decode failed, dropping event", err)
			return nil
		}
		return s.reconcileCheckout(ctx, &session)
	default:
		return nil
	}
}

// reconcileCheckout applies one completed checkout to its booking: payment
// fields set exactly once, status advanced pending->confirmed only, one
// history row for the actual transition, one ledger capture, and a durable
// invoice dispatch row. All inside one transaction.
func (s *Service) reconcileCheckout(ctx context.Context, session *stripe.CheckoutSession) error {
	bookingID, ok := s.bookingIDFromMetadata(ctx, session)
	if !ok {
		return nil
	}

	paymentIntentID := ""
	if session.PaymentIntent != nil {
		paymentIntentID = session.PaymentIntent.ID
	}
	if paymentIntentID == "" {
		s.logg.Warn(s.logg.WithBookingID(ctx, bookingID.String()), "checkout session has no payment intent, dropping event")
		return nil
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"booking_id":     bookingID.String(),
		"payment_intent": paymentIntentID,
	})
	now := s.now()

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.bookings.WithTx(tx)
		ledgerSvc := s.ledger.WithTx(tx)

		booking, err := repo.Find(ctx, bookingID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load booking")
		}
		if booking == nil {
			s.logg.Warn(logCtx, "booking not found for checkout event, dropping")
			return nil
		}

		// Ledger-level dedupe: a replayed event whose capture already exists
		// must not produce a second transaction.
		captured, err := ledgerSvc.HasCaptureForIntent(ctx, paymentIntentID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing capture")
		}
		if captured {
			s.logg.Info(logCtx, "payment intent already ledgered, dropping duplicate event")
			return nil
		}

		if _, err := repo.MarkPaid(ctx, booking.ID, now, paymentIntentID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark booking paid")
		}

		// Advance pending->confirmed only. A booking confirmed earlier by an
		// administrator keeps its status and gets no duplicate history row.
		statusChanged, err := repo.TransitionStatus(ctx, booking.ID, enums.BookingStatusPending, enums.BookingStatusConfirmed, nil)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "confirm booking")
		}
		if statusChanged {
			if err := s.history.WithTx(tx).Append(ctx, &models.BookingStatusHistory{
				BookingID:      booking.ID,
				PreviousStatus: enums.BookingStatusPending,
				NewStatus:      enums.BookingStatusConfirmed,
				ChangedByName:  gatewayActorName,
			}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append status history")
			}
		}

		owner, err := s.assets.WithTx(tx).OwnerOfAsset(ctx, booking.AssetID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve asset owner")
		}
		if owner == nil {
			s.logg.Warn(logCtx, "asset owner chain unresolved, skipping ledger capture")
			return nil
		}

		if _, err := ledgerSvc.RecordCapture(ctx, booking, owner.ID, paymentIntentID); err != nil {
			if errors.Is(err, ledger.ErrDuplicateCapture) {
				s.logg.Info(logCtx, "capture already recorded, skipping")
				return nil
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record ledger capture")
		}

		return s.queueInvoiceDispatch(ctx, tx, booking, now)
	})
}

func (s *Service) bookingIDFromMetadata(ctx context.Context, session *stripe.CheckoutSession) (uuid.UUID, bool) {
	raw := session.Metadata["bookingId"]
	if raw == "" {
		s.logg.Warn(ctx, "checkout session metadata has no bookingId, dropping event")
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		s.logg.Error(ctx, fmt.Sprintf("malformed bookingId %q in checkout metadata, dropping event", raw), err)
		return uuid.Nil, false
	}
	return id, true
}

// queueInvoiceDispatch writes the outbox row inside the payment transaction so
// the invoice email survives a crash between commit and dispatch.
func (s *Service) queueInvoiceDispatch(ctx context.Context, tx *gorm.DB, booking *models.Booking, paidAt time.Time) error {
	customer, err := s.customers.WithTx(tx).Find(ctx, booking.CustomerID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
	}
	if customer == nil {
		s.logg.Warn(s.logg.WithBookingID(ctx, booking.ID.String()), "customer not found, skipping invoice dispatch")
		return nil
	}

	return s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventBookingInvoiceRequested,
		AggregateType: enums.AggregateBooking,
		AggregateID:   booking.ID,
		Version:       1,
		Data: payloads.InvoiceRequestedEvent{
			BookingID:     booking.ID,
			BookingNumber: booking.BookingNumber,
			AssetKind:     booking.AssetKind,
			CustomerID:    customer.ID,
			CustomerEmail: customer.Email,
			CustomerName:  customer.FullName(),
			TotalAmount:   booking.TotalAmount,
			GSTAmount:     booking.GSTAmount,
			PaidAt:        paidAt,
		},
	})
}
