package bookings

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/liamreece/leasepoint-backend/internal/audit"
	"github.com/liamreece/leasepoint-backend/internal/notify"
	"github.com/liamreece/leasepoint-backend/pkg/db/models"
	"github.com/liamreece/leasepoint-backend/pkg/enums"
	pkgerrors "github.com/liamreece/leasepoint-backend/pkg/errors"
	"github.com/liamreece/leasepoint-backend/pkg/outbox"
	"github.com/liamreece/leasepoint-backend/pkg/outbox/payloads"
)

// cancelContext is everything step 1 loads before any mutation happens.
type cancelContext struct {
	booking  *models.Booking
	asset    *models.Asset
	centre   *models.Centre
	customer *models.Customer
	profile  *models.CustomerProfile
	admin    *models.User
}

// Cancel runs the cancellation workflow. Once the booking row commits as
// cancelled, every later step (history, ledger reversal, gateway refund,
// audit, email) is isolated: a failure is logged and the pipeline continues,
// never unwinding committed state.
func (s *service) Cancel(ctx context.Context, input CancelInput) (*CancelResult, error) {
	if input.BookingID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "booking id required")
	}
	if input.AdminUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "admin identity missing")
	}

	logCtx := s.logg.WithBookingID(ctx, input.BookingID.String())

	// Step 1: context load. Missing rows here are data integrity failures.
	cc, err := s.loadCancelContext(ctx, input)
	if err != nil {
		return nil, err
	}
	booking := cc.booking

	// Cancelling an already-cancelled booking short-circuits with the stored
	// refund outcome instead of failing.
	if booking.Status == enums.BookingStatusCancelled {
		refund := enums.RefundStatusNotRequired
		if booking.RefundStatus != nil {
			refund = *booking.RefundStatus
		}
		s.logg.Info(logCtx, "booking already cancelled, returning stored refund status")
		return &CancelResult{Success: true, BookingNumber: booking.BookingNumber, RefundStatus: refund}, nil
	}

	now := s.now()
	previousStatus := booking.Status

	// Step 2: refund status decision, evaluated before any mutation.
	refundStatus, refundPendingAt := determineRefundStatus(booking, input.PerformRefund, now)

	reason := input.Reason
	if reason == "" {
		reason = defaultCancelReason
	}

	// Step 3: the authoritative state transition. Commits on its own so later
	// step failures cannot roll it back.
	extra := map[string]any{
		"cancelled_at":      now,
		"refund_status":     refundStatus,
		"refund_pending_at": refundPendingAt,
		"admin_comments":    gorm.Expr("COALESCE(admin_comments || ?, ?)", "\n"+reason, reason),
	}
	ok, err := s.repo.TransitionStatus(ctx, booking.ID, previousStatus, enums.BookingStatusCancelled, extra)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel booking")
	}
	if !ok {
		// Lost a race. Re-read to distinguish an idempotent replay from a
		// genuine state conflict.
		current, readErr := s.repo.Find(ctx, booking.ID)
		if readErr == nil && current != nil && current.Status == enums.BookingStatusCancelled {
			refund := enums.RefundStatusNotRequired
			if current.RefundStatus != nil {
				refund = *current.RefundStatus
			}
			return &CancelResult{Success: true, BookingNumber: current.BookingNumber, RefundStatus: refund}, nil
		}
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "booking state changed during cancellation")
	}

	// Step 4: status history append.
	adminID := input.AdminUserID
	if err := s.history.Append(ctx, &models.BookingStatusHistory{
		BookingID:      booking.ID,
		PreviousStatus: previousStatus,
		NewStatus:      enums.BookingStatusCancelled,
		ChangedByID:    &adminID,
		ChangedByName:  cc.admin.FullName(),
		Reason:         &reason,
	}); err != nil {
		s.logg.Error(logCtx, "cancellation history append failed", err)
	}

	// Step 5: ledger reversal. A booking that was never ledgered is skipped
	// with a warning.
	reversal, err := s.ledger.RecordReversal(ctx, booking)
	if err != nil {
		s.logg.Error(logCtx, "ledger reversal failed", err)
	} else if reversal == nil {
		s.logg.Warn(logCtx, "no original booking transaction found, skipping ledger reversal")
	}

	// Step 6: gateway refund. Failure flags the refund for manual follow-up
	// and never touches the committed cancellation.
	finalRefundStatus := refundStatus
	if input.PerformRefund &&
		booking.PaymentMethod == enums.PaymentMethodCard &&
		booking.PaidAt != nil &&
		booking.StripePaymentIntentID != nil {
		if _, err := s.gateway.CreateRefund(ctx, *booking.StripePaymentIntentID); err != nil {
			s.logg.Error(logCtx, "gateway refund failed, flagging for manual follow-up", err)
			pendingAt := s.now()
			finalRefundStatus = enums.RefundStatusPending
			if setErr := s.repo.SetRefundStatus(ctx, booking.ID, enums.RefundStatusPending, &pendingAt); setErr != nil {
				s.logg.Error(logCtx, "refund status update failed", setErr)
			}
		} else {
			finalRefundStatus = enums.RefundStatusProcessed
			if setErr := s.repo.SetRefundStatus(ctx, booking.ID, enums.RefundStatusProcessed, nil); setErr != nil {
				s.logg.Error(logCtx, "refund status update failed", setErr)
			}
		}
	}

	// Step 7: audit log, best effort.
	if err := s.audit.Record(ctx, auditRecordForCancel(booking, previousStatus, reason, finalRefundStatus, input)); err != nil {
		s.logg.Error(logCtx, "cancellation audit record failed", err)
	}

	// Queue the cancelled event for downstream consumers. Best effort like
	// the audit step.
	if err := s.emitCancelledEvent(ctx, booking, cc.admin, finalRefundStatus, reason, now); err != nil {
		s.logg.Error(logCtx, "cancellation outbox emit failed", err)
	}

	// Step 8: customer notification, soft-fail inside the notify service.
	s.notify.SendCancellation(ctx, notify.CancellationEmail{
		BookingNumber: booking.BookingNumber,
		CustomerName:  cc.customer.FullName(),
		CustomerEmail: cc.customer.Email,
		CompanyName:   companyName(cc.profile),
		CentreName:    cc.centre.Name,
		AssetLabel:    cc.asset.Label,
		StartDate:     booking.StartDate,
		EndDate:       booking.EndDate,
		TotalAmount:   booking.TotalAmount,
		Reason:        input.Reason,
		RefundStatus:  finalRefundStatus,
	})

	return &CancelResult{
		Success:       true,
		BookingNumber: booking.BookingNumber,
		RefundStatus:  finalRefundStatus,
	}, nil
}

func (s *service) loadCancelContext(ctx context.Context, input CancelInput) (*cancelContext, error) {
	booking, err := s.repo.Find(ctx, input.BookingID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load booking")
	}
	if booking == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "booking not found")
	}

	asset, err := s.assets.FindAsset(ctx, booking.AssetID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load asset")
	}
	if asset == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "asset not found")
	}

	centre, err := s.assets.FindCentre(ctx, asset.CentreID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load centre")
	}
	if centre == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "centre not found")
	}

	customer, err := s.customers.Find(ctx, booking.CustomerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
	}
	if customer == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
	}

	profile, err := s.customers.FindProfile(ctx, booking.CustomerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer profile")
	}

	admin, err := s.users.Find(ctx, input.AdminUserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load admin user")
	}
	if admin == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "admin user not found")
	}

	return &cancelContext{
		booking:  booking,
		asset:    asset,
		centre:   centre,
		customer: customer,
		profile:  profile,
		admin:    admin,
	}, nil
}

// determineRefundStatus is the pure decision table evaluated before any
// mutation:
//
//	not paid                     -> not_required
//	paid, invoice                -> manual
//	paid, card, performRefund    -> pending (updated after the gateway call)
//	paid, card, no refund wanted -> pending with refund_pending_at stamped
func determineRefundStatus(booking *models.Booking, performRefund bool, now time.Time) (enums.RefundStatus, *time.Time) {
	if booking.PaidAt == nil {
		return enums.RefundStatusNotRequired, nil
	}
	if booking.PaymentMethod == enums.PaymentMethodInvoice {
		return enums.RefundStatusManual, nil
	}
	if performRefund {
		return enums.RefundStatusPending, nil
	}
	pendingAt := now
	return enums.RefundStatusPending, &pendingAt
}

func auditRecordForCancel(booking *models.Booking, previousStatus enums.BookingStatus, reason string, refundStatus enums.RefundStatus, input CancelInput) audit.RecordInput {
	adminID := input.AdminUserID
	return audit.RecordInput{
		ActorID:    &adminID,
		Action:     "booking.cancelled",
		EntityType: "booking",
		EntityID:   booking.ID,
		Changes: map[string]any{
			"booking_number":  booking.BookingNumber,
			"previous_status": previousStatus,
			"new_status":      enums.BookingStatusCancelled,
			"reason":          reason,
			"refund_status":   refundStatus,
			"perform_refund":  input.PerformRefund,
		},
	}
}

func (s *service) emitCancelledEvent(ctx context.Context, booking *models.Booking, admin *models.User, refundStatus enums.RefundStatus, reason string, cancelledAt time.Time) error {
	adminID := admin.ID
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventBookingCancelled,
			AggregateType: enums.AggregateBooking,
			AggregateID:   booking.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: &adminID, Name: admin.FullName(), Role: admin.Role},
			Data: payloads.BookingCancelledEvent{
				BookingID:     booking.ID,
				BookingNumber: booking.BookingNumber,
				AssetKind:     booking.AssetKind,
				CustomerID:    booking.CustomerID,
				RefundStatus:  refundStatus,
				CancelledAt:   cancelledAt,
				Reason:        reason,
			},
		})
	})
}

func companyName(profile *models.CustomerProfile) string {
	if profile == nil {
		return ""
	}
	if profile.TradingName != nil && *profile.TradingName != "" {
		return *profile.TradingName
	}
	if profile.CompanyName != nil && *profile.CompanyName != "" {
		return *profile.CompanyName
	}
	return ""
}
