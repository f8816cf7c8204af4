package bookings

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/liamreece/leasepoint-backend/internal/assets"
	"github.com/liamreece/leasepoint-backend/internal/audit"
	"github.com/liamreece/leasepoint-backend/internal/customers"
	"github.com/liamreece/leasepoint-backend/internal/history"
	"github.com/liamreece/leasepoint-backend/internal/ledger"
	"github.com/liamreece/leasepoint-backend/internal/notify"
	"github.com/liamreece/leasepoint-backend/internal/users"
	"github.com/liamreece/leasepoint-backend/pkg/db/models"
	"github.com/liamreece/leasepoint-backend/pkg/enums"
	pkgerrors "github.com/liamreece/leasepoint-backend/pkg/errors"
	"github.com/liamreece/leasepoint-backend/pkg/logger"
	"github.com/liamreece/leasepoint-backend/pkg/outbox"
	"github.com/liamreece/leasepoint-backend/pkg/outbox/payloads"
	"github.com/liamreece/leasepoint-backend/pkg/pagination"
	pkgstripe "github.com/liamreece/leasepoint-backend/pkg/stripe"
)

const defaultCancelReason = "Cancelled by administrator"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// PaymentGateway is the subset of the Stripe adapter the booking service uses.
type PaymentGateway interface {
	CreateRefund(ctx context.Context, paymentIntentID string) (*pkgstripe.RefundResult, error)
	CreateCheckoutSession(ctx context.Context, params pkgstripe.CheckoutParams) (*pkgstripe.CheckoutSession, error)
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service defines the booking operations exposed to the API layer.
type Service interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
	Approve(ctx context.Context, input ApproveInput) error
	Cancel(ctx context.Context, input CancelInput) (*CancelResult, error)
	CreateCheckout(ctx context.Context, input CheckoutInput) (*pkgstripe.CheckoutSession, error)
}

// ListParams filter and paginate the booking list.
type ListParams struct {
	Status    *enums.BookingStatus
	AssetKind *enums.AssetKind
	Limit     int
	Cursor    string
}

// ListResult is one page of bookings plus the cursor for the next page.
type ListResult struct {
	Bookings   []models.Booking
	NextCursor string
}

// ApproveInput confirms a pending booking.
type ApproveInput struct {
	BookingID   uuid.UUID
	AdminUserID uuid.UUID
}

// CancelInput drives the cancellation workflow.
type CancelInput struct {
	BookingID     uuid.UUID
	AdminUserID   uuid.UUID
	Reason        string
	PerformRefund bool
}

// CancelResult reports the workflow outcome. Cancellation success and refund
// outcome are independent: a cancelled booking whose refund failed reports
// Success=true with RefundStatus=pending.
type CancelResult struct {
	Success       bool
	BookingNumber string
	RefundStatus  enums.RefundStatus
}

// CheckoutInput opens a hosted payment session for a booking.
type CheckoutInput struct {
	BookingID  uuid.UUID
	SuccessURL string
	CancelURL  string
}

// ServiceParams carries every collaborator the booking service needs.
type ServiceParams struct {
	Repo      Repository
	Assets    assets.Repository
	Customers customers.Repository
	Users     users.Repository
	History   history.Repository
	Ledger    ledger.Service
	Audit     audit.Service
	Notify    notify.Service
	Gateway   PaymentGateway
	Outbox    outboxPublisher
	Tx        txRunner
	Logger    *logger.Logger
	Now       func() time.Time
}

type service struct {
	repo      Repository
	assets    assets.Repository
	customers customers.Repository
	users     users.Repository
	history   history.Repository
	ledger    ledger.Service
	audit     audit.Service
	notify    notify.Service
	gateway   PaymentGateway
	outbox    outboxPublisher
	tx        txRunner
	logg      *logger.Logger
	now       func() time.Time
}

// NewService validates dependencies and builds the booking service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("booking repository required")
	}
	if params.Assets == nil {
		return nil, fmt.Errorf("asset repository required")
	}
	if params.Customers == nil {
		return nil, fmt.Errorf("customer repository required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("user repository required")
	}
	if params.History == nil {
		return nil, fmt.Errorf("history repository required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	if params.Audit == nil {
		return nil, fmt.Errorf("audit service required")
	}
	if params.Notify == nil {
		return nil, fmt.Errorf("notify service required")
	}
	if params.Gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:      params.Repo,
		assets:    params.Assets,
		customers: params.Customers,
		users:     params.Users,
		history:   params.History,
		ledger:    params.Ledger,
		audit:     params.Audit,
		notify:    params.Notify,
		gateway:   params.Gateway,
		outbox:    params.Outbox,
		tx:        params.Tx,
		logg:      params.Logger,
		now:       now,
	}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "booking id required")
	}
	booking, err := s.repo.Find(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load booking")
	}
	if booking == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "booking not found")
	}
	return booking, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	query := ListQuery{
		Status:    params.Status,
		AssetKind: params.AssetKind,
		Limit:     params.Limit,
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list bookings")
	}

	result := &ListResult{Bookings: rows}
	if next != nil {
		result.NextCursor = pagination.EncodeCursor(*next)
	}
	return result, nil
}

// Approve moves a pending booking to confirmed and stamps approved_at, which
// anchors the payment reminder due date.
func (s *service) Approve(ctx context.Context, input ApproveInput) error {
	if input.BookingID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "booking id required")
	}
	if input.AdminUserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "admin identity missing")
	}

	admin, err := s.users.Find(ctx, input.AdminUserID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load admin user")
	}
	if admin == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "admin user not found")
	}

	now := s.now()
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		booking, err := repo.Find(ctx, input.BookingID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load booking")
		}
		if booking == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "booking not found")
		}
		if booking.Status == enums.BookingStatusConfirmed {
			return nil
		}

		ok, err := repo.TransitionStatus(ctx, booking.ID, enums.BookingStatusPending, enums.BookingStatusConfirmed, map[string]any{
			"approved_at": now,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "confirm booking")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "booking cannot be approved in current state")
		}

		adminID := input.AdminUserID
		if err := s.history.WithTx(tx).Append(ctx, &models.BookingStatusHistory{
			BookingID:      booking.ID,
			PreviousStatus: booking.Status,
			NewStatus:      enums.BookingStatusConfirmed,
			ChangedByID:    &adminID,
			ChangedByName:  admin.FullName(),
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append status history")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventBookingConfirmed,
			AggregateType: enums.AggregateBooking,
			AggregateID:   booking.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: &adminID, Name: admin.FullName(), Role: admin.Role},
			Data: payloads.BookingConfirmedEvent{
				BookingID:     booking.ID,
				BookingNumber: booking.BookingNumber,
				AssetKind:     booking.AssetKind,
				CustomerID:    booking.CustomerID,
			},
		})
	})
}

// CreateCheckout opens a Stripe hosted session for the booking total. The
// metadata carries the booking identity the webhook reconciler resolves later.
func (s *service) CreateCheckout(ctx context.Context, input CheckoutInput) (*pkgstripe.CheckoutSession, error) {
	booking, err := s.Get(ctx, input.BookingID)
	if err != nil {
		return nil, err
	}
	if booking.PaidAt != nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "booking is already paid")
	}
	if booking.Status.IsTerminal() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "booking is no longer payable")
	}

	asset, err := s.assets.FindAsset(ctx, booking.AssetID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load asset")
	}
	description := booking.BookingNumber
	if asset != nil {
		description = fmt.Sprintf("%s - %s", booking.BookingNumber, asset.Label)
	}

	amountCents := booking.TotalAmount.Mul(decimal.NewFromInt(100)).IntPart()
	session, err := s.gateway.CreateCheckoutSession(ctx, pkgstripe.CheckoutParams{
		BookingID:     booking.ID.String(),
		BookingNumber: booking.BookingNumber,
		AssetKind:     string(booking.AssetKind),
		Description:   description,
		AmountCents:   amountCents,
		SuccessURL:    input.SuccessURL,
		CancelURL:     input.CancelURL,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create checkout session")
	}
	return session, nil
}
