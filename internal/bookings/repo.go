package bookings

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/liamreece/leasepoint-backend/pkg/db/models"
	"github.com/liamreece/leasepoint-backend/pkg/enums"
	"github.com/liamreece/leasepoint-backend/pkg/pagination"
)

// ListQuery narrows the booking list scan.
type ListQuery struct {
	Status    *enums.BookingStatus
	AssetKind *enums.AssetKind
	Limit     int
	Cursor    *pagination.Cursor
}

// Repository manages booking persistence. Status transitions are conditional
// updates so concurrent writers lose cleanly instead of clobbering state.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Find(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	List(ctx context.Context, query ListQuery) ([]models.Booking, *pagination.Cursor, error)
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to enums.BookingStatus, extra map[string]any) (bool, error)
	MarkPaid(ctx context.Context, id uuid.UUID, paidAt time.Time, paymentIntentID string) (bool, error)
	SetRefundStatus(ctx context.Context, id uuid.UUID, status enums.RefundStatus, pendingAt *time.Time) error
	FindReminderCandidates(ctx context.Context, limit int) ([]models.Booking, error)
	SetLastReminderSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a booking repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Find(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	var booking models.Booking
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&booking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &booking, nil
}

func (r *repository) List(ctx context.Context, query ListQuery) ([]models.Booking, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(query.Limit)
	normalized := pagination.NormalizeLimit(query.Limit)

	q := r.db.WithContext(ctx).Model(&models.Booking{})
	if query.Status != nil {
		q = q.Where("status = ?", *query.Status)
	}
	if query.AssetKind != nil {
		q = q.Where("asset_kind = ?", *query.AssetKind)
	}
	if query.Cursor != nil {
		q = q.Where("(created_at, id) < (?, ?)", query.Cursor.CreatedAt, query.Cursor.ID)
	}

	var rows []models.Booking
	if err := q.Order("created_at DESC, id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, nil, err
	}

	if len(rows) > normalized {
		rows = rows[:normalized]
		last := rows[len(rows)-1]
		return rows, &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}, nil
	}
	return rows, nil, nil
}

// TransitionStatus applies a guarded status change; extra column updates ride
// in the same statement. Returns false when the row was not in the expected
// state, which callers treat as a lost race or stale request.
func (r *repository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to enums.BookingStatus, extra map[string]any) (bool, error) {
	updates := map[string]any{"status": to}
	for column, value := range extra {
		updates[column] = value
	}
	res := r.db.WithContext(ctx).Model(&models.Booking{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// MarkPaid sets the payment fields exactly once; a second webhook delivery
// finds paid_at already set and affects zero rows.
func (r *repository) MarkPaid(ctx context.Context, id uuid.UUID, paidAt time.Time, paymentIntentID string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Booking{}).
		Where("id = ? AND paid_at IS NULL", id).
		Updates(map[string]any{
			"paid_at":                  paidAt,
			"stripe_payment_intent_id": paymentIntentID,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) SetRefundStatus(ctx context.Context, id uuid.UUID, status enums.RefundStatus, pendingAt *time.Time) error {
	return r.db.WithContext(ctx).Model(&models.Booking{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"refund_status":     status,
			"refund_pending_at": pendingAt,
		}).Error
}

// FindReminderCandidates returns confirmed invoice-method bookings that have
// not been paid. Rows without an approval timestamp cannot produce a due date
// and are filtered here rather than in the job loop.
func (r *repository) FindReminderCandidates(ctx context.Context, limit int) ([]models.Booking, error) {
	var rows []models.Booking
	q := r.db.WithContext(ctx).
		Where("status = ?", enums.BookingStatusConfirmed).
		Where("payment_method = ?", enums.PaymentMethodInvoice).
		Where("paid_at IS NULL").
		Where("approved_at IS NOT NULL").
		Order("approved_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) SetLastReminderSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error {
	return r.db.WithContext(ctx).Model(&models.Booking{}).
		Where("id = ?", id).
		Update("last_reminder_sent_at", sentAt).Error
}
