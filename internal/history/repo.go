package history

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/liamreece/leasepoint-backend/pkg/db/models"
)

// Repository manages the append-only booking status history.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Append(ctx context.Context, row *models.BookingStatusHistory) error
	ListByBookingID(ctx context.Context, bookingID uuid.UUID) ([]models.BookingStatusHistory, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a history repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Append(ctx context.Context, row *models.BookingStatusHistory) error {
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *repository) ListByBookingID(ctx context.Context, bookingID uuid.UUID) ([]models.BookingStatusHistory, error) {
	var rows []models.BookingStatusHistory
	if err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
