package assets

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/liamreece/leasepoint-backend/pkg/db/models"
)

// Repository resolves assets and the centre/owner chain above them.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindAsset(ctx context.Context, id uuid.UUID) (*models.Asset, error)
	FindCentre(ctx context.Context, id uuid.UUID) (*models.Centre, error)
	FindOwner(ctx context.Context, id uuid.UUID) (*models.Owner, error)
	OwnerOfAsset(ctx context.Context, assetID uuid.UUID) (*models.Owner, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an asset repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindAsset(ctx context.Context, id uuid.UUID) (*models.Asset, error) {
	var asset models.Asset
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&asset).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &asset, nil
}

func (r *repository) FindCentre(ctx context.Context, id uuid.UUID) (*models.Centre, error) {
	var centre models.Centre
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&centre).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &centre, nil
}

func (r *repository) FindOwner(ctx context.Context, id uuid.UUID) (*models.Owner, error) {
	var owner models.Owner
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&owner).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &owner, nil
}

// OwnerOfAsset walks asset -> centre -> owner and returns the owner that
// receives the booking revenue. Nil when any link in the chain is missing.
func (r *repository) OwnerOfAsset(ctx context.Context, assetID uuid.UUID) (*models.Owner, error) {
	asset, err := r.FindAsset(ctx, assetID)
	if err != nil || asset == nil {
		return nil, err
	}
	centre, err := r.FindCentre(ctx, asset.CentreID)
	if err != nil || centre == nil {
		return nil, err
	}
	return r.FindOwner(ctx, centre.OwnerID)
}
