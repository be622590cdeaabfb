package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"zone-service/internal/model"
)

type RegionRepository struct {
	db *gorm.DB
}

func NewRegionRepository(db *gorm.DB) *RegionRepository {
	return &RegionRepository{db: db}
}

// GetByID returns nil without error when the region does not exist;
// region references are weak and unknown ids are simply dropped.
func (r *RegionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Region, error) {
	var region model.Region
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&region).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &region, nil
}
