package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"zone-service/internal/model"
)

type AreaRepository struct {
	db *gorm.DB
}

func NewAreaRepository(db *gorm.DB) *AreaRepository {
	return &AreaRepository{db: db}
}

func (r *AreaRepository) Create(ctx context.Context, area *model.Area) error {
	return r.db.WithContext(ctx).Create(area).Error
}

func (r *AreaRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Area, error) {
	var area model.Area
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&area).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &area, nil
}

func (r *AreaRepository) Update(ctx context.Context, area *model.Area) error {
	return r.db.WithContext(ctx).Save(area).Error
}

// Delete removes the area row only. Cascading cell removal is the zone
// orchestrator's job.
func (r *AreaRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Area{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

type AreaListFilter struct {
	Keyword       *string
	ExcludeHidden bool
}

// List returns one page of areas ordered by id ascending so offset
// pagination stays deterministic, plus the unpaged total.
func (r *AreaRepository) List(ctx context.Context, filter AreaListFilter, offset, limit int) ([]model.Area, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Area{})

	if filter.Keyword != nil && *filter.Keyword != "" {
		query = query.Where("name ILIKE ?", "%"+*filter.Keyword+"%")
	}
	if filter.ExcludeHidden {
		query = query.Where("status <> ?", model.AreaStatusHidden)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var areas []model.Area
	if err := query.Order("id ASC").Offset(offset).Limit(limit).Find(&areas).Error; err != nil {
		return nil, 0, err
	}

	return areas, total, nil
}
