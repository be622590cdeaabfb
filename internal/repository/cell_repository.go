package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"zone-service/internal/model"
)

type CellRepository struct {
	db *gorm.DB
}

func NewCellRepository(db *gorm.DB) *CellRepository {
	return &CellRepository{db: db}
}

// Create inserts the cell after re-checking inside the transaction that
// its area still exists. The FOR KEY SHARE lock keeps a concurrent area
// delete from committing between the check and the insert.
func (r *CellRepository) Create(ctx context.Context, cell *model.Cell) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var areaID uuid.UUID
		err := tx.Raw("SELECT id FROM zone_areas WHERE id = ? FOR KEY SHARE", cell.AreaID).Scan(&areaID).Error
		if err != nil {
			return err
		}
		if areaID == uuid.Nil {
			return ErrAreaMissing
		}
		return tx.Create(cell).Error
	})
}

func (r *CellRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Cell, error) {
	var cell model.Cell
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&cell).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &cell, nil
}

func (r *CellRepository) Update(ctx context.Context, cell *model.Cell) error {
	return r.db.WithContext(ctx).Save(cell).Error
}

func (r *CellRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Cell{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

type CellListFilter struct {
	AreaID  *uuid.UUID
	OwnerID *uuid.UUID
	Status  *model.CellStatus
}

func (r *CellRepository) List(ctx context.Context, filter CellListFilter, offset, limit int) ([]model.Cell, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Cell{})

	if filter.AreaID != nil {
		query = query.Where("area_id = ?", *filter.AreaID)
	}
	if filter.OwnerID != nil {
		query = query.Where("owner_id = ?", *filter.OwnerID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var cells []model.Cell
	if err := query.Order("id ASC").Offset(offset).Limit(limit).Find(&cells).Error; err != nil {
		return nil, 0, err
	}

	return cells, total, nil
}

// ListByArea loads every cell of an area in one query, unpaged. Used by
// the zone orchestrator for the combined read model and cascade delete.
func (r *CellRepository) ListByArea(ctx context.Context, areaID uuid.UUID) ([]model.Cell, error) {
	var cells []model.Cell
	err := r.db.WithContext(ctx).
		Where("area_id = ?", areaID).
		Order("id ASC").
		Find(&cells).Error
	return cells, err
}
