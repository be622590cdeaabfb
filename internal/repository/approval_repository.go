package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"zone-service/internal/model"
)

type ApprovalRepository struct {
	db *gorm.DB
}

func NewApprovalRepository(db *gorm.DB) *ApprovalRepository {
	return &ApprovalRepository{db: db}
}

// Submit creates a new pending record unless an open one already exists
// for the same target. The transactional check gives callers a clean
// ErrDuplicatePending; the partial unique index on (target_type,
// target_id) WHERE status = 'PENDING' backs it up under races.
func (r *ApprovalRepository) Submit(ctx context.Context, record *model.ApprovalRecord) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		err := tx.Model(&model.ApprovalRecord{}).
			Where("target_type = ? AND target_id = ? AND status = ?",
				record.TargetType, record.TargetID, model.ApprovalStatusPending).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count > 0 {
			return ErrDuplicatePending
		}

		if err := tx.Create(record).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicatePending
			}
			return err
		}
		return nil
	})
}

func (r *ApprovalRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.ApprovalRecord, error) {
	var record model.ApprovalRecord
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

// Decide applies a one-shot decision. The record row is locked FOR
// UPDATE for the duration of the check-then-act, so two competing calls
// resolve to one success and one ErrAlreadyDecided.
func (r *ApprovalRepository) Decide(ctx context.Context, id uuid.UUID, apply func(*model.ApprovalRecord) error) (*model.ApprovalRecord, error) {
	var record model.ApprovalRecord
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).
			First(&record).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if !record.Open() {
			return ErrAlreadyDecided
		}
		if err := apply(&record); err != nil {
			return err
		}
		return tx.Save(&record).Error
	})
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *ApprovalRepository) ListPending(ctx context.Context, offset, limit int) ([]model.ApprovalRecord, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.ApprovalRecord{}).
		Where("status = ?", model.ApprovalStatusPending)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var records []model.ApprovalRecord
	if err := query.Order("requested_at ASC").Offset(offset).Limit(limit).Find(&records).Error; err != nil {
		return nil, 0, err
	}

	return records, total, nil
}
