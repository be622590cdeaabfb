package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ApprovalStatus string

const (
	ApprovalStatusPending  ApprovalStatus = "PENDING"
	ApprovalStatusApproved ApprovalStatus = "APPROVED"
	ApprovalStatusRejected ApprovalStatus = "REJECTED"
)

type ApprovalTargetType string

const (
	ApprovalTargetCell  ApprovalTargetType = "CELL"
	ApprovalTargetPopup ApprovalTargetType = "POPUP"
)

func (t ApprovalTargetType) Valid() bool {
	switch t {
	case ApprovalTargetCell, ApprovalTargetPopup:
		return true
	}
	return false
}

type DecisionType string

const (
	DecisionApprove DecisionType = "APPROVE"
	DecisionReject  DecisionType = "REJECT"
)

// ApprovalRecord is one request-to-decision lifecycle for a single
// (target type, target id) pair. A decided record is terminal; a new
// request for the same target creates a new record.
type ApprovalRecord struct {
	ID          uuid.UUID          `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	TargetType  ApprovalTargetType `gorm:"type:approval_target_type;not null" json:"target_type"`
	TargetID    uuid.UUID          `gorm:"type:uuid;not null" json:"target_id"`
	Status      ApprovalStatus     `gorm:"type:approval_status;not null;default:PENDING" json:"status"`
	RequesterID uuid.UUID          `gorm:"type:uuid;not null" json:"requester_id"`
	RequestedAt time.Time          `gorm:"not null;default:now()" json:"requested_at"`
	Decision    *DecisionType      `gorm:"type:decision_type" json:"decision"`
	Reason      *string            `gorm:"type:varchar(1000)" json:"reason"`
	ProcessedAt *time.Time         `json:"processed_at"`
	DeciderID   *uuid.UUID         `gorm:"type:uuid" json:"decider_id"`
	CreatedAt   time.Time          `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time          `gorm:"autoUpdateTime" json:"updated_at"`
}

func (ApprovalRecord) TableName() string {
	return "approval_records"
}

func (r *ApprovalRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.RequestedAt.IsZero() {
		r.RequestedAt = time.Now()
	}
	return nil
}

// Open reports whether the record still awaits a decision.
func (r *ApprovalRecord) Open() bool {
	return r.Status == ApprovalStatusPending
}
