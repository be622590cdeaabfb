package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"zone-service/internal/model"
	"zone-service/internal/repository"
)

// ApprovalStore is the persistence surface for the approval queue.
// *repository.ApprovalRepository is the production implementation; its
// Submit and Decide run the check-then-act under a transaction.
type ApprovalStore interface {
	Submit(ctx context.Context, record *model.ApprovalRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.ApprovalRecord, error)
	Decide(ctx context.Context, id uuid.UUID, apply func(*model.ApprovalRecord) error) (*model.ApprovalRecord, error)
	ListPending(ctx context.Context, offset, limit int) ([]model.ApprovalRecord, int64, error)
}

// ApprovalService is the generic pending-decision ledger. It treats the
// target as an opaque (type, id) pair; interpreting a decision is the
// zone orchestrator's job.
type ApprovalService struct {
	approvalRepo ApprovalStore
}

func NewApprovalService(approvalRepo ApprovalStore) *ApprovalService {
	return &ApprovalService{approvalRepo: approvalRepo}
}

type SubmitApprovalInput struct {
	TargetType model.ApprovalTargetType
	TargetID   uuid.UUID
}

func (s *ApprovalService) Submit(ctx context.Context, principal model.Principal, input SubmitApprovalInput) (*model.ApprovalRecord, error) {
	if !input.TargetType.Valid() {
		return nil, errorf(KindInvalidInput, "unknown target type %q", input.TargetType)
	}
	if input.TargetID == uuid.Nil {
		return nil, errorf(KindInvalidInput, "target id is required")
	}

	record := &model.ApprovalRecord{
		TargetType:  input.TargetType,
		TargetID:    input.TargetID,
		Status:      model.ApprovalStatusPending,
		RequesterID: principal.UserID,
		RequestedAt: time.Now(),
	}

	if err := s.approvalRepo.Submit(ctx, record); err != nil {
		if errors.Is(err, repository.ErrDuplicatePending) {
			return nil, errorf(KindDuplicatePending, "an open approval already exists for %s %s", input.TargetType, input.TargetID)
		}
		return nil, err
	}

	return record, nil
}

type ApprovalPage struct {
	Items         []model.ApprovalRecord `json:"items"`
	TotalElements int64                  `json:"total_elements"`
	TotalPages    int                    `json:"total_pages"`
	Page          int                    `json:"page"`
	Size          int                    `json:"size"`
}

func (s *ApprovalService) ListPending(ctx context.Context, principal model.Principal, page, size int) (*ApprovalPage, error) {
	if !principal.IsAdmin() {
		return nil, ErrPermissionDenied
	}

	offset, limit, page, size := normalizePage(page, size)

	records, total, err := s.approvalRepo.ListPending(ctx, offset, limit)
	if err != nil {
		return nil, err
	}

	return &ApprovalPage{
		Items:         records,
		TotalElements: total,
		TotalPages:    totalPages(total, size),
		Page:          page,
		Size:          size,
	}, nil
}

func (s *ApprovalService) Get(ctx context.Context, principal model.Principal, id uuid.UUID) (*model.ApprovalRecord, error) {
	if !principal.IsAdmin() {
		return nil, ErrPermissionDenied
	}
	record, err := s.approvalRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errorf(KindNotFound, "approval record %s not found", id)
		}
		return nil, err
	}
	return record, nil
}

// Approve decides a pending record. The reason is optional.
func (s *ApprovalService) Approve(ctx context.Context, principal model.Principal, id uuid.UUID, reason *string) (*model.ApprovalRecord, error) {
	return s.decide(ctx, principal, id, model.DecisionApprove, model.ApprovalStatusApproved, reason)
}

// Reject decides a pending record. A non-empty reason is required so the
// requester always learns why.
func (s *ApprovalService) Reject(ctx context.Context, principal model.Principal, id uuid.UUID, reason string) (*model.ApprovalRecord, error) {
	if reason == "" {
		return nil, errorf(KindInvalidInput, "a rejection reason is required")
	}
	return s.decide(ctx, principal, id, model.DecisionReject, model.ApprovalStatusRejected, &reason)
}

func (s *ApprovalService) decide(ctx context.Context, principal model.Principal, id uuid.UUID, decision model.DecisionType, status model.ApprovalStatus, reason *string) (*model.ApprovalRecord, error) {
	if !principal.IsAdmin() {
		return nil, ErrPermissionDenied
	}

	record, err := s.approvalRepo.Decide(ctx, id, func(r *model.ApprovalRecord) error {
		now := time.Now()
		deciderID := principal.UserID
		r.Status = status
		r.Decision = &decision
		r.Reason = reason
		r.ProcessedAt = &now
		r.DeciderID = &deciderID
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, errorf(KindNotFound, "approval record %s not found", id)
		case errors.Is(err, repository.ErrAlreadyDecided):
			return nil, errorf(KindAlreadyDecided, "approval record %s is already decided", id)
		}
		return nil, err
	}

	return record, nil
}
