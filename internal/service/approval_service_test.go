package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"zone-service/internal/model"
)

func TestApprovalService_Submit(t *testing.T) {
	svc := NewApprovalService(newFakeApprovalStore())

	record, err := svc.Submit(context.Background(), sellerPrincipal, SubmitApprovalInput{
		TargetType: model.ApprovalTargetCell,
		TargetID:   uuid.New(),
	})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if record.Status != model.ApprovalStatusPending {
		t.Fatalf("expected PENDING, got %s", record.Status)
	}
	if record.RequesterID != sellerPrincipal.UserID {
		t.Fatalf("expected requester %s, got %s", sellerPrincipal.UserID, record.RequesterID)
	}
	if record.RequestedAt.IsZero() {
		t.Fatal("expected requested_at to be set")
	}
	if record.Decision != nil || record.ProcessedAt != nil || record.DeciderID != nil {
		t.Fatal("expected decision fields to be empty on submission")
	}
}

func TestApprovalService_SubmitValidation(t *testing.T) {
	svc := NewApprovalService(newFakeApprovalStore())

	_, err := svc.Submit(context.Background(), sellerPrincipal, SubmitApprovalInput{
		TargetType: model.ApprovalTargetType("WAREHOUSE"),
		TargetID:   uuid.New(),
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input for unknown target type, got %v", err)
	}

	_, err = svc.Submit(context.Background(), sellerPrincipal, SubmitApprovalInput{
		TargetType: model.ApprovalTargetCell,
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input for missing target id, got %v", err)
	}
}

func TestApprovalService_OneOpenRecordPerTarget(t *testing.T) {
	svc := NewApprovalService(newFakeApprovalStore())
	targetID := uuid.New()

	first, err := svc.Submit(context.Background(), sellerPrincipal, SubmitApprovalInput{
		TargetType: model.ApprovalTargetCell,
		TargetID:   targetID,
	})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	_, err = svc.Submit(context.Background(), sellerPrincipal, SubmitApprovalInput{
		TargetType: model.ApprovalTargetCell,
		TargetID:   targetID,
	})
	if !errors.Is(err, ErrDuplicatePending) {
		t.Fatalf("expected duplicate pending, got %v", err)
	}

	// The same id under a different target type is a different target.
	if _, err := svc.Submit(context.Background(), sellerPrincipal, SubmitApprovalInput{
		TargetType: model.ApprovalTargetPopup,
		TargetID:   targetID,
	}); err != nil {
		t.Fatalf("expected submission under another target type to pass, got %v", err)
	}

	// Once decided, the target may be submitted again.
	if _, err := svc.Approve(context.Background(), adminPrincipal, first.ID, nil); err != nil {
		t.Fatalf("Approve failed: %v", err)
	}
	second, err := svc.Submit(context.Background(), sellerPrincipal, SubmitApprovalInput{
		TargetType: model.ApprovalTargetCell,
		TargetID:   targetID,
	})
	if err != nil {
		t.Fatalf("expected resubmission after decision to pass, got %v", err)
	}
	if second.ID == first.ID {
		t.Fatal("expected a fresh record, not a reopened one")
	}
}

func TestApprovalService_ApproveSetsDecisionFields(t *testing.T) {
	svc := NewApprovalService(newFakeApprovalStore())

	record, err := svc.Submit(context.Background(), sellerPrincipal, SubmitApprovalInput{
		TargetType: model.ApprovalTargetCell,
		TargetID:   uuid.New(),
	})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	decided, err := svc.Approve(context.Background(), adminPrincipal, record.ID, nil)
	if err != nil {
		t.Fatalf("Approve failed: %v", err)
	}
	if decided.Status != model.ApprovalStatusApproved {
		t.Fatalf("expected APPROVED, got %s", decided.Status)
	}
	if decided.Decision == nil || *decided.Decision != model.DecisionApprove {
		t.Fatalf("expected decision APPROVE, got %v", decided.Decision)
	}
	if decided.ProcessedAt == nil {
		t.Fatal("expected processed_at to be set")
	}
	if decided.DeciderID == nil || *decided.DeciderID != adminPrincipal.UserID {
		t.Fatalf("expected decider %s, got %v", adminPrincipal.UserID, decided.DeciderID)
	}
}

func TestApprovalService_DecisionIsOneShot(t *testing.T) {
	svc := NewApprovalService(newFakeApprovalStore())

	record, err := svc.Submit(context.Background(), sellerPrincipal, SubmitApprovalInput{
		TargetType: model.ApprovalTargetCell,
		TargetID:   uuid.New(),
	})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	decided, err := svc.Approve(context.Background(), adminPrincipal, record.ID, nil)
	if err != nil {
		t.Fatalf("Approve failed: %v", err)
	}

	otherAdmin := model.Principal{UserID: uuid.New(), Role: model.RoleAdmin}
	if _, err := svc.Reject(context.Background(), otherAdmin, record.ID, "too late"); !errors.Is(err, ErrAlreadyDecided) {
		t.Fatalf("expected already decided, got %v", err)
	}

	// The losing decision must not have altered the record.
	stored, err := svc.Get(context.Background(), adminPrincipal, record.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if stored.Status != model.ApprovalStatusApproved {
		t.Fatalf("expected status to stay APPROVED, got %s", stored.Status)
	}
	if !stored.ProcessedAt.Equal(*decided.ProcessedAt) {
		t.Fatal("expected processed_at to be unchanged")
	}
	if *stored.DeciderID != adminPrincipal.UserID {
		t.Fatalf("expected original decider, got %s", *stored.DeciderID)
	}
}

func TestApprovalService_RejectRequiresReason(t *testing.T) {
	svc := NewApprovalService(newFakeApprovalStore())

	record, err := svc.Submit(context.Background(), sellerPrincipal, SubmitApprovalInput{
		TargetType: model.ApprovalTargetCell,
		TargetID:   uuid.New(),
	})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	if _, err := svc.Reject(context.Background(), adminPrincipal, record.ID, ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input for empty reason, got %v", err)
	}

	decided, err := svc.Reject(context.Background(), adminPrincipal, record.ID, "outside operating hours")
	if err != nil {
		t.Fatalf("Reject failed: %v", err)
	}
	if decided.Status != model.ApprovalStatusRejected {
		t.Fatalf("expected REJECTED, got %s", decided.Status)
	}
	if decided.Reason == nil || *decided.Reason != "outside operating hours" {
		t.Fatalf("expected the reason to be recorded, got %v", decided.Reason)
	}
}

func TestApprovalService_AdminOnlySurfaces(t *testing.T) {
	svc := NewApprovalService(newFakeApprovalStore())

	record, err := svc.Submit(context.Background(), sellerPrincipal, SubmitApprovalInput{
		TargetType: model.ApprovalTargetCell,
		TargetID:   uuid.New(),
	})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	if _, err := svc.ListPending(context.Background(), sellerPrincipal, 0, 10); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected permission denied on ListPending, got %v", err)
	}
	if _, err := svc.Get(context.Background(), sellerPrincipal, record.ID); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected permission denied on Get, got %v", err)
	}
	if _, err := svc.Approve(context.Background(), sellerPrincipal, record.ID, nil); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected permission denied on Approve, got %v", err)
	}

	page, err := svc.ListPending(context.Background(), adminPrincipal, 0, 10)
	if err != nil {
		t.Fatalf("ListPending failed: %v", err)
	}
	if page.TotalElements != 1 {
		t.Fatalf("expected 1 pending record, got %d", page.TotalElements)
	}
}
