package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"zone-service/internal/model"
	"zone-service/internal/repository"
)

type zoneFixture struct {
	areaStore *fakeAreaStore
	cellStore *fakeCellStore
	cache     *fakeZoneCache
	listing   *fakeListingNotifier
	svc       *ZoneService
}

func newZoneFixture() *zoneFixture {
	areaStore := newFakeAreaStore()
	cellStore := newFakeCellStore()
	cache := newFakeZoneCache()
	listing := &fakeListingNotifier{}
	cellSvc := NewCellService(cellStore, areaStore, cache)

	return &zoneFixture{
		areaStore: areaStore,
		cellStore: cellStore,
		cache:     cache,
		listing:   listing,
		svc:       NewZoneService(areaStore, cellStore, cellSvc, cache, listing, zerolog.Nop()),
	}
}

func TestZoneService_GetAreaWithCells(t *testing.T) {
	f := newZoneFixture()

	area := seedArea(t, f.areaStore, model.AreaStatusAvailable)
	seedCell(t, f.cellStore, area.ID, uuid.New(), model.CellStatusApproved)
	seedCell(t, f.cellStore, area.ID, uuid.New(), model.CellStatusPending)

	otherArea := seedArea(t, f.areaStore, model.AreaStatusAvailable)
	seedCell(t, f.cellStore, otherArea.ID, uuid.New(), model.CellStatusApproved)

	detail, err := f.svc.GetAreaWithCells(context.Background(), area.ID)
	if err != nil {
		t.Fatalf("GetAreaWithCells failed: %v", err)
	}
	if detail.Area.ID != area.ID {
		t.Fatalf("expected area %s, got %s", area.ID, detail.Area.ID)
	}
	if len(detail.Cells) != 2 {
		t.Fatalf("expected 2 cells, got %d", len(detail.Cells))
	}
	for _, cell := range detail.Cells {
		if cell.AreaID != area.ID {
			t.Fatalf("cell %s from another area leaked into the detail", cell.ID)
		}
	}

	if _, err := f.svc.GetAreaWithCells(context.Background(), uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestZoneService_GetAreaWithCellsCaches(t *testing.T) {
	f := newZoneFixture()

	area := seedArea(t, f.areaStore, model.AreaStatusAvailable)
	seedCell(t, f.cellStore, area.ID, uuid.New(), model.CellStatusApproved)

	if _, err := f.svc.GetAreaWithCells(context.Background(), area.ID); err != nil {
		t.Fatalf("GetAreaWithCells failed: %v", err)
	}
	if _, ok := f.cache.entries[area.ID]; !ok {
		t.Fatal("expected the detail to be cached after the first read")
	}

	// A direct store write does not reach the cached read model until the
	// entry is invalidated.
	extra := seedCell(t, f.cellStore, area.ID, uuid.New(), model.CellStatusApproved)

	detail, err := f.svc.GetAreaWithCells(context.Background(), area.ID)
	if err != nil {
		t.Fatalf("GetAreaWithCells failed: %v", err)
	}
	if len(detail.Cells) != 1 {
		t.Fatalf("expected the cached detail with 1 cell, got %d", len(detail.Cells))
	}

	f.cache.InvalidateArea(context.Background(), area.ID)
	detail, err = f.svc.GetAreaWithCells(context.Background(), area.ID)
	if err != nil {
		t.Fatalf("GetAreaWithCells failed: %v", err)
	}
	if len(detail.Cells) != 2 {
		t.Fatalf("expected a fresh detail with 2 cells, got %d", len(detail.Cells))
	}
	found := false
	for _, cell := range detail.Cells {
		if cell.ID == extra.ID {
			found = true
		}
	}
	if !found {
		t.Fatal("expected the new cell in the refreshed detail")
	}
}

func TestZoneService_DeleteAreaCascade(t *testing.T) {
	f := newZoneFixture()

	area := seedArea(t, f.areaStore, model.AreaStatusAvailable)
	cells := make([]*model.Cell, 0, 3)
	for i := 0; i < 3; i++ {
		cells = append(cells, seedCell(t, f.cellStore, area.ID, uuid.New(), model.CellStatusApproved))
	}

	survivor := seedArea(t, f.areaStore, model.AreaStatusAvailable)
	kept := seedCell(t, f.cellStore, survivor.ID, uuid.New(), model.CellStatusApproved)

	if err := f.svc.DeleteAreaCascade(context.Background(), adminPrincipal, area.ID); err != nil {
		t.Fatalf("DeleteAreaCascade failed: %v", err)
	}

	if _, err := f.areaStore.GetByID(context.Background(), area.ID); err == nil {
		t.Fatal("expected the area to be deleted")
	}
	for _, cell := range cells {
		if _, ok := f.cellStore.cells[cell.ID]; ok {
			t.Fatalf("expected cell %s to be deleted", cell.ID)
		}
	}
	if _, ok := f.cellStore.cells[kept.ID]; !ok {
		t.Fatal("cascade delete reached into another area")
	}
}

func TestZoneService_DeleteAreaCascadeRequiresAdmin(t *testing.T) {
	f := newZoneFixture()
	area := seedArea(t, f.areaStore, model.AreaStatusAvailable)

	if err := f.svc.DeleteAreaCascade(context.Background(), sellerPrincipal, area.ID); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected permission denied, got %v", err)
	}
	if err := f.svc.DeleteAreaCascade(context.Background(), adminPrincipal, uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestZoneService_DeleteAreaCascadePartialFailure(t *testing.T) {
	f := newZoneFixture()

	area := seedArea(t, f.areaStore, model.AreaStatusAvailable)
	var cells []*model.Cell
	for i := 0; i < 3; i++ {
		cells = append(cells, seedCell(t, f.cellStore, area.ID, uuid.New(), model.CellStatusApproved))
	}

	// ListByArea returns cells ordered by id, so the middle cell of that
	// order is the one to poison.
	ordered, err := f.cellStore.ListByArea(context.Background(), area.ID)
	if err != nil {
		t.Fatalf("ListByArea failed: %v", err)
	}
	poisoned := ordered[1].ID
	storeErr := errors.New("connection reset")
	f.cellStore.deleteErrs[poisoned] = storeErr

	err = f.svc.DeleteAreaCascade(context.Background(), adminPrincipal, area.ID)
	if err == nil {
		t.Fatal("expected the cascade to fail")
	}

	var cascadeErr *PartialCascadeError
	if !errors.As(err, &cascadeErr) {
		t.Fatalf("expected *PartialCascadeError, got %T: %v", err, err)
	}
	if cascadeErr.AreaID != area.ID {
		t.Fatalf("expected area %s, got %s", area.ID, cascadeErr.AreaID)
	}
	if cascadeErr.FailedCellID != poisoned {
		t.Fatalf("expected failed cell %s, got %s", poisoned, cascadeErr.FailedCellID)
	}
	if len(cascadeErr.DeletedCellIDs) != 1 || cascadeErr.DeletedCellIDs[0] != ordered[0].ID {
		t.Fatalf("expected exactly the first cell reported deleted, got %v", cascadeErr.DeletedCellIDs)
	}
	if !errors.Is(err, storeErr) {
		t.Fatal("expected the store error to be wrapped")
	}

	// The area and the untouched cells survive the failed cascade.
	if _, err := f.areaStore.GetByID(context.Background(), area.ID); err != nil {
		t.Fatalf("expected the area to survive, got %v", err)
	}
	if _, ok := f.cellStore.cells[ordered[2].ID]; !ok {
		t.Fatal("expected the cell after the failure point to survive")
	}
}

func TestZoneService_DeleteAreaCascadeSkipsConcurrentlyGoneCells(t *testing.T) {
	f := newZoneFixture()

	area := seedArea(t, f.areaStore, model.AreaStatusAvailable)
	seedCell(t, f.cellStore, area.ID, uuid.New(), model.CellStatusApproved)
	ghost := seedCell(t, f.cellStore, area.ID, uuid.New(), model.CellStatusApproved)

	// Make the delete of the ghost cell report not-found, as if another
	// request removed it between listing and deleting.
	f.cellStore.deleteErrs[ghost.ID] = repository.ErrNotFound

	if err := f.svc.DeleteAreaCascade(context.Background(), adminPrincipal, area.ID); err != nil {
		t.Fatalf("expected the cascade to treat a gone cell as done, got %v", err)
	}
}

func TestZoneService_OnApprovalDecidedCell(t *testing.T) {
	f := newZoneFixture()

	area := seedArea(t, f.areaStore, model.AreaStatusAvailable)
	cell := seedCell(t, f.cellStore, area.ID, uuid.New(), model.CellStatusPending)

	decision := model.DecisionReject
	now := time.Now()
	record := &model.ApprovalRecord{
		ID:          uuid.New(),
		TargetType:  model.ApprovalTargetCell,
		TargetID:    cell.ID,
		Status:      model.ApprovalStatusRejected,
		Decision:    &decision,
		ProcessedAt: &now,
	}

	if err := f.svc.OnApprovalDecided(context.Background(), record); err != nil {
		t.Fatalf("OnApprovalDecided failed: %v", err)
	}
	if f.cellStore.cells[cell.ID].Status != model.CellStatusRejected {
		t.Fatalf("expected REJECTED, got %s", f.cellStore.cells[cell.ID].Status)
	}

	approve := model.DecisionApprove
	record.Decision = &approve
	if err := f.svc.OnApprovalDecided(context.Background(), record); err != nil {
		t.Fatalf("OnApprovalDecided failed: %v", err)
	}
	if f.cellStore.cells[cell.ID].Status != model.CellStatusApproved {
		t.Fatalf("expected APPROVED, got %s", f.cellStore.cells[cell.ID].Status)
	}
}

func TestZoneService_OnApprovalDecidedPopup(t *testing.T) {
	f := newZoneFixture()

	decision := model.DecisionApprove
	reason := "looks good"
	record := &model.ApprovalRecord{
		ID:         uuid.New(),
		TargetType: model.ApprovalTargetPopup,
		TargetID:   uuid.New(),
		Status:     model.ApprovalStatusApproved,
		Decision:   &decision,
		Reason:     &reason,
	}

	if err := f.svc.OnApprovalDecided(context.Background(), record); err != nil {
		t.Fatalf("OnApprovalDecided failed: %v", err)
	}
	if len(f.listing.calls) != 1 {
		t.Fatalf("expected 1 listing notification, got %d", len(f.listing.calls))
	}
	call := f.listing.calls[0]
	if call.targetID != record.TargetID || call.decision != model.DecisionApprove {
		t.Fatalf("unexpected notification %+v", call)
	}
	if call.reason == nil || *call.reason != reason {
		t.Fatalf("expected the reason to be forwarded, got %v", call.reason)
	}
}

func TestZoneService_OnApprovalDecidedEdgeCases(t *testing.T) {
	f := newZoneFixture()

	decision := model.DecisionApprove

	// No decision yet.
	if err := f.svc.OnApprovalDecided(context.Background(), &model.ApprovalRecord{
		ID:         uuid.New(),
		TargetType: model.ApprovalTargetCell,
		TargetID:   uuid.New(),
	}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input for an undecided record, got %v", err)
	}

	// Unknown target type.
	if err := f.svc.OnApprovalDecided(context.Background(), &model.ApprovalRecord{
		ID:         uuid.New(),
		TargetType: model.ApprovalTargetType("WAREHOUSE"),
		TargetID:   uuid.New(),
		Decision:   &decision,
	}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input for an unknown target type, got %v", err)
	}

	// No listing service configured: the decision still stands.
	svc := NewZoneService(f.areaStore, f.cellStore, NewCellService(f.cellStore, f.areaStore, nil), nil, nil, zerolog.Nop())
	if err := svc.OnApprovalDecided(context.Background(), &model.ApprovalRecord{
		ID:         uuid.New(),
		TargetType: model.ApprovalTargetPopup,
		TargetID:   uuid.New(),
		Decision:   &decision,
	}); err != nil {
		t.Fatalf("expected a popup decision without a notifier to be tolerated, got %v", err)
	}
}
