package service

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"zone-service/internal/model"
	"zone-service/internal/repository"
)

// In-memory stores used across the service tests. They mirror the
// repository contracts, including the sentinel errors and the
// one-open-record rule the approval repository enforces in SQL.

type fakeAreaStore struct {
	areas map[uuid.UUID]*model.Area
}

func newFakeAreaStore() *fakeAreaStore {
	return &fakeAreaStore{areas: make(map[uuid.UUID]*model.Area)}
}

func (s *fakeAreaStore) Create(_ context.Context, area *model.Area) error {
	if area.ID == uuid.Nil {
		area.ID = uuid.New()
	}
	copied := *area
	s.areas[area.ID] = &copied
	return nil
}

func (s *fakeAreaStore) GetByID(_ context.Context, id uuid.UUID) (*model.Area, error) {
	area, ok := s.areas[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *area
	return &copied, nil
}

func (s *fakeAreaStore) Update(_ context.Context, area *model.Area) error {
	if _, ok := s.areas[area.ID]; !ok {
		return repository.ErrNotFound
	}
	copied := *area
	s.areas[area.ID] = &copied
	return nil
}

func (s *fakeAreaStore) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := s.areas[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.areas, id)
	return nil
}

func (s *fakeAreaStore) List(_ context.Context, filter repository.AreaListFilter, offset, limit int) ([]model.Area, int64, error) {
	var all []model.Area
	for _, area := range s.areas {
		if filter.ExcludeHidden && area.Status == model.AreaStatusHidden {
			continue
		}
		all = append(all, *area)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID.String() < all[j].ID.String() })

	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

type fakeCellStore struct {
	cells      map[uuid.UUID]*model.Cell
	deleteErrs map[uuid.UUID]error
}

func newFakeCellStore() *fakeCellStore {
	return &fakeCellStore{
		cells:      make(map[uuid.UUID]*model.Cell),
		deleteErrs: make(map[uuid.UUID]error),
	}
}

func (s *fakeCellStore) Create(_ context.Context, cell *model.Cell) error {
	if cell.ID == uuid.Nil {
		cell.ID = uuid.New()
	}
	copied := *cell
	s.cells[cell.ID] = &copied
	return nil
}

func (s *fakeCellStore) GetByID(_ context.Context, id uuid.UUID) (*model.Cell, error) {
	cell, ok := s.cells[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *cell
	return &copied, nil
}

func (s *fakeCellStore) Update(_ context.Context, cell *model.Cell) error {
	if _, ok := s.cells[cell.ID]; !ok {
		return repository.ErrNotFound
	}
	copied := *cell
	s.cells[cell.ID] = &copied
	return nil
}

func (s *fakeCellStore) Delete(_ context.Context, id uuid.UUID) error {
	if err, ok := s.deleteErrs[id]; ok {
		return err
	}
	if _, ok := s.cells[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.cells, id)
	return nil
}

func (s *fakeCellStore) List(_ context.Context, filter repository.CellListFilter, offset, limit int) ([]model.Cell, int64, error) {
	var all []model.Cell
	for _, cell := range s.cells {
		if filter.AreaID != nil && cell.AreaID != *filter.AreaID {
			continue
		}
		if filter.OwnerID != nil && cell.OwnerID != *filter.OwnerID {
			continue
		}
		if filter.Status != nil && cell.Status != *filter.Status {
			continue
		}
		all = append(all, *cell)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID.String() < all[j].ID.String() })

	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (s *fakeCellStore) ListByArea(_ context.Context, areaID uuid.UUID) ([]model.Cell, error) {
	var cells []model.Cell
	for _, cell := range s.cells {
		if cell.AreaID == areaID {
			cells = append(cells, *cell)
		}
	}
	sort.Slice(cells, func(i, j int) bool { return cells[i].ID.String() < cells[j].ID.String() })
	return cells, nil
}

type fakeApprovalStore struct {
	records map[uuid.UUID]*model.ApprovalRecord
}

func newFakeApprovalStore() *fakeApprovalStore {
	return &fakeApprovalStore{records: make(map[uuid.UUID]*model.ApprovalRecord)}
}

func (s *fakeApprovalStore) Submit(_ context.Context, record *model.ApprovalRecord) error {
	for _, existing := range s.records {
		if existing.Open() && existing.TargetType == record.TargetType && existing.TargetID == record.TargetID {
			return repository.ErrDuplicatePending
		}
	}
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	copied := *record
	s.records[record.ID] = &copied
	return nil
}

func (s *fakeApprovalStore) GetByID(_ context.Context, id uuid.UUID) (*model.ApprovalRecord, error) {
	record, ok := s.records[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *record
	return &copied, nil
}

func (s *fakeApprovalStore) Decide(_ context.Context, id uuid.UUID, apply func(*model.ApprovalRecord) error) (*model.ApprovalRecord, error) {
	record, ok := s.records[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if !record.Open() {
		return nil, repository.ErrAlreadyDecided
	}
	copied := *record
	if err := apply(&copied); err != nil {
		return nil, err
	}
	s.records[id] = &copied
	result := copied
	return &result, nil
}

func (s *fakeApprovalStore) ListPending(_ context.Context, offset, limit int) ([]model.ApprovalRecord, int64, error) {
	var pending []model.ApprovalRecord
	for _, record := range s.records {
		if record.Open() {
			pending = append(pending, *record)
		}
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].RequestedAt.Before(pending[j].RequestedAt) })

	total := int64(len(pending))
	if offset >= len(pending) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(pending) {
		end = len(pending)
	}
	return pending[offset:end], total, nil
}

type fakeRegionStore struct {
	regions map[uuid.UUID]*model.Region
}

func newFakeRegionStore() *fakeRegionStore {
	return &fakeRegionStore{regions: make(map[uuid.UUID]*model.Region)}
}

func (s *fakeRegionStore) GetByID(_ context.Context, id uuid.UUID) (*model.Region, error) {
	region, ok := s.regions[id]
	if !ok {
		return nil, nil
	}
	copied := *region
	return &copied, nil
}

type fakeZoneCache struct {
	entries       map[uuid.UUID][]byte
	invalidations int
}

func newFakeZoneCache() *fakeZoneCache {
	return &fakeZoneCache{entries: make(map[uuid.UUID][]byte)}
}

func (c *fakeZoneCache) GetAreaDetail(_ context.Context, areaID uuid.UUID) ([]byte, bool) {
	payload, ok := c.entries[areaID]
	return payload, ok
}

func (c *fakeZoneCache) SetAreaDetail(_ context.Context, areaID uuid.UUID, payload []byte) {
	c.entries[areaID] = payload
}

func (c *fakeZoneCache) InvalidateArea(_ context.Context, areaID uuid.UUID) {
	delete(c.entries, areaID)
	c.invalidations++
}

type fakeListingNotifier struct {
	calls []listingCall
	err   error
}

type listingCall struct {
	targetID uuid.UUID
	decision model.DecisionType
	reason   *string
}

func (n *fakeListingNotifier) NotifyDecision(_ context.Context, targetID uuid.UUID, decision model.DecisionType, reason *string) error {
	if n.err != nil {
		return n.err
	}
	n.calls = append(n.calls, listingCall{targetID: targetID, decision: decision, reason: reason})
	return nil
}
