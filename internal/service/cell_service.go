package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"zone-service/internal/geo"
	"zone-service/internal/model"
	"zone-service/internal/repository"
)

// CellStore is the persistence surface for cells.
// *repository.CellRepository is the production implementation.
type CellStore interface {
	Create(ctx context.Context, cell *model.Cell) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Cell, error)
	Update(ctx context.Context, cell *model.Cell) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter repository.CellListFilter, offset, limit int) ([]model.Cell, int64, error)
	ListByArea(ctx context.Context, areaID uuid.UUID) ([]model.Cell, error)
}

type CellService struct {
	cellRepo CellStore
	areaRepo AreaStore
	cache    AreaInvalidator
}

func NewCellService(cellRepo CellStore, areaRepo AreaStore, cache AreaInvalidator) *CellService {
	return &CellService{
		cellRepo: cellRepo,
		areaRepo: areaRepo,
		cache:    cache,
	}
}

type CreateCellInput struct {
	AreaID          uuid.UUID
	OwnerID         uuid.UUID
	Point           geo.Point
	Label           *string
	DetailedAddress *string
	Status          *model.CellStatus
	MaxCapacity     *int
	Notice          *string
}

func (s *CellService) Create(ctx context.Context, principal model.Principal, input CreateCellInput) (*model.Cell, error) {
	if !principal.IsAdmin() {
		return nil, ErrPermissionDenied
	}
	if input.AreaID == uuid.Nil {
		return nil, errorf(KindInvalidInput, "area id is required")
	}
	if input.OwnerID == uuid.Nil {
		return nil, errorf(KindInvalidInput, "owner id is required")
	}
	if input.MaxCapacity != nil && *input.MaxCapacity <= 0 {
		return nil, errorf(KindInvalidInput, "max capacity must be positive")
	}

	status := model.CellStatusPending
	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, errorf(KindInvalidInput, "unknown cell status %q", *input.Status)
		}
		status = *input.Status
	}

	area, err := s.areaRepo.GetByID(ctx, input.AreaID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errorf(KindNotFound, "area %s not found", input.AreaID)
		}
		return nil, err
	}
	if !area.AcceptsCells() {
		return nil, errorf(KindAreaUnavailable, "area %s is %s and not accepting cells", area.ID, area.Status)
	}

	if err := s.checkContainment(area, input.Point); err != nil {
		return nil, err
	}

	cell := &model.Cell{
		AreaID:          input.AreaID,
		OwnerID:         input.OwnerID,
		Label:           input.Label,
		DetailedAddress: input.DetailedAddress,
		Lat:             input.Point.Lat,
		Lng:             input.Point.Lng,
		Status:          status,
		MaxCapacity:     input.MaxCapacity,
		Notice:          input.Notice,
	}

	// The repository re-checks area existence inside its transaction, so a
	// concurrent area delete cannot leave an orphaned cell behind.
	if err := s.cellRepo.Create(ctx, cell); err != nil {
		if errors.Is(err, repository.ErrAreaMissing) {
			return nil, errorf(KindNotFound, "area %s not found", input.AreaID)
		}
		return nil, err
	}
	if s.cache != nil {
		s.cache.InvalidateArea(ctx, cell.AreaID)
	}

	return cell, nil
}

type UpdateCellInput struct {
	AreaID          *uuid.UUID // rejected when different from the current area
	OwnerID         *uuid.UUID
	Point           *geo.Point
	Label           *string
	DetailedAddress *string
	Status          *model.CellStatus
	MaxCapacity     *int
	Notice          *string
}

func (s *CellService) Update(ctx context.Context, principal model.Principal, id uuid.UUID, input UpdateCellInput) (*model.Cell, error) {
	if !principal.IsAdmin() {
		return nil, ErrPermissionDenied
	}

	cell, err := s.cellRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errorf(KindNotFound, "cell %s not found", id)
		}
		return nil, err
	}

	// Re-parenting would silently re-validate against a different polygon;
	// moving a cell is modeled as delete + recreate instead.
	if input.AreaID != nil && *input.AreaID != cell.AreaID {
		return nil, errorf(KindImmutableField, "cell %s cannot move from area %s to %s; delete and recreate instead",
			cell.ID, cell.AreaID, *input.AreaID)
	}

	if input.Point != nil {
		area, err := s.areaRepo.GetByID(ctx, cell.AreaID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, errorf(KindNotFound, "area %s not found", cell.AreaID)
			}
			return nil, err
		}
		if err := s.checkContainment(area, *input.Point); err != nil {
			return nil, err
		}
		cell.Lat = input.Point.Lat
		cell.Lng = input.Point.Lng
	}

	if input.OwnerID != nil {
		if *input.OwnerID == uuid.Nil {
			return nil, errorf(KindInvalidInput, "owner id is required")
		}
		cell.OwnerID = *input.OwnerID
	}
	if input.Label != nil {
		cell.Label = input.Label
	}
	if input.DetailedAddress != nil {
		cell.DetailedAddress = input.DetailedAddress
	}
	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, errorf(KindInvalidInput, "unknown cell status %q", *input.Status)
		}
		cell.Status = *input.Status
	}
	if input.MaxCapacity != nil {
		if *input.MaxCapacity <= 0 {
			return nil, errorf(KindInvalidInput, "max capacity must be positive")
		}
		cell.MaxCapacity = input.MaxCapacity
	}
	if input.Notice != nil {
		cell.Notice = input.Notice
	}

	if err := s.cellRepo.Update(ctx, cell); err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.InvalidateArea(ctx, cell.AreaID)
	}

	return cell, nil
}

func (s *CellService) Get(ctx context.Context, id uuid.UUID) (*model.Cell, error) {
	cell, err := s.cellRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errorf(KindNotFound, "cell %s not found", id)
		}
		return nil, err
	}
	return cell, nil
}

type CellPage struct {
	Items         []model.Cell `json:"items"`
	TotalElements int64        `json:"total_elements"`
	TotalPages    int          `json:"total_pages"`
	Page          int          `json:"page"`
	Size          int          `json:"size"`
}

func (s *CellService) List(ctx context.Context, filter repository.CellListFilter, page, size int) (*CellPage, error) {
	offset, limit, page, size := normalizePage(page, size)

	cells, total, err := s.cellRepo.List(ctx, filter, offset, limit)
	if err != nil {
		return nil, err
	}

	return &CellPage{
		Items:         cells,
		TotalElements: total,
		TotalPages:    totalPages(total, size),
		Page:          page,
		Size:          size,
	}, nil
}

// ListOwned pages the caller's own cells, the seller-facing read.
func (s *CellService) ListOwned(ctx context.Context, principal model.Principal, status *model.CellStatus, page, size int) (*CellPage, error) {
	ownerID := principal.UserID
	return s.List(ctx, repository.CellListFilter{OwnerID: &ownerID, Status: status}, page, size)
}

func (s *CellService) Delete(ctx context.Context, principal model.Principal, id uuid.UUID) error {
	if !principal.IsAdmin() {
		return ErrPermissionDenied
	}

	cell, err := s.cellRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return errorf(KindNotFound, "cell %s not found", id)
		}
		return err
	}

	if err := s.cellRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return errorf(KindNotFound, "cell %s not found", id)
		}
		return err
	}
	if s.cache != nil {
		s.cache.InvalidateArea(ctx, cell.AreaID)
	}

	return nil
}

// ApplyDecision moves a cell to the status implied by an approval
// decision. This is the sanctioned path out of PENDING; the zone
// orchestrator calls it when a CELL approval is decided.
func (s *CellService) ApplyDecision(ctx context.Context, cellID uuid.UUID, decision model.DecisionType) (*model.Cell, error) {
	cell, err := s.cellRepo.GetByID(ctx, cellID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errorf(KindNotFound, "cell %s not found", cellID)
		}
		return nil, err
	}

	switch decision {
	case model.DecisionApprove:
		cell.Status = model.CellStatusApproved
	case model.DecisionReject:
		cell.Status = model.CellStatusRejected
	default:
		return nil, errorf(KindInvalidInput, "unknown decision %q", decision)
	}

	if err := s.cellRepo.Update(ctx, cell); err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.InvalidateArea(ctx, cell.AreaID)
	}

	return cell, nil
}

func (s *CellService) checkContainment(area *model.Area, pt geo.Point) error {
	polygon, err := geo.Decode(area.PolygonGeoJSON)
	if err != nil {
		return wrapf(KindInvalidGeometry, err, "area %s has an unreadable polygon", area.ID)
	}
	if !geo.Contains(pt, polygon) {
		return errorf(KindOutsideArea, "point (%v, %v) is not strictly inside area %s", pt.Lat, pt.Lng, area.ID)
	}
	return nil
}
