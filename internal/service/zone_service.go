package service

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"zone-service/internal/model"
	"zone-service/internal/repository"
)

// ZoneCacheStore is the read-model cache for area details. All methods
// are best effort; a miss or failure just falls through to the stores.
type ZoneCacheStore interface {
	GetAreaDetail(ctx context.Context, areaID uuid.UUID) ([]byte, bool)
	SetAreaDetail(ctx context.Context, areaID uuid.UUID, payload []byte)
	InvalidateArea(ctx context.Context, areaID uuid.UUID)
}

// ListingNotifier pushes POPUP approval decisions to the external
// listing service.
type ListingNotifier interface {
	NotifyDecision(ctx context.Context, targetID uuid.UUID, decision model.DecisionType, reason *string) error
}

// ZoneService composes the area and cell stores with the approval queue:
// the combined read model, cascading deletes, and the status changes an
// approval decision triggers.
type ZoneService struct {
	areaRepo AreaStore
	cellRepo CellStore
	cellSvc  *CellService
	cache    ZoneCacheStore
	listing  ListingNotifier
	log      zerolog.Logger
}

func NewZoneService(
	areaRepo AreaStore,
	cellRepo CellStore,
	cellSvc *CellService,
	cache ZoneCacheStore,
	listing ListingNotifier,
	log zerolog.Logger,
) *ZoneService {
	return &ZoneService{
		areaRepo: areaRepo,
		cellRepo: cellRepo,
		cellSvc:  cellSvc,
		cache:    cache,
		listing:  listing,
		log:      log,
	}
}

type AreaDetail struct {
	Area  model.Area   `json:"area"`
	Cells []model.Cell `json:"cells"`
}

// GetAreaWithCells returns the area and all of its cells: one area read
// plus one cell list query, no per-cell fan-out.
func (s *ZoneService) GetAreaWithCells(ctx context.Context, areaID uuid.UUID) (*AreaDetail, error) {
	if s.cache != nil {
		if payload, ok := s.cache.GetAreaDetail(ctx, areaID); ok {
			var detail AreaDetail
			if err := json.Unmarshal(payload, &detail); err == nil {
				return &detail, nil
			}
			s.cache.InvalidateArea(ctx, areaID)
		}
	}

	area, err := s.areaRepo.GetByID(ctx, areaID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errorf(KindNotFound, "area %s not found", areaID)
		}
		return nil, err
	}

	cells, err := s.cellRepo.ListByArea(ctx, areaID)
	if err != nil {
		return nil, err
	}

	detail := &AreaDetail{Area: *area, Cells: cells}

	if s.cache != nil {
		if payload, err := json.Marshal(detail); err == nil {
			s.cache.SetAreaDetail(ctx, areaID, payload)
		}
	}

	return detail, nil
}

// DeleteAreaCascade removes every cell of the area and then the area
// itself. The two phases are not one transaction: if a cell delete fails
// the area survives and the caller gets a PartialCascadeError naming the
// cells that are already gone.
func (s *ZoneService) DeleteAreaCascade(ctx context.Context, principal model.Principal, areaID uuid.UUID) error {
	if !principal.IsAdmin() {
		return ErrPermissionDenied
	}

	if _, err := s.areaRepo.GetByID(ctx, areaID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return errorf(KindNotFound, "area %s not found", areaID)
		}
		return err
	}

	cells, err := s.cellRepo.ListByArea(ctx, areaID)
	if err != nil {
		return err
	}

	deleted := make([]uuid.UUID, 0, len(cells))
	for _, cell := range cells {
		if err := s.cellRepo.Delete(ctx, cell.ID); err != nil {
			// A concurrently removed cell is fine; the goal is absence.
			if errors.Is(err, repository.ErrNotFound) {
				continue
			}
			return &PartialCascadeError{
				AreaID:         areaID,
				DeletedCellIDs: deleted,
				FailedCellID:   cell.ID,
				Err:            err,
			}
		}
		deleted = append(deleted, cell.ID)
	}

	if err := s.areaRepo.Delete(ctx, areaID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return errorf(KindNotFound, "area %s not found", areaID)
		}
		return err
	}

	if s.cache != nil {
		s.cache.InvalidateArea(ctx, areaID)
	}
	s.log.Info().
		Str("area_id", areaID.String()).
		Int("cells_deleted", len(deleted)).
		Msg("area cascade delete complete")

	return nil
}

// OnApprovalDecided reflects a decided approval record onto its target.
// CELL targets write through the cell service; POPUP targets are pushed
// to the listing service when a notifier is configured.
func (s *ZoneService) OnApprovalDecided(ctx context.Context, record *model.ApprovalRecord) error {
	if record.Decision == nil {
		return errorf(KindInvalidInput, "approval record %s carries no decision", record.ID)
	}

	switch record.TargetType {
	case model.ApprovalTargetCell:
		cell, err := s.cellSvc.ApplyDecision(ctx, record.TargetID, *record.Decision)
		if err != nil {
			return err
		}
		s.log.Info().
			Str("cell_id", cell.ID.String()).
			Str("status", string(cell.Status)).
			Msg("cell status updated from approval decision")
		return nil
	case model.ApprovalTargetPopup:
		if s.listing == nil {
			s.log.Warn().
				Str("record_id", record.ID.String()).
				Msg("no listing service configured; popup decision not forwarded")
			return nil
		}
		return s.listing.NotifyDecision(ctx, record.TargetID, *record.Decision, record.Reason)
	default:
		return errorf(KindInvalidInput, "unknown target type %q", record.TargetType)
	}
}
