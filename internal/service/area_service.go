package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"zone-service/internal/geo"
	"zone-service/internal/model"
	"zone-service/internal/repository"
)

// AreaStore is the persistence surface the area and zone services need.
// *repository.AreaRepository is the production implementation.
type AreaStore interface {
	Create(ctx context.Context, area *model.Area) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Area, error)
	Update(ctx context.Context, area *model.Area) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter repository.AreaListFilter, offset, limit int) ([]model.Area, int64, error)
}

type RegionStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Region, error)
}

// AreaInvalidator drops cached read models for an area after a write.
type AreaInvalidator interface {
	InvalidateArea(ctx context.Context, areaID uuid.UUID)
}

type AreaService struct {
	areaRepo   AreaStore
	regionRepo RegionStore
	cache      AreaInvalidator
}

func NewAreaService(areaRepo AreaStore, regionRepo RegionStore, cache AreaInvalidator) *AreaService {
	return &AreaService{
		areaRepo:   areaRepo,
		regionRepo: regionRepo,
		cache:      cache,
	}
}

type CreateAreaInput struct {
	Name        string
	Polygon     geo.Polygon
	Status      *model.AreaStatus
	MaxCapacity *int
	Notice      *string
	RegionID    *uuid.UUID
}

func (s *AreaService) Create(ctx context.Context, principal model.Principal, input CreateAreaInput) (*model.Area, error) {
	if !principal.IsAdmin() {
		return nil, ErrPermissionDenied
	}
	if input.Name == "" {
		return nil, errorf(KindInvalidInput, "area name is required")
	}
	if input.MaxCapacity != nil && *input.MaxCapacity <= 0 {
		return nil, errorf(KindInvalidInput, "max capacity must be positive")
	}

	status := model.AreaStatusAvailable
	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, errorf(KindInvalidInput, "unknown area status %q", *input.Status)
		}
		status = *input.Status
	}

	encoded, err := s.encodePolygon(input.Polygon)
	if err != nil {
		return nil, err
	}

	regionID, err := s.resolveRegion(ctx, input.RegionID)
	if err != nil {
		return nil, err
	}

	area := &model.Area{
		RegionID:       regionID,
		Name:           input.Name,
		PolygonGeoJSON: encoded,
		Status:         status,
		MaxCapacity:    input.MaxCapacity,
		Notice:         input.Notice,
	}

	if err := s.areaRepo.Create(ctx, area); err != nil {
		return nil, err
	}

	return area, nil
}

type UpdateAreaInput struct {
	Name        *string
	Polygon     geo.Polygon // nil leaves the geometry unchanged; non-nil replaces it whole
	Status      *model.AreaStatus
	MaxCapacity *int
	Notice      *string
	RegionID    *uuid.UUID
}

func (s *AreaService) Update(ctx context.Context, principal model.Principal, id uuid.UUID, input UpdateAreaInput) (*model.Area, error) {
	if !principal.IsAdmin() {
		return nil, ErrPermissionDenied
	}

	area, err := s.areaRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errorf(KindNotFound, "area %s not found", id)
		}
		return nil, err
	}

	if input.Name != nil {
		if *input.Name == "" {
			return nil, errorf(KindInvalidInput, "area name is required")
		}
		area.Name = *input.Name
	}
	if input.Polygon != nil {
		encoded, err := s.encodePolygon(input.Polygon)
		if err != nil {
			return nil, err
		}
		area.PolygonGeoJSON = encoded
	}
	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, errorf(KindInvalidInput, "unknown area status %q", *input.Status)
		}
		area.Status = *input.Status
	}
	if input.MaxCapacity != nil {
		if *input.MaxCapacity <= 0 {
			return nil, errorf(KindInvalidInput, "max capacity must be positive")
		}
		area.MaxCapacity = input.MaxCapacity
	}
	if input.Notice != nil {
		area.Notice = input.Notice
	}
	if input.RegionID != nil {
		regionID, err := s.resolveRegion(ctx, input.RegionID)
		if err != nil {
			return nil, err
		}
		area.RegionID = regionID
	}

	if err := s.areaRepo.Update(ctx, area); err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.InvalidateArea(ctx, area.ID)
	}

	return area, nil
}

func (s *AreaService) Get(ctx context.Context, id uuid.UUID) (*model.Area, error) {
	area, err := s.areaRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errorf(KindNotFound, "area %s not found", id)
		}
		return nil, err
	}
	return area, nil
}

type AreaPage struct {
	Items         []model.Area `json:"items"`
	TotalElements int64        `json:"total_elements"`
	TotalPages    int          `json:"total_pages"`
	Page          int          `json:"page"`
	Size          int          `json:"size"`
}

func (s *AreaService) List(ctx context.Context, filter repository.AreaListFilter, page, size int) (*AreaPage, error) {
	offset, limit, page, size := normalizePage(page, size)

	areas, total, err := s.areaRepo.List(ctx, filter, offset, limit)
	if err != nil {
		return nil, err
	}

	return &AreaPage{
		Items:         areas,
		TotalElements: total,
		TotalPages:    totalPages(total, size),
		Page:          page,
		Size:          size,
	}, nil
}

// encodePolygon validates and serializes a polygon, mapping geometry
// failures to INVALID_GEOMETRY with the offending vertex in the message.
func (s *AreaService) encodePolygon(p geo.Polygon) (string, error) {
	if err := geo.Validate(p); err != nil {
		return "", wrapf(KindInvalidGeometry, err, "polygon rejected")
	}
	encoded, err := geo.Encode(p)
	if err != nil {
		return "", wrapf(KindInvalidGeometry, err, "polygon rejected")
	}
	return encoded, nil
}

// resolveRegion drops unknown region ids silently; the reference is weak
// and only used for lookups.
func (s *AreaService) resolveRegion(ctx context.Context, id *uuid.UUID) (*uuid.UUID, error) {
	if id == nil || *id == uuid.Nil {
		return nil, nil
	}
	region, err := s.regionRepo.GetByID(ctx, *id)
	if err != nil {
		return nil, err
	}
	if region == nil {
		return nil, nil
	}
	return &region.ID, nil
}
