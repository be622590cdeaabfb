package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AreaStatus string

const (
	AreaStatusAvailable   AreaStatus = "AVAILABLE"
	AreaStatusUnavailable AreaStatus = "UNAVAILABLE"
	AreaStatusHidden      AreaStatus = "HIDDEN"
)

func (s AreaStatus) Valid() bool {
	switch s {
	case AreaStatusAvailable, AreaStatusUnavailable, AreaStatusHidden:
		return true
	}
	return false
}

// Area is a named polygonal region. The polygon is persisted as GeoJSON
// text and only ever replaced as a whole.
type Area struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	RegionID       *uuid.UUID `gorm:"type:uuid;index" json:"region_id"`
	Name           string     `gorm:"type:varchar(255);not null" json:"name"`
	PolygonGeoJSON string     `gorm:"column:polygon_geojson;type:text;not null" json:"polygon_geojson"`
	Status         AreaStatus `gorm:"type:area_status;not null;default:AVAILABLE" json:"status"`
	MaxCapacity    *int       `json:"max_capacity"`
	Notice         *string    `gorm:"type:text" json:"notice"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Area) TableName() string {
	return "zone_areas"
}

func (a *Area) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// AcceptsCells reports whether new cells may be registered in the area.
func (a *Area) AcceptsCells() bool {
	return a.Status == AreaStatusAvailable
}
