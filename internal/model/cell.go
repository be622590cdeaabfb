package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CellStatus string

const (
	CellStatusPending  CellStatus = "PENDING"
	CellStatusApproved CellStatus = "APPROVED"
	CellStatusRejected CellStatus = "REJECTED"
	CellStatusHidden   CellStatus = "HIDDEN"
)

func (s CellStatus) Valid() bool {
	switch s {
	case CellStatusPending, CellStatusApproved, CellStatusRejected, CellStatusHidden:
		return true
	}
	return false
}

// Cell is a single owned sub-location inside an area. AreaID is immutable
// after creation; moving a cell is delete + recreate.
type Cell struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	AreaID          uuid.UUID  `gorm:"type:uuid;not null;index" json:"area_id"`
	OwnerID         uuid.UUID  `gorm:"type:uuid;not null;index" json:"owner_id"`
	Label           *string    `gorm:"type:varchar(255)" json:"label"`
	DetailedAddress *string    `gorm:"type:varchar(500)" json:"detailed_address"`
	Lat             float64    `gorm:"not null" json:"lat"`
	Lng             float64    `gorm:"not null" json:"lng"`
	Status          CellStatus `gorm:"type:cell_status;not null;default:PENDING" json:"status"`
	MaxCapacity     *int       `json:"max_capacity"`
	Notice          *string    `gorm:"type:text" json:"notice"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Cell) TableName() string {
	return "zone_cells"
}

func (c *Cell) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
