package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/pkg/enums"
	"github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/pkg/types"
)

// PolygonVersion is one historical or current state of a store's coverage
// polygon. Rows are append-only: an update inserts the next version and flips
// the previous current row's is_current flag, never touching its geometry.
type PolygonVersion struct {
	ID            uuid.UUID         `gorm:"type:uuid;primaryKey"`
	StoreID       uuid.UUID         `gorm:"column:store_id;type:uuid;not null;index"`
	PolygonType   enums.PolygonType `gorm:"column:polygon_type;type:text;not null;index"`
	Ring          types.Ring        `gorm:"column:ring;type:text;not null"`
	VersionNumber int               `gorm:"column:version_number;not null"`
	IsCurrent     bool              `gorm:"column:is_current;not null;default:false;index"`
	Inactive      bool              `gorm:"column:inactive;not null;default:false;index"`
	Notes         *string           `gorm:"column:notes"`
	CreatedAt     time.Time         `gorm:"column:created_at;autoCreateTime"`
}

// BeforeCreate assigns the ID when the caller did not.
func (v *PolygonVersion) BeforeCreate(*gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}
