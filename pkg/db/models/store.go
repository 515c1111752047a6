package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Store is a retail location whose coverage polygons this service manages.
type Store struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	Code           *string   `gorm:"column:code;uniqueIndex"` // zero-padded short identifier, e.g. "014"
	Name           string    `gorm:"column:name;not null"`
	NormalizedName string    `gorm:"column:normalized_name;not null;index"`
	Longitude      float64   `gorm:"column:longitude;not null"`
	Latitude       float64   `gorm:"column:latitude;not null"`
	// No default tag: gorm omits zero values for defaulted columns, which
	// would persist Active=false rows as active. CreateStoreDTO supplies
	// the true default.
	Active bool `gorm:"column:active;not null"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeCreate assigns the ID when the caller did not.
func (s *Store) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
