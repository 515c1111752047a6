package stores

import (
	"time"

	"github.com/google/uuid"

	"github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/pkg/db/models"
)

// StoreDTO exposes store registry data in API responses.
type StoreDTO struct {
	ID             uuid.UUID `json:"id"`
	Code           *string   `json:"code,omitempty"`
	Name           string    `json:"name"`
	NormalizedName string    `json:"normalized_name"`
	Longitude      float64   `json:"longitude"`
	Latitude       float64   `json:"latitude"`
	Active         bool      `json:"active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// CreateStoreDTO holds creation-time data for a new store.
type CreateStoreDTO struct {
	Code      *string
	Name      string
	Longitude float64
	Latitude  float64
	Active    *bool
}

// FromModel maps the persisted store into a DTO.
func FromModel(m *models.Store) *StoreDTO {
	if m == nil {
		return nil
	}
	return &StoreDTO{
		ID:             m.ID,
		Code:           m.Code,
		Name:           m.Name,
		NormalizedName: m.NormalizedName,
		Longitude:      m.Longitude,
		Latitude:       m.Latitude,
		Active:         m.Active,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

// ToModel prepares the GORM model from creation DTO, supplying defaults.
func (c CreateStoreDTO) ToModel() *models.Store {
	model := &models.Store{
		Code:           c.Code,
		Name:           c.Name,
		NormalizedName: NormalizeName(c.Name),
		Longitude:      c.Longitude,
		Latitude:       c.Latitude,
		Active:         true,
	}
	if c.Active != nil {
		model.Active = *c.Active
	}
	return model
}
