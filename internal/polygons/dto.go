package polygons

import (
	"time"

	"github.com/google/uuid"

	"github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/pkg/db/models"
	"github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/pkg/enums"
	"github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/pkg/types"
)

// VersionDTO exposes a stored polygon version in API responses.
type VersionDTO struct {
	ID            uuid.UUID         `json:"id"`
	StoreID       uuid.UUID         `json:"store_id"`
	PolygonType   enums.PolygonType `json:"polygon_type"`
	Ring          types.Ring        `json:"ring"`
	VersionNumber int               `json:"version_number"`
	IsCurrent     bool              `json:"is_current"`
	Inactive      bool              `json:"inactive"`
	Notes         *string           `json:"notes,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
}

// CreateVersionInput captures the data required to append a polygon version.
type CreateVersionInput struct {
	StoreID     uuid.UUID
	PolygonType enums.PolygonType
	Ring        types.Ring
	Notes       *string
}

// FromModel maps the persisted version into a DTO.
func FromModel(m *models.PolygonVersion) *VersionDTO {
	if m == nil {
		return nil
	}
	return &VersionDTO{
		ID:            m.ID,
		StoreID:       m.StoreID,
		PolygonType:   m.PolygonType,
		Ring:          m.Ring,
		VersionNumber: m.VersionNumber,
		IsCurrent:     m.IsCurrent,
		Inactive:      m.Inactive,
		Notes:         m.Notes,
		CreatedAt:     m.CreatedAt,
	}
}

func fromModels(rows []models.PolygonVersion) []VersionDTO {
	out := make([]VersionDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out
}
