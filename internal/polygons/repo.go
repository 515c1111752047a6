package polygons

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/internal/repo"
	"github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/pkg/db/models"
	"github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/pkg/enums"
)

// Repository handles polygon version persistence. Versions are append-only:
// rows are inserted and flagged, never deleted or rewritten.
type Repository struct {
	repo.Base
}

// NewRepository binds a GORM DB to polygon version operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// MaxVersionWithTx returns the highest version number in the lineage, 0 when
// the lineage is empty.
func (r *Repository) MaxVersionWithTx(tx *gorm.DB, storeID uuid.UUID, polygonType enums.PolygonType) (int, error) {
	if tx == nil {
		return 0, gorm.ErrInvalidTransaction
	}
	var max *int
	err := tx.Model(&models.PolygonVersion{}).
		Where("store_id = ? AND polygon_type = ?", storeID, polygonType).
		Select("MAX(version_number)").
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	if max == nil {
		return 0, nil
	}
	return *max, nil
}

// ClearCurrentWithTx unsets the current flag on the lineage's current version.
func (r *Repository) ClearCurrentWithTx(tx *gorm.DB, storeID uuid.UUID, polygonType enums.PolygonType) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	return tx.Model(&models.PolygonVersion{}).
		Where("store_id = ? AND polygon_type = ? AND is_current = ?", storeID, polygonType, true).
		Update("is_current", false).Error
}

// CreateWithTx inserts the new version row inside the transaction.
func (r *Repository) CreateWithTx(tx *gorm.DB, version *models.PolygonVersion) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	return tx.Create(version).Error
}

// FindByID loads a single version.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.PolygonVersion, error) {
	var version models.PolygonVersion
	if err := r.DB(ctx).Where("id = ?", id).First(&version).Error; err != nil {
		return nil, err
	}
	return &version, nil
}

// FindCurrent returns the current, active version for the lineage.
func (r *Repository) FindCurrent(ctx context.Context, storeID uuid.UUID, polygonType enums.PolygonType) (*models.PolygonVersion, error) {
	var version models.PolygonVersion
	err := r.DB(ctx).
		Where("store_id = ? AND polygon_type = ? AND is_current = ? AND inactive = ?",
			storeID, polygonType, true, false).
		First(&version).Error
	if err != nil {
		return nil, err
	}
	return &version, nil
}

// History returns every version in the lineage, oldest first.
func (r *Repository) History(ctx context.Context, storeID uuid.UUID, polygonType enums.PolygonType) ([]models.PolygonVersion, error) {
	var rows []models.PolygonVersion
	err := r.DB(ctx).
		Where("store_id = ? AND polygon_type = ?", storeID, polygonType).
		Order("version_number asc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListCurrent returns every current, active version belonging to an active
// store, optionally filtered by polygon type.
func (r *Repository) ListCurrent(ctx context.Context, polygonType *enums.PolygonType) ([]models.PolygonVersion, error) {
	q := r.DB(ctx).
		Model(&models.PolygonVersion{}).
		Joins("JOIN stores ON stores.id = polygon_versions.store_id AND stores.active = ?", true).
		Where("polygon_versions.is_current = ? AND polygon_versions.inactive = ?", true, false)
	if polygonType != nil {
		q = q.Where("polygon_versions.polygon_type = ?", *polygonType)
	}
	var rows []models.PolygonVersion
	if err := q.Order("polygon_versions.created_at asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListForStore returns a store's versions, optionally filtered by polygon
// type and narrowed to current active versions only.
func (r *Repository) ListForStore(ctx context.Context, storeID uuid.UUID, polygonType *enums.PolygonType, currentOnly bool) ([]models.PolygonVersion, error) {
	q := r.DB(ctx).Where("store_id = ?", storeID)
	if polygonType != nil {
		q = q.Where("polygon_type = ?", *polygonType)
	}
	if currentOnly {
		q = q.Where("is_current = ? AND inactive = ?", true, false)
	}
	var rows []models.PolygonVersion
	if err := q.Order("polygon_type asc, version_number asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// SetInactive retires the version: inactive is set and the current flag is
// cleared in one UPDATE. Flagging an already inactive version is a no-op.
func (r *Repository) SetInactive(ctx context.Context, id uuid.UUID) error {
	return r.DB(ctx).Model(&models.PolygonVersion{}).
		Where("id = ?", id).
		Updates(map[string]any{"inactive": true, "is_current": false}).Error
}
