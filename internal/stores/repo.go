package stores

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/internal/repo"
	"github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/pkg/db/models"
)

// Repository handles store persistence.
type Repository struct {
	repo.Base
}

// NewRepository binds a GORM DB to store operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// Create persists a new store row.
func (r *Repository) Create(ctx context.Context, dto CreateStoreDTO) (*models.Store, error) {
	store := dto.ToModel()
	if err := r.DB(ctx).Create(store).Error; err != nil {
		return nil, err
	}
	return store, nil
}

// FindByID loads a store by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error) {
	var store models.Store
	if err := r.DB(ctx).Where("id = ?", id).First(&store).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

// FindByCode loads a store by its short numeric code ("014").
func (r *Repository) FindByCode(ctx context.Context, code string) (*models.Store, error) {
	var store models.Store
	if err := r.DB(ctx).Where("code = ?", code).First(&store).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

// List returns stores ordered by name. When activeOnly is set, inactive
// stores are excluded.
func (r *Repository) List(ctx context.Context, activeOnly bool) ([]models.Store, error) {
	q := r.DB(ctx).Order("name asc")
	if activeOnly {
		q = q.Where("active = ?", true)
	}
	var out []models.Store
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Update saves the provided store.
func (r *Repository) Update(ctx context.Context, store *models.Store) error {
	if store == nil {
		return fmt.Errorf("store is required")
	}
	return r.DB(ctx).Save(store).Error
}
