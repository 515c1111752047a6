package polygons

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/internal/geometry"
	"github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/pkg/db/models"
	"github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/pkg/enums"
	pkgerrors "github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/pkg/errors"
)

type versionRepository interface {
	DB(ctx context.Context) *gorm.DB
	MaxVersionWithTx(tx *gorm.DB, storeID uuid.UUID, polygonType enums.PolygonType) (int, error)
	ClearCurrentWithTx(tx *gorm.DB, storeID uuid.UUID, polygonType enums.PolygonType) error
	CreateWithTx(tx *gorm.DB, version *models.PolygonVersion) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.PolygonVersion, error)
	FindCurrent(ctx context.Context, storeID uuid.UUID, polygonType enums.PolygonType) (*models.PolygonVersion, error)
	History(ctx context.Context, storeID uuid.UUID, polygonType enums.PolygonType) ([]models.PolygonVersion, error)
	ListCurrent(ctx context.Context, polygonType *enums.PolygonType) ([]models.PolygonVersion, error)
	ListForStore(ctx context.Context, storeID uuid.UUID, polygonType *enums.PolygonType, currentOnly bool) ([]models.PolygonVersion, error)
	SetInactive(ctx context.Context, id uuid.UUID) error
}

type storeLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error)
}

// Invalidator is notified after any polygon mutation so derived caches can
// drop stale geometry.
type Invalidator interface {
	Invalidate(ctx context.Context)
}

// Service exposes the append-only polygon version store.
type Service interface {
	CreateVersion(ctx context.Context, input CreateVersionInput) (*VersionDTO, error)
	GetByID(ctx context.Context, id uuid.UUID) (*VersionDTO, error)
	Current(ctx context.Context, storeID uuid.UUID, polygonType enums.PolygonType) (*VersionDTO, error)
	History(ctx context.Context, storeID uuid.UUID, polygonType enums.PolygonType) ([]VersionDTO, error)
	ListCurrent(ctx context.Context, polygonType *enums.PolygonType) ([]VersionDTO, error)
	ListForStore(ctx context.Context, storeID uuid.UUID, polygonType *enums.PolygonType, currentOnly bool) ([]VersionDTO, error)
	Deactivate(ctx context.Context, id uuid.UUID) (*VersionDTO, error)
}

type service struct {
	repo        versionRepository
	stores      storeLookup
	invalidator Invalidator

	// Serializes writers per (store, polygon type) lineage within this
	// process; the partial unique index backstops concurrent processes.
	mu       sync.Mutex
	lineages map[string]*sync.Mutex
}

// NewService builds a polygon version service.
func NewService(repo versionRepository, stores storeLookup, invalidator Invalidator) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("polygon repository required")
	}
	if stores == nil {
		return nil, fmt.Errorf("store lookup required")
	}
	return &service{
		repo:        repo,
		stores:      stores,
		invalidator: invalidator,
		lineages:    map[string]*sync.Mutex{},
	}, nil
}

func (s *service) lineageLock(storeID uuid.UUID, polygonType enums.PolygonType) *sync.Mutex {
	key := storeID.String() + "/" + string(polygonType)
	s.mu.Lock()
	defer s.mu.Unlock()
	if lock, ok := s.lineages[key]; ok {
		return lock
	}
	lock := &sync.Mutex{}
	s.lineages[key] = lock
	return lock
}

func (s *service) CreateVersion(ctx context.Context, input CreateVersionInput) (*VersionDTO, error) {
	if !input.PolygonType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid polygon type")
	}

	ring, err := geometry.ValidateRing(input.Ring)
	if err != nil {
		return nil, err
	}

	if _, err := s.stores.FindByID(ctx, input.StoreID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store")
	}

	lock := s.lineageLock(input.StoreID, input.PolygonType)
	lock.Lock()
	defer lock.Unlock()

	version := &models.PolygonVersion{
		StoreID:     input.StoreID,
		PolygonType: input.PolygonType,
		Ring:        ring,
		IsCurrent:   true,
		Notes:       input.Notes,
	}

	txErr := s.repo.DB(ctx).Transaction(func(tx *gorm.DB) error {
		max, err := s.repo.MaxVersionWithTx(tx, input.StoreID, input.PolygonType)
		if err != nil {
			return err
		}
		if err := s.repo.ClearCurrentWithTx(tx, input.StoreID, input.PolygonType); err != nil {
			return err
		}
		version.VersionNumber = max + 1
		return s.repo.CreateWithTx(tx, version)
	})
	if txErr != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, txErr, "append polygon version")
	}

	s.invalidate(ctx)
	return FromModel(version), nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*VersionDTO, error) {
	version, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "polygon version not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load polygon version")
	}
	return FromModel(version), nil
}

func (s *service) Current(ctx context.Context, storeID uuid.UUID, polygonType enums.PolygonType) (*VersionDTO, error) {
	if !polygonType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid polygon type")
	}
	version, err := s.repo.FindCurrent(ctx, storeID, polygonType)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no current polygon for store")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load current polygon")
	}
	return FromModel(version), nil
}

func (s *service) History(ctx context.Context, storeID uuid.UUID, polygonType enums.PolygonType) ([]VersionDTO, error) {
	if !polygonType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid polygon type")
	}
	rows, err := s.repo.History(ctx, storeID, polygonType)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load polygon history")
	}
	return fromModels(rows), nil
}

func (s *service) ListCurrent(ctx context.Context, polygonType *enums.PolygonType) ([]VersionDTO, error) {
	if polygonType != nil && !polygonType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid polygon type")
	}
	rows, err := s.repo.ListCurrent(ctx, polygonType)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list current polygons")
	}
	return fromModels(rows), nil
}

func (s *service) ListForStore(ctx context.Context, storeID uuid.UUID, polygonType *enums.PolygonType, currentOnly bool) ([]VersionDTO, error) {
	if polygonType != nil && !polygonType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid polygon type")
	}
	if _, err := s.stores.FindByID(ctx, storeID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store")
	}
	rows, err := s.repo.ListForStore(ctx, storeID, polygonType, currentOnly)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list store polygons")
	}
	return fromModels(rows), nil
}

func (s *service) Deactivate(ctx context.Context, id uuid.UUID) (*VersionDTO, error) {
	version, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "polygon version not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load polygon version")
	}

	if version.Inactive {
		return FromModel(version), nil
	}

	if err := s.repo.SetInactive(ctx, id); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate polygon version")
	}
	version.Inactive = true
	version.IsCurrent = false

	s.invalidate(ctx)
	return FromModel(version), nil
}

func (s *service) invalidate(ctx context.Context) {
	if s.invalidator != nil {
		s.invalidator.Invalidate(ctx)
	}
}
