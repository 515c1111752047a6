package geospatial

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/internal/geometry"
	"github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/internal/polygons"
	"github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/pkg/config"
	"github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/pkg/db/models"
	"github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/pkg/enums"
	pkgerrors "github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/pkg/errors"
	"github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/pkg/metrics"
	"github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/pkg/types"
)

type polygonSource interface {
	ListCurrent(ctx context.Context, polygonType *enums.PolygonType) ([]polygons.VersionDTO, error)
}

type storeLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error)
}

// Cache memoizes StoreForPoint answers. Implementations embed a
// generation counter in their keys so polygon mutations invalidate in one
// step.
type Cache interface {
	Get(ctx context.Context, pt types.Coordinate, polygonType *enums.PolygonType) (string, bool)
	Set(ctx context.Context, pt types.Coordinate, polygonType *enums.PolygonType, payload string)
}

// Service answers spatial questions against the current polygon set.
type Service interface {
	PointCheck(ctx context.Context, pt types.Coordinate, polygonType *enums.PolygonType, storeID *uuid.UUID) (*PointCheckResult, error)
	BulkPointCheck(ctx context.Context, pts []types.Coordinate, polygonType *enums.PolygonType) (*BulkPointCheckResult, error)
	Overlaps(ctx context.Context, polygonType *enums.PolygonType, storeID *uuid.UUID, crossStoreOnly bool) ([]Overlap, error)
	StoreForPoint(ctx context.Context, pt types.Coordinate, polygonType *enums.PolygonType) (*StoreMatch, error)
}

type service struct {
	polygons polygonSource
	stores   storeLookup
	cache    Cache
	metrics  *metrics.GeoQueryMetrics
	geoCfg   config.GeoConfig
}

// NewService builds the spatial query service. Cache and metrics are
// optional.
func NewService(src polygonSource, stores storeLookup, cache Cache, m *metrics.GeoQueryMetrics, geoCfg config.GeoConfig) (Service, error) {
	if src == nil {
		return nil, fmt.Errorf("polygon source required")
	}
	if stores == nil {
		return nil, fmt.Errorf("store lookup required")
	}
	if geoCfg.MaxBulkPoints <= 0 {
		geoCfg.MaxBulkPoints = 1000
	}
	return &service{
		polygons: src,
		stores:   stores,
		cache:    cache,
		metrics:  m,
		geoCfg:   geoCfg,
	}, nil
}

func validatePoint(pt types.Coordinate) error {
	if !pt.Valid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "coordinate out of geographic range")
	}
	return nil
}

func (s *service) PointCheck(ctx context.Context, pt types.Coordinate, polygonType *enums.PolygonType, storeID *uuid.UUID) (*PointCheckResult, error) {
	if err := validatePoint(pt); err != nil {
		return nil, err
	}
	if polygonType != nil && !polygonType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid polygon type")
	}

	current, err := s.polygons.ListCurrent(ctx, polygonType)
	if err != nil {
		return nil, err
	}
	current = filterByStore(current, storeID)

	s.metrics.AddPointsChecked(1)
	matches := s.containments(pt, current)
	if len(matches) > 0 {
		s.metrics.AddPointsContained(1)
	}
	return &PointCheckResult{Coordinate: pt, Contained: len(matches) > 0, Matches: matches}, nil
}

func (s *service) BulkPointCheck(ctx context.Context, pts []types.Coordinate, polygonType *enums.PolygonType) (*BulkPointCheckResult, error) {
	if len(pts) > s.geoCfg.MaxBulkPoints {
		return nil, pkgerrors.New(pkgerrors.CodeTooManyPoints, "too many points in bulk request").
			WithDetails(map[string]int{"max": s.geoCfg.MaxBulkPoints, "got": len(pts)})
	}
	if polygonType != nil && !polygonType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid polygon type")
	}
	for i, pt := range pts {
		if err := validatePoint(pt); err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "coordinate out of geographic range").
				WithDetails(map[string]int{"index": i})
		}
	}

	current, err := s.polygons.ListCurrent(ctx, polygonType)
	if err != nil {
		return nil, err
	}

	results := make([]PointCheckResult, 0, len(pts))
	contained := 0
	for _, pt := range pts {
		matches := s.containments(pt, current)
		if len(matches) > 0 {
			contained++
		}
		results = append(results, PointCheckResult{Coordinate: pt, Contained: len(matches) > 0, Matches: matches})
	}
	s.metrics.AddPointsChecked(len(pts))
	s.metrics.AddPointsContained(contained)
	return &BulkPointCheckResult{Results: results, TotalChecked: len(pts), TotalContained: contained}, nil
}

func (s *service) containments(pt types.Coordinate, current []polygons.VersionDTO) []Containment {
	out := []Containment{}
	for i := range current {
		v := &current[i]
		if geometry.PointInRing(pt, v.Ring) {
			out = append(out, Containment{
				StoreID:       v.StoreID,
				PolygonType:   v.PolygonType,
				VersionID:     v.ID,
				VersionNumber: v.VersionNumber,
			})
		}
	}
	return out
}

func (s *service) Overlaps(ctx context.Context, polygonType *enums.PolygonType, storeID *uuid.UUID, crossStoreOnly bool) ([]Overlap, error) {
	if polygonType != nil && !polygonType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid polygon type")
	}

	current, err := s.polygons.ListCurrent(ctx, polygonType)
	if err != nil {
		return nil, err
	}

	// Stable pair order regardless of DB row order.
	sort.Slice(current, func(i, j int) bool {
		return current[i].ID.String() < current[j].ID.String()
	})

	out := []Overlap{}
	for i := 0; i < len(current); i++ {
		for j := i + 1; j < len(current); j++ {
			a, b := &current[i], &current[j]
			if storeID != nil && a.StoreID != *storeID && b.StoreID != *storeID {
				continue
			}
			if crossStoreOnly && a.StoreID == b.StoreID {
				continue
			}
			if !geometry.RingsOverlap(a.Ring, b.Ring) {
				continue
			}
			out = append(out, Overlap{
				StoreA:       a.StoreID,
				PolygonTypeA: a.PolygonType,
				VersionA:     a.ID,
				StoreB:       b.StoreID,
				PolygonTypeB: b.PolygonType,
				VersionB:     b.ID,
				Area:         geometry.OverlapArea(a.Ring, b.Ring),
			})
		}
	}
	s.metrics.AddOverlapPairs(len(out))
	return out, nil
}

// StoreForPoint resolves the single best store for the point. A nil match
// with a nil error means no current polygon contains it.
func (s *service) StoreForPoint(ctx context.Context, pt types.Coordinate, polygonType *enums.PolygonType) (*StoreMatch, error) {
	if err := validatePoint(pt); err != nil {
		return nil, err
	}
	if polygonType != nil && !polygonType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid polygon type")
	}

	if s.cache != nil {
		if payload, ok := s.cache.Get(ctx, pt, polygonType); ok {
			s.metrics.IncCacheHit()
			return decodeCachedMatch(payload)
		}
		s.metrics.IncCacheMiss()
	}

	current, err := s.polygons.ListCurrent(ctx, polygonType)
	if err != nil {
		return nil, err
	}
	s.metrics.AddPointsChecked(1)

	best := pickBest(pt, current)
	if best == nil {
		if s.cache != nil {
			s.cache.Set(ctx, pt, polygonType, cacheNone)
		}
		return nil, nil
	}
	s.metrics.AddPointsContained(1)

	store, err := s.stores.FindByID(ctx, best.StoreID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load matched store")
	}

	match := &StoreMatch{
		StoreID:       store.ID,
		StoreName:     store.Name,
		StoreCode:     store.Code,
		PolygonType:   best.PolygonType,
		VersionID:     best.ID,
		VersionNumber: best.VersionNumber,
	}
	if s.cache != nil {
		if payload, err := json.Marshal(match); err == nil {
			s.cache.Set(ctx, pt, polygonType, string(payload))
		}
	}
	return match, nil
}

// pickBest resolves multi-containment deterministically: dedicated polygons
// beat delivery ones, then the smaller ring wins, then the lowest version ID.
func pickBest(pt types.Coordinate, current []polygons.VersionDTO) *polygons.VersionDTO {
	var best *polygons.VersionDTO
	var bestArea float64
	for i := range current {
		v := &current[i]
		if !geometry.PointInRing(pt, v.Ring) {
			continue
		}
		area := geometry.Area(v.Ring)
		if best == nil || betterMatch(v, area, best, bestArea) {
			best, bestArea = v, area
		}
	}
	return best
}

func betterMatch(candidate *polygons.VersionDTO, candidateArea float64, best *polygons.VersionDTO, bestArea float64) bool {
	if candidate.PolygonType != best.PolygonType {
		return candidate.PolygonType == enums.PolygonTypeDedicated
	}
	if candidateArea != bestArea {
		return candidateArea < bestArea
	}
	return candidate.ID.String() < best.ID.String()
}

const cacheNone = "none"

func filterByStore(current []polygons.VersionDTO, storeID *uuid.UUID) []polygons.VersionDTO {
	if storeID == nil {
		return current
	}
	out := current[:0]
	for _, v := range current {
		if v.StoreID == *storeID {
			out = append(out, v)
		}
	}
	return out
}

func decodeCachedMatch(payload string) (*StoreMatch, error) {
	if payload == cacheNone {
		return nil, nil
	}
	var match StoreMatch
	if err := json.Unmarshal([]byte(payload), &match); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode cached match")
	}
	return &match, nil
}
