package geospatial

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/google/uuid"

	"github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/internal/polygons"
	"github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/pkg/config"
	"github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/pkg/db/models"
	"github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/pkg/enums"
	pkgerrors "github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/pkg/errors"
	"github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/pkg/types"
)

type stubPolygonSource struct {
	rows []polygons.VersionDTO
	err  error
}

func (s *stubPolygonSource) ListCurrent(_ context.Context, polygonType *enums.PolygonType) ([]polygons.VersionDTO, error) {
	if s.err != nil {
		return nil, s.err
	}
	if polygonType == nil {
		return s.rows, nil
	}
	out := []polygons.VersionDTO{}
	for _, v := range s.rows {
		if v.PolygonType == *polygonType {
			out = append(out, v)
		}
	}
	return out, nil
}

type stubStoreLookup struct {
	stores map[uuid.UUID]*models.Store
}

func (s *stubStoreLookup) FindByID(_ context.Context, id uuid.UUID) (*models.Store, error) {
	store, ok := s.stores[id]
	if !ok {
		return nil, fmt.Errorf("store %s missing", id)
	}
	return store, nil
}

type memCache struct {
	data   map[string]string
	hits   int
	writes int
}

func newMemCache() *memCache { return &memCache{data: map[string]string{}} }

func (c *memCache) cacheKey(pt types.Coordinate, polygonType *enums.PolygonType) string {
	scope := "any"
	if polygonType != nil {
		scope = string(*polygonType)
	}
	return fmt.Sprintf("%s/%f/%f", scope, pt.Longitude, pt.Latitude)
}

func (c *memCache) Get(_ context.Context, pt types.Coordinate, polygonType *enums.PolygonType) (string, bool) {
	payload, ok := c.data[c.cacheKey(pt, polygonType)]
	if ok {
		c.hits++
	}
	return payload, ok
}

func (c *memCache) Set(_ context.Context, pt types.Coordinate, polygonType *enums.PolygonType, payload string) {
	c.writes++
	c.data[c.cacheKey(pt, polygonType)] = payload
}

func ringAround(minLon, minLat, maxLon, maxLat float64) types.Ring {
	return types.Ring{
		{Longitude: minLon, Latitude: minLat},
		{Longitude: maxLon, Latitude: minLat},
		{Longitude: maxLon, Latitude: maxLat},
		{Longitude: minLon, Latitude: maxLat},
		{Longitude: minLon, Latitude: minLat},
	}
}

func version(storeID uuid.UUID, polygonType enums.PolygonType, ring types.Ring) polygons.VersionDTO {
	return polygons.VersionDTO{
		ID:            uuid.New(),
		StoreID:       storeID,
		PolygonType:   polygonType,
		Ring:          ring,
		VersionNumber: 1,
		IsCurrent:     true,
	}
}

func newGeoService(t *testing.T, src *stubPolygonSource, stores *stubStoreLookup, cache Cache) Service {
	t.Helper()
	if stores == nil {
		stores = &stubStoreLookup{stores: map[uuid.UUID]*models.Store{}}
	}
	svc, err := NewService(src, stores, cache, nil, config.GeoConfig{MaxBulkPoints: 1000})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestPointCheck(t *testing.T) {
	storeA, storeB := uuid.New(), uuid.New()
	src := &stubPolygonSource{rows: []polygons.VersionDTO{
		version(storeA, enums.PolygonTypeDelivery, ringAround(0, 0, 2, 2)),
		version(storeB, enums.PolygonTypeDelivery, ringAround(10, 10, 12, 12)),
	}}
	svc := newGeoService(t, src, nil, nil)
	ctx := context.Background()

	pt := types.Coordinate{Longitude: 1, Latitude: 1}
	res, err := svc.PointCheck(ctx, pt, nil, nil)
	if err != nil {
		t.Fatalf("point check: %v", err)
	}
	if !res.Contained || len(res.Matches) != 1 || res.Matches[0].StoreID != storeA {
		t.Fatalf("expected single hit for store A, got %+v", res)
	}
	if res.Coordinate != pt {
		t.Fatalf("result must echo the queried coordinate, got %+v", res.Coordinate)
	}

	none, err := svc.PointCheck(ctx, types.Coordinate{Longitude: 5, Latitude: 5}, nil, nil)
	if err != nil {
		t.Fatalf("point check: %v", err)
	}
	if none.Contained || len(none.Matches) != 0 {
		t.Fatalf("expected no hits, got %+v", none)
	}

	filtered, err := svc.PointCheck(ctx, pt, nil, &storeB)
	if err != nil {
		t.Fatalf("point check: %v", err)
	}
	if filtered.Contained || len(filtered.Matches) != 0 {
		t.Fatalf("expected store filter to drop store A hit, got %+v", filtered)
	}

	_, err = svc.PointCheck(ctx, types.Coordinate{Longitude: 200, Latitude: 0}, nil, nil)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation code, got %v", err)
	}
}

func TestPointCheckBoundaryCountsAsContained(t *testing.T) {
	storeA := uuid.New()
	src := &stubPolygonSource{rows: []polygons.VersionDTO{
		version(storeA, enums.PolygonTypeDelivery, ringAround(0, 0, 2, 2)),
	}}
	svc := newGeoService(t, src, nil, nil)

	res, err := svc.PointCheck(context.Background(), types.Coordinate{Longitude: 0, Latitude: 1}, nil, nil)
	if err != nil {
		t.Fatalf("point check: %v", err)
	}
	if !res.Contained || len(res.Matches) != 1 {
		t.Fatalf("expected boundary point to count as contained, got %+v", res)
	}
}

func TestBulkPointCheck(t *testing.T) {
	storeA := uuid.New()
	src := &stubPolygonSource{rows: []polygons.VersionDTO{
		version(storeA, enums.PolygonTypeDelivery, ringAround(0, 0, 2, 2)),
	}}
	svc := newGeoService(t, src, nil, nil)
	ctx := context.Background()

	t.Run("preserves input order", func(t *testing.T) {
		pts := []types.Coordinate{
			{Longitude: 1, Latitude: 1},
			{Longitude: 5, Latitude: 5},
			{Longitude: 0.5, Latitude: 0.5},
		}
		out, err := svc.BulkPointCheck(ctx, pts, nil)
		if err != nil {
			t.Fatalf("bulk check: %v", err)
		}
		if len(out.Results) != 3 {
			t.Fatalf("expected 3 results, got %d", len(out.Results))
		}
		for i, r := range out.Results {
			if r.Coordinate != pts[i] {
				t.Fatalf("result %d out of order: %+v", i, r.Coordinate)
			}
		}
		if len(out.Results[0].Matches) != 1 || len(out.Results[1].Matches) != 0 || len(out.Results[2].Matches) != 1 {
			t.Fatalf("unexpected containment counts: %+v", out.Results)
		}
		if !out.Results[0].Contained || out.Results[1].Contained || !out.Results[2].Contained {
			t.Fatalf("contained flags do not reflect the matches: %+v", out.Results)
		}
		if out.TotalChecked != 3 || out.TotalContained != 2 {
			t.Fatalf("expected totals 3/2, got %d/%d", out.TotalChecked, out.TotalContained)
		}
	})

	t.Run("accepts exactly the cap", func(t *testing.T) {
		pts := make([]types.Coordinate, 1000)
		for i := range pts {
			pts[i] = types.Coordinate{Longitude: 1, Latitude: 1}
		}
		if _, err := svc.BulkPointCheck(ctx, pts, nil); err != nil {
			t.Fatalf("bulk check at cap: %v", err)
		}
	})

	t.Run("rejects one over the cap", func(t *testing.T) {
		pts := make([]types.Coordinate, 1001)
		for i := range pts {
			pts[i] = types.Coordinate{Longitude: 1, Latitude: 1}
		}
		_, err := svc.BulkPointCheck(ctx, pts, nil)
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeTooManyPoints {
			t.Fatalf("expected too many points code, got %v", err)
		}
	})

	t.Run("rejects invalid coordinate with index", func(t *testing.T) {
		pts := []types.Coordinate{
			{Longitude: 1, Latitude: 1},
			{Longitude: 1, Latitude: 95},
		}
		_, err := svc.BulkPointCheck(ctx, pts, nil)
		typed := pkgerrors.As(err)
		if typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("expected validation code, got %v", err)
		}
		details, ok := typed.Details().(map[string]int)
		if !ok || details["index"] != 1 {
			t.Fatalf("expected offending index in details, got %+v", typed.Details())
		}
	})
}

func TestOverlaps(t *testing.T) {
	storeA, storeB := uuid.New(), uuid.New()
	src := &stubPolygonSource{rows: []polygons.VersionDTO{
		version(storeA, enums.PolygonTypeDelivery, ringAround(0, 0, 2, 2)),
		version(storeA, enums.PolygonTypeDedicated, ringAround(0, 0, 1, 1)),
		version(storeB, enums.PolygonTypeDelivery, ringAround(1, 1, 3, 3)),
		version(storeB, enums.PolygonTypeDedicated, ringAround(10, 10, 11, 11)),
	}}
	svc := newGeoService(t, src, nil, nil)
	ctx := context.Background()

	t.Run("all pairs", func(t *testing.T) {
		overlaps, err := svc.Overlaps(ctx, nil, nil, false)
		if err != nil {
			t.Fatalf("overlaps: %v", err)
		}
		// A-delivery/A-dedicated nest; A-delivery/B-delivery cross. The
		// A-dedicated/B-delivery rings touch only at a corner.
		if len(overlaps) != 2 {
			t.Fatalf("expected 2 overlapping pairs, got %d: %+v", len(overlaps), overlaps)
		}
		for _, o := range overlaps {
			if o.Area <= 0 {
				t.Fatalf("expected positive overlap area, got %+v", o)
			}
		}
	})

	t.Run("cross store only", func(t *testing.T) {
		overlaps, err := svc.Overlaps(ctx, nil, nil, true)
		if err != nil {
			t.Fatalf("overlaps: %v", err)
		}
		if len(overlaps) != 1 {
			t.Fatalf("expected 1 cross-store pair, got %d", len(overlaps))
		}
		for _, o := range overlaps {
			if o.StoreA == o.StoreB {
				t.Fatalf("same-store pair leaked: %+v", o)
			}
		}
	})

	t.Run("type filter", func(t *testing.T) {
		delivery := enums.PolygonTypeDelivery
		overlaps, err := svc.Overlaps(ctx, &delivery, nil, false)
		if err != nil {
			t.Fatalf("overlaps: %v", err)
		}
		if len(overlaps) != 1 {
			t.Fatalf("expected 1 delivery pair, got %d", len(overlaps))
		}
	})

	t.Run("store filter keeps pairs touching the store", func(t *testing.T) {
		overlaps, err := svc.Overlaps(ctx, nil, &storeB, false)
		if err != nil {
			t.Fatalf("overlaps: %v", err)
		}
		if len(overlaps) != 1 {
			t.Fatalf("expected 1 pair involving store B, got %d: %+v", len(overlaps), overlaps)
		}
		if overlaps[0].StoreA != storeB && overlaps[0].StoreB != storeB {
			t.Fatalf("pair does not involve store B: %+v", overlaps[0])
		}
	})

	t.Run("shared edge is not an overlap", func(t *testing.T) {
		adjacent := &stubPolygonSource{rows: []polygons.VersionDTO{
			version(storeA, enums.PolygonTypeDelivery, ringAround(0, 0, 1, 1)),
			version(storeB, enums.PolygonTypeDelivery, ringAround(1, 0, 2, 1)),
		}}
		svc := newGeoService(t, adjacent, nil, nil)
		overlaps, err := svc.Overlaps(ctx, nil, nil, false)
		if err != nil {
			t.Fatalf("overlaps: %v", err)
		}
		if len(overlaps) != 0 {
			t.Fatalf("expected no overlaps for adjacent rings, got %+v", overlaps)
		}
	})
}

func TestStoreForPointTieBreaks(t *testing.T) {
	dedicatedStore, smallStore, bigStore := uuid.New(), uuid.New(), uuid.New()
	lookup := &stubStoreLookup{stores: map[uuid.UUID]*models.Store{
		dedicatedStore: {ID: dedicatedStore, Name: "dedicated"},
		smallStore:     {ID: smallStore, Name: "small"},
		bigStore:       {ID: bigStore, Name: "big"},
	}}
	pt := types.Coordinate{Longitude: 1, Latitude: 1}
	ctx := context.Background()

	t.Run("dedicated beats delivery", func(t *testing.T) {
		src := &stubPolygonSource{rows: []polygons.VersionDTO{
			version(bigStore, enums.PolygonTypeDelivery, ringAround(0, 0, 2, 2)),
			version(dedicatedStore, enums.PolygonTypeDedicated, ringAround(0, 0, 10, 10)),
		}}
		svc := newGeoService(t, src, lookup, nil)
		match, err := svc.StoreForPoint(ctx, pt, nil)
		if err != nil {
			t.Fatalf("store for point: %v", err)
		}
		if match.StoreID != dedicatedStore {
			t.Fatalf("expected dedicated store to win, got %s", match.StoreName)
		}

		delivery := enums.PolygonTypeDelivery
		match, err = svc.StoreForPoint(ctx, pt, &delivery)
		if err != nil {
			t.Fatalf("store for point: %v", err)
		}
		if match.StoreID != bigStore {
			t.Fatalf("expected delivery filter to skip the dedicated ring, got %s", match.StoreName)
		}
	})

	t.Run("smaller ring wins within a type", func(t *testing.T) {
		src := &stubPolygonSource{rows: []polygons.VersionDTO{
			version(bigStore, enums.PolygonTypeDelivery, ringAround(0, 0, 10, 10)),
			version(smallStore, enums.PolygonTypeDelivery, ringAround(0, 0, 2, 2)),
		}}
		svc := newGeoService(t, src, lookup, nil)
		match, err := svc.StoreForPoint(ctx, pt, nil)
		if err != nil {
			t.Fatalf("store for point: %v", err)
		}
		if match.StoreID != smallStore {
			t.Fatalf("expected smaller ring to win, got %s", match.StoreName)
		}
	})

	t.Run("no match is not an error", func(t *testing.T) {
		src := &stubPolygonSource{rows: []polygons.VersionDTO{
			version(bigStore, enums.PolygonTypeDelivery, ringAround(10, 10, 12, 12)),
		}}
		svc := newGeoService(t, src, lookup, nil)
		match, err := svc.StoreForPoint(ctx, pt, nil)
		if err != nil {
			t.Fatalf("store for point: %v", err)
		}
		if match != nil {
			t.Fatalf("expected nil match, got %+v", match)
		}
	})
}

func TestStoreForPointCache(t *testing.T) {
	storeA := uuid.New()
	lookup := &stubStoreLookup{stores: map[uuid.UUID]*models.Store{
		storeA: {ID: storeA, Name: "kifisia"},
	}}
	src := &stubPolygonSource{rows: []polygons.VersionDTO{
		version(storeA, enums.PolygonTypeDelivery, ringAround(0, 0, 2, 2)),
	}}
	cache := newMemCache()
	svc := newGeoService(t, src, lookup, cache)
	ctx := context.Background()
	pt := types.Coordinate{Longitude: 1, Latitude: 1}

	first, err := svc.StoreForPoint(ctx, pt, nil)
	if err != nil {
		t.Fatalf("first lookup: %v", err)
	}
	if cache.writes != 1 {
		t.Fatalf("expected one cache write, got %d", cache.writes)
	}

	// Second call must be served from the cache even if the source breaks.
	src.err = fmt.Errorf("db down")
	second, err := svc.StoreForPoint(ctx, pt, nil)
	if err != nil {
		t.Fatalf("cached lookup: %v", err)
	}
	if cache.hits != 1 {
		t.Fatalf("expected one cache hit, got %d", cache.hits)
	}
	if second.StoreID != first.StoreID || second.VersionID != first.VersionID {
		t.Fatalf("cached match mismatch: %+v vs %+v", first, second)
	}

	var roundTrip StoreMatch
	if err := json.Unmarshal([]byte(cache.data[cache.cacheKey(pt, nil)]), &roundTrip); err != nil {
		t.Fatalf("cached payload not valid JSON: %v", err)
	}

	t.Run("negative result cached", func(t *testing.T) {
		src.err = nil
		miss := types.Coordinate{Longitude: 50, Latitude: 50}
		match, err := svc.StoreForPoint(ctx, miss, nil)
		if err != nil || match != nil {
			t.Fatalf("expected nil match without error, got %+v, %v", match, err)
		}
		if cache.data[cache.cacheKey(miss, nil)] != cacheNone {
			t.Fatalf("expected negative sentinel cached, got %q", cache.data[cache.cacheKey(miss, nil)])
		}
		src.err = fmt.Errorf("db down")
		match, err = svc.StoreForPoint(ctx, miss, nil)
		if err != nil || match != nil {
			t.Fatalf("expected cached nil match, got %+v, %v", match, err)
		}
	})

	t.Run("type scoped keys do not collide", func(t *testing.T) {
		src.err = nil
		delivery := enums.PolygonTypeDelivery
		typed, err := svc.StoreForPoint(ctx, pt, &delivery)
		if err != nil {
			t.Fatalf("typed lookup: %v", err)
		}
		if typed == nil || typed.StoreID != first.StoreID {
			t.Fatalf("typed lookup mismatch: %+v", typed)
		}
		if cache.cacheKey(pt, &delivery) == cache.cacheKey(pt, nil) {
			t.Fatal("typed and untyped cache keys collide")
		}
	})
}
