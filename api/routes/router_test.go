package routes

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/internal/geospatial"
	"github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/internal/polygons"
	"github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/internal/stores"
	"github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/pkg/config"
	"github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/pkg/enums"
	pkgerrors "github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/pkg/errors"
	"github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/pkg/logger"
	"github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/pkg/metrics"
	"github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/pkg/types"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubStoreService struct{}

func (stubStoreService) Create(ctx context.Context, input stores.CreateStoreDTO) (*stores.StoreDTO, error) {
	return &stores.StoreDTO{ID: uuid.New(), Name: input.Name}, nil
}

func (stubStoreService) GetByID(ctx context.Context, id uuid.UUID) (*stores.StoreDTO, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
}

func (stubStoreService) GetByCode(ctx context.Context, code string) (*stores.StoreDTO, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
}

func (stubStoreService) List(ctx context.Context, activeOnly bool) ([]stores.StoreDTO, error) {
	return []stores.StoreDTO{}, nil
}

func (stubStoreService) Update(ctx context.Context, id uuid.UUID, input stores.UpdateStoreInput) (*stores.StoreDTO, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
}

type stubPolygonService struct{}

func (stubPolygonService) CreateVersion(ctx context.Context, input polygons.CreateVersionInput) (*polygons.VersionDTO, error) {
	return &polygons.VersionDTO{ID: uuid.New(), StoreID: input.StoreID, PolygonType: input.PolygonType, VersionNumber: 1, IsCurrent: true}, nil
}

func (stubPolygonService) GetByID(ctx context.Context, id uuid.UUID) (*polygons.VersionDTO, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "polygon version not found")
}

func (stubPolygonService) Current(ctx context.Context, storeID uuid.UUID, polygonType enums.PolygonType) (*polygons.VersionDTO, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no current polygon")
}

func (stubPolygonService) History(ctx context.Context, storeID uuid.UUID, polygonType enums.PolygonType) ([]polygons.VersionDTO, error) {
	return []polygons.VersionDTO{}, nil
}

func (stubPolygonService) ListCurrent(ctx context.Context, polygonType *enums.PolygonType) ([]polygons.VersionDTO, error) {
	return []polygons.VersionDTO{}, nil
}

func (stubPolygonService) ListForStore(ctx context.Context, storeID uuid.UUID, polygonType *enums.PolygonType, currentOnly bool) ([]polygons.VersionDTO, error) {
	return []polygons.VersionDTO{}, nil
}

func (stubPolygonService) Deactivate(ctx context.Context, id uuid.UUID) (*polygons.VersionDTO, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "polygon version not found")
}

type stubGeoService struct{}

func (stubGeoService) PointCheck(ctx context.Context, pt types.Coordinate, polygonType *enums.PolygonType, storeID *uuid.UUID) (*geospatial.PointCheckResult, error) {
	return &geospatial.PointCheckResult{Coordinate: pt, Matches: []geospatial.Containment{}}, nil
}

func (stubGeoService) BulkPointCheck(ctx context.Context, pts []types.Coordinate, polygonType *enums.PolygonType) (*geospatial.BulkPointCheckResult, error) {
	return &geospatial.BulkPointCheckResult{Results: []geospatial.PointCheckResult{}, TotalChecked: len(pts)}, nil
}

func (stubGeoService) Overlaps(ctx context.Context, polygonType *enums.PolygonType, storeID *uuid.UUID, crossStoreOnly bool) ([]geospatial.Overlap, error) {
	return []geospatial.Overlap{}, nil
}

func (stubGeoService) StoreForPoint(ctx context.Context, pt types.Coordinate, polygonType *enums.PolygonType) (*geospatial.StoreMatch, error) {
	return nil, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: config.AppEnvDev, Port: "8080"},
	}
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "router-test", Output: io.Discard})
	reg := prometheus.NewRegistry()
	return NewRouter(
		testConfig(),
		logg,
		stubPinger{},
		nil,
		reg,
		metrics.NewHTTPMetrics(reg),
		stubStoreService{},
		stubPolygonService{},
		stubGeoService{},
	)
}

func TestHealthRoutes(t *testing.T) {
	router := newTestRouter(t)

	for _, path := range []string{"/health/live", "/health/ready"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("expected 200 for %s got %d", path, resp.Code)
		}
		if env := resp.Header().Get("X-CB-Env"); env != config.AppEnvDev {
			t.Fatalf("expected env header for %s got %q", path, env)
		}
	}
}

func TestPublicPing(t *testing.T) {
	router := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/api/public/ping", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for public ping got %d", resp.Code)
	}
}

func TestStoreRoutes(t *testing.T) {
	router := newTestRouter(t)

	list := httptest.NewRequest(http.MethodGet, "/api/v1/stores", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, list)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for store list got %d", resp.Code)
	}

	create := httptest.NewRequest(http.MethodPost, "/api/v1/stores", strings.NewReader(`{"name":"Glyfada","longitude":23.75,"latitude":37.86}`))
	create.Header.Set("Content-Type", "application/json")
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, create)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 for store create got %d: %s", resp.Code, resp.Body.String())
	}

	invalid := httptest.NewRequest(http.MethodGet, "/api/v1/stores/not-a-uuid", nil)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, invalid)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid store id got %d", resp.Code)
	}

	missing := httptest.NewRequest(http.MethodGet, "/api/v1/stores/"+uuid.NewString(), nil)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, missing)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown store got %d", resp.Code)
	}
}

func TestPolygonRoutes(t *testing.T) {
	router := newTestRouter(t)
	storeID := uuid.NewString()

	create := httptest.NewRequest(http.MethodPost, "/api/v1/stores/"+storeID+"/polygons",
		strings.NewReader(`{"polygon_type":"delivery","ring":[{"longitude":0,"latitude":0},{"longitude":1,"latitude":0},{"longitude":1,"latitude":1},{"longitude":0,"latitude":0}]}`))
	create.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, create)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 for polygon create got %d: %s", resp.Code, resp.Body.String())
	}

	list := httptest.NewRequest(http.MethodGet, "/api/v1/stores/"+storeID+"/polygons?current_only=true", nil)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, list)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for polygon list got %d", resp.Code)
	}

	badType := httptest.NewRequest(http.MethodGet, "/api/v1/stores/"+storeID+"/polygons/serving/current", nil)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, badType)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown polygon type got %d", resp.Code)
	}

	history := httptest.NewRequest(http.MethodGet, "/api/v1/stores/"+storeID+"/polygons/delivery/history", nil)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, history)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for history got %d", resp.Code)
	}

	deactivate := httptest.NewRequest(http.MethodPost, "/api/v1/polygons/"+uuid.NewString()+"/deactivate", nil)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, deactivate)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown version got %d", resp.Code)
	}
}

func TestGeoRoutes(t *testing.T) {
	router := newTestRouter(t)

	check := httptest.NewRequest(http.MethodGet, "/api/v1/geo/point-check?lon=23.75&lat=37.86", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, check)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for point check got %d", resp.Code)
	}

	missingCoord := httptest.NewRequest(http.MethodGet, "/api/v1/geo/point-check?lat=37.86", nil)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, missingCoord)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without lon got %d", resp.Code)
	}

	badStoreFilter := httptest.NewRequest(http.MethodGet, "/api/v1/geo/point-check?lon=23.75&lat=37.86&store_id=not-a-uuid", nil)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, badStoreFilter)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed store filter got %d", resp.Code)
	}

	bulk := httptest.NewRequest(http.MethodPost, "/api/v1/geo/bulk-point-check",
		strings.NewReader(`{"points":[{"longitude":23.75,"latitude":37.86}]}`))
	bulk.Header.Set("Content-Type", "application/json")
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, bulk)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for bulk check got %d", resp.Code)
	}

	byPoint := httptest.NewRequest(http.MethodGet, "/api/v1/geo/store-by-point?lon=23.75&lat=37.86", nil)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, byPoint)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for store-by-point got %d", resp.Code)
	}
	var payload struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decoding store-by-point payload: %v", err)
	}
	if string(payload.Data) != "null" {
		t.Fatalf("expected null data for unmatched point got %s", payload.Data)
	}

	overlaps := httptest.NewRequest(http.MethodGet, "/api/v1/geo/overlaps?type=delivery&cross_store_only=true", nil)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, overlaps)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for overlaps got %d", resp.Code)
	}

	badOverlapType := httptest.NewRequest(http.MethodGet, "/api/v1/geo/overlaps?type=serving", nil)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, badOverlapType)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown overlap type got %d", resp.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter(t)

	warmup := httptest.NewRequest(http.MethodGet, "/api/public/ping", nil)
	router.ServeHTTP(httptest.NewRecorder(), warmup)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for metrics got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "http_requests_total") {
		t.Fatalf("expected request counter in metrics exposition")
	}
}
