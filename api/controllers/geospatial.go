package controllers

import (
	"net/http"

	"github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/api/responses"
	"github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/api/validators"
	"github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/internal/geospatial"
	"github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/pkg/enums"
	"github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/pkg/logger"
	"github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/pkg/types"
)

type bulkPointCheckRequest struct {
	Points      []types.Coordinate `json:"points" validate:"required,min=1"`
	PolygonType *string            `json:"polygon_type,omitempty" validate:"omitempty,oneof=dedicated delivery"`
}

// GeoPointCheck reports whether a point falls inside any current polygon,
// echoing the coordinate alongside the matching polygons.
func GeoPointCheck(svc geospatial.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pt, err := queryPoint(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		polygonType, err := validators.ParseQueryPolygonType(r, "type")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		storeID, err := validators.ParseQueryUUID(r, "store_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.PointCheck(r.Context(), pt, polygonType, storeID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// GeoBulkPointCheck answers containment for a batch of points in input
// order, with totals for checked and contained points.
func GeoBulkPointCheck(svc geospatial.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req bulkPointCheckRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		polygonType, err := optionalPolygonType(req.PolygonType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		results, err := svc.BulkPointCheck(r.Context(), req.Points, polygonType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, results)
	}
}

// GeoStoreForPoint resolves the single store that serves a point. A null
// payload means no current polygon contains it.
func GeoStoreForPoint(svc geospatial.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pt, err := queryPoint(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		polygonType, err := validators.ParseQueryPolygonType(r, "type")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		match, err := svc.StoreForPoint(r.Context(), pt, polygonType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, match)
	}
}

// GeoOverlaps lists pairs of current polygons whose interiors intersect.
func GeoOverlaps(svc geospatial.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		polygonType, err := validators.ParseQueryPolygonType(r, "type")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		storeID, err := validators.ParseQueryUUID(r, "store_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		crossStoreOnly, err := validators.ParseQueryBool(r, "cross_store_only", false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		overlaps, err := svc.Overlaps(r.Context(), polygonType, storeID, crossStoreOnly)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, overlaps)
	}
}

func queryPoint(r *http.Request) (types.Coordinate, error) {
	lon, err := validators.ParseQueryFloat(r, "lon")
	if err != nil {
		return types.Coordinate{}, err
	}
	lat, err := validators.ParseQueryFloat(r, "lat")
	if err != nil {
		return types.Coordinate{}, err
	}
	return types.Coordinate{Longitude: lon, Latitude: lat}, nil
}

func optionalPolygonType(raw *string) (*enums.PolygonType, error) {
	if raw == nil {
		return nil, nil
	}
	polygonType, err := validators.ParsePolygonTypeParam(*raw)
	if err != nil {
		return nil, err
	}
	return &polygonType, nil
}
