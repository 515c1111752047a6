package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/api/responses"
	"github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/api/validators"
	"github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/internal/polygons"
	pkgerrors "github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/pkg/errors"
	"github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/pkg/logger"
	"github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/pkg/types"
)

type polygonCreateRequest struct {
	PolygonType string     `json:"polygon_type" validate:"required,oneof=dedicated delivery"`
	Ring        types.Ring `json:"ring" validate:"required,min=3"`
	Notes       *string    `json:"notes,omitempty"`
}

// PolygonCreate appends a new polygon version for a store lineage.
func PolygonCreate(svc polygons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storeID, err := storeIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req polygonCreateRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		polygonType, err := validators.ParsePolygonTypeParam(req.PolygonType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		version, err := svc.CreateVersion(r.Context(), polygons.CreateVersionInput{
			StoreID:     storeID,
			PolygonType: polygonType,
			Ring:        req.Ring,
			Notes:       req.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, version)
	}
}

// PolygonList returns a store's polygon versions, optionally filtered by
// type or narrowed to current versions only.
func PolygonList(svc polygons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storeID, err := storeIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		polygonType, err := validators.ParseQueryPolygonType(r, "type")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		currentOnly, err := validators.ParseQueryBool(r, "current_only", false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		versions, err := svc.ListForStore(r.Context(), storeID, polygonType, currentOnly)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, versions)
	}
}

// PolygonCurrent returns the current version of one lineage.
func PolygonCurrent(svc polygons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storeID, err := storeIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		polygonType, err := validators.ParsePolygonTypeParam(chi.URLParam(r, "polygonType"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		version, err := svc.Current(r.Context(), storeID, polygonType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, version)
	}
}

// PolygonHistory returns every version of a lineage, newest first.
func PolygonHistory(svc polygons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storeID, err := storeIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		polygonType, err := validators.ParsePolygonTypeParam(chi.URLParam(r, "polygonType"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		history, err := svc.History(r.Context(), storeID, polygonType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, history)
	}
}

// PolygonGet loads a single version by its ID, regardless of lineage.
func PolygonGet(svc polygons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := versionIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		version, err := svc.GetByID(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, version)
	}
}

// PolygonDeactivate retires a version without deleting it.
func PolygonDeactivate(svc polygons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := versionIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		version, err := svc.Deactivate(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, version)
	}
}

func versionIDParam(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "versionID")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid polygon version id")
	}
	return id, nil
}
