package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/api/responses"
	"github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/api/validators"
	"github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/internal/stores"
	pkgerrors "github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/pkg/errors"
	"github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/pkg/logger"
)

type storeCreateRequest struct {
	Code      *string `json:"code,omitempty"`
	Name      string  `json:"name" validate:"required,min=1"`
	Longitude float64 `json:"longitude" validate:"min=-180,max=180"`
	Latitude  float64 `json:"latitude" validate:"min=-90,max=90"`
	Active    *bool   `json:"active,omitempty"`
}

type storeUpdateRequest struct {
	Code      *string  `json:"code,omitempty"`
	Name      *string  `json:"name,omitempty" validate:"omitempty,min=1"`
	Longitude *float64 `json:"longitude,omitempty" validate:"omitempty,min=-180,max=180"`
	Latitude  *float64 `json:"latitude,omitempty" validate:"omitempty,min=-90,max=90"`
	Active    *bool    `json:"active,omitempty"`
}

// StoreList returns the registry, optionally restricted to active stores.
func StoreList(svc stores.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		activeOnly, err := validators.ParseQueryBool(r, "active_only", false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.List(r.Context(), activeOnly)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// StoreCreate registers a new store.
func StoreCreate(svc stores.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req storeCreateRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		store, err := svc.Create(r.Context(), stores.CreateStoreDTO{
			Code:      sanitizeCode(req.Code),
			Name:      validators.SanitizeString(req.Name, 255),
			Longitude: req.Longitude,
			Latitude:  req.Latitude,
			Active:    req.Active,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, store)
	}
}

// StoreGet loads one store by ID.
func StoreGet(svc stores.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := storeIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		store, err := svc.GetByID(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, store)
	}
}

// StoreUpdate adjusts the mutable store fields.
func StoreUpdate(svc stores.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := storeIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req storeUpdateRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		name := req.Name
		if name != nil {
			clean := validators.SanitizeString(*name, 255)
			name = &clean
		}
		store, err := svc.Update(r.Context(), id, stores.UpdateStoreInput{
			Code:      sanitizeCode(req.Code),
			Name:      name,
			Longitude: req.Longitude,
			Latitude:  req.Latitude,
			Active:    req.Active,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, store)
	}
}

func sanitizeCode(code *string) *string {
	if code == nil {
		return nil
	}
	clean := validators.SanitizeString(*code, 16)
	return &clean
}

func storeIDParam(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "storeID")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid store id")
	}
	return id, nil
}
