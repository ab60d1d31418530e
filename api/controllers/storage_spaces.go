package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/stockplace/stockplace-backend/api/middleware"
	"github.com/stockplace/stockplace-backend/api/responses"
	"github.com/stockplace/stockplace-backend/api/validators"
	spacesvc "github.com/stockplace/stockplace-backend/internal/storagespaces"
	pkgerrors "github.com/stockplace/stockplace-backend/pkg/errors"
	"github.com/stockplace/stockplace-backend/pkg/logger"
)

const (
	maxNameLen        = 200
	maxAddressLen     = 500
	maxDescriptionLen = 2000
)

type createStorageSpaceRequest struct {
	Name             string  `json:"name" validate:"required"`
	Description      *string `json:"description,omitempty"`
	Address          string  `json:"address" validate:"required"`
	TotalSurface     int     `json:"total_surface" validate:"required,gt=0"`
	PriceCentsPerDay int     `json:"price_cents_per_day" validate:"required,gt=0"`
}

type updateStorageSpaceRequest struct {
	Description      *string `json:"description,omitempty"`
	PriceCentsPerDay *int    `json:"price_cents_per_day,omitempty" validate:"omitempty,gt=0"`
	IsActive         *bool   `json:"is_active,omitempty"`
}

// CreateStorageSpace publishes a lessor's surface listing.
func CreateStorageSpace(svc spacesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "storage space service unavailable"))
			return
		}

		ownerID := middleware.UserIDFromContext(r.Context())
		if ownerID == uuid.Nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		var payload createStorageSpaceRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		description := payload.Description
		if description != nil {
			trimmed := validators.SanitizeString(*description, maxDescriptionLen)
			description = &trimmed
		}

		space, err := svc.Create(r.Context(), spacesvc.CreateStorageSpaceInput{
			OwnerID:          ownerID,
			Name:             validators.SanitizeString(payload.Name, maxNameLen),
			Description:      description,
			Address:          validators.SanitizeString(payload.Address, maxAddressLen),
			TotalSurface:     payload.TotalSurface,
			PriceCentsPerDay: payload.PriceCentsPerDay,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, space)
	}
}

// ListStorageSpaces returns the public catalogue, optionally filtered to
// listings with free surface.
func ListStorageSpaces(svc spacesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "storage space service unavailable"))
			return
		}

		onlyAvailable := strings.EqualFold(r.URL.Query().Get("available"), "true")

		spaces, err := svc.List(r.Context(), onlyAvailable)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, spaces)
	}
}

// GetStorageSpace returns one listing by id.
func GetStorageSpace(svc spacesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "storage space service unavailable"))
			return
		}

		id, err := validators.ParsePathUUID(r, "spaceId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		space, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, space)
	}
}

// ListMyStorageSpaces returns the authenticated lessor's listings.
func ListMyStorageSpaces(svc spacesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "storage space service unavailable"))
			return
		}

		ownerID := middleware.UserIDFromContext(r.Context())
		if ownerID == uuid.Nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		spaces, err := svc.ListByOwner(r.Context(), ownerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, spaces)
	}
}

// UpdateStorageSpace applies owner edits to a listing.
func UpdateStorageSpace(svc spacesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "storage space service unavailable"))
			return
		}

		ownerID := middleware.UserIDFromContext(r.Context())
		if ownerID == uuid.Nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		id, err := validators.ParsePathUUID(r, "spaceId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateStorageSpaceRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		description := payload.Description
		if description != nil {
			trimmed := validators.SanitizeString(*description, maxDescriptionLen)
			description = &trimmed
		}

		space, err := svc.Update(r.Context(), spacesvc.UpdateStorageSpaceInput{
			ID:               id,
			OwnerID:          ownerID,
			Description:      description,
			PriceCentsPerDay: payload.PriceCentsPerDay,
			IsActive:         payload.IsActive,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, space)
	}
}
