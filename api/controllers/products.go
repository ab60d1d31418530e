package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/stockplace/stockplace-backend/api/middleware"
	"github.com/stockplace/stockplace-backend/api/responses"
	"github.com/stockplace/stockplace-backend/api/validators"
	productsvc "github.com/stockplace/stockplace-backend/internal/products"
	pkgerrors "github.com/stockplace/stockplace-backend/pkg/errors"
	"github.com/stockplace/stockplace-backend/pkg/logger"
)

type createProductRequest struct {
	RentalID      string  `json:"rental_id" validate:"required"`
	ProductName   string  `json:"product_name" validate:"required"`
	Description   *string `json:"description,omitempty"`
	StockQuantity int     `json:"stock_quantity" validate:"required,gt=0"`
	PriceCents    int     `json:"price_cents" validate:"required,gt=0"`
}

type updateProductRequest struct {
	Description   *string `json:"description,omitempty"`
	StockQuantity *int    `json:"stock_quantity,omitempty" validate:"omitempty,min=0"`
	PriceCents    *int    `json:"price_cents,omitempty" validate:"omitempty,gt=0"`
	IsActive      *bool   `json:"is_active,omitempty"`
}

// CreateProduct stocks a new product in the supplier's rented space.
func CreateProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		supplierID := middleware.UserIDFromContext(r.Context())
		if supplierID == uuid.Nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rentalID, err := uuid.Parse(strings.TrimSpace(payload.RentalID))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid rental id"))
			return
		}

		description := payload.Description
		if description != nil {
			trimmed := validators.SanitizeString(*description, maxDescriptionLen)
			description = &trimmed
		}

		product, err := svc.Create(r.Context(), productsvc.CreateProductInput{
			SupplierID:    supplierID,
			RentalID:      rentalID,
			ProductName:   validators.SanitizeString(payload.ProductName, maxNameLen),
			Description:   description,
			StockQuantity: payload.StockQuantity,
			PriceCents:    payload.PriceCents,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

// ListProducts returns the public catalogue, optionally filtered to items
// with stock on hand.
func ListProducts(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		onlyInStock := strings.EqualFold(r.URL.Query().Get("in_stock"), "true")

		products, err := svc.List(r.Context(), onlyInStock)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, products)
	}
}

// GetProduct returns one product by id.
func GetProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		id, err := validators.ParsePathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, product)
	}
}

// ListMyProducts returns the authenticated supplier's listings.
func ListMyProducts(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		supplierID := middleware.UserIDFromContext(r.Context())
		if supplierID == uuid.Nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		products, err := svc.ListBySupplier(r.Context(), supplierID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, products)
	}
}

// UpdateProduct applies supplier edits to a listing.
func UpdateProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		supplierID := middleware.UserIDFromContext(r.Context())
		if supplierID == uuid.Nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		id, err := validators.ParsePathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		description := payload.Description
		if description != nil {
			trimmed := validators.SanitizeString(*description, maxDescriptionLen)
			description = &trimmed
		}

		product, err := svc.Update(r.Context(), productsvc.UpdateProductInput{
			ID:            id,
			SupplierID:    supplierID,
			Description:   description,
			StockQuantity: payload.StockQuantity,
			PriceCents:    payload.PriceCents,
			IsActive:      payload.IsActive,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, product)
	}
}
