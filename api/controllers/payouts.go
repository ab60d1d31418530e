package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/stockplace/stockplace-backend/api/middleware"
	"github.com/stockplace/stockplace-backend/api/responses"
	payoutsvc "github.com/stockplace/stockplace-backend/internal/payouts"
	pkgerrors "github.com/stockplace/stockplace-backend/pkg/errors"
	"github.com/stockplace/stockplace-backend/pkg/logger"
)

// ListMyPayouts returns the connected seller's payout history.
func ListMyPayouts(svc payoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payout service unavailable"))
			return
		}

		userID := middleware.UserIDFromContext(r.Context())
		if userID == uuid.Nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		payouts, err := svc.ListByUser(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, payouts)
	}
}
