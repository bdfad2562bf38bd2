package controllers

import (
	"net/http"

	"github.com/carnimore/storefront-backend/api/responses"
	"github.com/carnimore/storefront-backend/api/validators"
	"github.com/carnimore/storefront-backend/internal/ffl"
	pkgerrors "github.com/carnimore/storefront-backend/pkg/errors"
	"github.com/carnimore/storefront-backend/pkg/logger"
	"github.com/carnimore/storefront-backend/pkg/types"
)

type fflImportRequest struct {
	Dealers []types.FFLDealerInfo `json:"dealers" validate:"required,min=1"`
}

// AdminFFLImport upserts a batch of dealers into the directory, keyed by
// license number.
func AdminFFLImport(svc ffl.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "dealer service unavailable"))
			return
		}

		var body fflImportRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		batch := make([]ffl.ImportInput, 0, len(body.Dealers))
		for _, dealer := range body.Dealers {
			batch = append(batch, ffl.ImportInput{Dealer: dealer})
		}

		result, err := svc.Import(r.Context(), batch)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
