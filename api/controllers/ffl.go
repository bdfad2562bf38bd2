package controllers

import (
	"net/http"
	"strings"

	"github.com/carnimore/storefront-backend/api/responses"
	"github.com/carnimore/storefront-backend/api/validators"
	"github.com/carnimore/storefront-backend/internal/ffl"
	pkgerrors "github.com/carnimore/storefront-backend/pkg/errors"
	"github.com/carnimore/storefront-backend/pkg/logger"
)

// FFLSearch finds licensed dealers near a zip code, optionally narrowed by
// business name.
func FFLSearch(svc ffl.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "dealer service unavailable"))
			return
		}

		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.Search(r.Context(), ffl.SearchInput{
			Zip:        strings.TrimSpace(r.URL.Query().Get("zip")),
			Name:       strings.TrimSpace(r.URL.Query().Get("name")),
			Pagination: params,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

// FFLDealerFetch loads one dealer for the checkout confirmation screen.
func FFLDealerFetch(svc ffl.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "dealer service unavailable"))
			return
		}

		dealerID, err := parseUUIDParam(r, "dealerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dealer, err := svc.GetDealer(r.Context(), dealerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, dealer)
	}
}
