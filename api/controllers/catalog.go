package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/carnimore/storefront-backend/api/responses"
	"github.com/carnimore/storefront-backend/api/validators"
	"github.com/carnimore/storefront-backend/internal/catalog"
	"github.com/carnimore/storefront-backend/pkg/enums"
	pkgerrors "github.com/carnimore/storefront-backend/pkg/errors"
	"github.com/carnimore/storefront-backend/pkg/logger"
)

// CategoriesList returns the storefront navigation categories.
func CategoriesList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		categories, err := svc.ListCategories(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"categories": categories})
	}
}

// CategoryFetch loads one category by slug.
func CategoryFetch(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		category, err := svc.GetCategoryBySlug(r.Context(), chi.URLParam(r, "slug"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, category)
	}
}

// ProductsList returns one filtered page of the catalog.
func ProductsList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		input, err := parseProductListQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListProducts(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

// ProductFetch loads one active product by slug.
func ProductFetch(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		product, err := svc.GetProductBySlug(r.Context(), chi.URLParam(r, "slug"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, product)
	}
}

func parseProductListQuery(r *http.Request) (catalog.ListProductsInput, error) {
	var input catalog.ListProductsInput

	params, err := validators.ParsePagination(r)
	if err != nil {
		return input, err
	}
	input.Pagination = params

	input.Filters.CategorySlug = strings.TrimSpace(r.URL.Query().Get("category"))
	input.Filters.Query = strings.TrimSpace(r.URL.Query().Get("q"))

	if raw := strings.TrimSpace(r.URL.Query().Get("kind")); raw != "" {
		kind, err := enums.ParseProductKind(raw)
		if err != nil {
			return input, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product kind")
		}
		input.Filters.Kind = &kind
	}

	featured, err := validators.ParseQueryBool(r, "featured")
	if err != nil {
		return input, err
	}
	input.Filters.Featured = featured

	if min, err := validators.ParseQueryInt(r, "price_min_cents", -1, 0, 100_000_000); err != nil {
		return input, err
	} else if min >= 0 {
		input.Filters.PriceMinCents = &min
	}
	if max, err := validators.ParseQueryInt(r, "price_max_cents", -1, 0, 100_000_000); err != nil {
		return input, err
	} else if max >= 0 {
		input.Filters.PriceMaxCents = &max
	}

	return input, nil
}
