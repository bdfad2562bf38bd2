package controllers

import (
	"net/http"

	"github.com/carnimore/storefront-backend/api/responses"
	"github.com/carnimore/storefront-backend/api/validators"
	"github.com/carnimore/storefront-backend/internal/users"
	pkgerrors "github.com/carnimore/storefront-backend/pkg/errors"
	"github.com/carnimore/storefront-backend/pkg/logger"
)

type setUserActiveRequest struct {
	Active bool `json:"active"`
}

// AdminUsersList pages through registered accounts.
func AdminUsersList(repo *users.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "user repository unavailable"))
			return
		}

		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, nextCursor, err := repo.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing users"))
			return
		}

		list := make([]users.UserDTO, 0, len(rows))
		for i := range rows {
			list = append(list, users.FromModel(&rows[i]))
		}

		responses.WriteSuccess(w, map[string]any{
			"users":       list,
			"next_cursor": nextCursor,
		})
	}
}

// AdminUserSetActive suspends or reinstates an account.
func AdminUserSetActive(repo *users.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "user repository unavailable"))
			return
		}

		userID, err := parseUUIDParam(r, "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body setUserActiveRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := repo.SetActive(r.Context(), userID, body.Active); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating account"))
			return
		}

		responses.WriteSuccess(w, map[string]bool{"active": body.Active})
	}
}
