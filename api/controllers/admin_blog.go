package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/carnimore/storefront-backend/api/middleware"
	"github.com/carnimore/storefront-backend/api/responses"
	"github.com/carnimore/storefront-backend/api/validators"
	"github.com/carnimore/storefront-backend/internal/blog"
	pkgerrors "github.com/carnimore/storefront-backend/pkg/errors"
	"github.com/carnimore/storefront-backend/pkg/logger"
)

type createPostRequest struct {
	Title   string  `json:"title" validate:"required"`
	Slug    string  `json:"slug" validate:"required"`
	Body    string  `json:"body" validate:"required"`
	Excerpt *string `json:"excerpt,omitempty"`
}

type updatePostRequest struct {
	Title     *string `json:"title,omitempty"`
	Slug      *string `json:"slug,omitempty"`
	Body      *string `json:"body,omitempty"`
	Excerpt   *string `json:"excerpt,omitempty"`
	Published *bool   `json:"published,omitempty"`
}

// AdminBlogList pages through posts, drafts included.
func AdminBlogList(svc blog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "blog service unavailable"))
			return
		}

		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListPosts(r.Context(), blog.ListPostsInput{
			IncludeDrafts: true,
			Pagination:    params,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

// AdminBlogCreate opens a draft authored by the signed-in admin.
func AdminBlogCreate(svc blog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "blog service unavailable"))
			return
		}

		var body createPostRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		authorID, err := uuid.Parse(middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		post, err := svc.CreatePost(r.Context(), blog.CreatePostInput{
			AuthorID: authorID,
			Title:    body.Title,
			Slug:     body.Slug,
			Body:     body.Body,
			Excerpt:  body.Excerpt,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, post)
	}
}

// AdminBlogUpdate patches a post; publishing stamps the publication time.
func AdminBlogUpdate(svc blog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "blog service unavailable"))
			return
		}

		postID, err := parseUUIDParam(r, "postId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updatePostRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		post, err := svc.UpdatePost(r.Context(), postID, blog.UpdatePostInput{
			Title:     body.Title,
			Slug:      body.Slug,
			Body:      body.Body,
			Excerpt:   body.Excerpt,
			Published: body.Published,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, post)
	}
}

// AdminBlogDelete removes a post.
func AdminBlogDelete(svc blog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "blog service unavailable"))
			return
		}

		postID, err := parseUUIDParam(r, "postId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeletePost(r.Context(), postID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
