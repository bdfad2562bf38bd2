package blog

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	dbpkg "github.com/carnimore/storefront-backend/pkg/db"
	"github.com/carnimore/storefront-backend/pkg/db/models"
	pkgerrors "github.com/carnimore/storefront-backend/pkg/errors"
	"github.com/carnimore/storefront-backend/pkg/logger"
)

var slugRe = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// Service manages the storefront's content posts.
type Service interface {
	ListPosts(ctx context.Context, input ListPostsInput) (*PostList, error)
	GetPostBySlug(ctx context.Context, slug string) (*PostDTO, error)
	CreatePost(ctx context.Context, input CreatePostInput) (*PostDTO, error)
	UpdatePost(ctx context.Context, id uuid.UUID, input UpdatePostInput) (*PostDTO, error)
	DeletePost(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo *Repository
	logg *logger.Logger
}

// NewService builds the blog service.
func NewService(repo *Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("blog repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, logg: logg}, nil
}

// ListPosts returns one page of posts. Drafts only appear for admin callers.
func (s *service) ListPosts(ctx context.Context, input ListPostsInput) (*PostList, error) {
	rows, nextCursor, err := s.repo.List(ctx, input)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing posts")
	}
	list := &PostList{Posts: make([]PostDTO, 0, len(rows)), NextCursor: nextCursor}
	for i := range rows {
		list.Posts = append(list.Posts, postDTO(&rows[i]))
	}
	return list, nil
}

// GetPostBySlug loads one published post for the storefront.
func (s *service) GetPostBySlug(ctx context.Context, slug string) (*PostDTO, error) {
	post, err := s.repo.FindBySlug(ctx, strings.TrimSpace(slug))
	if err != nil {
		if IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "post not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading post")
	}
	if !post.Published {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "post not found")
	}
	dto := postDTO(post)
	return &dto, nil
}

// CreatePost opens a draft.
func (s *service) CreatePost(ctx context.Context, input CreatePostInput) (*PostDTO, error) {
	slug := strings.TrimSpace(input.Slug)
	if !slugRe.MatchString(slug) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "slug must be lowercase letters, digits and hyphens")
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}
	post := &models.BlogPost{
		AuthorID: input.AuthorID,
		Title:    strings.TrimSpace(input.Title),
		Slug:     slug,
		Body:     input.Body,
		Excerpt:  input.Excerpt,
	}
	created, err := s.repo.Create(ctx, post)
	if err != nil {
		if dbpkg.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "a post with this slug already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating post")
	}
	dto := postDTO(created)
	return &dto, nil
}

// UpdatePost patches the post; publishing stamps published_at.
func (s *service) UpdatePost(ctx context.Context, id uuid.UUID, input UpdatePostInput) (*PostDTO, error) {
	post, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "post not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading post")
	}

	updates := map[string]any{}
	if input.Title != nil {
		updates["title"] = strings.TrimSpace(*input.Title)
	}
	if input.Slug != nil {
		slug := strings.TrimSpace(*input.Slug)
		if !slugRe.MatchString(slug) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "slug must be lowercase letters, digits and hyphens")
		}
		updates["slug"] = slug
	}
	if input.Body != nil {
		updates["body"] = *input.Body
	}
	if input.Excerpt != nil {
		updates["excerpt"] = *input.Excerpt
	}
	if input.Published != nil {
		updates["published"] = *input.Published
		if *input.Published && post.PublishedAt == nil {
			updates["published_at"] = time.Now().UTC()
		}
	}

	if err := s.repo.Update(ctx, id, updates); err != nil {
		if dbpkg.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "a post with this slug already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating post")
	}

	updated, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reloading post")
	}
	dto := postDTO(updated)
	return &dto, nil
}

// DeletePost removes the post.
func (s *service) DeletePost(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if IsNotFound(err) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "post not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading post")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deleting post")
	}
	return nil
}

func postDTO(post *models.BlogPost) PostDTO {
	return PostDTO{
		ID:          post.ID,
		AuthorID:    post.AuthorID,
		Title:       post.Title,
		Slug:        post.Slug,
		Body:        post.Body,
		Excerpt:     post.Excerpt,
		Published:   post.Published,
		PublishedAt: post.PublishedAt,
		CreatedAt:   post.CreatedAt,
		UpdatedAt:   post.UpdatedAt,
	}
}
