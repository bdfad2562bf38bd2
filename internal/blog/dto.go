package blog

import (
	"time"

	"github.com/google/uuid"

	"github.com/carnimore/storefront-backend/pkg/pagination"
)

// PostDTO is the public blog post shape.
type PostDTO struct {
	ID          uuid.UUID  `json:"id"`
	AuthorID    uuid.UUID  `json:"author_id"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Body        string     `json:"body"`
	Excerpt     *string    `json:"excerpt,omitempty"`
	Published   bool       `json:"published"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// CreatePostInput opens a draft post.
type CreatePostInput struct {
	AuthorID uuid.UUID
	Title    string
	Slug     string
	Body     string
	Excerpt  *string
}

// UpdatePostInput patches a post; nil fields are left untouched.
type UpdatePostInput struct {
	Title     *string
	Slug      *string
	Body      *string
	Excerpt   *string
	Published *bool
}

// ListPostsInput filters the post listing. Admin callers may include drafts.
type ListPostsInput struct {
	IncludeDrafts bool
	Pagination    pagination.Params
}

// PostList is one page of posts with a continuation cursor.
type PostList struct {
	Posts      []PostDTO `json:"posts"`
	NextCursor *string   `json:"next_cursor,omitempty"`
}
