package repository

import (
	"context"
	"errors"

	"github.com/frtweb/blog-backend/internal/domain/entity"
)

// ErrNotFound is returned by repositories when no row matches.
var ErrNotFound = errors.New("not found")

// PostRepository defines the persistence operations on blog posts.
type PostRepository interface {
	Create(ctx context.Context, p *entity.Post) error
	GetByID(ctx context.Context, id int64) (*entity.Post, error)
	// ListWithAuthors returns every post ordered by ascending id.
	ListWithAuthors(ctx context.Context) ([]entity.PostWithAuthor, error)
	// ListPublishedWithAuthors returns published posts ordered by ascending id.
	ListPublishedWithAuthors(ctx context.Context) ([]entity.PostWithAuthor, error)
	UpdateContent(ctx context.Context, id int64, description, content string) error
	SetPublished(ctx context.Context, id int64, published bool) error
	// SetFeatured clears the flag on every other post and sets it on id in a
	// single transaction.
	SetFeatured(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
}
