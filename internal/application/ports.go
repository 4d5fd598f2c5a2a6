package application

import (
	"context"
	"io"
	"regexp"

	"github.com/frtweb/blog-backend/internal/domain/entity"
	"github.com/frtweb/blog-backend/internal/infrastructure/search"
	"github.com/frtweb/blog-backend/pkg/helpers"
)

// ObjectStore is the blob storage the services write images to.
type ObjectStore interface {
	Put(ctx context.Context, path string, data []byte, meta helpers.ObjectMeta) error
	Delete(ctx context.Context, path string) error
	DeletePrefix(ctx context.Context, prefix string) (int, error)
}

// ImageTranscoder re-encodes uploads into WebP.
type ImageTranscoder interface {
	FitWidth(r io.Reader, maxWidth int) ([]byte, error)
	Cover(r io.Reader, w, h int) ([]byte, error)
}

// JobPublisher enqueues a JSON job.
type JobPublisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// PostIndexer keeps the search index of published posts.
type PostIndexer interface {
	Put(ctx context.Context, p *entity.Post, author string) error
	Remove(ctx context.Context, id int64) error
	Search(ctx context.Context, q string, size int) ([]search.Document, error)
}

// Upload is one file received from a client.
type Upload struct {
	Filename string
	Body     io.Reader
}

// CleanupJob asks the storage worker to delete every object under Prefix.
type CleanupJob struct {
	Prefix string `json:"prefix"`
}

var postPrefix = regexp.MustCompile(`^[1-9][0-9]*/$`)

// Valid reports whether Prefix names exactly one post's image folder.
func (j CleanupJob) Valid() bool {
	return postPrefix.MatchString(j.Prefix)
}
