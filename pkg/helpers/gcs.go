package helpers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// NewGCSClient creates a Google Cloud Storage client. A raw JSON credential
// blob wins over a credentials file; with neither, ADC is used.
func NewGCSClient(ctx context.Context, credsJSON, credsPath string) (*storage.Client, error) {
	switch {
	case credsJSON != "":
		return storage.NewClient(ctx, option.WithCredentialsJSON([]byte(credsJSON)))
	case credsPath != "":
		return storage.NewClient(ctx, option.WithCredentialsFile(credsPath))
	default:
		return storage.NewClient(ctx)
	}
}

// ObjectMeta is the metadata written with an object.
type ObjectMeta struct {
	ContentType  string
	CacheControl string
}

// GCSStore stores blobs in a single bucket.
type GCSStore struct {
	client *storage.Client
	bucket string
}

func NewGCSStore(client *storage.Client, bucket string) *GCSStore {
	return &GCSStore{client: client, bucket: bucket}
}

// Put uploads data into objectPath, overwriting any existing object.
func (s *GCSStore) Put(ctx context.Context, objectPath string, data []byte, meta ObjectMeta) error {
	if s == nil || s.client == nil || s.bucket == "" {
		return errors.New("gcs not configured")
	}
	wc := s.client.Bucket(s.bucket).Object(objectPath).NewWriter(ctx)
	wc.ContentType = meta.ContentType
	wc.CacheControl = meta.CacheControl
	wc.ChunkSize = 0 // disable chunking for small files
	if _, err := bytes.NewReader(data).WriteTo(wc); err != nil {
		_ = wc.Close()
		return fmt.Errorf("write %s: %w", objectPath, err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("close %s: %w", objectPath, err)
	}
	return nil
}

func (s *GCSStore) Delete(ctx context.Context, objectPath string) error {
	if s == nil || s.client == nil || s.bucket == "" {
		return errors.New("gcs not configured")
	}
	return s.client.Bucket(s.bucket).Object(objectPath).Delete(ctx)
}

// DeletePrefix removes every object whose name starts with prefix and
// returns how many were deleted.
func (s *GCSStore) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	if s == nil || s.client == nil || s.bucket == "" {
		return 0, errors.New("gcs not configured")
	}
	if prefix == "" {
		return 0, errors.New("refusing to delete with empty prefix")
	}
	bkt := s.client.Bucket(s.bucket)
	it := bkt.Objects(ctx, &storage.Query{Prefix: prefix})
	n := 0
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		if err := bkt.Object(attrs.Name).Delete(ctx); err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
			return n, err
		}
		n++
	}
}

// PublicURL builds a public URL for an object (assuming public read access).
// A literal '?' in the key is escaped so it is not read as a query string.
func PublicURL(bucket, objectPath string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bucket, strings.ReplaceAll(objectPath, "?", "%3F"))
}
