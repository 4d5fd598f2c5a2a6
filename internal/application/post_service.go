package application

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/frtweb/blog-backend/internal/domain/entity"
	repo "github.com/frtweb/blog-backend/internal/domain/repository"
	"github.com/frtweb/blog-backend/internal/infrastructure/search"
	"github.com/frtweb/blog-backend/pkg/helpers"
	"github.com/frtweb/blog-backend/pkg/imaging"
	"github.com/frtweb/blog-backend/pkg/mailer"
	"github.com/frtweb/blog-backend/pkg/mailer/templates"
	"github.com/frtweb/blog-backend/pkg/metrics"
)

// maxParallelUploads bounds concurrent object-store writes per request.
const maxParallelUploads = 4

type PostOptions struct {
	MaxWidth       int
	CacheControl   string
	CleanupEnabled bool
	MailEnabled    bool
	SiteURL        string
}

type PostService struct {
	Posts   repo.PostRepository
	Users   repo.UserRepository
	Store   ObjectStore
	Images  ImageTranscoder
	Index   PostIndexer  // optional
	Mail    JobPublisher // optional, email queue
	Cleanup JobPublisher // optional, storage-cleanup queue
	Logger  *logrus.Logger
	Opts    PostOptions

	now func() time.Time
}

func NewPostService(posts repo.PostRepository, users repo.UserRepository, store ObjectStore, images ImageTranscoder, logger *logrus.Logger, opts PostOptions) *PostService {
	if logger == nil {
		logger = helpers.NopLogger()
	}
	return &PostService{
		Posts:  posts,
		Users:  users,
		Store:  store,
		Images: images,
		Logger: logger,
		Opts:   opts,
		now:    time.Now,
	}
}

// AdminPost is a row of the admin listing.
type AdminPost struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Author      string `json:"author"`
	State       string `json:"state"`
	Date        string `json:"date"`
	Slug        string `json:"slug"`
	Category    string `json:"category"`
}

// PublicPost is a published post as the website renders it.
type PublicPost struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Content     string `json:"content"`
	Author      string `json:"author"`
	Date        string `json:"date"`
	Slug        string `json:"slug"`
	Featured    bool   `json:"featured"`
}

type CreatePostInput struct {
	Title       string
	Description string
	Content     string
	Category    string
	UserID      int64
	Cover       *Upload
	Gallery     []Upload
}

type EditPostInput struct {
	Description string
	Content     string
	Cover       *Upload
	Gallery     []Upload
}

// encoded is a transcoded image ready for upload.
type encoded struct {
	path string
	kind string
	data []byte
}

func (s *PostService) ListAdmin(ctx context.Context) ([]AdminPost, error) {
	rows, err := s.Posts.ListWithAuthors(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]AdminPost, 0, len(rows))
	for i := range rows {
		p := &rows[i]
		out = append(out, AdminPost{
			ID:          p.ID,
			Title:       p.Title,
			Description: p.Description,
			Author:      p.Author,
			State:       p.State(),
			Date:        p.Date(),
			Slug:        p.Slug,
			Category:    p.Category,
		})
	}
	return out, nil
}

func (s *PostService) ListPublic(ctx context.Context) ([]PublicPost, error) {
	rows, err := s.Posts.ListPublishedWithAuthors(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]PublicPost, 0, len(rows))
	for i := range rows {
		p := &rows[i]
		out = append(out, PublicPost{
			ID:          p.ID,
			Title:       p.Title,
			Description: p.Description,
			Content:     p.Content,
			Author:      p.Author,
			Date:        p.Date(),
			Slug:        p.Slug,
			Featured:    p.Featured,
		})
	}
	return out, nil
}

func (s *PostService) Get(ctx context.Context, id int64) (*entity.Post, error) {
	p, err := s.Posts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return p, nil
}

// Create stores the post and its images. Images are transcoded before the
// row is written so an unreadable upload never leaves a post behind.
func (s *PostService) Create(ctx context.Context, in CreatePostInput) (*entity.Post, error) {
	if in.Cover == nil {
		return nil, ErrMissingCover
	}
	cover, err := s.transcode(metrics.KindCover, *in.Cover)
	if err != nil {
		return nil, err
	}
	gallery, err := s.transcodeGallery(in.Gallery)
	if err != nil {
		return nil, err
	}

	p := &entity.Post{
		Title:       in.Title,
		Description: in.Description,
		Content:     in.Content,
		Category:    in.Category,
		UserID:      in.UserID,
		Slug:        Slug(in.Title, in.Category, s.now()),
	}
	if err := s.Posts.Create(ctx, p); err != nil {
		return nil, err
	}

	cover.path = entity.CoverPath(p.ID)
	if err := s.uploadAll(ctx, p.ID, append([]encoded{cover}, gallery...)); err != nil {
		return nil, err
	}
	s.Logger.WithFields(logrus.Fields{"post_id": p.ID, "user_id": in.UserID, "images": len(gallery) + 1}).Info("post created")
	return p, nil
}

// Edit overwrites description and content and adds the uploaded images.
// Title and category are fixed at creation.
func (s *PostService) Edit(ctx context.Context, id int64, in EditPostInput) (*entity.Post, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	images, err := s.transcodeGallery(in.Gallery)
	if err != nil {
		return nil, err
	}
	if in.Cover != nil {
		cover, err := s.transcode(metrics.KindCover, *in.Cover)
		if err != nil {
			return nil, err
		}
		cover.path = entity.CoverPath(id)
		images = append(images, cover)
	}

	if err := s.Posts.UpdateContent(ctx, id, in.Description, in.Content); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	p.Description = in.Description
	p.Content = in.Content

	if err := s.uploadAll(ctx, id, images); err != nil {
		return nil, err
	}
	if p.Published {
		s.index(ctx, p)
	}
	return p, nil
}

func (s *PostService) Publish(ctx context.Context, id, actorID int64) error {
	p, err := s.setPublished(ctx, id, actorID, true)
	if err != nil {
		return err
	}
	s.index(ctx, p)
	if actorID != p.UserID {
		s.notifyAuthor(ctx, p, actorID)
	}
	return nil
}

func (s *PostService) Deactivate(ctx context.Context, id, actorID int64) error {
	if _, err := s.setPublished(ctx, id, actorID, false); err != nil {
		return err
	}
	s.unindex(ctx, id)
	return nil
}

func (s *PostService) setPublished(ctx context.Context, id, actorID int64, published bool) (*entity.Post, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.Posts.SetPublished(ctx, id, published); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	p.Published = published

	action := "post deactivated"
	if published {
		action = "post published"
	}
	s.Logger.WithFields(logrus.Fields{"post_id": id, "title": p.Title, "actor": s.actorName(ctx, actorID)}).Info(action)
	return p, nil
}

// MakeFeatured moves the featured flag to the post. Already featured posts are left alone.
func (s *PostService) MakeFeatured(ctx context.Context, id int64) error {
	p, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if p.Featured {
		return nil
	}
	if err := s.Posts.SetFeatured(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrPostNotFound
		}
		return err
	}
	return nil
}

func (s *PostService) Delete(ctx context.Context, id int64) error {
	if err := s.Posts.Delete(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrPostNotFound
		}
		return err
	}
	s.unindex(ctx, id)
	if s.Opts.CleanupEnabled {
		s.cleanupImages(ctx, id)
	}
	return nil
}

// UploadImage stores a single image for the post and returns its object key.
func (s *PostService) UploadImage(ctx context.Context, id int64, up Upload) (string, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return "", err
	}
	name, err := BaseName(up.Filename)
	if err != nil {
		return "", err
	}
	img, err := s.transcode(metrics.KindSingle, up)
	if err != nil {
		return "", err
	}
	img.path = entity.GalleryPath(id, name)
	if err := s.put(ctx, img, ""); err != nil {
		s.Logger.WithError(err).WithFields(logrus.Fields{"post_id": id, "object": img.path}).Error("image upload failed")
		return "", err
	}
	return img.path, nil
}

// Search queries the published post index. Without an index it returns nothing.
func (s *PostService) Search(ctx context.Context, q string, size int) ([]search.Document, error) {
	if s.Index == nil || q == "" {
		return []search.Document{}, nil
	}
	return s.Index.Search(ctx, q, size)
}

// coverBaseName is reserved: a gallery image with it would land on the cover key.
const coverBaseName = "index"

// transcodeGallery rejects gallery files that would share an object key
// before anything is transcoded.
func (s *PostService) transcodeGallery(files []Upload) ([]encoded, error) {
	names := make([]string, len(files))
	seen := make(map[string]bool, len(files)+1)
	seen[coverBaseName] = true
	for i, f := range files {
		name, err := BaseName(f.Filename)
		if err != nil {
			return nil, err
		}
		if seen[name] {
			return nil, fmt.Errorf("%w: %q maps to an image already in this upload", ErrInvalidFilename, f.Filename)
		}
		seen[name] = true
		names[i] = name
	}

	out := make([]encoded, 0, len(files))
	for i, f := range files {
		img, err := s.transcode(metrics.KindGallery, f)
		if err != nil {
			return nil, err
		}
		img.path = names[i] // resolved to a key once the post id is known
		out = append(out, img)
	}
	return out, nil
}

func (s *PostService) transcode(kind string, up Upload) (encoded, error) {
	start := time.Now()
	data, err := s.Images.FitWidth(up.Body, s.Opts.MaxWidth)
	metrics.ObserveTranscode(kind, start)
	if err != nil {
		return encoded{}, fmt.Errorf("%w: %s: %v", ErrInvalidImage, up.Filename, err)
	}
	return encoded{kind: kind, data: data}, nil
}

// uploadAll writes the images concurrently and waits for every one of them.
// Gallery entries carry their base name in path until here.
func (s *PostService) uploadAll(ctx context.Context, postID int64, images []encoded) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelUploads)
	for _, img := range images {
		if img.kind == metrics.KindGallery {
			img.path = entity.GalleryPath(postID, img.path)
		}
		g.Go(func() error {
			if err := s.put(gctx, img, s.Opts.CacheControl); err != nil {
				s.Logger.WithError(err).WithFields(logrus.Fields{"post_id": postID, "object": img.path}).Error("image upload failed")
				return err
			}
			return nil
		})
	}
	return g.Wait()
}

func (s *PostService) put(ctx context.Context, img encoded, cacheControl string) error {
	err := s.Store.Put(ctx, img.path, img.data, helpers.ObjectMeta{ContentType: imaging.ContentType, CacheControl: cacheControl})
	metrics.CountUpload(img.kind, err)
	return err
}

func (s *PostService) actorName(ctx context.Context, actorID int64) string {
	if s.Users == nil {
		return strconv.FormatInt(actorID, 10)
	}
	u, err := s.Users.GetByID(ctx, actorID)
	if err != nil {
		return strconv.FormatInt(actorID, 10)
	}
	return u.Fullname
}

func (s *PostService) authorName(ctx context.Context, p *entity.Post) string {
	if s.Users == nil || p.UserID == 0 {
		return ""
	}
	u, err := s.Users.GetByID(ctx, p.UserID)
	if err != nil {
		return ""
	}
	return u.Fullname
}

func (s *PostService) index(ctx context.Context, p *entity.Post) {
	if s.Index == nil {
		return
	}
	if err := s.Index.Put(ctx, p, s.authorName(ctx, p)); err != nil {
		s.Logger.WithError(err).WithField("post_id", p.ID).Warn("post index failed")
	}
}

func (s *PostService) unindex(ctx context.Context, id int64) {
	if s.Index == nil {
		return
	}
	if err := s.Index.Remove(ctx, id); err != nil {
		s.Logger.WithError(err).WithField("post_id", id).Warn("post unindex failed")
	}
}

// notifyAuthor queues a mail telling the author someone else published their post.
func (s *PostService) notifyAuthor(ctx context.Context, p *entity.Post, actorID int64) {
	if !s.Opts.MailEnabled || s.Mail == nil || s.Users == nil || p.UserID == 0 {
		return
	}
	author, err := s.Users.GetByID(ctx, p.UserID)
	if err != nil || author.Email == "" {
		return
	}
	job := mailer.EmailJob{
		To:       author.Email,
		Template: mailer.TemplatePostPublished,
		Data: templates.ToMap(templates.PostPublishedData{
			Name:      author.Fullname,
			Title:     p.Title,
			Publisher: s.actorName(ctx, actorID),
			URL:       s.Opts.SiteURL + "/blog/" + p.Slug,
		}),
	}
	if err := s.Mail.PublishJSON(ctx, job); err != nil {
		s.Logger.WithError(err).WithField("post_id", p.ID).Warn("enqueue publish mail failed")
	}
}

func (s *PostService) cleanupImages(ctx context.Context, id int64) {
	prefix := entity.ImagePrefix(id)
	if s.Cleanup != nil {
		if err := s.Cleanup.PublishJSON(ctx, CleanupJob{Prefix: prefix}); err != nil {
			s.Logger.WithError(err).WithField("post_id", id).Warn("enqueue image cleanup failed")
		}
		return
	}
	n, err := s.Store.DeletePrefix(ctx, prefix)
	if err != nil {
		s.Logger.WithError(err).WithField("post_id", id).Warn("image cleanup failed")
		return
	}
	s.Logger.WithFields(logrus.Fields{"post_id": id, "objects": n}).Info("post images removed")
}
