package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/sirupsen/logrus"

	"github.com/frtweb/blog-backend/internal/application"
	"github.com/frtweb/blog-backend/internal/domain/entity"
	"github.com/frtweb/blog-backend/internal/infrastructure/search"
	"github.com/frtweb/blog-backend/internal/interface/middleware"
	"github.com/frtweb/blog-backend/pkg/response"
	"github.com/frtweb/blog-backend/pkg/validation"
)

const msgPostNotFound = "Post not found :("

// PostUseCase is what the post endpoints need from the application layer.
type PostUseCase interface {
	ListAdmin(ctx context.Context) ([]application.AdminPost, error)
	ListPublic(ctx context.Context) ([]application.PublicPost, error)
	Get(ctx context.Context, id int64) (*entity.Post, error)
	Create(ctx context.Context, in application.CreatePostInput) (*entity.Post, error)
	Edit(ctx context.Context, id int64, in application.EditPostInput) (*entity.Post, error)
	Publish(ctx context.Context, id, actorID int64) error
	Deactivate(ctx context.Context, id, actorID int64) error
	MakeFeatured(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
	UploadImage(ctx context.Context, id int64, up application.Upload) (string, error)
	Search(ctx context.Context, q string, size int) ([]search.Document, error)
}

type PostHandler struct {
	Svc       PostUseCase
	Logger    *logrus.Logger
	MaxUpload int64
}

func NewPostHandler(svc PostUseCase, logger *logrus.Logger, maxUpload int64) *PostHandler {
	return &PostHandler{Svc: svc, Logger: logger, MaxUpload: maxUpload}
}

type createPostRequest struct {
	Title       string `form:"title" binding:"required"`
	Description string `form:"description" binding:"required"`
	Content     string `form:"content" binding:"required"`
	Category    string `form:"category" binding:"required"`
}

type editPostRequest struct {
	Description string `form:"description"`
	Content     string `form:"content"`
}

// fail maps service errors onto status codes; unknown errors are logged and
// answered with the generic message.
func (h *PostHandler) fail(c *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, application.ErrPostNotFound):
		response.Error(c, http.StatusNotFound, msgPostNotFound, nil)
	case errors.Is(err, application.ErrMissingCover),
		errors.Is(err, application.ErrInvalidImage),
		errors.Is(err, application.ErrInvalidFilename):
		response.Error(c, http.StatusBadRequest, msg, err.Error())
	default:
		h.Logger.WithError(err).WithField("path", c.FullPath()).Error(msg)
		response.Error(c, http.StatusInternalServerError, msg, nil)
	}
}

func postID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusNotFound, msgPostNotFound, nil)
		return 0, false
	}
	return id, true
}

func actorID(c *gin.Context) (int64, bool) {
	id, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "unauthorized", nil)
	}
	return id, ok
}

// ListAdmin GET /api/posts
func (h *PostHandler) ListAdmin(c *gin.Context) {
	posts, err := h.Svc.ListAdmin(c.Request.Context())
	if err != nil {
		h.fail(c, err, "Failed to get posts :(")
		return
	}
	response.Success(c, http.StatusOK, posts, "", nil)
}

// ListPublic GET /api/posts/public
func (h *PostHandler) ListPublic(c *gin.Context) {
	posts, err := h.Svc.ListPublic(c.Request.Context())
	if err != nil {
		h.fail(c, err, "Failed to get posts :(")
		return
	}
	response.Success(c, http.StatusOK, posts, "", nil)
}

// Search GET /api/posts/public/search?q=&size=
func (h *PostHandler) Search(c *gin.Context) {
	size, _ := strconv.Atoi(c.Query("size"))
	docs, err := h.Svc.Search(c.Request.Context(), c.Query("q"), size)
	if err != nil {
		h.fail(c, err, "Failed to search posts :(")
		return
	}
	response.Success(c, http.StatusOK, docs, "", map[string]any{"count": len(docs)})
}

// Get GET /api/posts/:id
func (h *PostHandler) Get(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		return
	}
	p, err := h.Svc.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err, "Failed to get post :(")
		return
	}
	response.Success(c, http.StatusOK, p, "", nil)
}

// Create POST /api/posts (multipart: title, description, content, category, index, images[])
func (h *PostHandler) Create(c *gin.Context) {
	const msg = "Failed to create post :("
	uid, ok := actorID(c)
	if !ok {
		return
	}
	if !parseMultipart(c, h.MaxUpload) {
		return
	}
	var req createPostRequest
	if err := c.ShouldBindWith(&req, binding.FormMultipart); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	var files openedFiles
	defer files.Close()
	cover, err := files.formFile(c.Request, "index")
	if err != nil {
		h.fail(c, err, msg)
		return
	}
	gallery, err := files.formFiles(c.Request, "images[]")
	if err != nil {
		h.fail(c, err, msg)
		return
	}

	p, err := h.Svc.Create(c.Request.Context(), application.CreatePostInput{
		Title:       req.Title,
		Description: req.Description,
		Content:     req.Content,
		Category:    req.Category,
		UserID:      uid,
		Cover:       cover,
		Gallery:     gallery,
	})
	if err != nil {
		h.fail(c, err, msg)
		return
	}
	response.Success(c, http.StatusOK, p, "", nil)
}

// Edit PUT /api/posts/:id (multipart: description, content, optional index, images[])
func (h *PostHandler) Edit(c *gin.Context) {
	const msg = "Failed to edit post :("
	id, ok := postID(c)
	if !ok {
		return
	}
	if !parseMultipart(c, h.MaxUpload) {
		return
	}
	var req editPostRequest
	if err := c.ShouldBindWith(&req, binding.FormMultipart); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	var files openedFiles
	defer files.Close()
	cover, err := files.formFile(c.Request, "index")
	if err != nil {
		h.fail(c, err, msg)
		return
	}
	gallery, err := files.formFiles(c.Request, "images[]")
	if err != nil {
		h.fail(c, err, msg)
		return
	}

	p, err := h.Svc.Edit(c.Request.Context(), id, application.EditPostInput{
		Description: req.Description,
		Content:     req.Content,
		Cover:       cover,
		Gallery:     gallery,
	})
	if err != nil {
		h.fail(c, err, msg)
		return
	}
	response.Success(c, http.StatusOK, p, "", nil)
}

// Publish POST /api/posts/publish/:id
func (h *PostHandler) Publish(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		return
	}
	uid, ok := actorID(c)
	if !ok {
		return
	}
	if err := h.Svc.Publish(c.Request.Context(), id, uid); err != nil {
		h.fail(c, err, "Failed to publish post :(")
		return
	}
	response.OK(c, "")
}

// Deactivate POST /api/posts/deactivate/:id
func (h *PostHandler) Deactivate(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		return
	}
	uid, ok := actorID(c)
	if !ok {
		return
	}
	if err := h.Svc.Deactivate(c.Request.Context(), id, uid); err != nil {
		h.fail(c, err, "Failed to deactivate post :(")
		return
	}
	response.OK(c, "")
}

// MakeFeatured POST /api/posts/make_featured/:id
func (h *PostHandler) MakeFeatured(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		return
	}
	if err := h.Svc.MakeFeatured(c.Request.Context(), id); err != nil {
		h.fail(c, err, "Failed to make post featured :(")
		return
	}
	response.OK(c, "")
}

// Delete DELETE /api/posts/:id
func (h *PostHandler) Delete(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		return
	}
	if err := h.Svc.Delete(c.Request.Context(), id); err != nil {
		h.fail(c, err, "Failed to delete post :(")
		return
	}
	response.OK(c, "")
}

// UploadImage POST /api/posts/upload_image/:id (multipart: image)
func (h *PostHandler) UploadImage(c *gin.Context) {
	const msg = "Failed to upload image :("
	id, ok := postID(c)
	if !ok {
		return
	}
	if !parseMultipart(c, h.MaxUpload) {
		return
	}
	var files openedFiles
	defer files.Close()
	up, err := files.formFile(c.Request, "image")
	if err != nil {
		h.fail(c, err, msg)
		return
	}
	if up == nil {
		response.Error(c, http.StatusBadRequest, msg, errNoFile.Error())
		return
	}

	name, err := h.Svc.UploadImage(c.Request.Context(), id, *up)
	if err != nil {
		h.fail(c, err, msg)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"filename": name}, "", nil)
}
