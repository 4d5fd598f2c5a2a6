package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frtweb/blog-backend/internal/application"
	"github.com/frtweb/blog-backend/internal/domain/entity"
	"github.com/frtweb/blog-backend/internal/infrastructure/search"
	"github.com/frtweb/blog-backend/internal/interface/middleware"
	"github.com/frtweb/blog-backend/pkg/helpers"
	"github.com/frtweb/blog-backend/pkg/validation"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	validation.Init()
	os.Exit(m.Run())
}

// asUser stands in for the auth middleware.
func asUser(id string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.CtxUserIDKey, id)
		c.Next()
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   json.RawMessage `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

type part struct {
	field, filename, body string
}

func multipartBody(t *testing.T, fields map[string]string, files ...part) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, f := range files {
		fw, err := mw.CreateFormFile(f.field, f.filename)
		require.NoError(t, err)
		_, err = io.WriteString(fw, f.body)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

type postUseCaseStub struct {
	listAdminFn    func(context.Context) ([]application.AdminPost, error)
	getFn          func(context.Context, int64) (*entity.Post, error)
	createFn       func(context.Context, application.CreatePostInput) (*entity.Post, error)
	editFn         func(context.Context, int64, application.EditPostInput) (*entity.Post, error)
	publishFn      func(context.Context, int64, int64) error
	makeFeaturedFn func(context.Context, int64) error
	deleteFn       func(context.Context, int64) error
	uploadFn       func(context.Context, int64, application.Upload) (string, error)
	searchFn       func(context.Context, string, int) ([]search.Document, error)
}

func (s *postUseCaseStub) ListAdmin(ctx context.Context) ([]application.AdminPost, error) {
	return s.listAdminFn(ctx)
}
func (s *postUseCaseStub) ListPublic(context.Context) ([]application.PublicPost, error) {
	return []application.PublicPost{}, nil
}
func (s *postUseCaseStub) Get(ctx context.Context, id int64) (*entity.Post, error) {
	return s.getFn(ctx, id)
}
func (s *postUseCaseStub) Create(ctx context.Context, in application.CreatePostInput) (*entity.Post, error) {
	return s.createFn(ctx, in)
}
func (s *postUseCaseStub) Edit(ctx context.Context, id int64, in application.EditPostInput) (*entity.Post, error) {
	return s.editFn(ctx, id, in)
}
func (s *postUseCaseStub) Publish(ctx context.Context, id, actor int64) error {
	return s.publishFn(ctx, id, actor)
}
func (s *postUseCaseStub) Deactivate(ctx context.Context, id, actor int64) error {
	return s.publishFn(ctx, id, actor)
}
func (s *postUseCaseStub) MakeFeatured(ctx context.Context, id int64) error {
	return s.makeFeaturedFn(ctx, id)
}
func (s *postUseCaseStub) Delete(ctx context.Context, id int64) error { return s.deleteFn(ctx, id) }
func (s *postUseCaseStub) UploadImage(ctx context.Context, id int64, up application.Upload) (string, error) {
	return s.uploadFn(ctx, id, up)
}
func (s *postUseCaseStub) Search(ctx context.Context, q string, size int) ([]search.Document, error) {
	return s.searchFn(ctx, q, size)
}

func postRouter(svc PostUseCase) *gin.Engine {
	h := NewPostHandler(svc, helpers.NopLogger(), 1<<20)
	r := gin.New()
	r.GET("/posts/public/search", h.Search)
	g := r.Group("/posts", asUser("7"))
	g.GET("", h.ListAdmin)
	g.GET("/:id", h.Get)
	g.POST("", h.Create)
	g.PUT("/:id", h.Edit)
	g.DELETE("/:id", h.Delete)
	g.POST("/publish/:id", h.Publish)
	g.POST("/make_featured/:id", h.MakeFeatured)
	g.POST("/upload_image/:id", h.UploadImage)
	return r
}

func TestPostHandler_ListAdmin(t *testing.T) {
	svc := &postUseCaseStub{listAdminFn: func(context.Context) ([]application.AdminPost, error) {
		return []application.AdminPost{{ID: 1, State: entity.StateDraft}}, nil
	}}
	w := httptest.NewRecorder()
	postRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/posts", nil))

	require.Equal(t, http.StatusOK, w.Code)
	env := decode(t, w)
	assert.True(t, env.Success)
	assert.Contains(t, string(env.Data), `"state":"draft"`)
}

func TestPostHandler_ListAdminFailure(t *testing.T) {
	svc := &postUseCaseStub{listAdminFn: func(context.Context) ([]application.AdminPost, error) {
		return nil, errors.New("db down")
	}}
	w := httptest.NewRecorder()
	postRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/posts", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	env := decode(t, w)
	assert.False(t, env.Success)
	assert.Equal(t, "Failed to get posts :(", env.Message)
}

func TestPostHandler_GetNotFound(t *testing.T) {
	svc := &postUseCaseStub{getFn: func(context.Context, int64) (*entity.Post, error) {
		return nil, application.ErrPostNotFound
	}}
	r := postRouter(svc)

	for _, path := range []string{"/posts/99", "/posts/abc"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusNotFound, w.Code, path)
		assert.Equal(t, msgPostNotFound, decode(t, w).Message)
	}
}

func TestPostHandler_Create(t *testing.T) {
	var got application.CreatePostInput
	var coverBody, galleryBody []byte
	svc := &postUseCaseStub{createFn: func(_ context.Context, in application.CreatePostInput) (*entity.Post, error) {
		got = in
		coverBody, _ = io.ReadAll(in.Cover.Body)
		galleryBody, _ = io.ReadAll(in.Gallery[1].Body)
		return &entity.Post{ID: 12, Title: in.Title}, nil
	}}
	body, ct := multipartBody(t,
		map[string]string{"title": "Hello", "description": "d", "content": "<p>c</p>", "category": "news"},
		part{"index", "cover.jpg", "C"},
		part{"images[]", "a.png", "A"},
		part{"images[]", "b.png", "B"},
	)
	req := httptest.NewRequest(http.MethodPost, "/posts", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	postRouter(svc).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Hello", got.Title)
	assert.Equal(t, int64(7), got.UserID)
	assert.Equal(t, "cover.jpg", got.Cover.Filename)
	require.Len(t, got.Gallery, 2)
	assert.Equal(t, "C", string(coverBody))
	assert.Equal(t, "B", string(galleryBody))
	assert.Contains(t, string(decode(t, w).Data), `"id":12`)
}

func TestPostHandler_CreateValidation(t *testing.T) {
	svc := &postUseCaseStub{createFn: func(context.Context, application.CreatePostInput) (*entity.Post, error) {
		t.Fatal("service must not be called")
		return nil, nil
	}}
	body, ct := multipartBody(t, map[string]string{"title": "Hello"}, part{"index", "c.jpg", "C"})
	req := httptest.NewRequest(http.MethodPost, "/posts", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	postRouter(svc).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, string(decode(t, w).Error), `"category":"is required"`)
}

func TestPostHandler_CreateMissingCover(t *testing.T) {
	svc := &postUseCaseStub{createFn: func(_ context.Context, in application.CreatePostInput) (*entity.Post, error) {
		assert.Nil(t, in.Cover)
		return nil, application.ErrMissingCover
	}}
	body, ct := multipartBody(t, map[string]string{"title": "t", "description": "d", "content": "c", "category": "x"})
	req := httptest.NewRequest(http.MethodPost, "/posts", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	postRouter(svc).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPostHandler_Edit(t *testing.T) {
	var gotID int64
	var got application.EditPostInput
	svc := &postUseCaseStub{editFn: func(_ context.Context, id int64, in application.EditPostInput) (*entity.Post, error) {
		gotID, got = id, in
		return &entity.Post{ID: id}, nil
	}}
	body, ct := multipartBody(t, map[string]string{"description": "new", "title": "ignored"}, part{"images[]", "x.jpg", "X"})
	req := httptest.NewRequest(http.MethodPut, "/posts/5", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	postRouter(svc).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, int64(5), gotID)
	assert.Equal(t, "new", got.Description)
	assert.Equal(t, "", got.Content)
	assert.Nil(t, got.Cover)
	assert.Len(t, got.Gallery, 1)
}

func TestPostHandler_PublishPassesActor(t *testing.T) {
	var id, actor int64
	svc := &postUseCaseStub{publishFn: func(_ context.Context, i, a int64) error {
		id, actor = i, a
		return nil
	}}
	w := httptest.NewRecorder()
	postRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/posts/publish/3", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(3), id)
	assert.Equal(t, int64(7), actor)
}

func TestPostHandler_MakeFeaturedAndDelete(t *testing.T) {
	svc := &postUseCaseStub{
		makeFeaturedFn: func(context.Context, int64) error { return nil },
		deleteFn:       func(context.Context, int64) error { return application.ErrPostNotFound },
	}
	r := postRouter(svc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/posts/make_featured/3", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode(t, w).Success)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/posts/3", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPostHandler_UploadImage(t *testing.T) {
	svc := &postUseCaseStub{uploadFn: func(_ context.Context, id int64, up application.Upload) (string, error) {
		assert.Equal(t, "pic.png", up.Filename)
		return "3/pic.webp", nil
	}}
	body, ct := multipartBody(t, nil, part{"image", "pic.png", "P"})
	req := httptest.NewRequest(http.MethodPost, "/posts/upload_image/3", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	postRouter(svc).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"filename":"3/pic.webp"}`, string(decode(t, w).Data))
}

func TestPostHandler_UploadImageRequiresFile(t *testing.T) {
	body, ct := multipartBody(t, map[string]string{"x": "y"})
	req := httptest.NewRequest(http.MethodPost, "/posts/upload_image/3", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	postRouter(&postUseCaseStub{}).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPostHandler_UploadImageStorageFailure(t *testing.T) {
	svc := &postUseCaseStub{uploadFn: func(context.Context, int64, application.Upload) (string, error) {
		return "", errors.New("gcs down")
	}}
	body, ct := multipartBody(t, nil, part{"image", "pic.png", "P"})
	req := httptest.NewRequest(http.MethodPost, "/posts/upload_image/3", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	postRouter(svc).ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Failed to upload image :(", decode(t, w).Message)
}

func TestPostHandler_Search(t *testing.T) {
	svc := &postUseCaseStub{searchFn: func(_ context.Context, q string, size int) ([]search.Document, error) {
		assert.Equal(t, "robot", q)
		assert.Equal(t, 5, size)
		return []search.Document{{ID: 1}}, nil
	}}
	w := httptest.NewRecorder()
	postRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/posts/public/search?q=robot&size=5", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}
