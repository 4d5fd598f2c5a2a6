package router

import (
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	handlers "github.com/frtweb/blog-backend/internal/interface/http"
	"github.com/frtweb/blog-backend/internal/router/modules"
	"github.com/frtweb/blog-backend/pkg/helpers"
)

func newTestEngine(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	jwt := helpers.NewJWTManager("a", "r", time.Minute, time.Hour)

	r := gin.New()
	reg := NewRegistry(r)
	reg.Add(modules.NewAuthModule(handlers.NewAuthHandler(nil, nil, "localhost", false), rdb, jwt))
	reg.Add(modules.NewPostModule(handlers.NewPostHandler(nil, nil, 1<<20), rdb, jwt))
	reg.Add(modules.NewUserModule(handlers.NewUserHandler(nil, nil, 1<<20), rdb, jwt))
	reg.Add(modules.NewDebugModule(rdb))
	reg.RegisterAll()
	return r
}

func TestRoutesMounted(t *testing.T) {
	r := newTestEngine(t)

	var got []string
	for _, ri := range r.Routes() {
		got = append(got, ri.Method+" "+ri.Path)
	}
	sort.Strings(got)

	want := []string{
		"DELETE /api/posts/:id",
		"DELETE /api/users/:id",
		"GET /api/debug/vars",
		"GET /api/metrics",
		"GET /api/posts",
		"GET /api/posts/:id",
		"GET /api/posts/public",
		"GET /api/posts/public/search",
		"GET /api/users",
		"GET /api/users/:id",
		"GET /api/users/self",
		"POST /api/login",
		"POST /api/logout",
		"POST /api/posts",
		"POST /api/posts/deactivate/:id",
		"POST /api/posts/make_featured/:id",
		"POST /api/posts/publish/:id",
		"POST /api/posts/upload_image/:id",
		"POST /api/refresh",
		"POST /api/users/pfp",
		"PUT /api/posts/:id",
		"PUT /api/users/self",
	}
	assert.Equal(t, want, got)
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	r := newTestEngine(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/posts"},
		{http.MethodPost, "/api/posts/publish/1"},
		{http.MethodGet, "/api/users/self"},
		{http.MethodPost, "/api/logout"},
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(tc.method, tc.path, nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code, tc.path)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	r := newTestEngine(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}
