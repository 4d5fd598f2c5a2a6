package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/frtweb/blog-backend/internal/interface/http"
	"github.com/frtweb/blog-backend/internal/interface/middleware"
	"github.com/frtweb/blog-backend/pkg/helpers"
)

// PostModule serves /api/posts. The public listing and search need no login.
type PostModule struct {
	Handler *handlers.PostHandler
	RDB     *redis.Client
	JWT     *helpers.JWTManager
}

func NewPostModule(h *handlers.PostHandler, rdb *redis.Client, jwt *helpers.JWTManager) *PostModule {
	return &PostModule{Handler: h, RDB: rdb, JWT: jwt}
}

func (m *PostModule) Register(rg *gin.RouterGroup) {
	public := rg.Group("/posts/public")
	public.Use(middleware.RateLimit(m.RDB, 300, time.Minute, middleware.KeyByIP(), middleware.AllowPrivateIP()))
	{
		public.GET("", m.Handler.ListPublic)
		public.GET("/search", m.Handler.Search)
	}

	auth := rg.Group("/posts")
	auth.Use(
		middleware.Auth(m.RDB, m.JWT),
		middleware.RateLimit(m.RDB, 120, time.Minute, middleware.KeyByUserID(), nil),
	)
	{
		auth.GET("", m.Handler.ListAdmin)
		auth.POST("", m.Handler.Create)
		auth.GET("/:id", m.Handler.Get)
		auth.PUT("/:id", m.Handler.Edit)
		auth.DELETE("/:id", m.Handler.Delete)
		auth.POST("/make_featured/:id", m.Handler.MakeFeatured)
		auth.POST("/publish/:id", m.Handler.Publish)
		auth.POST("/deactivate/:id", m.Handler.Deactivate)
		auth.POST("/upload_image/:id", m.Handler.UploadImage)
	}
}
