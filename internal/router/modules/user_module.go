package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/frtweb/blog-backend/internal/interface/http"
	"github.com/frtweb/blog-backend/internal/interface/middleware"
	"github.com/frtweb/blog-backend/pkg/helpers"
)

// UserModule serves /api/users; every route needs a session.
type UserModule struct {
	Handler *handlers.UserHandler
	RDB     *redis.Client
	JWT     *helpers.JWTManager
}

func NewUserModule(h *handlers.UserHandler, rdb *redis.Client, jwt *helpers.JWTManager) *UserModule {
	return &UserModule{Handler: h, RDB: rdb, JWT: jwt}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	auth := rg.Group("/users")
	auth.Use(
		middleware.Auth(m.RDB, m.JWT),
		middleware.RateLimit(m.RDB, 120, time.Minute, middleware.KeyByUserID(), nil),
	)
	{
		auth.GET("", m.Handler.List)
		auth.GET("/self", m.Handler.GetSelf)
		auth.PUT("/self", m.Handler.UpdateSelf)
		auth.POST("/pfp", m.Handler.UpdateAvatar)
		auth.GET("/:id", m.Handler.Get)
		auth.DELETE("/:id", m.Handler.Delete)
	}
}
