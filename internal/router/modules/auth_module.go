package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/frtweb/blog-backend/internal/interface/http"
	"github.com/frtweb/blog-backend/internal/interface/middleware"
	"github.com/frtweb/blog-backend/pkg/helpers"
)

// AuthModule serves POST /api/login, /api/refresh and /api/logout.
type AuthModule struct {
	Handler *handlers.AuthHandler
	RDB     *redis.Client
	JWT     *helpers.JWTManager
}

func NewAuthModule(h *handlers.AuthHandler, rdb *redis.Client, jwt *helpers.JWTManager) *AuthModule {
	return &AuthModule{Handler: h, RDB: rdb, JWT: jwt}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	loginLimiter := middleware.RateLimit(m.RDB, 10, time.Minute, middleware.KeyByIPAndPath(), nil)
	refreshLimiter := middleware.RateLimit(m.RDB, 60, time.Minute, middleware.KeyByIPAndPath(), nil)

	rg.POST("/login", loginLimiter, m.Handler.Login)
	rg.POST("/refresh", refreshLimiter, m.Handler.Refresh)
	rg.POST("/logout", middleware.Auth(m.RDB, m.JWT), m.Handler.Logout)
}
