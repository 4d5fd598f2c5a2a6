package router

import (
	"github.com/frtweb/blog-backend/internal/application"
	"github.com/frtweb/blog-backend/internal/container"
	pginfra "github.com/frtweb/blog-backend/internal/infrastructure/postgres"
	handlers "github.com/frtweb/blog-backend/internal/interface/http"
	"github.com/frtweb/blog-backend/internal/router/modules"
)

type Deps struct {
	Posts *application.PostService
	Users *application.UserService

	PostHandler *handlers.PostHandler
	UserHandler *handlers.UserHandler
	AuthHandler *handlers.AuthHandler
}

func buildDeps() Deps {
	cfg := container.GetConfig()
	logger := container.GetLogger()
	postRepo := pginfra.NewPostRepository(container.GetPGPool())
	userRepo := pginfra.NewUserRepository(container.GetPGPool())

	posts := application.NewPostService(postRepo, userRepo, container.GetStore(), container.GetTranscoder(), logger, application.PostOptions{
		MaxWidth:       cfg.PostImageMaxWidth,
		CacheControl:   cfg.GCSCacheControl,
		CleanupEnabled: cfg.PostImageCleanupEnabled,
		MailEnabled:    cfg.MailSendEnabled,
		SiteURL:        cfg.SiteURL,
	})
	// optional collaborators stay nil interfaces when not configured
	if x := container.GetPostIndex(); x != nil {
		posts.Index = x
	}
	if p := container.GetMailPub(); p != nil {
		posts.Mail = p
	}
	if p := container.GetCleanupPub(); p != nil {
		posts.Cleanup = p
	}

	users := application.NewUserService(userRepo, container.GetStore(), container.GetTranscoder(), container.GetJWT(), container.GetRedis(), logger, application.UserOptions{
		AvatarSize:   cfg.AvatarSize,
		CacheControl: cfg.GCSCacheControl,
		MemberRole:   cfg.MemberRole,
	})

	return Deps{
		Posts:       posts,
		Users:       users,
		PostHandler: handlers.NewPostHandler(posts, logger, cfg.MaxUploadBytes()),
		UserHandler: handlers.NewUserHandler(users, logger, cfg.MaxUploadBytes()),
		AuthHandler: handlers.NewAuthHandler(users, logger, cfg.CookieDomain, cfg.CookieSecure),
	}
}

// InitModules wires every feature module into the registry. Call once at startup.
func InitModules(r *Registry) {
	deps := buildDeps()
	rdb := container.GetRedis()
	jwt := container.GetJWT()

	r.Add(modules.NewAuthModule(deps.AuthHandler, rdb, jwt))
	r.Add(modules.NewPostModule(deps.PostHandler, rdb, jwt))
	r.Add(modules.NewUserModule(deps.UserHandler, rdb, jwt))
	if container.GetConfig().DebugMetricsEnabled {
		r.Add(modules.NewDebugModule(rdb))
	}
}
