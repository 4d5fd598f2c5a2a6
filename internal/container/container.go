package container

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/frtweb/blog-backend/config"
	"github.com/frtweb/blog-backend/internal/infrastructure/search"
	"github.com/frtweb/blog-backend/pkg/helpers"
	"github.com/frtweb/blog-backend/pkg/imaging"
)

// app-level container to share constructed components across packages.
// Router modules wire themselves from these singletons.

var (
	cfg         *config.Config
	logger      *logrus.Logger
	pgPool      *pgxpool.Pool
	redisClient *redis.Client
	store       *helpers.GCSStore
	transcoder  *imaging.Transcoder

	jwtManager *helpers.JWTManager

	mailPub    *helpers.RabbitPublisher
	cleanupPub *helpers.RabbitPublisher
	postIndex  *search.PostIndex
)

func SetConfig(c *config.Config)   { cfg = c }
func GetConfig() *config.Config    { return cfg }
func SetLogger(l *logrus.Logger)   { logger = l }
func GetLogger() *logrus.Logger    { return logger }
func SetPGPool(p *pgxpool.Pool)    { pgPool = p }
func GetPGPool() *pgxpool.Pool     { return pgPool }
func SetRedis(r *redis.Client)     { redisClient = r }
func GetRedis() *redis.Client      { return redisClient }
func SetStore(s *helpers.GCSStore) { store = s }
func GetStore() *helpers.GCSStore  { return store }
func SetJWT(m *helpers.JWTManager) { jwtManager = m }
func GetJWT() *helpers.JWTManager  { return jwtManager }

func SetTranscoder(t *imaging.Transcoder) { transcoder = t }
func GetTranscoder() *imaging.Transcoder {
	if transcoder == nil {
		transcoder = imaging.NewTranscoder(0)
	}
	return transcoder
}

func SetMailPub(p *helpers.RabbitPublisher)    { mailPub = p }
func GetMailPub() *helpers.RabbitPublisher     { return mailPub }
func SetCleanupPub(p *helpers.RabbitPublisher) { cleanupPub = p }
func GetCleanupPub() *helpers.RabbitPublisher  { return cleanupPub }
func SetPostIndex(x *search.PostIndex)         { postIndex = x }
func GetPostIndex() *search.PostIndex          { return postIndex }
