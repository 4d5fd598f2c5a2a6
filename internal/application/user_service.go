package application

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/frtweb/blog-backend/internal/domain/entity"
	repo "github.com/frtweb/blog-backend/internal/domain/repository"
	"github.com/frtweb/blog-backend/pkg/helpers"
	"github.com/frtweb/blog-backend/pkg/imaging"
	"github.com/frtweb/blog-backend/pkg/metrics"
)

type UserOptions struct {
	AvatarSize   int
	CacheControl string
	MemberRole   string
}

type UserService struct {
	Repo   repo.UserRepository
	Store  ObjectStore
	Images ImageTranscoder
	JWT    *helpers.JWTManager
	Redis  *redis.Client
	Logger *logrus.Logger
	Opts   UserOptions
}

func NewUserService(users repo.UserRepository, store ObjectStore, images ImageTranscoder, jwt *helpers.JWTManager, rdb *redis.Client, logger *logrus.Logger, opts UserOptions) *UserService {
	if logger == nil {
		logger = helpers.NopLogger()
	}
	return &UserService{
		Repo:   users,
		Store:  store,
		Images: images,
		JWT:    jwt,
		Redis:  rdb,
		Logger: logger,
		Opts:   opts,
	}
}

// TeamMember is the public listing shape of a user.
type TeamMember struct {
	ID          int64    `json:"id"`
	Username    string   `json:"username"`
	Fullname    string   `json:"fullname"`
	Description string   `json:"description"`
	Roles       []string `json:"roles"`
	PfpVersion  int      `json:"pfpVersion"`
}

// UpdateUserInput carries a partial update; empty strings leave the field unchanged.
type UpdateUserInput struct {
	Username    string
	Email       string
	Fullname    string
	Description string
	Password    string
}

func (s *UserService) Get(ctx context.Context, id int64) (*entity.User, error) {
	u, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

func (s *UserService) UpdateSelf(ctx context.Context, id int64, in UpdateUserInput) (*entity.User, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Username != "" {
		u.Username = in.Username
	}
	if in.Email != "" {
		u.Email = in.Email
	}
	if in.Fullname != "" {
		u.Fullname = in.Fullname
	}
	if in.Description != "" {
		u.Description = in.Description
	}
	if in.Password != "" {
		hash, err := helpers.HashPassword(in.Password)
		if err != nil {
			return nil, err
		}
		u.Password = hash
	}
	if err := s.Repo.Update(ctx, u); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	s.touchSession(ctx, u)
	return u, nil
}

// Delete removes any user by id. Callers are only required to be authenticated.
func (s *UserService) Delete(ctx context.Context, actorID, id int64) error {
	if err := s.Repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	s.Logger.WithFields(logrus.Fields{"actor_id": actorID, "user_id": id}).Info("user deleted")
	if s.Redis != nil {
		if err := helpers.DeleteSession(ctx, s.Redis, strconv.FormatInt(id, 10)); err != nil {
			s.Logger.WithError(err).WithField("user_id", id).Warn("drop session failed")
		}
	}
	return nil
}

// ListAll returns every user ordered by team role.
func (s *UserService) ListAll(ctx context.Context) ([]TeamMember, error) {
	users, err := s.Repo.List(ctx)
	if err != nil {
		return nil, err
	}
	SortByRole(users, s.Opts.MemberRole)
	out := make([]TeamMember, 0, len(users))
	for _, u := range users {
		roles := u.Roles
		if roles == nil {
			roles = []string{}
		}
		out = append(out, TeamMember{
			ID:          u.ID,
			Username:    u.Username,
			Fullname:    u.Fullname,
			Description: u.Description,
			Roles:       roles,
			PfpVersion:  u.PfpVersion,
		})
	}
	return out, nil
}

// UpdateAvatar stores the picture under the next version while the user row
// is locked, then removes the previous blob. It returns the new version.
func (s *UserService) UpdateAvatar(ctx context.Context, id int64, up Upload) (int, error) {
	start := time.Now()
	data, err := s.Images.Cover(up.Body, s.Opts.AvatarSize, s.Opts.AvatarSize)
	metrics.ObserveTranscode(metrics.KindAvatar, start)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrInvalidImage, up.Filename, err)
	}

	var previous int
	version, err := s.Repo.BumpAvatarVersion(ctx, id, func(current, next int) error {
		previous = current
		err := s.Store.Put(ctx, entity.AvatarPath(id, next), data, helpers.ObjectMeta{ContentType: imaging.ContentType, CacheControl: s.Opts.CacheControl})
		metrics.CountUpload(metrics.KindAvatar, err)
		return err
	})
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return 0, ErrUserNotFound
		}
		s.Logger.WithError(err).WithField("user_id", id).Error("avatar update failed")
		return 0, err
	}

	// The previous blob may never have been written.
	if err := s.Store.Delete(ctx, entity.AvatarPath(id, previous)); err != nil {
		s.Logger.WithError(err).WithField("user_id", id).Debug("old avatar not removed")
	}
	return version, nil
}

// TokenPair holds the signed tokens of one session.
type TokenPair struct {
	AccessToken        string
	AccessTokenExpiry  time.Time
	RefreshToken       string
	RefreshTokenExpiry time.Time
}

// Authenticate validates email/password and returns the user without issuing tokens.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*entity.User, error) {
	u, err := s.Repo.GetByEmail(ctx, email)
	if err != nil || u == nil {
		return nil, ErrInvalidCredentials
	}
	if !helpers.CompareHashAndPassword(u.Password, password) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

func (s *UserService) Login(ctx context.Context, email, password string) (*entity.User, TokenPair, error) {
	u, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return nil, TokenPair{}, err
	}
	pair, err := s.IssueTokens(ctx, u)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return u, pair, nil
}

// IssueTokens signs a token pair and records the session in Redis.
func (s *UserService) IssueTokens(ctx context.Context, u *entity.User) (TokenPair, error) {
	uid := strconv.FormatInt(u.ID, 10)
	sid := uuid.NewString()
	pair, err := s.sign(uid, sid)
	if err != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Error("generate tokens failed")
		return TokenPair{}, err
	}
	if s.Redis != nil {
		fields := map[string]any{
			"user_id":    uid,
			"email":      u.Email,
			"fullname":   u.Fullname,
			"sid":        sid,
			"created_at": nowRFC3339(),
		}
		if err := helpers.SaveSession(ctx, s.Redis, uid, fields); err != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Warn("save session failed")
		}
	}
	return pair, nil
}

// Refresh rotates the session id and tokens. The refresh token must belong
// to the current session.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (TokenPair, int64, error) {
	claims, err := s.JWT.ParseRefreshToken(refreshToken)
	if err != nil {
		return TokenPair{}, 0, ErrInvalidCredentials
	}
	id, err := strconv.ParseInt(claims.UserID, 10, 64)
	if err != nil {
		return TokenPair{}, 0, ErrInvalidCredentials
	}
	if _, err := s.Repo.GetByID(ctx, id); err != nil {
		return TokenPair{}, 0, ErrInvalidCredentials
	}
	if s.Redis != nil {
		data, rErr := helpers.GetSession(ctx, s.Redis, claims.UserID)
		if rErr != nil || len(data) == 0 || data["sid"] != claims.SessionID {
			return TokenPair{}, 0, ErrInvalidCredentials
		}
	}

	sid := uuid.NewString()
	pair, err := s.sign(claims.UserID, sid)
	if err != nil {
		return TokenPair{}, 0, err
	}
	if s.Redis != nil {
		if err := helpers.SaveSession(ctx, s.Redis, claims.UserID, map[string]any{"sid": sid, "updated_at": nowRFC3339()}); err != nil {
			s.Logger.WithError(err).WithField("user_id", id).Warn("rotate session failed")
		}
	}
	return pair, id, nil
}

func (s *UserService) Logout(ctx context.Context, id int64) error {
	if s.Redis == nil {
		return nil
	}
	return helpers.DeleteSession(ctx, s.Redis, strconv.FormatInt(id, 10))
}

func (s *UserService) sign(uid, sid string) (TokenPair, error) {
	access, aexp, err := s.JWT.GenerateAccessToken(uid, sid)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, rexp, err := s.JWT.GenerateRefreshToken(uid, sid)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, AccessTokenExpiry: aexp, RefreshToken: refresh, RefreshTokenExpiry: rexp}, nil
}

// touchSession keeps the cached profile fields in step, preserving the TTL.
func (s *UserService) touchSession(ctx context.Context, u *entity.User) {
	if s.Redis == nil {
		return
	}
	key := helpers.SessionKey(strconv.FormatInt(u.ID, 10))
	n, err := s.Redis.Exists(ctx, key).Result()
	if err != nil || n == 0 {
		return
	}
	if err := s.Redis.HSet(ctx, key, map[string]any{
		"email":      u.Email,
		"fullname":   u.Fullname,
		"updated_at": nowRFC3339(),
	}).Err(); err != nil {
		s.Logger.WithError(err).WithField("key", key).Warn("redis session update failed")
	}
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
