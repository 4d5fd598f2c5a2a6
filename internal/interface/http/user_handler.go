package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/frtweb/blog-backend/internal/application"
	"github.com/frtweb/blog-backend/internal/domain/entity"
	"github.com/frtweb/blog-backend/pkg/response"
	"github.com/frtweb/blog-backend/pkg/validation"
)

const msgUserNotFound = "User not found :("

type UserUseCase interface {
	Get(ctx context.Context, id int64) (*entity.User, error)
	UpdateSelf(ctx context.Context, id int64, in application.UpdateUserInput) (*entity.User, error)
	Delete(ctx context.Context, actorID, id int64) error
	ListAll(ctx context.Context) ([]application.TeamMember, error)
	UpdateAvatar(ctx context.Context, id int64, up application.Upload) (int, error)
}

type UserHandler struct {
	Svc       UserUseCase
	Logger    *logrus.Logger
	MaxUpload int64
}

func NewUserHandler(svc UserUseCase, logger *logrus.Logger, maxUpload int64) *UserHandler {
	return &UserHandler{Svc: svc, Logger: logger, MaxUpload: maxUpload}
}

type updateUserRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email" binding:"omitempty,email"`
	Fullname    string `json:"fullname"`
	Description string `json:"description"`
	Password    string `json:"password" binding:"omitempty,pwd"`
}

func (h *UserHandler) fail(c *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, application.ErrUserNotFound):
		response.Error(c, http.StatusNotFound, msgUserNotFound, nil)
	case errors.Is(err, application.ErrInvalidImage):
		response.Error(c, http.StatusBadRequest, msg, err.Error())
	default:
		h.Logger.WithError(err).WithField("path", c.FullPath()).Error(msg)
		response.Error(c, http.StatusInternalServerError, msg, nil)
	}
}

func userID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusNotFound, msgUserNotFound, nil)
		return 0, false
	}
	return id, true
}

// Get GET /api/users/:id
func (h *UserHandler) Get(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}
	h.get(c, id)
}

// GetSelf GET /api/users/self
func (h *UserHandler) GetSelf(c *gin.Context) {
	uid, ok := actorID(c)
	if !ok {
		return
	}
	h.get(c, uid)
}

func (h *UserHandler) get(c *gin.Context, id int64) {
	u, err := h.Svc.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err, "Failed to get user :(")
		return
	}
	response.Success(c, http.StatusOK, u, "", nil)
}

// UpdateSelf PUT /api/users/self
func (h *UserHandler) UpdateSelf(c *gin.Context) {
	uid, ok := actorID(c)
	if !ok {
		return
	}
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	u, err := h.Svc.UpdateSelf(c.Request.Context(), uid, application.UpdateUserInput{
		Username:    req.Username,
		Email:       req.Email,
		Fullname:    req.Fullname,
		Description: req.Description,
		Password:    req.Password,
	})
	if err != nil {
		h.fail(c, err, "Failed to update user :(")
		return
	}
	response.Success(c, http.StatusOK, u, "", nil)
}

// Delete DELETE /api/users/:id
func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}
	uid, ok := actorID(c)
	if !ok {
		return
	}
	if err := h.Svc.Delete(c.Request.Context(), uid, id); err != nil {
		h.fail(c, err, "Failed to delete user :(")
		return
	}
	response.OK(c, "")
}

// List GET /api/users
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.Svc.ListAll(c.Request.Context())
	if err != nil {
		h.fail(c, err, "Failed to get users :(")
		return
	}
	response.Success(c, http.StatusOK, users, "", nil)
}

// UpdateAvatar POST /api/users/pfp (multipart: pfp)
func (h *UserHandler) UpdateAvatar(c *gin.Context) {
	const msg = "Failed to update pfp :("
	uid, ok := actorID(c)
	if !ok {
		return
	}
	if !parseMultipart(c, h.MaxUpload) {
		return
	}
	var files openedFiles
	defer files.Close()
	up, err := files.formFile(c.Request, "pfp")
	if err != nil {
		h.fail(c, err, msg)
		return
	}
	if up == nil {
		response.Error(c, http.StatusBadRequest, msg, errNoFile.Error())
		return
	}

	version, err := h.Svc.UpdateAvatar(c.Request.Context(), uid, *up)
	if err != nil {
		h.fail(c, err, msg)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"pfpVersion": version}, "", nil)
}
