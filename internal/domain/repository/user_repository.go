package repository

import (
	"context"

	"github.com/frtweb/blog-backend/internal/domain/entity"
)

// UserRepository defines the interface for user-related database operations.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id int64) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	List(ctx context.Context) ([]entity.User, error)
	Update(ctx context.Context, u *entity.User) error
	Delete(ctx context.Context, id int64) error
	// BumpAvatarVersion locks the user row, calls fn with the current and next
	// version and persists next only when fn succeeds. It returns the version
	// stored after the call.
	BumpAvatarVersion(ctx context.Context, id int64, fn func(current, next int) error) (int, error)
}
