package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/frtweb/blog-backend/internal/domain/entity"
	"github.com/frtweb/blog-backend/internal/domain/repository"
)

type UserRepository struct {
	db DB
}

func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	if u.Roles == nil {
		u.Roles = []string{}
	}
	row := r.db.QueryRow(ctx, `
		INSERT INTO users (username, email, password_hash, fullname, description, roles)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, pfp_version, created_at, updated_at
	`, u.Username, u.Email, u.Password, u.Fullname, u.Description, u.Roles)

	return row.Scan(&u.ID, &u.PfpVersion, &u.CreatedAt, &u.UpdatedAt)
}

func (r *UserRepository) getOne(ctx context.Context, where string, arg any) (*entity.User, error) {
	u := &entity.User{}
	row := r.db.QueryRow(ctx, `
		SELECT id, username, email, password_hash, fullname, description, roles, pfp_version, created_at, updated_at
		FROM users
		WHERE `+where+` = $1
	`, arg)

	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Password, &u.Fullname, &u.Description,
		&u.Roles, &u.PfpVersion, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	return r.getOne(ctx, "id", id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.getOne(ctx, "email", email)
}

// List returns the public profile columns of every user.
func (r *UserRepository) List(ctx context.Context) ([]entity.User, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, username, fullname, description, roles, pfp_version
		FROM users
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]entity.User, 0)
	for rows.Next() {
		var u entity.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Fullname, &u.Description, &u.Roles, &u.PfpVersion); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *UserRepository) Update(ctx context.Context, u *entity.User) error {
	row := r.db.QueryRow(ctx, `
		UPDATE users
		SET username = $1, email = $2, password_hash = $3, fullname = $4, description = $5, updated_at = now()
		WHERE id = $6
		RETURNING updated_at
	`, u.Username, u.Email, u.Password, u.Fullname, u.Description, u.ID)
	if err := row.Scan(&u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repository.ErrNotFound
		}
		return err
	}
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) BumpAvatarVersion(ctx context.Context, id int64, fn func(current, next int) error) (int, error) {
	var stored int
	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		var current int
		if err := tx.QueryRow(ctx, `SELECT pfp_version FROM users WHERE id = $1 FOR UPDATE`, id).Scan(&current); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return repository.ErrNotFound
			}
			return err
		}
		next := current + 1
		if err := fn(current, next); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `UPDATE users SET pfp_version = $1, updated_at = now() WHERE id = $2`, next, id); err != nil {
			return err
		}
		stored = next
		return nil
	})
	if err != nil {
		return 0, err
	}
	return stored, nil
}

var _ repository.UserRepository = (*UserRepository)(nil)
