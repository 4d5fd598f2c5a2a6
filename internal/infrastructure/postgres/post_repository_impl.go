package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/frtweb/blog-backend/internal/domain/entity"
	"github.com/frtweb/blog-backend/internal/domain/repository"
)

const postColumns = `p.id, p.title, p.description, p.content, p.slug, p.category,
		COALESCE(p.user_id, 0), p.published, p.featured, p.created_at, p.updated_at`

type PostRepository struct {
	db DB
}

func NewPostRepository(db DB) *PostRepository {
	return &PostRepository{db: db}
}

func scanPost(row pgx.Row, p *entity.Post, extra ...any) error {
	dest := []any{&p.ID, &p.Title, &p.Description, &p.Content, &p.Slug, &p.Category,
		&p.UserID, &p.Published, &p.Featured, &p.CreatedAt, &p.UpdatedAt}
	return row.Scan(append(dest, extra...)...)
}

func (r *PostRepository) Create(ctx context.Context, p *entity.Post) error {
	row := r.db.QueryRow(ctx, `
		INSERT INTO posts (title, description, content, slug, category, user_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, published, featured, created_at, updated_at
	`, p.Title, p.Description, p.Content, p.Slug, p.Category, p.UserID)

	return row.Scan(&p.ID, &p.Published, &p.Featured, &p.CreatedAt, &p.UpdatedAt)
}

func (r *PostRepository) GetByID(ctx context.Context, id int64) (*entity.Post, error) {
	p := &entity.Post{}
	row := r.db.QueryRow(ctx, `SELECT `+postColumns+` FROM posts p WHERE p.id = $1`, id)
	if err := scanPost(row, p); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *PostRepository) ListWithAuthors(ctx context.Context) ([]entity.PostWithAuthor, error) {
	return r.listWithAuthors(ctx, `
		SELECT `+postColumns+`, COALESCE(u.fullname, '')
		FROM posts p
		LEFT JOIN users u ON u.id = p.user_id
		ORDER BY p.id ASC
	`)
}

func (r *PostRepository) ListPublishedWithAuthors(ctx context.Context) ([]entity.PostWithAuthor, error) {
	return r.listWithAuthors(ctx, `
		SELECT `+postColumns+`, COALESCE(u.fullname, '')
		FROM posts p
		LEFT JOIN users u ON u.id = p.user_id
		WHERE p.published
		ORDER BY p.id ASC
	`)
}

func (r *PostRepository) listWithAuthors(ctx context.Context, query string) ([]entity.PostWithAuthor, error) {
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]entity.PostWithAuthor, 0)
	for rows.Next() {
		var pa entity.PostWithAuthor
		if err := scanPost(rows, &pa.Post, &pa.Author); err != nil {
			return nil, err
		}
		out = append(out, pa)
	}
	return out, rows.Err()
}

func (r *PostRepository) UpdateContent(ctx context.Context, id int64, description, content string) error {
	res, err := r.db.Exec(ctx, `
		UPDATE posts
		SET description = $1, content = $2, updated_at = now()
		WHERE id = $3
	`, description, content, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *PostRepository) SetPublished(ctx context.Context, id int64, published bool) error {
	res, err := r.db.Exec(ctx, `
		UPDATE posts SET published = $1, updated_at = now() WHERE id = $2
	`, published, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// featuredLockKey serializes featured swaps so a concurrent swap waits
// instead of tripping the partial unique index.
const featuredLockKey int64 = 0x706f7374 // "post"

func (r *PostRepository) SetFeatured(ctx context.Context, id int64) error {
	return withTx(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, featuredLockKey); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
			UPDATE posts SET featured = false, updated_at = now() WHERE featured AND id <> $1
		`, id); err != nil {
			return err
		}
		res, err := tx.Exec(ctx, `
			UPDATE posts SET featured = true, updated_at = now() WHERE id = $1
		`, id)
		if err != nil {
			return err
		}
		if res.RowsAffected() == 0 {
			return repository.ErrNotFound
		}
		return nil
	})
}

func (r *PostRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

var _ repository.PostRepository = (*PostRepository)(nil)
