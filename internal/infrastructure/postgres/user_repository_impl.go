package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/go-storefront/internal/domain/entity"
	"github.com/oksasatya/go-storefront/internal/domain/repository"
)

const userColumns = `id, email, username, password_hash, verified, refresh_token, avatar_url, created_at, updated_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func scanUser(row pgx.Row) (*entity.User, error) {
	u := &entity.User{}
	var refresh *string
	if err := row.Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.Verified, &refresh,
		&u.AvatarURL, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, mapErr(err)
	}
	u.RefreshToken = deref(refresh)
	return u, nil
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	_, err := db(ctx, r.pool).Exec(ctx, `
		INSERT INTO users (id, email, username, password_hash, verified, refresh_token, avatar_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, u.ID, entity.NormalizeEmail(u.Email), u.Username, u.PasswordHash, u.Verified, nullable(u.RefreshToken),
		u.AvatarURL, u.CreatedAt, u.UpdatedAt)
	return mapErr(err)
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return scanUser(db(ctx, r.pool).QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return scanUser(db(ctx, r.pool).QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE lower(email) = $1`, entity.NormalizeEmail(email)))
}

func (r *UserRepository) GetByEmailForUpdate(ctx context.Context, email string) (*entity.User, error) {
	return scanUser(db(ctx, r.pool).QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE lower(email) = $1 FOR UPDATE`, entity.NormalizeEmail(email)))
}

func (r *UserRepository) Update(ctx context.Context, u *entity.User) error {
	u.UpdatedAt = time.Now()
	res, err := db(ctx, r.pool).Exec(ctx, `
		UPDATE users
		SET username = $1, avatar_url = $2, verified = $3, updated_at = $4
		WHERE id = $5
	`, u.Username, u.AvatarURL, u.Verified, u.UpdatedAt, u.ID)
	if err != nil {
		return mapErr(err)
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id, hash string) error {
	res, err := db(ctx, r.pool).Exec(ctx,
		`UPDATE users SET password_hash = $1, updated_at = now() WHERE id = $2`, hash, id)
	if err != nil {
		return mapErr(err)
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) SetRefreshToken(ctx context.Context, id, token string) error {
	res, err := db(ctx, r.pool).Exec(ctx,
		`UPDATE users SET refresh_token = $1, updated_at = now() WHERE id = $2`, nullable(token), id)
	if err != nil {
		return mapErr(err)
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

var _ repository.UserRepository = (*UserRepository)(nil)
