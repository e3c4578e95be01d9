package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/go-storefront/internal/domain/entity"
	"github.com/oksasatya/go-storefront/internal/domain/repository"
)

const addressColumns = `id, user_id, street, city, state, postal_code, country, address_type, is_default, latitude, longitude, created_at, updated_at`

type AddressRepository struct {
	pool *pgxpool.Pool
}

func NewAddressRepository(pool *pgxpool.Pool) *AddressRepository {
	return &AddressRepository{pool: pool}
}

func scanAddress(row pgx.Row) (*entity.Address, error) {
	a := &entity.Address{}
	var lat, lng *float64
	if err := row.Scan(&a.ID, &a.UserID, &a.Street, &a.City, &a.State, &a.PostalCode, &a.Country,
		&a.AddressType, &a.IsDefault, &lat, &lng, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, mapErr(err)
	}
	if lat != nil && lng != nil {
		a.Coordinates = &entity.Coordinates{Lat: *lat, Lng: *lng}
	}
	return a, nil
}

func coords(a *entity.Address) (lat, lng *float64) {
	if a.Coordinates == nil {
		return nil, nil
	}
	return &a.Coordinates.Lat, &a.Coordinates.Lng
}

func (r *AddressRepository) ListByUser(ctx context.Context, userID string) ([]entity.Address, error) {
	rows, err := db(ctx, r.pool).Query(ctx,
		`SELECT `+addressColumns+` FROM user_addresses WHERE user_id = $1 ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []entity.Address{}
	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (r *AddressRepository) GetByID(ctx context.Context, userID, id string) (*entity.Address, error) {
	return scanAddress(db(ctx, r.pool).QueryRow(ctx,
		`SELECT `+addressColumns+` FROM user_addresses WHERE id = $1 AND user_id = $2`, id, userID))
}

func (r *AddressRepository) Create(ctx context.Context, a *entity.Address) error {
	lat, lng := coords(a)
	_, err := db(ctx, r.pool).Exec(ctx, `
		INSERT INTO user_addresses (`+addressColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, a.ID, a.UserID, a.Street, a.City, a.State, a.PostalCode, a.Country, a.AddressType, a.IsDefault,
		lat, lng, a.CreatedAt, a.UpdatedAt)
	return mapErr(err)
}

func (r *AddressRepository) Update(ctx context.Context, a *entity.Address) error {
	a.UpdatedAt = time.Now()
	lat, lng := coords(a)
	res, err := db(ctx, r.pool).Exec(ctx, `
		UPDATE user_addresses
		SET street = $1, city = $2, state = $3, postal_code = $4, country = $5, address_type = $6,
		    is_default = $7, latitude = $8, longitude = $9, updated_at = $10
		WHERE id = $11 AND user_id = $12
	`, a.Street, a.City, a.State, a.PostalCode, a.Country, a.AddressType, a.IsDefault, lat, lng,
		a.UpdatedAt, a.ID, a.UserID)
	if err != nil {
		return mapErr(err)
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *AddressRepository) Delete(ctx context.Context, userID, id string) error {
	res, err := db(ctx, r.pool).Exec(ctx, `DELETE FROM user_addresses WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return mapErr(err)
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *AddressRepository) ClearDefault(ctx context.Context, userID string) error {
	_, err := db(ctx, r.pool).Exec(ctx,
		`UPDATE user_addresses SET is_default = false, updated_at = now() WHERE user_id = $1 AND is_default`, userID)
	return mapErr(err)
}

var _ repository.AddressRepository = (*AddressRepository)(nil)
