package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/go-storefront/internal/domain/entity"
	"github.com/oksasatya/go-storefront/internal/domain/repository"
)

// CartRepository stores each cart as one JSONB document keyed by user id.
type CartRepository struct {
	pool *pgxpool.Pool
}

func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{pool: pool}
}

func (r *CartRepository) get(ctx context.Context, userID string, lock bool) (*entity.Cart, error) {
	q := `SELECT document FROM carts WHERE user_id = $1`
	if lock {
		q += ` FOR UPDATE`
	}
	var raw []byte
	if err := db(ctx, r.pool).QueryRow(ctx, q, userID).Scan(&raw); err != nil {
		return nil, mapErr(err)
	}
	c := &entity.Cart{}
	if err := json.Unmarshal(raw, c); err != nil {
		return nil, fmt.Errorf("decode cart %s: %w", userID, err)
	}
	c.UserID = userID
	if c.Items == nil {
		c.Items = []entity.CartItem{}
	}
	return c, nil
}

func (r *CartRepository) Get(ctx context.Context, userID string) (*entity.Cart, error) {
	return r.get(ctx, userID, false)
}

func (r *CartRepository) GetForUpdate(ctx context.Context, userID string) (*entity.Cart, error) {
	return r.get(ctx, userID, true)
}

func (r *CartRepository) Upsert(ctx context.Context, c *entity.Cart) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	_, err = db(ctx, r.pool).Exec(ctx, `
		INSERT INTO carts (user_id, document, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE SET document = EXCLUDED.document, updated_at = EXCLUDED.updated_at
	`, c.UserID, raw, c.CreatedAt, c.UpdatedAt)
	return mapErr(err)
}

// OrderRepository stores each order as a JSONB document with indexed owner and status columns.
type OrderRepository struct {
	pool *pgxpool.Pool
}

func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

func decodeOrder(raw []byte) (*entity.Order, error) {
	o := &entity.Order{}
	if err := json.Unmarshal(raw, o); err != nil {
		return nil, fmt.Errorf("decode order: %w", err)
	}
	return o, nil
}

func (r *OrderRepository) Create(ctx context.Context, o *entity.Order) error {
	raw, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("encode order: %w", err)
	}
	_, err = db(ctx, r.pool).Exec(ctx, `
		INSERT INTO orders (id, user_id, status, document, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, o.ID, o.UserID, string(o.Status), raw, o.CreatedAt, o.UpdatedAt)
	return mapErr(err)
}

func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]entity.Order, error) {
	rows, err := db(ctx, r.pool).Query(ctx,
		`SELECT document FROM orders WHERE user_id = $1 ORDER BY created_at DESC, id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []entity.Order{}
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		o, err := decodeOrder(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

func (r *OrderRepository) GetByID(ctx context.Context, userID, id string) (*entity.Order, error) {
	var raw []byte
	err := db(ctx, r.pool).QueryRow(ctx,
		`SELECT document FROM orders WHERE id = $1 AND user_id = $2`, id, userID).Scan(&raw)
	if err != nil {
		return nil, mapErr(err)
	}
	return decodeOrder(raw)
}

// PurchasedProductIDs lists distinct product ids across the user's orders, most recent purchase first.
func (r *OrderRepository) PurchasedProductIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := db(ctx, r.pool).Query(ctx, `
		SELECT item->>'product_id' AS product_id
		FROM orders o, jsonb_array_elements(o.document->'items') AS item
		WHERE o.user_id = $1
		GROUP BY item->>'product_id'
		ORDER BY max(o.created_at) DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// AuditRepository appends authentication events.
type AuditRepository struct {
	pool *pgxpool.Pool
}

func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

func (r *AuditRepository) Record(ctx context.Context, e entity.AuditEvent) error {
	var meta []byte
	if len(e.Metadata) > 0 {
		b, err := json.Marshal(e.Metadata)
		if err != nil {
			return err
		}
		meta = b
	}
	_, err := db(ctx, r.pool).Exec(ctx, `
		INSERT INTO auth_audit_logs (user_id, email, action, ip, user_agent, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, nullable(e.UserID), e.Email, e.Action, e.IP, e.UserAgent, meta, e.CreatedAt)
	return mapErr(err)
}

var (
	_ repository.CartRepository  = (*CartRepository)(nil)
	_ repository.OrderRepository = (*OrderRepository)(nil)
	_ repository.AuditRepository = (*AuditRepository)(nil)
)
