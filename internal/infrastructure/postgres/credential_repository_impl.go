package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/go-storefront/internal/domain/entity"
	"github.com/oksasatya/go-storefront/internal/domain/repository"
)

type PendingRegistrationRepository struct {
	pool *pgxpool.Pool
}

func NewPendingRegistrationRepository(pool *pgxpool.Pool) *PendingRegistrationRepository {
	return &PendingRegistrationRepository{pool: pool}
}

// Upsert keeps the existing row id when the email is already pending.
func (r *PendingRegistrationRepository) Upsert(ctx context.Context, p *entity.PendingRegistration) error {
	err := db(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO pending_registrations
			(id, email, username, password_hash, otp, otp_expires_at, otp_issued_at, otp_attempts, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 0, $8, $8)
		ON CONFLICT (email) DO UPDATE SET
			username = EXCLUDED.username,
			password_hash = EXCLUDED.password_hash,
			otp = EXCLUDED.otp,
			otp_expires_at = EXCLUDED.otp_expires_at,
			otp_issued_at = EXCLUDED.otp_issued_at,
			otp_attempts = 0,
			updated_at = EXCLUDED.updated_at
		RETURNING id
	`, p.ID, entity.NormalizeEmail(p.Email), p.Username, p.PasswordHash, p.OTP, p.OTPExpiresAt, p.OTPIssuedAt,
		p.UpdatedAt).Scan(&p.ID)
	return mapErr(err)
}

func (r *PendingRegistrationRepository) GetByEmailForUpdate(ctx context.Context, email string) (*entity.PendingRegistration, error) {
	p := &entity.PendingRegistration{}
	err := db(ctx, r.pool).QueryRow(ctx, `
		SELECT id, email, username, password_hash, otp, otp_expires_at, otp_issued_at, otp_attempts, created_at, updated_at
		FROM pending_registrations
		WHERE email = $1
		FOR UPDATE
	`, entity.NormalizeEmail(email)).Scan(&p.ID, &p.Email, &p.Username, &p.PasswordHash, &p.OTP,
		&p.OTPExpiresAt, &p.OTPIssuedAt, &p.OTPAttempts, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return p, nil
}

func (r *PendingRegistrationRepository) Update(ctx context.Context, p *entity.PendingRegistration) error {
	res, err := db(ctx, r.pool).Exec(ctx, `
		UPDATE pending_registrations
		SET otp = $1, otp_expires_at = $2, otp_issued_at = $3, otp_attempts = $4, updated_at = $5
		WHERE email = $6
	`, p.OTP, p.OTPExpiresAt, p.OTPIssuedAt, p.OTPAttempts, p.UpdatedAt, entity.NormalizeEmail(p.Email))
	if err != nil {
		return mapErr(err)
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *PendingRegistrationRepository) IncrementAttempts(ctx context.Context, email string) error {
	_, err := db(ctx, r.pool).Exec(ctx,
		`UPDATE pending_registrations SET otp_attempts = otp_attempts + 1 WHERE email = $1`, entity.NormalizeEmail(email))
	return mapErr(err)
}

func (r *PendingRegistrationRepository) DeleteByEmail(ctx context.Context, email string) error {
	_, err := db(ctx, r.pool).Exec(ctx, `DELETE FROM pending_registrations WHERE email = $1`, entity.NormalizeEmail(email))
	return mapErr(err)
}

type OneTimeCodeRepository struct {
	pool *pgxpool.Pool
}

func NewOneTimeCodeRepository(pool *pgxpool.Pool) *OneTimeCodeRepository {
	return &OneTimeCodeRepository{pool: pool}
}

func (r *OneTimeCodeRepository) GetByUserID(ctx context.Context, userID string) (*entity.OneTimeCode, error) {
	c := &entity.OneTimeCode{}
	err := db(ctx, r.pool).QueryRow(ctx, `
		SELECT id, user_id, email, otp, expires_at, created_at, used
		FROM one_time_codes
		WHERE user_id = $1
	`, userID).Scan(&c.ID, &c.UserID, &c.Email, &c.OTP, &c.ExpiresAt, &c.CreatedAt, &c.Used)
	if err != nil {
		return nil, mapErr(err)
	}
	return c, nil
}

// Create fails with ErrDuplicate if the user still has a code; callers delete first.
func (r *OneTimeCodeRepository) Create(ctx context.Context, c *entity.OneTimeCode) error {
	_, err := db(ctx, r.pool).Exec(ctx, `
		INSERT INTO one_time_codes (id, user_id, email, otp, expires_at, created_at, used)
		VALUES ($1, $2, $3, $4, $5, $6, false)
	`, c.ID, c.UserID, entity.NormalizeEmail(c.Email), c.OTP, c.ExpiresAt, c.CreatedAt)
	return mapErr(err)
}

func (r *OneTimeCodeRepository) DeleteByUserID(ctx context.Context, userID string) error {
	_, err := db(ctx, r.pool).Exec(ctx, `DELETE FROM one_time_codes WHERE user_id = $1`, userID)
	return mapErr(err)
}

func (r *OneTimeCodeRepository) MarkUsed(ctx context.Context, id string) error {
	_, err := db(ctx, r.pool).Exec(ctx, `UPDATE one_time_codes SET used = true WHERE id = $1`, id)
	return mapErr(err)
}

var (
	_ repository.PendingRegistrationRepository = (*PendingRegistrationRepository)(nil)
	_ repository.OneTimeCodeRepository         = (*OneTimeCodeRepository)(nil)
)
