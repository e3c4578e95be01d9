package repository

import (
	"context"

	"github.com/oksasatya/go-storefront/internal/domain/entity"
)

// UserRepository defines the persistence operations for user accounts.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	// GetByEmailForUpdate locks the row for the rest of the transaction.
	GetByEmailForUpdate(ctx context.Context, email string) (*entity.User, error)
	// Update writes username, avatar and verification state.
	Update(ctx context.Context, u *entity.User) error
	UpdatePassword(ctx context.Context, id, hash string) error
	// SetRefreshToken stores the active refresh token; an empty token revokes it.
	SetRefreshToken(ctx context.Context, id, token string) error
}

type AddressRepository interface {
	// ListByUser returns addresses oldest first.
	ListByUser(ctx context.Context, userID string) ([]entity.Address, error)
	GetByID(ctx context.Context, userID, id string) (*entity.Address, error)
	Create(ctx context.Context, a *entity.Address) error
	Update(ctx context.Context, a *entity.Address) error
	Delete(ctx context.Context, userID, id string) error
	ClearDefault(ctx context.Context, userID string) error
}

type PendingRegistrationRepository interface {
	// Upsert inserts or replaces the registration keyed by email and sets p.ID.
	Upsert(ctx context.Context, p *entity.PendingRegistration) error
	GetByEmailForUpdate(ctx context.Context, email string) (*entity.PendingRegistration, error)
	Update(ctx context.Context, p *entity.PendingRegistration) error
	IncrementAttempts(ctx context.Context, email string) error
	DeleteByEmail(ctx context.Context, email string) error
}

type OneTimeCodeRepository interface {
	GetByUserID(ctx context.Context, userID string) (*entity.OneTimeCode, error)
	Create(ctx context.Context, c *entity.OneTimeCode) error
	DeleteByUserID(ctx context.Context, userID string) error
	MarkUsed(ctx context.Context, id string) error
}

type AuditRepository interface {
	Record(ctx context.Context, e entity.AuditEvent) error
}
