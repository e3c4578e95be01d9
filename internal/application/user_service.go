package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-storefront/internal/domain/entity"
	repo "github.com/oksasatya/go-storefront/internal/domain/repository"
)

// UserService manages the profile and address book of a signed-in user.
type UserService struct {
	Users     repo.UserRepository
	Addresses repo.AddressRepository
	Tx        repo.Transactor
	Logger    *logrus.Logger
	Now       func() time.Time
}

func NewUserService(users repo.UserRepository, addresses repo.AddressRepository, tx repo.Transactor, logger *logrus.Logger) *UserService {
	return &UserService{Users: users, Addresses: addresses, Tx: tx, Logger: logger, Now: time.Now}
}

// GetProfile returns the user with the address book attached.
func (s *UserService) GetProfile(ctx context.Context, userID string) (*entity.User, error) {
	u, err := s.Users.GetByID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, internal("load user", err)
	}
	addrs, err := s.Addresses.ListByUser(ctx, userID)
	if err != nil {
		return nil, internal("list addresses", err)
	}
	u.Addresses = addrs
	return u, nil
}

// UpdateProfileInput leaves fields that are nil untouched.
type UpdateProfileInput struct {
	Username  *string
	AvatarURL *string
}

func (s *UserService) UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) (*entity.User, error) {
	u, err := s.Users.GetByID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, internal("load user", err)
	}
	if in.Username != nil && strings.TrimSpace(*in.Username) != "" {
		u.Username = strings.TrimSpace(*in.Username)
	}
	if in.AvatarURL != nil {
		u.AvatarURL = strings.TrimSpace(*in.AvatarURL)
	}
	if err := s.Users.Update(ctx, u); err != nil {
		return nil, internal("update user", err)
	}
	return s.GetProfile(ctx, userID)
}

type AddressInput struct {
	Street      string
	City        string
	State       string
	PostalCode  string
	Country     string
	AddressType string
	IsDefault   bool
	Coordinates *entity.Coordinates
}

func (in AddressInput) apply(a *entity.Address) {
	a.Street = in.Street
	a.City = in.City
	a.State = in.State
	a.PostalCode = in.PostalCode
	a.Country = in.Country
	a.AddressType = in.AddressType
	if a.AddressType == "" {
		a.AddressType = "home"
	}
	a.Coordinates = in.Coordinates
}

func (s *UserService) ListAddresses(ctx context.Context, userID string) ([]entity.Address, error) {
	addrs, err := s.Addresses.ListByUser(ctx, userID)
	if err != nil {
		return nil, internal("list addresses", err)
	}
	return addrs, nil
}

// AddAddress stores a new address. The first address always becomes the default,
// and a new default replaces the previous one.
func (s *UserService) AddAddress(ctx context.Context, userID string, in AddressInput) (*entity.Address, error) {
	now := s.Now()
	a := &entity.Address{ID: uuid.NewString(), UserID: userID, CreatedAt: now, UpdatedAt: now}
	in.apply(a)

	err := s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		existing, err := s.Addresses.ListByUser(ctx, userID)
		if err != nil {
			return internal("list addresses", err)
		}
		a.IsDefault = in.IsDefault || len(existing) == 0
		if a.IsDefault && len(existing) > 0 {
			if err := s.Addresses.ClearDefault(ctx, userID); err != nil {
				return internal("clear default address", err)
			}
		}
		if err := s.Addresses.Create(ctx, a); err != nil {
			return internal("create address", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// UpdateAddress rewrites an address. Setting IsDefault moves the default here;
// clearing it on the current default is ignored so the user keeps one default.
func (s *UserService) UpdateAddress(ctx context.Context, userID, addressID string, in AddressInput) (*entity.Address, error) {
	var out *entity.Address
	err := s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		a, err := s.Addresses.GetByID(ctx, userID, addressID)
		if errors.Is(err, repo.ErrNotFound) {
			return ErrAddressNotFound
		}
		if err != nil {
			return internal("load address", err)
		}
		if in.IsDefault && !a.IsDefault {
			if err := s.Addresses.ClearDefault(ctx, userID); err != nil {
				return internal("clear default address", err)
			}
			a.IsDefault = true
		}
		in.apply(a)
		a.UpdatedAt = s.Now()
		if err := s.Addresses.Update(ctx, a); err != nil {
			return internal("update address", err)
		}
		out = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteAddress removes an address; deleting the default promotes the oldest remaining one.
func (s *UserService) DeleteAddress(ctx context.Context, userID, addressID string) error {
	return s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		a, err := s.Addresses.GetByID(ctx, userID, addressID)
		if errors.Is(err, repo.ErrNotFound) {
			return ErrAddressNotFound
		}
		if err != nil {
			return internal("load address", err)
		}
		if err := s.Addresses.Delete(ctx, userID, addressID); err != nil {
			return internal("delete address", err)
		}
		if !a.IsDefault {
			return nil
		}
		rest, err := s.Addresses.ListByUser(ctx, userID)
		if err != nil {
			return internal("list addresses", err)
		}
		if len(rest) == 0 {
			return nil
		}
		next := rest[0]
		next.IsDefault = true
		next.UpdatedAt = s.Now()
		if err := s.Addresses.Update(ctx, &next); err != nil {
			return internal("promote default address", err)
		}
		return nil
	})
}
