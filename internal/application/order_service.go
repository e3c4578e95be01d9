package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/segmentio/ksuid"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-storefront/internal/domain/entity"
	repo "github.com/oksasatya/go-storefront/internal/domain/repository"
)

type OrderService struct {
	Carts     repo.CartRepository
	Orders    repo.OrderRepository
	Products  repo.ProductRepository
	Users     repo.UserRepository
	Addresses repo.AddressRepository
	Tx        repo.Transactor
	Pricing   entity.Pricing
	Logger    *logrus.Logger
	Now       func() time.Time
}

func NewOrderService(carts repo.CartRepository, orders repo.OrderRepository, products repo.ProductRepository,
	users repo.UserRepository, addresses repo.AddressRepository, tx repo.Transactor, pricing entity.Pricing,
	logger *logrus.Logger) *OrderService {
	return &OrderService{
		Carts:     carts,
		Orders:    orders,
		Products:  products,
		Users:     users,
		Addresses: addresses,
		Tx:        tx,
		Pricing:   pricing,
		Logger:    logger,
		Now:       time.Now,
	}
}

// CheckoutInput takes either an explicit shipping address or a saved address id.
type CheckoutInput struct {
	ShippingAddress *entity.ShippingAddress
	AddressID       string
	PaymentMethod   string
}

// Checkout turns the cart into a processing order and empties the cart.
// Both writes commit together or not at all.
func (s *OrderService) Checkout(ctx context.Context, userID string, in CheckoutInput) (*entity.Order, error) {
	method := strings.TrimSpace(in.PaymentMethod)
	if method == "" || (in.ShippingAddress == nil && in.AddressID == "") {
		return nil, ErrMissingCheckoutFields
	}

	var addr entity.ShippingAddress
	if in.ShippingAddress != nil {
		addr = *in.ShippingAddress
	} else {
		saved, err := s.Addresses.GetByID(ctx, userID, in.AddressID)
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrAddressNotFound
		}
		if err != nil {
			return nil, internal("load address", err)
		}
		var fullName string
		if u, err := s.Users.GetByID(ctx, userID); err == nil {
			fullName = u.Username
		}
		addr = saved.Snapshot(fullName)
	}

	var order *entity.Order
	err := s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		cart, err := s.Carts.GetForUpdate(ctx, userID)
		if errors.Is(err, repo.ErrNotFound) {
			return ErrEmptyCart
		}
		if err != nil {
			return internal("load cart", err)
		}
		if cart.IsEmpty() {
			return ErrEmptyCart
		}
		cart.Recalculate(s.Pricing)

		now := s.Now()
		order = entity.NewOrderFromCart(ksuid.New().String(), cart, addr, method, now)
		if err := s.Orders.Create(ctx, order); err != nil {
			return internal("create order", err)
		}
		cart.Clear()
		cart.UpdatedAt = now
		if err := s.Carts.Upsert(ctx, cart); err != nil {
			return internal("reset cart", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	metricCheckouts.Add(1)
	s.Logger.WithFields(logrus.Fields{"user_id": userID, "order_id": order.ID, "total": order.Total.String()}).Info("order placed")
	return order, nil
}

// List returns the user's orders newest first.
func (s *OrderService) List(ctx context.Context, userID string) ([]entity.Order, error) {
	orders, err := s.Orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, internal("list orders", err)
	}
	return orders, nil
}

// Get returns ErrOrderNotFound for orders of other users.
func (s *OrderService) Get(ctx context.Context, userID, orderID string) (*entity.Order, error) {
	o, err := s.Orders.GetByID(ctx, userID, orderID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, internal("load order", err)
	}
	return o, nil
}

// PreviousProducts lists catalog products the user has ordered, most recent first.
// Products no longer in the catalog are skipped.
func (s *OrderService) PreviousProducts(ctx context.Context, userID string) ([]entity.Product, error) {
	ids, err := s.Orders.PurchasedProductIDs(ctx, userID)
	if err != nil {
		return nil, internal("list purchased products", err)
	}
	if len(ids) == 0 {
		return []entity.Product{}, nil
	}
	found, err := s.Products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, internal("load products", err)
	}
	byID := make(map[string]entity.Product, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}
	out := make([]entity.Product, 0, len(found))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}
