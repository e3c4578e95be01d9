package application

import (
	"context"
	"encoding/hex"
	"io"
	"sort"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-storefront/internal/domain/entity"
	repo "github.com/oksasatya/go-storefront/internal/domain/repository"
	"github.com/oksasatya/go-storefront/pkg/helpers"
	"github.com/oksasatya/go-storefront/pkg/mailer"
)

// memDB backs every repository fake. memTx snapshots it so a failed
// unit of work leaves no trace.
type memDB struct {
	users     map[string]entity.User
	pending   map[string]entity.PendingRegistration
	codes     map[string]entity.OneTimeCode
	addresses map[string]entity.Address
	carts     map[string]entity.Cart
	orders    []entity.Order
	products  map[string]entity.Product
	reviews   []entity.Review

	failOrderCreate error
	failCartUpsert  error
	failSummarize   error
}

func newMemDB() *memDB {
	return &memDB{
		users:     map[string]entity.User{},
		pending:   map[string]entity.PendingRegistration{},
		codes:     map[string]entity.OneTimeCode{},
		addresses: map[string]entity.Address{},
		carts:     map[string]entity.Cart{},
		products:  map[string]entity.Product{},
	}
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (db *memDB) clone() memDB {
	c := *db
	c.users = copyMap(db.users)
	c.pending = copyMap(db.pending)
	c.codes = copyMap(db.codes)
	c.addresses = copyMap(db.addresses)
	c.products = copyMap(db.products)
	c.carts = make(map[string]entity.Cart, len(db.carts))
	for k, v := range db.carts {
		v.Items = append([]entity.CartItem(nil), v.Items...)
		c.carts[k] = v
	}
	c.orders = append([]entity.Order(nil), db.orders...)
	c.reviews = append([]entity.Review(nil), db.reviews...)
	return c
}

type memTx struct{ db *memDB }

func (t memTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	snap := t.db.clone()
	if err := fn(ctx); err != nil {
		*t.db = snap
		return err
	}
	return nil
}

type memUsers struct{ db *memDB }

func (r memUsers) Create(_ context.Context, u *entity.User) error {
	for _, x := range r.db.users {
		if x.Email == entity.NormalizeEmail(u.Email) {
			return repo.ErrDuplicate
		}
	}
	v := *u
	v.Email = entity.NormalizeEmail(u.Email)
	r.db.users[u.ID] = v
	return nil
}

func (r memUsers) GetByID(_ context.Context, id string) (*entity.User, error) {
	u, ok := r.db.users[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &u, nil
}

func (r memUsers) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	for _, u := range r.db.users {
		if u.Email == entity.NormalizeEmail(email) {
			return &u, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (r memUsers) GetByEmailForUpdate(ctx context.Context, email string) (*entity.User, error) {
	return r.GetByEmail(ctx, email)
}

func (r memUsers) Update(_ context.Context, u *entity.User) error {
	cur, ok := r.db.users[u.ID]
	if !ok {
		return repo.ErrNotFound
	}
	cur.Username, cur.AvatarURL, cur.Verified = u.Username, u.AvatarURL, u.Verified
	r.db.users[u.ID] = cur
	return nil
}

func (r memUsers) UpdatePassword(_ context.Context, id, hash string) error {
	cur, ok := r.db.users[id]
	if !ok {
		return repo.ErrNotFound
	}
	cur.PasswordHash = hash
	r.db.users[id] = cur
	return nil
}

func (r memUsers) SetRefreshToken(_ context.Context, id, token string) error {
	cur, ok := r.db.users[id]
	if !ok {
		return repo.ErrNotFound
	}
	cur.RefreshToken = token
	r.db.users[id] = cur
	return nil
}

type memPending struct{ db *memDB }

func (r memPending) Upsert(_ context.Context, p *entity.PendingRegistration) error {
	key := entity.NormalizeEmail(p.Email)
	if cur, ok := r.db.pending[key]; ok {
		p.ID = cur.ID
		p.CreatedAt = cur.CreatedAt
	}
	p.OTPAttempts = 0
	r.db.pending[key] = *p
	return nil
}

func (r memPending) GetByEmailForUpdate(_ context.Context, email string) (*entity.PendingRegistration, error) {
	p, ok := r.db.pending[entity.NormalizeEmail(email)]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &p, nil
}

func (r memPending) Update(_ context.Context, p *entity.PendingRegistration) error {
	key := entity.NormalizeEmail(p.Email)
	if _, ok := r.db.pending[key]; !ok {
		return repo.ErrNotFound
	}
	r.db.pending[key] = *p
	return nil
}

func (r memPending) IncrementAttempts(_ context.Context, email string) error {
	key := entity.NormalizeEmail(email)
	if p, ok := r.db.pending[key]; ok {
		p.OTPAttempts++
		r.db.pending[key] = p
	}
	return nil
}

func (r memPending) DeleteByEmail(_ context.Context, email string) error {
	delete(r.db.pending, entity.NormalizeEmail(email))
	return nil
}

type memCodes struct{ db *memDB }

func (r memCodes) GetByUserID(_ context.Context, userID string) (*entity.OneTimeCode, error) {
	c, ok := r.db.codes[userID]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &c, nil
}

func (r memCodes) Create(_ context.Context, c *entity.OneTimeCode) error {
	if _, ok := r.db.codes[c.UserID]; ok {
		return repo.ErrDuplicate
	}
	r.db.codes[c.UserID] = *c
	return nil
}

func (r memCodes) DeleteByUserID(_ context.Context, userID string) error {
	delete(r.db.codes, userID)
	return nil
}

func (r memCodes) MarkUsed(_ context.Context, id string) error {
	for k, c := range r.db.codes {
		if c.ID == id {
			c.Used = true
			r.db.codes[k] = c
		}
	}
	return nil
}

type memAddresses struct{ db *memDB }

func (r memAddresses) ListByUser(_ context.Context, userID string) ([]entity.Address, error) {
	out := []entity.Address{}
	for _, a := range r.db.addresses {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r memAddresses) GetByID(_ context.Context, userID, id string) (*entity.Address, error) {
	a, ok := r.db.addresses[id]
	if !ok || a.UserID != userID {
		return nil, repo.ErrNotFound
	}
	return &a, nil
}

func (r memAddresses) Create(_ context.Context, a *entity.Address) error {
	r.db.addresses[a.ID] = *a
	return nil
}

func (r memAddresses) Update(_ context.Context, a *entity.Address) error {
	cur, ok := r.db.addresses[a.ID]
	if !ok || cur.UserID != a.UserID {
		return repo.ErrNotFound
	}
	r.db.addresses[a.ID] = *a
	return nil
}

func (r memAddresses) Delete(_ context.Context, userID, id string) error {
	a, ok := r.db.addresses[id]
	if !ok || a.UserID != userID {
		return repo.ErrNotFound
	}
	delete(r.db.addresses, id)
	return nil
}

func (r memAddresses) ClearDefault(_ context.Context, userID string) error {
	for id, a := range r.db.addresses {
		if a.UserID == userID && a.IsDefault {
			a.IsDefault = false
			r.db.addresses[id] = a
		}
	}
	return nil
}

type memCarts struct{ db *memDB }

func (r memCarts) Get(_ context.Context, userID string) (*entity.Cart, error) {
	c, ok := r.db.carts[userID]
	if !ok {
		return nil, repo.ErrNotFound
	}
	c.Items = append([]entity.CartItem{}, c.Items...)
	return &c, nil
}

func (r memCarts) GetForUpdate(ctx context.Context, userID string) (*entity.Cart, error) {
	return r.Get(ctx, userID)
}

func (r memCarts) Upsert(_ context.Context, c *entity.Cart) error {
	if r.db.failCartUpsert != nil {
		return r.db.failCartUpsert
	}
	v := *c
	v.Items = append([]entity.CartItem{}, c.Items...)
	r.db.carts[c.UserID] = v
	return nil
}

type memOrders struct{ db *memDB }

func (r memOrders) Create(_ context.Context, o *entity.Order) error {
	if r.db.failOrderCreate != nil {
		return r.db.failOrderCreate
	}
	r.db.orders = append(r.db.orders, *o)
	return nil
}

func (r memOrders) ListByUser(_ context.Context, userID string) ([]entity.Order, error) {
	out := []entity.Order{}
	for i := len(r.db.orders) - 1; i >= 0; i-- {
		if r.db.orders[i].UserID == userID {
			out = append(out, r.db.orders[i])
		}
	}
	return out, nil
}

func (r memOrders) GetByID(_ context.Context, userID, id string) (*entity.Order, error) {
	for _, o := range r.db.orders {
		if o.ID == id && o.UserID == userID {
			return &o, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (r memOrders) PurchasedProductIDs(_ context.Context, userID string) ([]string, error) {
	seen := map[string]bool{}
	ids := []string{}
	for i := len(r.db.orders) - 1; i >= 0; i-- {
		o := r.db.orders[i]
		if o.UserID != userID {
			continue
		}
		for _, it := range o.Items {
			if !seen[it.ProductID] {
				seen[it.ProductID] = true
				ids = append(ids, it.ProductID)
			}
		}
	}
	return ids, nil
}

type memProducts struct{ db *memDB }

func (r memProducts) ValidID(id string) bool {
	b, err := hex.DecodeString(id)
	return err == nil && len(b) == 12
}

func (r memProducts) GetByID(_ context.Context, id string) (*entity.Product, error) {
	p, ok := r.db.products[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &p, nil
}

func (r memProducts) GetByIDs(_ context.Context, ids []string) ([]entity.Product, error) {
	out := []entity.Product{}
	for _, id := range ids {
		if p, ok := r.db.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r memProducts) List(_ context.Context, f repo.ProductFilter) ([]entity.Product, int64, error) {
	all := []entity.Product{}
	for _, p := range r.db.products {
		if f.Category == "" || p.Category == f.Category {
			all = append(all, p)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	start := (f.Page - 1) * f.Limit
	if start > len(all) {
		start = len(all)
	}
	end := start + f.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], int64(len(all)), nil
}

// Sample is deterministic here: the first n products by id.
func (r memProducts) Sample(ctx context.Context, n int) ([]entity.Product, error) {
	all, _, err := r.List(ctx, repo.ProductFilter{Page: 1, Limit: len(r.db.products)})
	if len(all) > n {
		all = all[:n]
	}
	return all, err
}

func (r memProducts) Deals(_ context.Context, f repo.ProductFilter) ([]entity.Product, int64, error) {
	all := []entity.Product{}
	for _, p := range r.db.products {
		if p.OnSale() {
			all = append(all, p)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	start := (f.Page - 1) * f.Limit
	if start > len(all) {
		start = len(all)
	}
	end := start + f.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], int64(len(all)), nil
}

func (r memProducts) UpdateRating(_ context.Context, id string, s entity.RatingSummary) error {
	p, ok := r.db.products[id]
	if !ok {
		return repo.ErrNotFound
	}
	p.AverageRating, p.ReviewCount = s.Average, s.Count
	r.db.products[id] = p
	return nil
}

type memReviews struct{ db *memDB }

func (r memReviews) Create(_ context.Context, rv *entity.Review) error {
	rv.ID = hex.EncodeToString([]byte{byte(len(r.db.reviews) + 1)})
	r.db.reviews = append(r.db.reviews, *rv)
	return nil
}

func (r memReviews) ListByProduct(_ context.Context, productID string, limit int) ([]entity.Review, error) {
	out := []entity.Review{}
	for i := len(r.db.reviews) - 1; i >= 0; i-- {
		if r.db.reviews[i].ProductID == productID {
			out = append(out, r.db.reviews[i])
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r memReviews) Summarize(_ context.Context, productID string) (entity.RatingSummary, error) {
	if r.db.failSummarize != nil {
		return entity.RatingSummary{}, r.db.failSummarize
	}
	var sum, n int
	for _, rv := range r.db.reviews {
		if rv.ProductID == productID {
			sum += rv.Rating
			n++
		}
	}
	if n == 0 {
		return entity.RatingSummary{}, nil
	}
	return entity.RatingSummary{Average: float64(sum) / float64(n), Count: n}, nil
}

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type recordingSender struct {
	msgs []mailer.OTPMessage
	err  error
}

func (s *recordingSender) SendCode(_ context.Context, msg mailer.OTPMessage) error {
	s.msgs = append(s.msgs, msg)
	return s.err
}

func (s *recordingSender) last(t *testing.T) mailer.OTPMessage {
	t.Helper()
	if len(s.msgs) == 0 {
		t.Fatal("no code was sent")
	}
	return s.msgs[len(s.msgs)-1]
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

const (
	prodA = "65f000000000000000000001"
	prodB = "65f000000000000000000002"
	prodC = "65f000000000000000000003"
)

// harness wires every service to one memDB and one clock.
type harness struct {
	db     *memDB
	clock  *fakeClock
	sender *recordingSender
	jwt    *helpers.JWTManager

	auth    *AuthService
	cart    *CartService
	orders  *OrderService
	users   *UserService
	catalog *CatalogService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := newMemDB()
	clock := &fakeClock{now: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	sender := &recordingSender{}
	jwt := helpers.NewJWTManager("test-secret", 72*time.Hour, 720*time.Hour)
	logger := quietLogger()
	tx := memTx{db: db}
	pricing := entity.DefaultPricing()

	db.products[prodA] = entity.Product{ID: prodA, Name: "Mug", Price: decimal.RequireFromString("12.50"), Category: "kitchen"}
	db.products[prodB] = entity.Product{ID: prodB, Name: "Lamp", Price: decimal.RequireFromString("40.00"), Category: "home"}
	db.products[prodC] = entity.Product{ID: prodC, Name: "Rug", Price: decimal.RequireFromString("99.99"), Category: "home"}

	h := &harness{db: db, clock: clock, sender: sender, jwt: jwt}

	h.auth = NewAuthService(memUsers{db}, memPending{db}, memCodes{db}, tx, jwt, sender, DefaultOTPPolicy(), logger)
	h.auth.Now = clock.Now
	h.cart = NewCartService(memCarts{db}, memProducts{db}, pricing, logger)
	h.cart.Now = clock.Now
	h.orders = NewOrderService(memCarts{db}, memOrders{db}, memProducts{db}, memUsers{db}, memAddresses{db}, tx, pricing, logger)
	h.orders.Now = clock.Now
	h.users = NewUserService(memUsers{db}, memAddresses{db}, tx, logger)
	h.users.Now = clock.Now
	h.catalog = NewCatalogService(memProducts{db}, memReviews{db}, memUsers{db}, logger)
	h.catalog.Now = clock.Now
	return h
}

// addUser stores a user directly, bypassing signup.
func (h *harness) addUser(t *testing.T, id, email, password string, verified bool) entity.User {
	t.Helper()
	hash, err := helpers.HashPassword(password)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	u := entity.User{
		ID:           id,
		Email:        email,
		Username:     "user-" + id,
		PasswordHash: hash,
		Verified:     verified,
		CreatedAt:    h.clock.Now(),
		UpdatedAt:    h.clock.Now(),
	}
	h.db.users[id] = u
	return u
}
