package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bardan8586/Fancy-Enterprise/mailer"
	"github.com/bardan8586/Fancy-Enterprise/models"
	"github.com/bardan8586/Fancy-Enterprise/repository"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory repositories used across the service tests.

type memUsers struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]models.User
}

func newMemUsers() *memUsers { return &memUsers{users: map[primitive.ObjectID]models.User{}} }

func (r *memUsers) Create(_ context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u.Email = strings.ToLower(u.Email)
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return repository.ErrDuplicate
		}
	}
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	if u.Wishlist == nil {
		u.Wishlist = []primitive.ObjectID{}
	}
	r.users[u.ID] = *u
	return nil
}

func (r *memUsers) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *memUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == strings.ToLower(email) {
			u := u
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memUsers) FindByResetToken(_ context.Context, hash string, now time.Time) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ResetPasswordToken == hash && u.ResetPasswordExpires != nil && u.ResetPasswordExpires.After(now) {
			u := u
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memUsers) Save(_ context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.ID]; !ok {
		return repository.ErrNotFound
	}
	r.users[u.ID] = *u
	return nil
}

func (r *memUsers) List(_ context.Context) ([]models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u)
	}
	return out, nil
}

func (r *memUsers) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *memUsers) AddToWishlist(_ context.Context, userID, productID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	for _, id := range u.Wishlist {
		if id == productID {
			return nil
		}
	}
	u.Wishlist = append(u.Wishlist, productID)
	r.users[userID] = u
	return nil
}

func (r *memUsers) RemoveFromWishlist(_ context.Context, userID, productID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	kept := []primitive.ObjectID{}
	for _, id := range u.Wishlist {
		if id != productID {
			kept = append(kept, id)
		}
	}
	u.Wishlist = kept
	r.users[userID] = u
	return nil
}

type memProducts struct {
	mu       sync.Mutex
	products map[primitive.ObjectID]models.Product
}

func newMemProducts(ps ...models.Product) *memProducts {
	r := &memProducts{products: map[primitive.ObjectID]models.Product{}}
	for _, p := range ps {
		r.products[p.ID] = p
	}
	return r
}

func (r *memProducts) Create(_ context.Context, p *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	r.products[p.ID] = *p
	return nil
}

func (r *memProducts) FindByID(_ context.Context, id primitive.ObjectID) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (r *memProducts) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Product{}
	for _, id := range ids {
		if p, ok := r.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *memProducts) FindBySKU(_ context.Context, sku string) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.products {
		if p.SKU == sku {
			p := p
			return &p, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memProducts) Save(_ context.Context, p *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[p.ID]; !ok {
		return repository.ErrNotFound
	}
	r.products[p.ID] = *p
	return nil
}

func (r *memProducts) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.products, id)
	return nil
}

func (r *memProducts) published() []models.Product {
	out := []models.Product{}
	for _, p := range r.products {
		if p.IsPublished {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *memProducts) Search(_ context.Context, _ models.ProductFilter) ([]models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.published(), nil
}

func (r *memProducts) BestSeller(_ context.Context) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ps := r.published()
	if len(ps) == 0 {
		return nil, repository.ErrNotFound
	}
	sort.Slice(ps, func(i, j int) bool { return ps[i].Rating > ps[j].Rating })
	return &ps[0], nil
}

func (r *memProducts) NewArrivals(_ context.Context, limit int) ([]models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ps := r.published()
	if len(ps) > limit {
		ps = ps[:limit]
	}
	return ps, nil
}

func (r *memProducts) Similar(_ context.Context, p *models.Product, limit int) ([]models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Product{}
	for _, c := range r.published() {
		if c.ID != p.ID && c.Gender == p.Gender && c.Category == p.Category && len(out) < limit {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *memProducts) List(_ context.Context, page, limit int) ([]models.Product, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := make([]models.Product, 0, len(r.products))
	for _, p := range r.products {
		all = append(all, p)
	}
	return paginate(all, page, limit), int64(len(all)), nil
}

type memCarts struct {
	mu        sync.Mutex
	carts     map[primitive.ObjectID]models.Cart
	deleteErr error
}

func newMemCarts() *memCarts { return &memCarts{carts: map[primitive.ObjectID]models.Cart{}} }

func (r *memCarts) FindByOwner(_ context.Context, owner models.CartOwner) (*models.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.carts {
		if owner.IsUser() && c.User != nil && *c.User == *owner.UserID {
			return cloneCart(c), nil
		}
		if !owner.IsUser() && c.User == nil && c.GuestID == owner.GuestID {
			return cloneCart(c), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memCarts) Save(_ context.Context, c *models.Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	r.carts[c.ID] = *cloneCart(*c)
	return nil
}

func (r *memCarts) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.carts, id)
	return nil
}

func (r *memCarts) DeleteByUser(_ context.Context, userID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.deleteErr != nil {
		return r.deleteErr
	}
	for id, c := range r.carts {
		if c.User != nil && *c.User == userID {
			delete(r.carts, id)
		}
	}
	return nil
}

func (r *memCarts) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.carts)
}

func cloneCart(c models.Cart) *models.Cart {
	c.Products = append([]models.CartItem(nil), c.Products...)
	return &c
}

type memCheckouts struct {
	mu        sync.Mutex
	checkouts map[primitive.ObjectID]models.Checkout
}

func newMemCheckouts() *memCheckouts {
	return &memCheckouts{checkouts: map[primitive.ObjectID]models.Checkout{}}
}

func (r *memCheckouts) Create(_ context.Context, c *models.Checkout) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	r.checkouts[c.ID] = *c
	return nil
}

func (r *memCheckouts) FindByID(_ context.Context, id primitive.ObjectID) (*models.Checkout, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.checkouts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (r *memCheckouts) MarkPaid(_ context.Context, id primitive.ObjectID, details interface{}, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.checkouts[id]
	if !ok || c.IsPaid {
		return false, nil
	}
	c.IsPaid = true
	c.PaymentStatus = models.PaymentStatusPaid
	c.PaymentDetails = details
	c.PaidAt = &at
	r.checkouts[id] = c
	return true, nil
}

func (r *memCheckouts) MarkFinalized(_ context.Context, id primitive.ObjectID, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.checkouts[id]
	if !ok || !c.IsPaid || c.IsFinalized {
		return false, nil
	}
	c.IsFinalized = true
	c.FinalizedAt = &at
	r.checkouts[id] = c
	return true, nil
}

func (r *memCheckouts) UnmarkFinalized(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.checkouts[id]
	c.IsFinalized = false
	c.FinalizedAt = nil
	r.checkouts[id] = c
	return nil
}

type memOrders struct {
	mu        sync.Mutex
	orders    map[primitive.ObjectID]models.Order
	createErr error
}

func newMemOrders() *memOrders { return &memOrders{orders: map[primitive.ObjectID]models.Order{}} }

func (r *memOrders) Create(_ context.Context, o *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	if o.Checkout != nil {
		for _, existing := range r.orders {
			if existing.Checkout != nil && *existing.Checkout == *o.Checkout {
				return repository.ErrDuplicate
			}
		}
	}
	if o.ID.IsZero() {
		o.ID = primitive.NewObjectID()
	}
	r.orders[o.ID] = *o
	return nil
}

func (r *memOrders) FindByID(_ context.Context, id primitive.ObjectID) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &o, nil
}

func (r *memOrders) FindByUser(_ context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Order{}
	for _, o := range r.orders {
		if o.User == userID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memOrders) List(_ context.Context, page, limit int) ([]models.Order, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := make([]models.Order, 0, len(r.orders))
	for _, o := range r.orders {
		all = append(all, o)
	}
	return paginate(all, page, limit), int64(len(all)), nil
}

func (r *memOrders) UpdateStatus(_ context.Context, o *models.Order, previous string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.orders[o.ID]
	if !ok || stored.Status != previous {
		return repository.ErrNotFound
	}
	r.orders[o.ID] = *o
	return nil
}

func (r *memOrders) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.orders, id)
	return nil
}

func (r *memOrders) all() []models.Order {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Order, 0, len(r.orders))
	for _, o := range r.orders {
		out = append(out, o)
	}
	return out
}

func paginate[T any](all []T, page, limit int) []T {
	start := (page - 1) * limit
	if start >= len(all) {
		return []T{}
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end]
}

// directTx runs the callback without a transaction.
type directTx struct{}

func (directTx) WithTransaction(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

// snapshotTx restores the in-memory stores when the callback fails, the way
// a MongoDB transaction aborts.
type snapshotTx struct {
	checkouts *memCheckouts
	orders    *memOrders
	carts     *memCarts
}

func (tx snapshotTx) WithTransaction(ctx context.Context, fn func(context.Context) error) error {
	checkouts := copyMap(&tx.checkouts.mu, tx.checkouts.checkouts)
	orders := copyMap(&tx.orders.mu, tx.orders.orders)
	carts := copyMap(&tx.carts.mu, tx.carts.carts)

	err := fn(ctx)
	if err != nil {
		restoreMap(&tx.checkouts.mu, &tx.checkouts.checkouts, checkouts)
		restoreMap(&tx.orders.mu, &tx.orders.orders, orders)
		restoreMap(&tx.carts.mu, &tx.carts.carts, carts)
	}
	return err
}

func copyMap[V any](mu *sync.Mutex, m map[primitive.ObjectID]V) map[primitive.ObjectID]V {
	mu.Lock()
	defer mu.Unlock()
	out := make(map[primitive.ObjectID]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func restoreMap[V any](mu *sync.Mutex, dst *map[primitive.ObjectID]V, saved map[primitive.ObjectID]V) {
	mu.Lock()
	defer mu.Unlock()
	*dst = saved
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.OrderEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, evt models.OrderEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type MockMailer struct{ mock.Mock }

func (m *MockMailer) Send(ctx context.Context, template, to string, msg mailer.Message) error {
	args := m.Called(ctx, template, to, msg)
	return args.Error(0)
}

func (m *MockMailer) SendAsync(template, to string, msg mailer.Message) {
	m.Called(template, to, msg)
}

type countingMetrics struct {
	mu     sync.Mutex
	counts map[string]int
}

func newCountingMetrics() *countingMetrics { return &countingMetrics{counts: map[string]int{}} }

func (m *countingMetrics) RecordCount(_ context.Context, name string, _ map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[name]++
	return nil
}

func (m *countingMetrics) RecordLatency(_ context.Context, name string, _ time.Duration, _ map[string]string) error {
	return nil
}

func (m *countingMetrics) get(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[name]
}

// memIdempotency keeps reservations in a map; an empty value is a key held
// by a request that has not created its checkout yet.
type memIdempotency struct {
	mu   sync.Mutex
	keys map[string]string
}

func (s *memIdempotency) Reserve(_ context.Context, userID, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.keys == nil {
		s.keys = map[string]string{}
	}
	if existing, ok := s.keys[userID+":"+key]; ok {
		return existing, false, nil
	}
	s.keys[userID+":"+key] = ""
	return "", true, nil
}

func (s *memIdempotency) Remember(_ context.Context, userID, key, checkoutID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[userID+":"+key] = checkoutID
	return nil
}

func (s *memIdempotency) Release(_ context.Context, userID, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, userID+":"+key)
	return nil
}

// gatedCheckouts blocks the first Create until release is closed.
type gatedCheckouts struct {
	*memCheckouts
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (r *gatedCheckouts) Create(ctx context.Context, c *models.Checkout) error {
	r.once.Do(func() {
		close(r.entered)
		<-r.release
	})
	return r.memCheckouts.Create(ctx, c)
}

// failingCheckouts refuses every insert.
type failingCheckouts struct {
	*memCheckouts
}

func (failingCheckouts) Create(context.Context, *models.Checkout) error {
	return errors.New("insert failed")
}
