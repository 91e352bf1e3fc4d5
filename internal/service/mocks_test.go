package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nilantra/furniture-api/internal/model"
	"github.com/nilantra/furniture-api/internal/repository"
)

type mockUserRepo struct {
	users map[uuid.UUID]*model.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[uuid.UUID]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	for _, u := range m.users {
		if u.Email == user.Email {
			return repository.ErrDuplicateKey
		}
	}
	user.ID = uuid.New()
	user.CreatedAt = time.Now()
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockUserRepo) List(_ context.Context) ([]model.User, error) {
	var out []model.User
	for _, u := range m.users {
		out = append(out, *u)
	}
	return out, nil
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	if _, ok := m.users[user.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *mockUserRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.users, id)
	return nil
}

type mockProductRepo struct {
	mu       sync.Mutex
	products map[uuid.UUID]*model.Product
}

func newMockProductRepo() *mockProductRepo {
	return &mockProductRepo{products: make(map[uuid.UUID]*model.Product)}
}

func (m *mockProductRepo) add(p model.Product) *model.Product {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Slug == "" {
		p.Slug = p.ID.String()
	}
	m.products[p.ID] = &p
	return &p
}

func (m *mockProductRepo) Create(_ context.Context, p *model.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.products {
		if existing.Slug == p.Slug {
			return repository.ErrDuplicateKey
		}
	}
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	cp := *p
	m.products[p.ID] = &cp
	return nil
}

func (m *mockProductRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (m *mockProductRepo) GetByIDs(_ context.Context, ids []uuid.UUID) ([]model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Product
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *mockProductRepo) SlugExists(_ context.Context, slug string, exclude uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.products {
		if p.Slug == slug && p.ID != exclude {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockProductRepo) List(_ context.Context, f model.ProductFilter) ([]model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Product
	for _, p := range m.products {
		if f.Active != nil && p.IsActive != *f.Active {
			continue
		}
		if f.VendorID != nil && p.VendorID != *f.VendorID {
			continue
		}
		if f.MainCategory != "" && repository.NormalizeCategory(p.MainCategory) != repository.NormalizeCategory(f.MainCategory) {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *mockProductRepo) Update(_ context.Context, p *model.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.products[p.ID]
	if !ok {
		return repository.ErrNotFound
	}
	for _, existing := range m.products {
		if existing.ID != p.ID && existing.Slug == p.Slug {
			return repository.ErrDuplicateKey
		}
	}
	p.Stock = current.Stock
	cp := *p
	m.products[p.ID] = &cp
	return nil
}

func (m *mockProductRepo) SetStock(_ context.Context, id uuid.UUID, stock int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.Stock = stock
	return nil
}

func (m *mockProductRepo) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *mockProductRepo) DecrementStock(_ context.Context, id uuid.UUID, qty int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok || p.Stock < qty {
		return repository.ErrInsufficientStock
	}
	p.Stock -= qty
	return nil
}

func (m *mockProductRepo) IncrementStock(_ context.Context, id uuid.UUID, qty int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.products[id]; ok {
		p.Stock += qty
	}
	return nil
}

type mockCartRepo struct {
	carts map[uuid.UUID]*model.Cart
}

func newMockCartRepo() *mockCartRepo {
	return &mockCartRepo{carts: make(map[uuid.UUID]*model.Cart)}
}

func (m *mockCartRepo) Get(_ context.Context, userID uuid.UUID) (*model.Cart, error) {
	c, ok := m.carts[userID]
	if !ok {
		return nil, nil
	}
	cp := *c
	cp.Items = append([]model.LineItem(nil), c.Items...)
	return &cp, nil
}

func (m *mockCartRepo) AddItem(_ context.Context, userID uuid.UUID, item model.LineItem) error {
	c, ok := m.carts[userID]
	if !ok {
		c = &model.Cart{UserID: userID, CreatedAt: time.Now()}
		m.carts[userID] = c
	}
	c.UpdatedAt = time.Now()
	for i := range c.Items {
		if c.Items[i].ProductID == item.ProductID {
			c.Items[i].Quantity += item.Quantity
			return nil
		}
	}
	c.Items = append(c.Items, item)
	return nil
}

func (m *mockCartRepo) RemoveItem(_ context.Context, userID, productID uuid.UUID) error {
	c, ok := m.carts[userID]
	if !ok {
		return repository.ErrNotFound
	}
	kept := c.Items[:0]
	for _, it := range c.Items {
		if it.ProductID != productID {
			kept = append(kept, it)
		}
	}
	c.Items = kept
	return nil
}

func (m *mockCartRepo) Clear(_ context.Context, userID uuid.UUID) error {
	if c, ok := m.carts[userID]; ok {
		c.Items = nil
	}
	return nil
}

type mockOrderRepo struct {
	orders map[uuid.UUID]*model.Order
}

func newMockOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{orders: make(map[uuid.UUID]*model.Order)}
}

func (m *mockOrderRepo) Create(_ context.Context, order *model.Order) error {
	order.ID = uuid.New()
	order.CreatedAt = time.Now()
	cp := *order
	cp.Items = append([]model.OrderItem(nil), order.Items...)
	m.orders[order.ID] = &cp
	return nil
}

func (m *mockOrderRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, nil
	}
	cp := *o
	cp.Items = append([]model.OrderItem(nil), o.Items...)
	return &cp, nil
}

func (m *mockOrderRepo) List(_ context.Context) ([]model.Order, error) {
	var out []model.Order
	for _, o := range m.orders {
		out = append(out, *o)
	}
	return out, nil
}

func (m *mockOrderRepo) ListByUserID(_ context.Context, userID uuid.UUID) ([]model.Order, error) {
	var out []model.Order
	for _, o := range m.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (m *mockOrderRepo) ListContainingProducts(_ context.Context, ids []uuid.UUID) ([]model.Order, error) {
	want := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []model.Order
	for _, o := range m.orders {
		for _, it := range o.Items {
			if want[it.ProductID] {
				out = append(out, *o)
				break
			}
		}
	}
	return out, nil
}

func (m *mockOrderRepo) UpdateStatus(_ context.Context, id uuid.UUID, from, to model.OrderStatus) error {
	o, ok := m.orders[id]
	if !ok {
		return repository.ErrNotFound
	}
	if o.OrderStatus != from {
		return repository.ErrStaleState
	}
	o.OrderStatus = to
	return nil
}

func (m *mockOrderRepo) UpdatePayment(_ context.Context, id uuid.UUID, from, to model.PaymentStatus, txID string) error {
	o, ok := m.orders[id]
	if !ok {
		return repository.ErrNotFound
	}
	if o.PaymentStatus != from {
		return repository.ErrStaleState
	}
	o.PaymentStatus = to
	if txID != "" {
		o.TransactionID = txID
	}
	return nil
}

func (m *mockOrderRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.orders[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.orders, id)
	return nil
}

type mockReviewRepo struct {
	reviews map[uuid.UUID]*model.Review
}

func newMockReviewRepo() *mockReviewRepo {
	return &mockReviewRepo{reviews: make(map[uuid.UUID]*model.Review)}
}

func (m *mockReviewRepo) Create(_ context.Context, r *model.Review) error {
	r.ID = uuid.New()
	r.CreatedAt = time.Now()
	cp := *r
	m.reviews[r.ID] = &cp
	return nil
}

func (m *mockReviewRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Review, error) {
	r, ok := m.reviews[id]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (m *mockReviewRepo) List(_ context.Context) ([]model.Review, error) {
	var out []model.Review
	for _, r := range m.reviews {
		out = append(out, *r)
	}
	return out, nil
}

func (m *mockReviewRepo) ListGeneral(_ context.Context) ([]model.Review, error) {
	var out []model.Review
	for _, r := range m.reviews {
		if r.ProductID == nil {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *mockReviewRepo) ListByProduct(_ context.Context, productID uuid.UUID) ([]model.Review, error) {
	var out []model.Review
	for _, r := range m.reviews {
		if r.ProductID != nil && *r.ProductID == productID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *mockReviewRepo) Update(_ context.Context, r *model.Review) error {
	if _, ok := m.reviews[r.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *r
	m.reviews[r.ID] = &cp
	return nil
}

func (m *mockReviewRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.reviews[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.reviews, id)
	return nil
}

type recordingPublisher struct {
	events []model.OrderEvent
}

func (p *recordingPublisher) PublishOrderEvent(_ context.Context, e model.OrderEvent) error {
	p.events = append(p.events, e)
	return nil
}

func principal(role model.Role) model.Principal {
	return model.Principal{ID: uuid.New(), Role: role, Name: string(role) + "-name"}
}

type recordingRemover struct {
	removed []string
}

func (r *recordingRemover) Remove(refs ...string) { r.removed = append(r.removed, refs...) }
