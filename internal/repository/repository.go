package repository

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/nilantra/furniture-api/internal/model"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrDuplicateKey      = errors.New("duplicate key")
	ErrStaleState        = errors.New("record changed concurrently")
	ErrInsufficientStock = errors.New("insufficient stock")
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	Update(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Product, error)
	SlugExists(ctx context.Context, slug string, exclude uuid.UUID) (bool, error)
	List(ctx context.Context, filter model.ProductFilter) ([]model.Product, error)
	// Update leaves stock untouched and reloads it into product.
	Update(ctx context.Context, product *model.Product) error
	SetStock(ctx context.Context, id uuid.UUID, stock int) error
	Delete(ctx context.Context, id uuid.UUID) error
	DecrementStock(ctx context.Context, id uuid.UUID, quantity int) error
	IncrementStock(ctx context.Context, id uuid.UUID, quantity int) error
}

// CartRepository stores one cart per user. AddItem must merge by product
// atomically in the store; callers never read-modify-write a cart.
type CartRepository interface {
	Get(ctx context.Context, userID uuid.UUID) (*model.Cart, error)
	AddItem(ctx context.Context, userID uuid.UUID, item model.LineItem) error
	RemoveItem(ctx context.Context, userID, productID uuid.UUID) error
	Clear(ctx context.Context, userID uuid.UUID) error
}

// OrderRepository status updates are compare-and-set on the current value
// and return ErrStaleState when it no longer matches.
type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
	List(ctx context.Context) ([]model.Order, error)
	ListByUserID(ctx context.Context, userID uuid.UUID) ([]model.Order, error)
	ListContainingProducts(ctx context.Context, productIDs []uuid.UUID) ([]model.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.OrderStatus) error
	UpdatePayment(ctx context.Context, id uuid.UUID, from, to model.PaymentStatus, transactionID string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type ReviewRepository interface {
	Create(ctx context.Context, review *model.Review) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Review, error)
	List(ctx context.Context) ([]model.Review, error)
	ListGeneral(ctx context.Context) ([]model.Review, error)
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]model.Review, error)
	Update(ctx context.Context, review *model.Review) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Repositories bundles one backend's implementations.
type Repositories struct {
	Users    UserRepository
	Products ProductRepository
	Carts    CartRepository
	Orders   OrderRepository
	Reviews  ReviewRepository
}

var categorySeparators = regexp.MustCompile(`[-_\s]+`)

// NormalizeCategory folds case and treats hyphens, underscores and spaces alike,
// so "living-room" and "Living Room" compare equal.
func NormalizeCategory(s string) string {
	return strings.TrimSpace(categorySeparators.ReplaceAllString(strings.ToLower(s), " "))
}
