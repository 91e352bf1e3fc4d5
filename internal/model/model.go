package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Role string

const (
	RoleUser   Role = "user"
	RoleVendor Role = "vendor"
	RoleAdmin  Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleVendor, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID        uuid.UUID
	Name      string
	Email     string
	Password  string
	Role      Role
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Dimensions struct {
	Length string `json:"length,omitempty"`
	Width  string `json:"width,omitempty"`
	Height string `json:"height,omitempty"`
}

type Product struct {
	ID           uuid.UUID
	Name         string
	Slug         string
	Description  string
	MainCategory string
	SubCategory  string
	Price        decimal.Decimal
	OfferPrice   decimal.NullDecimal
	Material     string
	Dimensions   Dimensions
	Colors       []string
	Seat         []float64
	Images       []string
	Stock        int
	IsFeatured   bool
	IsBestSeller bool
	IsActive     bool
	VendorID     uuid.UUID
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasOffer reports whether a positive offer price is set.
func (p *Product) HasOffer() bool {
	return p.OfferPrice.Valid && p.OfferPrice.Decimal.IsPositive()
}

// EffectivePrice is the price a buyer pays right now.
func (p *Product) EffectivePrice() decimal.Decimal {
	if p.HasOffer() {
		return p.OfferPrice.Decimal
	}
	return p.Price
}

// ProductDraft is the normalized input for product creation.
type ProductDraft struct {
	Name         string
	Description  string
	MainCategory string
	SubCategory  string
	Price        decimal.Decimal
	OfferPrice   decimal.NullDecimal
	Material     string
	Dimensions   Dimensions
	Colors       []string
	Seat         []float64
	Images       []string
	Stock        int
	IsFeatured   bool
	IsBestSeller bool
	IsActive     bool
}

// ProductPatch carries only the fields a client sent; nil means keep the stored value.
// Vendor ownership is intentionally absent.
type ProductPatch struct {
	Name         *string
	Description  *string
	MainCategory *string
	SubCategory  *string
	Price        *decimal.Decimal
	OfferPrice   *decimal.Decimal
	Material     *string
	Dimensions   *Dimensions
	Colors       *[]string
	Seat         *[]float64
	Stock        *int
	IsFeatured   *bool
	IsBestSeller *bool
	IsActive     *bool
	// KeepImages, when set, lists the stored image references to retain;
	// nil keeps them all. NewImages are appended after them.
	KeepImages *[]string
	NewImages  []string
}

type ProductFilter struct {
	MainCategory string
	SubCategory  string
	Category     string
	Featured     *bool
	BestSeller   *bool
	HasOffer     *bool
	Active       *bool
	VendorID     *uuid.UUID
}

// LineItem is a (product, quantity) pair.
type LineItem struct {
	ProductID uuid.UUID
	Quantity  int
}

type Cart struct {
	UserID    uuid.UUID
	Items     []LineItem
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Order struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	Items           []OrderItem
	TotalAmount     decimal.Decimal
	ShippingAddress string
	PaymentStatus   PaymentStatus
	OrderStatus     OrderStatus
	TransactionID   string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// OrderItem carries the price captured when the order was placed.
type OrderItem struct {
	ProductID uuid.UUID
	Quantity  int
	Price     decimal.Decimal
}

type Review struct {
	ID        uuid.UUID
	ProductID *uuid.UUID
	UserID    *uuid.UUID
	Name      string
	Rating    int
	Comment   string
	Images    []string
	Reply     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (r *Review) IsGeneral() bool { return r.ProductID == nil }

type ReviewPatch struct {
	Rating  *int
	Comment *string
	Images  *[]string
	Reply   *string
}

type OrderEventType string

const (
	OrderEventCreated        OrderEventType = "order.created"
	OrderEventStatusChanged  OrderEventType = "order.status_changed"
	OrderEventPaymentUpdated OrderEventType = "order.payment_updated"
)

type OrderEvent struct {
	Type          OrderEventType `json:"type"`
	OrderID       uuid.UUID      `json:"order_id"`
	UserID        uuid.UUID      `json:"user_id"`
	OrderStatus   OrderStatus    `json:"order_status"`
	PaymentStatus PaymentStatus  `json:"payment_status"`
	OccurredAt    time.Time      `json:"occurred_at"`
}
