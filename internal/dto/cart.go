package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type AddCartItemRequest struct {
	// UserID defaults to the caller.
	UserID    *uuid.UUID `json:"userId"`
	ProductID uuid.UUID  `json:"productId" binding:"required"`
	Quantity  int        `json:"quantity" binding:"required,min=1"`
}

type CartResponse struct {
	UserID    uuid.UUID          `json:"userId"`
	Items     []CartItemResponse `json:"items"`
	Subtotal  decimal.Decimal    `json:"subtotal"`
	UpdatedAt *time.Time         `json:"updatedAt,omitempty"`
}

// CartItemResponse prices a line from the live catalog. Lines whose product
// no longer exists carry no product and count as unavailable.
type CartItemResponse struct {
	ProductID uuid.UUID        `json:"productId"`
	Product   *ProductResponse `json:"product,omitempty"`
	Quantity  int              `json:"quantity"`
	UnitPrice decimal.Decimal  `json:"unitPrice"`
	LineTotal decimal.Decimal  `json:"lineTotal"`
	Available bool             `json:"available"`
}
