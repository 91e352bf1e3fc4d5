package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nilantra/furniture-api/internal/model"
)

type OrderLineRequest struct {
	ProductID uuid.UUID `json:"product" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,min=1"`
}

// CreateOrderRequest checks out the caller's cart when Items is empty.
type CreateOrderRequest struct {
	Items           []OrderLineRequest `json:"items" binding:"omitempty,dive"`
	ShippingAddress string             `json:"shippingAddress" binding:"required"`
}

type UpdateOrderStatusRequest struct {
	OrderStatus string `json:"orderStatus" binding:"required"`
}

type ProcessPaymentRequest struct {
	OrderID       uuid.UUID `json:"orderId" binding:"required"`
	Status        string    `json:"status" binding:"required"`
	TransactionID string    `json:"transactionId"`
}

type OrderResponse struct {
	ID              uuid.UUID           `json:"id"`
	UserID          uuid.UUID           `json:"user"`
	Items           []OrderItemResponse `json:"items"`
	TotalAmount     decimal.Decimal     `json:"totalAmount"`
	ShippingAddress string              `json:"shippingAddress"`
	PaymentStatus   model.PaymentStatus `json:"paymentStatus"`
	OrderStatus     model.OrderStatus   `json:"orderStatus"`
	TransactionID   string              `json:"transactionId,omitempty"`
	CreatedAt       time.Time           `json:"createdAt"`
	UpdatedAt       time.Time           `json:"updatedAt"`
}

type OrderItemResponse struct {
	ProductID uuid.UUID       `json:"product"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

func NewOrderResponse(o *model.Order) OrderResponse {
	resp := OrderResponse{
		ID:              o.ID,
		UserID:          o.UserID,
		Items:           make([]OrderItemResponse, len(o.Items)),
		TotalAmount:     o.TotalAmount,
		ShippingAddress: o.ShippingAddress,
		PaymentStatus:   o.PaymentStatus,
		OrderStatus:     o.OrderStatus,
		TransactionID:   o.TransactionID,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
	for i, it := range o.Items {
		resp.Items[i] = OrderItemResponse{ProductID: it.ProductID, Quantity: it.Quantity, Price: it.Price}
	}
	return resp
}

func NewOrderListResponse(orders []model.Order) []OrderResponse {
	out := make([]OrderResponse, len(orders))
	for i := range orders {
		out[i] = NewOrderResponse(&orders[i])
	}
	return out
}
