package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nilantra/furniture-api/internal/dto"
	"github.com/nilantra/furniture-api/internal/model"
	"github.com/nilantra/furniture-api/internal/repository"
)

type CartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
}

func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository) *CartService {
	return &CartService{cartRepo: cartRepo, productRepo: productRepo}
}

func (s *CartService) AddItem(ctx context.Context, p model.Principal, req dto.AddCartItemRequest) (*dto.CartResponse, error) {
	userID := p.ID
	if req.UserID != nil && *req.UserID != uuid.Nil {
		userID = *req.UserID
	}
	if !p.Owns(userID) {
		return nil, ErrForbidden
	}
	if req.Quantity < 1 {
		return nil, fmt.Errorf("%w: quantity must be at least 1", ErrValidation)
	}

	product, err := s.productRepo.GetByID(ctx, req.ProductID)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, notFound("product")
	}
	if !product.IsActive {
		return nil, fmt.Errorf("%w: product is not available", ErrValidation)
	}

	if err := s.cartRepo.AddItem(ctx, userID, model.LineItem{ProductID: req.ProductID, Quantity: req.Quantity}); err != nil {
		return nil, storeErr("add cart item", err)
	}
	return s.view(ctx, userID)
}

// GetCart returns an empty cart rather than an error when none exists yet.
func (s *CartService) GetCart(ctx context.Context, p model.Principal, userID uuid.UUID) (*dto.CartResponse, error) {
	if !p.Owns(userID) {
		return nil, ErrForbidden
	}
	return s.view(ctx, userID)
}

// RemoveItem is a no-op for products not in the cart.
func (s *CartService) RemoveItem(ctx context.Context, p model.Principal, userID, productID uuid.UUID) (*dto.CartResponse, error) {
	if !p.Owns(userID) {
		return nil, ErrForbidden
	}
	if err := s.cartRepo.RemoveItem(ctx, userID, productID); err != nil {
		return nil, storeErr("cart", err)
	}
	return s.view(ctx, userID)
}

func (s *CartService) Clear(ctx context.Context, p model.Principal, userID uuid.UUID) error {
	if !p.Owns(userID) {
		return ErrForbidden
	}
	if err := s.cartRepo.Clear(ctx, userID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

// view prices the stored lines against the live catalog.
func (s *CartService) view(ctx context.Context, userID uuid.UUID) (*dto.CartResponse, error) {
	cart, err := s.cartRepo.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	resp := &dto.CartResponse{UserID: userID, Items: []dto.CartItemResponse{}, Subtotal: decimal.Zero}
	if cart == nil {
		return resp, nil
	}
	updated := cart.UpdatedAt
	resp.UpdatedAt = &updated
	if len(cart.Items) == 0 {
		return resp, nil
	}

	ids := make([]uuid.UUID, len(cart.Items))
	for i, it := range cart.Items {
		ids[i] = it.ProductID
	}
	products, err := s.productRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("get cart products: %w", err)
	}
	byID := make(map[uuid.UUID]*model.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	for _, it := range cart.Items {
		line := dto.CartItemResponse{ProductID: it.ProductID, Quantity: it.Quantity}
		if product, ok := byID[it.ProductID]; ok {
			summary := dto.NewProductResponse(product)
			line.Product = &summary
			line.UnitPrice = product.EffectivePrice()
			line.LineTotal = line.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
			line.Available = product.IsActive
			if line.Available {
				resp.Subtotal = resp.Subtotal.Add(line.LineTotal)
			}
		}
		resp.Items = append(resp.Items, line)
	}
	return resp, nil
}
