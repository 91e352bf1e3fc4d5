package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/nilantra/furniture-api/internal/dto"
	"github.com/nilantra/furniture-api/internal/model"
	"github.com/nilantra/furniture-api/internal/repository"
)

// EventPublisher delivers order events to the worker.
type EventPublisher interface {
	PublishOrderEvent(ctx context.Context, event model.OrderEvent) error
}

// snapshotConcurrency bounds parallel product lookups during checkout.
const snapshotConcurrency = 8

type OrderService struct {
	orderRepo   repository.OrderRepository
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	publisher   EventPublisher
	log         *slog.Logger
}

func NewOrderService(
	orderRepo repository.OrderRepository,
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	publisher EventPublisher,
	log *slog.Logger,
) *OrderService {
	if log == nil {
		log = slog.Default()
	}
	return &OrderService{
		orderRepo:   orderRepo,
		cartRepo:    cartRepo,
		productRepo: productRepo,
		publisher:   publisher,
		log:         log,
	}
}

// CreateOrder checks out explicit items, or the caller's cart when none are
// given. Prices are captured now and never recomputed. Stock is reserved
// later by the order worker.
func (s *OrderService) CreateOrder(ctx context.Context, p model.Principal, req dto.CreateOrderRequest) (*dto.OrderResponse, error) {
	address := strings.TrimSpace(req.ShippingAddress)
	if address == "" {
		return nil, fmt.Errorf("%w: shippingAddress is required", ErrValidation)
	}

	fromCart := len(req.Items) == 0
	var lines []model.LineItem
	if fromCart {
		cart, err := s.cartRepo.Get(ctx, p.ID)
		if err != nil {
			return nil, fmt.Errorf("get cart: %w", err)
		}
		if cart == nil || len(cart.Items) == 0 {
			return nil, fmt.Errorf("%w: cart is empty", ErrValidation)
		}
		lines = cart.Items
	} else {
		for _, it := range req.Items {
			lines = append(lines, model.LineItem{ProductID: it.ProductID, Quantity: it.Quantity})
		}
	}
	lines, err := mergeLines(lines)
	if err != nil {
		return nil, err
	}

	items, err := s.snapshot(ctx, lines)
	if err != nil {
		return nil, err
	}

	order := &model.Order{
		UserID:          p.ID,
		Items:           items,
		TotalAmount:     orderTotal(items),
		ShippingAddress: address,
		PaymentStatus:   model.PaymentStatusPending,
		OrderStatus:     model.OrderStatusProcessing,
	}
	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	s.publish(ctx, model.OrderEventCreated, order)

	// Not atomic with the insert above: a failure here leaves the cart intact.
	if fromCart {
		if err := s.cartRepo.Clear(ctx, p.ID); err != nil {
			s.log.Warn("clear cart after checkout", "error", err, "order_id", order.ID, "user_id", p.ID)
		}
	}

	resp := dto.NewOrderResponse(order)
	return &resp, nil
}

// mergeLines folds repeated products into one line.
func mergeLines(lines []model.LineItem) ([]model.LineItem, error) {
	index := make(map[uuid.UUID]int, len(lines))
	var out []model.LineItem
	for _, l := range lines {
		if l.Quantity < 1 {
			return nil, fmt.Errorf("%w: quantity must be at least 1", ErrValidation)
		}
		if i, ok := index[l.ProductID]; ok {
			out[i].Quantity += l.Quantity
			continue
		}
		index[l.ProductID] = len(out)
		out = append(out, l)
	}
	return out, nil
}

// snapshot loads each product concurrently and captures its current price.
func (s *OrderService) snapshot(ctx context.Context, lines []model.LineItem) ([]model.OrderItem, error) {
	items := make([]model.OrderItem, len(lines))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(snapshotConcurrency)

	for i, line := range lines {
		g.Go(func() error {
			product, err := s.productRepo.GetByID(gctx, line.ProductID)
			if err != nil {
				return fmt.Errorf("get product %s: %w", line.ProductID, err)
			}
			if product == nil || !product.IsActive {
				return fmt.Errorf("%w: product %s is not available", ErrValidation, line.ProductID)
			}
			if line.Quantity > product.Stock {
				return fmt.Errorf("%w: only %d of %q in stock", ErrValidation, product.Stock, product.Name)
			}
			items[i] = model.OrderItem{
				ProductID: line.ProductID,
				Quantity:  line.Quantity,
				Price:     product.EffectivePrice(),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return items, nil
}

func orderTotal(items []model.OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total
}

func (s *OrderService) publish(ctx context.Context, typ model.OrderEventType, order *model.Order) {
	if s.publisher == nil {
		return
	}
	event := model.OrderEvent{
		Type:          typ,
		OrderID:       order.ID,
		UserID:        order.UserID,
		OrderStatus:   order.OrderStatus,
		PaymentStatus: order.PaymentStatus,
		OccurredAt:    time.Now().UTC(),
	}
	if err := s.publisher.PublishOrderEvent(ctx, event); err != nil {
		s.log.Error("publish order event", "error", err, "type", typ, "order_id", order.ID)
	}
}

func (s *OrderService) load(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return nil, notFound("order")
	}
	return order, nil
}

func (s *OrderService) GetByID(ctx context.Context, p model.Principal, id uuid.UUID) (*dto.OrderResponse, error) {
	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.Owns(order.UserID) {
		return nil, ErrForbidden
	}
	resp := dto.NewOrderResponse(order)
	return &resp, nil
}

func (s *OrderService) ListByUser(ctx context.Context, p model.Principal, userID uuid.UUID) ([]dto.OrderResponse, error) {
	if !p.Owns(userID) {
		return nil, ErrForbidden
	}
	orders, err := s.orderRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return dto.NewOrderListResponse(orders), nil
}

func (s *OrderService) ListAll(ctx context.Context, p model.Principal) ([]dto.OrderResponse, error) {
	if !p.IsAdmin() {
		return nil, ErrForbidden
	}
	orders, err := s.orderRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return dto.NewOrderListResponse(orders), nil
}

// ListByVendor returns orders containing at least one of the vendor's products.
func (s *OrderService) ListByVendor(ctx context.Context, p model.Principal, vendorID uuid.UUID) ([]dto.OrderResponse, error) {
	if !p.Owns(vendorID) {
		return nil, ErrForbidden
	}
	products, err := s.productRepo.List(ctx, model.ProductFilter{VendorID: &vendorID})
	if err != nil {
		return nil, fmt.Errorf("list vendor products: %w", err)
	}
	ids := make([]uuid.UUID, len(products))
	for i := range products {
		ids[i] = products[i].ID
	}
	orders, err := s.orderRepo.ListContainingProducts(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list vendor orders: %w", err)
	}
	return dto.NewOrderListResponse(orders), nil
}

func (s *OrderService) UpdateStatus(ctx context.Context, p model.Principal, id uuid.UUID, req dto.UpdateOrderStatusRequest) (*dto.OrderResponse, error) {
	if !p.IsAdmin() {
		return nil, ErrForbidden
	}
	next, err := model.ParseOrderStatus(req.OrderStatus)
	if err != nil {
		return nil, asValidation(err)
	}
	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !order.OrderStatus.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: order is %s and cannot move to %s", ErrConflict, order.OrderStatus, next)
	}
	if err := s.orderRepo.UpdateStatus(ctx, id, order.OrderStatus, next); err != nil {
		return nil, storeErr("update order status", err)
	}
	order.OrderStatus = next
	order.UpdatedAt = time.Now().UTC()

	s.publish(ctx, model.OrderEventStatusChanged, order)
	resp := dto.NewOrderResponse(order)
	return &resp, nil
}

// ProcessPayment records a payment outcome. It never touches the order status.
func (s *OrderService) ProcessPayment(ctx context.Context, p model.Principal, req dto.ProcessPaymentRequest) (*dto.OrderResponse, error) {
	next, err := model.ParsePaymentStatus(req.Status)
	if err != nil {
		return nil, asValidation(err)
	}
	txID := strings.TrimSpace(req.TransactionID)
	if next == model.PaymentStatusCompleted && txID == "" {
		return nil, fmt.Errorf("%w: transactionId is required for a completed payment", ErrValidation)
	}

	order, err := s.load(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}
	if !p.Owns(order.UserID) {
		return nil, ErrForbidden
	}
	if !order.PaymentStatus.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: payment is %s and cannot move to %s", ErrConflict, order.PaymentStatus, next)
	}
	if err := s.orderRepo.UpdatePayment(ctx, order.ID, order.PaymentStatus, next, txID); err != nil {
		return nil, storeErr("update payment", err)
	}
	order.PaymentStatus = next
	if txID != "" {
		order.TransactionID = txID
	}
	order.UpdatedAt = time.Now().UTC()

	s.publish(ctx, model.OrderEventPaymentUpdated, order)
	resp := dto.NewOrderResponse(order)
	return &resp, nil
}

func (s *OrderService) Delete(ctx context.Context, p model.Principal, id uuid.UUID) error {
	if !p.IsAdmin() {
		return ErrForbidden
	}
	if err := s.orderRepo.Delete(ctx, id); err != nil {
		return storeErr("order", err)
	}
	return nil
}
