package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/nilantra/furniture-api/internal/cache"
	"github.com/nilantra/furniture-api/internal/events"
	"github.com/nilantra/furniture-api/internal/model"
	"github.com/nilantra/furniture-api/internal/repository"
)

const idempotencyTTL = 24 * time.Hour

// Broadcaster receives every consumed order event.
type Broadcaster interface {
	Broadcast(event model.OrderEvent)
}

// OrderWorker consumes order events. For new orders it reserves stock; every
// event is then forwarded to the broadcaster.
type OrderWorker struct {
	channel     *amqp.Channel
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	cache       *cache.ProductCache
	redisClient *redis.Client
	hub         Broadcaster
	log         *slog.Logger
	done        chan struct{}
}

func NewOrderWorker(
	ch *amqp.Channel,
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	productCache *cache.ProductCache,
	redisClient *redis.Client,
	hub Broadcaster,
	log *slog.Logger,
) *OrderWorker {
	return &OrderWorker{
		channel:     ch,
		orderRepo:   orderRepo,
		productRepo: productRepo,
		cache:       productCache,
		redisClient: redisClient,
		hub:         hub,
		log:         log,
		done:        make(chan struct{}),
	}
}

func (w *OrderWorker) Start(ctx context.Context) error {
	if err := w.channel.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set QoS: %w", err)
	}
	msgs, err := w.channel.Consume(events.OrderQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	go func() {
		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				w.processMessage(ctx, msg)
			case <-w.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	w.log.Info("order worker started")
	return nil
}

func (w *OrderWorker) Stop() { close(w.done) }

func idempotencyKey(orderID uuid.UUID) string {
	return "order_processed:" + orderID.String()
}

func (w *OrderWorker) processMessage(ctx context.Context, msg amqp.Delivery) {
	var event model.OrderEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		w.log.Error("unmarshal order event", "error", err)
		_ = msg.Nack(false, false)
		return
	}

	log := w.log.With("order_id", event.OrderID, "type", event.Type)

	if event.Type != model.OrderEventCreated {
		w.broadcast(event)
		_ = msg.Ack(false)
		return
	}

	if w.redisClient != nil {
		exists, err := w.redisClient.Exists(ctx, idempotencyKey(event.OrderID)).Result()
		if err != nil {
			log.Error("check idempotency key", "error", err)
			_ = msg.Nack(false, true)
			return
		}
		if exists > 0 {
			log.Info("order already processed, skipping")
			_ = msg.Ack(false)
			return
		}
	}

	if err := w.reserveStock(ctx, event); err != nil {
		log.Error("reserve stock failed", "error", err)
		_ = msg.Nack(false, false) // → DLQ
		return
	}

	if w.redisClient != nil {
		if err := w.redisClient.Set(ctx, idempotencyKey(event.OrderID), "1", idempotencyTTL).Err(); err != nil {
			log.Error("set idempotency key", "error", err)
		}
	}

	w.broadcast(event)
	_ = msg.Ack(false)
	log.Info("order processed")
}

func (w *OrderWorker) broadcast(event model.OrderEvent) {
	if w.hub != nil {
		w.hub.Broadcast(event)
	}
}

// reserveStock decrements stock for every line. When any line cannot be
// covered, lines already taken are restored and the order is cancelled.
func (w *OrderWorker) reserveStock(ctx context.Context, event model.OrderEvent) error {
	order, err := w.orderRepo.GetByID(ctx, event.OrderID)
	if err != nil {
		return fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return fmt.Errorf("order not found: %s", event.OrderID)
	}
	if order.OrderStatus != model.OrderStatusProcessing {
		w.log.Info("order no longer processing, skipping reservation", "order_id", order.ID, "status", order.OrderStatus)
		return nil
	}

	var reserved []model.OrderItem
	for _, item := range order.Items {
		err := w.productRepo.DecrementStock(ctx, item.ProductID, item.Quantity)
		if err == nil {
			reserved = append(reserved, item)
			continue
		}
		w.release(ctx, reserved)
		if errors.Is(err, repository.ErrInsufficientStock) {
			return w.cancel(ctx, order, item.ProductID)
		}
		return fmt.Errorf("decrement stock for %s: %w", item.ProductID, err)
	}

	w.invalidate(ctx, reserved)
	return nil
}

func (w *OrderWorker) release(ctx context.Context, items []model.OrderItem) {
	for _, item := range items {
		if err := w.productRepo.IncrementStock(ctx, item.ProductID, item.Quantity); err != nil {
			w.log.Error("restore stock", "error", err, "product_id", item.ProductID, "quantity", item.Quantity)
		}
	}
	w.invalidate(ctx, items)
}

func (w *OrderWorker) invalidate(ctx context.Context, items []model.OrderItem) {
	ids := make([]uuid.UUID, len(items))
	for i, item := range items {
		ids[i] = item.ProductID
	}
	w.cache.Invalidate(ctx, ids...)
}

func (w *OrderWorker) cancel(ctx context.Context, order *model.Order, short uuid.UUID) error {
	err := w.orderRepo.UpdateStatus(ctx, order.ID, model.OrderStatusProcessing, model.OrderStatusCancelled)
	if errors.Is(err, repository.ErrStaleState) {
		// An admin moved the order first; leave their decision in place.
		return nil
	}
	if err != nil {
		return fmt.Errorf("cancel order: %w", err)
	}
	w.log.Warn("order cancelled: insufficient stock", "order_id", order.ID, "product_id", short)
	w.broadcast(model.OrderEvent{
		Type:          model.OrderEventStatusChanged,
		OrderID:       order.ID,
		UserID:        order.UserID,
		OrderStatus:   model.OrderStatusCancelled,
		PaymentStatus: order.PaymentStatus,
		OccurredAt:    time.Now().UTC(),
	})
	return nil
}
