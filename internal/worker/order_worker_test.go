package worker

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nilantra/furniture-api/internal/model"
	"github.com/nilantra/furniture-api/internal/repository"
)

type fakeOrders struct {
	repository.OrderRepository
	orders map[uuid.UUID]*model.Order
}

func (f *fakeOrders) GetByID(_ context.Context, id uuid.UUID) (*model.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

func (f *fakeOrders) UpdateStatus(_ context.Context, id uuid.UUID, from, to model.OrderStatus) error {
	o, ok := f.orders[id]
	if !ok {
		return repository.ErrNotFound
	}
	if o.OrderStatus != from {
		return repository.ErrStaleState
	}
	o.OrderStatus = to
	return nil
}

type fakeProducts struct {
	repository.ProductRepository
	stock map[uuid.UUID]int
}

func (f *fakeProducts) DecrementStock(_ context.Context, id uuid.UUID, qty int) error {
	if f.stock[id] < qty {
		return repository.ErrInsufficientStock
	}
	f.stock[id] -= qty
	return nil
}

func (f *fakeProducts) IncrementStock(_ context.Context, id uuid.UUID, qty int) error {
	f.stock[id] += qty
	return nil
}

type recordingHub struct {
	events []model.OrderEvent
}

func (h *recordingHub) Broadcast(e model.OrderEvent) { h.events = append(h.events, e) }

type fakeAck struct {
	acked, nacked, requeued bool
}

func (a *fakeAck) Ack(uint64, bool) error { a.acked = true; return nil }
func (a *fakeAck) Nack(_ uint64, _ bool, requeue bool) error {
	a.nacked, a.requeued = true, requeue
	return nil
}
func (a *fakeAck) Reject(_ uint64, requeue bool) error {
	a.nacked, a.requeued = true, requeue
	return nil
}

type workerFixture struct {
	worker   *OrderWorker
	orders   *fakeOrders
	products *fakeProducts
	hub      *recordingHub
}

func newWorkerFixture() workerFixture {
	f := workerFixture{
		orders:   &fakeOrders{orders: make(map[uuid.UUID]*model.Order)},
		products: &fakeProducts{stock: make(map[uuid.UUID]int)},
		hub:      &recordingHub{},
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.worker = NewOrderWorker(nil, f.orders, f.products, nil, nil, f.hub, log)
	return f
}

func delivery(t *testing.T, event model.OrderEvent) (amqp.Delivery, *fakeAck) {
	t.Helper()
	body, err := json.Marshal(event)
	require.NoError(t, err)
	ack := &fakeAck{}
	return amqp.Delivery{Acknowledger: ack, DeliveryTag: 1, Body: body}, ack
}

func TestProcessMessage_ReservesStock(t *testing.T) {
	f := newWorkerFixture()
	chair, table := uuid.New(), uuid.New()
	f.products.stock[chair] = 5
	f.products.stock[table] = 1
	order := &model.Order{ID: uuid.New(), OrderStatus: model.OrderStatusProcessing, Items: []model.OrderItem{
		{ProductID: chair, Quantity: 4},
		{ProductID: table, Quantity: 1},
	}}
	f.orders.orders[order.ID] = order

	msg, ack := delivery(t, model.OrderEvent{Type: model.OrderEventCreated, OrderID: order.ID})
	f.worker.processMessage(context.Background(), msg)

	assert.True(t, ack.acked)
	assert.Equal(t, 1, f.products.stock[chair])
	assert.Equal(t, 0, f.products.stock[table])
	assert.Equal(t, model.OrderStatusProcessing, order.OrderStatus)
	require.Len(t, f.hub.events, 1)
	assert.Equal(t, model.OrderEventCreated, f.hub.events[0].Type)
}

func TestProcessMessage_InsufficientStockCancelsAndRestores(t *testing.T) {
	f := newWorkerFixture()
	chair, table := uuid.New(), uuid.New()
	f.products.stock[chair] = 5
	f.products.stock[table] = 0
	order := &model.Order{ID: uuid.New(), OrderStatus: model.OrderStatusProcessing, Items: []model.OrderItem{
		{ProductID: chair, Quantity: 2},
		{ProductID: table, Quantity: 1},
	}}
	f.orders.orders[order.ID] = order

	msg, ack := delivery(t, model.OrderEvent{Type: model.OrderEventCreated, OrderID: order.ID})
	f.worker.processMessage(context.Background(), msg)

	assert.True(t, ack.acked)
	assert.Equal(t, 5, f.products.stock[chair])
	assert.Equal(t, model.OrderStatusCancelled, order.OrderStatus)

	require.Len(t, f.hub.events, 2)
	assert.Equal(t, model.OrderEventStatusChanged, f.hub.events[0].Type)
	assert.Equal(t, model.OrderStatusCancelled, f.hub.events[0].OrderStatus)
}

func TestProcessMessage_SkipsOrdersNoLongerProcessing(t *testing.T) {
	f := newWorkerFixture()
	chair := uuid.New()
	f.products.stock[chair] = 5
	order := &model.Order{ID: uuid.New(), OrderStatus: model.OrderStatusCancelled, Items: []model.OrderItem{
		{ProductID: chair, Quantity: 2},
	}}
	f.orders.orders[order.ID] = order

	msg, ack := delivery(t, model.OrderEvent{Type: model.OrderEventCreated, OrderID: order.ID})
	f.worker.processMessage(context.Background(), msg)

	assert.True(t, ack.acked)
	assert.Equal(t, 5, f.products.stock[chair])
}

func TestProcessMessage_MissingOrderGoesToDLQ(t *testing.T) {
	f := newWorkerFixture()
	msg, ack := delivery(t, model.OrderEvent{Type: model.OrderEventCreated, OrderID: uuid.New()})
	f.worker.processMessage(context.Background(), msg)

	assert.True(t, ack.nacked)
	assert.False(t, ack.requeued)
	assert.Empty(t, f.hub.events)
}

func TestProcessMessage_ForwardsOtherEvents(t *testing.T) {
	f := newWorkerFixture()
	msg, ack := delivery(t, model.OrderEvent{Type: model.OrderEventPaymentUpdated, OrderID: uuid.New(), PaymentStatus: model.PaymentStatusCompleted})
	f.worker.processMessage(context.Background(), msg)

	assert.True(t, ack.acked)
	require.Len(t, f.hub.events, 1)
	assert.Equal(t, model.PaymentStatusCompleted, f.hub.events[0].PaymentStatus)
}

func TestProcessMessage_BadBody(t *testing.T) {
	f := newWorkerFixture()
	ack := &fakeAck{}
	f.worker.processMessage(context.Background(), amqp.Delivery{Acknowledger: ack, Body: []byte("{nope")})
	assert.True(t, ack.nacked)
	assert.False(t, ack.requeued)
}
