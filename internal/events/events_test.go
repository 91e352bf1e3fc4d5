package events

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nilantra/furniture-api/internal/model"
)

type fakeChannel struct {
	key string
	msg amqp.Publishing
}

func (f *fakeChannel) PublishWithContext(_ context.Context, _, key string, _, _ bool, msg amqp.Publishing) error {
	f.key = key
	f.msg = msg
	return nil
}

func TestPublisher_PublishOrderEvent(t *testing.T) {
	ch := &fakeChannel{}
	event := model.OrderEvent{
		Type:        model.OrderEventCreated,
		OrderID:     uuid.New(),
		UserID:      uuid.New(),
		OrderStatus: model.OrderStatusProcessing,
		OccurredAt:  time.Now().UTC(),
	}

	require.NoError(t, NewPublisher(ch).PublishOrderEvent(context.Background(), event))

	assert.Equal(t, OrderQueue, ch.key)
	assert.Equal(t, amqp.Persistent, ch.msg.DeliveryMode)
	assert.Equal(t, "order.created", ch.msg.Type)

	var got model.OrderEvent
	require.NoError(t, json.Unmarshal(ch.msg.Body, &got))
	assert.Equal(t, event.OrderID, got.OrderID)
	assert.Equal(t, model.OrderStatusProcessing, got.OrderStatus)
}

func TestHub_BroadcastReachesSubscriber(t *testing.T) {
	hub := NewHub(nil)
	srv := httptest.NewServer(httpHandler(hub))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 10*time.Millisecond)

	event := model.OrderEvent{Type: model.OrderEventStatusChanged, OrderID: uuid.New(), OrderStatus: model.OrderStatusShipped}
	hub.Broadcast(event)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var got model.OrderEvent
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, event.OrderID, got.OrderID)
	assert.Equal(t, model.OrderStatusShipped, got.OrderStatus)

	conn.Close()
	require.Eventually(t, func() bool { return hub.Clients() == 0 }, time.Second, 10*time.Millisecond)
}

func TestHub_BroadcastWithoutSubscribers(t *testing.T) {
	hub := NewHub(nil)
	assert.NotPanics(t, func() { hub.Broadcast(model.OrderEvent{Type: model.OrderEventCreated}) })
}

func httpHandler(h *Hub) http.HandlerFunc { return h.ServeWS }
