package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
)

// PingFunc adapts a store's health check.
type PingFunc func(ctx context.Context) error

type HealthHandler struct {
	storeName   string
	storePing   PingFunc
	redisClient *redis.Client
	amqpConn    *amqp.Connection
}

func NewHealthHandler(storeName string, storePing PingFunc, redisClient *redis.Client, amqpConn *amqp.Connection) *HealthHandler {
	return &HealthHandler{storeName: storeName, storePing: storePing, redisClient: redisClient, amqpConn: amqpConn}
}

func (h *HealthHandler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *HealthHandler) Readyz(c *gin.Context) {
	ctx := c.Request.Context()

	if err := h.storePing(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", h.storeName: "unavailable"})
		return
	}
	if h.redisClient == nil || h.redisClient.Ping(ctx).Err() != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "redis": "unavailable"})
		return
	}
	if h.amqpConn == nil || h.amqpConn.IsClosed() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "rabbitmq": "unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		h.storeName: "connected",
		"redis":     "connected",
		"rabbitmq":  "connected",
	})
}
