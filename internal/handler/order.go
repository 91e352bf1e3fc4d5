package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nilantra/furniture-api/internal/dto"
	"github.com/nilantra/furniture-api/internal/middleware"
	"github.com/nilantra/furniture-api/internal/service"
)

// EventStream serves the live order feed over WebSocket.
type EventStream interface {
	ServeWS(w http.ResponseWriter, r *http.Request)
}

type OrderHandler struct {
	svc    *service.OrderService
	stream EventStream
}

func NewOrderHandler(svc *service.OrderService, stream EventStream) *OrderHandler {
	return &OrderHandler{svc: svc, stream: stream}
}

func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req dto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	order, err := h.svc.CreateOrder(c.Request.Context(), middleware.GetPrincipal(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	order, err := h.svc.GetByID(c.Request.Context(), middleware.GetPrincipal(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) ListAll(c *gin.Context) {
	orders, err := h.svc.ListAll(c.Request.Context(), middleware.GetPrincipal(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h *OrderHandler) ListByUser(c *gin.Context) {
	userID, ok := uuidParam(c, "userId")
	if !ok {
		return
	}
	orders, err := h.svc.ListByUser(c.Request.Context(), middleware.GetPrincipal(c), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h *OrderHandler) ListByVendor(c *gin.Context) {
	vendorID, ok := uuidParam(c, "vendorId")
	if !ok {
		return
	}
	orders, err := h.svc.ListByVendor(c.Request.Context(), middleware.GetPrincipal(c), vendorID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	order, err := h.svc.UpdateStatus(c.Request.Context(), middleware.GetPrincipal(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) ProcessPayment(c *gin.Context) {
	var req dto.ProcessPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	order, err := h.svc.ProcessPayment(c.Request.Context(), middleware.GetPrincipal(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) Delete(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), middleware.GetPrincipal(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "order deleted"})
}

func (h *OrderHandler) Subscribe(c *gin.Context) {
	h.stream.ServeWS(c.Writer, c.Request)
}
