package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nilantra/furniture-api/internal/dto"
	"github.com/nilantra/furniture-api/internal/middleware"
	"github.com/nilantra/furniture-api/internal/service"
)

type CartHandler struct {
	svc *service.CartService
}

func NewCartHandler(svc *service.CartService) *CartHandler {
	return &CartHandler{svc: svc}
}

func (h *CartHandler) AddItem(c *gin.Context) {
	var req dto.AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	cart, err := h.svc.AddItem(c.Request.Context(), middleware.GetPrincipal(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

func (h *CartHandler) GetCart(c *gin.Context) {
	userID, ok := uuidParam(c, "userId")
	if !ok {
		return
	}
	cart, err := h.svc.GetCart(c.Request.Context(), middleware.GetPrincipal(c), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

func (h *CartHandler) RemoveItem(c *gin.Context) {
	userID, ok := uuidParam(c, "userId")
	if !ok {
		return
	}
	productID, ok := uuidParam(c, "productId")
	if !ok {
		return
	}
	cart, err := h.svc.RemoveItem(c.Request.Context(), middleware.GetPrincipal(c), userID, productID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

func (h *CartHandler) Clear(c *gin.Context) {
	userID, ok := uuidParam(c, "userId")
	if !ok {
		return
	}
	if err := h.svc.Clear(c.Request.Context(), middleware.GetPrincipal(c), userID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "cart cleared"})
}
