package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/nilantra/furniture-api/internal/dto"
	"github.com/nilantra/furniture-api/internal/service"
	"github.com/nilantra/furniture-api/internal/storage"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, dto.ErrInvalidInput),
		errors.Is(err, storage.ErrUnsupportedImage):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrUnauthenticated), errors.Is(err, service.ErrInvalidCredential):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// respondError writes the error body for a failed service call. Store and
// internal failures are logged too; the message goes back either way, as
// the panic recovery does.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "error", err, "method", c.Request.Method, "path", c.FullPath())
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func bindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}
