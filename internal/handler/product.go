package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nilantra/furniture-api/internal/dto"
	"github.com/nilantra/furniture-api/internal/export"
	"github.com/nilantra/furniture-api/internal/middleware"
	"github.com/nilantra/furniture-api/internal/model"
	"github.com/nilantra/furniture-api/internal/service"
	"github.com/nilantra/furniture-api/internal/storage"
)

const maxProductImages = 10

type ProductHandler struct {
	svc    *service.ProductService
	images *storage.ImageStore
}

func NewProductHandler(svc *service.ProductService, images *storage.ImageStore) *ProductHandler {
	return &ProductHandler{svc: svc, images: images}
}

func viewer(c *gin.Context) *model.Principal {
	if p, ok := middleware.OptionalPrincipal(c); ok {
		return &p
	}
	return nil
}

// readInput accepts a JSON body or a multipart form with up to
// maxProductImages files under "images". Uploaded files are stored before
// returning; the caller removes them if the request later fails.
func (h *ProductHandler) readInput(c *gin.Context) (dto.ProductInput, error) {
	var in dto.ProductInput
	if !strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		if err := c.ShouldBindJSON(&in); err != nil {
			return in, fmt.Errorf("%w: %v", dto.ErrInvalidInput, err)
		}
		return in, nil
	}

	form, err := c.MultipartForm()
	if err != nil {
		return in, fmt.Errorf("%w: %v", dto.ErrInvalidInput, err)
	}
	in, err = dto.ProductInputFromForm(form.Value)
	if err != nil {
		return in, err
	}
	files := form.File["images"]
	if len(files) > maxProductImages {
		return in, fmt.Errorf("%w: at most %d images per request", dto.ErrInvalidInput, maxProductImages)
	}
	if len(files) > 0 {
		refs, err := h.images.SaveAll(files)
		if err != nil {
			return in, err
		}
		in.Images = refs
	}
	return in, nil
}

func (h *ProductHandler) Create(c *gin.Context) {
	in, err := h.readInput(c)
	if err != nil {
		respondError(c, err)
		return
	}
	resp, err := h.svc.Create(c.Request.Context(), middleware.GetPrincipal(c), in)
	if err != nil {
		h.images.Remove(in.Images...)
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *ProductHandler) GetByID(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.GetByID(c.Request.Context(), viewer(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ProductHandler) List(c *gin.Context) {
	var req dto.ListProductsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}
	resp, err := h.svc.List(c.Request.Context(), viewer(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ProductHandler) Update(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	in, err := h.readInput(c)
	if err != nil {
		respondError(c, err)
		return
	}
	resp, err := h.svc.Update(c.Request.Context(), middleware.GetPrincipal(c), id, in)
	if err != nil {
		h.images.Remove(in.Images...)
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ProductHandler) Delete(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), middleware.GetPrincipal(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "product deleted"})
}

// Export sends the whole catalog as an Excel workbook.
func (h *ProductHandler) Export(c *gin.Context) {
	products, err := h.svc.Catalog(c.Request.Context(), middleware.GetPrincipal(c))
	if err != nil {
		respondError(c, err)
		return
	}
	var buf bytes.Buffer
	if err := export.WriteCatalog(&buf, products); err != nil {
		respondError(c, fmt.Errorf("write catalog: %w", err))
		return
	}
	c.Header("Content-Disposition", "attachment; filename=products.xlsx")
	c.Data(http.StatusOK, export.ContentType, buf.Bytes())
}
