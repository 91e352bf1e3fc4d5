package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nilantra/furniture-api/internal/cache"
	"github.com/nilantra/furniture-api/internal/dto"
	"github.com/nilantra/furniture-api/internal/model"
	"github.com/nilantra/furniture-api/internal/repository"
)

// ImageRemover deletes stored image files.
type ImageRemover interface {
	Remove(refs ...string)
}

type ProductService struct {
	productRepo repository.ProductRepository
	cache       *cache.ProductCache
	images      ImageRemover
	now         func() time.Time
}

func NewProductService(productRepo repository.ProductRepository, productCache *cache.ProductCache, images ImageRemover) *ProductService {
	return &ProductService{productRepo: productRepo, cache: productCache, images: images, now: time.Now}
}

func (s *ProductService) removeImages(refs []string) {
	if s.images != nil && len(refs) > 0 {
		s.images.Remove(refs...)
	}
}

// droppedImages lists references in before that are absent from after.
func droppedImages(before, after []string) []string {
	kept := make(map[string]bool, len(after))
	for _, ref := range after {
		kept[ref] = true
	}
	var out []string
	for _, ref := range before {
		if !kept[ref] {
			out = append(out, ref)
		}
	}
	return out
}

func (s *ProductService) Create(ctx context.Context, p model.Principal, in dto.ProductInput) (*dto.ProductResponse, error) {
	if !p.Has(model.RoleVendor) {
		return nil, fmt.Errorf("%w: only vendors and admins can create products", ErrForbidden)
	}
	draft, err := in.ToDraft()
	if err != nil {
		return nil, asValidation(err)
	}

	product := &model.Product{
		Name:         draft.Name,
		Description:  draft.Description,
		MainCategory: draft.MainCategory,
		SubCategory:  draft.SubCategory,
		Price:        draft.Price,
		OfferPrice:   draft.OfferPrice,
		Material:     draft.Material,
		Dimensions:   draft.Dimensions,
		Colors:       draft.Colors,
		Seat:         draft.Seat,
		Images:       draft.Images,
		Stock:        draft.Stock,
		IsFeatured:   draft.IsFeatured,
		IsBestSeller: draft.IsBestSeller,
		IsActive:     draft.IsActive,
		VendorID:     p.ID,
	}
	if err := s.saveWithSlug(ctx, product, uuid.Nil, s.productRepo.Create); err != nil {
		return nil, err
	}
	resp := dto.NewProductResponse(product)
	return &resp, nil
}

// saveWithSlug assigns a free slug and retries with a fresh random suffix
// when a concurrent writer claims it first.
func (s *ProductService) saveWithSlug(ctx context.Context, product *model.Product, exclude uuid.UUID, save func(context.Context, *model.Product) error) error {
	slug, err := uniqueSlug(ctx, s.productRepo, product.Name, exclude, s.now())
	if err != nil {
		return err
	}
	product.Slug = slug
	for attempt := 0; attempt < slugAttempts; attempt++ {
		err = save(ctx, product)
		if !errors.Is(err, repository.ErrDuplicateKey) {
			break
		}
		product.Slug = randomSuffix(Slugify(product.Name))
	}
	if err != nil {
		return storeErr("save product", err)
	}
	return nil
}

// load reads through the cache.
func (s *ProductService) load(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	if p, ok := s.cache.Get(ctx, id); ok {
		return p, nil
	}
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, notFound("product")
	}
	s.cache.Set(ctx, product)
	return product, nil
}

// canSeeInactive reports whether viewer may see a hidden product.
func canSeeInactive(viewer *model.Principal, product *model.Product) bool {
	return viewer != nil && viewer.Owns(product.VendorID)
}

func (s *ProductService) GetByID(ctx context.Context, viewer *model.Principal, id uuid.UUID) (*dto.ProductResponse, error) {
	product, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !product.IsActive && !canSeeInactive(viewer, product) {
		return nil, notFound("product")
	}
	resp := dto.NewProductResponse(product)
	return &resp, nil
}

// List applies the isActive filter only for admins; everyone else sees
// active products only.
func (s *ProductService) List(ctx context.Context, viewer *model.Principal, req dto.ListProductsRequest) ([]dto.ProductResponse, error) {
	filter, err := req.ToFilter()
	if err != nil {
		return nil, asValidation(err)
	}
	if viewer == nil || !viewer.IsAdmin() {
		active := true
		filter.Active = &active
	}

	products, err := s.productRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	out := make([]dto.ProductResponse, len(products))
	for i := range products {
		out[i] = dto.NewProductResponse(&products[i])
	}
	return out, nil
}

// Catalog returns every product, active or not, for export.
func (s *ProductService) Catalog(ctx context.Context, p model.Principal) ([]model.Product, error) {
	if !p.IsAdmin() {
		return nil, ErrForbidden
	}
	products, err := s.productRepo.List(ctx, model.ProductFilter{})
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

func (s *ProductService) Update(ctx context.Context, p model.Principal, id uuid.UUID, in dto.ProductInput) (*dto.ProductResponse, error) {
	patch, err := in.ToPatch()
	if err != nil {
		return nil, asValidation(err)
	}

	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, notFound("product")
	}
	if !p.Owns(product.VendorID) {
		return nil, fmt.Errorf("%w: not the owner of this product", ErrForbidden)
	}

	renamed := patch.Name != nil && *patch.Name != product.Name
	previous := product.Images
	applyPatch(product, patch)

	if renamed {
		err = s.saveWithSlug(ctx, product, product.ID, s.productRepo.Update)
	} else if err = s.productRepo.Update(ctx, product); err != nil {
		err = storeErr("update product", err)
	}
	if err != nil {
		return nil, err
	}
	if patch.Stock != nil {
		if err := s.productRepo.SetStock(ctx, id, *patch.Stock); err != nil {
			return nil, storeErr("set stock", err)
		}
		product.Stock = *patch.Stock
	}

	s.cache.Invalidate(ctx, id)
	s.removeImages(droppedImages(previous, product.Images))
	resp := dto.NewProductResponse(product)
	return &resp, nil
}

func applyPatch(product *model.Product, patch model.ProductPatch) {
	setString := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	setString(&product.Name, patch.Name)
	setString(&product.Description, patch.Description)
	setString(&product.MainCategory, patch.MainCategory)
	setString(&product.SubCategory, patch.SubCategory)
	setString(&product.Material, patch.Material)

	if patch.Price != nil {
		product.Price = *patch.Price
	}
	if patch.OfferPrice != nil {
		if patch.OfferPrice.IsPositive() {
			product.OfferPrice = decimal.NewNullDecimal(*patch.OfferPrice)
		} else {
			product.OfferPrice = decimal.NullDecimal{}
		}
	}
	if patch.Stock != nil {
		product.Stock = *patch.Stock
	}
	if patch.Dimensions != nil {
		product.Dimensions = *patch.Dimensions
	}
	if patch.Colors != nil {
		product.Colors = *patch.Colors
	}
	if patch.Seat != nil {
		product.Seat = *patch.Seat
	}
	if patch.IsFeatured != nil {
		product.IsFeatured = *patch.IsFeatured
	}
	if patch.IsBestSeller != nil {
		product.IsBestSeller = *patch.IsBestSeller
	}
	if patch.IsActive != nil {
		product.IsActive = *patch.IsActive
	}
	product.Images = mergeImages(product.Images, patch.KeepImages, patch.NewImages)
}

// mergeImages keeps the requested subset of current references (unknown
// references are ignored) and appends new uploads.
func mergeImages(current []string, keep *[]string, added []string) []string {
	images := current
	if keep != nil {
		stored := make(map[string]bool, len(current))
		for _, ref := range current {
			stored[ref] = true
		}
		images = []string{}
		for _, ref := range *keep {
			if stored[ref] {
				images = append(images, ref)
			}
		}
	}
	if len(added) == 0 {
		return images
	}
	out := make([]string, 0, len(images)+len(added))
	out = append(out, images...)
	return append(out, added...)
}

func (s *ProductService) Delete(ctx context.Context, p model.Principal, id uuid.UUID) error {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return notFound("product")
	}
	if !p.Owns(product.VendorID) {
		return fmt.Errorf("%w: not the owner of this product", ErrForbidden)
	}
	if err := s.productRepo.Delete(ctx, id); err != nil {
		return storeErr("delete product", err)
	}
	s.cache.Invalidate(ctx, id)
	s.removeImages(product.Images)
	return nil
}
