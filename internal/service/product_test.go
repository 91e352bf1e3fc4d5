package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nilantra/furniture-api/internal/dto"
	"github.com/nilantra/furniture-api/internal/model"
)

func productInput(t *testing.T, body string) dto.ProductInput {
	t.Helper()
	var in dto.ProductInput
	require.NoError(t, json.Unmarshal([]byte(body), &in))
	return in
}

func TestProductService_Create(t *testing.T) {
	svc := NewProductService(newMockProductRepo(), nil, nil)
	vendor := principal(model.RoleVendor)

	resp, err := svc.Create(context.Background(), vendor, productInput(t,
		`{"name": "Oak Sofa", "mainCategory": "Living Room", "subCategory": "Sofas", "price": "499.99", "vendor": "ignored"}`))
	require.NoError(t, err)
	assert.Equal(t, "oak-sofa", resp.Slug)
	assert.Equal(t, vendor.ID, resp.VendorID)
	assert.True(t, resp.IsActive)
	assert.True(t, decimal.RequireFromString("499.99").Equal(resp.Price))
}

func TestProductService_Create_SameNameGetsDistinctSlug(t *testing.T) {
	svc := NewProductService(newMockProductRepo(), nil, nil)
	vendor := principal(model.RoleVendor)
	body := `{"name": "Oak Sofa", "mainCategory": "Living Room", "subCategory": "Sofas"}`

	first, err := svc.Create(context.Background(), vendor, productInput(t, body))
	require.NoError(t, err)
	second, err := svc.Create(context.Background(), vendor, productInput(t, body))
	require.NoError(t, err)
	assert.NotEqual(t, first.Slug, second.Slug)
}

func TestProductService_Create_Validation(t *testing.T) {
	svc := NewProductService(newMockProductRepo(), nil, nil)
	_, err := svc.Create(context.Background(), principal(model.RoleVendor), productInput(t, `{"name": "Sofa"}`))
	require.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "mainCategory")
}

func TestProductService_Create_RequiresVendorOrAdmin(t *testing.T) {
	svc := NewProductService(newMockProductRepo(), nil, nil)
	body := `{"name": "Sofa", "mainCategory": "A", "subCategory": "B"}`

	_, err := svc.Create(context.Background(), principal(model.RoleUser), productInput(t, body))
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Create(context.Background(), principal(model.RoleAdmin), productInput(t, body))
	assert.NoError(t, err)
}

func TestProductService_Update_OwnershipAndVendorImmutable(t *testing.T) {
	repo := newMockProductRepo()
	svc := NewProductService(repo, nil, nil)
	owner := principal(model.RoleVendor)
	p := repo.add(model.Product{Name: "Sofa", Slug: "sofa", VendorID: owner.ID, IsActive: true, IsFeatured: true})

	_, err := svc.Update(context.Background(), principal(model.RoleVendor), p.ID, productInput(t, `{"price": 10}`))
	assert.ErrorIs(t, err, ErrForbidden)

	resp, err := svc.Update(context.Background(), owner, p.ID, productInput(t, `{"price": 10, "vendor": "someone"}`))
	require.NoError(t, err)
	assert.Equal(t, owner.ID, resp.VendorID)
	assert.True(t, decimal.NewFromInt(10).Equal(resp.Price))
	// Unsent flags keep their stored values.
	assert.True(t, resp.IsActive)
	assert.True(t, resp.IsFeatured)

	_, err = svc.Update(context.Background(), principal(model.RoleAdmin), p.ID, productInput(t, `{"isActive": "false"}`))
	require.NoError(t, err)
	stored, _ := repo.GetByID(context.Background(), p.ID)
	assert.False(t, stored.IsActive)
}

func TestProductService_Update_RenameRegeneratesSlug(t *testing.T) {
	repo := newMockProductRepo()
	svc := NewProductService(repo, nil, nil)
	owner := principal(model.RoleVendor)
	p := repo.add(model.Product{Name: "Sofa", Slug: "sofa", VendorID: owner.ID, IsActive: true})
	repo.add(model.Product{Name: "Corner Sofa", Slug: "corner-sofa", IsActive: true})

	resp, err := svc.Update(context.Background(), owner, p.ID, productInput(t, `{"name": "Corner Sofa"}`))
	require.NoError(t, err)
	assert.NotEqual(t, "corner-sofa", resp.Slug)
	assert.Contains(t, resp.Slug, "corner-sofa-")
}

func TestProductService_Update_Images(t *testing.T) {
	repo := newMockProductRepo()
	remover := &recordingRemover{}
	svc := NewProductService(repo, nil, remover)
	owner := principal(model.RoleVendor)
	p := repo.add(model.Product{Name: "Sofa", VendorID: owner.ID, Images: []string{"/a.jpg", "/b.jpg"}})

	in := productInput(t, `{"existingImages": ["/b.jpg", "/evil.jpg"]}`)
	in.Images = []string{"/c.jpg"}
	resp, err := svc.Update(context.Background(), owner, p.ID, in)
	require.NoError(t, err)
	assert.Equal(t, []string{"/b.jpg", "/c.jpg"}, resp.Images)
	assert.Equal(t, []string{"/a.jpg"}, remover.removed)

	in = productInput(t, `{}`)
	in.Images = []string{"/d.jpg"}
	resp, err = svc.Update(context.Background(), owner, p.ID, in)
	require.NoError(t, err)
	assert.Equal(t, []string{"/b.jpg", "/c.jpg", "/d.jpg"}, resp.Images)
	assert.Equal(t, []string{"/a.jpg"}, remover.removed)

	require.NoError(t, svc.Delete(context.Background(), owner, p.ID))
	assert.Equal(t, []string{"/a.jpg", "/b.jpg", "/c.jpg", "/d.jpg"}, remover.removed)
}

func TestProductService_Update_ClearOffer(t *testing.T) {
	repo := newMockProductRepo()
	svc := NewProductService(repo, nil, nil)
	owner := principal(model.RoleVendor)
	p := repo.add(model.Product{Name: "Sofa", VendorID: owner.ID, Price: decimal.NewFromInt(100),
		OfferPrice: decimal.NewNullDecimal(decimal.NewFromInt(80))})

	resp, err := svc.Update(context.Background(), owner, p.ID, productInput(t, `{"offerPrice": 0}`))
	require.NoError(t, err)
	assert.Nil(t, resp.OfferPrice)
}

// reservingProductRepo takes stock between the read and the write of an
// update, the way the order worker can.
type reservingProductRepo struct {
	*mockProductRepo
	reserve int
}

func (r *reservingProductRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	p, err := r.mockProductRepo.GetByID(ctx, id)
	if err == nil && p != nil && r.reserve > 0 {
		if err := r.DecrementStock(ctx, id, r.reserve); err != nil {
			return nil, err
		}
	}
	return p, err
}

func TestProductService_Update_KeepsConcurrentReservation(t *testing.T) {
	repo := &reservingProductRepo{mockProductRepo: newMockProductRepo(), reserve: 3}
	svc := NewProductService(repo, nil, nil)
	owner := principal(model.RoleVendor)
	p := repo.add(model.Product{Name: "Sofa", VendorID: owner.ID, Price: decimal.NewFromInt(100), Stock: 10})

	resp, err := svc.Update(context.Background(), owner, p.ID, productInput(t, `{"description": "Deep seat"}`))
	require.NoError(t, err)
	assert.Equal(t, 7, resp.Stock)

	stored, _ := repo.mockProductRepo.GetByID(context.Background(), p.ID)
	assert.Equal(t, 7, stored.Stock)
	assert.Equal(t, "Deep seat", stored.Description)
}

func TestProductService_Update_SetsStock(t *testing.T) {
	repo := newMockProductRepo()
	svc := NewProductService(repo, nil, nil)
	owner := principal(model.RoleVendor)
	p := repo.add(model.Product{Name: "Sofa", VendorID: owner.ID, Price: decimal.NewFromInt(100), Stock: 10})

	resp, err := svc.Update(context.Background(), owner, p.ID, productInput(t, `{"stock": "25"}`))
	require.NoError(t, err)
	assert.Equal(t, 25, resp.Stock)

	stored, _ := repo.GetByID(context.Background(), p.ID)
	assert.Equal(t, 25, stored.Stock)
}

func TestProductService_Delete(t *testing.T) {
	repo := newMockProductRepo()
	svc := NewProductService(repo, nil, nil)
	owner := principal(model.RoleVendor)
	p := repo.add(model.Product{Name: "Sofa", VendorID: owner.ID})

	assert.ErrorIs(t, svc.Delete(context.Background(), principal(model.RoleUser), p.ID), ErrForbidden)
	require.NoError(t, svc.Delete(context.Background(), owner, p.ID))
	assert.ErrorIs(t, svc.Delete(context.Background(), owner, p.ID), ErrNotFound)
}

func TestProductService_List_InactiveVisibility(t *testing.T) {
	repo := newMockProductRepo()
	svc := NewProductService(repo, nil, nil)
	repo.add(model.Product{Name: "Active", IsActive: true})
	repo.add(model.Product{Name: "Hidden", IsActive: false})

	anon, err := svc.List(context.Background(), nil, dto.ListProductsRequest{})
	require.NoError(t, err)
	require.Len(t, anon, 1)
	assert.Equal(t, "Active", anon[0].Name)

	user := principal(model.RoleUser)
	asUser, err := svc.List(context.Background(), &user, dto.ListProductsRequest{IsActive: "false"})
	require.NoError(t, err)
	require.Len(t, asUser, 1)
	assert.Equal(t, "Active", asUser[0].Name)

	admin := principal(model.RoleAdmin)
	asAdmin, err := svc.List(context.Background(), &admin, dto.ListProductsRequest{})
	require.NoError(t, err)
	assert.Len(t, asAdmin, 2)

	onlyHidden, err := svc.List(context.Background(), &admin, dto.ListProductsRequest{IsActive: "false"})
	require.NoError(t, err)
	require.Len(t, onlyHidden, 1)
	assert.Equal(t, "Hidden", onlyHidden[0].Name)
}

func TestProductService_GetByID_HidesInactive(t *testing.T) {
	repo := newMockProductRepo()
	svc := NewProductService(repo, nil, nil)
	owner := principal(model.RoleVendor)
	p := repo.add(model.Product{Name: "Hidden", VendorID: owner.ID})

	_, err := svc.GetByID(context.Background(), nil, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	resp, err := svc.GetByID(context.Background(), &owner, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hidden", resp.Name)

	_, err = svc.GetByID(context.Background(), nil, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProductService_Catalog_AdminOnly(t *testing.T) {
	repo := newMockProductRepo()
	svc := NewProductService(repo, nil, nil)
	repo.add(model.Product{Name: "A"})

	_, err := svc.Catalog(context.Background(), principal(model.RoleVendor))
	assert.ErrorIs(t, err, ErrForbidden)

	all, err := svc.Catalog(context.Background(), principal(model.RoleAdmin))
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
