package dto

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nilantra/furniture-api/internal/model"
)

func decodeInput(t *testing.T, body string) ProductInput {
	t.Helper()
	var in ProductInput
	require.NoError(t, json.Unmarshal([]byte(body), &in))
	return in
}

func TestToDraft_MissingRequiredFields(t *testing.T) {
	in := decodeInput(t, `{"name": "  ", "subCategory": "Sofas"}`)
	_, err := in.ToDraft()
	require.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "name")
	assert.Contains(t, err.Error(), "mainCategory")
	assert.NotContains(t, err.Error(), "subCategory")
}

func TestToDraft_JSONAndFormAgree(t *testing.T) {
	fromJSON := decodeInput(t, `{
		"name": "Oak Sofa", "mainCategory": "Living Room", "subCategory": "Sofas",
		"price": 1200.50, "offerPrice": "999", "stock": 4,
		"colors": ["red", " blue ", ""], "seat": [2, "3", "x"],
		"dimensions": {"length": 200, "width": "90"},
		"isFeatured": true, "isBestSeller": "false"
	}`)
	fromForm, err := ProductInputFromForm(map[string][]string{
		"name":         {"Oak Sofa"},
		"mainCategory": {"Living Room"},
		"subCategory":  {"Sofas"},
		"price":        {"1200.50"},
		"offerPrice":   {"999"},
		"stock":        {"4"},
		"colors":       {"red, blue,"},
		"seat":         {"2,3,x"},
		"dimensions":   {`{"length": "200", "width": 90}`},
		"isFeatured":   {"TRUE"},
		"isBestSeller": {"false"},
	})
	require.NoError(t, err)

	for name, in := range map[string]ProductInput{"json": fromJSON, "form": fromForm} {
		d, err := in.ToDraft()
		require.NoError(t, err, name)
		assert.Equal(t, "Oak Sofa", d.Name, name)
		assert.True(t, decimal.RequireFromString("1200.5").Equal(d.Price), name)
		assert.True(t, d.OfferPrice.Valid, name)
		assert.True(t, decimal.NewFromInt(999).Equal(d.OfferPrice.Decimal), name)
		assert.Equal(t, 4, d.Stock, name)
		assert.Equal(t, []string{"red", "blue"}, d.Colors, name)
		assert.Equal(t, []float64{2, 3}, d.Seat, name)
		assert.Equal(t, model.Dimensions{Length: "200", Width: "90"}, d.Dimensions, name)
		assert.True(t, d.IsFeatured, name)
		assert.False(t, d.IsBestSeller, name)
		assert.True(t, d.IsActive, name)
	}
}

func TestToDraft_IsActiveDefaultsToTrue(t *testing.T) {
	in := decodeInput(t, `{"name": "A", "mainCategory": "B", "subCategory": "C"}`)
	d, err := in.ToDraft()
	require.NoError(t, err)
	assert.True(t, d.IsActive)
	assert.Empty(t, d.Colors)
	assert.NotNil(t, d.Colors)

	in = decodeInput(t, `{"name": "A", "mainCategory": "B", "subCategory": "C", "isActive": "false"}`)
	d, err = in.ToDraft()
	require.NoError(t, err)
	assert.False(t, d.IsActive)
}

func TestToDraft_RejectsBadNumbers(t *testing.T) {
	cases := map[string]string{
		"price":    `{"name": "A", "mainCategory": "B", "subCategory": "C", "price": "cheap"}`,
		"negative": `{"name": "A", "mainCategory": "B", "subCategory": "C", "price": -1}`,
		"stock":    `{"name": "A", "mainCategory": "B", "subCategory": "C", "stock": "2.5"}`,
		"huge":     `{"name": "A", "mainCategory": "B", "subCategory": "C", "stock": "9223372036854775808"}`,
		"flag":     `{"name": "A", "mainCategory": "B", "subCategory": "C", "isFeatured": "maybe"}`,
	}
	for name, body := range cases {
		in := decodeInput(t, body)
		_, err := in.ToDraft()
		assert.ErrorIs(t, err, ErrInvalidInput, name)
	}
}

func TestToPatch_StockOutOfRange(t *testing.T) {
	in := decodeInput(t, `{"stock": 9223372036854775808}`)
	_, err := in.ToPatch()
	require.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "stock is out of range")

	in = decodeInput(t, `{"stock": "2147483647"}`)
	p, err := in.ToPatch()
	require.NoError(t, err)
	assert.Equal(t, math.MaxInt32, *p.Stock)
}

func TestToDraft_ZeroOfferMeansNoOffer(t *testing.T) {
	in := decodeInput(t, `{"name": "A", "mainCategory": "B", "subCategory": "C", "offerPrice": 0}`)
	d, err := in.ToDraft()
	require.NoError(t, err)
	assert.False(t, d.OfferPrice.Valid)
}

func TestToPatch_OnlySentFields(t *testing.T) {
	in := decodeInput(t, `{"price": "10", "isActive": false, "vendor": "someone-else", "name": ""}`)
	p, err := in.ToPatch()
	require.NoError(t, err)
	require.NotNil(t, p.Price)
	assert.True(t, decimal.NewFromInt(10).Equal(*p.Price))
	require.NotNil(t, p.IsActive)
	assert.False(t, *p.IsActive)
	assert.Nil(t, p.Name)
	assert.Nil(t, p.IsFeatured)
	assert.Nil(t, p.Colors)
	assert.Nil(t, p.KeepImages)
}

func TestToPatch_Images(t *testing.T) {
	in, err := ProductInputFromForm(map[string][]string{
		"existingImages": {"/uploads/products/a.jpg", "/uploads/products/b.jpg"},
	})
	require.NoError(t, err)
	in.Images = []string{"/uploads/products/c.jpg"}

	p, err := in.ToPatch()
	require.NoError(t, err)
	require.NotNil(t, p.KeepImages)
	assert.Equal(t, []string{"/uploads/products/a.jpg", "/uploads/products/b.jpg"}, *p.KeepImages)
	assert.Equal(t, []string{"/uploads/products/c.jpg"}, p.NewImages)
}

func TestProductInputFromForm_BadDimensions(t *testing.T) {
	_, err := ProductInputFromForm(map[string][]string{"dimensions": {"{not json"}})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestParseList(t *testing.T) {
	assert.Equal(t, List{"a", "b", "c"}, ParseList("a, b", " c ,"))
	assert.Equal(t, List{"x", "y"}, ParseList(`["x", "y"]`))
	assert.Equal(t, List{}, ParseList("", " , "))
}

func TestListFloats_DropsUnparsable(t *testing.T) {
	assert.Equal(t, []float64{1, 2.5}, List{"1", "two", "2.5"}.Floats())
}

func TestListProductsRequest_ToFilter(t *testing.T) {
	f, err := ListProductsRequest{Category: "living-room", Featured: "true", HasOffer: "0"}.ToFilter()
	require.NoError(t, err)
	assert.Equal(t, "living-room", f.Category)
	require.NotNil(t, f.Featured)
	assert.True(t, *f.Featured)
	require.NotNil(t, f.HasOffer)
	assert.False(t, *f.HasOffer)
	assert.Nil(t, f.Active)

	_, err = ListProductsRequest{Vendor: "nope"}.ToFilter()
	assert.ErrorIs(t, err, ErrInvalidInput)
}
