package dto

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nilantra/furniture-api/internal/model"
)

// ProductInput is the raw product payload from JSON or multipart forms.
// A vendor field, if a client sends one, has nowhere to land.
type ProductInput struct {
	Name           *Text       `json:"name"`
	Description    *Text       `json:"description"`
	MainCategory   *Text       `json:"mainCategory"`
	SubCategory    *Text       `json:"subCategory"`
	Price          *Text       `json:"price"`
	OfferPrice     *Text       `json:"offerPrice"`
	Material       *Text       `json:"material"`
	Stock          *Text       `json:"stock"`
	Dimensions     *Dimensions `json:"dimensions"`
	Colors         *List       `json:"colors"`
	Seat           *List       `json:"seat"`
	IsFeatured     *Text       `json:"isFeatured"`
	IsBestSeller   *Text       `json:"isBestSeller"`
	IsActive       *Text       `json:"isActive"`
	ExistingImages *List       `json:"existingImages"`

	// Images holds references of files uploaded with this request.
	Images []string `json:"-"`
}

// ToDraft validates a creation payload.
func (in *ProductInput) ToDraft() (model.ProductDraft, error) {
	var missing []string
	if in.Name.IsBlank() {
		missing = append(missing, "name")
	}
	if in.MainCategory.IsBlank() {
		missing = append(missing, "mainCategory")
	}
	if in.SubCategory.IsBlank() {
		missing = append(missing, "subCategory")
	}
	if len(missing) > 0 {
		return model.ProductDraft{}, invalid("missing fields: %s", strings.Join(missing, ", "))
	}

	d := model.ProductDraft{
		Name:         in.Name.String(),
		Description:  in.Description.String(),
		MainCategory: in.MainCategory.String(),
		SubCategory:  in.SubCategory.String(),
		Material:     in.Material.String(),
		Colors:       []string{},
		Seat:         []float64{},
		Images:       in.Images,
		IsActive:     true,
	}

	var err error
	if !in.Price.IsBlank() {
		if d.Price, err = in.Price.Decimal("price"); err != nil {
			return model.ProductDraft{}, err
		}
	}
	if !in.OfferPrice.IsBlank() {
		offer, err := in.OfferPrice.Decimal("offerPrice")
		if err != nil {
			return model.ProductDraft{}, err
		}
		if offer.IsPositive() {
			d.OfferPrice = decimal.NewNullDecimal(offer)
		}
	}
	if !in.Stock.IsBlank() {
		if d.Stock, err = in.Stock.Int("stock"); err != nil {
			return model.ProductDraft{}, err
		}
	}
	if in.Dimensions != nil {
		d.Dimensions = model.Dimensions(*in.Dimensions)
	}
	if in.Colors != nil {
		d.Colors = []string(*in.Colors)
	}
	if in.Seat != nil {
		d.Seat = in.Seat.Floats()
	}
	if !in.IsFeatured.IsBlank() {
		if d.IsFeatured, err = in.IsFeatured.Bool("isFeatured"); err != nil {
			return model.ProductDraft{}, err
		}
	}
	if !in.IsBestSeller.IsBlank() {
		if d.IsBestSeller, err = in.IsBestSeller.Bool("isBestSeller"); err != nil {
			return model.ProductDraft{}, err
		}
	}
	if !in.IsActive.IsBlank() {
		if d.IsActive, err = in.IsActive.Bool("isActive"); err != nil {
			return model.ProductDraft{}, err
		}
	}
	return d, nil
}

// ToPatch validates an update payload. Omitted or blank scalars keep the
// stored value; lists and dimensions replace it whenever present.
func (in *ProductInput) ToPatch() (model.ProductPatch, error) {
	var p model.ProductPatch
	text := func(t *Text) *string {
		if t.IsBlank() {
			return nil
		}
		s := t.String()
		return &s
	}
	p.Name = text(in.Name)
	p.Description = text(in.Description)
	p.MainCategory = text(in.MainCategory)
	p.SubCategory = text(in.SubCategory)
	p.Material = text(in.Material)

	if !in.Price.IsBlank() {
		v, err := in.Price.Decimal("price")
		if err != nil {
			return p, err
		}
		p.Price = &v
	}
	if !in.OfferPrice.IsBlank() {
		v, err := in.OfferPrice.Decimal("offerPrice")
		if err != nil {
			return p, err
		}
		p.OfferPrice = &v
	}
	if !in.Stock.IsBlank() {
		v, err := in.Stock.Int("stock")
		if err != nil {
			return p, err
		}
		p.Stock = &v
	}
	if in.Dimensions != nil {
		dims := model.Dimensions(*in.Dimensions)
		p.Dimensions = &dims
	}
	if in.Colors != nil {
		colors := []string(*in.Colors)
		p.Colors = &colors
	}
	if in.Seat != nil {
		seat := in.Seat.Floats()
		p.Seat = &seat
	}

	flags := []struct {
		in    *Text
		out   **bool
		field string
	}{
		{in.IsFeatured, &p.IsFeatured, "isFeatured"},
		{in.IsBestSeller, &p.IsBestSeller, "isBestSeller"},
		{in.IsActive, &p.IsActive, "isActive"},
	}
	for _, f := range flags {
		if f.in.IsBlank() {
			continue
		}
		v, err := f.in.Bool(f.field)
		if err != nil {
			return p, err
		}
		*f.out = &v
	}

	if in.ExistingImages != nil {
		keep := []string(*in.ExistingImages)
		p.KeepImages = &keep
	}
	p.NewImages = in.Images
	return p, nil
}

// ListProductsRequest binds the catalog query string. Boolean facets take
// the same spellings as product flags.
type ListProductsRequest struct {
	MainCategory string `form:"mainCategory"`
	SubCategory  string `form:"subCategory"`
	Category     string `form:"category"`
	Featured     string `form:"featured"`
	BestSeller   string `form:"bestSeller"`
	HasOffer     string `form:"hasOffer"`
	IsActive     string `form:"isActive"`
	Vendor       string `form:"vendor"`
}

func (r ListProductsRequest) ToFilter() (model.ProductFilter, error) {
	f := model.ProductFilter{
		MainCategory: strings.TrimSpace(r.MainCategory),
		SubCategory:  strings.TrimSpace(r.SubCategory),
		Category:     strings.TrimSpace(r.Category),
	}
	facets := []struct {
		raw   string
		out   **bool
		field string
	}{
		{r.Featured, &f.Featured, "featured"},
		{r.BestSeller, &f.BestSeller, "bestSeller"},
		{r.HasOffer, &f.HasOffer, "hasOffer"},
		{r.IsActive, &f.Active, "isActive"},
	}
	for _, facet := range facets {
		t := Text(facet.raw)
		if t.IsBlank() {
			continue
		}
		v, err := t.Bool(facet.field)
		if err != nil {
			return f, err
		}
		*facet.out = &v
	}
	if v := strings.TrimSpace(r.Vendor); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return f, invalid("vendor must be an id")
		}
		f.VendorID = &id
	}
	return f, nil
}

type ProductResponse struct {
	ID           uuid.UUID        `json:"id"`
	Name         string           `json:"name"`
	Slug         string           `json:"slug"`
	Description  string           `json:"description"`
	MainCategory string           `json:"mainCategory"`
	SubCategory  string           `json:"subCategory"`
	Price        decimal.Decimal  `json:"price"`
	OfferPrice   *decimal.Decimal `json:"offerPrice,omitempty"`
	Material     string           `json:"material"`
	Dimensions   model.Dimensions `json:"dimensions"`
	Colors       []string         `json:"colors"`
	Seat         []float64        `json:"seat"`
	Images       []string         `json:"images"`
	Stock        int              `json:"stock"`
	IsFeatured   bool             `json:"isFeatured"`
	IsBestSeller bool             `json:"isBestSeller"`
	IsActive     bool             `json:"isActive"`
	VendorID     uuid.UUID        `json:"vendor"`
	CreatedAt    time.Time        `json:"createdAt"`
	UpdatedAt    time.Time        `json:"updatedAt"`
}

func NewProductResponse(p *model.Product) ProductResponse {
	resp := ProductResponse{
		ID:           p.ID,
		Name:         p.Name,
		Slug:         p.Slug,
		Description:  p.Description,
		MainCategory: p.MainCategory,
		SubCategory:  p.SubCategory,
		Price:        p.Price,
		Material:     p.Material,
		Dimensions:   p.Dimensions,
		Colors:       orEmpty(p.Colors),
		Seat:         p.Seat,
		Images:       orEmpty(p.Images),
		Stock:        p.Stock,
		IsFeatured:   p.IsFeatured,
		IsBestSeller: p.IsBestSeller,
		IsActive:     p.IsActive,
		VendorID:     p.VendorID,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
	if resp.Seat == nil {
		resp.Seat = []float64{}
	}
	if p.HasOffer() {
		offer := p.OfferPrice.Decimal
		resp.OfferPrice = &offer
	}
	return resp
}

// ToModel rebuilds a product from its cached representation.
func (r ProductResponse) ToModel() model.Product {
	p := model.Product{
		ID:           r.ID,
		Name:         r.Name,
		Slug:         r.Slug,
		Description:  r.Description,
		MainCategory: r.MainCategory,
		SubCategory:  r.SubCategory,
		Price:        r.Price,
		Material:     r.Material,
		Dimensions:   r.Dimensions,
		Colors:       r.Colors,
		Seat:         r.Seat,
		Images:       r.Images,
		Stock:        r.Stock,
		IsFeatured:   r.IsFeatured,
		IsBestSeller: r.IsBestSeller,
		IsActive:     r.IsActive,
		VendorID:     r.VendorID,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	if r.OfferPrice != nil {
		p.OfferPrice = decimal.NewNullDecimal(*r.OfferPrice)
	}
	return p
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// ProductInputFromForm maps multipart form values onto the same payload a
// JSON client would send.
func ProductInputFromForm(form map[string][]string) (ProductInput, error) {
	var in ProductInput
	text := func(key string) *Text {
		values, ok := form[key]
		if !ok || len(values) == 0 {
			return nil
		}
		t := Text(values[0])
		return &t
	}
	list := func(key string) *List {
		values, ok := form[key]
		if !ok {
			return nil
		}
		l := ParseList(values...)
		return &l
	}

	in.Name = text("name")
	in.Description = text("description")
	in.MainCategory = text("mainCategory")
	in.SubCategory = text("subCategory")
	in.Price = text("price")
	in.OfferPrice = text("offerPrice")
	in.Material = text("material")
	in.Stock = text("stock")
	in.IsFeatured = text("isFeatured")
	in.IsBestSeller = text("isBestSeller")
	in.IsActive = text("isActive")
	in.Colors = list("colors")
	in.Seat = list("seat")
	in.ExistingImages = list("existingImages")

	if raw := text("dimensions"); raw != nil {
		d, err := ParseDimensions(raw.String())
		if err != nil {
			return in, err
		}
		in.Dimensions = &d
	}
	return in, nil
}
