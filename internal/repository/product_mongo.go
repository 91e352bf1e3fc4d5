package repository

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/nilantra/furniture-api/internal/model"
)

type productDoc struct {
	ID           string                `bson:"_id"`
	Name         string                `bson:"name"`
	Slug         string                `bson:"slug"`
	Description  string                `bson:"description"`
	MainCategory string                `bson:"main_category"`
	SubCategory  string                `bson:"sub_category"`
	Price        primitive.Decimal128  `bson:"price"`
	OfferPrice   *primitive.Decimal128 `bson:"offer_price,omitempty"`
	Material     string                `bson:"material"`
	Dimensions   model.Dimensions      `bson:"dimensions"`
	Colors       []string              `bson:"colors"`
	Seat         []float64             `bson:"seat"`
	Images       []string              `bson:"images"`
	Stock        int                   `bson:"stock"`
	IsFeatured   bool                  `bson:"is_featured"`
	IsBestSeller bool                  `bson:"is_best_seller"`
	IsActive     bool                  `bson:"is_active"`
	VendorID     string                `bson:"vendor_id"`
	CreatedAt    time.Time             `bson:"created_at"`
	UpdatedAt    time.Time             `bson:"updated_at"`
}

func newProductDoc(p *model.Product) productDoc {
	d := productDoc{
		ID:           p.ID.String(),
		Name:         p.Name,
		Slug:         p.Slug,
		Description:  p.Description,
		MainCategory: p.MainCategory,
		SubCategory:  p.SubCategory,
		Price:        toDecimal128(p.Price),
		Material:     p.Material,
		Dimensions:   p.Dimensions,
		Colors:       nonNil(p.Colors),
		Seat:         nonNilFloats(p.Seat),
		Images:       nonNil(p.Images),
		Stock:        p.Stock,
		IsFeatured:   p.IsFeatured,
		IsBestSeller: p.IsBestSeller,
		IsActive:     p.IsActive,
		VendorID:     p.VendorID.String(),
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
	if p.OfferPrice.Valid {
		v := toDecimal128(p.OfferPrice.Decimal)
		d.OfferPrice = &v
	}
	return d
}

func (d productDoc) toModel() model.Product {
	p := model.Product{
		ID:           parseID(d.ID),
		Name:         d.Name,
		Slug:         d.Slug,
		Description:  d.Description,
		MainCategory: d.MainCategory,
		SubCategory:  d.SubCategory,
		Price:        fromDecimal128(d.Price),
		Material:     d.Material,
		Dimensions:   d.Dimensions,
		Colors:       d.Colors,
		Seat:         d.Seat,
		Images:       d.Images,
		Stock:        d.Stock,
		IsFeatured:   d.IsFeatured,
		IsBestSeller: d.IsBestSeller,
		IsActive:     d.IsActive,
		VendorID:     parseID(d.VendorID),
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
	if d.OfferPrice != nil {
		p.OfferPrice = decimal.NewNullDecimal(fromDecimal128(*d.OfferPrice))
	}
	return p
}

type mongoProductRepo struct{ coll *mongo.Collection }

func NewMongoProductRepository(db *mongo.Database) ProductRepository {
	return &mongoProductRepo{coll: db.Collection(productsCollection)}
}

func (r *mongoProductRepo) Create(ctx context.Context, p *model.Product) error {
	now := time.Now().UTC()
	p.ID = uuid.New()
	p.CreatedAt, p.UpdatedAt = now, now
	if _, err := r.coll.InsertOne(ctx, newProductDoc(p)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create product: %w", err)
	}
	return nil
}

func (r *mongoProductRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var doc productDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc); err != nil {
		if isNoDocuments(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	p := doc.toModel()
	return &p, nil
}

func (r *mongoProductRepo) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": uuidStrings(ids)}})
}

func (r *mongoProductRepo) SlugExists(ctx context.Context, slug string, exclude uuid.UUID) (bool, error) {
	n, err := r.coll.CountDocuments(ctx,
		bson.M{"slug": slug, "_id": bson.M{"$ne": exclude.String()}},
		options.Count().SetLimit(1),
	)
	if err != nil {
		return false, fmt.Errorf("check slug: %w", err)
	}
	return n > 0, nil
}

// categoryPattern matches a stored category whose normalized form equals
// the normalized query, whatever separators the stored value uses.
func categoryPattern(value string) primitive.Regex {
	words := strings.Fields(NormalizeCategory(value))
	for i, w := range words {
		words[i] = regexp.QuoteMeta(w)
	}
	return primitive.Regex{
		Pattern: `^[-_\s]*` + strings.Join(words, `[-_\s]+`) + `[-_\s]*$`,
		Options: "i",
	}
}

func (r *mongoProductRepo) List(ctx context.Context, f model.ProductFilter) ([]model.Product, error) {
	filter := bson.M{}
	if f.MainCategory != "" {
		filter["main_category"] = categoryPattern(f.MainCategory)
	}
	if f.SubCategory != "" {
		filter["sub_category"] = categoryPattern(f.SubCategory)
	}
	if f.Category != "" {
		pattern := categoryPattern(f.Category)
		filter["$or"] = bson.A{
			bson.M{"main_category": pattern},
			bson.M{"sub_category": pattern},
		}
	}
	if f.Featured != nil {
		filter["is_featured"] = *f.Featured
	}
	if f.BestSeller != nil {
		filter["is_best_seller"] = *f.BestSeller
	}
	if f.HasOffer != nil {
		if *f.HasOffer {
			filter["offer_price"] = bson.M{"$gt": 0}
		} else {
			filter["offer_price"] = bson.M{"$not": bson.M{"$gt": 0}}
		}
	}
	if f.Active != nil {
		filter["is_active"] = *f.Active
	}
	if f.VendorID != nil {
		filter["vendor_id"] = f.VendorID.String()
	}
	return r.find(ctx, filter)
}

func (r *mongoProductRepo) find(ctx context.Context, filter bson.M) ([]model.Product, error) {
	cur, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	var docs []productDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	products := make([]model.Product, len(docs))
	for i, d := range docs {
		products[i] = d.toModel()
	}
	return products, nil
}

func (r *mongoProductRepo) Update(ctx context.Context, p *model.Product) error {
	p.UpdatedAt = time.Now().UTC()
	doc := newProductDoc(p)
	set := bson.M{
		"name":           doc.Name,
		"slug":           doc.Slug,
		"description":    doc.Description,
		"main_category":  doc.MainCategory,
		"sub_category":   doc.SubCategory,
		"price":          doc.Price,
		"material":       doc.Material,
		"dimensions":     doc.Dimensions,
		"colors":         doc.Colors,
		"seat":           doc.Seat,
		"images":         doc.Images,
		"is_featured":    doc.IsFeatured,
		"is_best_seller": doc.IsBestSeller,
		"is_active":      doc.IsActive,
		"updated_at":     doc.UpdatedAt,
	}
	update := bson.M{"$set": set}
	if doc.OfferPrice != nil {
		set["offer_price"] = *doc.OfferPrice
	} else {
		update["$unset"] = bson.M{"offer_price": ""}
	}

	var updated productDoc
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": doc.ID}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After).SetProjection(bson.M{"stock": 1}),
	).Decode(&updated)
	if err != nil {
		if isNoDocuments(err) {
			return ErrNotFound
		}
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("update product: %w", err)
	}
	p.Stock = updated.Stock
	return nil
}

func (r *mongoProductRepo) SetStock(ctx context.Context, id uuid.UUID, stock int) error {
	res, err := r.coll.UpdateByID(ctx, id.String(), bson.M{
		"$set": bson.M{"stock": stock, "updated_at": time.Now().UTC()},
	})
	if err != nil {
		return fmt.Errorf("set stock: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoProductRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoProductRepo) DecrementStock(ctx context.Context, id uuid.UUID, quantity int) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id.String(), "stock": bson.M{"$gte": quantity}},
		bson.M{
			"$inc": bson.M{"stock": -quantity},
			"$set": bson.M{"updated_at": time.Now().UTC()},
		},
	)
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("product %s: %w", id, ErrInsufficientStock)
	}
	return nil
}

func (r *mongoProductRepo) IncrementStock(ctx context.Context, id uuid.UUID, quantity int) error {
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id.String()},
		bson.M{
			"$inc": bson.M{"stock": quantity},
			"$set": bson.M{"updated_at": time.Now().UTC()},
		},
	)
	if err != nil {
		return fmt.Errorf("increment stock: %w", err)
	}
	return nil
}
