package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/nilantra/furniture-api/internal/model"
)

type reviewDoc struct {
	ID        string    `bson:"_id"`
	ProductID *string   `bson:"product_id"`
	UserID    *string   `bson:"user_id"`
	Name      string    `bson:"name"`
	Rating    int       `bson:"rating"`
	Comment   string    `bson:"comment"`
	Images    []string  `bson:"images"`
	Reply     string    `bson:"reply,omitempty"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func optionalID(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

func parseOptionalID(s *string) *uuid.UUID {
	if s == nil {
		return nil
	}
	id, err := uuid.Parse(*s)
	if err != nil {
		return nil
	}
	return &id
}

func (d reviewDoc) toModel() model.Review {
	return model.Review{
		ID:        parseID(d.ID),
		ProductID: parseOptionalID(d.ProductID),
		UserID:    parseOptionalID(d.UserID),
		Name:      d.Name,
		Rating:    d.Rating,
		Comment:   d.Comment,
		Images:    d.Images,
		Reply:     d.Reply,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

type mongoReviewRepo struct{ coll *mongo.Collection }

func NewMongoReviewRepository(db *mongo.Database) ReviewRepository {
	return &mongoReviewRepo{coll: db.Collection(reviewsCollection)}
}

func (r *mongoReviewRepo) Create(ctx context.Context, rv *model.Review) error {
	now := time.Now().UTC()
	rv.ID = uuid.New()
	rv.CreatedAt, rv.UpdatedAt = now, now
	_, err := r.coll.InsertOne(ctx, reviewDoc{
		ID:        rv.ID.String(),
		ProductID: optionalID(rv.ProductID),
		UserID:    optionalID(rv.UserID),
		Name:      rv.Name,
		Rating:    rv.Rating,
		Comment:   rv.Comment,
		Images:    nonNil(rv.Images),
		Reply:     rv.Reply,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return fmt.Errorf("create review: %w", err)
	}
	return nil
}

func (r *mongoReviewRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Review, error) {
	var doc reviewDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc); err != nil {
		if isNoDocuments(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get review: %w", err)
	}
	rv := doc.toModel()
	return &rv, nil
}

func (r *mongoReviewRepo) List(ctx context.Context) ([]model.Review, error) {
	return r.find(ctx, bson.M{})
}

// ListGeneral matches reviews stored with a null or missing product reference.
func (r *mongoReviewRepo) ListGeneral(ctx context.Context) ([]model.Review, error) {
	return r.find(ctx, bson.M{"product_id": nil})
}

func (r *mongoReviewRepo) ListByProduct(ctx context.Context, productID uuid.UUID) ([]model.Review, error) {
	return r.find(ctx, bson.M{"product_id": productID.String()})
}

func (r *mongoReviewRepo) find(ctx context.Context, filter bson.M) ([]model.Review, error) {
	cur, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	var docs []reviewDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode reviews: %w", err)
	}
	reviews := make([]model.Review, len(docs))
	for i, d := range docs {
		reviews[i] = d.toModel()
	}
	return reviews, nil
}

func (r *mongoReviewRepo) Update(ctx context.Context, rv *model.Review) error {
	rv.UpdatedAt = time.Now().UTC()
	res, err := r.coll.UpdateByID(ctx, rv.ID.String(), bson.M{"$set": bson.M{
		"rating":     rv.Rating,
		"comment":    rv.Comment,
		"images":     nonNil(rv.Images),
		"reply":      rv.Reply,
		"updated_at": rv.UpdatedAt,
	}})
	if err != nil {
		return fmt.Errorf("update review: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoReviewRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
