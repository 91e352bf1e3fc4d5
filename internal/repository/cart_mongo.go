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

type cartItemDoc struct {
	ProductID string    `bson:"product_id"`
	Quantity  int       `bson:"quantity"`
	AddedAt   time.Time `bson:"added_at"`
}

type cartDoc struct {
	UserID    string        `bson:"_id"`
	Items     []cartItemDoc `bson:"items"`
	CreatedAt time.Time     `bson:"created_at"`
	UpdatedAt time.Time     `bson:"updated_at"`
}

type mongoCartRepo struct{ coll *mongo.Collection }

func NewMongoCartRepository(db *mongo.Database) CartRepository {
	return &mongoCartRepo{coll: db.Collection(cartsCollection)}
}

func (r *mongoCartRepo) Get(ctx context.Context, userID uuid.UUID) (*model.Cart, error) {
	var doc cartDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": userID.String()}).Decode(&doc); err != nil {
		if isNoDocuments(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get cart: %w", err)
	}
	cart := &model.Cart{
		UserID:    parseID(doc.UserID),
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
	for _, it := range doc.Items {
		cart.Items = append(cart.Items, model.LineItem{ProductID: parseID(it.ProductID), Quantity: it.Quantity})
	}
	return cart, nil
}

const cartAddAttempts = 3

// AddItem increments an existing line in place, otherwise pushes a new one,
// upserting the cart document. Both steps are single-document atomic updates,
// so concurrent adds for the same product never produce two lines.
func (r *mongoCartRepo) AddItem(ctx context.Context, userID uuid.UUID, item model.LineItem) error {
	uid, pid := userID.String(), item.ProductID.String()
	for attempt := 0; attempt < cartAddAttempts; attempt++ {
		now := time.Now().UTC()
		res, err := r.coll.UpdateOne(ctx,
			bson.M{"_id": uid, "items.product_id": pid},
			bson.M{
				"$inc": bson.M{"items.$.quantity": item.Quantity},
				"$set": bson.M{"updated_at": now},
			},
		)
		if err != nil {
			return fmt.Errorf("increment cart item: %w", err)
		}
		if res.MatchedCount > 0 {
			return nil
		}

		_, err = r.coll.UpdateOne(ctx,
			bson.M{"_id": uid, "items.product_id": bson.M{"$ne": pid}},
			bson.M{
				"$push":        bson.M{"items": cartItemDoc{ProductID: pid, Quantity: item.Quantity, AddedAt: now}},
				"$set":         bson.M{"updated_at": now},
				"$setOnInsert": bson.M{"created_at": now},
			},
			options.Update().SetUpsert(true),
		)
		if err == nil {
			return nil
		}
		// The line appeared between the two updates; the upsert collided
		// with the existing cart. Go round and increment it.
		if !mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("push cart item: %w", err)
		}
	}
	return fmt.Errorf("add cart item: %w", ErrStaleState)
}

func (r *mongoCartRepo) RemoveItem(ctx context.Context, userID, productID uuid.UUID) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": userID.String()},
		bson.M{
			"$pull": bson.M{"items": bson.M{"product_id": productID.String()}},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		},
	)
	if err != nil {
		return fmt.Errorf("remove cart item: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoCartRepo) Clear(ctx context.Context, userID uuid.UUID) error {
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": userID.String()},
		bson.M{"$set": bson.M{"items": bson.A{}, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
