package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/nilantra/furniture-api/internal/model"
)

type orderItemDoc struct {
	ProductID string               `bson:"product_id"`
	Quantity  int                  `bson:"quantity"`
	Price     primitive.Decimal128 `bson:"price"`
}

type orderDoc struct {
	ID              string               `bson:"_id"`
	UserID          string               `bson:"user_id"`
	Items           []orderItemDoc       `bson:"items"`
	TotalAmount     primitive.Decimal128 `bson:"total_amount"`
	ShippingAddress string               `bson:"shipping_address"`
	PaymentStatus   string               `bson:"payment_status"`
	OrderStatus     string               `bson:"order_status"`
	TransactionID   string               `bson:"transaction_id,omitempty"`
	CreatedAt       time.Time            `bson:"created_at"`
	UpdatedAt       time.Time            `bson:"updated_at"`
}

func (d orderDoc) toModel() model.Order {
	o := model.Order{
		ID:              parseID(d.ID),
		UserID:          parseID(d.UserID),
		TotalAmount:     fromDecimal128(d.TotalAmount),
		ShippingAddress: d.ShippingAddress,
		PaymentStatus:   model.PaymentStatus(d.PaymentStatus),
		OrderStatus:     model.OrderStatus(d.OrderStatus),
		TransactionID:   d.TransactionID,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
	for _, it := range d.Items {
		o.Items = append(o.Items, model.OrderItem{
			ProductID: parseID(it.ProductID),
			Quantity:  it.Quantity,
			Price:     fromDecimal128(it.Price),
		})
	}
	return o
}

type mongoOrderRepo struct{ coll *mongo.Collection }

func NewMongoOrderRepository(db *mongo.Database) OrderRepository {
	return &mongoOrderRepo{coll: db.Collection(ordersCollection)}
}

func (r *mongoOrderRepo) Create(ctx context.Context, order *model.Order) error {
	now := time.Now().UTC()
	order.ID = uuid.New()
	order.CreatedAt, order.UpdatedAt = now, now

	doc := orderDoc{
		ID:              order.ID.String(),
		UserID:          order.UserID.String(),
		TotalAmount:     toDecimal128(order.TotalAmount),
		ShippingAddress: order.ShippingAddress,
		PaymentStatus:   string(order.PaymentStatus),
		OrderStatus:     string(order.OrderStatus),
		TransactionID:   order.TransactionID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	for _, it := range order.Items {
		doc.Items = append(doc.Items, orderItemDoc{
			ProductID: it.ProductID.String(),
			Quantity:  it.Quantity,
			Price:     toDecimal128(it.Price),
		})
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (r *mongoOrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	var doc orderDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc); err != nil {
		if isNoDocuments(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	o := doc.toModel()
	return &o, nil
}

func (r *mongoOrderRepo) List(ctx context.Context) ([]model.Order, error) {
	return r.find(ctx, bson.M{})
}

func (r *mongoOrderRepo) ListByUserID(ctx context.Context, userID uuid.UUID) ([]model.Order, error) {
	return r.find(ctx, bson.M{"user_id": userID.String()})
}

func (r *mongoOrderRepo) ListContainingProducts(ctx context.Context, productIDs []uuid.UUID) ([]model.Order, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}
	return r.find(ctx, bson.M{"items.product_id": bson.M{"$in": uuidStrings(productIDs)}})
}

func (r *mongoOrderRepo) find(ctx context.Context, filter bson.M) ([]model.Order, error) {
	cur, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	var docs []orderDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode orders: %w", err)
	}
	orders := make([]model.Order, len(docs))
	for i, d := range docs {
		orders[i] = d.toModel()
	}
	return orders, nil
}

func (r *mongoOrderRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.OrderStatus) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id.String(), "order_status": string(from)},
		bson.M{"$set": bson.M{"order_status": string(to), "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	return r.checkSwapped(ctx, id, res.MatchedCount)
}

func (r *mongoOrderRepo) UpdatePayment(ctx context.Context, id uuid.UUID, from, to model.PaymentStatus, transactionID string) error {
	set := bson.M{"payment_status": string(to), "updated_at": time.Now().UTC()}
	if transactionID != "" {
		set["transaction_id"] = transactionID
	}
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id.String(), "payment_status": string(from)},
		bson.M{"$set": set},
	)
	if err != nil {
		return fmt.Errorf("update payment status: %w", err)
	}
	return r.checkSwapped(ctx, id, res.MatchedCount)
}

func (r *mongoOrderRepo) checkSwapped(ctx context.Context, id uuid.UUID, matched int64) error {
	if matched > 0 {
		return nil
	}
	n, err := r.coll.CountDocuments(ctx, bson.M{"_id": id.String()}, options.Count().SetLimit(1))
	if err != nil {
		return fmt.Errorf("check order: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return ErrStaleState
}

func (r *mongoOrderRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
