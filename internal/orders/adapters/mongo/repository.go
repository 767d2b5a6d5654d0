package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dejobratic/storefront/internal/orders/domain"
	"github.com/dejobratic/storefront/internal/orders/ports"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Repository keeps each order as one document with its items embedded.
type Repository struct {
	collection *mongo.Collection
}

func NewRepository(db *mongo.Database) *Repository {
	return &Repository{collection: db.Collection(ordersCollection)}
}

func (r *Repository) Create(ctx context.Context, order domain.Order) error {
	doc, err := newOrderDocument(order)
	if err != nil {
		return err
	}
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ports.ErrDuplicate
		}
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *Repository) GetByShortID(ctx context.Context, shortID string) (*domain.Order, error) {
	return r.findOne(ctx, bson.M{"short_id": shortID})
}

func (r *Repository) findOne(ctx context.Context, filter bson.M) (*domain.Order, error) {
	var doc orderDocument
	if err := r.collection.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ports.ErrNotFound
		}
		return nil, fmt.Errorf("find order: %w", err)
	}

	order, err := doc.toDomain()
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *Repository) List(ctx context.Context, filter ports.ListFilter) ([]domain.Order, error) {
	filter = filter.Normalize()

	query := bson.M{}
	if filter.Status != nil {
		query["status"] = string(*filter.Status)
	}
	if filter.UserID != nil {
		query["user_id"] = *filter.UserID
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64(filter.Offset())).
		SetLimit(int64(filter.PageSize))

	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("find orders: %w", err)
	}

	var docs []orderDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode orders: %w", err)
	}

	orders := make([]domain.Order, 0, len(docs))
	for _, doc := range docs {
		order, err := doc.toDomain()
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, nil
}

// SaveStatus matches on the expected status so a concurrent transition wins at most once.
func (r *Repository) SaveStatus(ctx context.Context, order domain.Order, expected domain.OrderStatus) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": order.ID, "status": string(expected)},
		bson.M{"$set": bson.M{
			"status":         string(order.Status),
			"payment_status": string(order.PaymentStatus),
			"updated_at":     order.UpdatedAt,
		}},
	)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if result.MatchedCount == 1 {
		return nil
	}

	count, err := r.collection.CountDocuments(ctx, bson.M{"_id": order.ID}, options.Count().SetLimit(1))
	if err != nil {
		return fmt.Errorf("count orders: %w", err)
	}
	if count == 0 {
		return ports.ErrNotFound
	}
	return ports.ErrStatusConflict
}

type ProductRepository struct {
	collection *mongo.Collection
	now        func() time.Time
}

func NewProductRepository(db *mongo.Database) *ProductRepository {
	return &ProductRepository{collection: db.Collection(productsCollection), now: time.Now}
}

func (r *ProductRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	var doc productDocument
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ports.ErrNotFound
		}
		return nil, fmt.Errorf("find product: %w", err)
	}

	product, err := doc.toDomain()
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *ProductRepository) FindByIDs(ctx context.Context, ids []string) ([]domain.Product, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}

	var docs []productDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}

	products := make([]domain.Product, 0, len(docs))
	for _, doc := range docs {
		product, err := doc.toDomain()
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	return products, nil
}

// AdjustStock is a single conditional $inc, so the quantity guard and the write are atomic.
func (r *ProductRepository) AdjustStock(ctx context.Context, id string, delta int) (int, error) {
	filter := bson.M{"_id": id}
	if delta < 0 {
		filter["quantity"] = bson.M{"$gte": -delta}
	}

	var doc productDocument
	err := r.collection.FindOneAndUpdate(ctx, filter,
		bson.M{
			"$inc": bson.M{"quantity": delta},
			"$set": bson.M{"updated_at": r.now().UTC()},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err == nil {
		return doc.Quantity, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return 0, fmt.Errorf("adjust stock: %w", err)
	}

	count, err := r.collection.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	if count == 0 {
		return 0, ports.ErrNotFound
	}
	return 0, ports.ErrInsufficientStock
}

// Save upserts a product. It backs catalogue seeding and tests.
func (r *ProductRepository) Save(ctx context.Context, product domain.Product) error {
	if product.UpdatedAt.IsZero() {
		product.UpdatedAt = r.now().UTC()
	}
	doc, err := newProductDocument(product)
	if err != nil {
		return err
	}
	_, err = r.collection.ReplaceOne(ctx, bson.M{"_id": product.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save product: %w", err)
	}
	return nil
}

type UserRepository struct {
	collection *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{collection: db.Collection(usersCollection)}
}

func (r *UserRepository) FindByPhone(ctx context.Context, phone string) (*domain.User, error) {
	var doc userDocument
	if err := r.collection.FindOne(ctx, bson.M{"phone": phone}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ports.ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &domain.User{ID: doc.ID, Name: doc.Name, Phone: doc.Phone, Role: domain.Role(doc.Role)}, nil
}

func (r *UserRepository) Save(ctx context.Context, user domain.User) error {
	doc := userDocument{ID: user.ID, Name: user.Name, Phone: user.Phone, Role: string(user.Role)}
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": user.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}
