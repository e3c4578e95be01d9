package mongodb

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/oksasatya/go-storefront/internal/domain/entity"
	"github.com/oksasatya/go-storefront/internal/domain/repository"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type productDocument struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	Name          string             `bson:"name"`
	Description   string             `bson:"description"`
	Price         float64            `bson:"price"`
	OriginalPrice float64            `bson:"originalPrice,omitempty"`
	ImageURL      string             `bson:"imageUrl"`
	Images        []string           `bson:"images,omitempty"`
	Category      string             `bson:"category"`
	Brand         string             `bson:"brand,omitempty"`
	Stock         int                `bson:"stock"`
	AverageRating float64            `bson:"averageRating"`
	ReviewCount   int                `bson:"reviewCount"`
	CreatedAt     time.Time          `bson:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt"`
}

func (d productDocument) toEntity() entity.Product {
	return entity.Product{
		ID:            d.ID.Hex(),
		Name:          d.Name,
		Description:   d.Description,
		Price:         decimal.NewFromFloat(d.Price),
		OriginalPrice: decimal.NewFromFloat(d.OriginalPrice),
		ImageURL:      d.ImageURL,
		Images:        d.Images,
		Category:      d.Category,
		Brand:         d.Brand,
		Stock:         d.Stock,
		AverageRating: d.AverageRating,
		ReviewCount:   d.ReviewCount,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

type ProductRepository struct {
	coll *mongo.Collection
}

func NewProductRepository(db *mongo.Database) *ProductRepository {
	return &ProductRepository{coll: db.Collection(productsCollection)}
}

func (r *ProductRepository) ValidID(id string) bool {
	return primitive.IsValidObjectID(id)
}

func (r *ProductRepository) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, repository.ErrInvalidID
	}
	var doc productDocument
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	p := doc.toEntity()
	return &p, nil
}

// GetByIDs skips malformed and unknown ids.
func (r *ProductRepository) GetByIDs(ctx context.Context, ids []string) ([]entity.Product, error) {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			oids = append(oids, oid)
		}
	}
	if len(oids) == 0 {
		return []entity.Product{}, nil
	}
	cur, err := r.coll.Find(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return nil, err
	}
	return decodeProducts(ctx, cur)
}

func (r *ProductRepository) List(ctx context.Context, f repository.ProductFilter) ([]entity.Product, int64, error) {
	filter := bson.M{}
	if f.Category != "" {
		filter["category"] = f.Category
	}
	return r.paginate(ctx, filter, f.Page, f.Limit)
}

func (r *ProductRepository) Sample(ctx context.Context, n int) ([]entity.Product, error) {
	if n < 1 {
		return []entity.Product{}, nil
	}
	cur, err := r.coll.Aggregate(ctx, mongo.Pipeline{{{Key: "$sample", Value: bson.M{"size": n}}}})
	if err != nil {
		return nil, err
	}
	return decodeProducts(ctx, cur)
}

func (r *ProductRepository) Deals(ctx context.Context, f repository.ProductFilter) ([]entity.Product, int64, error) {
	filter := bson.M{
		"originalPrice": bson.M{"$exists": true, "$ne": nil},
		"$expr":         bson.M{"$gt": bson.A{"$originalPrice", "$price"}},
	}
	return r.paginate(ctx, filter, f.Page, f.Limit)
}

func (r *ProductRepository) paginate(ctx context.Context, filter bson.M, page, limit int) ([]entity.Product, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	items, err := decodeProducts(ctx, cur)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *ProductRepository) UpdateRating(ctx context.Context, id string, s entity.RatingSummary) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return repository.ErrInvalidID
	}
	res, err := r.coll.UpdateByID(ctx, oid, bson.M{"$set": bson.M{
		"averageRating": s.Average,
		"reviewCount":   s.Count,
		"updatedAt":     time.Now(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Create inserts a catalog entry and sets p.ID. Used by the seed command.
func (r *ProductRepository) Create(ctx context.Context, p *entity.Product) error {
	now := time.Now()
	price, _ := p.Price.Float64()
	original, _ := p.OriginalPrice.Float64()
	doc := productDocument{
		Name:          p.Name,
		Description:   p.Description,
		Price:         price,
		OriginalPrice: original,
		ImageURL:      p.ImageURL,
		Images:        p.Images,
		Category:      p.Category,
		Brand:         p.Brand,
		Stock:         p.Stock,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		p.ID = oid.Hex()
	}
	p.CreatedAt, p.UpdatedAt = now, now
	return nil
}

func decodeProducts(ctx context.Context, cur *mongo.Cursor) ([]entity.Product, error) {
	defer cur.Close(ctx)
	out := []entity.Product{}
	for cur.Next(ctx) {
		var doc productDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toEntity())
	}
	return out, cur.Err()
}

var _ repository.ProductRepository = (*ProductRepository)(nil)
