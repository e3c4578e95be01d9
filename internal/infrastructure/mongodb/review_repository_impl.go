package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/oksasatya/go-storefront/internal/domain/entity"
	"github.com/oksasatya/go-storefront/internal/domain/repository"
)

type reviewDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	ProductID primitive.ObjectID `bson:"productId"`
	UserID    string             `bson:"userId"`
	Username  string             `bson:"username"`
	Rating    int                `bson:"rating"`
	Comment   string             `bson:"comment"`
	CreatedAt time.Time          `bson:"createdAt"`
}

type ReviewRepository struct {
	coll *mongo.Collection
}

func NewReviewRepository(db *mongo.Database) *ReviewRepository {
	return &ReviewRepository{coll: db.Collection(reviewsCollection)}
}

func (r *ReviewRepository) Create(ctx context.Context, rv *entity.Review) error {
	pid, err := primitive.ObjectIDFromHex(rv.ProductID)
	if err != nil {
		return repository.ErrInvalidID
	}
	doc := reviewDocument{
		ProductID: pid,
		UserID:    rv.UserID,
		Username:  rv.Username,
		Rating:    rv.Rating,
		Comment:   rv.Comment,
		CreatedAt: rv.CreatedAt,
	}
	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		rv.ID = oid.Hex()
	}
	return nil
}

// ListByProduct returns the newest reviews first; limit <= 0 means all.
func (r *ReviewRepository) ListByProduct(ctx context.Context, productID string, limit int) ([]entity.Review, error) {
	pid, err := primitive.ObjectIDFromHex(productID)
	if err != nil {
		return nil, repository.ErrInvalidID
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := r.coll.Find(ctx, bson.M{"productId": pid}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []entity.Review{}
	for cur.Next(ctx) {
		var doc reviewDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, entity.Review{
			ID:        doc.ID.Hex(),
			ProductID: doc.ProductID.Hex(),
			UserID:    doc.UserID,
			Username:  doc.Username,
			Rating:    doc.Rating,
			Comment:   doc.Comment,
			CreatedAt: doc.CreatedAt,
		})
	}
	return out, cur.Err()
}

// Summarize averages every rating for the product.
func (r *ReviewRepository) Summarize(ctx context.Context, productID string) (entity.RatingSummary, error) {
	pid, err := primitive.ObjectIDFromHex(productID)
	if err != nil {
		return entity.RatingSummary{}, repository.ErrInvalidID
	}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"productId": pid}}},
		{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"avg":   bson.M{"$avg": "$rating"},
			"count": bson.M{"$sum": 1},
		}}},
	}
	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return entity.RatingSummary{}, err
	}
	defer cur.Close(ctx)

	var row struct {
		Avg   float64 `bson:"avg"`
		Count int     `bson:"count"`
	}
	if !cur.Next(ctx) {
		return entity.RatingSummary{}, cur.Err()
	}
	if err := cur.Decode(&row); err != nil {
		return entity.RatingSummary{}, err
	}
	return entity.RatingSummary{Average: row.Avg, Count: row.Count}, nil
}

var _ repository.ReviewRepository = (*ReviewRepository)(nil)
