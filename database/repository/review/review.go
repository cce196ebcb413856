package reviewRepo

import (
	"context"
	"fmt"
	"time"

	"servicehub/database"
	"servicehub/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// ReviewRepository reads the reviews written when bookings complete.
type ReviewRepository interface {
	FindByWorker(ctx context.Context, workerID string) ([]models.Review, error)
}

type MongoReviewRepo struct {
	coll *mongo.Collection
}

func NewMongoReviewRepo(db *mongo.Database) ReviewRepository {
	repo := &MongoReviewRepo{coll: db.Collection(database.ReviewsCollection)}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := repo.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "workerId", Value: 1}},
	}); err != nil {
		fmt.Printf("failed to create indexes: %v\n", err)
	}
	return repo
}

func (r *MongoReviewRepo) FindByWorker(ctx context.Context, workerID string) ([]models.Review, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cursor, err := r.coll.Find(ctx, bson.M{"workerId": workerID})
	if err != nil {
		return nil, fmt.Errorf("failed to query reviews: %w", err)
	}
	defer cursor.Close(ctx)

	reviews := []models.Review{}
	if err := cursor.All(ctx, &reviews); err != nil {
		return nil, fmt.Errorf("failed to decode reviews: %w", err)
	}
	return reviews, nil
}
