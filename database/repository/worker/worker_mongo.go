package workerRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"servicehub/database"
	"servicehub/errs"
	"servicehub/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoWorkerRepo implements WorkerRepository using MongoDB.
type MongoWorkerRepo struct {
	coll *mongo.Collection
}

// NewMongoWorkerRepo creates a new instance of WorkerRepository using MongoDB.
func NewMongoWorkerRepo(db *mongo.Database) WorkerRepository {
	repo := &MongoWorkerRepo{coll: db.Collection(database.WorkersCollection)}
	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create indexes: %v\n", err)
	}
	return repo
}

func (r *MongoWorkerRepo) GetByID(ctx context.Context, id string) (*models.WorkerProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var worker models.WorkerProfile
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&worker); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errs.NotFoundf("Worker not found")
		}
		return nil, fmt.Errorf("failed to fetch worker with id %s: %w", id, err)
	}
	return &worker, nil
}

func (r *MongoWorkerRepo) GetAll(ctx context.Context) ([]models.WorkerProfile, error) {
	return r.find(ctx, bson.M{}, nil)
}

func (r *MongoWorkerRepo) FindVerifiedByService(ctx context.Context, serviceID string) ([]models.WorkerProfile, error) {
	// Equality on an array field matches membership.
	filter := bson.M{"services": serviceID, "isVerified": true}
	opts := options.Find().SetSort(bson.D{{Key: "rating", Value: -1}})
	return r.find(ctx, filter, opts)
}

func (r *MongoWorkerRepo) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.WorkerProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query workers: %w", err)
	}
	defer cursor.Close(ctx)

	workers := []models.WorkerProfile{}
	if err := cursor.All(ctx, &workers); err != nil {
		return nil, fmt.Errorf("failed to decode workers: %w", err)
	}
	return workers, nil
}

func (r *MongoWorkerRepo) Update(ctx context.Context, id string, upd models.WorkerUpdate) error {
	set := bson.M{}
	if upd.Bio != nil {
		set["bio"] = *upd.Bio
	}
	if upd.Experience != nil {
		set["experience"] = *upd.Experience
	}
	if upd.Availability != nil {
		set["availability"] = *upd.Availability
	}
	if upd.ServiceAreas != nil {
		set["serviceAreas"] = *upd.ServiceAreas
	}
	if upd.Services != nil {
		set["services"] = *upd.Services
	}
	if len(set) == 0 {
		return nil
	}
	return r.updateWithOperator(ctx, id, "$set", set)
}

func (r *MongoWorkerRepo) updateWithOperator(ctx context.Context, id, operator string, updateDoc bson.M) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	result, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, bson.M{operator: updateDoc})
	if err != nil {
		return fmt.Errorf("failed to update worker with id %s: %w", id, err)
	}
	if result.MatchedCount == 0 {
		return errs.NotFoundf("Worker not found")
	}
	return nil
}
