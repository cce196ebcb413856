package bookingRepo

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

// MongoBookingRepo implements BookingRepository using MongoDB.
type MongoBookingRepo struct {
	client       *mongo.Client
	coll         *mongo.Collection
	customerColl *mongo.Collection
	workerColl   *mongo.Collection
	reviewColl   *mongo.Collection
}

// NewMongoBookingRepo creates a new instance of BookingRepository using MongoDB.
func NewMongoBookingRepo(db *mongo.Database) BookingRepository {
	repo := &MongoBookingRepo{
		client:       db.Client(),
		coll:         db.Collection(database.BookingsCollection),
		customerColl: db.Collection(database.CustomersCollection),
		workerColl:   db.Collection(database.WorkersCollection),
		reviewColl:   db.Collection(database.ReviewsCollection),
	}
	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create indexes: %v\n", err)
	}
	return repo
}

func (r *MongoBookingRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "customerId", Value: 1}}},
		{Keys: bson.D{{Key: "workerId", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func (r *MongoBookingRepo) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var b models.Booking
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&b); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errs.NotFoundf("Booking not found")
		}
		return nil, fmt.Errorf("failed to fetch booking with id %s: %w", id, err)
	}
	return &b, nil
}

func (r *MongoBookingRepo) FindByCustomer(ctx context.Context, customerID string) ([]models.Booking, error) {
	return r.find(ctx, bson.M{"customerId": customerID})
}

func (r *MongoBookingRepo) FindByWorker(ctx context.Context, workerID string) ([]models.Booking, error) {
	return r.find(ctx, bson.M{"workerId": workerID})
}

// find leaves ordering to the caller since scheduledTime is not stored uniformly.
func (r *MongoBookingRepo) find(ctx context.Context, filter bson.M) ([]models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cursor, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer cursor.Close(ctx)

	bookings := []models.Booking{}
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}
	return bookings, nil
}

func (r *MongoBookingRepo) CreateWithHistory(ctx context.Context, b *models.Booking) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	return database.WithTransaction(ctx, r.client, func(sc mongo.SessionContext) error {
		if _, err := r.coll.InsertOne(sc, b); err != nil {
			return fmt.Errorf("failed to insert booking: %w", err)
		}
		res, err := r.customerColl.UpdateOne(sc,
			bson.M{"id": b.CustomerID},
			bson.M{"$addToSet": bson.M{"bookingHistory": b.ID}},
		)
		if err != nil {
			return fmt.Errorf("failed to update booking history: %w", err)
		}
		if res.MatchedCount == 0 {
			return errs.NotFoundf("Customer profile not found")
		}
		return nil
	})
}

func (r *MongoBookingRepo) UpdateStatus(ctx context.Context, id string, from models.BookingStatus, upd models.StatusUpdate) error {
	set := bson.M{"status": upd.Status, "updatedAt": upd.UpdatedAt}
	if upd.WorkerNotes != nil {
		set["workerNotes"] = *upd.WorkerNotes
	}
	if upd.CustomerNotes != nil {
		set["customerNotes"] = *upd.CustomerNotes
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx, bson.M{"id": id, "status": from}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update booking with id %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return errs.Conflictf("booking %s is no longer %s", id, from)
	}
	return nil
}

func (r *MongoBookingRepo) Complete(ctx context.Context, id string, from models.BookingStatus, c models.Completion) error {
	set := bson.M{
		"status":        models.StatusCompleted,
		"paymentStatus": models.PaymentCompleted,
		"updatedAt":     c.UpdatedAt,
	}
	if c.Rating != nil {
		set["rating"] = *c.Rating
	}
	if c.Comment != "" {
		set["review"] = c.Comment
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	return database.WithTransaction(ctx, r.client, func(sc mongo.SessionContext) error {
		res, err := r.coll.UpdateOne(sc, bson.M{"id": id, "status": from}, bson.M{"$set": set})
		if err != nil {
			return fmt.Errorf("failed to complete booking with id %s: %w", id, err)
		}
		if res.MatchedCount == 0 {
			return errs.Conflictf("booking %s is no longer %s", id, from)
		}
		if c.Review == nil {
			return nil
		}

		matched, err := r.applyReview(sc, c.Review.WorkerID, c.Review.Rating)
		if err != nil {
			return err
		}
		// A booking whose worker profile is gone still completes, without a review.
		if !matched {
			return nil
		}
		if _, err := r.reviewColl.InsertOne(sc, c.Review); err != nil {
			return fmt.Errorf("failed to insert review: %w", err)
		}
		return nil
	})
}

// applyReview folds one rating into the worker aggregates with a pipeline update,
// so the new mean is computed from the stored values rather than a prior read.
func (r *MongoBookingRepo) applyReview(ctx context.Context, workerID string, rating int) (bool, error) {
	count := bson.D{{Key: "$ifNull", Value: bson.A{"$reviewCount", 0}}}
	mean := bson.D{{Key: "$ifNull", Value: bson.A{"$rating", 0}}}
	jobs := bson.D{{Key: "$ifNull", Value: bson.A{"$completedJobs", 0}}}

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "rating", Value: bson.D{{Key: "$divide", Value: bson.A{
				bson.D{{Key: "$add", Value: bson.A{
					bson.D{{Key: "$multiply", Value: bson.A{mean, count}}},
					rating,
				}}},
				bson.D{{Key: "$add", Value: bson.A{count, 1}}},
			}}}},
			{Key: "reviewCount", Value: bson.D{{Key: "$add", Value: bson.A{count, 1}}}},
			{Key: "completedJobs", Value: bson.D{{Key: "$add", Value: bson.A{jobs, 1}}}},
		}}},
	}

	res, err := r.workerColl.UpdateOne(ctx, bson.M{"id": workerID}, pipeline)
	if err != nil {
		return false, fmt.Errorf("failed to update worker rating: %w", err)
	}
	return res.MatchedCount > 0, nil
}
