package userRepo

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
)

// MongoUserRepo implements UserRepository using MongoDB.
type MongoUserRepo struct {
	client    *mongo.Client
	coll      *mongo.Collection
	customers *mongo.Collection
	workers   *mongo.Collection
}

// NewMongoUserRepo creates a new instance of UserRepository using MongoDB.
func NewMongoUserRepo(db *mongo.Database) UserRepository {
	repo := &MongoUserRepo{
		client:    db.Client(),
		coll:      db.Collection(database.UsersCollection),
		customers: db.Collection(database.CustomersCollection),
		workers:   db.Collection(database.WorkersCollection),
	}
	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create indexes: %v\n", err)
	}
	return repo
}

func (r *MongoUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var user models.User
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errs.NotFoundf("User document not found")
		}
		return nil, fmt.Errorf("failed to fetch user with id %s: %w", id, err)
	}
	if err := models.Validate(user); err != nil {
		return nil, fmt.Errorf("user %s: %w", id, err)
	}
	return &user, nil
}

func (r *MongoUserRepo) Update(ctx context.Context, id string, upd models.UserUpdate) error {
	set := bson.M{}
	if upd.DisplayName != nil {
		set["displayName"] = *upd.DisplayName
	}
	if upd.PhoneNumber != nil {
		set["phoneNumber"] = *upd.PhoneNumber
	}
	if upd.LastLogin != nil {
		set["lastLogin"] = *upd.LastLogin
	}
	if len(set) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	result, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update user with id %s: %w", id, err)
	}
	if result.MatchedCount == 0 {
		return errs.NotFoundf("User document not found")
	}
	return nil
}

func (r *MongoUserRepo) Register(ctx context.Context, user *models.User, customer *models.CustomerProfile, worker *models.WorkerProfile) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	return database.WithTransaction(ctx, r.client, func(sc mongo.SessionContext) error {
		if _, err := r.coll.InsertOne(sc, user); err != nil {
			return fmt.Errorf("failed to insert user: %w", err)
		}
		if customer != nil {
			if _, err := r.customers.InsertOne(sc, customer); err != nil {
				return fmt.Errorf("failed to insert customer profile: %w", err)
			}
		}
		if worker != nil {
			if _, err := r.workers.InsertOne(sc, worker); err != nil {
				return fmt.Errorf("failed to insert worker profile: %w", err)
			}
		}
		return nil
	})
}

func (r *MongoUserRepo) GetCustomer(ctx context.Context, id string) (*models.CustomerProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var profile models.CustomerProfile
	if err := r.customers.FindOne(ctx, bson.M{"id": id}).Decode(&profile); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errs.NotFoundf("Customer profile not found")
		}
		return nil, fmt.Errorf("failed to fetch customer with id %s: %w", id, err)
	}
	return &profile, nil
}
