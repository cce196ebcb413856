package repository

import (
	bookingRepo "servicehub/database/repository/booking"
	catalogRepo "servicehub/database/repository/catalog"
	reviewRepo "servicehub/database/repository/review"
	userRepo "servicehub/database/repository/user"
	workerRepo "servicehub/database/repository/worker"

	"go.mongodb.org/mongo-driver/mongo"
)

// Re-export the repository interfaces and constructors.
type UserRepository = userRepo.UserRepository

var NewMongoUserRepo = userRepo.NewMongoUserRepo

type WorkerRepository = workerRepo.WorkerRepository

var NewMongoWorkerRepo = workerRepo.NewMongoWorkerRepo

type CatalogRepository = catalogRepo.CatalogRepository

var NewMongoCatalogRepo = catalogRepo.NewMongoCatalogRepo

type BookingRepository = bookingRepo.BookingRepository

var NewMongoBookingRepo = bookingRepo.NewMongoBookingRepo

type ReviewRepository = reviewRepo.ReviewRepository

var NewMongoReviewRepo = reviewRepo.NewMongoReviewRepo

// Repositories bundles every document store collaborator the application
// sessions share.
type Repositories struct {
	Users    UserRepository
	Workers  WorkerRepository
	Catalog  CatalogRepository
	Bookings BookingRepository
	Reviews  ReviewRepository
}

// NewMongoRepositories wires every repository to the given database.
func NewMongoRepositories(db *mongo.Database) *Repositories {
	return &Repositories{
		Users:    NewMongoUserRepo(db),
		Workers:  NewMongoWorkerRepo(db),
		Catalog:  NewMongoCatalogRepo(db),
		Bookings: NewMongoBookingRepo(db),
		Reviews:  NewMongoReviewRepo(db),
	}
}
