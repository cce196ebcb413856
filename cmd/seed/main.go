// Command seed fills a development database with a service catalog and a few
// verified demo workers. Earlier seeded documents are replaced; everything
// else is left alone.
package main

import (
	"context"
	"fmt"
	"time"

	"servicehub/config"
	"servicehub/database"
	"servicehub/database/repository"
	"servicehub/models"
	"servicehub/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

const seedPrefix = "seed-"

var catalog = []models.Service{
	{Name: "Home cleaning", Category: "Cleaning", Price: 35, Duration: 120, Icon: "broom"},
	{Name: "Deep cleaning", Category: "Cleaning", Price: 80, Duration: 300, Icon: "sparkles"},
	{Name: "Laundry and ironing", Category: "Laundry", Price: 20, Duration: 90, Icon: "shirt"},
	{Name: "Leak repair", Category: "Plumbing", Price: 50, Duration: 60, Icon: "wrench"},
	{Name: "Socket installation", Category: "Electrical", Price: 45, Duration: 60, Icon: "plug"},
	{Name: "Lawn mowing", Category: "Gardening", Price: 30, Duration: 90, Icon: "leaf"},
}

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	client, err := database.InitDB(config.AppConfig.DatabaseURL)
	if err != nil {
		logger.Fatal("seed: failed to connect", zap.Error(err))
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	defer func() { _ = client.Disconnect(context.Background()) }()

	db := client.Database(config.AppConfig.DatabaseName)
	seeded := bson.M{"id": bson.M{"$regex": "^" + seedPrefix}}
	for _, coll := range []string{database.ServicesCollection, database.WorkersCollection, database.UsersCollection} {
		res, err := db.Collection(coll).DeleteMany(ctx, seeded)
		if err != nil {
			logger.Fatal("seed: failed to clear seeded documents", zap.String("collection", coll), zap.Error(err))
		}
		logger.Info("seed: cleared", zap.String("collection", coll), zap.Int64("deleted", res.DeletedCount))
	}

	repos := repository.NewMongoRepositories(db)
	now := time.Now().UTC()

	ids := make([]string, 0, len(catalog))
	for i, svc := range catalog {
		svc.ID = fmt.Sprintf("%ssvc-%d", seedPrefix, i+1)
		svc.Description = svc.Name + " by a verified local worker."
		svc.CreatedAt = now
		if err := repos.Catalog.Create(ctx, &svc); err != nil {
			logger.Fatal("seed: failed to insert service", zap.String("name", svc.Name), zap.Error(err))
		}
		ids = append(ids, svc.ID)
	}

	// Each worker offers two neighbouring services of the catalog.
	for i := range 4 {
		id := fmt.Sprintf("%sworker-%d", seedPrefix, i+1)
		user := &models.User{
			ID:          id,
			Email:       fmt.Sprintf("worker%d@example.com", i+1),
			DisplayName: fmt.Sprintf("Demo Worker %d", i+1),
			PhoneNumber: fmt.Sprintf("+1555000%04d", i+1),
			Role:        models.RoleWorker,
			CreatedAt:   now,
			LastLogin:   now,
		}
		worker := models.NewWorkerProfile(id)
		worker.Services = []string{ids[i%len(ids)], ids[(i+1)%len(ids)]}
		worker.Bio = "Demo profile created by the seed command."
		worker.Experience = fmt.Sprintf("%d years", i+2)
		worker.IsVerified = true
		worker.ServiceAreas = []string{"Downtown"}

		if err := repos.Users.Register(ctx, user, nil, worker); err != nil {
			logger.Fatal("seed: failed to insert worker", zap.String("id", id), zap.Error(err))
		}
	}

	logger.Info("seed: done", zap.Int("services", len(catalog)), zap.Int("workers", 4))
}
