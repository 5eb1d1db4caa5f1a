// ============================================================================
// cmd/seeder/main.go
// Seeds the MongoDB backend with the demo dataset
// ============================================================================

package main

import (
	"context"
	"log"
	"time"

	"golang.org/x/crypto/bcrypt"

	"classflow/internal/shared"
	"classflow/internal/store"
)

func main() {
	if err := shared.LoadEnv(""); err != nil {
		log.Println("Continuing with system environment variables")
	}

	config, err := shared.LoadServiceConfig("classflow-seeder")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if config.DemoMode {
		log.Fatal("DEMO_MODE seeds itself in-process; the seeder targets MongoDB only")
	}

	mongoClient, db, err := shared.ConnectMongoDB(&config.MongoDB)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer func() {
		if err := shared.DisconnectMongoDB(mongoClient); err != nil {
			log.Printf("Error disconnecting from MongoDB: %v", err)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	log.Println("Seeding demo dataset...")
	if err := store.SeedDemo(ctx, store.NewMongo(db), bcrypt.DefaultCost); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Println("Done. Demo accounts:")
	log.Printf("  admin:   %s / %s", store.DemoAdminEmail, store.DemoAdminPassword)
	log.Printf("  teacher: %s / %s", store.DemoTeacherEmail, store.DemoTeacherPassword)
	log.Printf("  cm:      %s / %s", store.DemoCMEmail, store.DemoCMPassword)
}
