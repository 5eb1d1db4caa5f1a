// ============================================================================
// cmd/server/main.go
// ClassFlow HTTP service entrypoint
// ============================================================================

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/crypto/bcrypt"

	"classflow/internal/auth"
	"classflow/internal/gateway"
	"classflow/internal/shared"
	"classflow/internal/store"
)

func main() {
	// Load environment variables
	if err := shared.LoadEnv(""); err != nil {
		log.Println("Continuing with system environment variables")
	}

	config, err := shared.LoadServiceConfig("classflow")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Pick the backend: in-memory with demo data, or MongoDB.
	var da store.DataAccess
	if config.DemoMode {
		log.Println("DEMO_MODE enabled: using in-memory store with seeded demo data")
		memory := store.NewMemory()
		seedCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := store.SeedDemo(seedCtx, memory, bcrypt.DefaultCost); err != nil {
			cancel()
			log.Fatalf("Failed to seed demo data: %v", err)
		}
		cancel()
		da = memory
	} else {
		mongoClient, db, err := shared.ConnectMongoDB(&config.MongoDB)
		if err != nil {
			log.Fatalf("Failed to connect to MongoDB: %v", err)
		}
		defer func() {
			if err := shared.DisconnectMongoDB(mongoClient); err != nil {
				log.Printf("Error disconnecting from MongoDB: %v", err)
			}
		}()
		da = store.NewMongo(db)
	}

	// The CM list is read on every class form render; cache it.
	da = store.NewCMCache(da)

	authService := auth.NewService(da, config.Security)
	router := gateway.SetupRoutes(da, authService, config.CORS)

	server := &http.Server{
		Addr:         ":" + config.HTTPPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown handling
	go func() {
		log.Printf("ClassFlow service is listening on port %s (%s)", config.HTTPPort, config.Environment)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down ClassFlow service...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}
	log.Println("ClassFlow service stopped")
}
