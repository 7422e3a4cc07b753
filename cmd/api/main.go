// server/cmd/api/main.go
package main

import (
	"context"
	"log"
	"time"

	"ev-fleet-rider-api-server/config"
	"ev-fleet-rider-api-server/internal/api/routes"
	"ev-fleet-rider-api-server/internal/auth"
	"ev-fleet-rider-api-server/internal/database"
	"ev-fleet-rider-api-server/internal/kyc"
	"ev-fleet-rider-api-server/internal/messaging"
	"ev-fleet-rider-api-server/internal/s3"
	"ev-fleet-rider-api-server/internal/socket"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

func main() {
	godotenv.Load()

	// 1. Load configuration
	cfg, err := config.LoadConfig("./config")
	if err != nil {
		log.Fatalf("Could not load config: %v", err)
	}
	auth.SetSecret(cfg.JWT.Secret)

	logger, err := newLogger(cfg.Environment)
	if err != nil {
		log.Fatalf("Could not create logger: %v", err)
	}
	defer logger.Sync()

	// 2. Connect to MongoDB
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		log.Fatalf("Failed to ping MongoDB: %v", err)
	}
	defer client.Disconnect(context.Background())
	db := client.Database(cfg.Mongo.DBName)

	if err := database.EnsureIndexes(ctx, db); err != nil {
		log.Fatalf("Failed to ensure MongoDB indexes: %v", err)
	}

	// 3. Object store client. Missing credentials are fine outside
	// production; the orchestrator falls back to mock references.
	store, err := s3.NewUploader(cfg.S3)
	if err != nil {
		log.Fatalf("Failed to create S3 uploader: %v", err)
	}
	if !store.Configured() && cfg.Environment.IsProduction() {
		log.Fatalf("S3 storage must be configured in production")
	}

	// 4. WebSocket hub for reviewer dashboards
	wsHub := socket.NewHub()

	// 5. KYC engine
	uploadTimeout := time.Duration(cfg.KYC.UploadTimeoutSeconds) * time.Second
	uploader := kyc.NewUploader(store, cfg.Environment, uploadTimeout, logger)
	uploader.OnBackgroundResult(func(key, url string, err error) {
		if err == nil {
			wsHub.BroadcastEvent("kyc.upload.recovered", "", key)
		}
	})

	docsRepo := kyc.NewMongoDocumentRepository(db)
	ridersRepo := kyc.NewMongoRiderRepository(db)
	registry := kyc.NewRegistry(docsRepo, ridersRepo, logger)

	provider := kyc.NewHTTPProvider(cfg.Provider, logger)

	var publisher kyc.StatusPublisher
	if cfg.NATS.URL != "" {
		natsPublisher, err := messaging.NewNATSPublisher(cfg.NATS.URL, logger)
		if err != nil {
			log.Fatalf("Failed to connect to NATS: %v", err)
		}
		defer natsPublisher.Close()
		publisher = natsPublisher
	}

	workflow := kyc.NewWorkflow(registry, docsRepo, ridersRepo, provider, publisher, cfg.Environment, logger)

	// 6. Router
	router := routes.SetupRouter(uploader, registry, workflow, wsHub)

	// 7. Start server
	log.Printf("Starting API server on port %s (%s)", cfg.Server.Port, cfg.Environment)
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("Failed to run server: %v", err)
	}
}

func newLogger(env config.Environment) (*zap.Logger, error) {
	if env.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
