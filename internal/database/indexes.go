// server/internal/database/indexes.go
package database

import (
	"context"
	"log"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes the KYC engine queries rely on. Safe to
// run on every startup; Mongo treats existing identical indexes as a no-op.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection("kyc_documents").Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "riderID", Value: 1}}},
		{Keys: bson.D{{Key: "riderID", Value: 1}, {Key: "documentType", Value: 1}}},
		{
			Keys:    bson.D{{Key: "documentID", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})
	if err != nil {
		return err
	}

	_, err = db.Collection("riders").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "riderID", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}

	log.Println("MongoDB indexes ensured.")
	return nil
}
