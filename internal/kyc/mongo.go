// server/internal/kyc/mongo.go
package kyc

import (
	"context"
	"fmt"

	"ev-fleet-rider-api-server/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	documentsCollection = "kyc_documents"
	ridersCollection    = "riders"
)

// MongoDocumentRepository persists KycDocument rows in MongoDB.
type MongoDocumentRepository struct {
	DB *mongo.Database
}

func NewMongoDocumentRepository(db *mongo.Database) *MongoDocumentRepository {
	return &MongoDocumentRepository{DB: db}
}

func (r *MongoDocumentRepository) Insert(ctx context.Context, doc *models.KycDocument) error {
	result, err := r.DB.Collection(documentsCollection).InsertOne(ctx, doc)
	if err != nil {
		return err
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		doc.ID = oid
	}
	return nil
}

func (r *MongoDocumentRepository) ListByRider(ctx context.Context, riderID string) ([]models.KycDocument, error) {
	cursor, err := r.DB.Collection(documentsCollection).Find(ctx, bson.M{"riderID": riderID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []models.KycDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func (r *MongoDocumentRepository) UpdateStatus(ctx context.Context, documentID string, update StatusUpdate) error {
	set := bson.M{
		"verificationStatus": update.Status,
		"updatedAt":          update.UpdatedAt,
	}
	if update.Notes != "" {
		set["verificationNotes"] = update.Notes
	}
	if update.VerifiedBy != "" {
		set["verifiedBy"] = update.VerifiedBy
	}
	if update.VerificationDate != nil {
		set["verificationDate"] = update.VerificationDate
	}

	result, err := r.DB.Collection(documentsCollection).UpdateOne(ctx,
		bson.M{"documentID": documentID},
		bson.M{"$set": set},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("document %s not found", documentID)
	}
	return nil
}

func (r *MongoDocumentRepository) RiderIDsWithDocuments(ctx context.Context) ([]string, error) {
	values, err := r.DB.Collection(documentsCollection).Distinct(ctx, "riderID", bson.M{})
	if err != nil {
		return nil, err
	}
	riderIDs := make([]string, 0, len(values))
	for _, v := range values {
		if id, ok := v.(string); ok {
			riderIDs = append(riderIDs, id)
		}
	}
	return riderIDs, nil
}

// MongoRiderRepository reads riders and maintains their legacy KYC fields.
type MongoRiderRepository struct {
	DB *mongo.Database
}

func NewMongoRiderRepository(db *mongo.Database) *MongoRiderRepository {
	return &MongoRiderRepository{DB: db}
}

func (r *MongoRiderRepository) FindByRiderID(ctx context.Context, riderID string) (*models.Rider, error) {
	var rider models.Rider
	err := r.DB.Collection(ridersCollection).FindOne(ctx, bson.M{"riderID": riderID}).Decode(&rider)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrRiderNotFound
		}
		return nil, err
	}
	return &rider, nil
}

func legacyFieldFor(docType models.DocumentType) string {
	switch docType {
	case models.DocumentTypeAadhaar:
		return "aadhaarCardURL"
	case models.DocumentTypePAN:
		return "panCardURL"
	case models.DocumentTypeDrivingLicense:
		return "drivingLicenseURL"
	case models.DocumentTypeSelfie:
		return "selfieURL"
	}
	return ""
}

func (r *MongoRiderRepository) SetLegacyDocument(ctx context.Context, riderID string, docType models.DocumentType, url string) error {
	field := legacyFieldFor(docType)
	if field == "" {
		return fmt.Errorf("no legacy field for document type %s", docType)
	}
	result, err := r.DB.Collection(ridersCollection).UpdateOne(ctx,
		bson.M{"riderID": riderID},
		bson.M{"$set": bson.M{field: url}, "$currentDate": bson.M{"updatedAt": true}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrRiderNotFound
	}
	return nil
}

func (r *MongoRiderRepository) RiderIDsByKycStatus(ctx context.Context, status string) ([]string, error) {
	values, err := r.DB.Collection(ridersCollection).Distinct(ctx, "riderID", bson.M{"kycStatus": status})
	if err != nil {
		return nil, err
	}
	riderIDs := make([]string, 0, len(values))
	for _, v := range values {
		if id, ok := v.(string); ok {
			riderIDs = append(riderIDs, id)
		}
	}
	return riderIDs, nil
}

func (r *MongoRiderRepository) SetKycStatus(ctx context.Context, riderID string, status string) error {
	result, err := r.DB.Collection(ridersCollection).UpdateOne(ctx,
		bson.M{"riderID": riderID},
		bson.M{"$set": bson.M{"kycStatus": status}, "$currentDate": bson.M{"updatedAt": true}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrRiderNotFound
	}
	return nil
}
