// server/internal/models/kyc_document.go
package models

import (
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DocumentType is the kind of identity artifact a rider uploads.
type DocumentType string

const (
	DocumentTypeAadhaar        DocumentType = "aadhaar"
	DocumentTypePAN            DocumentType = "pan"
	DocumentTypeDrivingLicense DocumentType = "driving_license"
	DocumentTypeSelfie         DocumentType = "selfie"
)

// RequiredDocumentTypes are the types a rider must upload for their KYC to be
// considered complete. PAN is tracked but optional for completion.
var RequiredDocumentTypes = []DocumentType{
	DocumentTypeAadhaar,
	DocumentTypeDrivingLicense,
	DocumentTypeSelfie,
}

// SubmissionDocumentTypes are the types required before a rider can submit
// for verification. This path does require PAN.
var SubmissionDocumentTypes = []DocumentType{
	DocumentTypeAadhaar,
	DocumentTypePAN,
	DocumentTypeDrivingLicense,
	DocumentTypeSelfie,
}

func ParseDocumentType(s string) (DocumentType, error) {
	switch DocumentType(strings.ToLower(strings.TrimSpace(s))) {
	case DocumentTypeAadhaar:
		return DocumentTypeAadhaar, nil
	case DocumentTypePAN:
		return DocumentTypePAN, nil
	case DocumentTypeDrivingLicense:
		return DocumentTypeDrivingLicense, nil
	case DocumentTypeSelfie:
		return DocumentTypeSelfie, nil
	}
	return "", fmt.Errorf("unknown document type %q", s)
}

// DisplayName returns the human-readable label used in API responses.
func (t DocumentType) DisplayName() string {
	switch t {
	case DocumentTypeAadhaar:
		return "Aadhaar Card"
	case DocumentTypePAN:
		return "PAN Card"
	case DocumentTypeDrivingLicense:
		return "Driving License"
	case DocumentTypeSelfie:
		return "Selfie"
	}
	return string(t)
}

type VerificationStatus string

const (
	VerificationStatusPending  VerificationStatus = "pending"
	VerificationStatusVerified VerificationStatus = "verified"
	VerificationStatusRejected VerificationStatus = "rejected"
)

// KycDocument is one uploaded document instance. Re-uploads create new rows;
// history is append-only and rows are never deleted.
type KycDocument struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	DocumentID         string             `bson:"documentID" json:"documentID"`
	RiderID            string             `bson:"riderID" json:"riderID"`
	DocumentType       DocumentType       `bson:"documentType" json:"documentType"`
	DocumentNumber     string             `bson:"documentNumber" json:"documentNumber"`
	DocumentImageURL   string             `bson:"documentImageURL" json:"documentImageURL"`
	VerificationStatus VerificationStatus `bson:"verificationStatus" json:"verificationStatus"`
	VerificationNotes  string             `bson:"verificationNotes,omitempty" json:"verificationNotes,omitempty"`
	VerifiedBy         string             `bson:"verifiedBy,omitempty" json:"verifiedBy,omitempty"`
	VerificationDate   *time.Time         `bson:"verificationDate,omitempty" json:"verificationDate,omitempty"`
	CreatedAt          time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt          time.Time          `bson:"updatedAt" json:"updatedAt"`
}
