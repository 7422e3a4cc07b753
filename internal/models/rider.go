// server/internal/models/rider.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Rider is owned by the onboarding service; this subsystem only reads it and
// maintains the kycStatus field plus the legacy per-document URL columns.
type Rider struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	RiderID   string             `bson:"riderID" json:"riderID"`
	Name      string             `bson:"name" json:"name"`
	Phone     string             `bson:"phone" json:"phone"`
	City      string             `bson:"city,omitempty" json:"city,omitempty"`
	KycStatus string             `bson:"kycStatus" json:"kycStatus"` // pending, approved, rejected

	// Legacy single-value document references, one per type. The registry is
	// the source of truth; these are a projection kept for systems not yet
	// migrated to it.
	AadhaarCardURL    *string `bson:"aadhaarCardURL,omitempty" json:"aadhaarCardURL,omitempty"`
	PanCardURL        *string `bson:"panCardURL,omitempty" json:"panCardURL,omitempty"`
	DrivingLicenseURL *string `bson:"drivingLicenseURL,omitempty" json:"drivingLicenseURL,omitempty"`
	SelfieURL         *string `bson:"selfieURL,omitempty" json:"selfieURL,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// LegacyDocumentURL returns the legacy reference for a document type, or nil.
func (r *Rider) LegacyDocumentURL(t DocumentType) *string {
	switch t {
	case DocumentTypeAadhaar:
		return r.AadhaarCardURL
	case DocumentTypePAN:
		return r.PanCardURL
	case DocumentTypeDrivingLicense:
		return r.DrivingLicenseURL
	case DocumentTypeSelfie:
		return r.SelfieURL
	}
	return nil
}
