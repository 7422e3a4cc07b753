// server/internal/kyc/repository.go
package kyc

import (
	"context"
	"time"

	"ev-fleet-rider-api-server/internal/models"
)

// ObjectStore is the put-object operation of the storage backend.
type ObjectStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
	// Configured reports whether a real storage target is present.
	Configured() bool
}

// StatusUpdate carries the mutable verification fields of a document row.
type StatusUpdate struct {
	Status           models.VerificationStatus
	Notes            string
	VerifiedBy       string
	VerificationDate *time.Time
	UpdatedAt        time.Time
}

type DocumentRepository interface {
	Insert(ctx context.Context, doc *models.KycDocument) error
	ListByRider(ctx context.Context, riderID string) ([]models.KycDocument, error)
	UpdateStatus(ctx context.Context, documentID string, update StatusUpdate) error
	// RiderIDsWithDocuments returns the distinct rider ids that have at least
	// one registry row.
	RiderIDsWithDocuments(ctx context.Context) ([]string, error)
}

type RiderRepository interface {
	FindByRiderID(ctx context.Context, riderID string) (*models.Rider, error)
	// SetLegacyDocument mirrors a document URL into the rider's legacy
	// per-type field.
	SetLegacyDocument(ctx context.Context, riderID string, docType models.DocumentType, url string) error
	SetKycStatus(ctx context.Context, riderID string, status string) error
	// RiderIDsByKycStatus returns the rider ids whose legacy kycStatus
	// matches. Needed to surface legacy-only riders that have no registry
	// rows yet.
	RiderIDsByKycStatus(ctx context.Context, status string) ([]string, error)
}

// StatusPublisher receives rider-level status transitions for fan-out to
// other fleet services. Implementations must not block the workflow.
type StatusPublisher interface {
	PublishStatusChange(ctx context.Context, riderID string, previous, next OverallStatus) error
}
