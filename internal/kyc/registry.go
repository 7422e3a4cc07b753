// server/internal/kyc/registry.go
package kyc

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ev-fleet-rider-api-server/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// legacyIDPrefix marks rows synthesized from the rider's legacy fields.
// Synthesized rows are transient views and are never persisted.
const legacyIDPrefix = "legacy-"

// Registry is the authoritative record of KYC documents per rider: one row
// per upload event, append-only. The rider's legacy per-type fields are a
// projection the registry keeps synchronized.
type Registry struct {
	docs   DocumentRepository
	riders RiderRepository
	logger *zap.Logger
}

func NewRegistry(docs DocumentRepository, riders RiderRepository, logger *zap.Logger) *Registry {
	return &Registry{
		docs:   docs,
		riders: riders,
		logger: logger,
	}
}

// EnsureRider verifies a rider exists. Callers storing bytes on a rider's
// behalf check this first so unknown riders do not leave orphan objects in
// storage.
func (r *Registry) EnsureRider(ctx context.Context, riderID string) error {
	_, err := r.riders.FindByRiderID(ctx, riderID)
	return err
}

// RecordUpload creates a new pending row referencing an already-stored image
// and mirrors the URL into the rider's legacy field for that type.
func (r *Registry) RecordUpload(ctx context.Context, riderID string, docType models.DocumentType, imageURL, documentNumber string) (*models.KycDocument, error) {
	if imageURL == "" {
		return nil, fmt.Errorf("document image URL is required")
	}
	if _, err := r.riders.FindByRiderID(ctx, riderID); err != nil {
		return nil, err
	}

	if documentNumber == "" {
		documentNumber = defaultDocumentNumber(riderID, docType)
	}

	now := time.Now().UTC()
	doc := &models.KycDocument{
		DocumentID:         fmt.Sprintf("DOC-%s", strings.ToUpper(uuid.New().String()[:8])),
		RiderID:            riderID,
		DocumentType:       docType,
		DocumentNumber:     documentNumber,
		DocumentImageURL:   imageURL,
		VerificationStatus: models.VerificationStatusPending,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := r.docs.Insert(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to record document upload: %w", err)
	}

	// The registry row is the source of truth; a failed mirror write is an
	// operational problem, not an upload failure.
	if err := r.riders.SetLegacyDocument(ctx, riderID, docType, imageURL); err != nil {
		r.logger.Warn("failed to mirror document URL to legacy field",
			zap.String("riderID", riderID),
			zap.String("documentType", string(docType)),
			zap.Error(err))
	}

	return doc, nil
}

// ListDocuments returns all registry rows for a rider. Riders with no rows at
// all are legacy-only: their documents are synthesized from the legacy fields
// so downstream consumers can treat both populations identically.
func (r *Registry) ListDocuments(ctx context.Context, riderID string) ([]models.KycDocument, error) {
	rider, err := r.riders.FindByRiderID(ctx, riderID)
	if err != nil {
		return nil, err
	}

	docs, err := r.docs.ListByRider(ctx, riderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	if len(docs) > 0 {
		return docs, nil
	}

	return synthesizeLegacyDocuments(rider), nil
}

// LatestByType reduces a rider's document history to one row per type.
func (r *Registry) LatestByType(ctx context.Context, riderID string) (map[models.DocumentType]models.KycDocument, error) {
	docs, err := r.ListDocuments(ctx, riderID)
	if err != nil {
		return nil, err
	}
	return latestByType(docs), nil
}

// latestByType selects, per type, the row with the greatest updatedAt. Equal
// timestamps fall back to the lexicographically greater document id so the
// choice is deterministic regardless of storage iteration order.
func latestByType(docs []models.KycDocument) map[models.DocumentType]models.KycDocument {
	latest := make(map[models.DocumentType]models.KycDocument, len(docs))
	for _, doc := range docs {
		current, ok := latest[doc.DocumentType]
		if !ok || newerDocument(doc, current) {
			latest[doc.DocumentType] = doc
		}
	}
	return latest
}

func newerDocument(a, b models.KycDocument) bool {
	if !a.UpdatedAt.Equal(b.UpdatedAt) {
		return a.UpdatedAt.After(b.UpdatedAt)
	}
	return a.DocumentID > b.DocumentID
}

// synthesizeLegacyDocuments builds transient document views from the four
// legacy URL fields plus the rider's single legacy kycStatus.
func synthesizeLegacyDocuments(rider *models.Rider) []models.KycDocument {
	status := models.VerificationStatusPending
	switch rider.KycStatus {
	case "approved":
		status = models.VerificationStatusVerified
	case "rejected":
		status = models.VerificationStatusRejected
	}

	var docs []models.KycDocument
	for _, t := range models.SubmissionDocumentTypes {
		url := rider.LegacyDocumentURL(t)
		if url == nil || *url == "" {
			continue
		}
		docs = append(docs, models.KycDocument{
			DocumentID:         fmt.Sprintf("%s%s-%s", legacyIDPrefix, t, rider.RiderID),
			RiderID:            rider.RiderID,
			DocumentType:       t,
			DocumentNumber:     defaultDocumentNumber(rider.RiderID, t),
			DocumentImageURL:   *url,
			VerificationStatus: status,
			CreatedAt:          rider.CreatedAt,
			UpdatedAt:          rider.UpdatedAt,
		})
	}
	return docs
}

// IsLegacyDocumentID reports whether a document id belongs to a synthesized
// legacy view rather than a persisted row.
func IsLegacyDocumentID(id string) bool {
	return strings.HasPrefix(id, legacyIDPrefix)
}

// defaultDocumentNumber fills the optional human-supplied identifier
// deterministically when it was omitted.
func defaultDocumentNumber(riderID string, docType models.DocumentType) string {
	return strings.ToUpper(fmt.Sprintf("%s-%s", docType, riderID))
}
