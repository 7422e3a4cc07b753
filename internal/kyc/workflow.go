// server/internal/kyc/workflow.go
package kyc

import (
	"context"
	"fmt"
	"time"

	"ev-fleet-rider-api-server/config"
	"ev-fleet-rider-api-server/internal/models"

	"go.uber.org/zap"
)

// Decision is a manual reviewer's verdict on a rider's pending documents.
type Decision string

const (
	DecisionVerified Decision = "verified"
	DecisionRejected Decision = "rejected"
)

// PendingReview summarizes a rider awaiting manual review: all four
// submission document types present and overall status pending.
type PendingReview struct {
	RiderID       string    `json:"riderID"`
	Name          string    `json:"name"`
	Phone         string    `json:"phone"`
	DocumentCount int       `json:"documentCount"`
	LastActivity  time.Time `json:"lastActivity"`
}

// Workflow drives per-document state transitions: manual review, automated
// provider verification and the legacy-compatibility mirror on the rider row.
type Workflow struct {
	registry  *Registry
	docs      DocumentRepository
	riders    RiderRepository
	provider  VerificationProvider
	publisher StatusPublisher // optional
	env       config.Environment
	logger    *zap.Logger
}

func NewWorkflow(
	registry *Registry,
	docs DocumentRepository,
	riders RiderRepository,
	provider VerificationProvider,
	publisher StatusPublisher,
	env config.Environment,
	logger *zap.Logger,
) *Workflow {
	return &Workflow{
		registry:  registry,
		docs:      docs,
		riders:    riders,
		provider:  provider,
		publisher: publisher,
		env:       env,
		logger:    logger,
	}
}

// ManualVerify bulk-updates all of a rider's pending rows to verified or
// rejected and mirrors the verdict onto the rider's legacy kycStatus. Zero
// pending rows is a benign race between reviewers, not an error.
func (w *Workflow) ManualVerify(ctx context.Context, riderID string, decision Decision, reason, reviewerID string) (previous, next OverallStatus, err error) {
	if decision != DecisionVerified && decision != DecisionRejected {
		return "", "", ErrInvalidDecision
	}

	latest, err := w.registry.LatestByType(ctx, riderID)
	if err != nil {
		return "", "", err
	}
	previous, _, _ = Aggregate(latest)

	rows, err := w.docs.ListByRider(ctx, riderID)
	if err != nil {
		return "", "", fmt.Errorf("failed to load documents for review: %w", err)
	}
	var pending []models.KycDocument
	for _, doc := range rows {
		if doc.VerificationStatus == models.VerificationStatusPending {
			pending = append(pending, doc)
		}
	}
	if len(pending) == 0 {
		w.logger.Warn("manual verification with no pending documents, nothing to do",
			zap.String("riderID", riderID),
			zap.String("reviewerID", reviewerID))
		return previous, previous, nil
	}

	now := time.Now().UTC()
	for _, doc := range pending {
		update := StatusUpdate{UpdatedAt: now}
		if decision == DecisionVerified {
			update.Status = models.VerificationStatusVerified
			update.VerifiedBy = reviewerID
			update.VerificationDate = &now
		} else {
			update.Status = models.VerificationStatusRejected
			update.Notes = reason
		}
		if err := w.docs.UpdateStatus(ctx, doc.DocumentID, update); err != nil {
			return "", "", fmt.Errorf("failed to update document %s: %w", doc.DocumentID, err)
		}
	}

	riderStatus := "approved"
	if decision == DecisionRejected {
		riderStatus = "rejected"
	}
	if err := w.riders.SetKycStatus(ctx, riderID, riderStatus); err != nil {
		return "", "", fmt.Errorf("failed to update rider status: %w", err)
	}

	latest, err = w.registry.LatestByType(ctx, riderID)
	if err != nil {
		return "", "", err
	}
	next, _, _ = Aggregate(latest)

	w.logger.Info("manual verification recorded",
		zap.String("riderID", riderID),
		zap.String("decision", string(decision)),
		zap.String("reviewerID", reviewerID),
		zap.Int("documents", len(pending)))
	w.publishStatusChange(ctx, riderID, previous, next)

	return previous, next, nil
}

// AutoVerify runs the automated third-party verification path. It requires
// Aadhaar, PAN and Driving License to be present (no selfie on this path) and
// maps the provider's binary signal to the rider level. Outside production an
// unreachable provider degrades to a clearly-marked simulated approval; in
// production the failure propagates and the rider's status is untouched.
func (w *Workflow) AutoVerify(ctx context.Context, riderID, providerName string) (OverallStatus, *ProviderResult, error) {
	rider, err := w.riders.FindByRiderID(ctx, riderID)
	if err != nil {
		return "", nil, err
	}

	latest, err := w.registry.LatestByType(ctx, riderID)
	if err != nil {
		return "", nil, err
	}
	required := []models.DocumentType{models.DocumentTypeAadhaar, models.DocumentTypePAN, models.DocumentTypeDrivingLicense}
	var missing []models.DocumentType
	refs := make(map[models.DocumentType]string, len(required))
	for _, t := range required {
		doc, ok := latest[t]
		if !ok {
			missing = append(missing, t)
			continue
		}
		refs[t] = doc.DocumentImageURL
	}
	if len(missing) > 0 {
		return "", nil, &MissingDocumentsError{Missing: missing}
	}

	previous, _, _ := Aggregate(latest)

	result, err := w.provider.Verify(ctx, ProviderRequest{
		RiderID:   riderID,
		Name:      rider.Name,
		Phone:     rider.Phone,
		Provider:  providerName,
		Documents: refs,
	})
	if err != nil {
		if w.env.IsProduction() {
			return "", nil, fmt.Errorf("verification provider %s: %w", providerName, err)
		}
		w.logger.Warn("provider unavailable, simulating approval outside production",
			zap.String("riderID", riderID),
			zap.String("provider", providerName),
			zap.Error(err))
		result = &ProviderResult{Verified: true, Provider: providerName, Simulated: true}
	}

	status := OverallApproved
	riderStatus := "approved"
	if !result.Verified {
		status = OverallRejected
		riderStatus = "rejected"
	}
	if err := w.riders.SetKycStatus(ctx, riderID, riderStatus); err != nil {
		return "", nil, fmt.Errorf("failed to update rider status: %w", err)
	}

	w.logger.Info("automated verification completed",
		zap.String("riderID", riderID),
		zap.String("provider", providerName),
		zap.Bool("verified", result.Verified),
		zap.Bool("simulated", result.Simulated))
	w.publishStatusChange(ctx, riderID, previous, status)

	return status, result, nil
}

// SubmitForVerification checks that all four submission document types are
// present, notifies the external provider and moves the rider into the
// verification queue. Outside production the result is immediately approved;
// the gate is the configured Environment, never caller input.
func (w *Workflow) SubmitForVerification(ctx context.Context, riderID string) (OverallStatus, error) {
	rider, err := w.riders.FindByRiderID(ctx, riderID)
	if err != nil {
		return "", err
	}

	latest, err := w.registry.LatestByType(ctx, riderID)
	if err != nil {
		return "", err
	}
	var missing []models.DocumentType
	refs := make(map[models.DocumentType]string, len(models.SubmissionDocumentTypes))
	for _, t := range models.SubmissionDocumentTypes {
		doc, ok := latest[t]
		if !ok {
			missing = append(missing, t)
			continue
		}
		refs[t] = doc.DocumentImageURL
	}
	if len(missing) > 0 {
		return "", &MissingDocumentsError{Missing: missing}
	}

	previous, _, _ := Aggregate(latest)

	if err := w.provider.Submit(ctx, ProviderRequest{
		RiderID:   riderID,
		Name:      rider.Name,
		Phone:     rider.Phone,
		Documents: refs,
	}); err != nil {
		if w.env.IsProduction() {
			return "", fmt.Errorf("failed to submit rider for verification: %w", err)
		}
		w.logger.Warn("provider submission failed outside production, continuing",
			zap.String("riderID", riderID),
			zap.Error(err))
	}

	status := OverallPending
	if !w.env.IsProduction() {
		// Development convenience so local flows are not blocked on a
		// sandbox reviewer.
		status = OverallApproved
	}
	if err := w.riders.SetKycStatus(ctx, riderID, string(status)); err != nil {
		return "", fmt.Errorf("failed to update rider status: %w", err)
	}

	w.logger.Info("rider submitted for verification",
		zap.String("riderID", riderID),
		zap.String("status", string(status)))
	w.publishStatusChange(ctx, riderID, previous, status)

	return status, nil
}

// ListPendingForReview returns riders that have all four submission document
// types present and an overall pending status.
func (w *Workflow) ListPendingForReview(ctx context.Context) ([]PendingReview, error) {
	riderIDs, err := w.docs.RiderIDsWithDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list riders with documents: %w", err)
	}

	// Legacy-only riders have no registry rows yet may still be awaiting
	// review; their documents come from synthesis, so enumerate them by the
	// legacy kycStatus and merge the two sets.
	legacyIDs, err := w.riders.RiderIDsByKycStatus(ctx, string(OverallPending))
	if err != nil {
		return nil, fmt.Errorf("failed to list pending riders: %w", err)
	}
	seen := make(map[string]bool, len(riderIDs))
	for _, id := range riderIDs {
		seen[id] = true
	}
	for _, id := range legacyIDs {
		if !seen[id] {
			seen[id] = true
			riderIDs = append(riderIDs, id)
		}
	}

	submissions := []PendingReview{}
	for _, riderID := range riderIDs {
		latest, err := w.registry.LatestByType(ctx, riderID)
		if err != nil {
			w.logger.Warn("skipping rider in review queue", zap.String("riderID", riderID), zap.Error(err))
			continue
		}

		complete := true
		for _, t := range models.SubmissionDocumentTypes {
			if _, ok := latest[t]; !ok {
				complete = false
				break
			}
		}
		if !complete {
			continue
		}

		overall, _, _ := Aggregate(latest)
		if overall != OverallPending {
			continue
		}

		rider, err := w.riders.FindByRiderID(ctx, riderID)
		if err != nil {
			w.logger.Warn("skipping rider in review queue", zap.String("riderID", riderID), zap.Error(err))
			continue
		}

		var last time.Time
		for _, doc := range latest {
			if doc.UpdatedAt.After(last) {
				last = doc.UpdatedAt
			}
		}
		submissions = append(submissions, PendingReview{
			RiderID:       riderID,
			Name:          rider.Name,
			Phone:         rider.Phone,
			DocumentCount: len(latest),
			LastActivity:  last,
		})
	}
	return submissions, nil
}

// GetDocumentsForReview returns a rider's registry rows, or the synthesized
// legacy equivalents for riders that predate the registry.
func (w *Workflow) GetDocumentsForReview(ctx context.Context, riderID string) ([]models.KycDocument, error) {
	return w.registry.ListDocuments(ctx, riderID)
}

func (w *Workflow) publishStatusChange(ctx context.Context, riderID string, previous, next OverallStatus) {
	if w.publisher == nil || previous == next {
		return
	}
	if err := w.publisher.PublishStatusChange(ctx, riderID, previous, next); err != nil {
		w.logger.Warn("failed to publish status change",
			zap.String("riderID", riderID),
			zap.Error(err))
	}
}
