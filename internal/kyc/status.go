// server/internal/kyc/status.go
package kyc

import (
	"math"

	"ev-fleet-rider-api-server/internal/models"
)

// OverallStatus is the rider-level verification state derived from the
// per-document states.
type OverallStatus string

const (
	OverallIncomplete OverallStatus = "incomplete"
	OverallPending    OverallStatus = "pending"
	OverallApproved   OverallStatus = "approved"
	OverallRejected   OverallStatus = "rejected"
)

// Aggregate reduces a rider's latest-per-type documents to an overall status,
// the list of missing required types and a submission-completeness
// percentage.
//
// Precedence is incomplete > rejected > pending > approved: a single rejected
// document surfaces rejection even while others await review, because
// rejection is the state that needs rider follow-up. The completion
// percentage measures upload progress only and is deliberately independent of
// verification outcome.
func Aggregate(latest map[models.DocumentType]models.KycDocument) (OverallStatus, []models.DocumentType, int) {
	missing := []models.DocumentType{}
	for _, t := range models.RequiredDocumentTypes {
		if _, ok := latest[t]; !ok {
			missing = append(missing, t)
		}
	}

	completion := int(math.Round(100 * float64(len(latest)) / float64(len(models.RequiredDocumentTypes))))

	if len(missing) > 0 {
		return OverallIncomplete, missing, completion
	}

	anyPending := false
	for _, doc := range latest {
		switch doc.VerificationStatus {
		case models.VerificationStatusRejected:
			return OverallRejected, missing, completion
		case models.VerificationStatusPending:
			anyPending = true
		}
	}
	if anyPending {
		return OverallPending, missing, completion
	}
	return OverallApproved, missing, completion
}
