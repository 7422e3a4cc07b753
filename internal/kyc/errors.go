// server/internal/kyc/errors.go
package kyc

import (
	"errors"
	"fmt"
	"strings"

	"ev-fleet-rider-api-server/internal/models"
)

var (
	ErrRiderNotFound        = errors.New("rider not found")
	ErrEmptyDocument        = errors.New("document data is empty")
	ErrRiderIDRequired      = errors.New("rider id is required")
	ErrStorageNotConfigured = errors.New("object storage is not configured")
	ErrInvalidDecision      = errors.New("decision must be verified or rejected")
)

// MissingDocumentsError is a validation error naming the document types a
// rider still has to upload.
type MissingDocumentsError struct {
	Missing []models.DocumentType
}

func (e *MissingDocumentsError) Error() string {
	names := make([]string, 0, len(e.Missing))
	for _, t := range e.Missing {
		names = append(names, t.DisplayName())
	}
	return fmt.Sprintf("missing required documents: %s", strings.Join(names, ", "))
}
