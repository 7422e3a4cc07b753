package kyc

import (
	"context"
	"fmt"
	"sync"

	"ev-fleet-rider-api-server/internal/models"
)

// In-memory repositories for exercising the engine without MongoDB.

type memDocumentRepository struct {
	mu   sync.Mutex
	docs []models.KycDocument
}

func (m *memDocumentRepository) Insert(ctx context.Context, doc *models.KycDocument) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs = append(m.docs, *doc)
	return nil
}

func (m *memDocumentRepository) ListByRider(ctx context.Context, riderID string) ([]models.KycDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.KycDocument
	for _, d := range m.docs {
		if d.RiderID == riderID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *memDocumentRepository) UpdateStatus(ctx context.Context, documentID string, update StatusUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.docs {
		if m.docs[i].DocumentID != documentID {
			continue
		}
		m.docs[i].VerificationStatus = update.Status
		m.docs[i].UpdatedAt = update.UpdatedAt
		if update.Notes != "" {
			m.docs[i].VerificationNotes = update.Notes
		}
		if update.VerifiedBy != "" {
			m.docs[i].VerifiedBy = update.VerifiedBy
		}
		if update.VerificationDate != nil {
			m.docs[i].VerificationDate = update.VerificationDate
		}
		return nil
	}
	return fmt.Errorf("document %s not found", documentID)
}

func (m *memDocumentRepository) RiderIDsWithDocuments(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := map[string]bool{}
	var out []string
	for _, d := range m.docs {
		if !seen[d.RiderID] {
			seen[d.RiderID] = true
			out = append(out, d.RiderID)
		}
	}
	return out, nil
}

func (m *memDocumentRepository) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.docs)
}

type memRiderRepository struct {
	mu     sync.Mutex
	riders map[string]*models.Rider
}

func newMemRiderRepository(riders ...*models.Rider) *memRiderRepository {
	m := &memRiderRepository{riders: make(map[string]*models.Rider)}
	for _, r := range riders {
		m.riders[r.RiderID] = r
	}
	return m
}

func (m *memRiderRepository) FindByRiderID(ctx context.Context, riderID string) (*models.Rider, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rider, ok := m.riders[riderID]
	if !ok {
		return nil, ErrRiderNotFound
	}
	copied := *rider
	return &copied, nil
}

func (m *memRiderRepository) SetLegacyDocument(ctx context.Context, riderID string, docType models.DocumentType, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rider, ok := m.riders[riderID]
	if !ok {
		return ErrRiderNotFound
	}
	switch docType {
	case models.DocumentTypeAadhaar:
		rider.AadhaarCardURL = &url
	case models.DocumentTypePAN:
		rider.PanCardURL = &url
	case models.DocumentTypeDrivingLicense:
		rider.DrivingLicenseURL = &url
	case models.DocumentTypeSelfie:
		rider.SelfieURL = &url
	}
	return nil
}

func (m *memRiderRepository) SetKycStatus(ctx context.Context, riderID string, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rider, ok := m.riders[riderID]
	if !ok {
		return ErrRiderNotFound
	}
	rider.KycStatus = status
	return nil
}

func (m *memRiderRepository) RiderIDsByKycStatus(ctx context.Context, status string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for id, r := range m.riders {
		if r.KycStatus == status {
			out = append(out, id)
		}
	}
	return out, nil
}

func (m *memRiderRepository) kycStatus(riderID string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.riders[riderID].KycStatus
}

// mockObjectStore is a function-field ObjectStore fake.
type mockObjectStore struct {
	uploadFunc func(ctx context.Context, key string, data []byte, contentType string) (string, error)
	configured bool
}

func (m *mockObjectStore) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if m.uploadFunc != nil {
		return m.uploadFunc(ctx, key, data, contentType)
	}
	return "https://cdn.example.com/" + key, nil
}

func (m *mockObjectStore) Configured() bool {
	return m.configured
}

// mockProvider is a function-field VerificationProvider fake.
type mockProvider struct {
	verifyFunc func(ctx context.Context, req ProviderRequest) (*ProviderResult, error)
	submitFunc func(ctx context.Context, req ProviderRequest) error
}

func (m *mockProvider) Verify(ctx context.Context, req ProviderRequest) (*ProviderResult, error) {
	if m.verifyFunc != nil {
		return m.verifyFunc(ctx, req)
	}
	return &ProviderResult{Verified: true}, nil
}

func (m *mockProvider) Submit(ctx context.Context, req ProviderRequest) error {
	if m.submitFunc != nil {
		return m.submitFunc(ctx, req)
	}
	return nil
}

// mockPublisher records published status transitions.
type mockPublisher struct {
	mu     sync.Mutex
	events []string
}

func (m *mockPublisher) PublishStatusChange(ctx context.Context, riderID string, previous, next OverallStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, fmt.Sprintf("%s:%s->%s", riderID, previous, next))
	return nil
}
