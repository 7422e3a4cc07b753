package handlers

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ev-fleet-rider-api-server/config"
	"ev-fleet-rider-api-server/internal/kyc"
	"ev-fleet-rider-api-server/internal/models"
	"ev-fleet-rider-api-server/internal/socket"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// countingStore records how many objects were actually put.
type countingStore struct {
	puts int
}

func (s *countingStore) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	s.puts++
	return "https://cdn.example.com/" + key, nil
}

func (s *countingStore) Configured() bool { return true }

type stubDocumentRepo struct {
	docs []models.KycDocument
}

func (r *stubDocumentRepo) Insert(ctx context.Context, doc *models.KycDocument) error {
	r.docs = append(r.docs, *doc)
	return nil
}

func (r *stubDocumentRepo) ListByRider(ctx context.Context, riderID string) ([]models.KycDocument, error) {
	return r.docs, nil
}

func (r *stubDocumentRepo) UpdateStatus(ctx context.Context, documentID string, update kyc.StatusUpdate) error {
	return nil
}

func (r *stubDocumentRepo) RiderIDsWithDocuments(ctx context.Context) ([]string, error) {
	return nil, nil
}

type stubRiderRepo struct {
	riders map[string]*models.Rider
}

func (r *stubRiderRepo) FindByRiderID(ctx context.Context, riderID string) (*models.Rider, error) {
	rider, ok := r.riders[riderID]
	if !ok {
		return nil, kyc.ErrRiderNotFound
	}
	return rider, nil
}

func (r *stubRiderRepo) SetLegacyDocument(ctx context.Context, riderID string, docType models.DocumentType, url string) error {
	return nil
}

func (r *stubRiderRepo) SetKycStatus(ctx context.Context, riderID string, status string) error {
	return nil
}

func (r *stubRiderRepo) RiderIDsByKycStatus(ctx context.Context, status string) ([]string, error) {
	return nil, nil
}

func multipartDocument(t *testing.T, docType string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	require.NoError(t, writer.WriteField("documentType", docType))
	part, err := writer.CreateFormFile("document", "aadhaar.jpg")
	require.NoError(t, err)
	_, err = part.Write([]byte("image bytes"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func newUploadRouter(t *testing.T, store kyc.ObjectStore, riders map[string]*models.Rider) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zaptest.NewLogger(t)

	uploader := kyc.NewUploader(store, config.EnvStaging, time.Second, logger)
	registry := kyc.NewRegistry(&stubDocumentRepo{}, &stubRiderRepo{riders: riders}, logger)
	handler := &KYCHandler{Uploader: uploader, Registry: registry, Hub: socket.NewHub()}

	router := gin.New()
	router.POST("/riders/:id/documents", handler.UploadDocument)
	return router
}

func TestUploadDocumentUnknownRiderStoresNothing(t *testing.T) {
	store := &countingStore{}
	router := newUploadRouter(t, store, map[string]*models.Rider{})

	body, contentType := multipartDocument(t, "aadhaar")
	req := httptest.NewRequest(http.MethodPost, "/riders/RDR-404/documents", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, 0, store.puts, "no object may be stored for an unknown rider")
}

func TestUploadDocumentKnownRider(t *testing.T) {
	store := &countingStore{}
	rider := &models.Rider{RiderID: "RDR-1", Name: "Asha Kumari", KycStatus: "pending"}
	router := newUploadRouter(t, store, map[string]*models.Rider{"RDR-1": rider})

	body, contentType := multipartDocument(t, "aadhaar")
	req := httptest.NewRequest(http.MethodPost, "/riders/RDR-1/documents", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 1, store.puts)
}
