// server/internal/api/handlers/kyc_handler.go
package handlers

import (
	"errors"
	"io"
	"net/http"

	"ev-fleet-rider-api-server/internal/kyc"
	"ev-fleet-rider-api-server/internal/models"
	"ev-fleet-rider-api-server/internal/socket"

	"github.com/gin-gonic/gin"
)

// KYCHandler exposes the rider-facing document endpoints.
type KYCHandler struct {
	Uploader *kyc.Uploader
	Registry *kyc.Registry
	Workflow *kyc.Workflow
	Hub      *socket.Hub
}

// UploadDocument accepts a multipart identity document, stores the bytes and
// records a pending registry row. Storage degradation is an operational
// concern, not a rider-facing failure: only invalid input errors here.
func (h *KYCHandler) UploadDocument(c *gin.Context) {
	riderID := c.Param("id")

	docType, err := models.ParseDocumentType(c.PostForm("documentType"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	documentNumber := c.PostForm("documentNumber")

	fileHeader, err := c.FormFile("document")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "document file is required", "details": err.Error()})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to open uploaded file", "details": err.Error()})
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read uploaded file", "details": err.Error()})
		return
	}

	// Check the rider before storing, so an unknown rider never leaves
	// orphan bytes in the object store.
	if err := h.Registry.EnsureRider(c.Request.Context(), riderID); err != nil {
		if errors.Is(err, kyc.ErrRiderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Rider not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load rider", "details": err.Error()})
		return
	}

	reference, degraded, err := h.Uploader.Store(c.Request.Context(), riderID, docType, data, fileHeader.Header.Get("Content-Type"))
	if err != nil {
		switch {
		case errors.Is(err, kyc.ErrEmptyDocument), errors.Is(err, kyc.ErrRiderIDRequired):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store document", "details": err.Error()})
		}
		return
	}

	doc, err := h.Registry.RecordUpload(c.Request.Context(), riderID, docType, reference, documentNumber)
	if err != nil {
		if errors.Is(err, kyc.ErrRiderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Rider not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record document", "details": err.Error()})
		return
	}

	h.Hub.BroadcastEvent("kyc.document.uploaded", riderID, string(docType))

	c.JSON(http.StatusCreated, gin.H{
		"documentID":  doc.DocumentID,
		"typeDisplay": docType.DisplayName(),
		"reference":   reference,
		"degraded":    degraded,
	})
}

// GetStatus derives the rider's overall verification status from the latest
// row per document type.
func (h *KYCHandler) GetStatus(c *gin.Context) {
	riderID := c.Param("id")

	documents, err := h.Registry.ListDocuments(c.Request.Context(), riderID)
	if err != nil {
		if errors.Is(err, kyc.ErrRiderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Rider not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load documents", "details": err.Error()})
		return
	}

	latest, err := h.Registry.LatestByType(c.Request.Context(), riderID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load documents", "details": err.Error()})
		return
	}
	overall, missing, completion := kyc.Aggregate(latest)

	c.JSON(http.StatusOK, gin.H{
		"overallStatus":        overall,
		"documents":            documents,
		"missingTypes":         missing,
		"completionPercentage": completion,
	})
}

// SubmitForVerification moves a rider with a complete document set into the
// verification queue.
func (h *KYCHandler) SubmitForVerification(c *gin.Context) {
	riderID := c.Param("id")

	status, err := h.Workflow.SubmitForVerification(c.Request.Context(), riderID)
	if err != nil {
		var missingErr *kyc.MissingDocumentsError
		switch {
		case errors.Is(err, kyc.ErrRiderNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Rider not found"})
		case errors.As(err, &missingErr):
			c.JSON(http.StatusBadRequest, gin.H{"error": missingErr.Error(), "missingTypes": missingErr.Missing})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to submit for verification", "details": err.Error()})
		}
		return
	}

	h.Hub.BroadcastEvent("kyc.submission.created", riderID, string(status))

	c.JSON(http.StatusOK, gin.H{"status": status})
}
