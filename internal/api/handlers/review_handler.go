// server/internal/api/handlers/review_handler.go
package handlers

import (
	"errors"
	"net/http"

	"ev-fleet-rider-api-server/internal/kyc"
	"ev-fleet-rider-api-server/internal/socket"

	"github.com/gin-gonic/gin"
)

// ReviewHandler exposes the reviewer/admin side of the verification workflow.
type ReviewHandler struct {
	Workflow *kyc.Workflow
	Registry *kyc.Registry
	Hub      *socket.Hub
}

type ManualVerifyRequest struct {
	Decision string `json:"decision" binding:"required"` // "verified" or "rejected"
	Reason   string `json:"reason"`
}

type AutoVerifyRequest struct {
	Provider string `json:"provider" binding:"required"`
}

// ListPendingForReview returns riders with all four documents present and an
// overall pending status.
func (h *ReviewHandler) ListPendingForReview(c *gin.Context) {
	submissions, err := h.Workflow.ListPendingForReview(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list pending submissions", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count":       len(submissions),
		"submissions": submissions,
	})
}

// GetDocumentsForReview returns a rider's document rows, legacy-synthesized
// when the rider predates the registry.
func (h *ReviewHandler) GetDocumentsForReview(c *gin.Context) {
	riderID := c.Param("id")

	documents, err := h.Workflow.GetDocumentsForReview(c.Request.Context(), riderID)
	if err != nil {
		if errors.Is(err, kyc.ErrRiderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Rider not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load documents", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, documents)
}

// ManualVerify records a reviewer's decision over all pending documents of a
// rider. A reason is mandatory when rejecting; the workflow itself accepts an
// absent reason for legacy flows, so the requirement lives here at the
// boundary.
func (h *ReviewHandler) ManualVerify(c *gin.Context) {
	riderID := c.Param("id")
	reviewerID := c.GetString("user_email")

	var req ManualVerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	decision := kyc.Decision(req.Decision)
	if decision == kyc.DecisionRejected && req.Reason == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reason is required when rejecting documents"})
		return
	}

	previous, next, err := h.Workflow.ManualVerify(c.Request.Context(), riderID, decision, req.Reason, reviewerID)
	if err != nil {
		switch {
		case errors.Is(err, kyc.ErrInvalidDecision):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, kyc.ErrRiderNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Rider not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record verification", "details": err.Error()})
		}
		return
	}

	h.Hub.BroadcastEvent("kyc.status.changed", riderID, string(next))

	c.JSON(http.StatusOK, gin.H{
		"previousStatus": previous,
		"newStatus":      next,
	})
}

// AutoVerify runs the automated third-party verification path for a rider.
func (h *ReviewHandler) AutoVerify(c *gin.Context) {
	riderID := c.Param("id")

	var req AutoVerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	status, result, err := h.Workflow.AutoVerify(c.Request.Context(), riderID, req.Provider)
	if err != nil {
		var missingErr *kyc.MissingDocumentsError
		switch {
		case errors.Is(err, kyc.ErrRiderNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Rider not found"})
		case errors.As(err, &missingErr):
			c.JSON(http.StatusBadRequest, gin.H{"error": missingErr.Error(), "missingTypes": missingErr.Missing})
		default:
			c.JSON(http.StatusBadGateway, gin.H{"error": "Verification provider failed", "details": err.Error()})
		}
		return
	}

	h.Hub.BroadcastEvent("kyc.status.changed", riderID, string(status))

	c.JSON(http.StatusOK, gin.H{
		"status":           status,
		"providerResponse": result,
	})
}
