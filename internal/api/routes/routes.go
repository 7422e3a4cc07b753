// server/internal/api/routes/routes.go
package routes

import (
	"net/http"

	"ev-fleet-rider-api-server/internal/api/handlers"
	"ev-fleet-rider-api-server/internal/api/middleware"
	"ev-fleet-rider-api-server/internal/kyc"
	"ev-fleet-rider-api-server/internal/socket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// SetupRouter wires the KYC engine components into the HTTP boundary.
func SetupRouter(
	uploader *kyc.Uploader,
	registry *kyc.Registry,
	workflow *kyc.Workflow,
	wsHub *socket.Hub,
) *gin.Engine {
	router := gin.Default()
	router.Use(cors.Default())

	kycHandler := &handlers.KYCHandler{Uploader: uploader, Registry: registry, Workflow: workflow, Hub: wsHub}
	reviewHandler := &handlers.ReviewHandler{Workflow: workflow, Registry: registry, Hub: wsHub}
	webSocketHandler := &handlers.WebSocketHandler{Hub: wsHub}

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiV1 := router.Group("/api/v1")
	{
		// Reviewer dashboards authenticate via a token query parameter.
		apiV1.GET("/ws", webSocketHandler.ServeWs)

		// Rider-facing KYC routes. Tokens come from the fleet gateway.
		riders := apiV1.Group("/riders")
		riders.Use(middleware.Authenticate())
		riders.Use(middleware.Authorize("rider", "admin"))
		{
			riders.POST("/:id/documents", kycHandler.UploadDocument)
			riders.GET("/:id/kyc-status", kycHandler.GetStatus)
			riders.POST("/:id/kyc/submit", kycHandler.SubmitForVerification)
		}

		// Reviewer/admin routes.
		admin := apiV1.Group("/admin/kyc")
		admin.Use(middleware.Authenticate())
		admin.Use(middleware.Authorize("reviewer", "admin"))
		{
			admin.GET("/pending", reviewHandler.ListPendingForReview)
			admin.GET("/riders/:id/documents", reviewHandler.GetDocumentsForReview)
			admin.POST("/riders/:id/verify", reviewHandler.ManualVerify)
			admin.POST("/riders/:id/auto-verify", reviewHandler.AutoVerify)
		}
	}

	return router
}
