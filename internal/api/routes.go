package api

import (
	"net/http"

	"fitmarket/coaching-app/internal/domain"

	"github.com/gin-gonic/gin"
)

// SetupRoutes configures the API routes on the Gin engine.
func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	authHandler *AuthHandler,
	coachingHandler *CoachingHandler,
	planHandler *PlanHandler,
) {
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	v1 := router.Group("/api/v1")

	auth := v1.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
	}

	protected := v1.Group("")
	protected.Use(AuthMiddleware(jwtSecret))
	{
		protected.GET("/users/me", authHandler.Me)

		trainerOnly := RoleMiddleware(domain.RoleTrainer)
		clientOnly := RoleMiddleware(domain.RoleClient)

		requests := protected.Group("/coaching/requests")
		{
			requests.POST("", clientOnly, coachingHandler.CreateRequest)
			requests.GET("", trainerOnly, coachingHandler.ListForTrainer)
			requests.GET("/mine", clientOnly, coachingHandler.ListForClient)

			requests.GET("/:requestId/session", trainerOnly, coachingHandler.GetActiveSession)
			requests.PATCH("/:requestId", trainerOnly, coachingHandler.Respond)
			requests.DELETE("/:requestId", clientOnly, coachingHandler.Withdraw)

			requests.POST("/:requestId/plans", trainerOnly, coachingHandler.AssignPlan)
			requests.GET("/:requestId/plans", coachingHandler.GetAssignedPlans)
			requests.PUT("/:requestId/plans/:assignedPlanId", trainerOnly, coachingHandler.EditAssignedPlan)

			requests.POST("/:requestId/plans/:assignedPlanId/attachments/upload-url", trainerOnly, planHandler.RequestUploadURL)
			requests.POST("/:requestId/plans/:assignedPlanId/attachments", trainerOnly, planHandler.ConfirmAttachment)
			requests.GET("/:requestId/plans/:assignedPlanId/attachments", planHandler.GetAttachments)
			requests.GET("/:requestId/plans/:assignedPlanId/attachments/:attachmentId/download-url", planHandler.GetAttachmentDownloadURL)
		}

		plans := protected.Group("/plans")
		plans.Use(trainerOnly)
		{
			plans.POST("", planHandler.CreateTemplate)
			plans.GET("", planHandler.GetTemplates)
			plans.PUT("/:planId", planHandler.UpdateTemplate)
			plans.DELETE("/:planId", planHandler.DeleteTemplate)
		}
	}
}
