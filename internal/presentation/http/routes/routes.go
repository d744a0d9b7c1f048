// Package routes provides HTTP route configuration for the presentation layer.
package routes

import (
	"github.com/formflowhq/formflow-go/internal/application/container"
	"github.com/formflowhq/formflow-go/internal/presentation/http/handlers"
	"github.com/formflowhq/formflow-go/internal/presentation/http/middleware"
	"github.com/gin-gonic/gin"
)

// SetupRoutes configures all HTTP routes and middleware with dependency injection.
func SetupRoutes(container *container.Container) *gin.Engine {
	r := gin.Default()

	r.Use(middleware.CORSMiddleware())

	// Initialize handlers
	authHandlers := handlers.NewAuthHandlers(container.AuthService, container.Logger, container.PerfTracker)
	formHandlers := handlers.NewFormHandlers(container.FormService, container.Logger, container.PerfTracker)
	publicHandlers := handlers.NewPublicHandlers(container.FormService, container.EventService, container.SubmissionService, container.Logger, container.PerfTracker)
	submissionHandlers := handlers.NewSubmissionHandlers(container.SubmissionService, container.Logger, container.PerfTracker)
	analyticsHandlers := handlers.NewAnalyticsHandlers(container.FormService, container.AnalyticsService, container.DashboardAnalyticsService, container.Logger, container.PerfTracker)

	requireAuth := middleware.AuthMiddleware(container.Logger)

	api := r.Group("/api/v1")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandlers.PostRegister)
			auth.POST("/login", authHandlers.PostLogin)
			auth.POST("/refresh", authHandlers.PostRefresh)
			auth.POST("/logout", authHandlers.PostLogout)
			auth.GET("/me", requireAuth, authHandlers.GetMe)
		}

		// Public endpoints used by form-filling clients
		public := api.Group("/public/forms/:formId")
		{
			public.GET("/schema", publicHandlers.GetSchema)
			public.POST("/events", publicHandlers.PostEvent)
			public.POST("/submissions", publicHandlers.PostSubmission)
		}

		// Form builder endpoints
		forms := api.Group("/forms")
		forms.Use(requireAuth)
		{
			forms.GET("", formHandlers.GetForms)
			forms.POST("", formHandlers.PostForm)
			forms.GET("/:formId", formHandlers.GetForm)
			forms.PUT("/:formId", formHandlers.PutForm)
			forms.DELETE("/:formId", formHandlers.DeleteForm)
			forms.POST("/:formId/publish", formHandlers.PostPublish)
			forms.POST("/:formId/archive", formHandlers.PostArchive)

			forms.POST("/:formId/steps", formHandlers.PostStep)
			forms.PUT("/:formId/steps/reorder", formHandlers.PutReorderSteps)
			forms.PUT("/:formId/steps/:stepId", formHandlers.PutStep)
			forms.DELETE("/:formId/steps/:stepId", formHandlers.DeleteStep)
			forms.POST("/:formId/steps/:stepId/fields", formHandlers.PostField)
			forms.PUT("/:formId/steps/:stepId/fields/reorder", formHandlers.PutReorderFields)
			forms.PUT("/:formId/fields/:fieldId", formHandlers.PutField)
			forms.DELETE("/:formId/fields/:fieldId", formHandlers.DeleteField)

			forms.GET("/:formId/submissions", submissionHandlers.GetFormSubmissions)
		}

		api.GET("/submissions/:submissionId", requireAuth, submissionHandlers.GetSubmission)

		// Analytics endpoints
		analytics := api.Group("/analytics")
		analytics.Use(requireAuth)
		{
			analytics.GET("/forms/:formId/overview", analyticsHandlers.GetOverview)
			analytics.GET("/forms/:formId/funnel", analyticsHandlers.GetFunnel)
			analytics.GET("/forms/:formId/timeline", analyticsHandlers.GetTimeline)
			analytics.GET("/dashboard", analyticsHandlers.GetDashboard)
		}
	}

	return r
}
