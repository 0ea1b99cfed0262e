package routes

import (
	"github.com/gin-gonic/gin"

	"taskhub/internal/handlers"
	"taskhub/internal/middleware"
)

func SetupRoutes(
	r *gin.Engine,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	workspaceHandler *handlers.WorkspaceHandler,
	projectHandler *handlers.ProjectHandler,
	taskHandler *handlers.TaskHandler,
	reportHandler *handlers.ReportHandler,
	notificationHandler *handlers.NotificationHandler,
	analysisHandler *handlers.AnalysisHandler, // nil disables the analysis endpoint
) *gin.Engine {

	// ---- public
	r.POST("/register", authHandler.Register)
	r.POST("/login", authHandler.Login)
	r.POST("/refresh", authHandler.RefreshToken)
	r.GET("/healthz", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })

	// ---- protected
	r.Use(middleware.AuthMiddleware())

	// USERS
	users := r.Group("/users")
	{
		users.GET("/me", userHandler.Me)
		users.GET("/", userHandler.List)
		users.POST("/me/telegram", userHandler.LinkTelegram)
	}

	// WORKSPACES
	workspaces := r.Group("/workspaces")
	{
		workspaces.POST("/", workspaceHandler.Create)
		workspaces.GET("/", workspaceHandler.List)
		workspaces.GET("/:id", workspaceHandler.GetByID)
		workspaces.GET("/:id/members", workspaceHandler.ListMembers)
		workspaces.POST("/:id/members", workspaceHandler.AddMember)
		workspaces.PUT("/:id/members/:userId/role", workspaceHandler.UpdateMemberRole)
		workspaces.DELETE("/:id/members/:userId", workspaceHandler.RemoveMember)
		workspaces.GET("/:id/permissions", workspaceHandler.MyPermissions)
		workspaces.PUT("/:id/members/:userId/permissions", workspaceHandler.UpdateMemberPermissions)

		workspaces.GET("/:id/projects", projectHandler.ListByWorkspace)

		workspaces.POST("/:id/tasks/batch-complete", taskHandler.BatchComplete)
		workspaces.POST("/:id/tasks/batch-delete", taskHandler.BatchDelete)

		workspaces.POST("/:id/reports", reportHandler.Submit)
		workspaces.GET("/:id/reports", reportHandler.List)
		workspaces.GET("/:id/reports/pdf", reportHandler.ExportPDF)
		workspaces.POST("/:id/reports/digest", reportHandler.EmailDigest)

		if analysisHandler != nil {
			workspaces.POST("/:id/analyze", analysisHandler.AnalyzeWorkspace)
		}
	}

	// PROJECTS
	projects := r.Group("/projects")
	{
		projects.POST("/", projectHandler.Create)
		projects.GET("/:id", projectHandler.GetByID)
		projects.PUT("/:id/leader", projectHandler.SetLeader)
		projects.PUT("/:id/reporting", projectHandler.SetReportingRelation)
		projects.GET("/:id/subordinates", projectHandler.Subordinates)
	}

	// TASKS
	tasks := r.Group("/tasks")
	{
		tasks.POST("/", taskHandler.Create)
		tasks.GET("/", taskHandler.List)
		tasks.GET("/:id", taskHandler.GetByID)
		tasks.PUT("/:id", taskHandler.Update)
		tasks.DELETE("/:id", taskHandler.Delete)
		tasks.GET("/:id/events", taskHandler.ListEvents)

		tasks.POST("/:id/start", taskHandler.Start)
		tasks.POST("/:id/submit-review", taskHandler.SubmitForReview)
		tasks.POST("/:id/approve", taskHandler.Approve)
		tasks.POST("/:id/reject", taskHandler.Reject)
		tasks.POST("/:id/complete", taskHandler.Complete)
		tasks.POST("/:id/reopen", taskHandler.Reopen)
	}

	// NOTIFICATIONS
	notifications := r.Group("/notifications")
	{
		notifications.GET("/", notificationHandler.List)
		notifications.PUT("/read-all", notificationHandler.MarkAllRead)
		notifications.PUT("/:id/read", notificationHandler.MarkRead)
	}

	r.GET("/ws/notifications", notificationHandler.Stream)

	return r
}
