package app

import (
	"database/sql"
	"fmt"

	"taskhub/internal/authz"
	"taskhub/internal/config"
	"taskhub/internal/handlers"
	"taskhub/internal/logging"
	"taskhub/internal/middleware"
	"taskhub/internal/pdf"
	"taskhub/internal/realtime"
	"taskhub/internal/repositories"
	"taskhub/internal/routes"
	"taskhub/internal/services"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	_ "taskhub/docs"
)

func Run() {
	cfg := config.LoadConfig()

	logging.Init(cfg.Logging.Dir, cfg.Logging.Level)
	middleware.SetSigningKey(cfg.JWT.Secret)

	// === DB ===
	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		logging.L.Fatalf("[app] db open: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.L.Printf("[app] db close: %v", err)
		}
	}()
	if err := db.Ping(); err != nil {
		logging.L.Fatalf("[app] db ping: %v", err)
	}

	// === Repos ===
	userRepo := repositories.NewUserRepository(db)
	workspaceRepo := repositories.NewWorkspaceRepository(db)
	membershipRepo := repositories.NewMembershipRepository(db)
	projectRepo := repositories.NewProjectRepository(db)
	taskRepo := repositories.NewTaskRepository(db)
	eventRepo := repositories.NewEventRepository(db)
	edgeRepo := repositories.NewReportingEdgeRepository(db)
	notificationRepo := repositories.NewNotificationRepository(db)
	reportRepo := repositories.NewReportRepository(db)

	// === Authorization ===
	resolver := authz.NewResolver(membershipRepo)

	// === Realtime ===
	hub := realtime.NewNotificationHub()

	// === Services ===
	authService := services.NewAuthService()
	emailService := services.NewEmailService(
		cfg.Email.SMTPHost,
		cfg.Email.SMTPPort,
		cfg.Email.SMTPUser,
		cfg.Email.SMTPPassword,
		cfg.Email.FromEmail,
	)
	userService := services.NewUserService(userRepo, emailService, authService)

	telegram, err := services.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.DryRun)
	if err != nil {
		logging.L.Fatalf("[app] telegram init: %v", err)
	}
	notificationService := services.NewNotificationService(
		notificationRepo, taskRepo, projectRepo, userRepo,
		hub, telegram, logging.L.Printf,
	)

	workspaceService := services.NewWorkspaceService(workspaceRepo, membershipRepo, resolver)
	permissionService := services.NewPermissionService(membershipRepo, resolver)
	projectService := services.NewProjectService(projectRepo, membershipRepo, resolver)
	hierarchyService := services.NewHierarchyService(edgeRepo, projectRepo, resolver)
	taskService := services.NewTaskService(
		taskRepo, projectRepo, eventRepo,
		resolver, hierarchyService, notificationService,
	)
	batchService := services.NewBatchService(taskRepo, projectRepo, taskService)

	pdfGen := pdf.NewReportGenerator(cfg.Files.RootDir, cfg.Files.FontPath)
	reportService := services.NewReportService(
		reportRepo, userRepo, projectRepo, workspaceRepo,
		hierarchyService, resolver, pdfGen, emailService,
	)

	analyzer := services.NewChatAnalyzer(
		cfg.Analysis.BaseURL,
		cfg.Analysis.APIKey,
		cfg.Analysis.Model,
		cfg.Analysis.DryRun,
	)
	analysisService := services.NewAnalysisService(taskRepo, projectRepo, resolver, analyzer)

	// === Handlers ===
	authHandler := handlers.NewAuthHandler(userService, authService, cfg.JWT)
	userHandler := handlers.NewUserHandler(userService)
	workspaceHandler := handlers.NewWorkspaceHandler(workspaceService, permissionService)
	projectHandler := handlers.NewProjectHandler(projectService, hierarchyService)
	taskHandler := handlers.NewTaskHandler(taskService, batchService)
	reportHandler := handlers.NewReportHandler(reportService)
	notificationHandler := handlers.NewNotificationHandler(notificationService, hub)
	analysisHandler := handlers.NewAnalysisHandler(analysisService)

	// === Gin ===
	router := gin.Default()
	router.Use(corsMiddleware())

	// Swagger
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	routes.SetupRoutes(
		router,
		authHandler,
		userHandler,
		workspaceHandler,
		projectHandler,
		taskHandler,
		reportHandler,
		notificationHandler,
		analysisHandler,
	)

	// === Run ===
	listenAddr := fmt.Sprintf(":%d", cfg.Server.Port)
	logging.L.Printf("[app] listening on %s", listenAddr)
	if err := router.Run(listenAddr); err != nil {
		logging.L.Fatalf("[app] server: %v", err)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
