package main

import (
	_ "backend/api/swagger" // swagger docs
	"backend/internal/database"
	"backend/internal/handler"
	"backend/internal/middleware"
	"backend/internal/repository"
	"backend/internal/service"
	"backend/internal/websocket"
	"log"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Community Moderation API
// @version         1.0
// @description     Backend for community join requests, pulses, marketplace listings and event registrations with a shared review workflow.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	dbHost := os.Getenv("DB_HOST")
	dbPort := os.Getenv("DB_PORT")
	dbUser := os.Getenv("DB_USER")
	dbPassword := os.Getenv("DB_PASSWORD")
	dbName := os.Getenv("DB_NAME")
	dbSslMode := os.Getenv("DB_SSLMODE")

	if dbHost == "" {
		dbHost = "localhost"
	}
	if dbPort == "" {
		dbPort = "5432"
	}
	if dbUser == "" {
		dbUser = "postgres"
	}
	if dbPassword == "" {
		dbPassword = "postgres"
	}
	if dbName == "" {
		dbName = "postgres"
	}
	if dbSslMode == "" {
		dbSslMode = "disable"
	}

	dsn := "postgres://" + dbUser + ":" + dbPassword + "@" + dbHost + ":" + dbPort + "/" + dbName + "?sslmode=" + dbSslMode

	db, err := database.NewConnection(dsn)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	log.Println("Connected to PostgreSQL successfully.")

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	communityRepo := repository.NewCommunityRepository(db)
	joinRequestRepo := repository.NewJoinRequestRepository(db)
	pulseRepo := repository.NewPulseRepository(db)
	listingRepo := repository.NewListingRepository(db)
	eventRepo := repository.NewEventRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	auditService := service.NewAuditService(auditRepo)
	userService := service.NewUserService(userRepo, middleware.GetJWTSecret())
	notificationService := service.NewNotificationService(notificationRepo, wsHub)
	communityService := service.NewCommunityService(communityRepo, joinRequestRepo, userRepo, auditService)
	pulseService := service.NewPulseService(pulseRepo, communityRepo, auditService)
	listingService := service.NewListingService(listingRepo, communityRepo, auditService, txManager)
	eventService := service.NewEventService(eventRepo, communityRepo, auditService)

	moderationService := service.NewModerationService(
		notificationService,
		auditService,
		service.NewJoinRequestAdapter(joinRequestRepo, communityRepo),
		service.NewPulseAdapter(pulseRepo),
		service.NewListingAdapter(listingRepo),
		service.NewEventRegistrationAdapter(eventRepo),
	)

	// Initialize Handlers
	userHandler := handler.NewUserHandler(userService)
	communityHandler := handler.NewCommunityHandler(communityService)
	pulseHandler := handler.NewPulseHandler(pulseService)
	listingHandler := handler.NewListingHandler(listingService)
	eventHandler := handler.NewEventHandler(eventService)
	moderationHandler := handler.NewModerationHandler(moderationService)
	notificationHandler := handler.NewNotificationHandler(notificationService)
	auditHandler := handler.NewAuditHandler(auditService)

	// Actor middleware resolves the caller's moderation identity; for
	// managers the scope comes from a fresh lookup on every request.
	actorMiddleware := middleware.ActorContext(communityRepo)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173", "http://localhost:5174"} // Frontend URL
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	// Register API Routes
	userHandler.RegisterRoutes(router.Group(""))
	communityHandler.RegisterRoutes(router.Group(""), actorMiddleware)
	pulseHandler.RegisterRoutes(router.Group(""), actorMiddleware)
	listingHandler.RegisterRoutes(router.Group(""), actorMiddleware)
	eventHandler.RegisterRoutes(router.Group(""), actorMiddleware)
	moderationHandler.RegisterRoutes(router.Group(""), actorMiddleware)
	notificationHandler.RegisterRoutes(router.Group(""), actorMiddleware)
	auditHandler.RegisterRoutes(router.Group(""))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server listening on :%s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
