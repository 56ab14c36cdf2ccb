package main

import (
	"log"
	"os"

	"fundflow-service/internal/database"
	"fundflow-service/internal/handlers"
	"fundflow-service/internal/middleware"
	"fundflow-service/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found in current directory, trying parent")
		if err := godotenv.Load("../.env"); err != nil {
			log.Println("No .env file found, using system environment variables")
		}
	}

	if mode := os.Getenv("GIN_MODE"); mode != "" {
		gin.SetMode(mode)
	}

	// Initialize Database
	database.Connect()
	database.Migrate()
	db := database.DB

	// Redis/Asynq Client
	redisAddr := os.Getenv("REDIS_URL")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: redisAddr})
	defer asynqClient.Close()

	// Init Services
	ledgerService := services.NewLedgerService(db)
	settingsService := services.NewSettingsService(db)
	cashfreeService := services.NewCashfreeService(db)
	collectionService := services.NewCollectionService(db, ledgerService)
	paymentService := services.NewPaymentService(db, ledgerService, cashfreeService, settingsService)
	withdrawalService := services.NewWithdrawalService(db, ledgerService, settingsService, cashfreeService, asynqClient)
	kycService := services.NewKYCService(db)

	// Handlers
	collectionHandler := handlers.NewCollectionHandler(collectionService)
	paymentHandler := handlers.NewPaymentHandler(paymentService, cashfreeService)
	withdrawalHandler := handlers.NewWithdrawalHandler(withdrawalService)
	kycHandler := handlers.NewKYCHandler(kycService)
	adminHandler := handlers.NewAdminHandler(kycService, withdrawalService, settingsService, collectionService)

	// Initialize Gin
	r := gin.Default()

	// Ping endpoint
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "Welcome to FundFlow service",
		})
	})

	api := r.Group("/api/v1")

	// Public routes
	api.GET("/categories", collectionHandler.Categories)
	api.GET("/stats", collectionHandler.PublicStats)
	api.GET("/collections", collectionHandler.List)
	api.GET("/collections/:id", collectionHandler.Get)
	api.GET("/collections/:id/donations", collectionHandler.ListDonations)
	api.GET("/c/:link", collectionHandler.GetByShareLink)
	api.POST("/collections/:id/donate", paymentHandler.InitiateDonation)
	api.GET("/payments/verify/:orderId", paymentHandler.VerifyOrder)
	api.POST("/payments/webhook", paymentHandler.Webhook)

	// Authenticated routes
	auth := api.Group("/")
	auth.Use(middleware.AuthRequired())
	auth.POST("/collections", collectionHandler.Create)
	auth.GET("/collections/mine", collectionHandler.ListMine)
	auth.GET("/collections/:id/stats", collectionHandler.Stats)
	auth.POST("/collections/:id/withdrawals", withdrawalHandler.Request)
	auth.GET("/withdrawals", withdrawalHandler.ListMine)
	auth.POST("/kyc", kycHandler.Submit)
	auth.GET("/kyc/status", kycHandler.Status)

	// Admin routes
	admin := api.Group("/admin")
	admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
	admin.GET("/kyc/pending", adminHandler.ListPendingKYC)
	admin.POST("/kyc/:userId/review", adminHandler.ReviewKYC)
	admin.GET("/withdrawals", adminHandler.ListWithdrawals)
	admin.POST("/withdrawals/:id/decide", adminHandler.DecideWithdrawal)
	admin.GET("/settings", adminHandler.GetSettings)
	admin.PATCH("/settings", adminHandler.UpdateSettings)
	admin.GET("/summary", adminHandler.Summary)

	// Start Cron Schedulers
	paymentService.StartScheduler()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("HTTP Server starting on port %s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatal("Failed to start server: ", err)
	}
}
