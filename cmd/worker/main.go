package main

import (
	"log"
	"os"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"fundflow-service/internal/consumers"
	"fundflow-service/internal/database"
	"fundflow-service/internal/services"
	"fundflow-service/internal/worker"
)

func main() {
	// Load env
	if err := godotenv.Load("../../.env"); err != nil {
		log.Println("No .env file found in ../../.env, trying .env")
		if err := godotenv.Load(".env"); err != nil {
			log.Println("No .env file found, using system env")
		}
	}

	// Connect DB
	database.Connect()
	db := database.DB

	// Init Services
	ledgerService := services.NewLedgerService(db)
	settingsService := services.NewSettingsService(db)
	cashfreeService := services.NewCashfreeService(db)

	// The worker never enqueues, so no asynq client is wired in.
	withdrawalService := services.NewWithdrawalService(db, ledgerService, settingsService, cashfreeService, nil)

	// Processor
	processor := consumers.NewPayoutProcessor(withdrawalService)

	// Settlement poller runs alongside the queue consumer.
	withdrawalService.StartScheduler()

	// Redis
	redisAddr := os.Getenv("REDIS_URL")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	redisOpt := asynq.RedisClientOpt{Addr: redisAddr}

	log.Println("Starting Asynq Worker...")
	worker.StartWorker(redisOpt, processor)
}
