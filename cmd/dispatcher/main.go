package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"motorreach/internal/config"
	"motorreach/internal/provider"
	"motorreach/internal/queue"
	"motorreach/internal/repository"
	"motorreach/internal/service"
)

func main() {
	// Load .env file (ignore error in production)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Connect to database
	db, err := sql.Open("postgres", cfg.GetDatabaseDSN())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}
	log.Println("Connected to database")

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})

	// Repositories
	contactRepo := repository.NewContactRepository(db)
	optOutRepo := repository.NewOptOutRepository(db)
	campaignRepo := repository.NewCampaignRepository(db)
	recipientRepo := repository.NewRecipientRepository(db)
	messageRepo := repository.NewMessageLogRepository(db)

	// Services
	templateSvc := service.NewTemplateService()
	optOutSvc := service.NewOptOutService(optOutRepo, contactRepo, redisClient)

	var providerClient provider.Client
	if cfg.Provider.Mock {
		log.Printf("Using mock provider (success rate %.2f)", cfg.Provider.SuccessRate)
		providerClient = provider.NewMockClient(cfg.Provider.SuccessRate)
	} else {
		log.Println("Using Twilio provider")
		providerClient = provider.NewTwilioClient(
			cfg.Provider.BaseURL,
			cfg.Provider.AccountID,
			cfg.Provider.AuthToken,
			cfg.Provider.FromNumber,
		)
	}

	pipelineSvc := service.NewPipelineService(
		campaignRepo, contactRepo, recipientRepo, messageRepo,
		optOutSvc, templateSvc, providerClient,
	)
	webhookSvc := service.NewWebhookService(contactRepo, recipientRepo, messageRepo, optOutSvc)
	dispatchSvc := service.NewDispatchService(
		campaignRepo, recipientRepo, pipelineSvc,
		cfg.Dispatch.Interval, cfg.Dispatch.CampaignBatch, cfg.Dispatch.RecipientBatch,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Delivery-report consumer: the broker is optional, without it delivery
	// statuses only arrive through the inline webhook fallback in the API
	var consumer *queue.Consumer
	queueConn, err := queue.NewConnection(cfg.GetRabbitMQURL())
	if err != nil {
		log.Printf("Warning: RabbitMQ unavailable, delivery reports will not be consumed: %v", err)
	} else {
		defer queueConn.Close()
		consumer, err = queue.NewConsumer(queueConn, cfg.RabbitMQ.Queue, func(event *queue.StatusEvent) error {
			return webhookSvc.ApplyStatusEvent(ctx, event)
		})
		if err != nil {
			log.Printf("Warning: failed to create consumer: %v", err)
		} else if err := consumer.Start(); err != nil {
			log.Printf("Warning: failed to start consumer: %v", err)
			consumer = nil
		} else {
			log.Printf("Consuming delivery reports from queue %q", cfg.RabbitMQ.Queue)
		}
	}

	go dispatchSvc.Run(ctx)
	log.Printf("Dispatcher started (interval %s)", cfg.Dispatch.Interval)

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Printf("Received signal %v, shutting down...", sig)

	cancel()
	if consumer != nil {
		consumer.Stop()
	}
	log.Println("Dispatcher stopped")
}
