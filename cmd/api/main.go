package main

import (
	"database/sql"
	"log"
	"net/http"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"motorreach/internal/config"
	"motorreach/internal/handler"
	"motorreach/internal/middleware"
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

	// Opt-out cache; the API degrades to database-only checks without it
	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})

	// RabbitMQ is optional for the API: status callbacks fall back to
	// synchronous handling when the broker is unavailable
	var queueConn *queue.Connection
	var publisher *queue.Publisher
	queueConn, err = queue.NewConnection(cfg.GetRabbitMQURL())
	if err != nil {
		log.Printf("Warning: RabbitMQ unavailable, status callbacks will apply inline: %v", err)
		queueConn = nil
	} else {
		defer queueConn.Close()
		publisher, err = queue.NewPublisher(queueConn, cfg.RabbitMQ.Queue)
		if err != nil {
			log.Printf("Warning: failed to create publisher: %v", err)
			publisher = nil
		}
	}

	// Repositories
	contactRepo := repository.NewContactRepository(db)
	optOutRepo := repository.NewOptOutRepository(db)
	campaignRepo := repository.NewCampaignRepository(db)
	recipientRepo := repository.NewRecipientRepository(db)
	messageRepo := repository.NewMessageLogRepository(db)
	statsRepo := repository.NewStatsRepository(db)

	// Services
	templateSvc := service.NewTemplateService()
	optOutSvc := service.NewOptOutService(optOutRepo, contactRepo, redisClient)
	assignmentSvc := service.NewAssignmentService(campaignRepo, contactRepo, recipientRepo)
	providerClient := newProviderClient(cfg)
	pipelineSvc := service.NewPipelineService(
		campaignRepo, contactRepo, recipientRepo, messageRepo,
		optOutSvc, templateSvc, providerClient,
	)
	campaignSvc := service.NewCampaignService(
		campaignRepo, contactRepo, recipientRepo,
		assignmentSvc, pipelineSvc, templateSvc,
	)
	contactSvc := service.NewContactService(contactRepo)
	webhookSvc := service.NewWebhookService(contactRepo, recipientRepo, messageRepo, optOutSvc)
	log.Println("Services initialized")

	// Handlers
	campaignHandler := handler.NewCampaignHandler(campaignSvc, assignmentSvc)
	contactHandler := handler.NewContactHandler(contactSvc)
	optOutHandler := handler.NewOptOutHandler(optOutSvc)
	webhookHandler := handler.NewWebhookHandler(webhookSvc, publisher)
	messageHandler := handler.NewMessageHandler(messageRepo)
	healthHandler := handler.NewHealthHandler(db, queueConn, statsRepo)

	router := mux.NewRouter()
	router.Use(middleware.Recovery)
	router.Use(middleware.Logging)

	router.HandleFunc("/health", healthHandler.Health).Methods("GET")
	router.HandleFunc("/stats", healthHandler.Stats).Methods("GET")

	router.HandleFunc("/contacts", contactHandler.Create).Methods("POST")
	router.HandleFunc("/contacts", contactHandler.List).Methods("GET")
	router.HandleFunc("/contacts/{id}", contactHandler.GetByID).Methods("GET")
	router.HandleFunc("/contacts/{id}", contactHandler.Update).Methods("PUT")
	router.HandleFunc("/contacts/{id}", contactHandler.Delete).Methods("DELETE")

	router.HandleFunc("/optouts", optOutHandler.Record).Methods("POST")
	router.HandleFunc("/optouts", optOutHandler.List).Methods("GET")
	router.HandleFunc("/optouts/{phone}", optOutHandler.Remove).Methods("DELETE")

	router.HandleFunc("/campaigns", campaignHandler.Create).Methods("POST")
	router.HandleFunc("/campaigns", campaignHandler.List).Methods("GET")
	router.HandleFunc("/campaigns/{id}", campaignHandler.GetByID).Methods("GET")
	router.HandleFunc("/campaigns/{id}", campaignHandler.Update).Methods("PUT")
	router.HandleFunc("/campaigns/{id}", campaignHandler.Delete).Methods("DELETE")
	router.HandleFunc("/campaigns/{id}/assign", campaignHandler.Assign).Methods("POST")
	router.HandleFunc("/campaigns/{id}/start", campaignHandler.Start).Methods("POST")
	router.HandleFunc("/campaigns/{id}/pause", campaignHandler.Pause).Methods("POST")
	router.HandleFunc("/campaigns/{id}/resume", campaignHandler.Resume).Methods("POST")
	router.HandleFunc("/campaigns/{id}/cancel", campaignHandler.Cancel).Methods("POST")
	router.HandleFunc("/campaigns/{id}/schedule", campaignHandler.Schedule).Methods("POST")
	router.HandleFunc("/campaigns/{id}/progress", campaignHandler.Progress).Methods("GET")
	router.HandleFunc("/campaigns/{id}/recipients", campaignHandler.Recipients).Methods("GET")
	router.HandleFunc("/campaigns/{id}/preview", campaignHandler.Preview).Methods("POST")
	router.HandleFunc("/campaigns/{id}/send", campaignHandler.SendManual).Methods("POST")

	router.HandleFunc("/messages", messageHandler.List).Methods("GET")

	router.HandleFunc("/webhook/inbound", webhookHandler.Inbound).Methods("POST")
	router.HandleFunc("/webhook/status", webhookHandler.Status).Methods("POST")

	port := ":" + cfg.Server.Port
	log.Printf("API server starting on port %s (env: %s)", port, cfg.Env)

	if err := http.ListenAndServe(port, router); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
