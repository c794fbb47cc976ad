package bootstrap

import (
	"log"
	"time"

	"doc-support-be/internal/config"
	"doc-support-be/internal/controller"
	"doc-support-be/internal/pkg/logger"
	"doc-support-be/internal/pkg/mailer"
	"doc-support-be/internal/repository/contract"
	"doc-support-be/internal/repository/memory"
	"doc-support-be/internal/repository/redisrepo"
	"doc-support-be/internal/service"
	"doc-support-be/pkg/dialogue"
	"doc-support-be/pkg/notify"
	"doc-support-be/pkg/profile"
	"doc-support-be/pkg/search"
)

type Container struct {
	// Controllers
	AssistantController controller.IAssistantController

	// Background Services (Exposed for main.go to run)
	DeliveryService service.IDeliveryService

	// Infrastructure exposed for shutdown
	Broker notify.Broker
	Logger logger.ILogger
}

func NewContainer(cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	dialogueLog := log.Default()

	emailService := mailer.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.Email,
		cfg.SMTP.SenderName,
	)

	// 2. Notification Broker
	var broker notify.Broker
	if cfg.Notify.Broker == "nats" {
		natsBroker, err := notify.NewNatsBroker(cfg.App.NatsURL, cfg.Notify.PageSize)
		if err != nil {
			log.Fatalf("[FATAL] Failed to connect to NATS broker: %v", err)
		}
		broker = natsBroker
		log.Printf("[INFO] Using Notification Broker: NATS (%s)", cfg.App.NatsURL)
	} else {
		broker = notify.NewMemoryBroker(cfg.Notify.PageSize)
		log.Printf("[INFO] Using Notification Broker: MEMORY")
	}

	// 3. Session Storage
	sessionTTL := time.Duration(cfg.App.SessionTTLMinutes) * time.Minute
	var sessionRepo contract.SessionRepository
	if cfg.App.SessionStore == "redis" {
		redisRepo, err := redisrepo.NewSessionRepository(cfg.App.RedisURL, sessionTTL)
		if err != nil {
			log.Fatalf("[FATAL] Failed to connect to Redis session store: %v", err)
		}
		sessionRepo = redisRepo
		log.Printf("[INFO] Using Session Store: REDIS (%s)", cfg.App.RedisURL)
	} else {
		sessionRepo = memory.NewSessionRepository(sessionTTL)
		log.Printf("[INFO] Using Session Store: MEMORY")
	}

	// 4. External Providers
	searchProvider := search.NewHTTPClient(
		cfg.Search.BaseURL,
		cfg.Search.IndexID,
		cfg.Search.APIKey,
		time.Duration(cfg.Search.TimeoutSeconds)*time.Second,
	)
	profileProvider := profile.NewHTTPClient(
		cfg.Profile.BaseURL,
		cfg.Profile.APIKey,
		time.Duration(cfg.Profile.TimeoutSeconds)*time.Second,
	)

	// 5. Dialogue Core
	notifyManager := notify.NewManager(broker, profileProvider, cfg.Notify.TopicName, dialogueLog)
	machine := dialogue.NewMachine(searchProvider, notifyManager, dialogueLog)

	// 6. Services
	assistantService := service.NewAssistantService(machine, sessionRepo, broker, sysLogger)
	deliveryService := service.NewDeliveryService(broker, cfg.Notify.TopicName, cfg.App.BaseURL, emailService, sysLogger)

	// 7. Controllers
	assistantController := controller.NewAssistantController(assistantService)

	return &Container{
		AssistantController: assistantController,
		DeliveryService:     deliveryService,
		Broker:              broker,
		Logger:              sysLogger,
	}
}
