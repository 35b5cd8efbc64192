package bootstrap

import (
	"context"
	"log"
	"os"
	"path/filepath"

	"ai-airquality-be/internal/config"
	"ai-airquality-be/internal/controller"
	"ai-airquality-be/internal/pkg/logger"
	"ai-airquality-be/internal/service"
	"ai-airquality-be/pkg/aqsource"
	"ai-airquality-be/pkg/breaker"
	"ai-airquality-be/pkg/classify"
	"ai-airquality-be/pkg/events"
	"ai-airquality-be/pkg/fallback"
	pktNats "ai-airquality-be/pkg/nats"
	"ai-airquality-be/pkg/respcache"
	"ai-airquality-be/pkg/session"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
)

type Container struct {
	// Controllers
	ChatController controller.IChatController

	// Background services (exposed for main.go to run)
	ConsumerService service.IConsumerService
	SessionManager  *session.Manager
}

func NewContainer(cfg *config.Config) *Container {
	// 1. Core facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	domainLogger := initDomainLogger()

	// 2. Event bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// NATS (best-effort; breaker transitions are observability, not control flow)
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}

	// 3. Query engine
	registry := breaker.NewRegistry(breaker.Config{
		Threshold: cfg.Breaker.Threshold,
		Window:    cfg.Breaker.Window,
		Cooldown:  cfg.Breaker.Cooldown,
	})
	registry.OnTransition(func(adapterID, from, to string) {
		sysLogger.Warn("breaker", "circuit transition", map[string]interface{}{
			"adapter": adapterID, "from": from, "to": to,
		})
		if natsPub != nil {
			if err := natsPub.Publish(context.Background(), events.NewBreakerStateChanged(adapterID, from, to)); err != nil {
				log.Printf("[WARN] Failed to publish breaker event: %v", err)
			}
		}
	})

	providers := []aqsource.Provider{
		aqsource.NewAirNowProvider("", cfg.Keys.AirNow),
		aqsource.NewOpenAQProvider("", cfg.Keys.OpenAQ),
		aqsource.NewOpenMeteoProvider(""),
	}
	log.Printf("[INFO] Registered data source adapters: %s, %s, %s",
		classify.AdapterAirNow, classify.AdapterOpenAQ, classify.AdapterOpenMeteo)

	orchestrator := fallback.NewOrchestrator(
		registry,
		providers,
		fallback.Config{AdapterTimeout: cfg.Fallback.AdapterTimeout},
		domainLogger,
	)

	// Response cache: Redis when configured, in-process otherwise
	policy := respcache.Policy{
		Educational:    cfg.Cache.EducationalTTL,
		Search:         cfg.Cache.SearchTTL,
		RealTime:       cfg.Cache.RealTimeTTL,
		Forecast:       cfg.Cache.ForecastTTL,
		BypassRealTime: cfg.Cache.BypassRealTime,
		MaxEntries:     cfg.Cache.MaxEntries,
	}
	var cache respcache.Store
	if cfg.App.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{Addr: cfg.App.RedisURL}
		}
		rdb := redis.NewClient(opt)
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v", err)
		}
		cache = respcache.NewRedisStore(rdb, policy, domainLogger)
		log.Printf("[INFO] Using response cache: REDIS")
	} else {
		cache = respcache.NewMemoryStore(policy)
		log.Printf("[INFO] Using response cache: MEMORY")
	}

	// Session memory
	sessionManager := session.NewManager(session.Config{
		TTL:           cfg.Session.TTL,
		MaxSessions:   cfg.Session.MaxSessions,
		MaxDocuments:  cfg.Session.MaxDocuments,
		DocumentTTL:   cfg.Session.DocumentTTL,
		SweepInterval: cfg.Session.SweepInterval,
		MinEvictIdle:  cfg.Session.MinEvictIdle,
	}, domainLogger)

	// 4. Services
	publisherService := service.NewPublisherService(cfg.App.QueryEventTopic, pubSub)
	var eventSink service.IEventSink
	if natsPub != nil {
		eventSink = natsPub
	}
	consumerService := service.NewConsumerService(pubSub, cfg.App.QueryEventTopic, eventSink)

	chatService := service.NewChatService(
		orchestrator,
		cache,
		sessionManager,
		publisherService,
		consumerService,
		sysLogger,
	)

	return &Container{
		ChatController:  controller.NewChatController(chatService),
		ConsumerService: consumerService,
		SessionManager:  sessionManager,
	}
}

// initDomainLogger writes adapter and cache traffic to its own file so
// the main log stays readable.
func initDomainLogger() *log.Logger {
	logPath := filepath.Join(".", "logs", "query_engine.log")
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		log.Printf("Failed to create logs directory: %v", err)
	}
	file, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return log.New(os.Stdout, "[QUERY-ENGINE] ", log.LstdFlags)
	}
	return log.New(file, "", log.LstdFlags)
}
