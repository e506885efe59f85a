package bootstrap

import (
	"context"
	"log"

	"workspace-context-be/internal/config"
	"workspace-context-be/internal/controller"
	"workspace-context-be/internal/handler"
	"workspace-context-be/internal/pkg/logger"
	"workspace-context-be/internal/pkg/serverutils"
	"workspace-context-be/internal/repository/memory"
	"workspace-context-be/internal/service"
	"workspace-context-be/internal/websocket"
	"workspace-context-be/pkg/chat"
	"workspace-context-be/pkg/llm/factory"
	"workspace-context-be/pkg/store"

	pktNats "workspace-context-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
)

type Container struct {
	// Controllers
	WorkspaceController controller.IWorkspaceController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService
	WorkspaceService service.IWorkspaceService

	// WebSockets
	SelectionStreamHandler *handler.SelectionStreamHandler
	WebSocketHub           *websocket.Hub

	Logger logger.ILogger

	closers []func()
}

// NewContainer wires every dependency. Background loops (hub, redis fan-out)
// stop when ctx is cancelled.
func NewContainer(ctx context.Context, cfg *config.Config) *Container {
	c := &Container{}

	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	c.Logger = sysLogger

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)
	c.closers = append(c.closers, func() { _ = pubSub.Close() })

	// 3. Completion client, nil when LLM_API_URL is unset (demo mode)
	llmProvider, err := factory.NewLLMProvider(cfg.LLM)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	if llmProvider == nil {
		log.Printf("[INFO] LLM_API_URL not set, chat runs in demo mode")
	} else {
		log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.LLM.Provider, cfg.LLM.BaseURL)
	}
	builder := chat.NewBuilder(llmProvider, sysLogger, chat.WithTemperature(cfg.LLM.Temperature))

	// 4. Infrastructure
	// NATS
	var relay service.EventRelay
	if cfg.App.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		} else {
			relay = natsPub
			c.closers = append(c.closers, natsPub.Close)
		}
	}

	// Redis
	var rdb *redis.Client
	if cfg.App.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{
				Addr: cfg.App.RedisURL,
			}
		}
		rdb = redis.NewClient(opt)
		// An unreachable Redis only delays the background fan-out; the client keeps reconnecting
		if _, err := rdb.Ping(ctx).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v", err)
		}
		c.closers = append(c.closers, func() { _ = rdb.Close() })
	}

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger(cfg.App.StreamLogFilePath)
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run(ctx)
	c.WebSocketHub = wsHub

	// Expired workspaces also drop their stream clients
	workspaceRepo := memory.NewWorkspaceRepository(
		cfg.Workspace.TTL,
		cfg.Workspace.CleanupInterval,
		func(ws *store.Workspace) { wsHub.CloseWorkspace(ws.ID) },
	)

	// 5. Services
	publisherService := service.NewPublisherService(cfg.Workspace.EventsTopic, pubSub)
	c.ConsumerService = service.NewConsumerService(
		pubSub,
		cfg.Workspace.EventsTopic,
		relay,
		sysLogger,
	)
	c.WorkspaceService = service.NewWorkspaceService(
		workspaceRepo,
		builder,
		wsHub,
		publisherService,
		sysLogger,
	)

	// 6. Transport
	c.WorkspaceController = controller.NewWorkspaceController(
		c.WorkspaceService,
		serverutils.NewJwtMiddleware(cfg.App.JwtSecret),
	)
	c.SelectionStreamHandler = handler.NewSelectionStreamHandler(c.WorkspaceService, wsHub, cfg.App.JwtSecret, wsLogger)

	c.closers = append(c.closers, func() {
		_ = wsLogger.Sync()
		_ = sysLogger.Sync()
	})
	return c
}

// Close releases broker connections and flushes logs
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}
