package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/ticket-resolver/internal/api/http"
	"github.com/spec-kit/ticket-resolver/internal/api/http/handlers"
	"github.com/spec-kit/ticket-resolver/internal/auth"
	"github.com/spec-kit/ticket-resolver/internal/cache"
	"github.com/spec-kit/ticket-resolver/internal/config"
	"github.com/spec-kit/ticket-resolver/internal/events"
	"github.com/spec-kit/ticket-resolver/internal/observability"
	"github.com/spec-kit/ticket-resolver/internal/persistence"
	"github.com/spec-kit/ticket-resolver/internal/provider"
	"github.com/spec-kit/ticket-resolver/internal/repository"
	"github.com/spec-kit/ticket-resolver/internal/service"
	"github.com/spec-kit/ticket-resolver/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	completionClients := make([]provider.CompletionClient, 0, len(cfg.LLM.Models))
	for _, model := range cfg.LLM.Models {
		completionClients = append(completionClients, provider.NewOpenAIClient(provider.OpenAIConfig{
			APIKey:      cfg.LLM.APIKey,
			BaseURL:     cfg.LLM.BaseURL,
			Model:       model,
			MaxTokens:   cfg.LLM.MaxTokens,
			Temperature: cfg.LLM.Temperature,
			Timeout:     cfg.LLM.Timeout(),
		}))
	}
	completer, err := provider.NewFailoverCompleter(completionClients, logger)
	if err != nil {
		logger.Fatal("failed to build completion chain", zap.Error(err))
	}

	embedder, err := provider.NewGenAIEmbedder(ctx, cfg.Embedding.APIKey, cfg.Embedding.Model, cfg.Embedding.Timeout())
	if err != nil {
		logger.Fatal("failed to build embedder", zap.Error(err))
	}

	pool := pg.PoolHandle()
	escalationSink := repository.NewEscalationRepository(pool)
	knowledgeRepo := repository.NewKnowledgeRepository(pool)
	embeddingCache := cache.NewEmbeddingCache(redis.Client, cfg.Embedding.CacheTTL())

	retriever := service.NewVectorRetriever(cfg.Pipeline.RetrievalTopK, cfg.Pipeline.MinSimilarity, service.VectorRetrieverDependencies{
		Embedder:  embedder,
		Cache:     embeddingCache,
		Knowledge: knowledgeRepo,
		Logger:    logger,
		Metrics:   metrics,
	})

	resolutionService := service.NewResolutionService(cfg.Pipeline, service.ResolutionDependencies{
		Classifier: service.NewLLMClassifier(completer, logger, metrics),
		Retriever:  retriever,
		Drafter:    service.NewLLMDrafter(completer, logger, metrics),
		Reviewer:   service.NewLLMReviewer(completer, logger, metrics),
		Refiner:    service.NewKeywordAppendPolicy(),
		Sink:       escalationSink,
		Dispatcher: dispatcher,
		Logger:     logger,
		Metrics:    metrics,
	})
	ingestService := service.NewKnowledgeIngestService(embedder, knowledgeRepo, logger)

	notificationService := service.NewNotificationService(dispatcher, logger)
	notificationService.RegisterHandlers()
	notificationWorker := worker.NewNotificationWorker(notificationService.Jobs(), cfg.Notification, logger)
	go notificationWorker.Run(ctx)

	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authMiddleware := auth.NewAuthMiddleware(tokenManager)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(tokenManager, cfg.Auth.APIKeyHash),
		Resolve:        handlers.NewResolveHandler(resolutionService),
		Escalations:    handlers.NewEscalationsHandler(escalationSink),
		Knowledge:      handlers.NewKnowledgeHandler(ingestService),
		Stats:          handlers.NewStatsHandler(metrics),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
