// Package app wires application dependencies into a runnable container.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	_ "modernc.org/sqlite" // sqlite driver for local mode

	"github.com/venturebridge/venturebridge/adapter/api"
	billingApp "github.com/venturebridge/venturebridge/internal/billing/application"
	billingDomain "github.com/venturebridge/venturebridge/internal/billing/domain"
	billingPersistence "github.com/venturebridge/venturebridge/internal/billing/infrastructure/persistence"
	"github.com/venturebridge/venturebridge/internal/billing/infrastructure/provider"
	connectionCommands "github.com/venturebridge/venturebridge/internal/connections/application/commands"
	connectionQueries "github.com/venturebridge/venturebridge/internal/connections/application/queries"
	connectionsDomain "github.com/venturebridge/venturebridge/internal/connections/domain"
	connectionsPersistence "github.com/venturebridge/venturebridge/internal/connections/infrastructure/persistence"
	discoveryApp "github.com/venturebridge/venturebridge/internal/discovery/application"
	discoveryDomain "github.com/venturebridge/venturebridge/internal/discovery/domain"
	discoveryPersistence "github.com/venturebridge/venturebridge/internal/discovery/infrastructure/persistence"
	identityDomain "github.com/venturebridge/venturebridge/internal/identity/domain"
	"github.com/venturebridge/venturebridge/internal/identity/infrastructure/session"
	"github.com/venturebridge/venturebridge/internal/identity/infrastructure/token"
	sharedApplication "github.com/venturebridge/venturebridge/internal/shared/application"
	"github.com/venturebridge/venturebridge/internal/shared/infrastructure/eventbus"
	"github.com/venturebridge/venturebridge/internal/shared/infrastructure/migrations"
	"github.com/venturebridge/venturebridge/internal/shared/infrastructure/outbox"
	sharedPersistence "github.com/venturebridge/venturebridge/internal/shared/infrastructure/persistence"
	"github.com/venturebridge/venturebridge/pkg/config"
	"github.com/venturebridge/venturebridge/pkg/observability"
)

// Container holds all application dependencies.
type Container struct {
	Config *config.Config
	Logger *slog.Logger

	// Database
	DB       *pgxpool.Pool
	SQLiteDB *sql.DB

	// Redis
	RedisClient *redis.Client

	// Observability
	Metrics *observability.PrometheusMetrics
	Health  *observability.HealthRegistry

	// Repositories
	SubscriptionRepo billingDomain.SubscriptionRepository
	PaymentRepo      billingDomain.PaymentRepository
	RequestRepo      connectionsDomain.RequestRepository
	ConnectionRepo   connectionsDomain.ConnectionRepository
	IdeaRepo         discoveryDomain.IdeaRepository
	OutboxRepo       outbox.Repository

	// Publishers
	EventPublisher eventbus.Publisher

	// Unit of Work
	UnitOfWork sharedApplication.UnitOfWork

	// Billing
	Catalog        *billingDomain.Catalog
	TrustGateway   *billingApp.TrustGateway
	Ledger         *billingApp.Ledger
	Lifecycle      *billingApp.LifecycleManager
	ProviderClient *provider.Client

	// Connections
	SendRequestHandler     *connectionCommands.SendRequestHandler
	RespondRequestHandler  *connectionCommands.RespondRequestHandler
	PendingInboxHandler    *connectionQueries.PendingInboxHandler
	SentRequestsHandler    *connectionQueries.SentRequestsHandler
	GetRequestHandler      *connectionQueries.GetRequestHandler
	ListConnectionsHandler *connectionQueries.ListConnectionsHandler

	// Discovery
	CatalogService *discoveryApp.CatalogService

	// Identity
	Resolver     identityDomain.Resolver
	SessionStore *session.RedisStore

	// Outbox Processor
	OutboxProcessor *outbox.Processor

	// HTTP API
	APIServer *api.Server
}

// NewContainer creates and wires all dependencies against PostgreSQL,
// Redis and RabbitMQ.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	c := &Container{
		Config:  cfg,
		Logger:  logger,
		Metrics: observability.NewPrometheusMetrics(),
		Health:  observability.NewHealthRegistry(),
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	c.DB = pool
	logger.Info("connected to database")

	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	c.Health.Register("postgres", observability.PingChecker(func(ctx context.Context) error {
		return pool.Ping(ctx)
	}))

	// Redis backs session auth. With jwt auth it is optional.
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err == nil {
		client := redis.NewClient(opt)
		if pingErr := client.Ping(ctx).Err(); pingErr != nil {
			if cfg.AuthMode == "session" || !cfg.IsDevelopment() {
				pool.Close()
				return nil, fmt.Errorf("failed to connect to Redis: %w", pingErr)
			}
			logger.Warn("Redis not available", "error", pingErr)
		} else {
			c.RedisClient = client
			c.Health.Register("redis", observability.PingChecker(func(ctx context.Context) error {
				return client.Ping(ctx).Err()
			}))
			logger.Info("connected to Redis")
		}
	} else if cfg.AuthMode == "session" {
		pool.Close()
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	c.SubscriptionRepo = billingPersistence.NewPostgresSubscriptionRepository(pool)
	c.PaymentRepo = billingPersistence.NewPostgresPaymentRepository(pool)
	c.RequestRepo = connectionsPersistence.NewPostgresRequestRepository(pool)
	c.ConnectionRepo = connectionsPersistence.NewPostgresConnectionRepository(pool)
	c.IdeaRepo = discoveryPersistence.NewPostgresIdeaRepository(pool)
	c.OutboxRepo = outbox.NewPostgresRepository(pool)
	c.UnitOfWork = sharedPersistence.NewPostgresUnitOfWork(pool)

	publisher, err := eventbus.NewRabbitMQPublisher(cfg.RabbitMQURL, logger)
	if err != nil {
		if cfg.IsDevelopment() {
			logger.Warn("RabbitMQ not available, using noop publisher")
			c.EventPublisher = eventbus.NewNoopPublisher(logger)
		} else {
			pool.Close()
			return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
		}
	} else {
		c.EventPublisher = publisher
	}

	if err := c.wireResolver(); err != nil {
		pool.Close()
		return nil, err
	}
	c.wireServices()

	return c, nil
}

// NewLocalContainer creates a container backed by SQLite with no external
// services. Auth is jwt-only and events stay in the outbox table.
func NewLocalContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	c := &Container{
		Config:  cfg,
		Logger:  logger,
		Metrics: observability.NewPrometheusMetrics(),
		Health:  observability.NewHealthRegistry(),
	}

	db, err := sql.Open("sqlite", cfg.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := migrations.RunSQLiteMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	c.SQLiteDB = db
	logger.Info("opened SQLite database", "path", cfg.SQLitePath)

	c.Health.Register("sqlite", observability.PingChecker(func(ctx context.Context) error {
		return db.PingContext(ctx)
	}))

	c.SubscriptionRepo = billingPersistence.NewSQLiteSubscriptionRepository(db)
	c.PaymentRepo = billingPersistence.NewSQLitePaymentRepository(db)
	c.RequestRepo = connectionsPersistence.NewSQLiteRequestRepository(db)
	c.ConnectionRepo = connectionsPersistence.NewSQLiteConnectionRepository(db)
	c.IdeaRepo = discoveryPersistence.NewSQLiteIdeaRepository(db)
	c.OutboxRepo = outbox.NewSQLiteRepository(db)
	c.UnitOfWork = sharedPersistence.NewSQLiteUnitOfWork(db)
	c.EventPublisher = eventbus.NewNoopPublisher(logger)

	if cfg.JWTSecret == "" {
		db.Close()
		return nil, fmt.Errorf("JWT_SECRET is required in local mode")
	}
	c.Resolver = token.NewJWTResolver(cfg.JWTSecret)
	c.wireServices()

	return c, nil
}

func (c *Container) wireResolver() error {
	switch c.Config.AuthMode {
	case "session":
		if c.RedisClient == nil {
			return fmt.Errorf("session auth requires Redis")
		}
		c.SessionStore = session.NewRedisStore(c.RedisClient, c.Config.SessionTTL)
		c.Resolver = c.SessionStore
	case "jwt":
		if c.Config.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required for jwt auth")
		}
		c.Resolver = token.NewJWTResolver(c.Config.JWTSecret)
	default:
		return fmt.Errorf("unknown auth mode %q", c.Config.AuthMode)
	}
	return nil
}

// wireServices builds the application services and the HTTP server on top
// of whatever repositories the container was given.
func (c *Container) wireServices() {
	cfg := c.Config
	logger := c.Logger

	c.Catalog = billingDomain.MustDefaultCatalog()
	c.TrustGateway = billingApp.NewTrustGateway(cfg.ProviderSecret, cfg.ProviderWebhookSecret, logger)
	c.Ledger = billingApp.NewLedger(c.PaymentRepo, logger, c.Metrics)
	c.Lifecycle = billingApp.NewLifecycleManager(
		c.SubscriptionRepo, c.Ledger, c.TrustGateway, c.Catalog,
		c.OutboxRepo, c.UnitOfWork, logger, c.Metrics,
	)
	c.ProviderClient = provider.NewClient(
		cfg.ProviderBaseURL, cfg.ProviderKeyID, cfg.ProviderSecret,
		cfg.ProviderTimeout, logger,
	)

	c.SendRequestHandler = connectionCommands.NewSendRequestHandler(
		c.RequestRepo, c.OutboxRepo, c.UnitOfWork, logger, c.Metrics)
	c.RespondRequestHandler = connectionCommands.NewRespondRequestHandler(
		c.RequestRepo, c.ConnectionRepo, c.OutboxRepo, c.UnitOfWork, logger, c.Metrics)
	c.PendingInboxHandler = connectionQueries.NewPendingInboxHandler(c.RequestRepo)
	c.SentRequestsHandler = connectionQueries.NewSentRequestsHandler(c.RequestRepo)
	c.GetRequestHandler = connectionQueries.NewGetRequestHandler(c.RequestRepo)
	c.ListConnectionsHandler = connectionQueries.NewListConnectionsHandler(c.ConnectionRepo)

	c.CatalogService = discoveryApp.NewCatalogService(c.IdeaRepo, logger)

	c.OutboxProcessor = outbox.NewProcessor(c.OutboxRepo, c.EventPublisher, outbox.ProcessorConfig{
		PollInterval: cfg.OutboxPollInterval,
		BatchSize:    cfg.OutboxBatchSize,
		MaxRetries:   cfg.OutboxMaxRetries,
	}, logger)

	c.APIServer = api.NewServer(api.ServerConfig{
		Addr:         cfg.HTTPAddr,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}, api.ServerDeps{
		Billing:     api.NewBillingHandler(c.Lifecycle, c.ProviderClient, logger),
		Connections: api.NewConnectionsHandler(api.ConnectionsHandlerConfig{
			SendRequest:     c.SendRequestHandler,
			RespondRequest:  c.RespondRequestHandler,
			PendingInbox:    c.PendingInboxHandler,
			SentRequests:    c.SentRequestsHandler,
			GetRequest:      c.GetRequestHandler,
			ListConnections: c.ListConnectionsHandler,
			Logger:          logger,
		}),
		Discovery: api.NewDiscoveryHandler(c.CatalogService, logger),
		Auth:      api.NewAuthMiddleware(c.Resolver, c.Lifecycle, logger, c.Metrics),
		Health:    c.Health,
		Registry:  c.Metrics.Registry(),
		Logger:    logger,
	})
}

// Close cleans up all resources.
func (c *Container) Close() {
	if c.OutboxProcessor != nil {
		c.OutboxProcessor.Stop()
	}

	if c.EventPublisher != nil {
		if err := c.EventPublisher.Close(); err != nil {
			c.Logger.Warn("error closing event publisher", "error", err)
		}
	}

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			c.Logger.Warn("error closing Redis connection", "error", err)
		}
	}

	if c.DB != nil {
		c.DB.Close()
		c.Logger.Info("PostgreSQL connection closed")
	}

	if c.SQLiteDB != nil {
		if err := c.SQLiteDB.Close(); err != nil {
			c.Logger.Warn("error closing SQLite connection", "error", err)
		}
	}
}
