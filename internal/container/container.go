// Package container - Dependency Injection container for the application.
//
// Container управляет жизненным циклом всех зависимостей:
// - Создание (lazy initialization)
// - Доступ (getters)
// - Закрытие (cleanup)
//
// Pattern: Composition Root
// - Все зависимости собираются в одном месте
// - Легко тестировать
// - Легко заменять реализации
package container

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/coinvault/coinvault/internal/adapters/http"
	"github.com/coinvault/coinvault/internal/adapters/http/middleware"
	"github.com/coinvault/coinvault/internal/application/ports"
	"github.com/coinvault/coinvault/internal/application/usecases/asset"
	"github.com/coinvault/coinvault/internal/application/usecases/query"
	"github.com/coinvault/coinvault/internal/application/usecases/transfer"
	"github.com/coinvault/coinvault/internal/config"
	"github.com/coinvault/coinvault/internal/infrastructure/cache"
	"github.com/coinvault/coinvault/internal/infrastructure/messaging"
	"github.com/coinvault/coinvault/internal/infrastructure/persistence/postgres"
	"github.com/coinvault/coinvault/internal/pkg/logger"
	"github.com/coinvault/coinvault/internal/pkg/tracing"
)

// maintenanceInterval - период фоновой чистки просроченных idempotency
// записей и опубликованных outbox событий.
const maintenanceInterval = time.Hour

// ============================================
// Container
// ============================================

// Container - DI контейнер приложения.
type Container struct {
	config *config.Config
	logger *slog.Logger

	// Infrastructure
	pool        *pgxpool.Pool
	redisClient *redis.Client
	natsPub     *messaging.NATSPublisher
	relay       *messaging.OutboxRelay

	// Tracing
	tracingShutdown func(context.Context) error

	// Repositories
	assetRepo       ports.AssetTypeRepository
	walletRepo      ports.WalletRepository
	transactionRepo ports.TransactionRepository
	ledgerRepo      ports.LedgerEntryRepository
	idempotencyRepo ports.IdempotencyRepository
	outboxRepo      *postgres.OutboxRepository

	// Unit of Work
	uow ports.UnitOfWork

	// Event Publisher
	eventPublisher ports.EventPublisher

	// Idempotency cache
	idempotencyCache *cache.IdempotencyCache

	// Use Cases
	topupUC           *transfer.TopupUseCase
	bonusUC           *transfer.BonusUseCase
	spendUC           *transfer.SpendUseCase
	getBalanceUC      *query.GetBalanceUseCase
	getHistoryUC      *query.GetHistoryUseCase
	getTransactionUC  *query.GetTransactionUseCase
	createAssetUC     *asset.CreateAssetUseCase
	deactivateAssetUC *asset.DeactivateAssetUseCase
	listAssetsUC      *asset.ListAssetsUseCase

	// HTTP
	httpServer *http.Server
}

// New создаёт новый контейнер с заданной конфигурацией.
func New(cfg *config.Config) *Container {
	return &Container{
		config: cfg,
	}
}

// ============================================
// Initialization
// ============================================

// Initialize инициализирует все зависимости.
func (c *Container) Initialize(ctx context.Context) error {
	c.initLogger()
	c.logger.Info("Initializing application container...")

	// 1. Tracing
	if err := c.initTracing(ctx); err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}

	// 2. Database
	if err := c.initDatabase(ctx); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	c.logger.Info("Database connected")

	// 3. Redis (опционально)
	if err := c.initRedis(ctx); err != nil {
		return fmt.Errorf("failed to initialize redis: %w", err)
	}

	// 4. NATS (опционально)
	if err := c.initNATS(); err != nil {
		return fmt.Errorf("failed to initialize nats: %w", err)
	}

	// 5. Repositories
	c.initRepositories()
	c.logger.Info("Repositories initialized")

	// 6. Use Cases
	c.initUseCases()
	c.logger.Info("Use cases initialized")

	// 7. HTTP Server
	c.initHTTPServer()
	c.logger.Info("HTTP server initialized")

	c.logger.Info("Container initialization complete")
	return nil
}

// initLogger инициализирует логгер.
func (c *Container) initLogger() {
	c.logger = logger.New(&logger.Config{
		Level:     c.config.Log.Level,
		Format:    c.config.Log.Format,
		AddSource: c.config.App.Debug,
	})
	slog.SetDefault(c.logger)
}

// initTracing инициализирует OpenTelemetry (если включён).
func (c *Container) initTracing(ctx context.Context) error {
	if !c.config.Telemetry.Enabled {
		return nil
	}

	shutdown, err := tracing.Setup(ctx, tracing.Config{
		ServiceName:    c.config.App.Name,
		ServiceVersion: c.config.App.Version,
		Environment:    c.config.App.Environment,
		OTLPEndpoint:   c.config.Telemetry.OTLPEndpoint,
		SampleRatio:    c.config.Telemetry.SampleRatio,
		Insecure:       !c.config.App.IsProduction(),
	})
	if err != nil {
		return err
	}

	c.tracingShutdown = shutdown
	c.logger.Info("Tracing enabled",
		slog.String("endpoint", c.config.Telemetry.OTLPEndpoint),
	)
	return nil
}

// initDatabase инициализирует подключение к БД.
func (c *Container) initDatabase(ctx context.Context) error {
	poolConfig, err := pgxpool.ParseConfig(c.config.Database.DSN())
	if err != nil {
		return fmt.Errorf("failed to parse database URL: %w", err)
	}

	poolConfig.MaxConns = c.config.Database.MaxConnections
	poolConfig.MinConns = c.config.Database.MinConnections
	poolConfig.MaxConnLifetime = c.config.Database.MaxConnLifetime
	poolConfig.MaxConnIdleTime = c.config.Database.MaxConnIdleTime

	// Метрики длительности и ошибок запросов
	poolConfig.ConnConfig.Tracer = queryMetricsTracer{}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	c.pool = pool
	return nil
}

// initRedis инициализирует клиент Redis.
// При Enabled=false idempotency lookup идёт напрямую в PostgreSQL.
func (c *Container) initRedis(ctx context.Context) error {
	if !c.config.Redis.Enabled {
		c.logger.Info("Redis disabled, idempotency lookups go direct to PostgreSQL")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     c.config.Redis.Addr(),
		Password: c.config.Redis.Password,
		DB:       c.config.Redis.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}

	c.redisClient = client
	c.logger.Info("Redis connected", slog.String("addr", c.config.Redis.Addr()))
	return nil
}

// initNATS инициализирует publisher для outbox relay.
// При Enabled=false события копятся в outbox до включения relay.
func (c *Container) initNATS() error {
	if !c.config.NATS.Enabled {
		c.logger.Info("NATS disabled, outbox events are stored but not relayed")
		return nil
	}

	pub, err := messaging.Connect(c.config.NATS.URL)
	if err != nil {
		return err
	}

	c.natsPub = pub
	c.logger.Info("NATS connected", slog.String("url", c.config.NATS.URL))
	return nil
}

// initRepositories инициализирует репозитории.
func (c *Container) initRepositories() {
	c.assetRepo = postgres.NewAssetTypeRepository(c.pool)
	c.walletRepo = postgres.NewWalletRepository(c.pool)
	c.transactionRepo = postgres.NewTransactionRepository(c.pool)
	c.ledgerRepo = postgres.NewLedgerEntryRepository(c.pool)
	c.idempotencyRepo = postgres.NewIdempotencyRepository(c.pool)
	c.outboxRepo = postgres.NewOutboxRepository(c.pool)

	// Unit of Work
	c.uow = postgres.NewUnitOfWork(c.pool)

	// Event Publisher (OutboxRepository реализует интерфейс)
	c.eventPublisher = c.outboxRepo

	// Idempotency cache (redisClient может быть nil)
	c.idempotencyCache = cache.NewIdempotencyCache(c.redisClient, c.idempotencyRepo, c.logger)

	// Outbox relay (publisher может отсутствовать)
	if c.natsPub != nil {
		c.relay = messaging.NewOutboxRelay(c.outboxRepo, c.uow, c.natsPub, c.logger)
	}
}

// initUseCases инициализирует use cases.
func (c *Container) initUseCases() {
	// Transfer engine + три flow-обёртки
	engine := transfer.NewUseCase(
		c.assetRepo,
		c.walletRepo,
		c.transactionRepo,
		c.ledgerRepo,
		c.idempotencyRepo,
		c.idempotencyCache,
		c.eventPublisher,
		c.uow,
	)
	c.topupUC = transfer.NewTopupUseCase(engine)
	c.bonusUC = transfer.NewBonusUseCase(engine)
	c.spendUC = transfer.NewSpendUseCase(engine)

	// Query Use Cases
	c.getBalanceUC = query.NewGetBalanceUseCase(c.assetRepo, c.walletRepo, c.uow)
	c.getHistoryUC = query.NewGetHistoryUseCase(c.assetRepo, c.walletRepo, c.transactionRepo)
	c.getTransactionUC = query.NewGetTransactionUseCase(c.transactionRepo, c.ledgerRepo)

	// Asset Use Cases
	c.createAssetUC = asset.NewCreateAssetUseCase(c.assetRepo, c.walletRepo, c.eventPublisher, c.uow)
	c.deactivateAssetUC = asset.NewDeactivateAssetUseCase(c.assetRepo, c.eventPublisher, c.uow)
	c.listAssetsUC = asset.NewListAssetsUseCase(c.assetRepo)
}

// initHTTPServer инициализирует HTTP сервер.
func (c *Container) initHTTPServer() {
	// Token validator для админских маршрутов
	var tokenValidator func(token string) (*middleware.AuthClaims, error)
	if c.config.Auth.EnableMockAuth {
		tokenValidator = middleware.AdminMockTokenValidator
	} else {
		tokenValidator = middleware.NewJWTTokenValidator(c.config.Auth.JWTSecret)
	}

	// Router Config
	routerConfig := &http.RouterConfig{
		Logger:             c.logger,
		Pool:               c.pool,
		ServiceName:        c.config.App.Name,
		Version:            c.config.App.Version,
		BuildTime:          c.config.App.BuildTime,
		Environment:        c.config.App.Environment,
		AllowedOrigins:     c.config.CORS.AllowedOrigins,
		AuthTokenValidator: tokenValidator,
		EnableTracing:      c.config.Telemetry.Enabled,
	}

	// Build Router
	router := http.NewRouterBuilder(routerConfig).
		WithWalletUseCases(&http.WalletUseCases{
			Topup:      c.topupUC,
			Bonus:      c.bonusUC,
			Spend:      c.spendUC,
			GetBalance: c.getBalanceUC,
			GetHistory: c.getHistoryUC,
		}).
		WithTransactionUseCases(&http.TransactionUseCases{
			GetTransaction: c.getTransactionUC,
		}).
		WithAssetUseCases(&http.AssetUseCases{
			CreateAsset:     c.createAssetUC,
			DeactivateAsset: c.deactivateAssetUC,
			ListAssets:      c.listAssetsUC,
		}).
		Build()

	// Server Config
	serverConfig := &http.ServerConfig{
		Host:            c.config.Server.Host,
		Port:            fmt.Sprintf("%d", c.config.Server.Port),
		ReadTimeout:     c.config.Server.ReadTimeout,
		WriteTimeout:    c.config.Server.WriteTimeout,
		IdleTimeout:     c.config.Server.IdleTimeout,
		ShutdownTimeout: c.config.Server.ShutdownTimeout,
		Logger:          c.logger,
	}

	c.httpServer = http.NewServer(serverConfig, router)
}

// ============================================
// Background Workers
// ============================================

// StartBackground запускает фоновые процессы: outbox relay и
// периодическую чистку. Горутины живут до отмены контекста.
func (c *Container) StartBackground(ctx context.Context) {
	if c.relay != nil {
		go c.relay.Run(ctx)
	}

	go c.runMaintenance(ctx)
}

// runMaintenance периодически удаляет просроченные idempotency записи
// и опубликованные outbox события.
func (c *Container) runMaintenance(ctx context.Context) {
	ticker := time.NewTicker(maintenanceInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if deleted, err := c.idempotencyRepo.DeleteExpired(ctx); err != nil {
				c.logger.Error("idempotency cleanup failed", slog.String("error", err.Error()))
			} else if deleted > 0 {
				c.logger.Info("expired idempotency records deleted", slog.Int64("count", deleted))
			}

			if deleted, err := c.outboxRepo.CleanupPublished(ctx); err != nil {
				c.logger.Error("outbox cleanup failed", slog.String("error", err.Error()))
			} else if deleted > 0 {
				c.logger.Info("published outbox events deleted", slog.Int64("count", deleted))
			}
		}
	}
}

// ============================================
// Getters
// ============================================

// Config возвращает конфигурацию.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger возвращает логгер.
func (c *Container) Logger() *slog.Logger {
	return c.logger
}

// Pool возвращает пул соединений к БД.
func (c *Container) Pool() *pgxpool.Pool {
	return c.pool
}

// HTTPServer возвращает HTTP сервер.
func (c *Container) HTTPServer() *http.Server {
	return c.httpServer
}

// ============================================
// Repository Getters
// ============================================

// AssetTypeRepository возвращает реестр asset types.
func (c *Container) AssetTypeRepository() ports.AssetTypeRepository {
	return c.assetRepo
}

// WalletRepository возвращает репозиторий кошельков.
func (c *Container) WalletRepository() ports.WalletRepository {
	return c.walletRepo
}

// TransactionRepository возвращает репозиторий транзакций.
func (c *Container) TransactionRepository() ports.TransactionRepository {
	return c.transactionRepo
}

// LedgerEntryRepository возвращает репозиторий ledger entries.
func (c *Container) LedgerEntryRepository() ports.LedgerEntryRepository {
	return c.ledgerRepo
}

// IdempotencyRepository возвращает репозиторий idempotency записей.
func (c *Container) IdempotencyRepository() ports.IdempotencyRepository {
	return c.idempotencyRepo
}

// UnitOfWork возвращает Unit of Work.
func (c *Container) UnitOfWork() ports.UnitOfWork {
	return c.uow
}

// ============================================
// Use Case Getters
// ============================================

// TopupUseCase возвращает use case пополнения кошелька.
func (c *Container) TopupUseCase() *transfer.TopupUseCase {
	return c.topupUC
}

// BonusUseCase возвращает use case начисления бонуса.
func (c *Container) BonusUseCase() *transfer.BonusUseCase {
	return c.bonusUC
}

// SpendUseCase возвращает use case списания.
func (c *Container) SpendUseCase() *transfer.SpendUseCase {
	return c.spendUC
}

// GetBalanceUseCase возвращает use case запроса баланса.
func (c *Container) GetBalanceUseCase() *query.GetBalanceUseCase {
	return c.getBalanceUC
}

// GetHistoryUseCase возвращает use case истории транзакций.
func (c *Container) GetHistoryUseCase() *query.GetHistoryUseCase {
	return c.getHistoryUC
}

// CreateAssetUseCase возвращает use case регистрации asset type.
func (c *Container) CreateAssetUseCase() *asset.CreateAssetUseCase {
	return c.createAssetUC
}

// ============================================
// Shutdown
// ============================================

// Shutdown выполняет graceful shutdown всех компонентов.
func (c *Container) Shutdown(ctx context.Context) error {
	c.logger.Info("Shutting down container...")

	var errs []error

	// 1. HTTP Server
	if c.httpServer != nil {
		if err := c.httpServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("HTTP server shutdown: %w", err))
		}
	}

	// 2. NATS (дожидаемся отправки буферизованных сообщений)
	if c.natsPub != nil {
		c.natsPub.Close()
		c.logger.Info("NATS connection closed")
	}

	// 3. Redis
	if c.redisClient != nil {
		if err := c.redisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis close: %w", err))
		}
	}

	// 4. Tracing (дослать буферизованные спаны)
	if c.tracingShutdown != nil {
		if err := c.tracingShutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracing shutdown: %w", err))
		}
	}

	// 5. Database (даём время на завершение транзакций)
	if c.pool != nil {
		// Graceful close с таймаутом
		done := make(chan struct{})
		go func() {
			c.pool.Close()
			close(done)
		}()

		select {
		case <-done:
			c.logger.Info("Database connection closed")
		case <-ctx.Done():
			c.logger.Warn("Database close timeout")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}

	c.logger.Info("Container shutdown complete")
	return nil
}

// ============================================
// Run
// ============================================

// Run запускает приложение и ожидает сигнал завершения.
func (c *Container) Run() error {
	c.logger.Info("Starting CoinVault API Server",
		slog.String("version", c.config.App.Version),
		slog.String("environment", c.config.App.Environment),
		slog.String("address", c.config.Server.Address()),
	)

	return c.httpServer.Run()
}

// ============================================
// Health Check
// ============================================

// HealthStatus - статус здоровья приложения.
type HealthStatus struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks"`
}

// Health возвращает статус здоровья приложения.
func (c *Container) Health(ctx context.Context) *HealthStatus {
	status := &HealthStatus{
		Status:  "healthy",
		Version: c.config.App.Version,
		Checks:  make(map[string]string),
	}

	// Database check
	if err := c.pool.Ping(ctx); err != nil {
		status.Status = "unhealthy"
		status.Checks["database"] = "error: " + err.Error()
	} else {
		status.Checks["database"] = "ok"
	}

	// Redis check (best-effort)
	if c.redisClient != nil {
		if err := c.redisClient.Ping(ctx).Err(); err != nil {
			status.Checks["redis"] = "error: " + err.Error()
		} else {
			status.Checks["redis"] = "ok"
		}
	}

	return status
}
