// Package http - Router configuration for REST API.
//
// Router собирает все handlers и middleware в единую точку входа.
//
// Pattern: Composition Root
// - Все зависимости собираются здесь
// - Handlers получают только нужные им use cases
// - Middleware применяется к соответствующим группам routes
package http

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/coinvault/coinvault/internal/adapters/http/common"
	"github.com/coinvault/coinvault/internal/adapters/http/handlers"
	"github.com/coinvault/coinvault/internal/adapters/http/middleware"
)

// ============================================
// Router Configuration
// ============================================

// RouterConfig - конфигурация роутера.
type RouterConfig struct {
	// Logger для middleware
	Logger *slog.Logger
	// Database pool для health checks
	Pool *pgxpool.Pool
	// ServiceName для OpenTelemetry spans
	ServiceName string
	// Version приложения
	Version string
	// BuildTime время сборки
	BuildTime string
	// Environment (development, staging, production)
	Environment string
	// AllowedOrigins для CORS (production)
	AllowedOrigins []string
	// AuthTokenValidator - функция валидации токена для админских маршрутов
	AuthTokenValidator func(token string) (*middleware.AuthClaims, error)
	// EnableTracing включает otelgin middleware
	EnableTracing bool
}

// DefaultRouterConfig - конфигурация по умолчанию для development.
func DefaultRouterConfig() *RouterConfig {
	return &RouterConfig{
		Logger:             slog.Default(),
		ServiceName:        "coinvault",
		Version:            "dev",
		BuildTime:          "unknown",
		Environment:        "development",
		AllowedOrigins:     []string{"*"},
		AuthTokenValidator: middleware.AdminMockTokenValidator,
	}
}

// ============================================
// Use Case Providers
// ============================================

// WalletUseCases - provider для wallet use cases.
type WalletUseCases struct {
	Topup      handlers.TopupUseCase
	Bonus      handlers.BonusUseCase
	Spend      handlers.SpendUseCase
	GetBalance handlers.GetBalanceUseCase
	GetHistory handlers.GetHistoryUseCase
}

// TransactionUseCases - provider для transaction use cases.
type TransactionUseCases struct {
	GetTransaction handlers.GetTransactionUseCase
}

// AssetUseCases - provider для asset use cases.
type AssetUseCases struct {
	CreateAsset     handlers.CreateAssetUseCase
	DeactivateAsset handlers.DeactivateAssetUseCase
	ListAssets      handlers.ListAssetsUseCase
}

// ============================================
// Router Builder
// ============================================

// RouterBuilder - builder для создания роутера.
//
// Pattern: Builder
// - Позволяет пошагово настроить роутер
// - Проще тестировать
// - Можно переиспользовать части конфигурации
type RouterBuilder struct {
	config       *RouterConfig
	wallets      *WalletUseCases
	transactions *TransactionUseCases
	assets       *AssetUseCases
}

// NewRouterBuilder создаёт новый builder.
func NewRouterBuilder(config *RouterConfig) *RouterBuilder {
	if config == nil {
		config = DefaultRouterConfig()
	}
	return &RouterBuilder{
		config: config,
	}
}

// WithWalletUseCases добавляет wallet use cases.
func (b *RouterBuilder) WithWalletUseCases(useCases *WalletUseCases) *RouterBuilder {
	b.wallets = useCases
	return b
}

// WithTransactionUseCases добавляет transaction use cases.
func (b *RouterBuilder) WithTransactionUseCases(useCases *TransactionUseCases) *RouterBuilder {
	b.transactions = useCases
	return b
}

// WithAssetUseCases добавляет asset use cases.
func (b *RouterBuilder) WithAssetUseCases(useCases *AssetUseCases) *RouterBuilder {
	b.assets = useCases
	return b
}

// Build создаёт сконфигурированный Gin Engine.
func (b *RouterBuilder) Build() *gin.Engine {
	// Настраиваем режим Gin
	if b.config.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Создаём router без default middleware
	router := gin.New()

	// Настраиваем кастомные валидаторы
	handlers.SetupValidator()

	// ============================================
	// Global Middleware
	// ============================================

	// 1. Recovery - должен быть первым
	router.Use(middleware.Recovery(&middleware.RecoveryConfig{
		Logger:           b.config.Logger,
		EnableStackTrace: b.config.Environment != "production",
	}))

	// 2. Request ID
	router.Use(middleware.RequestID())

	// 3. Tracing
	if b.config.EnableTracing {
		router.Use(otelgin.Middleware(b.config.ServiceName))
	}

	// 4. CORS
	if b.config.Environment == "production" {
		router.Use(middleware.CORS(middleware.ProductionCORSConfig(b.config.AllowedOrigins)))
	} else {
		router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	}

	// 5. Logging
	router.Use(middleware.Logging(&middleware.LoggingConfig{
		Logger:    b.config.Logger,
		SkipPaths: []string{"/health", "/live", "/ready", "/metrics"},
	}))

	// 6. Rate Limiting (global)
	router.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))

	// 7. Metrics (Prometheus)
	router.Use(middleware.Metrics())

	// ============================================
	// Metrics Endpoint (no auth)
	// ============================================

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// ============================================
	// Health Check Routes (no auth)
	// ============================================

	healthHandler := handlers.NewHealthHandler(
		b.config.Pool,
		b.config.Version,
		b.config.BuildTime,
	)
	healthHandler.RegisterRoutes(router)

	// ============================================
	// API v1 Routes
	// ============================================

	v1 := router.Group("/api/v1")

	// Wallet routes. Сервис внутренний: вызывающие доверенные,
	// аутентификация на этом уровне не требуется.
	if b.wallets != nil {
		walletHandler := handlers.NewWalletHandler(
			b.wallets.Topup,
			b.wallets.Bonus,
			b.wallets.Spend,
			b.wallets.GetBalance,
			b.wallets.GetHistory,
		)
		wallets := v1.Group("/wallets")
		{
			wallets.GET("/:user_id/balance", walletHandler.GetBalance)
			wallets.GET("/:user_id/transactions", walletHandler.GetTransactions)

			// Переводы с более строгим rate limiting
			financialOps := wallets.Group("")
			financialOps.Use(middleware.TransactionRateLimit())
			{
				financialOps.POST("/topup", walletHandler.Topup)
				financialOps.POST("/bonus", walletHandler.Bonus)
				financialOps.POST("/spend", walletHandler.Spend)
			}
		}
	}

	// Transaction routes
	if b.transactions != nil {
		txHandler := handlers.NewTransactionHandler(b.transactions.GetTransaction)
		txHandler.RegisterRoutes(v1)
	}

	// Asset routes: чтение открыто, мутации только для admin JWT.
	if b.assets != nil {
		assetHandler := handlers.NewAssetHandler(
			b.assets.CreateAsset,
			b.assets.DeactivateAsset,
			b.assets.ListAssets,
		)
		v1.GET("/assets", assetHandler.ListAssets)

		adminAssets := v1.Group("/assets")
		adminAssets.Use(middleware.Auth(&middleware.AuthConfig{
			TokenValidator: b.config.AuthTokenValidator,
		}))
		adminAssets.Use(middleware.RequireRole("admin"))
		{
			adminAssets.POST("", assetHandler.CreateAsset)
			adminAssets.DELETE("/:code", assetHandler.DeactivateAsset)
		}
	}

	// ============================================
	// 404 Handler
	// ============================================

	router.NoRoute(func(c *gin.Context) {
		common.Error(c, 404, &common.APIError{
			Code:    common.ErrCodeNotFound,
			Message: "Endpoint not found",
			Details: map[string]interface{}{
				"path":   c.Request.URL.Path,
				"method": c.Request.Method,
			},
		})
	})

	return router
}

// ============================================
// Quick Setup Functions
// ============================================

// NewRouter создаёт роутер с базовой конфигурацией (для простых случаев).
func NewRouter(config *RouterConfig) *gin.Engine {
	return NewRouterBuilder(config).Build()
}

// NewDevelopmentRouter создаёт роутер для development окружения.
func NewDevelopmentRouter() *gin.Engine {
	config := DefaultRouterConfig()
	config.Environment = "development"
	return NewRouter(config)
}
