package handler

import (
	"invest-backoffice/internal/adapter/http/middleware"
	redisStore "invest-backoffice/internal/adapter/storage/redis"
	"invest-backoffice/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	WithdrawalSvc  ports.WithdrawalService
	Ledger         ports.Ledger
	ReportingSvc   ports.ReportingService
	TokenSvc       ports.TokenService
	RateLimitStore *redisStore.RateLimitStore // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	Auditor        ports.AuditRecorder // nil = topup audit disabled
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Health check (deep — verifies PostgreSQL + Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// Swagger documentation
	swagger := r.Group("/swagger")
	{
		swagger.GET("", SwaggerUI)
		swagger.GET("/spec", SwaggerSpec)
	}

	// Rate limit rules
	rules := middleware.DefaultRateLimitRules()

	// Helper: return rate limiter middleware if store is available, else noop.
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	withdrawalHandler := NewWithdrawalHandler(deps.WithdrawalSvc, deps.ReportingSvc)
	walletHandler := NewWalletHandler(deps.Ledger, deps.ReportingSvc)
	dashboardHandler := NewDashboardHandler(deps.ReportingSvc)

	// All API routes require an operator JWT issued by the platform auth
	// system; the user-facing flow reaches the create endpoint through the
	// platform gateway, which carries a service token.
	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)

	v1 := r.Group("/api/v1", jwtAuth)

	withdrawals := v1.Group("/withdrawals")
	{
		withdrawals.POST("", rl("withdrawals"), withdrawalHandler.Create)
		withdrawals.POST("/:id/transition", rl("transitions"), withdrawalHandler.Transition)
		withdrawals.GET("", rl("reports"), withdrawalHandler.List)
	}

	wallets := v1.Group("/wallets")
	{
		topupHandlers := []gin.HandlerFunc{rl("wallets_topup")}
		if deps.Auditor != nil {
			topupHandlers = append(topupHandlers, middleware.AuditTopup(deps.Auditor))
		}
		topupHandlers = append(topupHandlers, walletHandler.Topup)

		wallets.GET("/:user_id/balance", rl("reports"), walletHandler.GetBalance)
		wallets.GET("/:user_id/ledger", rl("reports"), walletHandler.GetLedger)
		wallets.POST("/:user_id/topup", topupHandlers...)
	}

	dashboard := v1.Group("/dashboard")
	{
		dashboard.GET("/stats", rl("reports"), dashboardHandler.GetStats)
	}

	return r
}
