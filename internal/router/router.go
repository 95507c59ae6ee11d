package router

import (
	"time"

	"github.com/Ranjel272/POSBF/internal/config"
	"github.com/Ranjel272/POSBF/internal/credential"
	"github.com/Ranjel272/POSBF/internal/handler"
	"github.com/Ranjel272/POSBF/internal/infra"
	"github.com/Ranjel272/POSBF/internal/metrics"
	"github.com/Ranjel272/POSBF/internal/middleware"
	"github.com/Ranjel272/POSBF/internal/model"
	"github.com/Ranjel272/POSBF/internal/repository"
	"github.com/Ranjel272/POSBF/internal/service"
	"github.com/Ranjel272/POSBF/internal/token"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
// rdb may be nil; login throttling then falls back to a per-process window.
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, audit service.AuditDispatcher) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.Metrics())
	r.Use(middleware.CORS(cfg.AllowedOrigins()))
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Infrastructure ───────────────────────────────────────────────────────
	var loginLimiter infra.RateLimiter
	if rdb != nil {
		loginLimiter = infra.NewRedisRateLimiter(rdb, "rl:login:", cfg.LoginRateLimit,
			time.Duration(cfg.LoginRateWindowSeconds)*time.Second)
	}
	policy := credential.Policy{
		MinPasswordLength:  cfg.PasswordMinLength,
		PasscodeMinLength:  cfg.PasscodeMinLength,
		PasscodeMaxLength:  cfg.PasscodeMaxLength,
		PasscodeDigitsOnly: cfg.PasscodeDigitsOnly,
	}
	hasher := credential.NewBcryptHasher(cfg.BcryptCost)
	tokens := token.NewIssuer(cfg.JWTSecret,
		time.Duration(cfg.JWTExpirationHours)*time.Hour,
		time.Duration(cfg.JWTRefreshHours)*time.Hour)

	// ── Repositories ─────────────────────────────────────────────────────────
	accountRepo := repository.NewAccountRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(accountRepo, hasher, tokens, policy)
	accountSvc := service.NewAccountService(accountRepo, hasher, audit, service.AccountOptions{
		UniqueCashierPasscode: cfg.UniqueCashierPasscode,
		Policy:                policy,
	})

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	accountsH := handler.NewAccountsHandler(accountSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	// Auth (public)
	loginMW := middleware.LoginRateLimiter(loginLimiter, cfg.LoginRateLimit,
		time.Duration(cfg.LoginRateWindowSeconds)*time.Second)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", loginMW, authH.Login)
		auth.POST("/passcode-login", loginMW, authH.PasscodeLogin)
		auth.POST("/refresh", authH.Refresh)
	}

	// Protected routes
	authMW := middleware.Authenticate(authSvc)
	v1 := r.Group("/v1", authMW)
	{
		v1.GET("/auth/me", authH.Me)

		// Self-service: manager and cashier only, the target is always the caller
		v1.PUT("/employee-accounts/self",
			middleware.RequireRole(model.RoleManager, model.RoleCashier), accountsH.SelfUpdate)

		accounts := v1.Group("/employee-accounts", middleware.RequireRole(model.RoleAdmin))
		{
			accounts.POST("", accountsH.Create)
			accounts.GET("", accountsH.List)
			accounts.PUT("/:id", accountsH.Update)
			accounts.DELETE("/:id", accountsH.Disable)
		}
	}

	// Swagger UI, only enabled outside production
	if !cfg.IsProduction() {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
