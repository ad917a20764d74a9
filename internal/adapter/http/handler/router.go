package handler

import (
	"github.com/capoeira360/Craft-Art-Market-sub001/internal/adapter/http/middleware"
	"github.com/capoeira360/Craft-Art-Market-sub001/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	AuthSvc        ports.AuthService
	LedgerSvc      ports.LedgerService
	ReconSvc       ports.ReconciliationService
	PayoutSvc      ports.PayoutService
	ReportingSvc   ports.ReportingService
	TokenSvc       ports.TokenService
	HealthCheckers []ports.HealthChecker
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(4 << 20)) // statement uploads cap at 4 MB

	// Health check (deep, verifies PostgreSQL + Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// API v1 routes
	v1 := r.Group("/api/v1")

	// --- Public routes (no auth) ---
	authHandler := NewAuthHandler(deps.AuthSvc)
	auth := v1.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
	}

	// --- Operator routes (JWT) ---
	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)

	txnHandler := NewTransactionHandler(deps.LedgerSvc, deps.ReportingSvc)
	transactions := v1.Group("/transactions", jwtAuth)
	{
		transactions.POST("/sales", txnHandler.RecordSale)
		transactions.POST("/refunds", txnHandler.RecordRefund)
		transactions.POST("/:id/confirm", txnHandler.Confirm)
		transactions.POST("/:id/fail", txnHandler.Fail)
		transactions.GET("", txnHandler.List)
	}

	dashboard := v1.Group("/dashboard", jwtAuth)
	{
		dashboard.GET("/stats", txnHandler.GetStats)
	}

	reconHandler := NewReconciliationHandler(deps.ReconSvc)
	reconciliation := v1.Group("/reconciliation", jwtAuth)
	{
		reconciliation.POST("/statement", reconHandler.UploadStatement)
		reconciliation.POST("/transactions/:id", reconHandler.ReconcileOne)
		reconciliation.POST("/transactions/:id/resolve-failed", reconHandler.ResolveFailed)
	}

	payoutHandler := NewPayoutHandler(deps.PayoutSvc)
	payouts := v1.Group("/payouts/batches", jwtAuth)
	{
		payouts.POST("", payoutHandler.CreateBatch)
		payouts.POST("/:id/process", payoutHandler.ProcessBatch)
		payouts.GET("", payoutHandler.ListBatches)
		payouts.GET("/:id", payoutHandler.GetBatch)
	}

	return r
}
