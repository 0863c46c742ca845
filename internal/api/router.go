package api

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/guttosm/marketpulse/internal/middleware"
)

const (
	defaultRequestTimeout = 10 * time.Second
	defaultJobTimeout     = 30 * time.Minute
)

// RouterOptions configures the cross-cutting behaviour of the router.
type RouterOptions struct {
	JWTSecret          string        // HS256 secret for the write endpoints
	RateLimitPerMinute int           // per client IP; 0 disables
	RequestTimeout     time.Duration // read endpoints; default 10s
	JobTimeout         time.Duration // aggregation runs, backfills and stock registration; default 30m
}

// NewRouter creates a Gin engine with routes configured.
// It receives a Handler instance with all business logic already injected.
//
// Responsibilities:
//   - Registers global middlewares (RequestID, Logger, Recovery, ErrorHandler, RateLimiter).
//   - Bounds the request context with RequestTimeout, except for the aggregation
//     run, the history backfill and stock registration which get JobTimeout.
//   - Mounts Swagger docs (/swagger/*any).
//   - Configures API v1 routes (/api/v1); POST routes require a bearer token.
//
// Note:
//   - Health and readiness endpoints (/healthz, /readyz) are registered in app.InitializeApp().
func NewRouter(handler *Handler, opts RouterOptions) *gin.Engine {
	reads := withTimeout(opts.RequestTimeout, defaultRequestTimeout)
	jobs := withTimeout(opts.JobTimeout, defaultJobTimeout)

	router := gin.New()

	// ─── Middlewares ───────────────────────────────
	router.Use(
		middleware.RequestID(),
		middleware.RequestLogger(),
		middleware.RecoveryMiddleware(),
		middleware.ErrorHandler,
		middleware.RateLimiter(opts.RateLimitPerMinute),
	)

	// ─── Swagger ──────────────────────────────────
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// ─── API v1 ───────────────────────────────────
	auth := middleware.BearerAuth(opts.JWTSecret)
	v1 := router.Group("/api/v1")
	{
		v1.GET("/market-pulse", reads, handler.GetMarketPulse)
		v1.POST("/market-pulse/run", auth, jobs, handler.RunMarketPulse)

		stocks := v1.Group("/stocks")
		stocks.GET("/history", reads, handler.GetPeriodHistory)
		stocks.GET("/history/:symbol", reads, handler.GetStockHistory)
		stocks.POST("/history/update", auth, jobs, handler.UpdateHistory)
		stocks.POST("/add", auth, jobs, handler.AddStocks)
		stocks.GET("/52week/:symbol", reads, handler.GetFiftyTwoWeek)
		stocks.GET("/info", reads, handler.GetStockInfo)
	}

	return router
}

// withTimeout bounds the request context by d, or by def when d is not positive.
func withTimeout(d, def time.Duration) gin.HandlerFunc {
	if d <= 0 {
		d = def
	}
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
