package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/batchdesk/internal/server/handlers"
	"github.com/mamadbah2/batchdesk/pkg/requestid"
)

// Handlers groups the HTTP adapters mounted by New. Operators may be nil when WhatsApp
// is not configured.
type Handlers struct {
	Batches   *handlers.BatchHandler
	Reports   *handlers.ReportHandler
	Operators *handlers.OperatorHandler
}

// New wires the Gin engine with required routes and middlewares.
func New(h Handlers, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestIDMiddleware())
	r.Use(zapLoggerMiddleware(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")
	{
		api.GET("/stocks/:stockId/batches", h.Batches.ListByStock)
		api.GET("/products/:productId/batches", h.Batches.ListByProduct)
		api.GET("/variants/:variantId/batches", h.Batches.ListByVariant)
		api.GET("/variants/:variantId/batches/grouped", h.Batches.GroupedByVariant)
		api.POST("/variants/:variantId/warehouses/:warehouseId/batches", h.Batches.CreateForVariant)

		api.GET("/batches/expiring-soon", h.Batches.ExpiringSoon)
		api.GET("/batches/:batchId", h.Batches.Get)
		api.POST("/batches", h.Batches.Create)
		api.PUT("/batches/:batchId", h.Batches.Update)
		api.DELETE("/batches/:batchId", h.Batches.Delete)
		api.POST("/batches/:batchId/recall", h.Batches.Recall)

		if h.Reports != nil {
			api.POST("/reports/expiry", h.Reports.Run)
			api.GET("/reports/expiry/latest", h.Reports.Latest)
		}
	}

	if h.Operators != nil {
		r.GET("/webhook", h.Operators.VerifySubscription)
		r.POST("/webhook", h.Operators.ReceiveCommands)
		r.POST("/send-message", h.Operators.Notify)
	}

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

// requestIDMiddleware reuses an incoming X-Request-ID or mints one, and puts it on the
// request context so inventory calls carry it.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestid.Header)
		if id == "" {
			id = requestid.New()
		}
		c.Request = c.Request.WithContext(requestid.With(c.Request.Context(), id))
		c.Header(requestid.Header, id)
		c.Next()
	}
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.String("request_id", requestid.From(c.Request.Context())))
	}
}
