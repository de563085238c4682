package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"cafeteria-service/internal/models"
	"cafeteria-service/internal/service"
	"cafeteria-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// ReadinessCheck reports whether a dependency is usable
type ReadinessCheck func(ctx context.Context) error

// Handler contains HTTP handlers
type Handler struct {
	engine      *service.OrderEngine
	idempotency IdempotencyStore
	idemTTL     time.Duration
	audit       AuditReader
	checks      map[string]ReadinessCheck
	logger      *zap.Logger
}

// Option configures a Handler
type Option func(*Handler)

// WithIdempotency enables Idempotency-Key handling on order creation
func WithIdempotency(store IdempotencyStore, ttl time.Duration) Option {
	return func(h *Handler) {
		h.idempotency = store
		h.idemTTL = ttl
	}
}

// WithAuditTrail serves the order audit log recorded by the audit worker
func WithAuditTrail(reader AuditReader) Option {
	return func(h *Handler) {
		h.audit = reader
	}
}

// WithReadinessCheck adds a dependency to the /ready probe
func WithReadinessCheck(name string, check ReadinessCheck) Option {
	return func(h *Handler) {
		h.checks[name] = check
	}
}

// NewHandler creates a new HTTP handler
func NewHandler(engine *service.OrderEngine, opts ...Option) *Handler {
	h := &Handler{
		engine: engine,
		checks: make(map[string]ReadinessCheck),
		logger: util.Named("api"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/products", h.listProducts)
		v1.GET("/products/:code", h.getProduct)
		v1.PUT("/products/:code", h.putProduct)
		v1.POST("/products/:code/stock", h.adjustStock)

		v1.POST("/customers", h.registerCustomer)
		v1.GET("/customers/:id", h.getCustomer)
		v1.GET("/customers/:id/orders", h.customerOrders)

		v1.POST("/employees", h.registerEmployee)
		v1.POST("/employees/login", h.login)

		v1.POST("/orders", h.createOrder)
		v1.GET("/orders", h.listOrders)
		v1.GET("/orders/:number", h.getOrder)
		v1.DELETE("/orders/:number", h.deleteOrder)
		v1.POST("/orders/:number/lines", h.addLine)
		v1.DELETE("/orders/:number/lines/:code", h.removeLine)
		v1.GET("/orders/:number/audit", h.orderAudit)
		v1.POST("/orders/:number/prepare", h.advance(models.TransitionPrepare))
		v1.POST("/orders/:number/deliver", h.advance(models.TransitionDeliver))

		v1.GET("/reports/sales", h.salesReport)
		v1.GET("/reports/customers", h.customerReport)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	failed := gin.H{}
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			failed[name] = err.Error()
		}
	}
	if len(failed) > 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"failed": failed,
			"time":   time.Now().Unix(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// respond writes a successful result. A persistence warning keeps the success
// status and is reported next to the data.
func (h *Handler) respond(c *gin.Context, status int, data interface{}, err error) {
	if err != nil && !service.IsPersistWarning(err) {
		h.writeError(c, err)
		return
	}

	body := gin.H{"data": data}
	if err != nil {
		body["warning"] = err.Error()
	}
	c.JSON(status, body)
}

func (h *Handler) writeError(c *gin.Context, err error) {
	var stockErr *models.InsufficientStockError
	switch {
	case errors.As(err, &stockErr):
		c.JSON(http.StatusConflict, gin.H{"error": "Insufficient stock", "details": stockErr})
	case errors.Is(err, models.ErrDuplicateID),
		errors.Is(err, models.ErrDuplicateUsername),
		errors.Is(err, models.ErrInvalidState):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrNotFound),
		errors.Is(err, models.ErrLineNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrInvalidLine),
		errors.Is(err, models.ErrInvalidProduct),
		errors.Is(err, models.ErrMissingIdentity):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error", "details": err.Error()})
	}
}

func badRequest(c *gin.Context, msg string, err error) {
	body := gin.H{"error": msg}
	if err != nil {
		body["details"] = err.Error()
	}
	c.JSON(http.StatusBadRequest, body)
}

func orderNumberParam(c *gin.Context) (int64, bool) {
	n, err := strconv.ParseInt(c.Param("number"), 10, 64)
	if err != nil || n <= 0 {
		badRequest(c, "Invalid order number", err)
		return 0, false
	}
	return n, true
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
