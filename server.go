package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"bitbucket.org/mmdatafocus/warehouse_backend/config"
	"bitbucket.org/mmdatafocus/warehouse_backend/models"
	"bitbucket.org/mmdatafocus/warehouse_backend/utils"
)

const defaultPort = "8080"

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// registerDecimalValidators installs the binding tags used by every payload
// that carries money or quantity strings. Validation happens before any
// transaction starts, so a malformed decimal never costs a lock.
func registerDecimalValidators() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	_ = v.RegisterValidation("quantity", func(fl validator.FieldLevel) bool {
		_, err := utils.ParseQuantity("quantity", fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("price", func(fl validator.FieldLevel) bool {
		_, err := utils.ParsePrice("price", fl.Field().String())
		return err == nil
	})
}

// inventoryResponseCache serves inventory GETs from Redis. Keys live in the
// http:inventory namespace so ledger writes invalidate them together with the
// model-level cache.
func inventoryResponseCache(ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}
		key := "http:" + strings.TrimPrefix(c.Request.URL.Path, "/api/")
		if c.Request.URL.RawQuery != "" {
			key += "?" + c.Request.URL.RawQuery
		}
		if body, exists, err := config.GetRedisValue(key); err == nil && exists {
			c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(body))
			c.Abort()
			return
		}

		writer := &cachingResponseWriter{ResponseWriter: c.Writer}
		c.Writer = writer
		c.Next()

		if writer.Status() == http.StatusOK && writer.body.Len() > 0 {
			_ = config.SetRedisValue(key, writer.body.String(), ttl)
		}
	}
}

type cachingResponseWriter struct {
	gin.ResponseWriter
	body strings.Builder
}

func (w *cachingResponseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *cachingResponseWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

func registerRoutes(r *gin.Engine) {
	api := r.Group("/api")

	responseTTL := 30 * time.Second
	if v := strings.TrimSpace(os.Getenv("HTTP_CACHE_TTL_SECONDS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			responseTTL = time.Duration(n) * time.Second
		}
	}
	inventory := api.Group("/inventory", inventoryResponseCache(responseTTL))
	inventory.GET("", inventoryHandler)
	inventory.GET("/availability", inventoryAvailabilityHandler)

	api.POST("/documents", createDocumentHandler)
	api.GET("/documents", listDocumentsHandler)
	api.GET("/documents/status-stats", documentStatusStatsHandler)
	api.GET("/documents/:id", getDocumentHandler)
	api.PUT("/documents/:id", updateDocumentHandler)
	api.DELETE("/documents/:id", deleteDocumentHandler)
	api.POST("/documents/:id/post", postDocumentHandler)
	api.POST("/documents/:id/unpost", unpostDocumentHandler)
	api.POST("/documents/:id/toggle-status", toggleDocumentStatusHandler)

	api.POST("/orders", createOrderHandler)
	api.GET("/orders", listOrdersHandler)
	api.GET("/orders/:id", getOrderHandler)
	api.DELETE("/orders/:id", deleteOrderHandler)
	api.PUT("/orders/:id/reservation", updateOrderReservationHandler)
	api.POST("/orders/:id/reserves", createOrderReservesHandler)
	api.DELETE("/orders/:id/reserves", removeOrderReservesHandler)
	api.POST("/orders/:id/shipments", createShipmentHandler)
	api.GET("/orders/:id/shipments", listOrderShipmentsHandler)
	api.GET("/shipments/:id", getShipmentHandler)
	api.PUT("/shipments/:id/status", updateShipmentStatusHandler)
	api.DELETE("/shipments/:id", deleteShipmentHandler)

	api.POST("/products", createProductHandler)
	api.GET("/products", listProductsHandler)
	api.GET("/products/:id", getProductHandler)
	api.PUT("/products/:id", updateProductHandler)
	api.DELETE("/products/:id", deleteProductHandler)

	api.POST("/warehouses", createWarehouseHandler)
	api.GET("/warehouses", listWarehousesHandler)
	api.GET("/warehouses/:id", getWarehouseHandler)
	api.PUT("/warehouses/:id", updateWarehouseHandler)
	api.DELETE("/warehouses/:id", deleteWarehouseHandler)

	api.POST("/suppliers", createSupplierHandler)
	api.GET("/suppliers", listSuppliersHandler)
	api.GET("/suppliers/:id", getSupplierHandler)
	api.PUT("/suppliers/:id", updateSupplierHandler)
	api.DELETE("/suppliers/:id", deleteSupplierHandler)

	api.POST("/contractors", createContractorHandler)
	api.GET("/contractors", listContractorsHandler)
	api.GET("/contractors/:id", getContractorHandler)
	api.PUT("/contractors/:id", updateContractorHandler)
	api.DELETE("/contractors/:id", deleteContractorHandler)
}

func customNotFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
}

func main() {
	port := os.Getenv("API_PORT")
	if port == "" {
		// Cloud Run standard env var.
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = defaultPort
	}

	logger := config.GetLogger()

	// Cloud Run sends SIGTERM on revision shutdown; handle it for graceful drain.
	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	registerDecimalValidators()

	// Start the HTTP server ASAP so the platform considers the revision
	// healthy. Until DB/Redis are ready, app endpoints return 503.
	r := gin.New()
	// Correlation IDs: generate once per request and attach to context.
	r.Use(func(c *gin.Context) {
		cid := c.GetHeader("x-correlation-id")
		if cid == "" {
			cid = uuid.NewString()
		}
		c.Request = c.Request.WithContext(utils.SetCorrelationIdInContext(c.Request.Context(), cid))
		c.Next()
	})
	r.Use(func(c *gin.Context) {
		// Always allow the startup probe.
		if c.Request.URL.Path == "/healthz" {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}
		// Gate app endpoints on dependency readiness.
		if config.GetDB() == nil || config.GetRedisDB() == nil {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		c.Next()
	})

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	// Per-request deadline so a stuck lock or slow query cannot pin a worker.
	requestTimeout := 30 * time.Second
	if v := strings.TrimSpace(os.Getenv("HTTP_REQUEST_TIMEOUT_SECONDS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			requestTimeout = time.Duration(n) * time.Second
		}
	}
	r.Use(func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	})

	corsConfig := cors.DefaultConfig()
	// In production, require an explicit allowlist via CORS_ALLOWED_ORIGINS
	// (comma-separated). In non-production, allow all.
	allowedOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
		if allowedOrigins == "" {
			// Safer default: deny all if not configured in production.
			corsConfig.AllowOrigins = []string{}
		} else {
			corsConfig.AllowOrigins = splitAndTrim(allowedOrigins)
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("token", "Origin", "Content-Type", "Authorization", "x-correlation-id")
	corsConfig.AddExposeHeaders("Content-Length")
	corsConfig.AllowCredentials = true
	r.Use(cors.New(corsConfig))

	// Optional rate limiting.
	// Env:
	// - RATE_LIMIT_ENABLED=true
	// - RATE_LIMIT_WINDOW_SECONDS=60
	// - RATE_LIMIT_MAX_REQUESTS=600
	if strings.EqualFold(strings.TrimSpace(os.Getenv("RATE_LIMIT_ENABLED")), "true") {
		client := getRedisClient(os.Getenv("REDIS_ADDRESS"))
		limit := int64(600)
		if v := strings.TrimSpace(os.Getenv("RATE_LIMIT_MAX_REQUESTS")); v != "" {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
				limit = n
			}
		}
		windowSec := int64(60)
		if v := strings.TrimSpace(os.Getenv("RATE_LIMIT_WINDOW_SECONDS")); v != "" {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
				windowSec = n
			}
		}
		rateLimiter := NewRateLimiter(client, limit, time.Duration(windowSec)*time.Second)
		r.Use(rateLimiter.RateLimitMiddleware)
	}

	r.Use(customErrorLogger(logger))
	r.Use(gin.Recovery())
	registerRoutes(r)
	r.NoRoute(customNotFoundHandler)

	// Start listening immediately (startup probe is TCP based).
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		// ListenAndServe returns http.ErrServerClosed on graceful shutdown.
		serverErrCh <- srv.ListenAndServe()
	}()

	// Connect dependencies after the port is open.
	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()

	db := config.GetDB()
	sqlDB, _ := db.DB()
	defer func() {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}()
	// AutoMigrate can run DDL that blocks tables; allow disabling migrations
	// on startup and running them as a separate job instead.
	if !strings.EqualFold(strings.TrimSpace(os.Getenv("SKIP_MIGRATIONS")), "true") {
		models.MigrateTable()
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	}

	// Set the session isolation level to READ COMMITTED
	for attempt := 1; ; attempt++ {
		err := db.Exec("SET SESSION TRANSACTION ISOLATION LEVEL READ COMMITTED").Error
		if err == nil {
			break
		}
		sleep := time.Second * time.Duration(1<<min(attempt, 5))
		if sleep > 30*time.Second {
			sleep = 30 * time.Second
		}
		logger.WithFields(logrus.Fields{
			"field":   "database",
			"attempt": attempt,
		}).Warn("failed to set isolation level; retrying in " + sleep.String() + ": " + err.Error())
		time.Sleep(sleep)
	}

	logger.WithFields(logrus.Fields{
		"info": "Connection Established",
	}).Info("listening on http://localhost:", port)
	log.Println("Server started successfully")

	// Block until shutdown or server error.
	select {
	case <-sigCtx.Done():
		// graceful shutdown below
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	// Drain HTTP requests.
	shutdownTimeout := 30 * time.Second
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}

	// Close Redis (best-effort).
	if rdb := config.GetRedisDB(); rdb != nil {
		_ = rdb.Close()
	}
}

func getRedisClient(redisAddress string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     redisAddress,
		Password: os.Getenv("REDIS_PASSWORD"),
	})
}

// customErrorLogger is a custom Gin middleware that logs only errors
func customErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		for _, ginErr := range c.Errors {
			logger.WithFields(logrus.Fields{
				"path":   c.Request.URL.Path,
				"method": c.Request.Method,
				"status": c.Writer.Status(),
			}).Error(ginErr.Error())
		}
	}
}

type RateLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
}

func NewRateLimiter(client *redis.Client, limit int64, window time.Duration) *RateLimiter {
	return &RateLimiter{client: client, limit: limit, window: window}
}

func (rl *RateLimiter) RateLimitMiddleware(c *gin.Context) {
	key := "ratelimit:" + c.ClientIP()
	ctx := c.Request.Context()

	count, err := rl.client.Incr(ctx, key).Result()
	if err != nil {
		// Fail open; rate limiting is best-effort.
		c.Next()
		return
	}
	if count == 1 {
		rl.client.Expire(ctx, key, rl.window)
	}
	if count > rl.limit {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
		return
	}
	c.Next()
}

func splitAndTrim(csv string) []string {
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
