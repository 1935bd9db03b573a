package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/Pixelcare-Consulting/omega-v2-sub004/config"
	"github.com/Pixelcare-Consulting/omega-v2-sub004/handlers"
	"github.com/Pixelcare-Consulting/omega-v2-sub004/middlewares"
	"github.com/Pixelcare-Consulting/omega-v2-sub004/models"
	"github.com/Pixelcare-Consulting/omega-v2-sub004/sapsync"
)

const defaultPort = "8080"

type RateLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
}

func getRedisClient(redisAddress string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: redisAddress,
	})
}

func customNotFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
}

func registerRoutes(r *gin.Engine) {
	r.POST("/pubsub/sap-sync", sapsync.PubSubPushHandler)
	r.POST("/internal/schedule/sap-sync/:domain", middlewares.ServiceAuth(), sapsync.ScheduleSyncHandler)

	auth := r.Group("/api/auth")
	{
		auth.POST("/login", handlers.LoginHandler)
		auth.POST("/logout", middlewares.RequireLogin(), handlers.LogoutHandler)
		auth.POST("/change-password", middlewares.RequireLogin(), handlers.ChangePasswordHandler)
	}

	api := r.Group("/api", middlewares.RequireLogin())

	users := api.Group("/users")
	{
		users.GET("", middlewares.RequirePermission("users", "read"), handlers.ListUsersHandler)
		users.GET("/:id", middlewares.RequirePermission("users", "read"), handlers.GetUserHandler)
		users.POST("", middlewares.RequirePermission("users", "create"), handlers.CreateUserHandler)
		users.PUT("/:id", middlewares.RequirePermission("users", "update"), handlers.UpdateUserHandler)
		users.DELETE("/:id", middlewares.RequirePermission("users", "delete"), handlers.DeleteUserHandler)
	}

	roles := api.Group("/roles")
	{
		roles.GET("", middlewares.RequirePermission("roles", "read"), handlers.ListRolesHandler)
		roles.GET("/:id", middlewares.RequirePermission("roles", "read"), handlers.GetRoleHandler)
		roles.POST("", middlewares.RequirePermission("roles", "create"), handlers.CreateRoleHandler)
		roles.PUT("/:id", middlewares.RequirePermission("roles", "update"), handlers.UpdateRoleHandler)
		roles.DELETE("/:id", middlewares.RequirePermission("roles", "delete"), handlers.DeleteRoleHandler)
	}

	modules := api.Group("/modules")
	{
		modules.GET("", middlewares.RequirePermission("modules", "read"), handlers.ListModulesHandler)
		modules.GET("/:id", middlewares.RequirePermission("modules", "read"), handlers.GetModuleHandler)
		modules.POST("", middlewares.RequirePermission("modules", "create"), handlers.CreateModuleHandler)
		modules.PUT("/:id", middlewares.RequirePermission("modules", "update"), handlers.UpdateModuleHandler)
		modules.DELETE("/:id", middlewares.RequirePermission("modules", "delete"), handlers.DeleteModuleHandler)
	}

	items := api.Group("/items")
	{
		items.GET("", middlewares.RequirePermission("items", "read"), handlers.ListItemsHandler)
		items.GET("/:id", middlewares.RequirePermission("items", "read"), handlers.GetItemHandler)
		items.POST("", middlewares.RequirePermission("items", "create"), handlers.CreateItemHandler)
		items.PUT("/:id", middlewares.RequirePermission("items", "update"), handlers.UpdateItemHandler)
		items.DELETE("/:id", middlewares.RequirePermission("items", "delete"), handlers.DeleteItemHandler)
		items.POST("/export", middlewares.RequirePermission("items", "export"), handlers.ExportItemsHandler)
	}

	partners := api.Group("/business-partners")
	{
		partners.GET("", middlewares.RequirePermission("business-partners", "read"), handlers.ListBusinessPartnersHandler)
		partners.GET("/:id", middlewares.RequirePermission("business-partners", "read"), handlers.GetBusinessPartnerHandler)
		partners.POST("", middlewares.RequirePermission("business-partners", "create"), handlers.CreateBusinessPartnerHandler)
		partners.PUT("/:id", middlewares.RequirePermission("business-partners", "update"), handlers.UpdateBusinessPartnerHandler)
		partners.DELETE("/:id", middlewares.RequirePermission("business-partners", "delete"), handlers.DeleteBusinessPartnerHandler)
		partners.POST("/export", middlewares.RequirePermission("business-partners", "export"), handlers.ExportBusinessPartnersHandler)
	}

	leads := api.Group("/leads")
	{
		leads.GET("", middlewares.RequirePermission("leads", "read"), handlers.ListLeadsHandler)
		leads.GET("/:id", middlewares.RequirePermission("leads", "read"), handlers.GetLeadHandler)
		leads.POST("", middlewares.RequirePermission("leads", "create"), handlers.CreateLeadHandler)
		leads.PUT("/:id", middlewares.RequirePermission("leads", "update"), handlers.UpdateLeadHandler)
		leads.DELETE("/:id", middlewares.RequirePermission("leads", "delete"), handlers.DeleteLeadHandler)
		leads.POST("/:id/convert", middlewares.RequirePermission("leads", "convert"), handlers.ConvertLeadHandler)
	}

	requisitions := api.Group("/requisitions")
	{
		requisitions.GET("", middlewares.RequirePermission("requisitions", "read"), handlers.ListRequisitionsHandler)
		requisitions.GET("/:id", middlewares.RequirePermission("requisitions", "read"), handlers.GetRequisitionHandler)
		requisitions.POST("", middlewares.RequirePermission("requisitions", "create"), handlers.CreateRequisitionHandler)
		requisitions.PUT("/:id", middlewares.RequirePermission("requisitions", "update"), handlers.UpdateRequisitionHandler)
		requisitions.PUT("/:id/status", middlewares.RequirePermission("requisitions", "approve"), handlers.ChangeRequisitionStatusHandler)
		requisitions.DELETE("/:id", middlewares.RequirePermission("requisitions", "delete"), handlers.DeleteRequisitionHandler)
	}

	quotations := api.Group("/quotations")
	{
		quotations.GET("", middlewares.RequirePermission("quotations", "read"), handlers.ListQuotationsHandler)
		quotations.GET("/:id", middlewares.RequirePermission("quotations", "read"), handlers.GetQuotationHandler)
		quotations.POST("", middlewares.RequirePermission("quotations", "create"), handlers.CreateQuotationHandler)
		quotations.PUT("/:id", middlewares.RequirePermission("quotations", "update"), handlers.UpdateQuotationHandler)
		quotations.PUT("/:id/status", middlewares.RequirePermission("quotations", "approve"), handlers.ChangeQuotationStatusHandler)
		quotations.DELETE("/:id", middlewares.RequirePermission("quotations", "delete"), handlers.DeleteQuotationHandler)
	}

	attachments := api.Group("/attachments")
	{
		attachments.GET("", middlewares.RequirePermission("attachments", "read"), handlers.ListAttachmentsHandler)
		attachments.POST("", middlewares.RequirePermission("attachments", "create"), handlers.UploadAttachmentHandler)
		attachments.POST("/sign", middlewares.RequirePermission("attachments", "create"), handlers.SignAttachmentUploadHandler)
		attachments.POST("/register", middlewares.RequirePermission("attachments", "create"), handlers.RegisterAttachmentHandler)
		attachments.DELETE("/:id", middlewares.RequirePermission("attachments", "delete"), handlers.DeleteAttachmentHandler)
	}

	// any signed-in user may trigger and inspect syncs; no role grant needed
	sync := api.Group("/sap/sync")
	{
		sync.POST("/:domain", sapsync.TriggerSyncHandler)
		sync.GET("/runs", sapsync.ListSyncRunsHandler)
		sync.GET("/runs/:id", sapsync.GetSyncRunHandler)
		sync.POST("/runs/:id/retry", sapsync.RetrySyncRunHandler)
		sync.GET("/meta", sapsync.SyncMetaHandler)
	}
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

	// Start the HTTP server ASAP so Cloud Run considers the revision healthy.
	// Until DB/Redis are ready, we return 503 for app endpoints.
	r := gin.New()
	r.Use(middlewares.CorrelationMiddleware())
	r.Use(func(c *gin.Context) {
		// Always allow Cloud Run startup probe.
		if c.Request.URL.Path == "/healthz" {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}
		// Gate critical endpoints on dependency readiness.
		if config.GetDB() == nil || config.GetRedisDB() == nil {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		c.Next()
	})

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	corsConfig := cors.DefaultConfig()
	// In production require an explicit allowlist via CORS_ALLOWED_ORIGINS.
	allowedOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
		if allowedOrigins == "" {
			corsConfig.AllowOrigins = []string{}
		} else {
			corsConfig.AllowOrigins = splitAndTrim(allowedOrigins)
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("token", "Origin", "Content-Type", "Authorization")
	corsConfig.AddExposeHeaders("Content-Length", "x-correlation-id")
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

	r.Use(middlewares.SessionMiddleware())
	r.Use(customErrorLogger(logger))
	r.Use(gin.Recovery())
	registerRoutes(r)
	r.NoRoute(customNotFoundHandler)

	// Start listening immediately (Cloud Run startup probe is TCP based).
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
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
	// AutoMigrate can run DDL that blocks tables; allow running it as a
	// separate job instead.
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
	}).Info("listening on port ", port)

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
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}

	if rdb := config.GetRedisDB(); rdb != nil {
		_ = rdb.Close()
	}
}

// customErrorLogger is a custom Gin middleware that logs only errors
func customErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			logger.Error(c.Errors.String())
		}
	}
}

func NewRateLimiter(client *redis.Client, limit int64, window time.Duration) *RateLimiter {
	return &RateLimiter{
		client: client,
		limit:  limit,
		window: window,
	}
}

// RateLimitMiddleware does IP-based counting in Redis.
func (rl *RateLimiter) RateLimitMiddleware(c *gin.Context) {
	key := c.ClientIP()

	exists, err := rl.client.Exists(c.Request.Context(), key).Result()
	if err != nil {
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	if exists == 0 {
		err := rl.client.Set(c.Request.Context(), key, 1, rl.window).Err()
		if err != nil {
			c.AbortWithError(http.StatusInternalServerError, err)
			return
		}
		c.Next()
		return
	}

	count, err := rl.client.Incr(c.Request.Context(), key).Result()
	if err != nil {
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	if count > rl.limit {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error": fmt.Sprintf("Rate limit exceeded. Try again in %d seconds", int(rl.window.Seconds())),
		})
		return
	}

	c.Next()
}

func splitAndTrim(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
