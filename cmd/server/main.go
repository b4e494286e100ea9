// Package main runs the event scanner HTTP server with the live feed WebSocket and graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/eventscan/backend/config"
	"github.com/eventscan/backend/internal/auth"
	"github.com/eventscan/backend/internal/connect"
	"github.com/eventscan/backend/internal/credentials"
	"github.com/eventscan/backend/internal/events"
	"github.com/eventscan/backend/internal/exports"
	"github.com/eventscan/backend/internal/middleware"
	"github.com/eventscan/backend/internal/models"
	"github.com/eventscan/backend/internal/preferences"
	"github.com/eventscan/backend/internal/realtime"
	"github.com/eventscan/backend/internal/scans"
	"github.com/eventscan/backend/internal/worker"
	"github.com/eventscan/backend/pkg/database"
	"github.com/eventscan/backend/pkg/queue"
	"github.com/eventscan/backend/pkg/redis"
	"github.com/eventscan/backend/pkg/response"
	"github.com/eventscan/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool, logger); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	var s3Client *storage.S3
	if cfg.AWS.Region != "" {
		s3Client, err = storage.NewS3(ctx, storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			ExportsBucket:        cfg.AWS.ExportsBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
			s3Client = nil
		}
	}

	sealer, err := credentials.NewSealer(cfg.Credentials.Secret)
	if err != nil {
		logger.Fatal("credential sealer", zap.Error(err))
	}
	credStore := credentials.NewRedisStore(rdb.Client, sealer, logger)

	bridge := connect.NewClient(connect.Config{
		URL:        cfg.Connect.URL,
		ClientName: cfg.Connect.ClientName,
		Timeout:    cfg.Connect.Timeout(),
	}, nil, logger)
	loc := cfg.Scanner.Location()

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	redisPubSub := realtime.NewRedisPubSub(rdb.Client, logger)
	hub := realtime.NewHub(logger, redisPubSub, redisPubSub)

	// Operators
	authRepo := auth.NewRepository(pool)
	authHandler := auth.NewHandler(authRepo, jwtService, logger)

	// Settings
	credHandler := credentials.NewHandler(credStore, logger)
	prefRepo := preferences.NewRepository(pool)
	prefHandler := preferences.NewHandler(prefRepo, logger)

	// Events and scanning
	eventHandler := events.NewHandler(bridge, credStore, loc, logger)
	scanRepo := scans.NewRepository(pool)
	gate := scans.NewPauseGate(rdb.Client, cfg.Scanner.PauseWindow())
	scanHandler := scans.NewHandler(bridge, credStore, scanRepo, gate, prefRepo, hub, logger)

	// Exports
	exportRepo := exports.NewRepository(pool)
	jobQueue := queue.NewQueue(rdb.Client, logger)
	var presigner exports.Presigner
	if s3Client != nil {
		presigner = s3Client
	}
	exportHandler := exports.NewHandler(exportRepo, jobQueue, presigner, logger)

	jwtValidate := func(token string) (operatorID, role string, err error) {
		claims, err := jwtService.Validate(token)
		if err != nil {
			return "", "", err
		}
		return claims.OperatorID.String(), claims.Role, nil
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })
	router.GET("/readyz", func(c *gin.Context) {
		rctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(rctx); err != nil {
			response.ServiceUnavailable(c, "database unavailable")
			return
		}
		if err := rdb.Ready(rctx); err != nil {
			response.ServiceUnavailable(c, "redis unavailable")
			return
		}
		response.OK(c, gin.H{"status": "ready"})
	})

	// Auth (public)
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/register", authHandler.Register)
	}

	// Protected API (JWT required)
	api := router.Group("")
	api.Use(middleware.JWT(jwtService))
	{
		// Operators (admin only)
		api.GET("/operators", middleware.RequireRole(models.RoleAdmin), authHandler.List)
		api.POST("/operators", middleware.RequireRole(models.RoleAdmin), authHandler.Create)

		// Settings
		settings := api.Group("/settings")
		settings.GET("/preferences", prefHandler.Get)
		settings.PUT("/preferences", middleware.RequireRole(models.RoleAdmin), prefHandler.Update)
		settings.GET("/passkey", middleware.RequireRole(models.RoleAdmin), credHandler.Status)
		settings.PUT("/passkey", middleware.RequireRole(models.RoleAdmin), credHandler.Set)
		settings.DELETE("/passkey", middleware.RequireRole(models.RoleAdmin), credHandler.Delete)

		// Events and scans
		api.GET("/events", eventHandler.List)
		api.POST("/events/:gid/scans", scanHandler.Scan)
		api.GET("/events/:gid/scans", scanHandler.List)

		// Exports
		api.POST("/events/:gid/exports", exportHandler.Create)
		api.GET("/exports/:id", exportHandler.Get)
		api.GET("/exports/:id/download-url", exportHandler.DownloadURL)
	}

	// WebSocket (token in query; no Authorization header required)
	router.GET("/ws", realtime.ServeWs(hub, logger, jwtValidate))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Background worker (attendance exports to S3)
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	if s3Client != nil {
		processor := worker.NewExportProcessor(scanRepo, exportRepo, s3Client, exports.WriteCSV, jobQueue, loc, logger)
		go processor.Run(workerCtx)
		logger.Info("export worker started")
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	workerCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
