// Package main runs the community management HTTP server with graceful
// shutdown.
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

	"github.com/villagio/backend/config"
	"github.com/villagio/backend/internal/auth"
	"github.com/villagio/backend/internal/households"
	"github.com/villagio/backend/internal/memberships"
	"github.com/villagio/backend/internal/middleware"
	"github.com/villagio/backend/internal/models"
	"github.com/villagio/backend/internal/notifications"
	"github.com/villagio/backend/internal/roles"
	"github.com/villagio/backend/internal/session"
	"github.com/villagio/backend/internal/stickers"
	"github.com/villagio/backend/internal/tenantctx"
	"github.com/villagio/backend/internal/tenants"
	"github.com/villagio/backend/pkg/database"
	"github.com/villagio/backend/pkg/queue"
	"github.com/villagio/backend/pkg/redis"
	"github.com/villagio/backend/pkg/response"
	"github.com/villagio/backend/pkg/storage"
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

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	var s3Client *storage.S3
	if cfg.AWS.Region != "" {
		s3Cfg := storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			DocumentsBucket:      cfg.AWS.DocumentsBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}
		s3Client, err = storage.NewS3(ctx, s3Cfg, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
		}
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	tokenStore := auth.NewTokenStore(rdb.Client)
	jobQueue := queue.NewQueue(rdb.Client, logger)

	// Membership store backs the tenant context engine: every validation
	// reads live membership, role, and tenant state.
	membershipRepo := memberships.NewRepository(pool)
	engine := tenantctx.NewEngine(membershipRepo, logger)

	authRepo := auth.NewRepository(pool)
	authHandler := auth.NewHandler(authRepo, jwtService, engine, tokenStore, logger)

	sessionHandler := session.NewHandler(engine, jwtService, tokenStore, logger)

	roleRepo := roles.NewRepository(pool)
	roleHandler := roles.NewHandler(roleRepo)

	tenantRepo := tenants.NewRepository(pool)
	tenantHandler := tenants.NewHandler(tenantRepo, membershipRepo, roleRepo, logger)

	notifRepo := notifications.NewRepository(pool)
	notifHandler := notifications.NewHandler(notifRepo)

	memberHandler := memberships.NewHandler(membershipRepo, authRepo, roleRepo, notifRepo, jobQueue, logger)

	householdRepo := households.NewRepository(pool)
	householdHandler := households.NewHandler(householdRepo)

	stickerRepo := stickers.NewRepository(pool)
	stickerHandler := stickers.NewHandler(stickerRepo, s3Client, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Auth (public)
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/register", authHandler.Register)
	}

	// Authenticated API: JWT required, no tenant context yet. Tenant listing,
	// switching, and creation live here so a user without an active community
	// can still reach them.
	api := router.Group("")
	api.Use(middleware.JWT(jwtService, tokenStore))
	{
		api.POST("/auth/refresh", authHandler.Refresh)

		api.GET("/tenants", sessionHandler.ListTenants)
		api.POST("/tenants", tenantHandler.Create)
		api.POST("/tenants/switch", sessionHandler.Switch)
		api.PATCH("/tenants/:id/status", tenantHandler.UpdateStatus)

		api.GET("/roles", roleHandler.List)

		api.GET("/session", sessionHandler.Get)
	}

	// Tenant-scoped API: a valid, active membership in an operable community
	// is re-verified on every request.
	scoped := router.Group("")
	scoped.Use(middleware.JWT(jwtService, tokenStore))
	scoped.Use(middleware.TenantContext(engine))
	{
		scoped.GET("/session/permissions", sessionHandler.Permissions)
		scoped.POST("/session/permissions/check", sessionHandler.CheckPermissions)

		scoped.GET("/members", middleware.RequirePermission(models.PermManageUsers), memberHandler.List)
		scoped.POST("/members", middleware.RequirePermission(models.PermManageUsers), memberHandler.Assign)
		scoped.PATCH("/members/:id", middleware.RequirePermission(models.PermManageUsers), memberHandler.Update)

		scoped.GET("/households", middleware.RequireAnyPermission(models.PermViewHouseholds, models.PermManageHouseholds), householdHandler.List)
		scoped.POST("/households", middleware.RequirePermission(models.PermManageHouseholds), householdHandler.Create)
		scoped.GET("/households/:id", middleware.RequireAnyPermission(models.PermViewHouseholds, models.PermManageHouseholds), householdHandler.Get)
		scoped.PATCH("/households/:id", middleware.RequirePermission(models.PermManageHouseholds), householdHandler.Update)
		scoped.GET("/households/:id/residents", middleware.RequireAnyPermission(models.PermViewHouseholds, models.PermManageHouseholds), householdHandler.ListResidents)
		scoped.POST("/households/:id/residents", middleware.RequirePermission(models.PermManageHouseholds), householdHandler.AddResident)
		scoped.DELETE("/residents/:id", middleware.RequirePermission(models.PermManageHouseholds), householdHandler.RemoveResident)

		scoped.GET("/stickers", middleware.RequireAnyPermission(models.PermViewStickers, models.PermManageStickers), stickerHandler.List)
		scoped.POST("/stickers", middleware.RequirePermission(models.PermManageStickers), stickerHandler.Create)
		scoped.GET("/stickers/:id", middleware.RequireAnyPermission(models.PermViewStickers, models.PermManageStickers), stickerHandler.Get)
		scoped.PATCH("/stickers/:id/status", middleware.RequirePermission(models.PermManageStickers), stickerHandler.UpdateStatus)
		scoped.POST("/stickers/:id/renew", middleware.RequirePermission(models.PermManageStickers), stickerHandler.Renew)
		scoped.POST("/stickers/:id/photo-url", middleware.RequirePermission(models.PermManageStickers), stickerHandler.PhotoUploadURL)
		scoped.POST("/stickers/:id/photo", middleware.RequirePermission(models.PermManageStickers), stickerHandler.UploadPhoto)
		scoped.GET("/stickers/:id/photo-url", middleware.RequireAnyPermission(models.PermViewStickers, models.PermManageStickers), stickerHandler.PhotoDownloadURL)

		scoped.GET("/notifications", notifHandler.List)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
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
