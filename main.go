package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"inventaris/internal/config"
	"inventaris/internal/database"
	"inventaris/internal/email"
	"inventaris/internal/handlers"
	"inventaris/internal/logger"
	"inventaris/internal/middleware"
	"inventaris/internal/scheduler"
	"inventaris/internal/session"
	"inventaris/internal/storage"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.Load()

	logger.Initialize(logger.ParseLevel(cfg.LogLevel), cfg.IsDevelopment())
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Initialize(cfg.DatabasePath)
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	if cfg.SeedDemoData {
		if err := database.SeedDemoData(db); err != nil {
			log.Fatal("Failed to seed demo data:", err)
		}
	}

	ctx := context.Background()

	var (
		sessions session.Store
		cleaner  scheduler.SessionCleaner
	)
	if cfg.RedisAddr != "" {
		rdb, err := session.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Fatal("Failed to connect to Redis:", err)
		}
		defer rdb.Close()
		sessions = session.NewRedisStore(rdb, cfg.SessionDuration)
		logger.Info("Sessions stored in Redis", "addr", cfg.RedisAddr)
	} else {
		sqlSessions := session.NewSQLStore(db, cfg.SessionDuration)
		sessions = sqlSessions
		cleaner = sqlSessions
	}

	var images handlers.ImageStore
	if cfg.MinioEndpoint != "" {
		store, err := storage.NewMinioStore(ctx, storage.MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
			PublicURL: cfg.MinioPublicURL,
		})
		if err != nil {
			log.Fatal("Failed to initialize object storage:", err)
		}
		images = storage.NewImages(store)
		logger.Info("Image uploads enabled", "bucket", cfg.MinioBucket)
	} else {
		logger.Warn("Image uploads disabled - MinIO not configured")
	}

	emailService := email.NewService(cfg)
	if emailService.IsEnabled() {
		logger.Info("Email service enabled with Mailgun")
	} else {
		logger.Info("Email service disabled - Mailgun not configured")
	}

	jobs, err := scheduler.New(db, scheduler.Config{
		CleanupSchedule:  cfg.CleanupSchedule,
		ReminderSchedule: cfg.ReminderSchedule,
	}, cleaner, emailService)
	if err != nil {
		log.Fatal("Failed to configure scheduler:", err)
	}
	jobs.Start()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(middleware.RateLimit(cfg))

	handlers.SetupRoutes(r, handlers.Deps{
		DB:       db,
		Config:   cfg,
		Sessions: sessions,
		Notifier: emailService,
		Images:   images,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server starting", "port", cfg.Port, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed:", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	jobs.Stop(shutdownCtx)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", "error", err)
	}
	if err := emailService.Wait(shutdownCtx); err != nil {
		logger.Warn("Pending emails were not sent before shutdown", "error", err)
	}
}
