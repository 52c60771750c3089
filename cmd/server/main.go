// Package main runs the event ticketing HTTP server with graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/gdg-soe/ticketing/config"
	"github.com/gdg-soe/ticketing/internal/auth"
	"github.com/gdg-soe/ticketing/internal/checkin"
	"github.com/gdg-soe/ticketing/internal/middleware"
	"github.com/gdg-soe/ticketing/internal/models"
	"github.com/gdg-soe/ticketing/internal/realtime"
	"github.com/gdg-soe/ticketing/internal/registrations"
	"github.com/gdg-soe/ticketing/internal/ticket"
	"github.com/gdg-soe/ticketing/pkg/database"
	"github.com/gdg-soe/ticketing/pkg/redis"
	"github.com/gdg-soe/ticketing/pkg/response"
	"github.com/gdg-soe/ticketing/pkg/storage"
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
	if cfg.AWS.TicketsBucket != "" {
		s3Cfg := storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			TicketsBucket:        cfg.AWS.TicketsBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}
		s3Client, err = storage.NewS3(ctx, s3Cfg, logger)
		if err != nil {
			logger.Warn("ticket image archive disabled", zap.Error(err))
			s3Client = nil
		}
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, time.Duration(cfg.JWT.ExpireHours)*time.Hour)

	// Realtime admin feed
	pubsub := realtime.NewPubSub(rdb.Client, logger)
	hub := realtime.NewHub(logger)
	if err := hub.Start(pubsub); err != nil {
		logger.Fatal("event feed", zap.Error(err))
	}
	defer hub.Stop()

	// Auth
	authRepo := auth.NewRepository(pool)
	authHandler := auth.NewHandler(authRepo, jwtService, logger)

	// Registrations
	generator := ticket.NewGenerator(cfg.Event.TicketPrefix, cfg.Event.TicketTokenLength)
	encoder := ticket.NewEncoder(cfg.Event.QRSize)
	registrationRepo := registrations.NewRepository(pool)
	registrationHandler := registrations.NewHandler(registrationRepo, generator, encoder, cfg.Event.RegistrationLimit, logger)
	registrationHandler.SetFeed(pubsub)
	if s3Client != nil {
		registrationHandler.SetArchive(s3Client)
	}

	// Check-in
	checkinHandler := checkin.NewHandler(registrationRepo, logger)
	checkinHandler.SetFeed(pubsub)

	jwtValidate := func(token string) (userID uuid.UUID, role string, err error) {
		claims, err := jwtService.Validate(token)
		if err != nil {
			return uuid.Nil, "", err
		}
		return claims.UserID, string(claims.Role), nil
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Public: team registration and remaining-capacity counter
	router.POST("/register", registrationHandler.Register)
	router.GET("/registrations/count", registrationHandler.Count)

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
		// Ticket retrieval, scoped to the caller's email
		api.GET("/ticket", registrationHandler.GetTicket)

		// Door scanner (admin only)
		api.GET("/teams", middleware.RequireRole(models.RoleAdmin), registrationHandler.ListTeams)
		api.POST("/checkin", middleware.RequireRole(models.RoleAdmin), checkinHandler.CheckIn)
		api.GET("/verify", middleware.RequireRole(models.RoleAdmin), checkinHandler.Verify)
	}

	// WebSocket live feed for the admin dashboard (token in query)
	router.GET("/ws", realtime.ServeWs(hub, logger, jwtValidate))

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
