package main

//go:generate swag init -g cmd/api/main.go -d ../.. -o ../../docs

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	_ "github.com/clinictrack/user-service/docs"
	"github.com/clinictrack/user-service/internal/api"
	"github.com/clinictrack/user-service/internal/api/handler"
	"github.com/clinictrack/user-service/internal/core/service"
	mongodb "github.com/clinictrack/user-service/internal/infrastructure/db/mongo"
	redisdb "github.com/clinictrack/user-service/internal/infrastructure/db/redis"
	"github.com/clinictrack/user-service/internal/infrastructure/keepalive"
	"github.com/clinictrack/user-service/internal/infrastructure/queue"
	"github.com/clinictrack/user-service/internal/infrastructure/security"
	"github.com/clinictrack/user-service/internal/infrastructure/storage/minio"
	"github.com/clinictrack/user-service/internal/pkg/config"
	"github.com/clinictrack/user-service/pkg/logger"
)

const serviceName = "clinic-user-service"

//	@title						Clinic User Service API
//	@version					1.0
//	@description				User management, authentication and profile images for the clinic back office.
//	@BasePath					/
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Type "Bearer" followed by a space and the JWT.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer stop()

	envErr := godotenv.Load()

	cfg, err := config.Load(ctx)
	if err != nil {
		boot := logger.New(logger.Options{Service: serviceName})
		boot.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: serviceName,
	})
	if envErr != nil && !errors.Is(envErr, fs.ErrNotExist) {
		log.Warn().Err(envErr).Msg("could not read .env file")
	}

	// --- Infrastructure ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		AppName:  serviceName,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to MongoDB")
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mongoClient.Disconnect(disconnectCtx)
	}()
	log.Info().Str("database", cfg.Mongo.Database).Msg("connected to MongoDB")

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	defer rdb.Close()

	store, err := minio.Connect(ctx, minio.Config{
		Endpoint:  cfg.Minio.Endpoint,
		AccessKey: cfg.Minio.AccessKey,
		SecretKey: cfg.Minio.SecretKey,
		Bucket:    cfg.Minio.Bucket,
		UseSSL:    cfg.Minio.UseSSL,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialise object storage")
	}

	userRepo := mongodb.NewUserRepository(db)
	if err := userRepo.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to create user indexes")
	}

	// --- Background workers ---
	cleanup := queue.NewCleanupDispatcher(cfg.CleanupWorkers, store, logger.Component(log, "cleanup"))
	cleanup.Start(ctx)

	mongoPinger := mongodb.NewPinger(mongoClient)
	go keepalive.Run(ctx, mongoPinger, cfg.KeepAliveInterval, logger.Component(log, "keepalive"))

	// --- Services ---
	hasher := security.NewBcryptHasher(0)
	limiter := redisdb.NewLoginLimiter(rdb, cfg.Login.MaxAttempts, cfg.Login.Window)

	userService := service.NewUserService(userRepo, hasher, cleanup, logger.Component(log, "users"))
	authService := service.NewAuthService(userRepo, hasher, limiter, cfg.JWTSecret, cfg.JWTTTL, logger.Component(log, "auth"))
	profileService := service.NewProfileService(userRepo, store, cleanup, logger.Component(log, "profile"))

	e := api.NewRouter(api.Dependencies{
		Users:   userService,
		Auth:    authService,
		Profile: profileService,
		Readiness: map[string]handler.Pinger{
			"mongodb": mongoPinger,
			"redis":   redisdb.NewPinger(rdb),
			"storage": store,
		},
		CORSOrigins:    cfg.CORSOrigins(),
		UploadMaxBytes: cfg.UploadMaxBytes,
		Logger:         logger.Component(log, "http"),
	})

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("starting HTTP server")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("HTTP server stopped unexpectedly")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("received interruption signal, shutting down")

	shutdown(e.Shutdown, log)
	cleanup.Wait()
	log.Info().Msg("shutdown complete")
}

func shutdown(stop func(context.Context) error, log zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := stop(ctx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}
}
