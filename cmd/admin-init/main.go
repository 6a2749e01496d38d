// Command admin-init provisions the first superadmin from ADMIN_EMAIL and
// ADMIN_PASSWORD. Running it again for the same email does nothing.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"

	"github.com/clinictrack/user-service/internal/core/service"
	mongodb "github.com/clinictrack/user-service/internal/infrastructure/db/mongo"
	"github.com/clinictrack/user-service/internal/infrastructure/security"
	"github.com/clinictrack/user-service/internal/pkg/config"
	"github.com/clinictrack/user-service/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	_ = godotenv.Load()

	log := logger.New(logger.Options{Service: "admin-init"})

	cfg, err := config.ReadFrom(ctx, envconfig.OsLookuper())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	if cfg.Admin.Email == "" || cfg.Admin.Password == "" {
		log.Fatal().Msg("ADMIN_EMAIL and ADMIN_PASSWORD must be set")
	}

	client, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database, AppName: "admin-init"})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to MongoDB")
	}
	defer client.Disconnect(context.Background())

	repo := mongodb.NewUserRepository(db)
	if err := repo.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to create user indexes")
	}

	users := service.NewUserService(repo, security.NewBcryptHasher(0), nil, log)
	user, created, err := users.EnsureSuperadmin(ctx, cfg.Admin.Email, cfg.Admin.Password, cfg.Admin.FullName)
	if err != nil {
		log.Error().Err(err).Msg("failed to provision superadmin")
		os.Exit(1)
	}

	if !created {
		log.Info().Str("email", user.Email).Str("role", string(user.Role)).Msg("account already exists, nothing to do")
		return
	}
	log.Info().Str("user_id", user.ID).Str("email", user.Email).Msg("superadmin created")
}
