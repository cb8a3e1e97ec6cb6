package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/arunabh-a/Colbin-Assignment/config"
	"github.com/arunabh-a/Colbin-Assignment/db"
	"github.com/arunabh-a/Colbin-Assignment/internal/auth/handler"
	repo "github.com/arunabh-a/Colbin-Assignment/internal/auth/repository/postgres"
	"github.com/arunabh-a/Colbin-Assignment/internal/auth/service"
	"github.com/arunabh-a/Colbin-Assignment/internal/logger"
	"github.com/arunabh-a/Colbin-Assignment/internal/mailer"
	"github.com/arunabh-a/Colbin-Assignment/internal/ratelimit"
)

func main() {
	cfg := config.Load()
	log := logger.New(slog.LevelInfo)

	ctx := context.Background()

	if err := db.RunMigrations(ctx, cfg.DBURL); err != nil {
		log.Fatal("migrations failed", "error", err)
	}

	dbPool, err := db.NewPostgresPool(ctx, cfg.DBURL)
	if err != nil {
		log.Fatal("database connection failed", "error", err)
	}
	defer dbPool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	limiter := ratelimit.NewRedisLimiter(redisClient, cfg.LoginAttemptLimit,
		time.Duration(cfg.LoginAttemptWindow)*time.Second)

	userRepo := repo.NewPostgresRepository(dbPool)
	tokenService := service.NewTokenService(cfg.AccessTokenSecret,
		time.Duration(cfg.AccessTokenTTLSec)*time.Second)
	userService := service.NewUserService(userRepo, tokenService, limiter,
		mailer.NewLogMailer(log), log, cfg)
	authHandler := handler.NewAuthHandler(userService, tokenService, cfg)

	app := fiber.New()
	handler.RegisterRoutes(app, authHandler)

	log.Info("listening", "port", cfg.Port, "env", cfg.Env)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal("server stopped", "error", err)
	}
}
