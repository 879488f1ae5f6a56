package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bookstack/internal/api"
	"bookstack/internal/app/service"
	"bookstack/internal/common/security"
	"bookstack/internal/domain/repository"
	"bookstack/internal/platform/cache"
	"bookstack/internal/platform/config"
	"bookstack/internal/platform/database"
	"bookstack/internal/platform/logger"

	"github.com/redis/go-redis/v9"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()
	log := logger.New(cfg.Env)
	log.Info().Msg("configuration loaded")

	// 2. Token Service
	tokens := security.NewTokenService(cfg.JWTKey, cfg.JWTExp)

	// 3. Database
	db, err := database.Connect(cfg.DBConnStr)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer db.Close()
	log.Info().Msg("database connected")

	// 4. Redis (optional: the book list cache degrades to passthrough)
	var rdb *redis.Client
	if cfg.RedisEnabled {
		rdb, err = cache.Connect(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Fatal().Err(err).Msg("redis connection failed")
		}
		defer rdb.Close()
		log.Info().Msg("redis connected")
	}

	// 5. Repositories
	userRepo := repository.NewPgUserRepository(db)
	bookRepo := repository.NewPgBookRepository(db)

	// 6. Services
	authService := service.NewAuthService(userRepo, tokens, log)
	bookCache := service.NewBookListCache(rdb, cfg.BookCacheTTL)
	bookService := service.NewBookService(bookRepo, bookCache, log)

	// 7. Router & HTTP Server
	router := api.NewRouter(log, tokens, authService, bookService)

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 8. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Info().Str("port", cfg.APIPort).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-stop // Wait for interrupt signal

	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server shutdown failed")
	}

	log.Info().Msg("server stopped gracefully")
}
