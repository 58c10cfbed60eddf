// cmd/api/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	_ "pdf-ocr-service/docs"
	"pdf-ocr-service/internal/logging"
	"pdf-ocr-service/internal/repository/postgresql"
	"pdf-ocr-service/internal/service"
	httptransport "pdf-ocr-service/internal/transport/http"
)

// @title pdf-ocr-service API
// @version 1.0
// @description Submission and read API for the PDF OCR ingestion pipeline.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := logging.Setup(envOr("LOG_LEVEL", "info"), envOr("LOG_FORMAT", "json")); err != nil {
		log.Fatal().Err(err).Msg("logging setup")
	}
	logger := logging.Component("api")

	pgDSN := mustEnv("POSTGRES_DSN")
	addr := envOr("HTTP_ADDR", ":8080")

	pool, err := postgresql.NewPool(ctx, pgDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("pg connect")
	}
	defer pool.Close()
	repo := postgresql.NewJobRepository(pool)

	var feed service.ReviewFeed
	if raddr := os.Getenv("REDIS_ADDR"); raddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: raddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Fatal().Err(err).Msg("redis connect")
		}
		feed = service.NewRedisReviewFeed(rdb, envOr("REVIEW_FEED_KEY", "review:pending"))
	}

	svc := service.NewJobService(repo)
	h := httptransport.NewHandler(svc, feed, logging.Component("http"))

	srv := &http.Server{
		Addr:         addr,
		Handler:      httptransport.Routes(h),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("shutdown")
		}
	}()

	logger.Info().Str("addr", addr).Msg("api listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("serve")
	}
	logger.Info().Msg("api stopped")
}

func mustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatal().Str("key", key).Msg("missing env")
	}
	return v
}

func envOr(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}
