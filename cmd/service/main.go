package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	logger_lib "github.com/s21platform/logger-lib"
	"github.com/s21platform/metrics-lib/pkg"

	"github.com/agrilink/negotiation-service/internal/client/centrifugo"
	"github.com/agrilink/negotiation-service/internal/config"
	"github.com/agrilink/negotiation-service/internal/databus/checkout"
	api "github.com/agrilink/negotiation-service/internal/generated"
	"github.com/agrilink/negotiation-service/internal/infra"
	"github.com/agrilink/negotiation-service/internal/pkg/jwt"
	"github.com/agrilink/negotiation-service/internal/pkg/tx"
	"github.com/agrilink/negotiation-service/internal/pkg/validator"
	"github.com/agrilink/negotiation-service/internal/realtime"
	db "github.com/agrilink/negotiation-service/internal/repository/postgres"
	"github.com/agrilink/negotiation-service/internal/rest"
)

const shutdownTimeout = 10 * time.Second

func main() {
	_ = godotenv.Load()

	cfg := config.MustLoad()
	logger := logger_lib.New(cfg.Logger.Host, cfg.Logger.Port, cfg.Service.Name, cfg.Platform.Env)

	metrics, err := pkg.NewMetrics(cfg.Metrics.Host, cfg.Metrics.Port, cfg.Service.Name, cfg.Platform.Env)
	if err != nil {
		logger.Error(fmt.Sprintf("failed to connect graphite: %v", err))
		os.Exit(1)
	}
	defer metrics.Disconnect()

	dbRepo := db.New(cfg)
	defer dbRepo.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
	})
	defer redisClient.Close() //nolint:errcheck // .

	hub := realtime.NewHub(logger)
	subscriber := realtime.NewSubscriber(redisClient, hub, logger)

	publisher := realtime.Fanout{realtime.NewRedisPublisher(redisClient)}
	if cfg.CentrifugoEnabled() {
		centrifugeClient := centrifugo.New(cfg)
		defer centrifugeClient.Close()
		publisher = append(publisher, centrifugeClient)
	}

	checkoutProducer := checkout.NewProducer(cfg)
	defer checkoutProducer.Close() //nolint:errcheck // .

	vldtr := validator.New()
	jwtGenerator := jwt.New(cfg.Centrifuge.JWTSecret)

	handler := rest.New(dbRepo, publisher, vldtr, jwtGenerator, checkoutProducer)
	wsHandler := realtime.NewHandler(hub, jwtGenerator)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(func(next http.Handler) http.Handler {
		return infra.LoggerHTTP(next, logger)
	})
	router.Use(func(next http.Handler) http.Handler {
		return infra.MetricsHTTP(next, metrics)
	})
	router.Use(func(next http.Handler) http.Handler {
		return infra.AuthInterceptorHTTP(next, jwtGenerator)
	})

	router.Get("/ws", wsHandler.ServeWs)
	router.Group(func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return tx.TxMiddlewareHTTP(dbRepo)(next)
		})
		api.HandlerFromMux(handler, r)
	})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Service.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return hub.Run(ctx)
	})

	g.Go(func() error {
		if err := subscriber.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("redis subscriber error: %v", err)
		}
		return nil
	})

	g.Go(func() error {
		logger.Info(fmt.Sprintf("listening on %s", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %v", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error(fmt.Sprintf("server error: %v", err))
	}
}
