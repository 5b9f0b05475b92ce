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

	"golang.org/x/sync/errgroup"

	"github.com/mixgrove/booth-service/config"
	delivery "github.com/mixgrove/booth-service/internal/delivery/http"
	"github.com/mixgrove/booth-service/internal/delivery/kafka/producer"
	repo "github.com/mixgrove/booth-service/internal/repository/redis"
	"github.com/mixgrove/booth-service/internal/service"
	pkgKafka "github.com/mixgrove/booth-service/pkg/kafka"
	pkgLog "github.com/mixgrove/booth-service/pkg/logger"
	pkgRedis "github.com/mixgrove/booth-service/pkg/redis"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	l := pkgLog.InitializeZapLogger(pkgLog.ZapConfig{
		Level:    cfg.Log.Level,
		Mode:     cfg.Log.Mode,
		Encoding: cfg.Log.Encoding,
	})

	redisCli, err := pkgRedis.NewClient(cfg.Redis)
	if err != nil {
		l.Fatalf(ctx, "Failed to create Redis client: %v", err)
	}
	if err := redisCli.Ping(ctx).Err(); err != nil {
		l.Fatalf(ctx, "Failed to connect to Redis: %v", err)
	}
	defer redisCli.Close()

	wlRepo := repo.NewRedisWaitlistRepository(redisCli, l)
	boothRepo := repo.NewRedisBoothRepository(redisCli, l)
	historyRepo := repo.NewRedisHistoryRepository(redisCli, l)
	playlistRepo := repo.NewRedisPlaylistRepository(redisCli, l)
	userRepo := repo.NewRedisUserRepository(redisCli, l)

	prod := producer.NewNopProducer()
	if cfg.Kafka.Enabled {
		kafkaSyncProd, err := pkgKafka.NewProducer(pkgKafka.ProducerConfig{
			Brokers:      cfg.Kafka.Brokers,
			RetryMax:     cfg.Kafka.ProducerRetryMax,
			RequiredAcks: cfg.Kafka.ProducerRequiredAcks,
		})
		if err != nil {
			l.Fatalf(ctx, "Failed to initialize Kafka producer: %v", err)
		}
		prod = producer.NewProducer(kafkaSyncProd, cfg.Kafka.Topic, l)
	}
	defer prod.Close()

	boothSvc := service.NewBoothService(wlRepo, boothRepo, historyRepo, playlistRepo, prod, l, cfg.Booth)
	wlSvc := service.NewWaitlistService(wlRepo, boothRepo, prod, l)
	userSvc := service.NewUserService(userRepo, prod, l, cfg.Booth)

	handler := delivery.NewHTTPHandler(boothSvc, wlSvc, userSvc, l)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler:      delivery.NewRouter(handler),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		l.Infof(ctx, "HTTP server is listening on port: %d", cfg.Server.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()

		l.Info(ctx, "Server shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		l.Fatalf(ctx, "Server error: %v", err)
	}

	l.Info(ctx, "Server exited")
}
