package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	config "github.com/thisday-app/pushgate/internal/config/outbox-relay"
	"github.com/thisday-app/pushgate/internal/obs"
	"github.com/thisday-app/pushgate/internal/obs/retry"
	"github.com/thisday-app/pushgate/internal/outbox"
	kafkax "github.com/thisday-app/pushgate/internal/repository/kafka"
	pg "github.com/thisday-app/pushgate/internal/repository/postgres"
)

func main() {
	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config/outbox-relay.yaml"
	}
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatal(err)
	}

	l, err := obs.NewLogger(cfg.Log.AsLoggerConfig())
	if err != nil {
		log.Fatal(err)
	}

	l.Info("starting outbox-relay",
		zap.Strings("brokers", cfg.Out.Brokers),
		zap.String("topic", cfg.Out.Topic),
		zap.String("metrics_addr", cfg.Server.MetricsAddr),
	)

	otelCloser, err := obs.SetupOTel(rootCtx, cfg.OTEL.AsOTELConfig())
	if err != nil {
		l.Warn("otel init", zap.Error(err))
	}
	defer func() { _ = otelCloser.Shutdown(context.Background()) }()

	db, err := pg.New(rootCtx, cfg.DB.AsDBConfig())
	if err != nil {
		l.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()
	l.Info("db connected")

	ms := obs.BootstrapMetricsServer(cfg.Server.MetricsAddr, func(ctx context.Context) error {
		return db.Pool.Ping(ctx)
	}, l)

	pub := kafkax.NewProducer(cfg.Out.Brokers, cfg.Out.Topic).WithLogger(l)
	defer func() { _ = pub.Close() }()

	pol := retry.Policy{
		Name:     "relay_publish",
		Attempts: cfg.Relay.RetryAttempts,
		Backoff:  retry.ExpoJitter{Base: cfg.Relay.RetryBase, Max: cfg.Relay.RetryMax, Jitter: 0.2},
	}

	runner := outbox.NewRunner(
		l,
		pg.NewOutboxRepo(db),
		outbox.MakeGlobalHandler(pub, pol),
		cfg.Relay.Workers,
		cfg.Relay.BatchSize,
		cfg.Relay.WaitTime,
		cfg.Relay.InProgressTTL,
	)
	runner.Start(rootCtx)

	<-rootCtx.Done()
	l.Info("shutdown signal")

	shCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_ = ms.Shutdown(shCtx)
	l.Info("bye")
}
