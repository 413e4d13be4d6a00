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

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/thisday-app/pushgate/internal/apns"
	config "github.com/thisday-app/pushgate/internal/config/pushgate"
	"github.com/thisday-app/pushgate/internal/obs"
	kafkax "github.com/thisday-app/pushgate/internal/repository/kafka"
	pg "github.com/thisday-app/pushgate/internal/repository/postgres"
	notifier "github.com/thisday-app/pushgate/internal/services/push-notifier"
)

func wiring(db *pg.DB, cfg *config.Config, l *zap.Logger) (*notifier.Handler, error) {
	signer, err := apns.NewSigner(apns.SignerConfig{
		KeyID:           cfg.APNs.KeyID,
		TeamID:          cfg.APNs.TeamID,
		PrivateKey:      cfg.APNs.PrivateKey,
		RefreshInterval: cfg.APNs.RefreshInterval,
	})
	if err != nil {
		return nil, err
	}

	gateway := apns.NewClient(apns.ClientConfig{
		Host:    apns.HostForEnv(cfg.APNs.Env),
		Topic:   cfg.APNs.BundleID,
		Timeout: cfg.APNs.Timeout,
	})

	return &notifier.Handler{
		Devices:  pg.NewDeviceRepo(db),
		Profiles: pg.NewProfileRepo(db),
		Creds:    signer,
		Out:      &notifier.Dispatcher{Gateway: gateway, Log: l},
		Log:      l,
	}, nil
}

func main() {
	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config/pushgate.yaml"
	}
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatal(err)
	}

	l, err := obs.NewLogger(cfg.Log.AsLoggerConfig())
	if err != nil {
		log.Fatal(err)
	}

	l.Info("starting pushgate",
		zap.String("http_addr", cfg.Server.HTTPAddr),
		zap.String("metrics_addr", cfg.Server.MetricsAddr),
		zap.String("apns_env", cfg.APNs.Env),
		zap.Bool("kafka_in", cfg.In.Enable),
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

	uc, err := wiring(db, cfg, l)
	if err != nil {
		l.Fatal("wiring", zap.Error(err))
	}

	srv := &notifier.Server{Log: l, UC: uc}
	httpSrv := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           otelhttp.NewHandler(srv.Router(), "pushgate"),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 2)
	go func() {
		l.Info("http listening", zap.String("addr", cfg.Server.HTTPAddr))
		errCh <- httpSrv.ListenAndServe()
	}()

	if cfg.In.Enable {
		cons := kafkax.NewConsumer(kafkax.ConsumerConfig{
			Brokers: cfg.In.Brokers,
			GroupID: cfg.In.GroupID,
			Topic:   cfg.In.Topic,
		}).WithLogger(l)
		defer func() { _ = cons.Close() }()

		ctrl := &notifier.Controller{Log: l, Sub: cons, UC: uc}
		go func() {
			l.Info("event controller starting",
				zap.Strings("brokers", cfg.In.Brokers),
				zap.String("topic", cfg.In.Topic),
			)
			errCh <- ctrl.Run(rootCtx)
		}()
	}

	var runErr error
	select {
	case <-rootCtx.Done():
		l.Info("shutdown signal")
	case runErr = <-errCh:
		if runErr != nil && !errors.Is(runErr, context.Canceled) && !errors.Is(runErr, http.ErrServerClosed) {
			l.Error("runtime error", zap.Error(runErr))
		}
	}

	shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = httpSrv.Shutdown(shCtx)
	_ = ms.Shutdown(shCtx)
	l.Info("bye")
}
