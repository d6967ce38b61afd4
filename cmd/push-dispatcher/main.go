package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	config "github.com/calder-labs/pushgate/internal/config/push-dispatcher"
	"github.com/calder-labs/pushgate/internal/obs"
	kafkax "github.com/calder-labs/pushgate/internal/repository/kafka"
	pg "github.com/calder-labs/pushgate/internal/repository/postgres"
	dispatcher "github.com/calder-labs/pushgate/internal/services/push-dispatcher"
	"github.com/calder-labs/pushgate/internal/vapid"
)

func main() {
	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		panic(err)
	}

	logger, err := obs.NewLogger(cfg.AsLoggerConfig())
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting push-dispatcher",
		zap.Any("kafka_in", cfg.In),
		zap.String("metrics_addr", cfg.Server.MetricsAddr),
		zap.Int("batch_size", cfg.WebPush.BatchSize),
	)

	otelCloser, err := obs.SetupOTel(rootCtx, cfg.OTEL.AsOTELConfig())
	if err != nil {
		logger.Warn("otel init", zap.Error(err))
	}
	defer func() { _ = otelCloser.Shutdown(context.Background()) }()

	db, err := pg.New(rootCtx, cfg.DB)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()
	logger.Info("db connected")

	ms := obs.BootstrapMetricsServer(cfg.Server.MetricsAddr, func(ctx context.Context) error {
		hctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
		defer cancel()
		return db.Pool.Ping(hctx)
	}, logger)

	cons := kafkax.BootstrapConsumer(rootCtx, cfg.In.AsConsumerConfig(), logger).WithLogger(logger)
	defer func() { _ = cons.Close() }()

	keys := vapid.FromConfig(cfg.VAPID.PublicKey, cfg.VAPID.PrivateKey, cfg.VAPID.Subscriber)

	disp := &dispatcher.Dispatcher{
		Subs: pg.NewSubscriptionRepo(db),
		Push: dispatcher.NewWebPushSender(keys, dispatcher.SenderConfig{
			TTLSeconds: cfg.WebPush.TTLSeconds,
			Timeout:    cfg.WebPush.Timeout,
		}, logger),
		Log:       logger,
		BatchSize: cfg.WebPush.BatchSize,
	}

	runner := dispatcher.NewRunner(logger, cons, disp)
	errCh := make(chan error, 1)
	go func() {
		logger.Info("runner starting")
		errCh <- runner.Run(rootCtx)
	}()

	var runErr error
	select {
	case <-rootCtx.Done():
		logger.Info("shutdown signal")
	case runErr = <-errCh:
		if runErr != nil && !errors.Is(runErr, context.Canceled) {
			logger.Error("runner error", zap.Error(runErr))
		}
	}

	shCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_ = ms.Shutdown(shCtx)
	logger.Info("bye")
}
