package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	config "github.com/calder-labs/pushgate/internal/config/api-gateway"
	"github.com/calder-labs/pushgate/internal/obs"
	kafkax "github.com/calder-labs/pushgate/internal/repository/kafka"
	pg "github.com/calder-labs/pushgate/internal/repository/postgres"
	gateway "github.com/calder-labs/pushgate/internal/services/api-gateway"
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
	logger.Info("starting api-gateway",
		zap.String("http_addr", cfg.Server.HTTPAddr),
		zap.Strings("kafka_brokers", cfg.Out.Brokers),
		zap.String("intent_topic", cfg.Out.Topic),
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

	prod := kafkax.NewProducer(cfg.Out.Brokers, cfg.Out.Topic).WithLogger(logger)
	defer func() { _ = prod.Close() }()

	svc := &gateway.Service{
		Subs:   pg.NewSubscriptionRepo(db),
		Events: kafkax.NewIntentEventsKafka(prod),
		Vapid:  vapid.FromConfig(cfg.VAPID.PublicKey, cfg.VAPID.PrivateKey, cfg.VAPID.Subscriber),
		Log:    logger,
	}

	gateway.Version = cfg.App.Version
	router := gateway.NewRouter(svc, cfg.Server.CORSOrigins, func() error {
		hctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
		defer cancel()
		return db.Pool.Ping(hctx)
	})

	srv := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           otelhttp.NewHandler(router, "api-gateway"),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listening", zap.String("addr", cfg.Server.HTTPAddr))
		errCh <- srv.ListenAndServe()
	}()

	var runErr error
	select {
	case <-rootCtx.Done():
		logger.Info("shutdown signal")
	case runErr = <-errCh:
		if runErr != nil && !errors.Is(runErr, http.ErrServerClosed) {
			logger.Error("http serve", zap.Error(runErr))
		}
	}

	shCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer cancel()
	_ = srv.Shutdown(shCtx)
	logger.Info("bye")
}
