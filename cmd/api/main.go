package main

import (
	"context"
	"errors"
	"github.com/ariefcatur/go-stock-orders/internal/config"
	"github.com/ariefcatur/go-stock-orders/internal/httpx"
	kafkax "github.com/ariefcatur/go-stock-orders/internal/kafka"
	"github.com/ariefcatur/go-stock-orders/internal/logging"
	"github.com/ariefcatur/go-stock-orders/internal/orders"
	"github.com/ariefcatur/go-stock-orders/internal/postgres"
	"github.com/ariefcatur/go-stock-orders/internal/redisx"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN, cfg.ServiceName)
	if err != nil {
		logger.WithError(err).Fatal("db connect")
	}
	defer db.Close()

	if err := postgres.Migrate(ctx, db); err != nil {
		logger.WithError(err).Fatal("db migrate")
	}

	svc := &orders.Service{
		Store:    &orders.Repo{DB: db},
		Logger:   logger,
		Producer: cfg.ServiceName,
	}
	oh := &httpx.OrdersHandler{Service: svc, Logger: logger}

	// Redis (opsional)
	if cfg.RedisAddr != "" {
		rdb := redisx.New(cfg.RedisAddr)
		defer rdb.Close()
		oh.Cache = redisx.NewStore(rdb, logger)
	} else {
		logger.Info("REDIS_ADDR empty, order cache and idempotency disabled")
	}

	// Kafka producer (opsional)
	var prod *kafkax.Producer
	if len(cfg.KafkaBrokers) > 0 {
		prod = kafkax.NewProducer(cfg.KafkaBrokers, 1024, logger)
		prod.Start()
		svc.Events = prod
	} else {
		logger.Info("KAFKA_BROKERS empty, stock notifications disabled")
	}

	router := httpx.NewRouter(logger)
	router.Get("/", httpx.Dashboard(svc, logger))
	(&httpx.ProductsHandler{Service: svc, Logger: logger}).Register(router)
	(&httpx.ClientsHandler{Service: svc, Logger: logger}).Register(router)
	oh.Register(router)

	// HTTP server
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.WithField("addr", cfg.HTTPAddr).Info("http listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("listen")
		}
	}()

	// wait signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	s := <-sig
	logger.WithField("signal", s.String()).Info("shutting down")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	if err := srv.Shutdown(ctx2); err != nil {
		logger.WithError(err).Warn("http shutdown")
	}
	if prod != nil {
		prod.Close()      // tutup inbox -> flush & close writer
		prod.WaitClosed() // drain
	}
	logger.WithFields(logrus.Fields{"service": cfg.ServiceName}).Info("stopped")
}
