package main

import (
	"context"
	"github.com/ariefcatur/go-stock-orders/internal/config"
	"github.com/ariefcatur/go-stock-orders/internal/inventory"
	kafkax "github.com/ariefcatur/go-stock-orders/internal/kafka"
	"github.com/ariefcatur/go-stock-orders/internal/logging"
	"github.com/ariefcatur/go-stock-orders/internal/redisx"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	if len(cfg.KafkaBrokers) == 0 {
		logger.Fatal("KAFKA_BROKERS is required for the inventory worker")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc := &inventory.Service{
		Logger:      logger,
		ServiceName: cfg.ServiceName + "-inventory",
	}

	// Redis buat dedup event (opsional)
	if cfg.RedisAddr != "" {
		rdb := redisx.New(cfg.RedisAddr)
		defer rdb.Close()
		svc.Redis = rdb
	}

	// Consumer
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.InventoryGroup, inventory.Topics, cfg.InventoryWorkers, logger)
	done := make(chan struct{})

	go func() {
		defer close(done)
		logger.WithFields(logrus.Fields{
			"group":   cfg.InventoryGroup,
			"topics":  inventory.Topics,
			"workers": cfg.InventoryWorkers,
		}).Info("inventory consumer started")
		if err := cons.Start(ctx, svc.HandleStockEvent); err != nil {
			logger.WithError(err).Error("consumer exit")
			cancel()
		}
	}()

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case s := <-sig:
		logger.WithField("signal", s.String()).Info("shutting down consumer")
	case <-ctx.Done():
	}
	cancel()
	<-done
}
