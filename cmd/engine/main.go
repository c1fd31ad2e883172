package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	app "github.com/sora-xor/sora2-network-sub000/internal/app/engine"
	"github.com/sora-xor/sora2-network-sub000/internal/config"
	depthsnapshot "github.com/sora-xor/sora2-network-sub000/internal/usecase/depth-snapshot"
	eventpublisher "github.com/sora-xor/sora2-network-sub000/internal/usecase/event-publisher"
	"github.com/sora-xor/sora2-network-sub000/internal/usecase/orderbook"
	"github.com/sora-xor/sora2-network-sub000/internal/usecase/scheduler"
	"github.com/sora-xor/sora2-network-sub000/internal/usecase/storage"
	"github.com/sora-xor/sora2-network-sub000/pkg/logger"
	"github.com/sora-xor/sora2-network-sub000/pkg/redis"
)

var cfg *config.Config
var log *logger.Logger

func init() {
	var err error
	cfg, err = config.Load()
	if err != nil {
		panic(err)
	}

	log, err = logger.NewLogger(logger.WithLoggingLevel(logger.Level(cfg.App.LogLevel)))
	if err != nil {
		panic(err)
	}
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	ledger, err := storage.OpenPebble(cfg.Pebble.Path)
	if err != nil {
		log.Error(err, logger.Field{Key: "action", Value: "open_ledger"})
		return
	}
	defer ledger.Close()

	rclient := redis.NewClient(log, &cfg.Redis)
	var depthStore *depthsnapshot.Store
	if err := rclient.Connect(ctx); err != nil {
		// the engine runs without read-side snapshots when Redis is down
		log.Warn("redis unavailable, depth snapshots disabled", logger.Field{
			Key:   "error",
			Value: err.Error(),
		})
	} else {
		depthStore = depthsnapshot.NewStore(rclient, log)
		defer rclient.Disconnect(context.Background())
	}

	publisher := eventpublisher.NewPublisher(cfg.Kafka, log)
	defer publisher.Close()

	opts := []app.Option{
		app.WithEventSink(publisher),
		app.WithLimits(orderbook.Limits{
			MaxOrdersPerUser:  cfg.Limits.MaxOrdersPerUser,
			MaxOrdersPerPrice: cfg.Limits.MaxOrdersPerPrice,
			MaxPricesPerSide:  cfg.Limits.MaxPricesPerSide,
		}),
	}
	if depthStore != nil {
		opts = append(opts, app.WithDepthStore(depthStore))
	}

	engine := app.New(ledger, log, opts...)

	sweeper := scheduler.NewExpirationScheduler(
		engine,
		cfg.Scheduler.SweepInterval,
		cfg.Scheduler.MaxExpiredPerSweep,
		log,
	)
	go sweeper.Run(ctx)

	log.Info("order book engine started", logger.Field{
		Key:   "environment",
		Value: cfg.App.Environment,
	})

	sig := <-sigChan
	log.Info("received shutdown signal", logger.Field{
		Key:   "signal",
		Value: sig.String(),
	})

	cancel()
	log.Info("order book engine shutdown complete")
}
