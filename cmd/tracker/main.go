package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/aqilanwar/go-courier-booking/internal/config"
	kafkax "github.com/aqilanwar/go-courier-booking/internal/kafka"
	"github.com/aqilanwar/go-courier-booking/internal/postgres"
	"github.com/aqilanwar/go-courier-booking/internal/redisx"
	"github.com/aqilanwar/go-courier-booking/internal/shipping"
	"github.com/aqilanwar/go-courier-booking/internal/tracker"
)

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func mustAtoi(s, def string) int {
	if s == "" {
		s = def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 1
	}
	return i
}

func main() {
	_ = godotenv.Load()

	log := zap.Must(zap.NewProduction())
	defer func() { _ = log.Sync() }()

	cfg, err := config.TryRead()
	if err != nil {
		log.Fatal("config", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	svc := &tracker.Service{
		Orders:      &shipping.OrderRepo{DB: db},
		Redis:       rdb,
		ServiceName: cfg.ServiceName + "-tracker",
		Log:         log,
	}

	group := getenv("TRACKER_GROUP", "shipment-tracker")
	workers := mustAtoi(os.Getenv("TRACKER_WORKERS"), "4")
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, group, shipping.TopicShipmentBooked, workers, log)

	go func() {
		log.Info("tracker consumer started",
			zap.String("group", group),
			zap.String("topic", shipping.TopicShipmentBooked),
			zap.Int("workers", workers))
		if err := cons.Start(ctx, svc.HandleShipmentBooked); err != nil {
			log.Error("consumer exit", zap.Error(err))
			cancel()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down consumer")
	cancel()
	time.Sleep(500 * time.Millisecond)
}
