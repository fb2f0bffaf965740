package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/aqilanwar/go-courier-booking/internal/balance"
	"github.com/aqilanwar/go-courier-booking/internal/config"
	"github.com/aqilanwar/go-courier-booking/internal/courier"
	"github.com/aqilanwar/go-courier-booking/internal/httpx"
	kafkax "github.com/aqilanwar/go-courier-booking/internal/kafka"
	"github.com/aqilanwar/go-courier-booking/internal/postgres"
	"github.com/aqilanwar/go-courier-booking/internal/redisx"
	"github.com/aqilanwar/go-courier-booking/internal/shipping"
)

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

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producers, one per topic
	pBooked := kafkax.NewProducer(cfg.KafkaBrokers, shipping.TopicShipmentBooked, 1024, log)
	pBooked.Start(ctx)
	pFailed := kafkax.NewProducer(cfg.KafkaBrokers, shipping.TopicShipmentBookingFailed, 1024, log)
	pFailed.Start(ctx)
	pLabel := kafkax.NewProducer(cfg.KafkaBrokers, shipping.TopicLabelGenerated, 1024, log)
	pLabel.Start(ctx)

	// Courier API + balance cache
	api := courier.NewClient(cfg.Courier.BaseURL, cfg.Courier.APIKey,
		time.Duration(cfg.Courier.TimeoutSeconds)*time.Second)
	balCache := balance.New(api,
		time.Duration(cfg.Balance.TTLMinutes)*time.Minute,
		decimal.NewFromFloat(cfg.Balance.LowThreshold),
		decimal.NewFromFloat(cfg.Balance.CriticalThreshold),
		log)

	// Repos & orchestrator
	orders := &shipping.OrderRepo{DB: db}
	shipments := &shipping.ShipmentRepo{DB: db}
	audit := &shipping.AuditRepo{DB: db}
	orch := &shipping.Orchestrator{
		Orders:         orders,
		Shipments:      shipments,
		Audit:          audit,
		Courier:        api,
		Balance:        balCache,
		ProducerBooked: pBooked,
		ProducerFailed: pFailed,
		ProducerLabel:  pLabel,
		Pickup: courier.Address{
			Name:     cfg.Pickup.Name,
			Phone:    cfg.Pickup.Phone,
			Line1:    cfg.Pickup.Line1,
			Line2:    cfg.Pickup.Line2,
			City:     cfg.Pickup.City,
			State:    cfg.Pickup.State,
			Postcode: cfg.Pickup.Postcode,
			Country:  cfg.Pickup.Country,
		},
		DefaultItemWeightKg: cfg.DefaultItemWeightKg,
		Service:             cfg.ServiceName,
		Log:                 log,
	}

	router := httpx.NewRouter()
	router.Group(func(r chi.Router) {
		r.Use(httpx.AdminAuth(cfg.AdminToken))
		(&httpx.BookingHandler{Service: orch, Shipments: shipments, Redis: rdb}).Register(r)
		(&httpx.ShipmentsHandler{Selections: shipments, Audit: audit, Redis: rdb}).Register(r)
		(&httpx.BalanceHandler{
			Cache:             balCache,
			LowThreshold:      decimal.NewFromFloat(cfg.Balance.LowThreshold),
			CriticalThreshold: decimal.NewFromFloat(cfg.Balance.CriticalThreshold),
		}).Register(r)
	})

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.Info("HTTP listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("listen", zap.Error(err))
		}
	}()

	// wait signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)

	// flush producers then stop their loops
	pBooked.Close()
	pFailed.Close()
	pLabel.Close()
	cancel()
	pBooked.WaitClosed()
	pFailed.WaitClosed()
	pLabel.WaitClosed()
}
