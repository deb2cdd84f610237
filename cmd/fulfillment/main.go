package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/ariefcatur/go-pack-storefront.git/internal/checkout"
	"github.com/ariefcatur/go-pack-storefront.git/internal/config"
	"github.com/ariefcatur/go-pack-storefront.git/internal/fulfillment"
	kafkax "github.com/ariefcatur/go-pack-storefront.git/internal/kafka"
	"github.com/ariefcatur/go-pack-storefront.git/internal/orders"
	"github.com/ariefcatur/go-pack-storefront.git/internal/postgres"
	"github.com/ariefcatur/go-pack-storefront.git/internal/redisx"
	"github.com/ariefcatur/go-pack-storefront.git/internal/shipping"
	"github.com/joho/godotenv"
)

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
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	svc := &fulfillment.Service{
		Orders:      &orders.PG{DB: db},
		Shipping:    shipping.NewHTTPClient(cfg.ShippingBaseURL, cfg.ShippingToken),
		Redis:       rdb,
		ServiceName: cfg.ServiceName + "-fulfillment",
	}

	group := getenv("FULFILLMENT_GROUP", "fulfillment-svc")
	workers := mustAtoi(os.Getenv("FULFILLMENT_WORKERS"), "4")
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, group, checkout.TopicOrderConfirmed, workers)

	go func() {
		log.Printf("fulfillment consumer started: group=%s topic=%s workers=%d", group, checkout.TopicOrderConfirmed, workers)
		if err := cons.Start(ctx, svc.HandleOrderConfirmed); err != nil {
			log.Printf("consumer exit: %v", err)
			cancel()
		}
	}()

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down consumer...")
	cancel()
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
