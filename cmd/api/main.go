package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ariefcatur/go-pack-storefront.git/internal/cart"
	"github.com/ariefcatur/go-pack-storefront.git/internal/catalog"
	"github.com/ariefcatur/go-pack-storefront.git/internal/checkout"
	"github.com/ariefcatur/go-pack-storefront.git/internal/config"
	"github.com/ariefcatur/go-pack-storefront.git/internal/gateway"
	"github.com/ariefcatur/go-pack-storefront.git/internal/httpx"
	"github.com/ariefcatur/go-pack-storefront.git/internal/identity"
	kafkax "github.com/ariefcatur/go-pack-storefront.git/internal/kafka"
	"github.com/ariefcatur/go-pack-storefront.git/internal/metrics"
	"github.com/ariefcatur/go-pack-storefront.git/internal/notify"
	"github.com/ariefcatur/go-pack-storefront.git/internal/orders"
	"github.com/ariefcatur/go-pack-storefront.git/internal/postgres"
	"github.com/ariefcatur/go-pack-storefront.git/internal/redisx"
	"github.com/ariefcatur/go-pack-storefront.git/internal/reservation"
	"github.com/ariefcatur/go-pack-storefront.git/internal/shipping"
	"github.com/ariefcatur/go-pack-storefront.git/internal/stock"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producers (dua topic berbeda)
	pOK := kafkax.NewProducer(cfg.KafkaBrokers, checkout.TopicOrderConfirmed, 1024)
	pOK.Start(ctx)
	pRJ := kafkax.NewProducer(cfg.KafkaBrokers, checkout.TopicPaymentFailed, 1024)
	pRJ.Start(ctx)

	// Stores & services
	catalogStore := &catalog.PG{DB: db}
	ledger := &stock.PG{DB: db}
	orderStore := &orders.PG{DB: db}

	engine := &reservation.Engine{Catalog: catalogStore, Ledger: ledger}
	cartSvc := &cart.Service{
		Store:                &cart.PG{DB: db},
		Engine:               engine,
		Catalog:              catalogStore,
		CustomPackPriceCents: cfg.CustomPackPriceCents,
	}
	coord := &checkout.Coordinator{
		Cart:              cartSvc,
		Orders:            orderStore,
		Engine:            engine,
		Gateway:           gateway.NewHTTPClient(cfg.GatewayBaseURL, cfg.GatewayAPIKey),
		Redis:             rdb,
		Notifier:          notify.LogSender{},
		ProducerConfirmed: pOK,
		ProducerFailed:    pRJ,
		ServiceName:       cfg.ServiceName,
		SuccessURL:        cfg.CheckoutSuccessURL,
		CancelURL:         cfg.CheckoutCancelURL,
	}
	shipClient := shipping.NewHTTPClient(cfg.ShippingBaseURL, cfg.ShippingToken)

	// Router & handlers
	m := metrics.New("api")
	router := httpx.NewRouter(m)
	resolver := identity.Resolver{}

	(&httpx.CartHandler{Cart: cartSvc, Resolver: resolver, Metrics: m}).Register(router)
	(&httpx.CheckoutHandler{Coordinator: coord, Orders: orderStore, Shipping: shipClient, Resolver: resolver, Redis: rdb}).Register(router)
	(&httpx.WebhookHandler{Coordinator: coord, Secret: cfg.GatewayWebhookSecret, Metrics: m}).Register(router)
	(&httpx.AdminHandler{Orders: orderStore, Catalog: catalogStore}).Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.Printf("HTTP listening at %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	// wait signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	pOK.Close() // tutup inbox -> flush & close writer
	pRJ.Close()
	pOK.WaitClosed()
	pRJ.WaitClosed()
}
