package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/shopkit/storefront/internal/auth"
	"github.com/shopkit/storefront/internal/catalog"
	"github.com/shopkit/storefront/internal/config"
	"github.com/shopkit/storefront/internal/httpx"
	kafkax "github.com/shopkit/storefront/internal/kafka"
	"github.com/shopkit/storefront/internal/orders"
	"github.com/shopkit/storefront/internal/postgres"
	"github.com/shopkit/storefront/internal/redisx"
	"github.com/shopkit/storefront/internal/reviews"
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
	if err := postgres.Migrate(ctx, db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producers
	pCreated := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderCreated, 1024)
	pCreated.Start(ctx)
	pStatus := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderStatusChanged, 1024)
	pStatus.Start(ctx)

	// Services & handlers
	authSvc := &auth.Service{Store: &auth.Repo{DB: db}, Secret: []byte(cfg.JWTSecret)}
	reviewSvc := &reviews.Service{Store: &reviews.Repo{DB: db}}
	orderSvc := &orders.Service{
		Store:          &orders.Repo{DB: db},
		Producer:       pCreated,
		StatusProducer: pStatus,
		ServiceName:    cfg.ServiceName,
	}

	mw := &httpx.AuthMiddleware{Secret: []byte(cfg.JWTSecret)}
	router := httpx.NewRouter()
	(&httpx.AuthHandler{Svc: authSvc}).Register(router)
	(&httpx.CatalogHandler{Repo: &catalog.Repo{DB: db}, Redis: rdb, Auth: mw}).Register(router)
	(&httpx.ReviewsHandler{Svc: reviewSvc, Redis: rdb, Auth: mw}).Register(router)
	(&httpx.OrdersHandler{Svc: orderSvc, Redis: rdb, Auth: mw}).Register(router)

	// HTTP server
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
	pCreated.Close()
	pStatus.Close()
	cancel()
	pCreated.WaitClosed()
	pStatus.WaitClosed()
}
