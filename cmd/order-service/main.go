package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"golang.org/x/sync/errgroup"

	"github.com/MikeMC777/checkout-saga/docs"
	"github.com/MikeMC777/checkout-saga/internal/config"
	"github.com/MikeMC777/checkout-saga/internal/db"
	"github.com/MikeMC777/checkout-saga/internal/events"
	"github.com/MikeMC777/checkout-saga/internal/httpx"
	"github.com/MikeMC777/checkout-saga/internal/metrics"
	ord "github.com/MikeMC777/checkout-saga/internal/order"
)

// @title        Checkout order service
// @version      1.0
// @description  Places orders against the wallet and product services and reverses them on cancellation.
// @BasePath     /
func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("[order] %v", err)
	}
	defer pool.Close()
	if err := db.EnsureSchema(ctx, pool, "order-0001", ord.Schema); err != nil {
		log.Fatalf("[order] schema: %v", err)
	}

	ext, err := ord.NewExt(cfg.UserSvcAddr, cfg.ProductSvcBaseURL, cfg.WalletSvcBaseURL, cfg.CallTimeout)
	if err != nil {
		log.Fatalf("[order] user client: %v", err)
	}
	defer ext.Close()

	publisher := events.New(cfg.KafkaBrokers, cfg.OrderEventsTopic)
	defer publisher.Close()

	svc := ord.NewService(ord.Deps{
		Repo:      ord.NewPGRepo(pool),
		Customers: ext,
		Wallets:   ext,
		Inventory: ext,
		Events:    publisher,
		Metrics:   metrics.NewSagaMetrics(prometheus.DefaultRegisterer),
	}, ord.Options{CallTimeout: cfg.CallTimeout, StrictStock: cfg.StrictStock})

	serverMetrics := metrics.NewServerMetrics("order", prometheus.DefaultRegisterer)

	r := gin.New()
	r.Use(gin.Recovery(), httpx.RequestID(), httpx.Logger(), httpx.Metrics(serverMetrics))
	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	docs.SwaggerInfo.Host = ""
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	registerRoutes(r, svc)

	log.Printf("[order] strict_stock=%t call_timeout=%s", cfg.StrictStock, cfg.CallTimeout)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return httpx.Serve(gctx, "order", &http.Server{Addr: cfg.OrderSvcAddr, Handler: r})
	})
	if err := g.Wait(); err != nil {
		log.Fatalf("[order] %v", err)
	}
}
