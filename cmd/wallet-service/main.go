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
	"golang.org/x/sync/errgroup"

	"github.com/MikeMC777/checkout-saga/internal/config"
	"github.com/MikeMC777/checkout-saga/internal/db"
	"github.com/MikeMC777/checkout-saga/internal/httpx"
	"github.com/MikeMC777/checkout-saga/internal/metrics"
	"github.com/MikeMC777/checkout-saga/internal/wallet"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("[wallet] %v", err)
	}
	defer pool.Close()
	if err := db.EnsureSchema(ctx, pool, "wallet-0001", wallet.Schema); err != nil {
		log.Fatalf("[wallet] schema: %v", err)
	}

	ledger := wallet.NewLedger(wallet.NewPGRepo(pool))
	serverMetrics := metrics.NewServerMetrics("wallet", prometheus.DefaultRegisterer)

	r := gin.New()
	r.Use(gin.Recovery(), httpx.RequestID(), httpx.Logger(), httpx.Metrics(serverMetrics))
	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	registerRoutes(r, ledger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return httpx.Serve(gctx, "wallet", &http.Server{Addr: cfg.WalletSvcAddr, Handler: r})
	})
	if err := g.Wait(); err != nil {
		log.Fatalf("[wallet] %v", err)
	}
}
