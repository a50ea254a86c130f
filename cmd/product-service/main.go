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
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/MikeMC777/checkout-saga/internal/config"
	"github.com/MikeMC777/checkout-saga/internal/db"
	"github.com/MikeMC777/checkout-saga/internal/httpx"
	"github.com/MikeMC777/checkout-saga/internal/metrics"
	prod "github.com/MikeMC777/checkout-saga/internal/product"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("[product] %v", err)
	}
	defer pool.Close()
	if err := db.EnsureSchema(ctx, pool, "product-0001", prod.Schema); err != nil {
		log.Fatalf("[product] schema: %v", err)
	}

	var repo prod.Repository = prod.NewPGRepo(pool)
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Printf("[product] redis %s unreachable, reads fall through to postgres: %v", cfg.RedisAddr, err)
		}
		repo = prod.NewCachedRepo(repo, rdb, 0)
		log.Printf("[product] read cache enabled redis=%s", cfg.RedisAddr)
	}

	serverMetrics := metrics.NewServerMetrics("product", prometheus.DefaultRegisterer)

	r := gin.New()
	r.Use(gin.Recovery(), httpx.RequestID(), httpx.Logger(), httpx.Metrics(serverMetrics))
	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	registerRoutes(r, repo)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return httpx.Serve(gctx, "product", &http.Server{Addr: cfg.ProductSvcAddr, Handler: r})
	})
	if err := g.Wait(); err != nil {
		log.Fatalf("[product] %v", err)
	}
}
