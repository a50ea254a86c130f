package main

import (
	"context"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/MikeMC777/checkout-saga/internal/config"
	"github.com/MikeMC777/checkout-saga/internal/db"
	"github.com/MikeMC777/checkout-saga/internal/httpx"
	"github.com/MikeMC777/checkout-saga/internal/metrics"
	"github.com/MikeMC777/checkout-saga/internal/user"
	pb "github.com/MikeMC777/checkout-saga/internal/userpb"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("[user] %v", err)
	}
	defer pool.Close()
	if err := db.EnsureSchema(ctx, pool, "user-0001", user.Schema); err != nil {
		log.Fatalf("[user] schema: %v", err)
	}

	repo := user.NewPGRepo(pool)
	cascade := user.NewCascade(cfg.WalletSvcBaseURL, cfg.OrderSvcBaseURL, cfg.CallTimeout)

	lis, err := net.Listen("tcp", cfg.UserGRPCAddr)
	if err != nil {
		log.Fatalf("[user] listen %s: %v", cfg.UserGRPCAddr, err)
	}
	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(httpx.UnaryServerInterceptor()))
	pb.RegisterUserServiceServer(grpcServer, user.NewService(repo))

	serverMetrics := metrics.NewServerMetrics("user", prometheus.DefaultRegisterer)
	r := gin.New()
	r.Use(gin.Recovery(), httpx.RequestID(), httpx.Logger(), httpx.Metrics(serverMetrics))
	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	registerRoutes(r, repo, cascade)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("[user] gRPC listening on %s", cfg.UserGRPCAddr)
		return grpcServer.Serve(lis)
	})
	g.Go(func() error {
		<-gctx.Done()
		grpcServer.GracefulStop()
		return nil
	})
	g.Go(func() error {
		return httpx.Serve(gctx, "user", &http.Server{Addr: cfg.UserHTTPAddr, Handler: r})
	})
	if err := g.Wait(); err != nil {
		log.Fatalf("[user] %v", err)
	}
}
