package main

import (
	"context"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/milad/co2info/internal/config"
	grpcserver "github.com/milad/co2info/internal/transport/grpc"
	httpserver "github.com/milad/co2info/internal/transport/http"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to a YAML config file")
		addr       = flag.String("addr", "", "listen address (default from config)")
		grpcAddr   = flag.String("grpc", "", "gRPC target host:port (default from config)")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *addr != "" {
		cfg.HTTPAddr = *addr
	}
	if *grpcAddr != "" {
		cfg.GRPCTarget = *grpcAddr
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := grpc.NewClient(cfg.GRPCTarget, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		log.Fatalf("dial gRPC %q: %v", cfg.GRPCTarget, err)
	}
	defer conn.Close()

	// Reduce docker-compose race: wait a bit for gRPC to be ready.
	waitForGRPC(ctx, conn, cfg.GRPCWaitTimeout)

	srv := httpserver.New(grpcserver.NewClient(conn))

	h := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ln, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		log.Fatalf("listen %q: %v", cfg.HTTPAddr, err)
	}
	log.Printf("HTTP listening on %s (gRPC target %s)", cfg.HTTPAddr, cfg.GRPCTarget)

	go func() {
		<-ctx.Done()
		log.Printf("shutting down HTTP")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = h.Shutdown(shutdownCtx)
	}()

	if err := h.Serve(ln); err != nil && err != http.ErrServerClosed {
		log.Fatalf("serve: %v", err)
	}
}

func waitForGRPC(ctx context.Context, conn *grpc.ClientConn, maxWait time.Duration) {
	if maxWait <= 0 {
		return
	}

	hc := healthpb.NewHealthClient(conn)
	check := func() error {
		reqCtx, cancel := context.WithTimeout(ctx, 1*time.Second)
		defer cancel()
		_, err := hc.Check(reqCtx, &healthpb.HealthCheckRequest{})
		return err
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 100 * time.Millisecond
	bo.MaxInterval = 1 * time.Second
	bo.MaxElapsedTime = maxWait

	if err := backoff.Retry(check, backoff.WithContext(bo, ctx)); err != nil {
		log.Printf("warning: gRPC not ready after %s; continuing anyway (%v)", maxWait, err)
		return
	}
	log.Printf("gRPC is ready")
}
