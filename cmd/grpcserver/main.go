package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/milad/co2info/internal/config"
	"github.com/milad/co2info/internal/repo/csvrepo"
	"github.com/milad/co2info/internal/service"
	grpcserver "github.com/milad/co2info/internal/transport/grpc"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func main() {
	var (
		configPath  = flag.String("config", "", "path to a YAML config file")
		addr        = flag.String("addr", "", "listen address (default from config)")
		csvPath     = flag.String("csv", "", "path to the meter CSV (default from config)")
		metricsAddr = flag.String("metrics-addr", "", "metrics listen address, \"off\" to disable (default from config)")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *addr != "" {
		cfg.GRPCAddr = *addr
	}
	if *csvPath != "" {
		cfg.CSVPath = *csvPath
	}
	if *metricsAddr != "" {
		cfg.MetricsAddr = *metricsAddr
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.CSVPath == "" {
		log.Fatalf("no CSV path: set -csv or CSV_PATH")
	}

	repo, err := csvrepo.NewFromFile(cfg.CSVPath, cfg.Limits())
	if err != nil {
		log.Fatalf("load %s (%s): %v", cfg.CSVPath, csvrepo.FailureKind(err), err)
	}
	st := repo.Stats()
	log.Printf("loaded %d meters, %d rows, %d readings (%d unhealthy, %d broken) from %s",
		repo.Database().Size(), st.Rows, st.Readings, st.Unhealthy, st.Broken, cfg.CSVPath)

	svc := service.NewMeterService(repo)

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		log.Fatalf("listen %q: %v", cfg.GRPCAddr, err)
	}
	log.Printf("gRPC listening on %s", cfg.GRPCAddr)

	g := grpc.NewServer()
	grpcserver.Register(g, grpcserver.New(svc))

	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(g, hs)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.MetricsAddr != "off" {
		go serveMetrics(ctx, cfg.MetricsAddr)
	}

	go func() {
		<-ctx.Done()
		log.Printf("shutting down gRPC")
		ch := make(chan struct{})
		go func() {
			g.GracefulStop()
			close(ch)
		}()
		select {
		case <-ch:
		case <-time.After(5 * time.Second):
			g.Stop()
		}
	}()

	if err := g.Serve(lis); err != nil {
		log.Fatalf("serve: %v", err)
	}
}

// serveMetrics exposes the ingestion counters until ctx is done.
func serveMetrics(ctx context.Context, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	h := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = h.Shutdown(shutdownCtx)
	}()

	log.Printf("metrics listening on %s", addr)
	if err := h.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Printf("warning: metrics server: %v", err)
	}
}
