package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/pagevol/mds/internal/logger"
	"github.com/pagevol/mds/pkg/adapter/rpc"
	"github.com/pagevol/mds/pkg/alloc"
	"github.com/pagevol/mds/pkg/cleaner"
	"github.com/pagevol/mds/pkg/config"
	"github.com/pagevol/mds/pkg/idgen"
	"github.com/pagevol/mds/pkg/metrics"
	"github.com/pagevol/mds/pkg/namespace"
	"github.com/pagevol/mds/pkg/server"
	storebadger "github.com/pagevol/mds/pkg/store/badger"
)

func run() error {
	configPath := flag.String("config", "", "Path to the YAML configuration file")
	logLevel := flag.String("log-level", "", "Override log level (DEBUG, INFO, WARN, ERROR)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	logger.SetLevel(cfg.Logging.Level)

	storeCfg, err := config.StoreConfig(cfg)
	if err != nil {
		return err
	}
	st, err := storebadger.New(storeCfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Errorf("store close failed: %v", err)
		}
	}()

	idGen, err := idgen.New(st.DB())
	if err != nil {
		return err
	}
	defer func() {
		if err := idGen.Release(); err != nil {
			logger.Errorf("id sequence release failed: %v", err)
		}
	}()

	allocator := alloc.NewRoundRobin(cfg.Pool)

	cleanManager := cleaner.New(st, allocator, cfg.Cleaner)
	defer cleanManager.Stop()
	cleanManager.ResubmitUnfinishedJobs()

	core := namespace.NewCore(st, idGen, allocator, cleanManager, namespace.Limits{
		MinFileLength: cfg.Namespace.MinFileLength,
		SegmentSize:   cfg.Namespace.SegmentSize,
		ChunkSize:     cfg.Namespace.ChunkSize,
	})

	registry := prometheus.NewRegistry()
	rpcMetrics := metrics.NewRPC(registry)

	srv := server.New()
	srv.AddAdapter(rpc.NewServer(cfg.Server.ListenAddr, rpc.NewHandler(core, rpcMetrics)))

	if cfg.Server.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", metrics.Handler(registry))
			metricsSrv := &http.Server{
				Addr:              cfg.Server.MetricsAddr,
				Handler:           mux,
				ReadHeaderTimeout: 10 * time.Second,
			}
			logger.Infof("metrics listening on %s", cfg.Server.MetricsAddr)
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Errorf("metrics server failed: %v", err)
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Serve(ctx); err != nil && err != context.Canceled {
		return err
	}
	logger.Infof("shutdown complete")
	return nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "mds:", err)
		os.Exit(1)
	}
}
