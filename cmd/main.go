package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ironforge/raidlake/internal/adapters/http/api"
	"github.com/ironforge/raidlake/internal/adapters/storage"
	service "github.com/ironforge/raidlake/internal/app"
	"github.com/ironforge/raidlake/internal/config"
	"github.com/ironforge/raidlake/pkg/logger"
	"github.com/ironforge/raidlake/pkg/metrics"
)

// HTTP server timeout constants. There is no write timeout because
// /stream/events holds its response open for the life of the
// subscription.
const (
	readTimeout            = 30 * time.Second
	writeTimeout           = 0 * time.Second
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	shutdownTimeout        = 30 * time.Second
	serviceMetricsInterval = 5 * time.Second
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration first so it can shape the logger.
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.Get()

	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	store, err := storage.NewMinioStore(storage.MinioOptions{
		Endpoint:  cfg.S3Endpoint,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		UseSSL:    cfg.S3UseSSL,
	})
	if err != nil {
		log.Error(ctx, "failed to connect to object store", logger.Error(err))
		os.Exit(1)
	}

	svc := service.New(
		service.WithLogger(log.Named("service")),
		service.WithStore(store),
		service.WithBuckets(cfg.BucketBronze, cfg.BucketSilver),
		service.WithMaxEventsPerBatch(cfg.MaxEventsPerBatch),
		service.WithQueueSize(cfg.QueueSize),
		service.WithWorkerCount(cfg.WorkerCount),
		service.WithMassiveHitThreshold(cfg.MassiveHitThreshold),
		service.WithStreamBuffer(cfg.StreamBufferSize),
	)
	if err := svc.Start(ctx); err != nil {
		log.Error(ctx, "failed to start service", logger.Error(err))
		os.Exit(1)
	}
	defer svc.Stop()

	go startServiceMetricsUpdater(ctx, svc)

	mux := http.NewServeMux()
	apiServer := api.NewServer(svc, svc, svc.Broadcaster())
	apiServer.Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
}

// startServiceMetricsUpdater refreshes the queue gauge from service
// stats on a fixed interval.
func startServiceMetricsUpdater(ctx context.Context, svc *service.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := svc.GetStats()
			metrics.UpdateQueueSize(stats.QueueLength)
			metrics.UpdateWorkerCount(stats.WorkerCount)
		}
	}
}
