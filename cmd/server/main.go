// QuantumStore Server
//
// Serves the file metadata store and the category grouping endpoints the
// explorer consumes, with Prometheus metrics and structured logging (zap).
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/quantumstore/quantumstore/internal/api"
	"github.com/quantumstore/quantumstore/internal/config"
	"github.com/quantumstore/quantumstore/internal/logging"
	"github.com/quantumstore/quantumstore/internal/metrics"
	"github.com/quantumstore/quantumstore/internal/store"
	"github.com/quantumstore/quantumstore/internal/store/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Can't use structured logging yet
		panic("configuration error: " + err.Error())
	}

	if err := logging.Init(logging.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	}); err != nil {
		panic("logging init error: " + err.Error())
	}
	defer logging.Sync()

	logging.Info("QuantumStore server starting...",
		zap.String("listen", cfg.ListenAddr),
		zap.String("metrics", cfg.MetricsAddr),
		zap.String("store", cfg.StoreBackend))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var metaStore store.Store
	switch cfg.StoreBackend {
	case "postgres":
		metaStore, err = postgres.New(cfg.DatabaseURL)
		if err != nil {
			logging.Fatal("database connection failed", zap.Error(err))
		}
	default:
		metaStore, err = store.NewLocal(cfg.DataDir)
		if err != nil {
			logging.Fatal("local store init failed", zap.Error(err))
		}
	}
	defer metaStore.Close()

	if n, err := metaStore.Count(ctx); err == nil {
		metrics.SetStoreFiles(n)
		logging.Info("store ready", zap.Int("files", n))
	}

	srv := api.NewServer(metaStore, api.Options{
		UploadsDir:    filepath.Join(cfg.DataDir, "uploads"),
		MaxUploadSize: cfg.MaxUploadSize,
	})

	metricsServer := &http.Server{
		Addr:    cfg.MetricsAddr,
		Handler: metrics.Handler(),
	}
	go func() {
		logging.Info("metrics server listening", zap.String("addr", cfg.MetricsAddr))
		if err := metricsServer.ListenAndServe(); err != http.ErrServerClosed {
			logging.Error("metrics server error", zap.Error(err))
		}
	}()

	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: srv.Routes(),
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logging.Info("shutting down...")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)
		metricsServer.Close()
	}()

	logging.Info("server listening", zap.String("addr", cfg.ListenAddr))
	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		logging.Fatal("server error", zap.Error(err))
	}
	logging.Info("server stopped")
}
