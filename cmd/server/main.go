package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/andy6609/presence-server/internal/chat"
	"github.com/mama165/sdk-go/logs"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	envFile := flag.String("env-file", ".env", "dotenv file loaded before the environment")
	flag.Parse()

	config, err := loadConfig(*envFile)
	if err != nil {
		return err
	}
	logger := logs.GetLoggerFromString(config.LogLevel)

	srv := chat.NewServer(config.Addr(), logger,
		chat.WithWriteTimeout(config.WriteTimeout),
		chat.WithOutboundBuffer(config.OutboundBuffer),
	)
	if err := srv.Start(); err != nil {
		logger.Error("failed to start server", "error", err)
		return fmt.Errorf("listen on %s: %w", config.Addr(), err)
	}

	metrics := startMetrics(config.MetricsAddr, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case <-ctx.Done():
		logger.Info("signal received")
	case <-srv.Done():
		logger.Info("server killed by a client")
	}

	srv.Stop()
	if metrics != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = metrics.Shutdown(shutdownCtx)
	}
	return nil
}

func startMetrics(addr string, logger *slog.Logger) *http.Server {
	if addr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	metrics := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		logger.Info("metrics endpoint started", "addr", addr)
		if err := metrics.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics endpoint stopped", "error", err)
		}
	}()
	return metrics
}
