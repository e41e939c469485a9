// Motionsnap server - watches a capture source and saves a photo sequence on change
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/motionsnap/platform/internal/capture"
	"github.com/motionsnap/platform/internal/config"
	"github.com/motionsnap/platform/internal/sampler"
	"github.com/motionsnap/platform/internal/server"
	"github.com/motionsnap/platform/internal/session"
	"github.com/motionsnap/platform/internal/store"
)

func main() {
	cfg := config.Load()

	// Setup structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel(cfg.LogLevel)}))
	slog.SetDefault(logger)

	// Acquire the capture source once; released on every exit path
	source := capture.New(cfg)
	defer source.Close()

	st, err := store.New(cfg.OutputDir)
	if err != nil {
		slog.Error("failed to open output dir", "dir", cfg.OutputDir, "error", err)
		os.Exit(1)
	}

	smp := sampler.New(source, st)
	ctrl := session.NewController(smp, nil)

	srv := server.New(ctrl)
	ctrl.SetNotifier(srv)

	_, cancel := context.WithCancel(context.Background())
	defer cancel()

	httpServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      srv.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("motionsnap server starting", "http", cfg.HTTPAddr, "source", cfg.CaptureSource, "output", cfg.OutputDir)
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("http server error", "error", err)
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	slog.Info("shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown error", "error", err)
	}

	if ctrl.Capturing() {
		if _, err := ctrl.Stop(); err != nil {
			slog.Error("session stop error", "error", err)
		}
	}
	slog.Info("shutdown complete")
}

func logLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
