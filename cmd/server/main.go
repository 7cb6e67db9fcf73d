package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Blakeem/AI-Prompt-Guide-MCP-sub002/internal/api"
	"github.com/Blakeem/AI-Prompt-Guide-MCP-sub002/internal/config"
	"github.com/Blakeem/AI-Prompt-Guide-MCP-sub002/internal/docstore"
	"github.com/Blakeem/AI-Prompt-Guide-MCP-sub002/internal/engine"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	eng, err := engine.New(cfg, log)
	if err != nil {
		log.Error("engine init failed", "error", err)
		os.Exit(1)
	}
	if err := eng.Initialize(ctx); err != nil {
		log.Error("index build failed", "error", err)
		os.Exit(1)
	}

	// Change watcher keeps the cache and index consistent with the tree.
	watcher := docstore.NewWatcher(eng.Store(), cfg.WatchPollInterval, log, eng.HandleEvent)
	go watcher.Run(ctx)

	srv := api.NewServer(eng, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	log.Info("starting document engine", "port", cfg.Port, "root", cfg.DocsRoot)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
