// Copyright 2025 James Ross
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

	"github.com/joltworks/go-brew-queue/internal/config"
	"github.com/joltworks/go-brew-queue/internal/frontend"
	"github.com/joltworks/go-brew-queue/internal/obs"
	"github.com/joltworks/go-brew-queue/internal/queue"
	"github.com/joltworks/go-brew-queue/internal/scheduler"
	"github.com/joltworks/go-brew-queue/internal/storage"
)

var version = "dev"

func main() {
	var configPath string
	var showVersion bool
	var cronSpec string
	fs := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	fs.StringVar(&configPath, "config", "config/config.yaml", "Path to YAML config")
	fs.StringVar(&cronSpec, "clear-old-records-cron", "0 4 * * *", "Cron schedule for the daily clearOldRecords sweep")
	fs.BoolVar(&showVersion, "version", false, "Print version and exit")
	_ = fs.Parse(os.Args[1:])

	if showVersion {
		fmt.Println(version)
		return
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := obs.NewLogger(cfg.Observability.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := os.MkdirAll(dirOf(cfg.Persistence.DBPath), 0o755); err != nil {
		logger.Fatal("failed to create persistence directory", obs.Err(err))
	}

	store, err := storage.Open(cfg.Persistence.DBPath)
	if err != nil {
		logger.Fatal("failed to open persistence store", obs.Err(err))
	}
	defer store.Close()

	hub := frontend.NewHub(logger)
	engine := queue.NewEngine(cfg, store, hub, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := engine.Replay(ctx); err != nil {
		logger.Error("startup replay failed", obs.Err(err))
	}

	sched, err := scheduler.New(store, cronSpec, logger)
	if err != nil {
		logger.Fatal("failed to build scheduler", obs.Err(err))
	}
	sched.Start(ctx)

	readyCheck := func(c context.Context) error {
		_, err := store.GetQueue(c)
		return err
	}
	metricsSrv := obs.StartHTTPServer(cfg, readyCheck)
	defer func() { _ = metricsSrv.Shutdown(context.Background()) }()

	server := frontend.NewServer(engine, hub, logger)
	httpSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: server.Routes(),
	}

	logger.Info("brewqueue listening",
		obs.Int("port", cfg.Port),
		obs.String("endpoint", cfg.Endpoint),
	)

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("signal received, shutting down", obs.String("signal", sig.String()))
		cancel()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = httpSrv.Shutdown(shutdownCtx)
		select {
		case sig2 := <-sigCh:
			logger.Warn("second signal received, exiting immediately", obs.String("signal", sig2.String()))
			os.Exit(1)
		case <-time.After(5 * time.Second):
		}
	}()

	if err := httpSrv.ListenAndServe(); err != nil {
		logger.Info("http server stopped", obs.Err(err))
	}

	sched.Stop()
}

func dirOf(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[:i]
		}
	}
	return "."
}
