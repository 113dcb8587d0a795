package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"gostatsplot/internal/config"
	"gostatsplot/internal/container"
	"gostatsplot/ui"
)

func main() {
	configPath := flag.String("config", "", "YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctr, err := container.New(ctx, cfg, nil)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer ctr.Close()

	app, err := ui.NewApp(ctr.Runs, ctr.Logger)
	if err != nil {
		log.Fatal("Failed to create UI app:", err)
	}

	addr := fmt.Sprintf(":%d", cfg.Server.UIPort)
	ctr.Logger.Info("Starting gostatsplot gallery on http://localhost%s", addr)
	if err := ui.Serve(ctx, addr, app, cfg.Server.ShutdownTimeout, ctr.Logger); err != nil {
		ctr.Logger.Error("Gallery server failed: %v", err)
		os.Exit(1)
	}
}
