package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

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
	defer ctr.Logger.Sync()

	gin.SetMode(cfg.Server.GinMode)
	server := ui.NewServer(ctr.Plots, ctr.Runs, ctr.Reader, ui.ServerConfig{
		OutputDir:      cfg.Output.Dir,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		Defaults:       cfg.Plot.Options,
	}, ctr.Logger)

	addr := fmt.Sprintf(":%d", cfg.Server.APIPort)
	ctr.Logger.Info("Starting gostatsplot API on %s", addr)
	if err := server.Start(ctx, addr, cfg.Server.ShutdownTimeout); err != nil {
		ctr.Logger.Error("API server failed: %v", err)
		os.Exit(1)
	}
}
